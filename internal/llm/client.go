// Package llm wraps the black-box text-completion service consumed by the
// pipeline's generation stages.
package llm

import "context"

// CompletionRequest is one rendered prompt ready for the completion service.
type CompletionRequest struct {
	// Prompt is the fully rendered prompt text.
	Prompt string

	// Model overrides the client's configured model when non-empty.
	Model string

	// Temperature is passed through as-is; the pipeline always uses 0.
	Temperature float32

	// MaxTokens limits the response length. Zero means the client default.
	MaxTokens int
}

// Client is the completion service. Failures are returned wrapped in
// model.GenerationError and never retried here; retry policy belongs to a
// resilience layer outside this module.
type Client interface {
	// Complete sends one prompt and returns the plain-text completion.
	Complete(ctx context.Context, req CompletionRequest) (string, error)

	// Name identifies the backing provider for logging.
	Name() string
}

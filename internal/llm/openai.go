package llm

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/safeplan-io/safeplan/internal/model"
)

// OpenAIClient implements Client over the OpenAI chat completions API.
type OpenAIClient struct {
	client *openai.Client
	config model.LLMConfig
}

// NewOpenAIClient creates a completion client from configuration. BaseURL
// may point at any OpenAI-compatible endpoint.
func NewOpenAIClient(cfg model.LLMConfig) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(clientConfig),
		config: cfg,
	}, nil
}

// Name returns the provider name.
func (c *OpenAIClient) Name() string {
	return "openai"
}

// Complete sends one prompt and returns the completion text. Any API failure
// is wrapped in model.GenerationError and surfaced unmodified.
func (c *OpenAIClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	mdl := req.Model
	if mdl == "" {
		mdl = c.config.Model
	}
	if mdl == "" {
		mdl = openai.GPT4o
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.config.MaxTokens
	}

	timeout := c.config.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	ctxWithTimeout, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// The API client omits a zero temperature from the request body, which
	// falls back to the server default of 1. The smallest positive float
	// keeps temperature-0 requests explicit.
	temperature := req.Temperature
	if temperature == 0 {
		temperature = math.SmallestNonzeroFloat32
	}

	resp, err := c.client.CreateChatCompletion(ctxWithTimeout, openai.ChatCompletionRequest{
		Model: mdl,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: req.Prompt,
			},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", &model.GenerationError{Err: err}
	}

	if len(resp.Choices) == 0 {
		return "", &model.GenerationError{Err: fmt.Errorf("no choices in completion response")}
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

package model

import (
	"fmt"
	"strings"
)

// Sentinel errors for conditions the caller is expected to branch on.
// Wrap with fmt.Errorf("...: %w", err) so errors.Is still matches.
var (
	// ErrInvalidRequest marks a request rejected before any external call.
	ErrInvalidRequest = fmt.Errorf("invalid request")

	// ErrEmptyMetrics marks a tracker call with zero per-example rows.
	// The mean of an empty set is undefined and must not be logged as zero.
	ErrEmptyMetrics = fmt.Errorf("empty metrics set")

	// ErrInsufficientHistory marks an improvement summary over fewer than
	// two ledger rows.
	ErrInsufficientHistory = fmt.Errorf("insufficient history")
)

// MissingVariableError indicates a prompt template referenced a placeholder
// with no supplied value. This is a template/code mismatch, not a runtime
// condition worth retrying.
type MissingVariableError struct {
	Name string
}

func (e *MissingVariableError) Error() string {
	return fmt.Sprintf("prompt template references undefined variable {%s}", e.Name)
}

// RetrievalError wraps a failure from the retrieval client. The underlying
// error is surfaced unmodified; retry policy belongs to the caller.
type RetrievalError struct {
	Err error
}

func (e *RetrievalError) Error() string { return "retrieval: " + e.Err.Error() }
func (e *RetrievalError) Unwrap() error { return e.Err }

// GenerationError wraps a failure from the text-completion client.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string { return "generation: " + e.Err.Error() }
func (e *GenerationError) Unwrap() error { return e.Err }

// MalformedPlanError indicates the synthesis output was still missing
// mandated sections after the corrective retry.
type MalformedPlanError struct {
	MissingSections []string
}

func (e *MalformedPlanError) Error() string {
	return fmt.Sprintf("plan missing required sections: %s", strings.Join(e.MissingSections, ", "))
}

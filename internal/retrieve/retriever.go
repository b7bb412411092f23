// Package retrieve defines the retrieval side of the pipeline: similarity
// search over an indexed document corpus. The pipeline treats the retriever
// as a black box whose result order is authoritative.
package retrieve

import (
	"context"

	"github.com/safeplan-io/safeplan/internal/model"
)

// Retriever performs similarity search. Results are ordered most-relevant
// first; the pipeline applies no re-ranking. Failures are returned wrapped
// in model.RetrievalError.
type Retriever interface {
	Search(ctx context.Context, query string, k int) ([]model.Document, error)
}

// Embedder generates a vector embedding for a piece of text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

package retrieve

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/safeplan-io/safeplan/internal/model"
)

// OpenAIEmbedder implements Embedder over the OpenAI embeddings API.
type OpenAIEmbedder struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

// NewOpenAIEmbedder creates an embedder. The model defaults to
// text-embedding-3-large, matching the index the corpus was built with.
func NewOpenAIEmbedder(apiKey, baseURL, embeddingModel string) (*OpenAIEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	mdl := openai.EmbeddingModel(embeddingModel)
	if embeddingModel == "" {
		mdl = openai.LargeEmbedding3
	}

	return &OpenAIEmbedder{
		client: openai.NewClientWithConfig(cfg),
		model:  mdl,
	}, nil
}

// Embed returns the embedding vector for text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: e.model,
	})
	if err != nil {
		return nil, &model.RetrievalError{Err: fmt.Errorf("embed query: %w", err)}
	}
	if len(resp.Data) == 0 {
		return nil, &model.RetrievalError{Err: fmt.Errorf("embeddings response contained no data")}
	}
	return resp.Data[0].Embedding, nil
}

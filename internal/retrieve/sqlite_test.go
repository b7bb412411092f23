package retrieve

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safeplan-io/safeplan/internal/model"
)

// stubEmbedder returns canned vectors so similarity ordering is controlled
// by the test, not by a live embeddings API.
type stubEmbedder struct {
	vectors map[string][]float32
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if vec, ok := s.vectors[text]; ok {
		return vec, nil
	}
	return []float32{0, 0, 1}, nil
}

func openTestIndex(t *testing.T, embedder Embedder) *SQLiteIndex {
	t.Helper()
	index, err := OpenSQLiteIndex(filepath.Join(t.TempDir(), "index.db"), embedder)
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })
	return index
}

func TestSQLiteIndex_SearchOrdersBySimilarity(t *testing.T) {
	embedder := &stubEmbedder{vectors: map[string][]float32{
		"auto theft in parking lots": {1, 0, 0},
		"exact match passage":        {1, 0, 0},
		"close passage":              {0.9, 0.1, 0},
		"unrelated passage":          {0, 1, 0},
	}}
	index := openTestIndex(t, embedder)

	docs := []model.Document{
		{Text: "unrelated passage", Metadata: map[string]string{"source": "https://tps.ca/c"}},
		{Text: "exact match passage", Metadata: map[string]string{"title": "Best", "source": "https://tps.ca/a"}},
		{Text: "close passage", Metadata: map[string]string{"source": "https://tps.ca/b"}},
	}
	require.NoError(t, index.Ingest(context.Background(), docs))

	results, err := index.Search(context.Background(), "auto theft in parking lots", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "exact match passage", results[0].Text)
	assert.Equal(t, "Best", results[0].Title())
	assert.Equal(t, "close passage", results[1].Text)
}

func TestSQLiteIndex_SearchRespectsK(t *testing.T) {
	embedder := &stubEmbedder{vectors: map[string][]float32{}}
	index := openTestIndex(t, embedder)

	var docs []model.Document
	for i := 0; i < 5; i++ {
		docs = append(docs, model.Document{
			Text:     "passage",
			Metadata: map[string]string{"source": "https://tps.ca/x"},
		})
	}
	require.NoError(t, index.Ingest(context.Background(), docs))

	results, err := index.Search(context.Background(), "query", 3)
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestSQLiteIndex_EmptyIndexReturnsNoDocuments(t *testing.T) {
	index := openTestIndex(t, &stubEmbedder{})

	results, err := index.Search(context.Background(), "anything", 10)
	require.NoError(t, err)
	assert.Empty(t, results, "empty retrieval is not an error condition")
}

func TestSQLiteIndex_MetadataRoundTrip(t *testing.T) {
	index := openTestIndex(t, &stubEmbedder{})

	require.NoError(t, index.Ingest(context.Background(), []model.Document{
		{Text: "p", Metadata: map[string]string{"title": "Crime Prevention", "source": "https://tps.ca/cp"}},
	}))

	results, err := index.Search(context.Background(), "p", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Crime Prevention", results[0].Metadata["title"])
	assert.Equal(t, "https://tps.ca/cp", results[0].Source())

	n, err := index.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, cosine([]float32{1, 0}, []float32{1, 0}), 1e-9)
	assert.InDelta(t, 0.0, cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, cosine([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.Zero(t, cosine([]float32{1}, []float32{1, 2}), "mismatched lengths")
	assert.Zero(t, cosine(nil, nil))
}

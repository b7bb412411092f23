package retrieve

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	_ "modernc.org/sqlite"

	"github.com/safeplan-io/safeplan/internal/model"
)

// SQLiteIndex is the default Retriever: documents and their embeddings in a
// local SQLite file, searched by brute-force cosine similarity. The corpus
// is small (a few hundred crime-prevention pages), so a scan beats carrying
// a vector-database dependency.
type SQLiteIndex struct {
	db       *sql.DB
	embedder Embedder
}

const indexSchema = `
CREATE TABLE IF NOT EXISTS documents (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	content   TEXT NOT NULL,
	metadata  TEXT NOT NULL DEFAULT '{}',
	embedding TEXT NOT NULL
);`

// OpenSQLiteIndex opens (creating if needed) the index at path.
func OpenSQLiteIndex(path string, embedder Embedder) (*SQLiteIndex, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	if _, err := db.Exec(indexSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init index schema: %w", err)
	}
	return &SQLiteIndex{db: db, embedder: embedder}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteIndex) Close() error {
	return s.db.Close()
}

// Ingest embeds and stores documents. Ingestion is a maintenance operation,
// not part of the request path.
func (s *SQLiteIndex) Ingest(ctx context.Context, docs []model.Document) error {
	for _, doc := range docs {
		vec, err := s.embedder.Embed(ctx, doc.Text)
		if err != nil {
			return fmt.Errorf("embed document: %w", err)
		}
		metaJSON, err := json.Marshal(doc.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}
		vecJSON, err := json.Marshal(vec)
		if err != nil {
			return fmt.Errorf("marshal embedding: %w", err)
		}
		if _, err := s.db.ExecContext(ctx,
			"INSERT INTO documents (content, metadata, embedding) VALUES (?, ?, ?)",
			doc.Text, string(metaJSON), string(vecJSON),
		); err != nil {
			return fmt.Errorf("insert document: %w", err)
		}
	}
	return nil
}

// Count returns the number of indexed documents.
func (s *SQLiteIndex) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&n); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}

type scored struct {
	doc model.Document
	sim float64
}

// Search embeds the query and returns the k most similar documents,
// most similar first.
func (s *SQLiteIndex) Search(ctx context.Context, query string, k int) ([]model.Document, error) {
	if k <= 0 {
		k = 10
	}

	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, "SELECT content, metadata, embedding FROM documents")
	if err != nil {
		return nil, &model.RetrievalError{Err: fmt.Errorf("query index: %w", err)}
	}
	defer rows.Close()

	var candidates []scored
	for rows.Next() {
		var content, metaJSON, vecJSON string
		if err := rows.Scan(&content, &metaJSON, &vecJSON); err != nil {
			return nil, &model.RetrievalError{Err: fmt.Errorf("scan document: %w", err)}
		}

		var meta map[string]string
		if err := json.Unmarshal([]byte(metaJSON), &meta); err != nil {
			return nil, &model.RetrievalError{Err: fmt.Errorf("decode metadata: %w", err)}
		}
		var vec []float32
		if err := json.Unmarshal([]byte(vecJSON), &vec); err != nil {
			return nil, &model.RetrievalError{Err: fmt.Errorf("decode embedding: %w", err)}
		}

		candidates = append(candidates, scored{
			doc: model.Document{Text: content, Metadata: meta},
			sim: cosine(queryVec, vec),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, &model.RetrievalError{Err: err}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].sim > candidates[j].sim
	})

	if len(candidates) > k {
		candidates = candidates[:k]
	}
	docs := make([]model.Document, len(candidates))
	for i, c := range candidates {
		docs[i] = c.doc
	}
	return docs, nil
}

// cosine returns the cosine similarity of two vectors, 0 for mismatched or
// zero-length inputs.
func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

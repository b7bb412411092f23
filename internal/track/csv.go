package track

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/safeplan-io/safeplan/internal/model"
)

// ledgerColumns is the exact ledger schema; row order is append order.
var ledgerColumns = []string{
	"timestamp", "experiment_name", "faithfulness", "answer_relevancy",
	"context_precision", "context_recall", "retriever_k", "model_name",
	"changes_made", "notes",
}

var metricsColumns = []string{
	"question", "faithfulness", "answer_relevancy", "context_precision", "context_recall",
}

// appendLedger appends one row, writing the header first on a fresh ledger.
// Callers hold the ledger lock.
func (t *Tracker) appendLedger(rec *model.ExperimentRecord) error {
	path := t.LedgerPath()

	_, statErr := os.Stat(path)
	fresh := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if fresh {
		if err := w.Write(ledgerColumns); err != nil {
			return fmt.Errorf("write ledger header: %w", err)
		}
	}
	if err := w.Write([]string{
		rec.Timestamp,
		rec.ExperimentName,
		formatScore(rec.Faithfulness),
		formatScore(rec.AnswerRelevancy),
		formatScore(rec.ContextPrecision),
		formatScore(rec.ContextRecall),
		strconv.Itoa(rec.RetrieverK),
		rec.ModelName,
		rec.ChangesMade,
		rec.Notes,
	}); err != nil {
		return fmt.Errorf("write ledger row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush ledger: %w", err)
	}
	return f.Sync()
}

// History reads the full ledger in append order.
func (t *Tracker) History() ([]model.ExperimentRecord, error) {
	f, err := os.Open(t.LedgerPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	if len(rows) <= 1 {
		return nil, nil
	}

	records := make([]model.ExperimentRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) != len(ledgerColumns) {
			return nil, fmt.Errorf("ledger row has %d columns, want %d", len(row), len(ledgerColumns))
		}
		k, err := strconv.Atoi(row[6])
		if err != nil {
			return nil, fmt.Errorf("parse retriever_k %q: %w", row[6], err)
		}
		scores := make([]float64, 4)
		for i, raw := range row[2:6] {
			v, err := parseScore(raw)
			if err != nil {
				return nil, fmt.Errorf("ledger row %s, column %s: %w", row[0], ledgerColumns[2+i], err)
			}
			scores[i] = v
		}
		records = append(records, model.ExperimentRecord{
			Timestamp:        row[0],
			ExperimentName:   row[1],
			Faithfulness:     scores[0],
			AnswerRelevancy:  scores[1],
			ContextPrecision: scores[2],
			ContextRecall:    scores[3],
			RetrieverK:       k,
			ModelName:        row[7],
			ChangesMade:      row[8],
			Notes:            row[9],
		})
	}
	return records, nil
}

// writeMetricsArtifact persists the raw per-example table for one run.
func (t *Tracker) writeMetricsArtifact(timestamp string, metrics []model.ExampleMetrics) error {
	f, err := os.Create(t.metricsArtifactPath(timestamp))
	if err != nil {
		return fmt.Errorf("create metrics artifact: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(metricsColumns); err != nil {
		return fmt.Errorf("write metrics header: %w", err)
	}
	for _, m := range metrics {
		if err := w.Write([]string{
			m.Question,
			formatScore(m.Faithfulness),
			formatScore(m.AnswerRelevancy),
			formatScore(m.ContextPrecision),
			formatScore(m.ContextRecall),
		}); err != nil {
			return fmt.Errorf("write metrics row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush metrics artifact: %w", err)
	}
	return nil
}

// LoadMetricsCSV reads a per-example metrics table, e.g. one produced by
// the external evaluator or a prior metrics artifact.
func LoadMetricsCSV(path string) ([]model.ExampleMetrics, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open metrics file: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read metrics file: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	// Column positions come from the header so evaluator exports with
	// extra columns still load.
	idx := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		idx[name] = i
	}
	for _, required := range []string{"faithfulness", "answer_relevancy", "context_precision", "context_recall"} {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("metrics file missing column %q", required)
		}
	}

	var metrics []model.ExampleMetrics
	for rowNum, row := range rows[1:] {
		var m model.ExampleMetrics
		for _, col := range []struct {
			name string
			dst  *float64
		}{
			{"faithfulness", &m.Faithfulness},
			{"answer_relevancy", &m.AnswerRelevancy},
			{"context_precision", &m.ContextPrecision},
			{"context_recall", &m.ContextRecall},
		} {
			v, err := parseScore(row[idx[col.name]])
			if err != nil {
				return nil, fmt.Errorf("metrics row %d, column %s: %w", rowNum+2, col.name, err)
			}
			*col.dst = v
		}
		if qi, ok := idx["question"]; ok && qi < len(row) {
			m.Question = row[qi]
		}
		metrics = append(metrics, m)
	}
	return metrics, nil
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// parseScore rejects anything that is not a finite number. A blank or NaN
// score means the evaluator failed on that example; averaging it in as zero
// would persist a misleading ledger row.
func parseScore(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable score %q", s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("score %q is not a finite number", s)
	}
	return v, nil
}

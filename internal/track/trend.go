package track

import (
	"fmt"
	"os"
	"strings"

	"github.com/safeplan-io/safeplan/internal/model"
)

// ErrTrendUnavailable reports that no trend renderer is configured. Trend
// rendering is a presentation concern; its absence never fails logging.
var ErrTrendUnavailable = fmt.Errorf("trend rendering unavailable")

// TrendRenderer turns the ledger history into a trend view. Implementations
// are pluggable; the built-in one writes a Markdown table.
type TrendRenderer interface {
	// Filename is the output name inside the tracking directory.
	Filename() string

	// Render writes the trend view for the given history to path.
	Render(history []model.ExperimentRecord, path string) error
}

// MarkdownTrend renders metric history as a Markdown table, one row per
// ledger entry.
type MarkdownTrend struct{}

func (m *MarkdownTrend) Filename() string {
	return "metrics_trend.md"
}

func (m *MarkdownTrend) Render(history []model.ExperimentRecord, path string) error {
	var b strings.Builder
	b.WriteString("# Metrics Over Time\n\n")

	if len(history) == 0 {
		b.WriteString("No experiments logged yet.\n")
	} else {
		b.WriteString("| Timestamp | Experiment | Faithfulness | Answer Relevancy | Context Precision | Context Recall |\n")
		b.WriteString("|---|---|---|---|---|---|\n")
		for _, rec := range history {
			fmt.Fprintf(&b, "| %s | %s | %.4f | %.4f | %.4f | %.4f |\n",
				rec.Timestamp, rec.ExperimentName,
				rec.Faithfulness, rec.AnswerRelevancy,
				rec.ContextPrecision, rec.ContextRecall)
		}
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write trend file: %w", err)
	}
	return nil
}

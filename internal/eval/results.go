package eval

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// WriteResults writes the batch output as a timestamped CSV in dir and
// returns the file path. Failed examples carry their error in the error
// column with an empty answer.
func WriteResults(results []Result, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("evaluation_results_%s.csv", time.Now().Format("2006-01-02_15-04-05")))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create results file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"neighbourhood", "concerns", "answer", "error", "duration_ms"}); err != nil {
		return "", fmt.Errorf("write results header: %w", err)
	}
	for _, res := range results {
		errText := ""
		if res.Err != nil {
			errText = res.Err.Error()
		}
		if err := w.Write([]string{
			res.Question.Neighbourhood,
			strings.Join(res.Question.Concerns, "; "),
			res.Plan,
			errText,
			fmt.Sprintf("%d", res.Duration.Milliseconds()),
		}); err != nil {
			return "", fmt.Errorf("write results row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush results: %w", err)
	}
	return path, nil
}

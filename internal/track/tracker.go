// Package track implements the experiment tracker: an append-only ledger of
// evaluation runs with per-run metric and configuration artifacts, used to
// follow retrieval/prompt changes across experiments.
package track

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/safeplan-io/safeplan/internal/model"
)

const (
	ledgerFile = "improvement_history.csv"
	lockFile   = "improvement_history.lock"
	metricsDir = "metrics"
	configsDir = "configs"
	timeLayout = "20060102_150405"
)

// Tracker logs experiment runs. The ledger file is process-wide shared
// state: every append happens under a cross-process file lock so concurrent
// read-append-write cycles cannot lose rows.
type Tracker struct {
	dir        string
	experiment string
	logger     *zap.Logger
	trend      TrendRenderer
	now        func() time.Time

	mu sync.Mutex // serializes writers within this process
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(t *Tracker) { t.logger = logger }
}

// WithTrendRenderer overrides the built-in trend renderer. Passing nil
// makes trend rendering report unavailable instead of failing.
func WithTrendRenderer(r TrendRenderer) Option {
	return func(t *Tracker) { t.trend = r }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// New creates a tracker rooted at dir, creating the tracking directories.
func New(dir, experiment string, opts ...Option) (*Tracker, error) {
	t := &Tracker{
		dir:        dir,
		experiment: experiment,
		logger:     zap.NewNop(),
		trend:      &MarkdownTrend{},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}

	for _, sub := range []string{"", metricsDir, configsDir} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("create tracking dir: %w", err)
		}
	}
	return t, nil
}

// LogExperiment aggregates per-example metrics into one ledger row and
// persists the raw metrics table and configuration snapshot as artifacts
// named by the row's timestamp. The ledger is append-only: existing rows
// are never rewritten.
func (t *Tracker) LogExperiment(metrics []model.ExampleMetrics, cfg model.ExperimentConfig, notes string) (*model.ExperimentRecord, error) {
	if len(metrics) == 0 {
		return nil, fmt.Errorf("%w: cannot aggregate zero examples", model.ErrEmptyMetrics)
	}

	means := meanMetrics(metrics)

	t.mu.Lock()
	defer t.mu.Unlock()

	lock := flock.New(filepath.Join(t.dir, lockFile))
	if err := lock.Lock(); err != nil {
		return nil, fmt.Errorf("lock ledger: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	timestamp := t.uniqueTimestamp()

	record := &model.ExperimentRecord{
		Timestamp:        timestamp,
		ExperimentName:   t.experiment,
		Faithfulness:     means.Faithfulness,
		AnswerRelevancy:  means.AnswerRelevancy,
		ContextPrecision: means.ContextPrecision,
		ContextRecall:    means.ContextRecall,
		RetrieverK:       cfg.RetrieverK,
		ModelName:        cfg.ModelName,
		ChangesMade:      cfg.ChangesMade,
		Notes:            notes,
	}

	if err := t.writeMetricsArtifact(timestamp, metrics); err != nil {
		return nil, err
	}
	if err := t.writeConfigArtifact(timestamp, cfg); err != nil {
		return nil, err
	}
	if err := t.appendLedger(record); err != nil {
		return nil, err
	}

	t.logger.Info("experiment logged",
		zap.String("timestamp", timestamp),
		zap.String("experiment", t.experiment),
		zap.Int("examples", len(metrics)),
		zap.Float64("faithfulness", record.Faithfulness))

	return record, nil
}

// ImprovementSummary returns, for each metric, latest minus first ledger
// value. Fails with ErrInsufficientHistory below two rows.
func (t *Tracker) ImprovementSummary() (map[string]float64, error) {
	history, err := t.History()
	if err != nil {
		return nil, err
	}
	if len(history) < 2 {
		return nil, fmt.Errorf("%w: have %d rows, need at least 2", model.ErrInsufficientHistory, len(history))
	}

	first, last := history[0], history[len(history)-1]
	return map[string]float64{
		"faithfulness":      last.Faithfulness - first.Faithfulness,
		"answer_relevancy":  last.AnswerRelevancy - first.AnswerRelevancy,
		"context_precision": last.ContextPrecision - first.ContextPrecision,
		"context_recall":    last.ContextRecall - first.ContextRecall,
	}, nil
}

// RenderTrend writes a trend view of the metric history and returns its
// path. With no renderer configured it returns ErrTrendUnavailable; the
// logging path is never affected.
func (t *Tracker) RenderTrend() (string, error) {
	if t.trend == nil {
		return "", ErrTrendUnavailable
	}
	history, err := t.History()
	if err != nil {
		return "", err
	}
	path := filepath.Join(t.dir, t.trend.Filename())
	if err := t.trend.Render(history, path); err != nil {
		return "", fmt.Errorf("render trend: %w", err)
	}
	return path, nil
}

// LedgerPath returns the ledger file location.
func (t *Tracker) LedgerPath() string {
	return filepath.Join(t.dir, ledgerFile)
}

// uniqueTimestamp returns a second-resolution timestamp key, suffixed when
// a run in the same second already claimed it. Cross-process collisions are
// excluded by the ledger lock held by the caller.
func (t *Tracker) uniqueTimestamp() string {
	base := t.now().Format(timeLayout)
	candidate := base
	for n := 2; ; n++ {
		if _, err := os.Stat(t.metricsArtifactPath(candidate)); os.IsNotExist(err) {
			return candidate
		}
		candidate = fmt.Sprintf("%s_%d", base, n)
	}
}

func (t *Tracker) metricsArtifactPath(timestamp string) string {
	return filepath.Join(t.dir, metricsDir, "metrics_"+timestamp+".csv")
}

func (t *Tracker) configArtifactPath(timestamp string) string {
	return filepath.Join(t.dir, configsDir, "config_"+timestamp+".yaml")
}

func (t *Tracker) writeConfigArtifact(timestamp string, cfg model.ExperimentConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config snapshot: %w", err)
	}
	if err := os.WriteFile(t.configArtifactPath(timestamp), data, 0o644); err != nil {
		return fmt.Errorf("write config snapshot: %w", err)
	}
	return nil
}

// meanMetrics computes the per-metric arithmetic mean. Callers guarantee a
// non-empty slice.
func meanMetrics(metrics []model.ExampleMetrics) model.ExampleMetrics {
	var sum model.ExampleMetrics
	for _, m := range metrics {
		sum.Faithfulness += m.Faithfulness
		sum.AnswerRelevancy += m.AnswerRelevancy
		sum.ContextPrecision += m.ContextPrecision
		sum.ContextRecall += m.ContextRecall
	}
	n := float64(len(metrics))
	return model.ExampleMetrics{
		Faithfulness:     sum.Faithfulness / n,
		AnswerRelevancy:  sum.AnswerRelevancy / n,
		ContextPrecision: sum.ContextPrecision / n,
		ContextRecall:    sum.ContextRecall / n,
	}
}

package model

import "time"

// Config is the full configuration tree. Defaults are overridden by the
// config file, SAFEPLAN_* environment variables, then CLI flags.
type Config struct {
	LLM       LLMConfig       `yaml:"llm"`
	Retriever RetrieverConfig `yaml:"retriever"`
	Cache     CacheConfig     `yaml:"cache"`
	Tracking  TrackingConfig  `yaml:"tracking"`
	Eval      EvalConfig      `yaml:"eval"`
	Output    OutputConfig    `yaml:"output"`
}

// LLMConfig configures the text-completion client.
type LLMConfig struct {
	APIKey string `yaml:"api_key,omitempty"`

	// BaseURL points at an OpenAI-compatible endpoint. Empty means the
	// public API; tests point it at a local fake.
	BaseURL string `yaml:"base_url,omitempty"`

	Model string `yaml:"model"`

	// Temperature is fixed at 0 for deterministic generation settings.
	Temperature float32 `yaml:"temperature"`

	MaxTokens int           `yaml:"max_tokens"`
	Timeout   time.Duration `yaml:"timeout"`

	// RequestsPerSecond caps the completion call rate. Zero disables
	// the limiter.
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// RetrieverConfig configures similarity search.
type RetrieverConfig struct {
	// K is the number of documents fetched per analysis run.
	K int `yaml:"k"`

	// IndexPath is the SQLite file backing the default retriever.
	IndexPath string `yaml:"index_path"`

	EmbeddingModel string `yaml:"embedding_model"`
}

// CacheConfig configures the optional plan fingerprint cache. Disabled by
// default: every run re-queries retrieval and generation.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Dir     string        `yaml:"dir"`
	TTL     time.Duration `yaml:"ttl"`
}

// TrackingConfig configures the experiment tracker.
type TrackingConfig struct {
	Dir            string `yaml:"dir"`
	ExperimentName string `yaml:"experiment_name"`
}

// EvalConfig configures the batch evaluation runner.
type EvalConfig struct {
	Workers   int    `yaml:"workers"`
	OutputDir string `yaml:"output_dir"`
}

// OutputConfig controls CLI output behavior.
type OutputConfig struct {
	Verbose bool `yaml:"verbose"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Model:             "gpt-4o",
			Temperature:       0,
			MaxTokens:         2048,
			Timeout:           60 * time.Second,
			RequestsPerSecond: 0,
		},
		Retriever: RetrieverConfig{
			K:              10,
			IndexPath:      "safeplan.db",
			EmbeddingModel: "text-embedding-3-large",
		},
		Cache: CacheConfig{
			Enabled: false,
			Dir:     ".safeplan-cache",
			TTL:     24 * time.Hour,
		},
		Tracking: TrackingConfig{
			Dir:            "rag_tracking",
			ExperimentName: "safeplan",
		},
		Eval: EvalConfig{
			Workers:   4,
			OutputDir: "eval-results",
		},
	}
}

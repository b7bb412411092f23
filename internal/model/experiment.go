package model

// ExampleMetrics holds the four evaluation scores for one test example.
// Scores are produced by an external evaluator; the tracker only aggregates.
type ExampleMetrics struct {
	Question         string  `json:"question,omitempty"`
	Faithfulness     float64 `json:"faithfulness"`
	AnswerRelevancy  float64 `json:"answer_relevancy"`
	ContextPrecision float64 `json:"context_precision"`
	ContextRecall    float64 `json:"context_recall"`
}

// ExperimentConfig is the configuration snapshot persisted alongside each
// ledger row so any row's inputs can be reconstructed exactly.
type ExperimentConfig struct {
	RetrieverK  int               `yaml:"retriever_k"`
	ModelName   string            `yaml:"model_name"`
	ChangesMade string            `yaml:"changes_made"`
	Extra       map[string]string `yaml:"extra,omitempty"`
}

// ExperimentRecord is one row of the append-only improvement ledger.
type ExperimentRecord struct {
	Timestamp        string
	ExperimentName   string
	Faithfulness     float64
	AnswerRelevancy  float64
	ContextPrecision float64
	ContextRecall    float64
	RetrieverK       int
	ModelName        string
	ChangesMade      string
	Notes            string
}

package model

// AnalysisResult is the output of the analysis stage: grounded free-text
// analysis plus the documents it was grounded in. The documents are carried
// forward for citation, not re-retrieved.
type AnalysisResult struct {
	Analysis  string
	Documents []Document
}

// SafetyPlan is the final, immutable output of one pipeline run.
type SafetyPlan struct {
	// Body is the structured four-section plan text from synthesis.
	Body string

	// Citations are the deduplicated (title, source) pairs of the
	// documents consulted during analysis, in first-seen order.
	Citations []Citation

	// Text is the fully assembled plan: preamble, body, sources block,
	// disclaimer footer.
	Text string
}

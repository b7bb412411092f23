package model

// Document is one passage returned by the retrieval client. It is owned by
// the analysis stage for the duration of a run and never mutated.
type Document struct {
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Source returns the document's source identifier. The retrieval contract
// guarantees it is present; an empty return indicates a defective retriever.
func (d Document) Source() string {
	return d.Metadata["source"]
}

// Title returns the document title, defaulting to "Untitled".
func (d Document) Title() string {
	if t, ok := d.Metadata["title"]; ok && t != "" {
		return t
	}
	return "Untitled"
}

// Citation is a deduplicated (title, source) pair listed under
// "Sources Consulted".
type Citation struct {
	Title  string `json:"title"`
	Source string `json:"source"`
}

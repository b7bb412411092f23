package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// Severity is the reported level of a crime concern. The vocabulary is
// closed; free-form input is parsed into it at the boundary.
type Severity string

const (
	SeverityUnspecified Severity = ""
	SeverityLow         Severity = "low"
	SeverityMedium      Severity = "medium"
	SeverityHigh        Severity = "high"
)

// ParseSeverity maps a user-supplied severity label to the closed vocabulary.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return SeverityUnspecified, nil
	case "low":
		return SeverityLow, nil
	case "medium", "med":
		return SeverityMedium, nil
	case "high":
		return SeverityHigh, nil
	default:
		return SeverityUnspecified, fmt.Errorf("%w: unrecognized severity %q", ErrInvalidRequest, s)
	}
}

// String renders the severity with the capitalization used in plan text.
func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "Low"
	case SeverityMedium:
		return "Medium"
	case SeverityHigh:
		return "High"
	default:
		return ""
	}
}

// Concern is one parsed crime concern. Crime types are open strings (the
// police feed has dozens of categories); severity is constrained.
type Concern struct {
	Type     string
	Severity Severity
}

// ParseConcern parses a "Type: Severity" entry. A bare "Type" is accepted
// with unspecified severity. Trailing semicolons are stripped.
func ParseConcern(raw string) (Concern, error) {
	s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(raw), ";"))
	if s == "" {
		return Concern{}, fmt.Errorf("%w: empty crime concern", ErrInvalidRequest)
	}

	typ, level, found := strings.Cut(s, ":")
	typ = strings.TrimSpace(typ)
	if typ == "" {
		return Concern{}, fmt.Errorf("%w: crime concern %q has no type", ErrInvalidRequest, raw)
	}
	if !found {
		return Concern{Type: typ}, nil
	}

	sev, err := ParseSeverity(level)
	if err != nil {
		return Concern{}, err
	}
	return Concern{Type: typ, Severity: sev}, nil
}

// String reproduces the "Type: Severity" form used in prompts and plan text.
func (c Concern) String() string {
	if c.Severity == SeverityUnspecified {
		return c.Type
	}
	return c.Type + ": " + c.Severity.String()
}

// SafetyPlanRequest is the input to one pipeline run.
//
// Context holds alternating question/answer lines; their order is
// semantically meaningful and preserved when flattened.
type SafetyPlanRequest struct {
	Neighbourhood string
	Concerns      []Concern
	Context       []string
}

// NewRequest parses raw CLI/API input into a validated request.
func NewRequest(neighbourhood string, concerns []string, context []string) (SafetyPlanRequest, error) {
	req := SafetyPlanRequest{
		Neighbourhood: strings.TrimSpace(neighbourhood),
		Context:       context,
	}
	for _, raw := range concerns {
		c, err := ParseConcern(raw)
		if err != nil {
			return SafetyPlanRequest{}, err
		}
		req.Concerns = append(req.Concerns, c)
	}
	if err := req.Validate(); err != nil {
		return SafetyPlanRequest{}, err
	}
	return req, nil
}

// Validate enforces the request invariants. It runs before any external call.
func (r SafetyPlanRequest) Validate() error {
	if strings.TrimSpace(r.Neighbourhood) == "" {
		return fmt.Errorf("%w: neighbourhood is required", ErrInvalidRequest)
	}
	if len(r.Concerns) == 0 {
		return fmt.Errorf("%w: at least one crime concern is required", ErrInvalidRequest)
	}
	return nil
}

// ConcernList renders the concerns comma-joined for prompts and the plan
// preamble.
func (r SafetyPlanRequest) ConcernList() string {
	parts := make([]string, len(r.Concerns))
	for i, c := range r.Concerns {
		parts[i] = c.String()
	}
	return strings.Join(parts, ", ")
}

// Flatten combines location, concerns, and user context into the single
// input block both generation stages consume.
func (r SafetyPlanRequest) Flatten() string {
	var b strings.Builder
	b.WriteString("LOCATION: ")
	b.WriteString(r.Neighbourhood)
	b.WriteString("\n\nSAFETY CONCERNS:\n- ")
	b.WriteString(r.ConcernList())
	b.WriteString("\n\nADDITIONAL USER CONTEXT:\n")
	b.WriteString(strings.Join(r.Context, "\n"))
	return b.String()
}

// Fingerprint derives a deterministic cache key from the request plus the
// pieces of configuration that change the output: the prompt template
// version, retriever depth, and model. Editing a template or reconfiguring
// the pipeline therefore invalidates prior entries.
func (r SafetyPlanRequest) Fingerprint(templateVersion string, retrieverK int, modelName string) string {
	h := sha256.New()
	for _, part := range []string{
		templateVersion,
		strconv.Itoa(retrieverK),
		modelName,
		r.Neighbourhood,
		r.ConcernList(),
	} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	for _, line := range r.Context {
		h.Write([]byte(line))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

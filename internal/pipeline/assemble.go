package pipeline

import (
	"fmt"
	"strings"

	"github.com/safeplan-io/safeplan/internal/model"
)

const (
	planHeader = "CITY OF TORONTO SERVICE SAFETY PLAN"

	sourcesHeading = "Sources Consulted:"

	planFooter = `Note: This safety plan is generated based on Toronto Police Service resources and general
safety guidelines. For emergencies, always call 911. For non-emergency police matters,
call 416-808-2222.`
)

// Citations extracts the deduplicated (title, source) pairs from the
// documents used during analysis, preserving first-seen order. A document
// with no source is a defect in the retrieval client's contract; its empty
// source is listed rather than fabricated.
func Citations(docs []model.Document) []model.Citation {
	seen := make(map[model.Citation]struct{}, len(docs))
	var citations []model.Citation
	for _, doc := range docs {
		c := model.Citation{Title: doc.Title(), Source: doc.Source()}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		citations = append(citations, c)
	}
	return citations
}

// Assemble deterministically merges the plan body with the citation list:
// preamble restating neighbourhood and concerns, body, sources block,
// disclaimer footer. Pure; no I/O.
func Assemble(req model.SafetyPlanRequest, body string, docs []model.Document) *model.SafetyPlan {
	citations := Citations(docs)

	// Models occasionally append their own sources list; ours is built
	// from the actual retrieved documents, so any model-emitted block is
	// dropped.
	if idx := strings.Index(body, sourcesHeading); idx >= 0 {
		body = strings.TrimSpace(body[:idx])
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\nNeighbourhood: %s\nPrimary Concerns: %s\n\n", planHeader, req.Neighbourhood, req.ConcernList())
	b.WriteString(strings.TrimSpace(body))
	b.WriteString("\n\n")
	b.WriteString(sourcesHeading)
	b.WriteString("\n")
	for _, c := range citations {
		fmt.Fprintf(&b, "- %s (%s)\n", c.Title, c.Source)
	}
	b.WriteString("\n----\n\n")
	b.WriteString(planFooter)
	b.WriteString("\n")

	return &model.SafetyPlan{
		Body:      body,
		Citations: citations,
		Text:      b.String(),
	}
}

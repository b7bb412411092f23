package pipeline

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/safeplan-io/safeplan/internal/llm"
	"github.com/safeplan-io/safeplan/internal/model"
	"github.com/safeplan-io/safeplan/internal/prompt"
)

// analyze retrieves the top-k documents for the flattened request and
// produces a grounded free-text analysis. Zero retrieved documents is not
// an error: the prompt instructs the model to flag missing information
// instead of fabricating.
func (p *Pipeline) analyze(ctx context.Context, req model.SafetyPlanRequest) (model.AnalysisResult, error) {
	query := req.Flatten()

	docs, err := p.retriever.Search(ctx, query, p.cfg.Retriever.K)
	if err != nil {
		return model.AnalysisResult{}, err
	}
	if len(docs) == 0 {
		p.logger.Warn("retrieval returned no documents",
			zap.String("neighbourhood", req.Neighbourhood))
	}

	rendered, err := prompt.Render(prompt.AnalysisTemplate, map[string]string{
		"input":   query,
		"context": joinDocuments(docs),
	})
	if err != nil {
		return model.AnalysisResult{}, err
	}

	analysis, err := p.client.Complete(ctx, llm.CompletionRequest{
		Prompt:      rendered,
		Temperature: p.cfg.LLM.Temperature,
	})
	if err != nil {
		return model.AnalysisResult{}, err
	}

	return model.AnalysisResult{Analysis: analysis, Documents: docs}, nil
}

// synthesize turns the analysis into the four-section plan body. Section
// presence is checked after generation; one corrective retry is attempted
// before the run fails with MalformedPlanError.
func (p *Pipeline) synthesize(ctx context.Context, req model.SafetyPlanRequest, analysis string) (string, error) {
	rendered, err := prompt.Render(prompt.SynthesisTemplate, map[string]string{
		"input":    req.Flatten(),
		"analysis": analysis,
	})
	if err != nil {
		return "", err
	}

	body, err := p.client.Complete(ctx, llm.CompletionRequest{
		Prompt:      rendered,
		Temperature: p.cfg.LLM.Temperature,
	})
	if err != nil {
		return "", err
	}

	missing := missingSections(body)
	if len(missing) == 0 {
		return body, nil
	}

	p.logger.Warn("plan body missing sections, retrying with corrective instruction",
		zap.Strings("missing", missing))

	body, err = p.client.Complete(ctx, llm.CompletionRequest{
		Prompt:      rendered + prompt.CorrectiveInstruction,
		Temperature: p.cfg.LLM.Temperature,
	})
	if err != nil {
		return "", err
	}

	if missing := missingSections(body); len(missing) > 0 {
		return "", &model.MalformedPlanError{MissingSections: missing}
	}
	return body, nil
}

// joinDocuments stuffs the retrieved passages into the {context} block,
// preserving retrieval order.
func joinDocuments(docs []model.Document) string {
	if len(docs) == 0 {
		return prompt.EmptyContext
	}
	parts := make([]string, len(docs))
	for i, doc := range docs {
		parts[i] = doc.Text
	}
	return strings.Join(parts, "\n\n")
}

// Package pipeline orchestrates the two-stage safety plan chain:
// retrieve, analyze, synthesize, assemble. The chain topology is fixed;
// synthesis depends on the analysis output, so the stages are strictly
// sequential within one request.
package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/safeplan-io/safeplan/internal/cache"
	"github.com/safeplan-io/safeplan/internal/llm"
	"github.com/safeplan-io/safeplan/internal/model"
	"github.com/safeplan-io/safeplan/internal/prompt"
	"github.com/safeplan-io/safeplan/internal/retrieve"
)

// Pipeline composes the retrieval client, prompt renderer, and completion
// client into the generate-safety-plan operation. A Pipeline is safe for
// concurrent use: it holds no per-request state.
type Pipeline struct {
	retriever retrieve.Retriever
	client    llm.Client
	cfg       *model.Config
	planCache cache.Cache // nil when caching is disabled
	logger    *zap.Logger
}

// New creates a pipeline. The fingerprint cache is only attached when
// enabled in configuration; the default is a full re-run on every request.
func New(retriever retrieve.Retriever, client llm.Client, cfg *model.Config, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}

	var planCache cache.Cache
	if cfg.Cache.Enabled {
		planCache = cache.NewLayeredCache(cfg.Cache.Dir, cfg.Cache.TTL)
	}

	return &Pipeline{
		retriever: retriever,
		client:    client,
		cfg:       cfg,
		planCache: planCache,
		logger:    logger,
	}
}

// GeneratePlan runs the full chain for one request. Validation happens
// before any external call; external failures propagate to the caller
// carrying their taxonomy type, never retried or swallowed here.
func (p *Pipeline) GeneratePlan(ctx context.Context, req model.SafetyPlanRequest) (*model.SafetyPlan, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	cacheKey := ""
	if p.planCache != nil {
		cacheKey = cache.Key(req.Fingerprint(prompt.TemplateVersion, p.cfg.Retriever.K, p.cfg.LLM.Model))
		if cached, found := p.planCache.Get(cacheKey); found {
			p.logger.Debug("plan cache hit", zap.String("neighbourhood", req.Neighbourhood))
			return &model.SafetyPlan{Text: string(cached)}, nil
		}
	}

	analysis, err := p.analyze(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("analysis stage: %w", err)
	}

	body, err := p.synthesize(ctx, req, analysis.Analysis)
	if err != nil {
		return nil, fmt.Errorf("synthesis stage: %w", err)
	}

	plan := Assemble(req, body, analysis.Documents)

	if p.planCache != nil {
		if err := p.planCache.Set(cacheKey, []byte(plan.Text), 0); err != nil {
			p.logger.Warn("plan cache write failed", zap.Error(err))
		}
	}

	p.logger.Info("safety plan generated",
		zap.String("neighbourhood", req.Neighbourhood),
		zap.Int("documents", len(analysis.Documents)),
		zap.Int("citations", len(plan.Citations)))

	return plan, nil
}

// Package eval runs the pipeline over a question set to produce the
// answer/context rows an external evaluator scores. Metric computation
// itself stays outside this module.
package eval

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/safeplan-io/safeplan/internal/model"
)

// Question is one evaluation example.
type Question struct {
	Neighbourhood string   `yaml:"neighbourhood"`
	Concerns      []string `yaml:"concerns"`
	Context       []string `yaml:"context"`
}

// Result is the pipeline output for one question. Err is kept per-example
// so one failing generation does not abort the batch.
type Result struct {
	Question Question
	Plan     string
	Err      error
	Duration time.Duration
}

// PlanGenerator is the slice of the pipeline the runner needs.
type PlanGenerator interface {
	GeneratePlan(ctx context.Context, req model.SafetyPlanRequest) (*model.SafetyPlan, error)
}

// Runner generates plans for a question set with a bounded worker pool.
type Runner struct {
	generator PlanGenerator
	workers   int
	logger    *zap.Logger
}

// NewRunner creates a runner. Non-positive workers defaults to 1.
func NewRunner(generator PlanGenerator, workers int, logger *zap.Logger) *Runner {
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{generator: generator, workers: workers, logger: logger}
}

// LoadQuestions reads a YAML question set.
func LoadQuestions(path string) ([]Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read question set: %w", err)
	}
	var questions []Question
	if err := yaml.Unmarshal(data, &questions); err != nil {
		return nil, fmt.Errorf("parse question set: %w", err)
	}
	return questions, nil
}

// Run generates a plan per question. Results are returned in question
// order regardless of completion order.
func (r *Runner) Run(ctx context.Context, questions []Question) []Result {
	results := make([]Result, len(questions))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < r.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = r.runOne(ctx, questions[i])
			}
		}()
	}

	for i := range questions {
		select {
		case <-ctx.Done():
			// Unscheduled questions report the cancellation.
			results[i] = Result{Question: questions[i], Err: ctx.Err()}
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	return results
}

func (r *Runner) runOne(ctx context.Context, q Question) Result {
	start := time.Now()

	req, err := model.NewRequest(q.Neighbourhood, q.Concerns, q.Context)
	if err != nil {
		return Result{Question: q, Err: err, Duration: time.Since(start)}
	}

	plan, err := r.generator.GeneratePlan(ctx, req)
	if err != nil {
		r.logger.Warn("evaluation example failed",
			zap.String("neighbourhood", q.Neighbourhood),
			zap.Error(err))
		return Result{Question: q, Err: err, Duration: time.Since(start)}
	}

	return Result{Question: q, Plan: plan.Text, Duration: time.Since(start)}
}

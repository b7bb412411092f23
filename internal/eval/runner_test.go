package eval

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safeplan-io/safeplan/internal/model"
)

// stubGenerator answers with a canned plan per neighbourhood and can fail
// selected neighbourhoods. It counts in-flight calls to observe parallelism.
type stubGenerator struct {
	mu       sync.Mutex
	failFor  map[string]error
	inFlight int
	peak     int
	block    chan struct{} // when set, calls wait here before returning
}

func (s *stubGenerator) GeneratePlan(ctx context.Context, req model.SafetyPlanRequest) (*model.SafetyPlan, error) {
	s.mu.Lock()
	s.inFlight++
	if s.inFlight > s.peak {
		s.peak = s.inFlight
	}
	block := s.block
	s.mu.Unlock()

	if block != nil {
		<-block
	}

	s.mu.Lock()
	s.inFlight--
	err := s.failFor[req.Neighbourhood]
	s.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return &model.SafetyPlan{Text: "plan for " + req.Neighbourhood}, nil
}

func testQuestions(n int) []Question {
	questions := make([]Question, n)
	for i := range questions {
		questions[i] = Question{
			Neighbourhood: fmt.Sprintf("Neighbourhood %d", i),
			Concerns:      []string{"Auto Theft: Medium"},
		}
	}
	return questions
}

func TestRun_ResultsInQuestionOrder(t *testing.T) {
	gen := &stubGenerator{}
	runner := NewRunner(gen, 4, nil)

	questions := testQuestions(9)
	results := runner.Run(context.Background(), questions)

	require.Len(t, results, len(questions))
	for i, res := range results {
		require.NoError(t, res.Err)
		assert.Equal(t, questions[i].Neighbourhood, res.Question.Neighbourhood)
		assert.Equal(t, "plan for "+questions[i].Neighbourhood, res.Plan)
	}
}

func TestRun_WorkersRunConcurrently(t *testing.T) {
	block := make(chan struct{})
	gen := &stubGenerator{block: block}
	runner := NewRunner(gen, 3, nil)

	done := make(chan []Result)
	go func() { done <- runner.Run(context.Background(), testQuestions(6)) }()

	// All three workers should park inside GeneratePlan.
	require.Eventually(t, func() bool {
		gen.mu.Lock()
		defer gen.mu.Unlock()
		return gen.inFlight == 3
	}, time.Second, time.Millisecond)

	close(block)
	results := <-done

	require.Len(t, results, 6)
	gen.mu.Lock()
	assert.Equal(t, 3, gen.peak, "pool is bounded at the worker count")
	gen.mu.Unlock()
}

func TestRun_PerExampleErrorDoesNotAbortBatch(t *testing.T) {
	genErr := &model.GenerationError{Err: errors.New("upstream timeout")}
	gen := &stubGenerator{failFor: map[string]error{"Neighbourhood 1": genErr}}
	runner := NewRunner(gen, 2, nil)

	results := runner.Run(context.Background(), testQuestions(3))

	require.Len(t, results, 3)
	assert.NoError(t, results[0].Err)
	assert.ErrorAs(t, results[1].Err, new(*model.GenerationError))
	assert.Empty(t, results[1].Plan)
	assert.NoError(t, results[2].Err)
}

func TestRun_InvalidQuestionReportsValidationError(t *testing.T) {
	gen := &stubGenerator{}
	runner := NewRunner(gen, 1, nil)

	results := runner.Run(context.Background(), []Question{
		{Neighbourhood: "Agincourt North"}, // no concerns
	})

	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, model.ErrInvalidRequest)
}

func TestLoadQuestions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
- neighbourhood: "Agincourt North (129)"
  concerns:
    - "Auto Theft: Medium"
    - "Robbery: Medium"
  context:
    - "Q: Preferred Parking Spot Lighting"
    - "A: Well-Lit Area"
- neighbourhood: "Annex (95)"
  concerns:
    - "Break and Enter: High"
`), 0o644))

	questions, err := LoadQuestions(path)
	require.NoError(t, err)
	require.Len(t, questions, 2)
	assert.Equal(t, "Agincourt North (129)", questions[0].Neighbourhood)
	assert.Equal(t, []string{"Auto Theft: Medium", "Robbery: Medium"}, questions[0].Concerns)
	assert.Len(t, questions[0].Context, 2)
	assert.Empty(t, questions[1].Context)

	_, err = LoadQuestions(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestWriteResults(t *testing.T) {
	dir := t.TempDir()
	results := []Result{
		{Question: Question{Neighbourhood: "Annex (95)", Concerns: []string{"Assault: High", "Robbery: Low"}}, Plan: "the plan", Duration: 1500 * time.Millisecond},
		{Question: Question{Neighbourhood: "Agincourt North (129)"}, Err: errors.New("generation: boom")},
	}

	path, err := WriteResults(results, dir)
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, 3)
	assert.Equal(t, []string{"neighbourhood", "concerns", "answer", "error", "duration_ms"}, rows[0])
	assert.Equal(t, []string{"Annex (95)", "Assault: High; Robbery: Low", "the plan", "", "1500"}, rows[1])
	assert.Equal(t, "generation: boom", rows[2][3])
	assert.Empty(t, rows[2][2])
}

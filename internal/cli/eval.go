package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/safeplan-io/safeplan/internal/eval"
)

var (
	evalWorkers   int
	evalOutputDir string
	evalTimeout   time.Duration
	evalRPS       float64
)

// evalCmd represents the eval command
var evalCmd = &cobra.Command{
	Use:   "eval <questions.yaml>",
	Short: "Generate plans for a question set in parallel",
	Long: `Run the pipeline over an evaluation question set.

The question set is a YAML list of examples, each with a neighbourhood,
concerns, and context lines. Plans are generated concurrently and written to
a timestamped results CSV for an external evaluator to score.

Example:
  safeplan eval questions.yaml --workers 4 --output-dir ./eval-results`,
	Args: cobra.ExactArgs(1),
	RunE: runEval,
}

func init() {
	rootCmd.AddCommand(evalCmd)

	evalCmd.Flags().IntVar(&evalWorkers, "workers", 4, "number of concurrent workers")
	evalCmd.Flags().StringVar(&evalOutputDir, "output-dir", "eval-results", "output directory for results")
	evalCmd.Flags().DurationVar(&evalTimeout, "timeout", 30*time.Minute, "total timeout for the batch")
	evalCmd.Flags().Float64Var(&evalRPS, "rps", 2, "completion requests per second across all workers")

	evalCmd.Flags().IntVar(&retrieverK, "k", 10, "number of documents to retrieve")
	evalCmd.Flags().StringVar(&llmModel, "model", "gpt-4o", "completion model name")
	evalCmd.Flags().StringVar(&indexPath, "index", "safeplan.db", "path to the document index")
}

func runEval(cmd *cobra.Command, args []string) error {
	questions, err := eval.LoadQuestions(args[0])
	if err != nil {
		return err
	}
	if len(questions) == 0 {
		return fmt.Errorf("question set %s is empty", args[0])
	}

	ctx, cancel := context.WithTimeout(context.Background(), evalTimeout)
	defer cancel()

	cfg := buildConfig(cmd)
	cfg.Eval.Workers = evalWorkers
	cfg.Eval.OutputDir = evalOutputDir
	cfg.LLM.RequestsPerSecond = evalRPS

	p, cleanup, err := buildPipeline(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	fmt.Fprintf(os.Stderr, "Evaluating %d examples with %d workers\n", len(questions), cfg.Eval.Workers)

	runner := eval.NewRunner(p, cfg.Eval.Workers, newLogger())
	results := runner.Run(ctx, questions)

	path, err := eval.WriteResults(results, cfg.Eval.OutputDir)
	if err != nil {
		return err
	}

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
		}
	}
	fmt.Fprintf(os.Stderr, "Wrote %s (%d ok, %d failed)\n", path, len(results)-failed, failed)
	return nil
}

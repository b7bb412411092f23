package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/safeplan-io/safeplan/internal/model"
	"github.com/safeplan-io/safeplan/internal/track"
)

var (
	trackDir        string
	experimentName  string
	changesMade     string
	trackNotes      string
	trackRetrieverK int
	trackModelName  string
)

// trackCmd represents the track command group
var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Track evaluation metrics across experiments",
	Long: `Track RAG pipeline improvements over time.

Each logged experiment appends one row to the improvement ledger and
persists the raw per-example metrics plus a configuration snapshot as
timestamped artifacts, so the inputs behind any row can be reconstructed.`,
}

var trackLogCmd = &cobra.Command{
	Use:   "log <metrics.csv>",
	Short: "Log an experiment run from a per-example metrics file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		metrics, err := track.LoadMetricsCSV(args[0])
		if err != nil {
			return err
		}

		tracker, err := track.New(trackDir, experimentName, track.WithLogger(newLogger()))
		if err != nil {
			return err
		}

		rec, err := tracker.LogExperiment(metrics, model.ExperimentConfig{
			RetrieverK:  trackRetrieverK,
			ModelName:   trackModelName,
			ChangesMade: changesMade,
		}, trackNotes)
		if err != nil {
			return err
		}

		fmt.Printf("Logged experiment %s (faithfulness=%.4f, answer_relevancy=%.4f, context_precision=%.4f, context_recall=%.4f)\n",
			rec.Timestamp, rec.Faithfulness, rec.AnswerRelevancy, rec.ContextPrecision, rec.ContextRecall)
		return nil
	},
}

var trackSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show metric deltas from the first to the latest run",
	RunE: func(cmd *cobra.Command, args []string) error {
		tracker, err := track.New(trackDir, experimentName)
		if err != nil {
			return err
		}

		summary, err := tracker.ImprovementSummary()
		if errors.Is(err, model.ErrInsufficientHistory) {
			fmt.Println("Not enough data for improvement analysis (need at least 2 logged runs)")
			return nil
		}
		if err != nil {
			return err
		}

		fmt.Println("Improvement since first run:")
		for _, metric := range []string{"faithfulness", "answer_relevancy", "context_precision", "context_recall"} {
			fmt.Printf("  %-18s %+.4f\n", metric, summary[metric])
		}
		return nil
	},
}

var trackTrendCmd = &cobra.Command{
	Use:   "trend",
	Short: "Render the metric history as a trend file",
	RunE: func(cmd *cobra.Command, args []string) error {
		tracker, err := track.New(trackDir, experimentName)
		if err != nil {
			return err
		}

		path, err := tracker.RenderTrend()
		if errors.Is(err, track.ErrTrendUnavailable) {
			fmt.Println("Trend rendering unavailable")
			return nil
		}
		if err != nil {
			return err
		}

		fmt.Printf("Wrote %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(trackCmd)
	trackCmd.AddCommand(trackLogCmd)
	trackCmd.AddCommand(trackSummaryCmd)
	trackCmd.AddCommand(trackTrendCmd)

	trackCmd.PersistentFlags().StringVar(&trackDir, "dir", "rag_tracking", "tracking directory")
	trackCmd.PersistentFlags().StringVar(&experimentName, "name", "safeplan", "experiment name")

	trackLogCmd.Flags().StringVar(&changesMade, "changes", "", "what changed in this experiment")
	trackLogCmd.Flags().StringVar(&trackNotes, "notes", "", "free-form notes")
	trackLogCmd.Flags().IntVar(&trackRetrieverK, "retriever-k", 10, "retriever k used for this run")
	trackLogCmd.Flags().StringVar(&trackModelName, "model-name", "", "model used for this run")
}

package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/safeplan-io/safeplan/internal/llm"
	"github.com/safeplan-io/safeplan/internal/model"
	"github.com/safeplan-io/safeplan/internal/pipeline"
	"github.com/safeplan-io/safeplan/internal/retrieve"
)

var (
	neighbourhood string
	concerns      []string
	contextLines  []string
	retrieverK    int
	llmModel      string
	indexPath     string
	cacheEnabled  bool
	planTimeout   time.Duration
)

// planCmd represents the plan command
var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Generate a safety plan for a neighbourhood",
	Long: `Generate a personalized safety plan.

The request needs a neighbourhood and at least one crime concern. Concerns
take the form "Type: Severity" with severity one of low, medium, high; the
severity may be omitted. Context lines are free-form question/answer pairs
and are passed through in order.

Example:
  safeplan plan --neighbourhood "Agincourt North (129)" \
    --concern "Auto Theft: Medium" --concern "Robbery: Medium" \
    --context "Q: Preferred Parking Spot Lighting" --context "A: Well-Lit Area"`,
	RunE: runPlan,
}

func init() {
	rootCmd.AddCommand(planCmd)

	planCmd.Flags().StringVar(&neighbourhood, "neighbourhood", "", "neighbourhood name, optionally with area code suffix")
	planCmd.Flags().StringArrayVar(&concerns, "concern", nil, `crime concern as "Type: Severity" (repeatable)`)
	planCmd.Flags().StringArrayVar(&contextLines, "context", nil, "context line, alternating Q:/A: (repeatable)")
	planCmd.Flags().IntVar(&retrieverK, "k", 10, "number of documents to retrieve")
	planCmd.Flags().StringVar(&llmModel, "model", "gpt-4o", "completion model name")
	planCmd.Flags().StringVar(&indexPath, "index", "safeplan.db", "path to the document index")
	planCmd.Flags().BoolVar(&cacheEnabled, "cache", false, "enable the plan fingerprint cache")
	planCmd.Flags().DurationVar(&planTimeout, "timeout", 5*time.Minute, "overall request timeout")
}

func runPlan(cmd *cobra.Command, args []string) error {
	req, err := model.NewRequest(neighbourhood, concerns, contextLines)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), planTimeout)
	defer cancel()

	cfg := buildConfig(cmd)
	p, cleanup, err := buildPipeline(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	plan, err := p.GeneratePlan(ctx, req)
	if err != nil {
		return err
	}

	fmt.Println(plan.Text)
	return nil
}

// buildConfig resolves configuration in hierarchy order: built-in defaults,
// then the viper-loaded config file and SAFEPLAN_* environment, then flags
// the user explicitly set on this invocation.
func buildConfig(cmd *cobra.Command) *model.Config {
	cfg := model.DefaultConfig()
	applyViper(cfg)

	flags := cmd.Flags()
	if flags.Changed("k") {
		cfg.Retriever.K = retrieverK
	}
	if flags.Changed("index") {
		cfg.Retriever.IndexPath = indexPath
	}
	if flags.Changed("model") {
		cfg.LLM.Model = llmModel
	}
	if flags.Changed("cache") {
		cfg.Cache.Enabled = cacheEnabled
	}

	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	cfg.Output.Verbose = verbose
	return cfg
}

// applyViper copies values the config file or environment provided into cfg.
// Unset keys leave the defaults untouched.
func applyViper(cfg *model.Config) {
	if viper.IsSet("llm.model") {
		cfg.LLM.Model = viper.GetString("llm.model")
	}
	if viper.IsSet("llm.api_key") {
		cfg.LLM.APIKey = viper.GetString("llm.api_key")
	}
	if viper.IsSet("llm.base_url") {
		cfg.LLM.BaseURL = viper.GetString("llm.base_url")
	}
	if viper.IsSet("llm.max_tokens") {
		cfg.LLM.MaxTokens = viper.GetInt("llm.max_tokens")
	}
	if viper.IsSet("llm.timeout") {
		cfg.LLM.Timeout = viper.GetDuration("llm.timeout")
	}
	if viper.IsSet("llm.requests_per_second") {
		cfg.LLM.RequestsPerSecond = viper.GetFloat64("llm.requests_per_second")
	}
	if viper.IsSet("retriever.k") {
		cfg.Retriever.K = viper.GetInt("retriever.k")
	}
	if viper.IsSet("retriever.index_path") {
		cfg.Retriever.IndexPath = viper.GetString("retriever.index_path")
	}
	if viper.IsSet("retriever.embedding_model") {
		cfg.Retriever.EmbeddingModel = viper.GetString("retriever.embedding_model")
	}
	if viper.IsSet("cache.enabled") {
		cfg.Cache.Enabled = viper.GetBool("cache.enabled")
	}
	if viper.IsSet("cache.dir") {
		cfg.Cache.Dir = viper.GetString("cache.dir")
	}
	if viper.IsSet("cache.ttl") {
		cfg.Cache.TTL = viper.GetDuration("cache.ttl")
	}
	if viper.IsSet("tracking.dir") {
		cfg.Tracking.Dir = viper.GetString("tracking.dir")
	}
	if viper.IsSet("tracking.experiment_name") {
		cfg.Tracking.ExperimentName = viper.GetString("tracking.experiment_name")
	}
	if viper.IsSet("eval.workers") {
		cfg.Eval.Workers = viper.GetInt("eval.workers")
	}
	if viper.IsSet("eval.output_dir") {
		cfg.Eval.OutputDir = viper.GetString("eval.output_dir")
	}
}

// buildPipeline assembles the embedder, index, completion client, and
// pipeline from configuration. The returned cleanup closes the index.
func buildPipeline(cfg *model.Config) (*pipeline.Pipeline, func(), error) {
	if cfg.LLM.APIKey == "" {
		return nil, nil, fmt.Errorf("OPENAI_API_KEY environment variable is required")
	}

	embedder, err := retrieve.NewOpenAIEmbedder(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.Retriever.EmbeddingModel)
	if err != nil {
		return nil, nil, fmt.Errorf("create embedder: %w", err)
	}

	index, err := retrieve.OpenSQLiteIndex(cfg.Retriever.IndexPath, embedder)
	if err != nil {
		return nil, nil, fmt.Errorf("open index: %w", err)
	}

	client, err := llm.NewOpenAIClient(cfg.LLM)
	if err != nil {
		index.Close()
		return nil, nil, fmt.Errorf("create completion client: %w", err)
	}

	var completions llm.Client = client
	if cfg.LLM.RequestsPerSecond > 0 {
		completions = llm.NewRateLimitedClient(client, cfg.LLM.RequestsPerSecond, 1)
	}

	logger := newLogger()
	p := pipeline.New(index, completions, cfg, logger)
	cleanup := func() {
		_ = index.Close()
		_ = logger.Sync()
	}
	return p, cleanup, nil
}

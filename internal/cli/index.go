package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/safeplan-io/safeplan/internal/model"
	"github.com/safeplan-io/safeplan/internal/retrieve"
)

var indexTimeout time.Duration

// indexDoc is one entry of an index input file.
type indexDoc struct {
	Text     string            `yaml:"text"`
	Metadata map[string]string `yaml:"metadata"`
}

// indexCmd represents the index command
var indexCmd = &cobra.Command{
	Use:   "index <documents.yaml>",
	Short: "Embed and store documents in the local index",
	Long: `Load documents into the local vector index.

The input is a YAML list of documents, each with text and metadata; the
metadata must include a source and should include a title. Crawling and
corpus preparation happen upstream of this command.`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)

	indexCmd.Flags().StringVar(&indexPath, "index", "safeplan.db", "path to the document index")
	indexCmd.Flags().DurationVar(&indexTimeout, "timeout", 15*time.Minute, "total indexing timeout")
}

func runIndex(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read documents file: %w", err)
	}
	var entries []indexDoc
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parse documents file: %w", err)
	}
	if len(entries) == 0 {
		return fmt.Errorf("documents file %s is empty", args[0])
	}

	docs := make([]model.Document, len(entries))
	for i, e := range entries {
		if e.Metadata["source"] == "" {
			return fmt.Errorf("document %d has no source in metadata", i)
		}
		docs[i] = model.Document{Text: e.Text, Metadata: e.Metadata}
	}

	apiKey := os.Getenv("OPENAI_API_KEY")
	embedder, err := retrieve.NewOpenAIEmbedder(apiKey, "", "")
	if err != nil {
		return err
	}

	index, err := retrieve.OpenSQLiteIndex(indexPath, embedder)
	if err != nil {
		return err
	}
	defer index.Close()

	ctx, cancel := context.WithTimeout(context.Background(), indexTimeout)
	defer cancel()

	if err := index.Ingest(ctx, docs); err != nil {
		return err
	}

	total, err := index.Count(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Indexed %d documents (%d total in %s)\n", len(docs), total, indexPath)
	return nil
}

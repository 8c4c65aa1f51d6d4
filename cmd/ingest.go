package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/faqbot/internal/ingest"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [dir]",
	Short: "Index documents for retrieval",
	Long: `Walks a directory of Markdown and text documents, splits them into
chunks and stores their embeddings in the vector index under data_dir.
Unchanged files are skipped on later runs.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().Bool("quiet", false, "disable the progress bar")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	quiet, _ := cmd.Flags().GetBool("quiet")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	store, err := openVectorStore(ctx, cfg, log)
	if err != nil {
		return err
	}

	opts := ingestOptions(cfg, log)
	if !quiet {
		opts.Reporter = ingest.NewReporter()
	}

	stats, err := ingest.New(store, opts).Run(ctx, args[0])
	if err != nil {
		return fmt.Errorf("ingesting %s: %w", args[0], err)
	}

	if err := os.MkdirAll(cfg.VectorDir(), 0o755); err != nil {
		return fmt.Errorf("creating vector dir: %w", err)
	}
	if err := store.Persist(ctx, cfg.VectorDir()); err != nil {
		return fmt.Errorf("persisting vector store: %w", err)
	}

	log.Info().
		Int("files", stats.Files).
		Int("indexed", stats.Indexed).
		Int("unchanged", stats.Unchanged).
		Int("failed", stats.Failed).
		Int("chunks", stats.Chunks).
		Int("documents", store.Count()).
		Msg("ingestion complete")
	if stats.Failed > 0 {
		return fmt.Errorf("%d of %d files failed to ingest", stats.Failed, stats.Files)
	}
	return nil
}

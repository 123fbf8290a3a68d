package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"alfredoptarigan/resume-evaluator/internal/bootstrap"
	"alfredoptarigan/resume-evaluator/internal/services"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest FILE...",
	Short: "Ingest resume guideline documents into the vector store",
	Long: `Ingest chunks and embeds each file and stores the chunks in Qdrant as
resume guidelines. Re-ingesting a file replaces its previous chunks.

Requires QDRANT_URL and GEMINI_API_KEY.

Example:
  resume-evaluator ingest guides/ats_tips.pdf guides/action_verbs.txt`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, zl, err := setup()
	if err != nil {
		return err
	}
	defer zl.Sync() //nolint:errcheck

	if !cfg.GuidanceEnabled() {
		return errors.New("guideline ingestion requires QDRANT_URL and GEMINI_API_KEY")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers, err := bootstrap.NewProviders(ctx, cfg, zl)
	if err != nil {
		return fmt.Errorf("initializing model provider: %w", err)
	}

	guidance, err := bootstrap.NewGuidance(cfg, providers.Embedder, zl)
	if err != nil {
		return fmt.Errorf("initializing guidance store: %w", err)
	}
	if guidance == nil {
		return errors.New("no embedder available for guideline ingestion")
	}

	extractor := services.NewTextExtractor()

	var failed []string
	for _, path := range args {
		log := zl.With(zap.String("file", path))

		text, err := readDocument(extractor, path)
		if err != nil {
			log.Error("failed to read document", zap.Error(err))
			failed = append(failed, path)
			continue
		}

		sourceID := filepath.Base(path)
		chunks, err := guidance.Ingest(ctx, sourceID, text)
		if err != nil {
			log.Error("failed to ingest document", zap.Error(err))
			failed = append(failed, path)
			continue
		}

		log.Info("document ingested", zap.String("source_id", sourceID), zap.Int("chunks", chunks))
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d chunks\n", sourceID, chunks)
	}

	if len(failed) > 0 {
		return fmt.Errorf("%d of %d documents failed: %s", len(failed), len(args), strings.Join(failed, ", "))
	}

	return nil
}

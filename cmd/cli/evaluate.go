package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"alfredoptarigan/resume-evaluator/internal/bootstrap"
	"alfredoptarigan/resume-evaluator/internal/models"
	"alfredoptarigan/resume-evaluator/internal/repositories"
	"alfredoptarigan/resume-evaluator/internal/services"
)

var (
	resumeFile string
	jobFile    string
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate a resume against a job description and print the JSON result",
	Long: `Evaluate runs the skill match, evaluation and rating stages once and prints
the analysis result on stdout.

Resume and job description may be .pdf, .docx or .txt files.

Example:
  resume-evaluator evaluate --resume resume.pdf --job job.txt`,
	Args: cobra.NoArgs,
	RunE: runEvaluate,
}

func init() {
	evaluateCmd.Flags().StringVar(&resumeFile, "resume", "", "resume file (.pdf, .docx, .txt)")
	evaluateCmd.Flags().StringVar(&jobFile, "job", "", "job description file (.pdf, .docx, .txt)")
	_ = evaluateCmd.MarkFlagRequired("resume")
	_ = evaluateCmd.MarkFlagRequired("job")
}

func runEvaluate(cmd *cobra.Command, _ []string) error {
	cfg, zl, err := setup()
	if err != nil {
		return err
	}
	defer zl.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	extractor := services.NewTextExtractor()

	resumeText, err := readDocument(extractor, resumeFile)
	if err != nil {
		return err
	}
	jobText, err := readDocument(extractor, jobFile)
	if err != nil {
		return err
	}

	providers, err := bootstrap.NewProviders(ctx, cfg, zl)
	if err != nil {
		return fmt.Errorf("initializing model provider: %w", err)
	}

	guidance, err := bootstrap.NewGuidance(cfg, providers.Embedder, zl)
	if err != nil {
		zl.Warn("guidance retrieval disabled", zap.Error(err))
		guidance = nil
	}

	pipeline := bootstrap.NewPipeline(cfg, providers.Text, guidance, repositories.NewMemoryAnalysisRepository(), zl)

	runCtx := ctx
	if cfg.Server.RequestTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, cfg.Server.RequestTimeout)
		defer cancel()
	}

	result, err := pipeline.Analyze(runCtx, models.AnalysisRequest{
		ResumeText:     resumeText,
		JobDescription: jobText,
	})
	if err != nil {
		if stage := services.FailedStage(err); stage != "" {
			return fmt.Errorf("analysis failed at %s stage: %w", stage, err)
		}
		return fmt.Errorf("analysis failed: %w", err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

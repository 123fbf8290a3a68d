package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"alfredoptarigan/resume-evaluator/internal/config"
	"alfredoptarigan/resume-evaluator/internal/logger"
	"alfredoptarigan/resume-evaluator/internal/services"
)

const app = "resume-evaluator"

var (
	debug   bool
	jsonLog bool

	rootCmd = &cobra.Command{
		Use:          app,
		Short:        "resume-evaluator runs resume analyses and manages guideline documents from the command line",
		SilenceUsage: true,
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolVarP(&jsonLog, "json", "j", false, "json format for logging")

	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(ingestCmd)
}

// setup loads configuration and builds a stderr logger.
func setup() (*config.Config, *zap.Logger, error) {
	cfg := config.Load()
	if debug {
		cfg.Log.Debug = true
	}
	if jsonLog {
		cfg.Log.JSON = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	zl, err := logger.NewWithOutput(cfg.Log.JSON, cfg.Log.Debug, "stderr")
	if err != nil {
		return nil, nil, fmt.Errorf("creating logger: %w", err)
	}

	return cfg, zl, nil
}

// readDocument extracts plain text from a pdf, docx or txt file.
func readDocument(extractor services.TextExtractor, path string) (string, error) {
	fileType, err := services.FileTypeFromName(filepath.Base(path))
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}

	text, err := extractor.Extract(data, fileType)
	if err != nil {
		return "", fmt.Errorf("extracting text from %s: %w", path, err)
	}

	return text, nil
}

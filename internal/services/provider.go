package services

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// GenerationConfig bounds a single completion.
type GenerationConfig struct {
	MaxOutputTokens int32
	Temperature     float32
	JSONResponse    bool
}

// ModelProvider is a prompt-in / text-out completion service.
type ModelProvider interface {
	Complete(ctx context.Context, prompt string, cfg GenerationConfig) (string, error)
	Name() string
}

// Embedder turns text into a vector for guideline retrieval.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// callStage runs one provider call under its own deadline. A single call is
// atomic: it either returns text or fails with a *StageError.
func callStage(ctx context.Context, provider ModelProvider, stage, prompt string, cfg GenerationConfig, timeout time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &StageError{Stage: stage, Err: err}
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	text, err := provider.Complete(ctx, prompt, cfg)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			err = fmt.Errorf("%w: %v", ctxErr, err)
		}
		return "", &StageError{Stage: stage, Err: err}
	}

	return text, nil
}

package services

import (
	"context"
	"fmt"
	"unicode/utf8"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"alfredoptarigan/resume-evaluator/internal/logger"
)

// Embedding input is capped at roughly 10k tokens.
const maxEmbeddingInput = 40000

type GeminiService interface {
	ModelProvider
	Embedder
}

type geminiService struct {
	client     *genai.Client
	modelName  string
	embedModel string
	log        *zap.Logger
}

func NewGeminiService(ctx context.Context, apiKey, modelName, embedModel string, log *zap.Logger) (GeminiService, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &geminiService{
		client:     client,
		modelName:  modelName,
		embedModel: embedModel,
		log:        logger.WithProvider(log, "gemini", modelName),
	}, nil
}

func (g *geminiService) Name() string {
	return "gemini/" + g.modelName
}

// GenerateEmbedding implements Embedder.
func (g *geminiService) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	text = truncateUTF8(text, maxEmbeddingInput)

	result, err := g.client.Models.EmbedContent(ctx, g.embedModel, genai.Text(text), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}

	if result == nil || len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}

	return result.Embeddings[0].Values, nil
}

// truncateUTF8 cuts text to at most limit bytes without splitting a rune.
func truncateUTF8(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

// Complete implements ModelProvider. A truncated answer is still returned so
// the caller can degrade through the response parser.
func (g *geminiService) Complete(ctx context.Context, prompt string, cfg GenerationConfig) (string, error) {
	temperature := cfg.Temperature
	config := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: cfg.MaxOutputTokens,
	}
	if cfg.JSONResponse {
		config.ResponseMIMEType = "application/json"
	}

	g.log.Debug("gemini request",
		zap.Int("prompt_len", len(prompt)),
		zap.Int32("max_output_tokens", cfg.MaxOutputTokens),
	)

	resp, err := g.client.Models.GenerateContent(ctx, g.modelName, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if resp == nil {
		return "", fmt.Errorf("no response generated (nil response)")
	}

	if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason == genai.FinishReasonMaxTokens {
		g.log.Warn("gemini response truncated at output token limit",
			zap.Int32("max_output_tokens", cfg.MaxOutputTokens),
		)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("no text content in response")
	}

	g.log.Debug("gemini response",
		zap.Int("response_len", len(text)),
		zap.String("preview", logger.TruncateForLog(text, 200)),
	)

	return text, nil
}

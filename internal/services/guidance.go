package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"alfredoptarigan/resume-evaluator/internal/logger"
)

// GuidanceRetriever returns resume-writing guidance relevant to a job, or ""
// when nothing applies.
type GuidanceRetriever interface {
	Retrieve(ctx context.Context, jobDescription string) (string, error)
}

// GuidelineIngester chunks, embeds and stores guideline documents.
type GuidelineIngester interface {
	Ingest(ctx context.Context, sourceID, text string) (int, error)
}

type GuidanceService interface {
	GuidanceRetriever
	GuidelineIngester
}

type guidanceService struct {
	embedder      Embedder
	index         QdrantService
	chunker       TextChunker
	promptBuilder *PromptBuilder
	limit         int
	timeout       time.Duration
	log           *zap.Logger
}

// NewGuidanceService bounds each retrieval, and each chunk embedding during
// ingest, by timeout. A zero timeout leaves the caller's deadline alone.
func NewGuidanceService(embedder Embedder, index QdrantService, limit int, timeout time.Duration, log *zap.Logger) GuidanceService {
	if limit <= 0 {
		limit = 4
	}
	return &guidanceService{
		embedder:      embedder,
		index:         index,
		chunker:       NewTextChunker(),
		promptBuilder: NewPromptBuilder(),
		limit:         limit,
		timeout:       timeout,
		log:           logger.OrNop(log),
	}
}

func (g *guidanceService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, g.timeout)
}

func (g *guidanceService) Retrieve(ctx context.Context, jobDescription string) (string, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	query := g.promptBuilder.BuildRetrievalQuery(jobDescription)

	embedding, err := g.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		return "", fmt.Errorf("failed to generate query embedding: %w", err)
	}

	results, err := g.index.SearchSimilar(ctx, embedding, DocTypeResumeGuideline, g.limit)
	if err != nil {
		return "", err
	}

	g.log.Debug("guidance retrieved", zap.Int("chunks", len(results)))

	return FormatRAGContext(results), nil
}

func (g *guidanceService) Ingest(ctx context.Context, sourceID, text string) (int, error) {
	if strings.TrimSpace(text) == "" {
		return 0, &ValidationError{Field: "text", Message: "guideline document is empty"}
	}

	if err := g.index.InitCollection(ctx); err != nil {
		return 0, err
	}

	// Re-ingesting a source replaces its chunks.
	if err := g.index.DeleteSource(ctx, sourceID); err != nil {
		return 0, err
	}

	chunks := g.chunker.ChunkText(text, defaultChunkSize, defaultChunkOverlap)
	for i, chunk := range chunks {
		embedCtx, cancel := g.withTimeout(ctx)
		embedding, err := g.embedder.GenerateEmbedding(embedCtx, chunk)
		cancel()
		if err != nil {
			return i, fmt.Errorf("failed to embed chunk %d of %s: %w", i+1, sourceID, err)
		}

		if err := g.index.UpsertChunk(ctx, sourceID, DocTypeResumeGuideline, chunk, embedding); err != nil {
			return i, fmt.Errorf("failed to store chunk %d of %s: %w", i+1, sourceID, err)
		}
	}

	g.log.Info("guideline ingested", zap.String("source_id", sourceID), zap.Int("chunks", len(chunks)))

	return len(chunks), nil
}

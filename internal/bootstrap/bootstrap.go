// Package bootstrap builds the service graph shared by the API server and the CLI.
package bootstrap

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"alfredoptarigan/resume-evaluator/internal/config"
	"alfredoptarigan/resume-evaluator/internal/repositories"
	"alfredoptarigan/resume-evaluator/internal/services"
)

// Providers holds the text provider and, when a Gemini key is configured,
// the embedder used for guidance retrieval.
type Providers struct {
	Text     services.ModelProvider
	Embedder services.Embedder
}

func NewProviders(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Providers, error) {
	var (
		gemini services.GeminiService
		err    error
	)
	if cfg.Gemini.APIKey != "" {
		gemini, err = services.NewGeminiService(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.EmbedModel, log)
		if err != nil {
			return nil, err
		}
	}

	p := &Providers{}
	if gemini != nil {
		p.Embedder = gemini
	}

	switch cfg.LLM.Provider {
	case config.ProviderGemini:
		if gemini == nil {
			return nil, fmt.Errorf("gemini provider selected without GEMINI_API_KEY")
		}
		p.Text = gemini
	case config.ProviderOpenAI:
		p.Text = services.NewOpenAIService(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.BaseURL, cfg.OpenAI.MaxOutputTokens, log)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.LLM.Provider)
	}

	log.Info("model provider ready", zap.String("provider", p.Text.Name()))
	return p, nil
}

// NewGuidance returns nil when retrieval is not configured.
func NewGuidance(cfg *config.Config, embedder services.Embedder, log *zap.Logger) (services.GuidanceService, error) {
	if !cfg.GuidanceEnabled() || embedder == nil {
		return nil, nil
	}

	index, err := services.NewQdrantService(cfg.Qdrant.URL, cfg.Qdrant.APIKey, cfg.Qdrant.Collection, log)
	if err != nil {
		return nil, err
	}

	return services.NewGuidanceService(embedder, index, cfg.Qdrant.GuidanceLimit, cfg.LLM.Timeout, log), nil
}

func NewPipeline(
	cfg *config.Config,
	provider services.ModelProvider,
	guidance services.GuidanceRetriever,
	analysisRepo repositories.AnalysisRepository,
	log *zap.Logger,
) services.PipelineService {
	llm := cfg.LLM

	extractor := services.NewSkillExtractor(provider, llm.SkillMaxTokens, llm.Timeout, log)
	matcher := services.NewSkillMatcher(provider, extractor, llm.SkillMaxTokens, llm.Timeout, log)
	evaluator := services.NewEvaluationStage(provider, llm.EvaluationMaxTokens, llm.EvaluationTemperature, llm.Timeout, log)
	rater := services.NewRatingStage(provider, llm.RatingMaxTokens, llm.RatingTemperature, llm.IncludeImprovedResume, llm.Timeout, log)

	return services.NewPipelineService(analysisRepo, matcher, evaluator, rater, guidance, log)
}

func NewJobAnalyzer(cfg *config.Config, provider services.ModelProvider, log *zap.Logger) services.JobAnalyzer {
	return services.NewJobAnalyzer(provider, cfg.LLM.SkillMaxTokens, cfg.LLM.Timeout, log)
}

func NewResumeAnalyzer(cfg *config.Config, provider services.ModelProvider, log *zap.Logger) services.ResumeAnalyzer {
	return services.NewResumeAnalyzer(provider, cfg.LLM.EvaluationMaxTokens, cfg.LLM.EvaluationTemperature, cfg.LLM.Timeout, log)
}

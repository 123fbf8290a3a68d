package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"alfredoptarigan/resume-evaluator/internal/logger"
	"alfredoptarigan/resume-evaluator/internal/models"
)

type EvaluationStage interface {
	Evaluate(ctx context.Context, resumeText, jobDescription string, skillMatch models.SkillMatchResult, guidance string) (models.StageOutput[models.EvaluationResult], error)
}

type evaluationStage struct {
	provider      ModelProvider
	promptBuilder *PromptBuilder
	genCfg        GenerationConfig
	timeout       time.Duration
	log           *zap.Logger
}

func NewEvaluationStage(provider ModelProvider, maxTokens int32, temperature float32, timeout time.Duration, log *zap.Logger) EvaluationStage {
	return &evaluationStage{
		provider:      provider,
		promptBuilder: NewPromptBuilder(),
		genCfg: GenerationConfig{
			MaxOutputTokens: maxTokens,
			Temperature:     temperature,
			JSONResponse:    true,
		},
		timeout: timeout,
		log:     logger.OrNop(log).With(zap.String(logger.FieldStage, StageEvaluation)),
	}
}

// Evaluate returns an error only when the provider call fails. Unparseable
// output becomes a raw-text fallback.
func (s *evaluationStage) Evaluate(ctx context.Context, resumeText, jobDescription string, skillMatch models.SkillMatchResult, guidance string) (models.StageOutput[models.EvaluationResult], error) {
	skillJSON, err := json.MarshalIndent(skillMatch, "", "  ")
	if err != nil {
		return models.StageOutput[models.EvaluationResult]{}, fmt.Errorf("failed to serialize skill match: %w", err)
	}

	prompt := s.promptBuilder.BuildEvaluationPrompt(resumeText, jobDescription, string(skillJSON), guidance)
	s.log.Debug("evaluation prompt built", zap.Int("prompt_len", len(prompt)))

	response, err := callStage(ctx, s.provider, StageEvaluation, prompt, s.genCfg, s.timeout)
	if err != nil {
		return models.StageOutput[models.EvaluationResult]{}, err
	}

	s.log.Debug("evaluation response received", zap.Int("response_len", len(response)))

	return decodeEvaluation(response, s.log), nil
}

func decodeEvaluation(response string, log *zap.Logger) models.StageOutput[models.EvaluationResult] {
	payload, ok := ParseResponse(response)
	if !ok {
		log.Warn("evaluation response is not JSON, using raw text fallback",
			zap.String("preview", logger.TruncateForLog(response, 200)),
		)
		return models.FallbackOutput[models.EvaluationResult](response)
	}

	var result models.EvaluationResult
	if err := decodeInto(payload, &result); err != nil {
		log.Warn("evaluation payload did not fit schema, using raw text fallback", zap.Error(err))
		return models.FallbackOutput[models.EvaluationResult](response)
	}

	result.Normalize()
	return models.StructuredOutput(&result)
}

package services

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"alfredoptarigan/resume-evaluator/internal/logger"
	"alfredoptarigan/resume-evaluator/internal/models"
)

type SkillExtractor interface {
	ExtractSkills(ctx context.Context, text, contextLabel string) models.SkillSet
}

type skillExtractor struct {
	provider      ModelProvider
	promptBuilder *PromptBuilder
	maxTokens     int32
	timeout       time.Duration
	log           *zap.Logger
}

func NewSkillExtractor(provider ModelProvider, maxTokens int32, timeout time.Duration, log *zap.Logger) SkillExtractor {
	return &skillExtractor{
		provider:      provider,
		promptBuilder: NewPromptBuilder(),
		maxTokens:     maxTokens,
		timeout:       timeout,
		log:           logger.OrNop(log),
	}
}

// ExtractSkills never fails; a provider error yields an empty set.
func (e *skillExtractor) ExtractSkills(ctx context.Context, text, contextLabel string) models.SkillSet {
	prompt := e.promptBuilder.BuildSkillExtractionPrompt(text, contextLabel)

	response, err := callStage(ctx, e.provider, StageSkillMatch, prompt, GenerationConfig{
		MaxOutputTokens: e.maxTokens,
	}, e.timeout)
	if err != nil {
		e.log.Warn("skill extraction failed, continuing with empty set",
			zap.String("context", contextLabel),
			zap.Error(err),
		)
		return models.SkillSet{}
	}

	return splitSkillList(response)
}

func splitSkillList(response string) models.SkillSet {
	skills := models.SkillSet{}
	for _, part := range strings.Split(strings.TrimSpace(response), ",") {
		if skill := strings.TrimSpace(part); skill != "" {
			skills = append(skills, skill)
		}
	}
	return skills
}

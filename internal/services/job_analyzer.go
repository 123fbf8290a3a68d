package services

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"alfredoptarigan/resume-evaluator/internal/logger"
	"alfredoptarigan/resume-evaluator/internal/models"
)

type JobAnalyzer interface {
	Analyze(ctx context.Context, jobDescription string) (models.StageOutput[models.JobAnalysis], error)
}

type jobAnalyzer struct {
	provider      ModelProvider
	promptBuilder *PromptBuilder
	maxTokens     int32
	timeout       time.Duration
	log           *zap.Logger
}

func NewJobAnalyzer(provider ModelProvider, maxTokens int32, timeout time.Duration, log *zap.Logger) JobAnalyzer {
	return &jobAnalyzer{
		provider:      provider,
		promptBuilder: NewPromptBuilder(),
		maxTokens:     maxTokens,
		timeout:       timeout,
		log:           logger.OrNop(log).With(zap.String(logger.FieldStage, StageJobAnalysis)),
	}
}

func (a *jobAnalyzer) Analyze(ctx context.Context, jobDescription string) (models.StageOutput[models.JobAnalysis], error) {
	jobDescription = strings.TrimSpace(jobDescription)
	if jobDescription == "" {
		return models.StageOutput[models.JobAnalysis]{}, &ValidationError{Field: "job_description", Message: "job description cannot be empty"}
	}

	prompt := a.promptBuilder.BuildJobAnalysisPrompt(jobDescription)
	response, err := callStage(ctx, a.provider, StageJobAnalysis, prompt, GenerationConfig{
		MaxOutputTokens: a.maxTokens,
		JSONResponse:    true,
	}, a.timeout)
	if err != nil {
		return models.StageOutput[models.JobAnalysis]{}, err
	}

	payload, ok := ParseResponse(response)
	if !ok {
		a.log.Warn("job analysis response is not JSON, using raw text fallback")
		return models.FallbackOutput[models.JobAnalysis](response), nil
	}

	var analysis models.JobAnalysis
	if err := decodeInto(payload, &analysis); err != nil {
		a.log.Warn("job analysis payload did not fit schema, using raw text fallback", zap.Error(err))
		return models.FallbackOutput[models.JobAnalysis](response), nil
	}

	if len(analysis.AllSkills) == 0 {
		analysis.AllSkills = append(append([]string{}, analysis.TechnicalSkills...), analysis.SoftSkills...)
	}
	if analysis.ExperienceYears == "" {
		analysis.ExperienceYears = "Not specified"
	}
	if analysis.JobLevel == "" {
		analysis.JobLevel = "mid"
	}

	return models.StructuredOutput(&analysis), nil
}

package services

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"alfredoptarigan/resume-evaluator/internal/logger"
	"alfredoptarigan/resume-evaluator/internal/models"
)

// ResumeAnalyzer produces the free-text reports behind the upload, compare and
// quick rating endpoints. Unlike the pipeline stages, these answers are prose
// and are returned as-is.
type ResumeAnalyzer interface {
	AnalyzeResume(ctx context.Context, resumeText string) (string, error)
	Compare(ctx context.Context, resumeAnalysis string, job models.StageOutput[models.JobAnalysis], jobDescription string) (string, error)
	QuickRate(ctx context.Context, resumeAnalysis string) (string, error)
}

type resumeAnalyzer struct {
	provider      ModelProvider
	promptBuilder *PromptBuilder
	maxTokens     int32
	temperature   float32
	timeout       time.Duration
	log           *zap.Logger
}

func NewResumeAnalyzer(provider ModelProvider, maxTokens int32, temperature float32, timeout time.Duration, log *zap.Logger) ResumeAnalyzer {
	return &resumeAnalyzer{
		provider:      provider,
		promptBuilder: NewPromptBuilder(),
		maxTokens:     maxTokens,
		temperature:   temperature,
		timeout:       timeout,
		log:           logger.OrNop(log),
	}
}

func (a *resumeAnalyzer) AnalyzeResume(ctx context.Context, resumeText string) (string, error) {
	resumeText = strings.TrimSpace(resumeText)
	if resumeText == "" {
		return "", &ValidationError{Field: "resume_text", Message: "resume text cannot be empty"}
	}

	return a.complete(ctx, StageResumeAnalysis, a.promptBuilder.BuildResumeAnalysisPrompt(resumeText))
}

func (a *resumeAnalyzer) Compare(ctx context.Context, resumeAnalysis string, job models.StageOutput[models.JobAnalysis], jobDescription string) (string, error) {
	jobDescription = strings.TrimSpace(jobDescription)
	if jobDescription == "" {
		return "", &ValidationError{Field: "job_description", Message: "job description cannot be empty"}
	}
	if strings.TrimSpace(resumeAnalysis) == "" {
		return "", &ValidationError{Field: "resume_analysis", Message: "resume analysis cannot be empty"}
	}

	return a.complete(ctx, StageComparison, a.promptBuilder.BuildComparisonPrompt(resumeAnalysis, job, jobDescription))
}

func (a *resumeAnalyzer) QuickRate(ctx context.Context, resumeAnalysis string) (string, error) {
	if strings.TrimSpace(resumeAnalysis) == "" {
		return "", &ValidationError{Field: "resume_analysis", Message: "resume analysis cannot be empty"}
	}

	return a.complete(ctx, StageQuickRating, a.promptBuilder.BuildQuickRatingPrompt(resumeAnalysis))
}

func (a *resumeAnalyzer) complete(ctx context.Context, stage, prompt string) (string, error) {
	start := time.Now()
	text, err := callStage(ctx, a.provider, stage, prompt, GenerationConfig{
		MaxOutputTokens: a.maxTokens,
		Temperature:     a.temperature,
	}, a.timeout)
	if err != nil {
		return "", err
	}

	a.log.Debug("resume report generated",
		zap.String(logger.FieldStage, stage),
		zap.Duration("took", time.Since(start)),
		zap.Int("length", len(text)),
	)
	return strings.TrimSpace(text), nil
}

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"alfredoptarigan/resume-evaluator/internal/logger"
	"alfredoptarigan/resume-evaluator/internal/models"
)

type RatingStage interface {
	Rate(ctx context.Context, evaluation models.StageOutput[models.EvaluationResult], skillMatch models.SkillMatchResult, resumeText, jobDescription string) (models.StageOutput[models.RatingResult], error)
}

type ratingStage struct {
	provider              ModelProvider
	promptBuilder         *PromptBuilder
	genCfg                GenerationConfig
	includeImprovedResume bool
	timeout               time.Duration
	log                   *zap.Logger
}

func NewRatingStage(provider ModelProvider, maxTokens int32, temperature float32, includeImprovedResume bool, timeout time.Duration, log *zap.Logger) RatingStage {
	return &ratingStage{
		provider:      provider,
		promptBuilder: NewPromptBuilder(),
		genCfg: GenerationConfig{
			MaxOutputTokens: maxTokens,
			Temperature:     temperature,
			JSONResponse:    true,
		},
		includeImprovedResume: includeImprovedResume,
		timeout:               timeout,
		log:                   logger.OrNop(log).With(zap.String(logger.FieldStage, StageRating)),
	}
}

// ratingWire defers improved_resume so a malformed rewrite does not discard
// otherwise valid ratings.
type ratingWire struct {
	DetailedRatings         map[string]models.CategoryRating `json:"detailed_ratings"`
	PriorityRecommendations []models.Recommendation          `json:"priority_recommendations"`
	ImprovedResume          json.RawMessage                  `json:"improved_resume"`
}

// Rate feeds the evaluation, structured or raw, into the rating prompt.
func (s *ratingStage) Rate(ctx context.Context, evaluation models.StageOutput[models.EvaluationResult], skillMatch models.SkillMatchResult, resumeText, jobDescription string) (models.StageOutput[models.RatingResult], error) {
	evaluationJSON, err := json.MarshalIndent(evaluation, "", "  ")
	if err != nil {
		return models.StageOutput[models.RatingResult]{}, fmt.Errorf("failed to serialize evaluation: %w", err)
	}

	skillJSON, err := json.MarshalIndent(skillMatch, "", "  ")
	if err != nil {
		return models.StageOutput[models.RatingResult]{}, fmt.Errorf("failed to serialize skill match: %w", err)
	}

	prompt := s.promptBuilder.BuildRatingPrompt(string(evaluationJSON), string(skillJSON), resumeText, jobDescription, s.includeImprovedResume)
	s.log.Debug("rating prompt built",
		zap.Int("prompt_len", len(prompt)),
		zap.Bool("evaluation_fallback", evaluation.IsFallback()),
	)

	response, err := callStage(ctx, s.provider, StageRating, prompt, s.genCfg, s.timeout)
	if err != nil {
		return models.StageOutput[models.RatingResult]{}, err
	}

	s.log.Debug("rating response received", zap.Int("response_len", len(response)))

	return s.decode(response), nil
}

func (s *ratingStage) decode(response string) models.StageOutput[models.RatingResult] {
	payload, ok := ParseResponse(response)
	if !ok {
		s.log.Warn("rating response is not JSON, using raw text fallback",
			zap.String("preview", logger.TruncateForLog(response, 200)),
		)
		return models.FallbackOutput[models.RatingResult](response)
	}

	var wire ratingWire
	if err := decodeInto(payload, &wire); err != nil {
		s.log.Warn("rating payload did not fit schema, using raw text fallback", zap.Error(err))
		return models.FallbackOutput[models.RatingResult](response)
	}

	result := models.RatingResult{
		DetailedRatings:         wire.DetailedRatings,
		PriorityRecommendations: wire.PriorityRecommendations,
	}

	if s.includeImprovedResume && len(wire.ImprovedResume) > 0 && string(wire.ImprovedResume) != "null" {
		var improved models.ImprovedResume
		if err := json.Unmarshal(wire.ImprovedResume, &improved); err != nil {
			s.log.Warn("improved resume did not fit schema, omitting it", zap.Error(err))
		} else {
			result.ImprovedResume = &improved
		}
	}

	result.Normalize()
	return models.StructuredOutput(&result)
}

// ValidateParaphrasing flags every suggestion whose current_text is not a
// verbatim part of the resume. Flagged recommendations are kept. It returns
// the number of mismatches.
func ValidateParaphrasing(rating *models.RatingResult, resumeText string) int {
	if rating == nil {
		return 0
	}

	mismatches := 0
	for i := range rating.PriorityRecommendations {
		rec := &rating.PriorityRecommendations[i]
		rec.ValidationMismatch = false
		rec.ValidationNote = ""

		suggestion := rec.ParaphrasingSuggestion
		if suggestion == nil {
			continue
		}

		switch {
		case strings.TrimSpace(suggestion.CurrentText) == "":
			rec.ValidationMismatch = true
			rec.ValidationNote = "current_text is empty"
		case !strings.Contains(resumeText, suggestion.CurrentText):
			rec.ValidationMismatch = true
			rec.ValidationNote = "current_text does not appear verbatim in the resume"
		}

		if rec.ValidationMismatch {
			mismatches++
		}
	}

	return mismatches
}

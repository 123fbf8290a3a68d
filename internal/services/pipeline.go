package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/resume-evaluator/internal/logger"
	"alfredoptarigan/resume-evaluator/internal/models"
	"alfredoptarigan/resume-evaluator/internal/repositories"
)

// PipelineService sequences skill match, evaluation and rating. Each stage
// runs once per Run; retries belong to the caller.
type PipelineService interface {
	Run(ctx context.Context, analysisID string, req models.AnalysisRequest) (*models.AnalysisResult, error)
	Analyze(ctx context.Context, req models.AnalysisRequest) (*models.AnalysisResult, error)
	Submit(ctx context.Context, req models.AnalysisRequest) (*models.Analysis, error)
	GetAnalysis(ctx context.Context, id uuid.UUID) (*models.Analysis, error)
}

type pipelineService struct {
	analysisRepo repositories.AnalysisRepository
	matcher      SkillMatcher
	evaluator    EvaluationStage
	rater        RatingStage
	guidance     GuidanceRetriever
	log          *zap.Logger
}

// NewPipelineService wires the stages. guidance may be nil.
func NewPipelineService(
	analysisRepo repositories.AnalysisRepository,
	matcher SkillMatcher,
	evaluator EvaluationStage,
	rater RatingStage,
	guidance GuidanceRetriever,
	log *zap.Logger,
) PipelineService {
	return &pipelineService{
		analysisRepo: analysisRepo,
		matcher:      matcher,
		evaluator:    evaluator,
		rater:        rater,
		guidance:     guidance,
		log:          logger.OrNop(log),
	}
}

// ValidateRequest trims both texts and rejects empty ones.
func ValidateRequest(req models.AnalysisRequest) (models.AnalysisRequest, error) {
	req.ResumeText = strings.TrimSpace(req.ResumeText)
	req.JobDescription = strings.TrimSpace(req.JobDescription)

	if req.ResumeText == "" {
		return req, &ValidationError{Field: "resume_text", Message: "resume text cannot be empty"}
	}
	if req.JobDescription == "" {
		return req, &ValidationError{Field: "job_description", Message: "job description cannot be empty"}
	}
	return req, nil
}

func (p *pipelineService) Run(ctx context.Context, analysisID string, req models.AnalysisRequest) (*models.AnalysisResult, error) {
	req, err := ValidateRequest(req)
	if err != nil {
		return nil, err
	}

	log := p.log.With(zap.String(logger.FieldAnalysisID, analysisID))
	var diag models.Diagnostics

	if err := checkCancelled(ctx, StageSkillMatch); err != nil {
		return nil, err
	}
	log.Info("pipeline stage started", zap.String(logger.FieldStage, StageSkillMatch))

	skillMatch, err := p.matcher.Match(ctx, req.ResumeText, req.JobDescription)
	if err != nil {
		return nil, err
	}
	diag.SkillMatchFallback = skillMatch.FallbackUsed
	diag.ExtractionDegraded = skillMatch.FallbackUsed &&
		(len(skillMatch.ResumeSkills) == 0 || len(skillMatch.JobSkills) == 0)
	if diag.ExtractionDegraded {
		log.Warn("skill extraction degraded",
			zap.Int("resume_skills", len(skillMatch.ResumeSkills)),
			zap.Int("job_skills", len(skillMatch.JobSkills)),
		)
	}

	guidance := p.retrieveGuidance(ctx, req.JobDescription, log)
	diag.GuidanceUsed = guidance != ""

	if err := checkCancelled(ctx, StageEvaluation); err != nil {
		return nil, err
	}
	log.Info("pipeline stage started", zap.String(logger.FieldStage, StageEvaluation))

	evaluation, err := p.evaluator.Evaluate(ctx, req.ResumeText, req.JobDescription, skillMatch, guidance)
	if err != nil {
		return nil, err
	}
	diag.EvaluationFallback = evaluation.IsFallback()
	if !evaluation.IsFallback() {
		diag.BackfilledFields = BackfillEvaluation(evaluation.Structured, skillMatch)
	}

	if err := checkCancelled(ctx, StageRating); err != nil {
		return nil, err
	}
	log.Info("pipeline stage started", zap.String(logger.FieldStage, StageRating))

	rating, err := p.rater.Rate(ctx, evaluation, skillMatch, req.ResumeText, req.JobDescription)
	if err != nil {
		return nil, err
	}
	diag.RatingFallback = rating.IsFallback()
	if !rating.IsFallback() {
		diag.ValidationMismatches = ValidateParaphrasing(rating.Structured, req.ResumeText)
		if diag.ValidationMismatches > 0 {
			log.Warn("paraphrasing suggestions quote text not found in resume",
				zap.Int("mismatches", diag.ValidationMismatches),
			)
		}
	}

	log.Info("pipeline completed",
		zap.Bool("skill_match_fallback", diag.SkillMatchFallback),
		zap.Bool("evaluation_fallback", diag.EvaluationFallback),
		zap.Bool("rating_fallback", diag.RatingFallback),
	)

	return &models.AnalysisResult{
		AnalysisID:           analysisID,
		StructuredEvaluation: evaluation,
		StructuredRating:     rating,
		SkillsAnalysis:       skillMatch,
		Diagnostics:          diag,
		WorkflowType:         models.WorkflowSequential,
	}, nil
}

// Analyze runs the pipeline synchronously and records the outcome.
func (p *pipelineService) Analyze(ctx context.Context, req models.AnalysisRequest) (*models.AnalysisResult, error) {
	req, err := ValidateRequest(req)
	if err != nil {
		return nil, err
	}

	analysis := &models.Analysis{
		ID:             uuid.New(),
		Status:         models.StatusProcessing,
		ResumeText:     req.ResumeText,
		JobDescription: req.JobDescription,
		Attempts:       1,
	}
	if err := p.analysisRepo.Create(ctx, analysis); err != nil {
		return nil, fmt.Errorf("failed to store analysis: %w", err)
	}

	result, runErr := p.Run(ctx, analysis.ID.String(), req)

	// The outcome is recorded even when the caller has gone away.
	storeCtx := context.WithoutCancel(ctx)
	if runErr != nil {
		if err := p.analysisRepo.UpdateError(storeCtx, analysis.ID, FailedStage(runErr), runErr.Error()); err != nil {
			p.log.Warn("failed to record analysis failure", zap.String(logger.FieldAnalysisID, analysis.ID.String()), zap.Error(err))
		}
		return nil, runErr
	}

	if err := p.analysisRepo.UpdateResult(storeCtx, analysis.ID, result); err != nil {
		p.log.Warn("failed to record analysis result", zap.String(logger.FieldAnalysisID, analysis.ID.String()), zap.Error(err))
	}

	return result, nil
}

// Submit validates and queues a request for the worker.
func (p *pipelineService) Submit(ctx context.Context, req models.AnalysisRequest) (*models.Analysis, error) {
	req, err := ValidateRequest(req)
	if err != nil {
		return nil, err
	}

	analysis := &models.Analysis{
		ID:             uuid.New(),
		Status:         models.StatusQueued,
		ResumeText:     req.ResumeText,
		JobDescription: req.JobDescription,
	}
	if err := p.analysisRepo.Create(ctx, analysis); err != nil {
		return nil, fmt.Errorf("failed to queue analysis: %w", err)
	}

	return analysis, nil
}

func (p *pipelineService) GetAnalysis(ctx context.Context, id uuid.UUID) (*models.Analysis, error) {
	return p.analysisRepo.FindByID(ctx, id)
}

func (p *pipelineService) retrieveGuidance(ctx context.Context, jobDescription string, log *zap.Logger) string {
	if p.guidance == nil {
		return ""
	}

	guidance, err := p.guidance.Retrieve(ctx, jobDescription)
	if err != nil {
		log.Warn("guidance retrieval failed, continuing without it", zap.Error(err))
		return ""
	}
	return guidance
}

// BackfillEvaluation copies the computed skill match into evaluation fields
// the model left empty and returns the names of the filled fields.
func BackfillEvaluation(e *models.EvaluationResult, skillMatch models.SkillMatchResult) []string {
	var filled []string

	if len(e.MatchingSkills) == 0 {
		e.MatchingSkills = append([]string{}, skillMatch.MatchingSkills...)
		filled = append(filled, "matching_skills")
	}
	if len(e.MissingSkills) == 0 {
		e.MissingSkills = append([]string{}, skillMatch.MissingSkills...)
		filled = append(filled, "missing_skills")
	}
	if e.JobMatchPercentage == nil || *e.JobMatchPercentage == 0 {
		pct := models.Score(skillMatch.MatchPercentage)
		e.JobMatchPercentage = &pct
		filled = append(filled, "job_match_percentage")
	}

	return filled
}

// FailedStage names the stage behind err, or "" for non-stage errors.
func FailedStage(err error) string {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return stageErr.Stage
	}
	return ""
}

func checkCancelled(ctx context.Context, nextStage string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("analysis cancelled before %s stage: %w", nextStage, err)
	}
	return nil
}

package models

import (
	"time"

	"github.com/google/uuid"
)

type AnalysisStatus string

const (
	StatusQueued     AnalysisStatus = "queued"
	StatusProcessing AnalysisStatus = "processing"
	StatusCompleted  AnalysisStatus = "completed"
	StatusFailed     AnalysisStatus = "failed"
)

const WorkflowSequential = "sequential_evaluation_and_rating"

// AnalysisRequest is the validated pipeline input.
type AnalysisRequest struct {
	ResumeText     string `json:"resume_text"`
	JobDescription string `json:"job_description"`
}

// Diagnostics marks every degradation that happened during a run so a
// partial result is never presented as fully valid.
type Diagnostics struct {
	SkillMatchFallback   bool     `json:"skill_match_fallback"`
	ExtractionDegraded   bool     `json:"extraction_degraded"`
	EvaluationFallback   bool     `json:"evaluation_fallback"`
	RatingFallback       bool     `json:"rating_fallback"`
	BackfilledFields     []string `json:"backfilled_fields,omitempty"`
	ValidationMismatches int      `json:"validation_mismatches"`
	GuidanceUsed         bool     `json:"guidance_used"`
}

type AnalysisResult struct {
	AnalysisID           string                        `json:"analysis_id"`
	StructuredEvaluation StageOutput[EvaluationResult] `json:"structured_evaluation"`
	StructuredRating     StageOutput[RatingResult]     `json:"structured_rating"`
	SkillsAnalysis       SkillMatchResult              `json:"skills_analysis"`
	Diagnostics          Diagnostics                   `json:"diagnostics"`
	WorkflowType         string                        `json:"workflow_type"`
}

type Analysis struct {
	ID             uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	Status         AnalysisStatus  `gorm:"not null;default:'queued';index" json:"status"`
	ResumeText     string          `gorm:"type:text" json:"resume_text"`
	JobDescription string          `gorm:"type:text" json:"job_description"`
	Result         *AnalysisResult `gorm:"type:jsonb;serializer:json" json:"result,omitempty"`
	FailedStage    *string         `gorm:"type:text" json:"failed_stage,omitempty"`
	ErrorMessage   *string         `gorm:"type:text" json:"error_message,omitempty"`
	Attempts       int             `gorm:"not null;default:0" json:"attempts"`
	CreatedAt      time.Time       `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Analysis) TableName() string {
	return "analyses"
}

package services

import (
	"context"
	"errors"
	"fmt"
)

const (
	StageSkillMatch     = "skill_match"
	StageEvaluation     = "evaluation"
	StageRating         = "rating"
	StageJobAnalysis    = "job_analysis"
	StageResumeAnalysis = "resume_analysis"
	StageComparison     = "comparison"
	StageQuickRating    = "quick_rating"
)

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrUnsupportedFileType = errors.New("unsupported file type")
)

// ValidationError is returned before any provider call when a request is
// missing required text.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// StageError is a provider failure that stopped the pipeline at Stage.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func (e *StageError) Timeout() bool {
	return errors.Is(e.Err, context.DeadlineExceeded)
}

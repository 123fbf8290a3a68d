package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"alfredoptarigan/resume-evaluator/internal/models"
)

var (
	ErrNotFound = errors.New("record not found")

	// ErrNotQueued is returned by Claim when the record already left the queue.
	ErrNotQueued = errors.New("analysis is not queued")
)

// AnalysisRepository stores analysis runs keyed by id. Moving a record to
// processing counts one attempt. Claim moves a queued record to processing
// atomically, so only one caller wins it.
type AnalysisRepository interface {
	Create(ctx context.Context, analysis *models.Analysis) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Analysis, error)
	Claim(ctx context.Context, id uuid.UUID) (*models.Analysis, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.AnalysisStatus) error
	UpdateResult(ctx context.Context, id uuid.UUID, result *models.AnalysisResult) error
	UpdateError(ctx context.Context, id uuid.UUID, stage, errorMsg string) error
	FindPendingJobs(ctx context.Context, limit int) ([]models.Analysis, error)
}

func applyStatus(a *models.Analysis, status models.AnalysisStatus) {
	a.Status = status
	if status == models.StatusProcessing {
		a.Attempts++
	}
}

func applyClaim(a *models.Analysis) error {
	if a.Status != models.StatusQueued {
		return fmt.Errorf("analysis %s is %s: %w", a.ID, a.Status, ErrNotQueued)
	}
	applyStatus(a, models.StatusProcessing)
	return nil
}

func applyResult(a *models.Analysis, result *models.AnalysisResult) {
	a.Status = models.StatusCompleted
	a.Result = result
	a.FailedStage = nil
	a.ErrorMessage = nil
}

func applyError(a *models.Analysis, stage, errorMsg string) {
	a.Status = models.StatusFailed
	if stage != "" {
		a.FailedStage = &stage
	}
	a.ErrorMessage = &errorMsg
}

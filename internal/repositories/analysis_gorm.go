package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"alfredoptarigan/resume-evaluator/internal/models"
)

type analysisRepository struct {
	db *gorm.DB
}

func NewAnalysisRepository(db *gorm.DB) AnalysisRepository {
	return &analysisRepository{db: db}
}

func (r *analysisRepository) Create(ctx context.Context, analysis *models.Analysis) error {
	if analysis.ID == uuid.Nil {
		analysis.ID = uuid.New()
	}
	if analysis.Status == "" {
		analysis.Status = models.StatusQueued
	}
	if err := r.db.WithContext(ctx).Create(analysis).Error; err != nil {
		return fmt.Errorf("failed to create analysis: %w", err)
	}
	return nil
}

func (r *analysisRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Analysis, error) {
	var analysis models.Analysis
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&analysis).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("analysis %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find analysis: %w", err)
	}
	return &analysis, nil
}

// Claim relies on the status predicate in the UPDATE; a concurrent claimer
// matches zero rows.
func (r *analysisRepository) Claim(ctx context.Context, id uuid.UUID) (*models.Analysis, error) {
	result := r.db.WithContext(ctx).Model(&models.Analysis{}).
		Where("id = ? AND status = ?", id, models.StatusQueued).
		Updates(map[string]interface{}{
			"status":     models.StatusProcessing,
			"attempts":   gorm.Expr("attempts + 1"),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to claim analysis: %w", result.Error)
	}

	analysis, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if result.RowsAffected == 0 {
		return nil, fmt.Errorf("analysis %s is %s: %w", id, analysis.Status, ErrNotQueued)
	}
	return analysis, nil
}

func (r *analysisRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.AnalysisStatus) error {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}
	if status == models.StatusProcessing {
		updates["attempts"] = gorm.Expr("attempts + 1")
	}

	result := r.db.WithContext(ctx).Model(&models.Analysis{}).
		Where("id = ?", id).
		Updates(updates)

	return checkAffected(result, id, "failed to update status")
}

func (r *analysisRepository) UpdateResult(ctx context.Context, id uuid.UUID, analysisResult *models.AnalysisResult) error {
	// Struct updates go through the jsonb serializer; map updates do not.
	result := r.db.WithContext(ctx).Model(&models.Analysis{}).
		Where("id = ?", id).
		Select("status", "result", "failed_stage", "error_message", "updated_at").
		Updates(&models.Analysis{
			Status:    models.StatusCompleted,
			Result:    analysisResult,
			UpdatedAt: time.Now(),
		})

	return checkAffected(result, id, "failed to update result")
}

func (r *analysisRepository) UpdateError(ctx context.Context, id uuid.UUID, stage, errorMsg string) error {
	updates := map[string]interface{}{
		"status":        models.StatusFailed,
		"error_message": errorMsg,
		"updated_at":    time.Now(),
	}
	if stage != "" {
		updates["failed_stage"] = stage
	}

	result := r.db.WithContext(ctx).Model(&models.Analysis{}).
		Where("id = ?", id).
		Updates(updates)

	return checkAffected(result, id, "failed to update error")
}

func (r *analysisRepository) FindPendingJobs(ctx context.Context, limit int) ([]models.Analysis, error) {
	var analyses []models.Analysis
	err := r.db.WithContext(ctx).
		Where("status = ?", models.StatusQueued).
		Order("created_at ASC").
		Limit(limit).
		Find(&analyses).Error

	if err != nil {
		return nil, fmt.Errorf("failed to find pending jobs: %w", err)
	}

	return analyses, nil
}

func checkAffected(result *gorm.DB, id uuid.UUID, msg string) error {
	if result.Error != nil {
		return fmt.Errorf("%s: %w", msg, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("analysis %s: %w", id, ErrNotFound)
	}
	return nil
}

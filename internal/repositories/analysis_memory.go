package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"alfredoptarigan/resume-evaluator/internal/models"
)

// memoryAnalysisRepository keeps records for the life of the process.
// Stored values are never mutated in place; updates swap in a copy.
type memoryAnalysisRepository struct {
	records sync.Map // uuid.UUID -> *models.Analysis
}

func NewMemoryAnalysisRepository() AnalysisRepository {
	return &memoryAnalysisRepository{}
}

func (r *memoryAnalysisRepository) Create(_ context.Context, analysis *models.Analysis) error {
	if analysis.ID == uuid.Nil {
		analysis.ID = uuid.New()
	}
	now := time.Now()
	if analysis.CreatedAt.IsZero() {
		analysis.CreatedAt = now
	}
	analysis.UpdatedAt = now
	if analysis.Status == "" {
		analysis.Status = models.StatusQueued
	}

	stored := *analysis
	if _, loaded := r.records.LoadOrStore(analysis.ID, &stored); loaded {
		return fmt.Errorf("analysis %s already exists", analysis.ID)
	}
	return nil
}

func (r *memoryAnalysisRepository) FindByID(_ context.Context, id uuid.UUID) (*models.Analysis, error) {
	v, ok := r.records.Load(id)
	if !ok {
		return nil, fmt.Errorf("analysis %s: %w", id, ErrNotFound)
	}
	copied := *v.(*models.Analysis)
	return &copied, nil
}

func (r *memoryAnalysisRepository) Claim(_ context.Context, id uuid.UUID) (*models.Analysis, error) {
	var claimed models.Analysis
	err := r.update(id, func(a *models.Analysis) error {
		if err := applyClaim(a); err != nil {
			return err
		}
		claimed = *a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &claimed, nil
}

func (r *memoryAnalysisRepository) UpdateStatus(_ context.Context, id uuid.UUID, status models.AnalysisStatus) error {
	return r.update(id, func(a *models.Analysis) error {
		applyStatus(a, status)
		return nil
	})
}

func (r *memoryAnalysisRepository) UpdateResult(_ context.Context, id uuid.UUID, result *models.AnalysisResult) error {
	return r.update(id, func(a *models.Analysis) error {
		applyResult(a, result)
		return nil
	})
}

func (r *memoryAnalysisRepository) UpdateError(_ context.Context, id uuid.UUID, stage, errorMsg string) error {
	return r.update(id, func(a *models.Analysis) error {
		applyError(a, stage, errorMsg)
		return nil
	})
}

func (r *memoryAnalysisRepository) FindPendingJobs(_ context.Context, limit int) ([]models.Analysis, error) {
	var pending []models.Analysis
	r.records.Range(func(_, v any) bool {
		a := v.(*models.Analysis)
		if a.Status == models.StatusQueued {
			pending = append(pending, *a)
		}
		return true
	})

	sort.Slice(pending, func(i, j int) bool {
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})

	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

// update retries until its copy replaces the value it was derived from. An
// error from mutate aborts without storing anything.
func (r *memoryAnalysisRepository) update(id uuid.UUID, mutate func(*models.Analysis) error) error {
	for {
		v, ok := r.records.Load(id)
		if !ok {
			return fmt.Errorf("analysis %s: %w", id, ErrNotFound)
		}

		next := *v.(*models.Analysis)
		if err := mutate(&next); err != nil {
			return err
		}
		next.UpdatedAt = time.Now()

		if r.records.CompareAndSwap(id, v, &next) {
			return nil
		}
	}
}

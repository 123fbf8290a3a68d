package repositories

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"alfredoptarigan/resume-evaluator/internal/models"
)

func TestMemoryAnalysisLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryAnalysisRepository()

	analysis := &models.Analysis{ResumeText: "resume", JobDescription: "job"}
	if err := repo.Create(ctx, analysis); err != nil {
		t.Fatalf("create: %v", err)
	}
	if analysis.ID == uuid.Nil || analysis.Status != models.StatusQueued {
		t.Fatalf("expected id and queued status, got %+v", analysis)
	}
	if err := repo.Create(ctx, analysis); err == nil {
		t.Fatalf("expected duplicate create to fail")
	}

	if err := repo.UpdateStatus(ctx, analysis.ID, models.StatusProcessing); err != nil {
		t.Fatalf("update status: %v", err)
	}
	if err := repo.UpdateError(ctx, analysis.ID, "rating", "bad gateway"); err != nil {
		t.Fatalf("update error: %v", err)
	}

	stored, err := repo.FindByID(ctx, analysis.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if stored.Status != models.StatusFailed || *stored.FailedStage != "rating" || stored.Attempts != 1 {
		t.Fatalf("unexpected record %+v", stored)
	}

	result := &models.AnalysisResult{AnalysisID: analysis.ID.String()}
	if err := repo.UpdateResult(ctx, analysis.ID, result); err != nil {
		t.Fatalf("update result: %v", err)
	}
	stored, _ = repo.FindByID(ctx, analysis.ID)
	if stored.Status != models.StatusCompleted || stored.FailedStage != nil || stored.ErrorMessage != nil {
		t.Fatalf("completed record must clear failure fields, got %+v", stored)
	}
}

func TestMemoryAnalysisNotFound(t *testing.T) {
	repo := NewMemoryAnalysisRepository()

	if _, err := repo.FindByID(context.Background(), uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := repo.UpdateStatus(context.Background(), uuid.New(), models.StatusProcessing); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryAnalysisFindByIDReturnsCopy(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryAnalysisRepository()
	analysis := &models.Analysis{ResumeText: "resume", JobDescription: "job"}
	_ = repo.Create(ctx, analysis)

	got, _ := repo.FindByID(ctx, analysis.ID)
	got.Status = models.StatusCompleted

	again, _ := repo.FindByID(ctx, analysis.ID)
	if again.Status != models.StatusQueued {
		t.Fatalf("mutating a returned record must not change the store")
	}
}

func TestMemoryAnalysisConcurrentUpdates(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryAnalysisRepository()
	analysis := &models.Analysis{ResumeText: "resume", JobDescription: "job"}
	_ = repo.Create(ctx, analysis)

	const workers = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := repo.UpdateStatus(ctx, analysis.ID, models.StatusProcessing); err != nil {
				t.Errorf("update: %v", err)
			}
		}()
	}
	wg.Wait()

	stored, _ := repo.FindByID(ctx, analysis.ID)
	if stored.Attempts != workers {
		t.Fatalf("attempts = %d, want %d (lost update)", stored.Attempts, workers)
	}
}

func TestMemoryAnalysisFindPendingJobs(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryAnalysisRepository()
	base := time.Now()

	var ids []uuid.UUID
	for i := 0; i < 4; i++ {
		a := &models.Analysis{CreatedAt: base.Add(time.Duration(i) * time.Second)}
		_ = repo.Create(ctx, a)
		ids = append(ids, a.ID)
	}
	_ = repo.UpdateStatus(ctx, ids[0], models.StatusProcessing)

	pending, err := repo.FindPendingJobs(ctx, 2)
	if err != nil {
		t.Fatalf("find pending: %v", err)
	}
	if len(pending) != 2 || pending[0].ID != ids[1] || pending[1].ID != ids[2] {
		t.Fatalf("expected oldest queued records first, got %v", pending)
	}
}

func TestMemoryAnalysisClaimIsExclusive(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryAnalysisRepository()
	analysis := &models.Analysis{ResumeText: "resume", JobDescription: "job"}
	_ = repo.Create(ctx, analysis)

	const claimers = 50
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		won int
	)
	for i := 0; i < claimers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Claim(ctx, analysis.ID)
			if err != nil && !errors.Is(err, ErrNotQueued) {
				t.Errorf("claim: %v", err)
				return
			}
			if err == nil {
				mu.Lock()
				won++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if won != 1 {
		t.Fatalf("claims won = %d, want exactly 1", won)
	}
	stored, _ := repo.FindByID(ctx, analysis.ID)
	if stored.Status != models.StatusProcessing || stored.Attempts != 1 {
		t.Fatalf("unexpected claimed record %+v", stored)
	}

	if _, err := repo.Claim(ctx, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown id, got %v", err)
	}
}

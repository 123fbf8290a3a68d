package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/resume-evaluator/internal/logger"
	"alfredoptarigan/resume-evaluator/internal/models"
	"alfredoptarigan/resume-evaluator/internal/repositories"
)

const (
	pendingPollInterval = 10 * time.Second
	pendingPollBatch    = 10
	jobQueueSize        = 100
)

type Worker interface {
	Start(ctx context.Context)
	Stop()
	EnqueueJob(analysisID uuid.UUID)
}

// RetryPolicy re-runs the whole pipeline after a provider failure.
// MaxAttempts counts the first run.
type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
}

type worker struct {
	analysisRepo repositories.AnalysisRepository
	pipeline     PipelineService
	notifier     Notifier
	retry        RetryPolicy
	jobQueue     chan uuid.UUID
	concurrency  int
	wg           sync.WaitGroup
	stopChan     chan struct{}
	stopOnce     sync.Once
	log          *zap.Logger
}

func NewWorker(
	analysisRepo repositories.AnalysisRepository,
	pipeline PipelineService,
	notifier Notifier,
	retry RetryPolicy,
	concurrency int,
	log *zap.Logger,
) Worker {
	if concurrency <= 0 {
		concurrency = 1
	}
	if retry.MaxAttempts <= 0 {
		retry.MaxAttempts = 1
	}
	if notifier == nil {
		notifier = NewNoopNotifier()
	}
	return &worker{
		analysisRepo: analysisRepo,
		pipeline:     pipeline,
		notifier:     notifier,
		retry:        retry,
		jobQueue:     make(chan uuid.UUID, jobQueueSize),
		concurrency:  concurrency,
		stopChan:     make(chan struct{}),
		log:          logger.OrNop(log),
	}
}

// Start implements Worker.
func (w *worker) Start(ctx context.Context) {
	w.log.Info("starting worker", zap.Int("concurrency", w.concurrency))

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.processJobs(ctx, i+1)
	}

	w.wg.Add(1)
	go w.pollPendingJobs(ctx)
}

// Stop implements Worker.
func (w *worker) Stop() {
	w.stopOnce.Do(func() {
		w.log.Info("stopping worker")
		close(w.stopChan)
		w.wg.Wait()
		w.log.Info("worker stopped")
	})
}

// EnqueueJob implements Worker.
func (w *worker) EnqueueJob(analysisID uuid.UUID) {
	select {
	case w.jobQueue <- analysisID:
		w.log.Debug("job enqueued", zap.String(logger.FieldAnalysisID, analysisID.String()))
	case <-w.stopChan:
		w.log.Warn("worker stopped, cannot enqueue job", zap.String(logger.FieldAnalysisID, analysisID.String()))
	}
}

func (w *worker) processJobs(ctx context.Context, workerID int) {
	defer w.wg.Done()
	log := w.log.With(zap.Int("worker", workerID))

	for {
		select {
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		case analysisID := <-w.jobQueue:
			if err := w.processAnalysis(ctx, analysisID); err != nil {
				log.Error("job failed", zap.String(logger.FieldAnalysisID, analysisID.String()), zap.Error(err))
			} else {
				log.Info("job completed", zap.String(logger.FieldAnalysisID, analysisID.String()))
			}
		}
	}
}

// processAnalysis runs one queued analysis to a terminal state.
func (w *worker) processAnalysis(ctx context.Context, id uuid.UUID) error {
	// The poller and the submit handler may both enqueue the same id; only
	// one worker wins the claim.
	analysis, err := w.analysisRepo.Claim(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotQueued) {
			w.log.Debug("skipping analysis that is no longer queued",
				zap.String(logger.FieldAnalysisID, id.String()),
				zap.Error(err),
			)
			return nil
		}
		return err
	}

	req := models.AnalysisRequest{
		ResumeText:     analysis.ResumeText,
		JobDescription: analysis.JobDescription,
	}

	var (
		result *models.AnalysisResult
		runErr error
	)
	for attempt := 1; attempt <= w.retry.MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := w.analysisRepo.UpdateStatus(ctx, id, models.StatusProcessing); err != nil {
				return err
			}
		}
		w.publish(ctx, AnalysisEvent{AnalysisID: id.String(), Status: models.StatusProcessing, Attempt: attempt})

		result, runErr = w.pipeline.Run(ctx, id.String(), req)
		if runErr == nil || !retryable(runErr) || attempt == w.retry.MaxAttempts {
			break
		}

		delay := w.retry.InitialDelay * time.Duration(attempt)
		w.log.Warn("pipeline run failed, retrying",
			zap.String(logger.FieldAnalysisID, id.String()),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(runErr),
		)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			runErr = ctx.Err()
		case <-w.stopChan:
			runErr = errors.New("worker stopped during retry backoff")
		}
		if !retryable(runErr) {
			break
		}
	}

	storeCtx := context.WithoutCancel(ctx)
	if runErr != nil {
		stage := FailedStage(runErr)
		if err := w.analysisRepo.UpdateError(storeCtx, id, stage, runErr.Error()); err != nil {
			return err
		}
		w.publish(storeCtx, AnalysisEvent{
			AnalysisID:  id.String(),
			Status:      models.StatusFailed,
			FailedStage: stage,
			Error:       runErr.Error(),
		})
		return runErr
	}

	if err := w.analysisRepo.UpdateResult(storeCtx, id, result); err != nil {
		return err
	}
	w.publish(storeCtx, AnalysisEvent{AnalysisID: id.String(), Status: models.StatusCompleted})
	return nil
}

func (w *worker) publish(ctx context.Context, event AnalysisEvent) {
	if err := w.notifier.Publish(ctx, event); err != nil {
		w.log.Warn("failed to publish analysis event",
			zap.String(logger.FieldAnalysisID, event.AnalysisID),
			zap.Error(err),
		)
	}
}

// retryable reports whether err is a provider failure worth another run.
func retryable(err error) bool {
	var stageErr *StageError
	return errors.As(err, &stageErr)
}

func (w *worker) pollPendingJobs(ctx context.Context) {
	defer w.wg.Done()
	ticker := time.NewTicker(pendingPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			pending, err := w.analysisRepo.FindPendingJobs(ctx, pendingPollBatch)
			if err != nil {
				w.log.Warn("failed to fetch pending jobs", zap.Error(err))
				continue
			}

			if len(pending) > 0 {
				w.log.Info("found pending jobs", zap.Int("count", len(pending)))
			}

			for _, job := range pending {
				w.EnqueueJob(job.ID)
			}
		}
	}
}

package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"alfredoptarigan/resume-evaluator/internal/models"
)

const (
	analysisKeyPrefix = "analysis:"
	queuedAnalysesKey = "analyses:queued"

	// Optimistic updates give up after this many WATCH conflicts.
	maxRedisUpdateRetries = 10
)

// redisAnalysisRepository stores each analysis as a JSON value with a TTL and
// indexes queued ids in a sorted set scored by creation time.
type redisAnalysisRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisAnalysisRepository(client *redis.Client, ttl time.Duration) AnalysisRepository {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &redisAnalysisRepository{client: client, ttl: ttl}
}

func analysisKey(id uuid.UUID) string {
	return analysisKeyPrefix + id.String()
}

func (r *redisAnalysisRepository) Create(ctx context.Context, analysis *models.Analysis) error {
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

	data, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("marshal analysis %s: %w", analysis.ID, err)
	}

	ok, err := r.client.SetNX(ctx, analysisKey(analysis.ID), data, r.ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to create analysis: %w", err)
	}
	if !ok {
		return fmt.Errorf("analysis %s already exists", analysis.ID)
	}

	if analysis.Status == models.StatusQueued {
		if err := r.client.ZAdd(ctx, queuedAnalysesKey, redis.Z{
			Score:  float64(analysis.CreatedAt.UnixNano()),
			Member: analysis.ID.String(),
		}).Err(); err != nil {
			return fmt.Errorf("failed to index queued analysis: %w", err)
		}
	}

	return nil
}

func (r *redisAnalysisRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Analysis, error) {
	data, err := r.client.Get(ctx, analysisKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("analysis %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find analysis: %w", err)
	}

	var analysis models.Analysis
	if err := json.Unmarshal(data, &analysis); err != nil {
		return nil, fmt.Errorf("unmarshal analysis %s: %w", id, err)
	}
	return &analysis, nil
}

func (r *redisAnalysisRepository) Claim(ctx context.Context, id uuid.UUID) (*models.Analysis, error) {
	var claimed models.Analysis
	err := r.update(ctx, id, func(a *models.Analysis) error {
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

func (r *redisAnalysisRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.AnalysisStatus) error {
	return r.update(ctx, id, func(a *models.Analysis) error {
		applyStatus(a, status)
		return nil
	})
}

func (r *redisAnalysisRepository) UpdateResult(ctx context.Context, id uuid.UUID, result *models.AnalysisResult) error {
	return r.update(ctx, id, func(a *models.Analysis) error {
		applyResult(a, result)
		return nil
	})
}

func (r *redisAnalysisRepository) UpdateError(ctx context.Context, id uuid.UUID, stage, errorMsg string) error {
	return r.update(ctx, id, func(a *models.Analysis) error {
		applyError(a, stage, errorMsg)
		return nil
	})
}

func (r *redisAnalysisRepository) FindPendingJobs(ctx context.Context, limit int) ([]models.Analysis, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}

	ids, err := r.client.ZRange(ctx, queuedAnalysesKey, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to find pending jobs: %w", err)
	}

	pending := make([]models.Analysis, 0, len(ids))
	for _, raw := range ids {
		id, err := uuid.Parse(raw)
		if err != nil {
			r.client.ZRem(ctx, queuedAnalysesKey, raw)
			continue
		}

		analysis, err := r.FindByID(ctx, id)
		if err != nil {
			// Expired records leave stale index entries behind.
			if errors.Is(err, ErrNotFound) {
				r.client.ZRem(ctx, queuedAnalysesKey, raw)
				continue
			}
			return nil, err
		}

		if analysis.Status == models.StatusQueued {
			pending = append(pending, *analysis)
		}
	}

	return pending, nil
}

func (r *redisAnalysisRepository) update(ctx context.Context, id uuid.UUID, mutate func(*models.Analysis) error) error {
	key := analysisKey(id)

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return fmt.Errorf("analysis %s: %w", id, ErrNotFound)
			}
			return err
		}

		var analysis models.Analysis
		if err := json.Unmarshal(data, &analysis); err != nil {
			return fmt.Errorf("unmarshal analysis %s: %w", id, err)
		}

		if err := mutate(&analysis); err != nil {
			return err
		}
		analysis.UpdatedAt = time.Now()

		next, err := json.Marshal(&analysis)
		if err != nil {
			return fmt.Errorf("marshal analysis %s: %w", id, err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, next, redis.KeepTTL)
			if analysis.Status == models.StatusQueued {
				pipe.ZAdd(ctx, queuedAnalysesKey, redis.Z{
					Score:  float64(analysis.CreatedAt.UnixNano()),
					Member: id.String(),
				})
			} else {
				pipe.ZRem(ctx, queuedAnalysesKey, id.String())
			}
			return nil
		})
		return err
	}

	for i := 0; i < maxRedisUpdateRetries; i++ {
		err := r.client.Watch(ctx, txf, key)
		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrNotQueued) {
			return err
		}
		return fmt.Errorf("failed to update analysis: %w", err)
	}

	return fmt.Errorf("failed to update analysis %s: too many concurrent updates", id)
}

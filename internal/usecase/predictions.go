package usecase

import (
	"context"
	"fmt"
	"time"

	"skyline/internal/domain/models"
	drepo "skyline/internal/domain/repository"
	"skyline/pkg/cache"
)

// PredictionService resolves the win-probability curve for a game:
// cache first, then stored history, then the model service. Fresh model
// output is appended to the history so later points never overwrite
// earlier ones within an inning.
type PredictionService struct {
	cache     cache.Service
	store     drepo.PredictionStore
	predictor drepo.Predictor
	metrics   drepo.Metrics
	ttl       time.Duration
}

func NewPredictionService(
	c cache.Service,
	store drepo.PredictionStore,
	predictor drepo.Predictor,
	metrics drepo.Metrics,
	ttl time.Duration,
) *PredictionService {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &PredictionService{cache: c, store: store, predictor: predictor, metrics: metrics, ttl: ttl}
}

func predictionKey(gid string) string { return cache.Key("predict", gid) }

// WinProbability returns the full curve for gid.
func (s *PredictionService) WinProbability(ctx context.Context, gid string, gamePk int64) ([]models.WinProbabilityPoint, error) {
	if gid == "" {
		return nil, fmt.Errorf("gid required")
	}

	if s.cache != nil {
		var cached []models.WinProbabilityPoint
		if err := s.cache.Get(ctx, predictionKey(gid), &cached); err == nil && len(cached) > 0 {
			return cached, nil
		}
	}

	points, err := s.store.ByGame(ctx, gid)
	if err != nil {
		s.metrics.RecordError("prediction_store")
		return nil, fmt.Errorf("prediction history %s: %w", gid, err)
	}
	if len(points) == 0 {
		start := time.Now()
		points, err = s.predictor.Predict(ctx, gid, gamePk)
		s.metrics.RecordLatency("predict", time.Since(start).Seconds())
		if err != nil {
			s.metrics.RecordError("prediction_fetch")
			return nil, err
		}
		if len(points) > 0 {
			if err := s.store.Store(ctx, gid, points); err != nil {
				s.metrics.RecordError("prediction_persist")
			}
		}
	}

	if s.cache != nil && len(points) > 0 {
		_ = s.cache.Set(ctx, predictionKey(gid), points, s.ttl)
	}
	return points, nil
}

package usecase

import (
	"context"
	"fmt"
	"time"

	"skyline/internal/domain/models"
	drepo "skyline/internal/domain/repository"
	"skyline/pkg/cache"
)

var recentGamesKey = cache.Key("games", "recent")

// GamesService serves the recent-games list, caching the answer so the
// landing screen does not hammer the warehouse.
type GamesService struct {
	store drepo.PlayStore
	cache cache.Service
	ttl   time.Duration
	limit int
}

func NewGamesService(store drepo.PlayStore, c cache.Service, ttl time.Duration) *GamesService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &GamesService{store: store, cache: c, ttl: ttl, limit: 10}
}

// RecentGames returns the latest games played on or before the cursor, most
// recent first. A zero cursor means "now"; only that default view is cached.
func (s *GamesService) RecentGames(ctx context.Context, before time.Time) ([]*models.Game, error) {
	cacheable := before.IsZero()
	if before.IsZero() {
		before = time.Now()
	}

	if s.cache != nil && cacheable {
		var cached []*models.Game
		if err := s.cache.Get(ctx, recentGamesKey, &cached); err == nil && len(cached) > 0 {
			return cached, nil
		}
	}

	games, err := s.store.RecentGames(ctx, before, s.limit)
	if err != nil {
		return nil, fmt.Errorf("recent games: %w", err)
	}

	if s.cache != nil && cacheable && len(games) > 0 {
		_ = s.cache.Set(ctx, recentGamesKey, games, s.ttl)
	}
	return games, nil
}

package usecase

import (
	"context"
	"testing"
	"time"

	"skyline/internal/domain/models"
	"skyline/pkg/cache"
)

func TestRecentGamesLimit(t *testing.T) {
	store := newFakePlayStore()
	for i := 0; i < 15; i++ {
		store.games = append(store.games, &models.Game{
			GID:      "g" + string(rune('a'+i)),
			HomeTeam: "ANA",
			VisTeam:  "BOS",
			Date:     time.Now().AddDate(0, 0, -i),
		})
	}
	svc := NewGamesService(store, nil, time.Minute)

	games, err := svc.RecentGames(context.Background(), time.Time{})
	if err != nil {
		t.Fatalf("RecentGames: %v", err)
	}
	if len(games) != 10 {
		t.Fatalf("got %d games, want 10", len(games))
	}
}

func TestRecentGamesUsesCache(t *testing.T) {
	store := newFakePlayStore()
	store.games = []*models.Game{{GID: "g1", HomeTeam: "ANA", VisTeam: "BOS"}}
	mc := cache.NewMemoryCache()
	defer mc.Close()
	svc := NewGamesService(store, mc, time.Minute)

	for i := 0; i < 3; i++ {
		games, err := svc.RecentGames(context.Background(), time.Time{})
		if err != nil {
			t.Fatalf("RecentGames: %v", err)
		}
		if len(games) != 1 || games[0].GID != "g1" {
			t.Fatalf("unexpected games %+v", games)
		}
	}
	if store.calls != 1 {
		t.Fatalf("store queried %d times, want 1", store.calls)
	}
}

func TestRecentGamesBeforeBypassesCache(t *testing.T) {
	store := newFakePlayStore()
	store.games = []*models.Game{{GID: "g1", HomeTeam: "ANA", VisTeam: "BOS"}}
	mc := cache.NewMemoryCache()
	defer mc.Close()
	svc := NewGamesService(store, mc, time.Minute)

	cutoff := time.Now().AddDate(0, -1, 0)
	for i := 0; i < 2; i++ {
		if _, err := svc.RecentGames(context.Background(), cutoff); err != nil {
			t.Fatalf("RecentGames: %v", err)
		}
	}
	if store.calls != 2 {
		t.Fatalf("store queried %d times, want 2", store.calls)
	}
}

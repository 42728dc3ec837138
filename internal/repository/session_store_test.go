package repository

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"skyline/internal/domain/models"
)

func newTestStore(t *testing.T) (*RedisSessionStore, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisSessionStore(rdb, time.Hour).(*RedisSessionStore)
	return store, func() { mr.Close() }
}

func TestSessionRoundTrip(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()
	ctx := context.Background()

	sess := &models.ReplaySession{
		ID: "s1", GID: "ANA202404020", Mode: models.ModeCasual,
		UserID: "u1", Interval: 20, State: models.SessionRunning,
	}
	if err := store.Put(ctx, sess); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := store.Get(ctx, "u1", "ANA202404020")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil || got.ID != "s1" || got.State != models.SessionRunning {
		t.Fatalf("unexpected session: %+v", got)
	}
}

func TestSessionGetMissing(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	got, err := store.Get(context.Background(), "u1", "nope")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil session, got %+v", got)
	}
}

func TestSessionStateAndCursor(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()
	ctx := context.Background()

	sess := &models.ReplaySession{ID: "s1", GID: "g1", UserID: "u1", State: models.SessionRunning}
	if err := store.Put(ctx, sess); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := store.SetState(ctx, "u1", "g1", models.SessionPaused); err != nil {
		t.Fatalf("SetState: %v", err)
	}
	if err := store.SetCursor(ctx, "u1", "g1", 42); err != nil {
		t.Fatalf("SetCursor: %v", err)
	}

	got, err := store.Get(ctx, "u1", "g1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.State != models.SessionPaused || got.Cursor != 42 {
		t.Fatalf("unexpected session after updates: %+v", got)
	}
}

func TestSessionActiveCount(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()
	ctx := context.Background()

	for _, gid := range []string{"g1", "g2"} {
		if err := store.Put(ctx, &models.ReplaySession{ID: gid, GID: gid, UserID: "u1", State: models.SessionRunning}); err != nil {
			t.Fatalf("Put %s: %v", gid, err)
		}
	}
	n, err := store.ActiveCount(ctx, "u1")
	if err != nil {
		t.Fatalf("ActiveCount: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 active sessions, got %d", n)
	}

	if err := store.Delete(ctx, "u1", "g1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	n, err = store.ActiveCount(ctx, "u1")
	if err != nil {
		t.Fatalf("ActiveCount: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 active session after delete, got %d", n)
	}
}

func TestSessionActiveCountSkipsClosed(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()
	ctx := context.Background()

	// finished replays keep their key for cursor reuse but must not count
	for _, gid := range []string{"g1", "g2", "g3"} {
		if err := store.Put(ctx, &models.ReplaySession{ID: gid, GID: gid, UserID: "u1", State: models.SessionRunning}); err != nil {
			t.Fatalf("Put %s: %v", gid, err)
		}
		if err := store.SetState(ctx, "u1", gid, models.SessionClosed); err != nil {
			t.Fatalf("SetState %s: %v", gid, err)
		}
	}

	n, err := store.ActiveCount(ctx, "u1")
	if err != nil {
		t.Fatalf("ActiveCount: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected 0 active sessions after all closed, got %d", n)
	}

	// a paused session still holds a slot
	if err := store.Put(ctx, &models.ReplaySession{ID: "g4", GID: "g4", UserID: "u1", State: models.SessionPaused}); err != nil {
		t.Fatalf("Put g4: %v", err)
	}
	n, err = store.ActiveCount(ctx, "u1")
	if err != nil {
		t.Fatalf("ActiveCount: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 active session with one paused, got %d", n)
	}
}

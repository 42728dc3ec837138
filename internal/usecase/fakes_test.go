package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"skyline/internal/domain/models"
)

// in-memory fakes for the repository interfaces

type fakePlayStore struct {
	mu    sync.Mutex
	plays map[string][]*models.Play
	games []*models.Game
	calls int
	err   error
}

func newFakePlayStore() *fakePlayStore {
	return &fakePlayStore{plays: make(map[string][]*models.Play)}
}

func (f *fakePlayStore) Store(_ context.Context, p *models.Play) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.plays[p.GID] = append(f.plays[p.GID], p)
	return nil
}

func (f *fakePlayStore) StoreBatch(ctx context.Context, plays []*models.Play) error {
	for _, p := range plays {
		if err := f.Store(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakePlayStore) PlaysByGame(_ context.Context, gid string) ([]*models.Play, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.plays[gid], nil
}

func (f *fakePlayStore) RecentGames(_ context.Context, _ time.Time, limit int) ([]*models.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if len(f.games) > limit {
		return f.games[:limit], nil
	}
	return f.games, nil
}

func (f *fakePlayStore) Health(context.Context) error { return nil }
func (f *fakePlayStore) Close() error                 { return nil }

type fakeSessionStore struct {
	mu sync.Mutex
	m  map[string]*models.ReplaySession
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{m: make(map[string]*models.ReplaySession)}
}

func skey(userID, gid string) string { return userID + "/" + gid }

func (f *fakeSessionStore) Put(_ context.Context, s *models.ReplaySession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *s
	f.m[skey(s.UserID, s.GID)] = &cp
	return nil
}

func (f *fakeSessionStore) Get(_ context.Context, userID, gid string) (*models.ReplaySession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.m[skey(userID, gid)]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSessionStore) SetState(_ context.Context, userID, gid, state string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.m[skey(userID, gid)]
	if !ok {
		return fmt.Errorf("no session")
	}
	s.State = state
	return nil
}

func (f *fakeSessionStore) SetCursor(_ context.Context, userID, gid string, cursor int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.m[skey(userID, gid)]
	if !ok {
		return fmt.Errorf("no session")
	}
	s.Cursor = cursor
	return nil
}

func (f *fakeSessionStore) Delete(_ context.Context, userID, gid string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.m, skey(userID, gid))
	return nil
}

func (f *fakeSessionStore) ActiveCount(_ context.Context, userID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, s := range f.m {
		if s.UserID == userID && s.State != models.SessionClosed {
			n++
		}
	}
	return n, nil
}

type fakeCommentator struct {
	mu    sync.Mutex
	fail  bool
	calls []string
}

func (f *fakeCommentator) Describe(_ context.Context, p *models.Play, mode string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return "", fmt.Errorf("generator down")
	}
	line := fmt.Sprintf("[%s] %s: %s", mode, p.Batter, p.Event)
	f.calls = append(f.calls, line)
	return line, nil
}

type fakePredictionStore struct {
	mu     sync.Mutex
	points map[string][]models.WinProbabilityPoint
	stores int
}

func newFakePredictionStore() *fakePredictionStore {
	return &fakePredictionStore{points: make(map[string][]models.WinProbabilityPoint)}
}

func (f *fakePredictionStore) Store(_ context.Context, gid string, points []models.WinProbabilityPoint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stores++
	f.points[gid] = append(f.points[gid], points...)
	return nil
}

func (f *fakePredictionStore) ByGame(_ context.Context, gid string) ([]models.WinProbabilityPoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.points[gid], nil
}

func (f *fakePredictionStore) Close() error { return nil }

type fakePredictor struct {
	mu     sync.Mutex
	points []models.WinProbabilityPoint
	err    error
	calls  int
}

func (f *fakePredictor) Predict(context.Context, string, int64) ([]models.WinProbabilityPoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.points, f.err
}

type nopMetrics struct{}

func (nopMetrics) RecordMessageSent(string, string) {}
func (nopMetrics) RecordError(string)               {}
func (nopMetrics) RecordStreamOpen(string)          {}
func (nopMetrics) RecordStreamClose(string)         {}
func (nopMetrics) RecordLatency(string, float64)    {}

func testPlays(gid string, n int) []*models.Play {
	plays := make([]*models.Play, 0, n)
	for i := 0; i < n; i++ {
		plays = append(plays, &models.Play{
			GID:     gid,
			Inning:  i/6 + 1,
			TopBot:  (i / 3) % 2,
			Nump:    i%3 + 1,
			Event:   fmt.Sprintf("Play %d", i),
			Batter:  fmt.Sprintf("Batter %d", i),
			Pitcher: "Pitcher",
		})
	}
	return plays
}

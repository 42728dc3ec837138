package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"skyline/internal/domain/models"
)

// scriptedStream fails its first Read the way the websocket client does on a
// dropped connection: an error on errCh, then both channels closed. Reads
// after a reconnect deliver plays normally.
type scriptedStream struct {
	mu         sync.Mutex
	silentDrop bool
	reads      int
	reconnects int
	connected  bool
}

func (s *scriptedStream) Connect(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = true
	return nil
}

func (s *scriptedStream) Subscribe(context.Context) error { return nil }

func (s *scriptedStream) Reconnect(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reconnects++
	s.connected = true
	return nil
}

func (s *scriptedStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	return nil
}

func (s *scriptedStream) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *scriptedStream) Read(context.Context) (<-chan *models.Play, <-chan error) {
	s.mu.Lock()
	s.reads++
	n := s.reads
	s.mu.Unlock()

	plays := make(chan *models.Play, 8)
	errs := make(chan error, 1)
	if n == 1 {
		if !s.silentDrop {
			errs <- fmt.Errorf("connection reset")
		}
		close(plays)
		close(errs)
		return plays, errs
	}
	for _, p := range testPlays("NYA202404020", 2) {
		plays <- p
	}
	return plays, errs
}

func (s *scriptedStream) stats() (reads, reconnects int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads, s.reconnects
}

func waitForPlays(t *testing.T, store *fakePlayStore, gid string, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		plays, err := store.PlaysByGame(context.Background(), gid)
		if err != nil {
			t.Fatalf("PlaysByGame: %v", err)
		}
		if len(plays) >= want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d plays", want)
}

func TestCollectorResumesAfterFeedError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream := &scriptedStream{}
	store := newFakePlayStore()
	proc := NewPlayProcessor(nil, store, nopMetrics{}, "clickhouse", 10, time.Second)
	coll := NewPlayCollector(stream, proc, nopMetrics{}, nil)

	if err := coll.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// plays arrive only from the second Read, after the reconnect
	waitForPlays(t, store, "NYA202404020", 2)

	reads, reconnects := stream.stats()
	if reconnects == 0 {
		t.Fatalf("expected a reconnect after feed error")
	}
	if reads < 2 {
		t.Fatalf("expected a fresh Read after reconnect, got %d reads", reads)
	}
}

func TestCollectorResumesAfterSilentDrop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream := &scriptedStream{silentDrop: true}
	store := newFakePlayStore()
	proc := NewPlayProcessor(nil, store, nopMetrics{}, "clickhouse", 10, time.Second)
	coll := NewPlayCollector(stream, proc, nopMetrics{}, nil)

	if err := coll.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// both channels closed with no error still means the read loop is gone
	waitForPlays(t, store, "NYA202404020", 2)

	_, reconnects := stream.stats()
	if reconnects == 0 {
		t.Fatalf("expected a reconnect after channels closed")
	}
}

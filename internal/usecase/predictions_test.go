package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"skyline/internal/domain/models"
	"skyline/pkg/cache"
)

func samplePoints() []models.WinProbabilityPoint {
	return []models.WinProbabilityPoint{
		{HomeTeam: "ANA", Inning: "1", WinProbability: 50},
		{HomeTeam: "ANA", Inning: "1", WinProbability: 54.2},
		{HomeTeam: "ANA", Inning: "2", WinProbability: 48.9},
	}
}

func TestWinProbabilityFromHistory(t *testing.T) {
	store := newFakePredictionStore()
	store.points["g1"] = samplePoints()
	pred := &fakePredictor{}
	svc := NewPredictionService(nil, store, pred, nopMetrics{}, time.Minute)

	points, err := svc.WinProbability(context.Background(), "g1", 0)
	if err != nil {
		t.Fatalf("WinProbability: %v", err)
	}
	if len(points) != 3 {
		t.Fatalf("got %d points, want 3", len(points))
	}
	if pred.calls != 0 {
		t.Fatalf("model service called despite stored history")
	}
}

func TestWinProbabilityFetchesAndPersists(t *testing.T) {
	store := newFakePredictionStore()
	pred := &fakePredictor{points: samplePoints()}
	svc := NewPredictionService(nil, store, pred, nopMetrics{}, time.Minute)

	points, err := svc.WinProbability(context.Background(), "g1", 745804)
	if err != nil {
		t.Fatalf("WinProbability: %v", err)
	}
	// two same-inning points both survive: history appends, never overwrites
	if len(points) != 3 {
		t.Fatalf("got %d points, want 3", len(points))
	}
	if store.stores != 1 {
		t.Fatalf("persisted %d times, want 1", store.stores)
	}
	stored, _ := store.ByGame(context.Background(), "g1")
	if len(stored) != 3 {
		t.Fatalf("stored %d points, want 3", len(stored))
	}
}

func TestWinProbabilityCacheShortCircuits(t *testing.T) {
	store := newFakePredictionStore()
	pred := &fakePredictor{points: samplePoints()}
	mc := cache.NewMemoryCache()
	defer mc.Close()
	svc := NewPredictionService(mc, store, pred, nopMetrics{}, time.Minute)

	for i := 0; i < 3; i++ {
		if _, err := svc.WinProbability(context.Background(), "g1", 0); err != nil {
			t.Fatalf("WinProbability: %v", err)
		}
	}
	if pred.calls != 1 {
		t.Fatalf("model service called %d times, want 1", pred.calls)
	}
}

func TestWinProbabilityRequiresGID(t *testing.T) {
	svc := NewPredictionService(nil, newFakePredictionStore(), &fakePredictor{}, nopMetrics{}, time.Minute)
	if _, err := svc.WinProbability(context.Background(), "", 0); err == nil {
		t.Fatalf("expected error for empty gid")
	}
}

func TestWinProbabilityPredictorError(t *testing.T) {
	pred := &fakePredictor{err: fmt.Errorf("model unavailable")}
	svc := NewPredictionService(nil, newFakePredictionStore(), pred, nopMetrics{}, time.Minute)
	if _, err := svc.WinProbability(context.Background(), "g1", 0); err == nil {
		t.Fatalf("expected predictor error to surface")
	}
}

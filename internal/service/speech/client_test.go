package speech

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"skyline/pkg/config"
)

func newTestSynthesizer(url string) *HTTPSynthesizer {
	cfg := &config.Config{}
	cfg.Speech.ServiceURL = url
	cfg.Speech.Timeout = 2 * time.Second
	return NewHTTPSynthesizer(cfg)
}

func TestSynthesize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req synthesizeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Text != "Swing and a miss" {
			t.Errorf("unexpected text %q", req.Text)
		}
		_ = json.NewEncoder(w).Encode(synthesizeResponse{AudioURL: "https://audio.example/a.mp3"})
	}))
	defer srv.Close()

	s := newTestSynthesizer(srv.URL)
	url, err := s.Synthesize(context.Background(), "Swing and a miss")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if url != "https://audio.example/a.mp3" {
		t.Fatalf("unexpected url %q", url)
	}
}

func TestSynthesizeMissingURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(synthesizeResponse{})
	}))
	defer srv.Close()

	s := newTestSynthesizer(srv.URL)
	if _, err := s.Synthesize(context.Background(), "hello"); err == nil {
		t.Fatalf("expected error when audio url missing")
	}
}

func TestSynthesizeUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := newTestSynthesizer(srv.URL)
	if _, err := s.Synthesize(context.Background(), "hello"); err == nil {
		t.Fatalf("expected error on 500")
	}
}

package commentary

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"skyline/internal/domain/models"
	"skyline/pkg/config"
)

func testPlay() *models.Play {
	return &models.Play{
		GID: "ANA202404020", Inning: 3, Nump: 5,
		Event: "HR/78/F", Batter: "troum001", Pitcher: "colen001",
		BatHand: "R", PitHand: "R", HR: 12, K: 98, Outs: 1, OutsPost: 1,
		BR1Pre: true,
	}
}

func newTestGenerator(url string) *HTTPGenerator {
	cfg := &config.Config{}
	cfg.Commentary.ServiceURL = url
	cfg.Commentary.Model = "sky-1"
	cfg.Commentary.Timeout = 2 * time.Second
	return NewHTTPGenerator(cfg)
}

func TestDescribeCasual(t *testing.T) {
	var gotPrompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		gotPrompt = req.Prompt
		_ = json.NewEncoder(w).Encode(generateResponse{Text: "What a blast to center field!"})
	}))
	defer srv.Close()

	g := newTestGenerator(srv.URL)
	line, err := g.Describe(context.Background(), testPlay(), models.ModeCasual)
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if line != "What a blast to center field!" {
		t.Fatalf("unexpected line %q", line)
	}
	if !strings.Contains(gotPrompt, "casual fans") {
		t.Fatalf("expected casual prompt, got %q", gotPrompt)
	}
	if !strings.Contains(gotPrompt, "Runner on first") {
		t.Fatalf("expected bases state in prompt")
	}
}

func TestDescribeTechnical(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if !strings.Contains(req.Prompt, "technical fans") {
			t.Errorf("expected technical prompt, got %q", req.Prompt)
		}
		_ = json.NewEncoder(w).Encode(generateResponse{Text: "Elevated four-seamer, barreled."})
	}))
	defer srv.Close()

	g := newTestGenerator(srv.URL)
	if _, err := g.Describe(context.Background(), testPlay(), models.ModeTechnical); err != nil {
		t.Fatalf("Describe: %v", err)
	}
}

func TestDescribeEmptyGeneration(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(generateResponse{Text: "  "})
	}))
	defer srv.Close()

	g := newTestGenerator(srv.URL)
	if _, err := g.Describe(context.Background(), testPlay(), models.ModeCasual); err == nil {
		t.Fatalf("expected error on empty generation")
	}
}

func TestDescribeUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	g := newTestGenerator(srv.URL)
	if _, err := g.Describe(context.Background(), testPlay(), models.ModeCasual); err == nil {
		t.Fatalf("expected error on 503")
	}
}

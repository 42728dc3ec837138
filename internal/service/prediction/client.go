package prediction

import (
	"context"
	"fmt"
	"time"

	"skyline/internal/domain/models"
	drepo "skyline/internal/domain/repository"
	"skyline/pkg/config"
	xhttp "skyline/pkg/http"
)

// HTTPPredictor implements Predictor against the win-probability model
// service. This is the one outbound call that retries: a bounded number of
// attempts with a fixed delay, then the error stands.
type HTTPPredictor struct {
	baseURL  string
	client   *xhttp.Client
	attempts int
	delay    time.Duration
}

// NewHTTPPredictor builds the predictor client from config.
func NewHTTPPredictor(cfg *config.Config) *HTTPPredictor {
	attempts := cfg.Prediction.RetryAttempts
	if attempts <= 0 {
		attempts = 3
	}
	delay := cfg.Prediction.RetryDelay
	if delay <= 0 {
		delay = 2 * time.Second
	}
	return &HTTPPredictor{
		baseURL:  cfg.Prediction.ServiceURL,
		client:   xhttp.NewClient(xhttp.WithTimeout(cfg.Prediction.Timeout)),
		attempts: attempts,
		delay:    delay,
	}
}

type predictResponse struct {
	Predictions []models.WinProbabilityPoint `json:"predictions"`
}

// Predict fetches the win-probability curve for a game.
func (p *HTTPPredictor) Predict(ctx context.Context, gid string, gamePk int64) ([]models.WinProbabilityPoint, error) {
	if p.client == nil || p.baseURL == "" {
		return nil, fmt.Errorf("prediction http client not initialized")
	}

	opts := &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    p.baseURL + "/predict-win",
		QueryParams: map[string][]string{
			"gid": {gid},
		},
	}
	if gamePk != 0 {
		opts.QueryParams["statsapi_game_pk"] = []string{fmt.Sprintf("%d", gamePk)}
	}

	var err error
	for attempt := 1; attempt <= p.attempts; attempt++ {
		var resp predictResponse
		err = p.client.SendAndParse(ctx, opts, &resp)
		if err == nil {
			return resp.Predictions, nil
		}
		if attempt == p.attempts {
			break
		}
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, fmt.Errorf("predict %s after %d attempts: %w", gid, p.attempts, err)
}

var _ drepo.Predictor = (*HTTPPredictor)(nil)

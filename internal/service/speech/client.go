package speech

import (
	"context"
	"fmt"

	drepo "skyline/internal/domain/repository"
	"skyline/pkg/config"
	xhttp "skyline/pkg/http"
)

// HTTPSynthesizer implements SpeechSynthesizer against the remote
// text-to-speech service. No retry; playback errors are the caller's problem.
type HTTPSynthesizer struct {
	baseURL string
	client  *xhttp.Client
}

// NewHTTPSynthesizer builds the synthesizer client from config.
func NewHTTPSynthesizer(cfg *config.Config) *HTTPSynthesizer {
	return &HTTPSynthesizer{
		baseURL: cfg.Speech.ServiceURL,
		client:  xhttp.NewClient(xhttp.WithTimeout(cfg.Speech.Timeout)),
	}
}

type synthesizeRequest struct {
	Text string `json:"text"`
}

type synthesizeResponse struct {
	AudioURL string `json:"audioUrl"`
}

// Synthesize converts text to an audio URL.
func (s *HTTPSynthesizer) Synthesize(ctx context.Context, text string) (string, error) {
	if s.client == nil || s.baseURL == "" {
		return "", fmt.Errorf("speech http client not initialized")
	}
	var resp synthesizeResponse
	err := s.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    s.baseURL,
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
		Body: synthesizeRequest{Text: text},
	}, &resp)
	if err != nil {
		return "", fmt.Errorf("post speech: %w", err)
	}
	if resp.AudioURL == "" {
		return "", fmt.Errorf("speech service returned no audio url")
	}
	return resp.AudioURL, nil
}

var _ drepo.SpeechSynthesizer = (*HTTPSynthesizer)(nil)

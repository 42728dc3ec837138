package commentary

import (
	"context"
	"fmt"
	"strings"

	"skyline/internal/domain/models"
	drepo "skyline/internal/domain/repository"
	"skyline/pkg/config"
	xhttp "skyline/pkg/http"
)

// HTTPGenerator implements Commentator against the remote generation service.
// One POST per play; the service wraps the underlying language model.
type HTTPGenerator struct {
	baseURL string
	model   string
	client  *xhttp.Client
}

// NewHTTPGenerator builds the generator client from config.
func NewHTTPGenerator(cfg *config.Config) *HTTPGenerator {
	return &HTTPGenerator{
		baseURL: cfg.Commentary.ServiceURL,
		model:   cfg.Commentary.Model,
		client:  xhttp.NewClient(xhttp.WithTimeout(cfg.Commentary.Timeout)),
	}
}

type generateRequest struct {
	Model  string `json:"model,omitempty"`
	Prompt string `json:"prompt"`
}

type generateResponse struct {
	Text string `json:"text"`
}

// Describe produces one commentary line for the play in the given mode.
func (g *HTTPGenerator) Describe(ctx context.Context, p *models.Play, mode string) (string, error) {
	if g.client == nil || g.baseURL == "" {
		return "", fmt.Errorf("commentary http client not initialized")
	}
	var resp generateResponse
	err := g.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    g.baseURL + "/generate",
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
		Body: generateRequest{Model: g.model, Prompt: BuildPrompt(p, mode)},
	}, &resp)
	if err != nil {
		return "", fmt.Errorf("post generate: %w", err)
	}
	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", fmt.Errorf("empty generation for play %s/%d", p.GID, p.Nump)
	}
	return text, nil
}

// BuildPrompt renders the casual or technical prompt for a play. Technical
// prompts carry the full pitch/matchup context; casual prompts keep only the
// fan-friendly numbers.
func BuildPrompt(p *models.Play, mode string) string {
	if mode == models.ModeTechnical {
		return fmt.Sprintf(`Act as a baseball analyst and provide a detailed summary of the game for technical fans.
Include information about the pitch type, strategy considerations, batter-pitcher matchup,
and how the current game context influences decision-making. Use advanced terminology to
break down the pitch sequence, expected outcomes, and strategic intent.
Limit the response to one small paragraph.

Play: %s
Context:
Batter Stats:
	Batter - %s,
	Bat Hand - %s,
	Hits - %d,
	Home Runs - %d,
	RBIs - %d,
Pitcher Stats:
	Pitcher - %s,
	Pitch Hand - %s,
	Number of Pitches - %d,
	Strikeouts - %d,
	Earned Runs - %d,
Fielding Stats:
	Outs Before Play - %d,
	Outs After Play - %d,
	Errors - %d,
	Grounded into Double Play - %d`,
			p.Event,
			p.Batter, p.BatHand, p.Hits, p.HR, p.RBI,
			p.Pitcher, p.PitHand, p.Nump, p.K, p.ER,
			p.Outs, p.OutsPost, p.Errors, p.GDP)
	}

	doublePlay := "No"
	if p.GDP > 0 {
		doublePlay = "Yes"
	}
	return fmt.Sprintf(`Act as a baseball commentator and provide a play-by-play description of the baseball action.
Explain the baseball play in simple and engaging terms for casual fans.
Describe the action, the players involved, and the strategy in an easy-to-understand way.
Provide context for why this play matters in the game and make it exciting.
Limit the response to one small paragraph.

Play: %s
Context:
Batter:
	Name - %s,
	Hits - %d,
	Home Runs - %d,
Pitcher:
	Name - %s,
	Strikeouts - %d,
	Earned Runs Allowed - %d,
Fielding:
	Outs Made - %d,
	Errors on This Play - %d,
	Double Play Turned? - %s
	Bases - %s`,
		p.Event,
		p.Batter, p.Hits, p.HR,
		p.Pitcher, p.K, p.ER,
		p.OutsPost-p.Outs, p.Errors, doublePlay, p.BasesState())
}

var _ drepo.Commentator = (*HTTPGenerator)(nil)

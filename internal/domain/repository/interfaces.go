package repository

import (
	"context"
	"time"

	"skyline/internal/domain/models"
)

// FeedStream is the live play-by-play source (websocket upstream).
type FeedStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Play, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// Publisher forwards plays to the message backend.
type Publisher interface {
	Publish(ctx context.Context, p *models.Play) error
	PublishBatch(ctx context.Context, plays []*models.Play) error
	Close() error
}

// PlayStore persists and serves play-by-play and game records.
type PlayStore interface {
	Store(ctx context.Context, p *models.Play) error
	StoreBatch(ctx context.Context, plays []*models.Play) error
	PlaysByGame(ctx context.Context, gid string) ([]*models.Play, error)
	RecentGames(ctx context.Context, before time.Time, limit int) ([]*models.Game, error)
	Health(ctx context.Context) error
	Close() error
}

// PredictionStore persists and serves win-probability history.
type PredictionStore interface {
	Store(ctx context.Context, gid string, points []models.WinProbabilityPoint) error
	ByGame(ctx context.Context, gid string) ([]models.WinProbabilityPoint, error)
	Close() error
}

// SessionStore is the replay session registry keyed by (user_id, gid).
type SessionStore interface {
	Put(ctx context.Context, s *models.ReplaySession) error
	Get(ctx context.Context, userID, gid string) (*models.ReplaySession, error)
	SetState(ctx context.Context, userID, gid, state string) error
	SetCursor(ctx context.Context, userID, gid string, cursor int) error
	Delete(ctx context.Context, userID, gid string) error
	ActiveCount(ctx context.Context, userID string) (int, error)
}

// Commentator turns a play into a natural-language line in the given mode.
type Commentator interface {
	Describe(ctx context.Context, p *models.Play, mode string) (string, error)
}

// SpeechSynthesizer converts text to a playable audio URL.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text string) (string, error)
}

// Predictor computes the win-probability curve for a game.
type Predictor interface {
	Predict(ctx context.Context, gid string, gamePk int64) ([]models.WinProbabilityPoint, error)
}

// Metrics records operational counters.
type Metrics interface {
	RecordMessageSent(backend, gid string)
	RecordError(kind string)
	RecordStreamOpen(mode string)
	RecordStreamClose(mode string)
	RecordLatency(op string, seconds float64)
}

package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"skyline/internal/domain/models"
	drepo "skyline/internal/domain/repository"
	"skyline/internal/service/ratelimit"
)

// ErrTooManyReplays is returned when a user exceeds the concurrent replay cap.
var ErrTooManyReplays = fmt.Errorf("too many active replays")

// ErrSessionNotFound is returned when pause/resume addresses a session that
// does not exist.
var ErrSessionNotFound = fmt.Errorf("replay session not found")

// ReplayManager owns the server side of a replay: session registry, play
// cursor, and the commentary emission loop. Sessions are keyed by
// (user_id, gid); re-opening an existing session continues from its cursor
// instead of restarting the game.
type ReplayManager struct {
	plays       drepo.PlayStore
	sessions    drepo.SessionStore
	commentator drepo.Commentator
	metrics     drepo.Metrics
	limiter     *ratelimit.Limiter
	maxPerUser  int
}

func NewReplayManager(
	plays drepo.PlayStore,
	sessions drepo.SessionStore,
	commentator drepo.Commentator,
	metrics drepo.Metrics,
	maxPerUser int,
) *ReplayManager {
	if maxPerUser <= 0 {
		maxPerUser = 3
	}
	return &ReplayManager{
		plays:       plays,
		sessions:    sessions,
		commentator: commentator,
		metrics:     metrics,
		limiter:     ratelimit.New(),
		maxPerUser:  maxPerUser,
	}
}

// Open registers or re-activates the replay session for the request. The
// returned session carries the cursor the stream should continue from.
func (m *ReplayManager) Open(ctx context.Context, req *models.ReplayRequest) (*models.ReplaySession, error) {
	// a burst of starts from one user is a client bug, not a workload
	if !m.limiter.Allow("replay:"+req.UserID, 10, 1) {
		m.metrics.RecordError("replay_rate_limited")
		return nil, ErrTooManyReplays
	}

	sess, err := m.sessions.Get(ctx, req.UserID, req.GID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if sess == nil || sess.State == models.SessionClosed {
		active, err := m.sessions.ActiveCount(ctx, req.UserID)
		if err != nil {
			return nil, fmt.Errorf("count sessions: %w", err)
		}
		if active >= m.maxPerUser {
			m.metrics.RecordError("replay_session_cap")
			return nil, ErrTooManyReplays
		}
		sess = &models.ReplaySession{
			ID:        uuid.NewString(),
			GID:       req.GID,
			Mode:      req.Mode,
			UserID:    req.UserID,
			Interval:  req.Interval,
			Cursor:    0,
			StartedAt: time.Now(),
		}
	}
	sess.Mode = req.Mode
	sess.Interval = req.Interval
	sess.State = models.SessionRunning
	sess.UpdatedAt = time.Now()
	if err := m.sessions.Put(ctx, sess); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	m.metrics.RecordStreamOpen(sess.Mode)
	return sess, nil
}

// Stream emits commentary for the session's game, one line per interval,
// starting at the stored cursor. It returns when the plays run out, the
// session is paused or closed out of band, or ctx is cancelled. The first
// line is emitted immediately so the listener gets feedback before the first
// full interval elapses.
func (m *ReplayManager) Stream(ctx context.Context, sess *models.ReplaySession, emit func(text string) error) error {
	defer m.metrics.RecordStreamClose(sess.Mode)

	plays, err := m.plays.PlaysByGame(ctx, sess.GID)
	if err != nil {
		return fmt.Errorf("load plays %s: %w", sess.GID, err)
	}
	if len(plays) == 0 {
		return fmt.Errorf("no plays for game %s", sess.GID)
	}

	interval := time.Duration(sess.Interval) * time.Second
	for i := sess.Cursor; i < len(plays); i++ {
		if i > sess.Cursor {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(interval):
			}
		}

		// out-of-band pause/close wins over the ticker
		cur, err := m.sessions.Get(ctx, sess.UserID, sess.GID)
		if err == nil && cur != nil && cur.State != models.SessionRunning {
			return nil
		}

		start := time.Now()
		text, err := m.commentator.Describe(ctx, plays[i], sess.Mode)
		if err != nil {
			m.metrics.RecordError("commentary")
			text = fallbackLine(plays[i])
		}
		m.metrics.RecordLatency("commentary", time.Since(start).Seconds())

		if err := emit(text); err != nil {
			return err
		}
		sess.Cursor = i + 1
		if err := m.sessions.SetCursor(ctx, sess.UserID, sess.GID, sess.Cursor); err != nil {
			m.metrics.RecordError("session_cursor")
		}
	}

	// replay finished; the session is done for good
	if err := m.sessions.SetState(ctx, sess.UserID, sess.GID, models.SessionClosed); err != nil {
		m.metrics.RecordError("session_close")
	}
	return nil
}

// Pause marks the session paused. The live stream notices on its next tick.
func (m *ReplayManager) Pause(ctx context.Context, userID, gid string) error {
	sess, err := m.sessions.Get(ctx, userID, gid)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if sess == nil {
		return ErrSessionNotFound
	}
	return m.sessions.SetState(ctx, userID, gid, models.SessionPaused)
}

// Resume marks a paused session runnable again; the client then re-opens the
// stream and continues from the stored cursor.
func (m *ReplayManager) Resume(ctx context.Context, userID, gid string) error {
	sess, err := m.sessions.Get(ctx, userID, gid)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if sess == nil {
		return ErrSessionNotFound
	}
	return m.sessions.SetState(ctx, userID, gid, models.SessionRunning)
}

// Close marks the session closed and drops it from the registry.
func (m *ReplayManager) Close(ctx context.Context, userID, gid string) error {
	return m.sessions.Delete(ctx, userID, gid)
}

// fallbackLine is used when the commentary generator is unavailable so the
// replay keeps moving.
func fallbackLine(p *models.Play) string {
	half := "top"
	if p.TopBot == 1 {
		half = "bottom"
	}
	return fmt.Sprintf("%s of inning %d: %s facing %s, %s.", half, p.Inning, p.Batter, p.Pitcher, p.Event)
}

package models

import "time"

// Commentary modes accepted by the replay stream.
const (
	ModeCasual    = "casual"
	ModeTechnical = "technical"
)

// Replay session lifecycle states kept in the session registry.
const (
	SessionRunning = "running"
	SessionPaused  = "paused"
	SessionClosed  = "closed"
)

// ReplayRequest parameterizes one replay stream. The same shape is accepted
// as query parameters and as the POST body, body taking precedence.
type ReplayRequest struct {
	GID      string `json:"gid" query:"gid" validate:"required"`
	Mode     string `json:"mode" query:"mode" validate:"required,oneof=casual technical"`
	UserID   string `json:"user_id" query:"user_id" default:"guest"`
	Interval int    `json:"interval" query:"interval" default:"20" validate:"oneof=10 20 30"`
}

// ReplayControlRequest addresses an existing session for pause/resume.
type ReplayControlRequest struct {
	GID    string `json:"gid" query:"gid" validate:"required"`
	UserID string `json:"user_id" query:"user_id" default:"guest"`
}

// ReplaySession is the server-side record of one replay, keyed by
// (user_id, gid). Cursor is the index of the next play to emit; resume
// continues from it rather than restarting the replay.
type ReplaySession struct {
	ID        string    `json:"id"`
	GID       string    `json:"gid"`
	Mode      string    `json:"mode"`
	UserID    string    `json:"user_id"`
	Interval  int       `json:"interval"`
	State     string    `json:"state"`
	Cursor    int       `json:"cursor"`
	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ChatMessage is one streamed commentary line.
type ChatMessage struct {
	SessionID string    `json:"session_id"`
	Seq       int       `json:"seq"`
	Text      string    `json:"text"`
	EmittedAt time.Time `json:"emitted_at"`
}

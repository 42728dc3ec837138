// Package sse implements the replay-commentary stream consumer. A Client
// owns at most one live server-sent-events stream at a time and exposes an
// explicit lifecycle: Start, Pause, Resume, Close. There is no implicit
// reconnect; a broken stream surfaces one error and stays down until the
// caller starts it again.
package sse

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
)

// State is the lifecycle state of a Client.
type State int32

const (
	StateIdle State = iota
	StateConnecting
	StateStreaming
	StatePaused
	StateClosed
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateStreaming:
		return "streaming"
	case StatePaused:
		return "paused"
	case StateClosed:
		return "closed"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

var (
	// ErrClosed is returned by operations on a Client after Close.
	ErrClosed = errors.New("sse: client closed")
	// ErrNotStreaming is returned by Pause when no stream is live.
	ErrNotStreaming = errors.New("sse: not streaming")
	// ErrNotPaused is returned by Resume when the client is not paused.
	ErrNotPaused = errors.New("sse: not paused")
)

// Params identifies one replay stream. Validation happens before any
// connection attempt; an invalid set of params never dials.
type Params struct {
	GID      string
	Mode     string
	UserID   string
	Interval int
}

var validIntervals = map[int]bool{10: true, 20: true, 30: true}

func (p *Params) validate() error {
	if p.GID == "" {
		return fmt.Errorf("sse: missing gid")
	}
	if p.Mode != "casual" && p.Mode != "technical" {
		return fmt.Errorf("sse: invalid mode %q", p.Mode)
	}
	if p.UserID == "" {
		p.UserID = "guest"
	}
	if p.Interval == 0 {
		p.Interval = 20
	}
	if !validIntervals[p.Interval] {
		return fmt.Errorf("sse: invalid interval %d", p.Interval)
	}
	return nil
}

// stream is the transport side of one connection attempt. Cancelling its
// context tears the HTTP response down and unblocks the reader; done closes
// once the body is released.
type stream struct {
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu         sync.Mutex
	deliberate bool
}

func (s *stream) markDeliberate() {
	s.mu.Lock()
	s.deliberate = true
	s.mu.Unlock()
}

func (s *stream) isDeliberate() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deliberate
}

// Client consumes one replay stream at a time. The Messages and Errors
// channels live for the whole Client lifetime, so commentary received before
// a Pause stays readable after it.
type Client struct {
	endpoint string
	http     *http.Client

	mu     sync.Mutex
	state  State
	cur    *stream
	params Params

	messages chan string
	errs     chan error
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithBuffer sets the message channel capacity.
func WithBuffer(n int) Option {
	return func(c *Client) { c.messages = make(chan string, n) }
}

// NewClient builds a Client for the given replay endpoint,
// e.g. "http://host/game-replay".
func NewClient(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		http:     &http.Client{},
		state:    StateIdle,
		messages: make(chan string, 256),
		errs:     make(chan error, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Messages returns the ordered commentary channel. It is closed when the
// client closes or the server finishes the replay.
func (c *Client) Messages() <-chan string { return c.messages }

// Errors returns the stream error channel. A stream failure surfaces exactly
// one error here.
func (c *Client) Errors() <-chan error { return c.errs }

// State returns the current lifecycle state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Params returns the params from the last Start.
func (c *Client) Params() Params {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.params
}

// Start opens a replay stream. Any stream already live is closed first, so a
// Client never holds two connections. Invalid params fail before dialing.
func (c *Client) Start(ctx context.Context, p Params) error {
	if err := p.validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateClosed {
		return ErrClosed
	}
	c.params = p
	return c.dialLocked(ctx)
}

// Pause tears down the transport but keeps the session params and any
// already-received messages. The server keeps the session cursor.
func (c *Client) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case StateClosed:
		return ErrClosed
	case StateStreaming, StateConnecting:
	default:
		return ErrNotStreaming
	}
	c.stopCurrentLocked()
	c.state = StatePaused
	return nil
}

// Resume reopens the stream with the params from the last Start.
func (c *Client) Resume(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateClosed {
		return ErrClosed
	}
	if c.state != StatePaused {
		return ErrNotPaused
	}
	return c.dialLocked(ctx)
}

// Close tears down any live stream and makes the Client terminal. Safe to
// call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateClosed {
		return nil
	}
	c.stopCurrentLocked()
	c.state = StateClosed
	close(c.messages)
	close(c.errs)
	return nil
}

// stopCurrentLocked cancels the live stream, if any, and waits for its
// reader to release the connection before anything replaces it. The reader
// closes done without taking c.mu, so waiting here cannot deadlock.
func (c *Client) stopCurrentLocked() {
	if c.cur == nil {
		return
	}
	c.cur.markDeliberate()
	c.cur.cancel()
	<-c.cur.done
	c.cur = nil
}

func (c *Client) dialLocked(ctx context.Context) error {
	c.stopCurrentLocked()
	c.state = StateConnecting

	sctx, cancel := context.WithCancel(ctx)
	resp, err := c.open(sctx)
	if err != nil {
		cancel()
		c.state = StateErrored
		return err
	}

	s := &stream{ctx: sctx, cancel: cancel, done: make(chan struct{})}
	c.cur = s
	c.state = StateStreaming
	go c.read(s, resp.Body)
	return nil
}

// open issues the replay request: params both as query string and JSON body.
func (c *Client) open(ctx context.Context) (*http.Response, error) {
	q := url.Values{}
	q.Set("gid", c.params.GID)
	q.Set("mode", c.params.Mode)
	q.Set("user_id", c.params.UserID)
	q.Set("interval", strconv.Itoa(c.params.Interval))

	body, err := json.Marshal(map[string]any{
		"gid":      c.params.GID,
		"mode":     c.params.Mode,
		"user_id":  c.params.UserID,
		"interval": c.params.Interval,
	})
	if err != nil {
		return nil, fmt.Errorf("sse: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"?"+q.Encode(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("sse: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sse: connect: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, fmt.Errorf("sse: server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return resp, nil
}

// read consumes data frames until the stream ends. The body is released on
// every exit path, and done closes before any state finalization.
func (c *Client) read(s *stream, body io.ReadCloser) {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		text := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if text == "" {
			continue
		}
		select {
		case c.messages <- text:
		case <-s.ctx.Done():
			body.Close()
			close(s.done)
			return
		}
	}
	scanErr := scanner.Err()
	body.Close()
	close(s.done)

	if s.isDeliberate() {
		// Pause or Close initiated the teardown; state is already set.
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cur != s {
		// a newer stream replaced this one while it was winding down
		return
	}
	c.cur = nil
	if scanErr != nil {
		c.state = StateErrored
		select {
		case c.errs <- scanErr:
		default:
		}
		return
	}
	// clean EOF: the server finished the replay
	c.state = StateClosed
	close(c.messages)
	close(c.errs)
}

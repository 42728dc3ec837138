package sse

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

// replayServer is a scripted SSE endpoint. Each connection emits the
// configured frames, then either ends cleanly or drops the connection
// mid-response to simulate a transport failure.
type replayServer struct {
	frames    []string
	dropAfter bool
	perFrame  time.Duration

	dials   int32
	lastURL atomic.Value
	closed  chan struct{}
}

func newReplayServer(frames []string) *replayServer {
	return &replayServer{frames: frames, closed: make(chan struct{}, 8)}
}

func (rs *replayServer) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&rs.dials, 1)
		rs.lastURL.Store(r.URL.String())

		if rs.dropAfter {
			// advertise more bytes than we send so the client sees an
			// unexpected EOF instead of a clean stream end
			hj, ok := w.(http.Hijacker)
			if !ok {
				panic("test server must support hijacking")
			}
			conn, buf, err := hj.Hijack()
			if err != nil {
				panic(err)
			}
			defer conn.Close()
			fmt.Fprintf(buf, "HTTP/1.1 200 OK\r\nContent-Type: text/event-stream\r\nContent-Length: 1048576\r\n\r\n")
			for _, f := range rs.frames {
				fmt.Fprintf(buf, "data: %s\n\n", f)
			}
			buf.Flush()
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		fl := w.(http.Flusher)
		for _, f := range rs.frames {
			select {
			case <-r.Context().Done():
				rs.closed <- struct{}{}
				return
			case <-time.After(rs.perFrame):
			}
			fmt.Fprintf(w, "data: %s\n\n", f)
			fl.Flush()
		}
		select {
		case rs.closed <- struct{}{}:
		default:
		}
	}
}

func collect(t *testing.T, c *Client, n int) []string {
	t.Helper()
	var got []string
	deadline := time.After(5 * time.Second)
	for len(got) < n {
		select {
		case m, ok := <-c.Messages():
			if !ok {
				return got
			}
			got = append(got, m)
		case <-deadline:
			t.Fatalf("timed out waiting for %d messages, have %v", n, got)
		}
	}
	return got
}

func TestStartRejectsMissingParamsWithoutDialing(t *testing.T) {
	rs := newReplayServer(nil)
	srv := httptest.NewServer(rs.handler())
	defer srv.Close()

	c := NewClient(srv.URL)
	defer c.Close()

	cases := []Params{
		{Mode: "casual"},                                      // no gid
		{GID: "ANA202404020"},                                 // no mode
		{GID: "ANA202404020", Mode: "expert"},                 // bad mode
		{GID: "ANA202404020", Mode: "casual", Interval: 15},   // bad interval
	}
	for _, p := range cases {
		if err := c.Start(context.Background(), p); err == nil {
			t.Errorf("Start(%+v) succeeded, want validation error", p)
		}
	}
	if n := atomic.LoadInt32(&rs.dials); n != 0 {
		t.Fatalf("invalid params reached the server: %d dials", n)
	}
	if st := c.State(); st != StateIdle && st != StateErrored {
		t.Fatalf("unexpected state %v", st)
	}
}

func TestStreamDeliversInOrderThenErrors(t *testing.T) {
	rs := newReplayServer([]string{"A", "B", "C"})
	rs.dropAfter = true
	srv := httptest.NewServer(rs.handler())
	defer srv.Close()

	c := NewClient(srv.URL)
	defer c.Close()

	if err := c.Start(context.Background(), Params{GID: "ANA202404020", Mode: "casual"}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	got := collect(t, c, 3)
	for i, want := range []string{"A", "B", "C"} {
		if got[i] != want {
			t.Fatalf("message %d = %q, want %q", i, got[i], want)
		}
	}

	select {
	case err := <-c.Errors():
		if err == nil {
			t.Fatalf("nil error from Errors channel")
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("no error surfaced after dropped connection")
	}
	if st := c.State(); st != StateErrored {
		t.Fatalf("state = %v, want errored", st)
	}
}

func TestCleanEndClosesClient(t *testing.T) {
	rs := newReplayServer([]string{"done and dusted"})
	srv := httptest.NewServer(rs.handler())
	defer srv.Close()

	c := NewClient(srv.URL)
	if err := c.Start(context.Background(), Params{GID: "ANA202404020", Mode: "technical"}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	got := collect(t, c, 1)
	if got[0] != "done and dusted" {
		t.Fatalf("got %q", got[0])
	}
	// channel close marks the natural end of the replay
	select {
	case _, ok := <-c.Messages():
		if ok {
			t.Fatalf("unexpected extra message")
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("messages channel never closed")
	}
	if st := c.State(); st != StateClosed {
		t.Fatalf("state = %v, want closed", st)
	}
}

func TestPauseRetainsMessagesAndClosesTransport(t *testing.T) {
	rs := newReplayServer([]string{"first", "second", "never"})
	rs.perFrame = 50 * time.Millisecond
	srv := httptest.NewServer(rs.handler())
	defer srv.Close()

	c := NewClient(srv.URL)
	defer c.Close()

	if err := c.Start(context.Background(), Params{GID: "ANA202404020", Mode: "casual", Interval: 10}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	got := collect(t, c, 2)
	if err := c.Pause(); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if st := c.State(); st != StatePaused {
		t.Fatalf("state = %v, want paused", st)
	}

	// the server side must observe the disconnect
	select {
	case <-rs.closed:
	case <-time.After(5 * time.Second):
		t.Fatalf("server never saw the connection close")
	}

	// everything received before the pause is still there
	if got[0] != "first" || got[1] != "second" {
		t.Fatalf("retained messages = %v", got)
	}
	// and no error is reported for a deliberate pause
	select {
	case err := <-c.Errors():
		t.Fatalf("pause surfaced error: %v", err)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestResumeReopensWithSameParams(t *testing.T) {
	rs := newReplayServer([]string{"a", "b", "c", "d", "e", "f"})
	rs.perFrame = 30 * time.Millisecond
	srv := httptest.NewServer(rs.handler())
	defer srv.Close()

	c := NewClient(srv.URL)
	defer c.Close()

	p := Params{GID: "BOS202405110", Mode: "technical", UserID: "u42", Interval: 30}
	if err := c.Start(context.Background(), p); err != nil {
		t.Fatalf("Start: %v", err)
	}
	collect(t, c, 1)
	if err := c.Pause(); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	first := rs.lastURL.Load().(string)

	if err := c.Resume(context.Background()); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if st := c.State(); st != StateStreaming {
		t.Fatalf("state = %v, want streaming", st)
	}
	if n := atomic.LoadInt32(&rs.dials); n != 2 {
		t.Fatalf("dials = %d, want 2", n)
	}
	if second := rs.lastURL.Load().(string); second != first {
		t.Fatalf("resume used different params: %s vs %s", second, first)
	}
}

func TestStartWhileStreamingReplacesConnection(t *testing.T) {
	rs := newReplayServer([]string{"x", "y", "z"})
	rs.perFrame = 50 * time.Millisecond
	srv := httptest.NewServer(rs.handler())
	defer srv.Close()

	c := NewClient(srv.URL)
	defer c.Close()

	if err := c.Start(context.Background(), Params{GID: "g1", Mode: "casual"}); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	if err := c.Start(context.Background(), Params{GID: "g2", Mode: "casual"}); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	// the first connection is gone before the second is live
	select {
	case <-rs.closed:
	case <-time.After(5 * time.Second):
		t.Fatalf("old connection never closed")
	}
	if n := atomic.LoadInt32(&rs.dials); n != 2 {
		t.Fatalf("dials = %d, want 2", n)
	}
}

func TestCloseTearsDownAndIsTerminal(t *testing.T) {
	rs := newReplayServer([]string{"x", "y", "z"})
	rs.perFrame = 50 * time.Millisecond
	srv := httptest.NewServer(rs.handler())
	defer srv.Close()

	c := NewClient(srv.URL)
	if err := c.Start(context.Background(), Params{GID: "g1", Mode: "casual"}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	select {
	case <-rs.closed:
	case <-time.After(5 * time.Second):
		t.Fatalf("server never saw the teardown")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if err := c.Start(context.Background(), Params{GID: "g1", Mode: "casual"}); err != ErrClosed {
		t.Fatalf("Start after Close = %v, want ErrClosed", err)
	}
	if err := c.Resume(context.Background()); err != ErrClosed {
		t.Fatalf("Resume after Close = %v, want ErrClosed", err)
	}
}

func TestPauseWhenIdle(t *testing.T) {
	c := NewClient("http://127.0.0.1:0")
	defer c.Close()
	if err := c.Pause(); err != ErrNotStreaming {
		t.Fatalf("Pause = %v, want ErrNotStreaming", err)
	}
	if err := c.Resume(context.Background()); err != ErrNotPaused {
		t.Fatalf("Resume = %v, want ErrNotPaused", err)
	}
}

func TestDefaultsApplied(t *testing.T) {
	rs := newReplayServer([]string{"hi"})
	srv := httptest.NewServer(rs.handler())
	defer srv.Close()

	c := NewClient(srv.URL)
	defer c.Close()
	if err := c.Start(context.Background(), Params{GID: "g1", Mode: "casual"}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	p := c.Params()
	if p.UserID != "guest" {
		t.Errorf("UserID = %q, want guest", p.UserID)
	}
	if p.Interval != 20 {
		t.Errorf("Interval = %d, want 20", p.Interval)
	}
}

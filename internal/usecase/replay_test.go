package usecase

import (
	"context"
	"strings"
	"testing"

	"skyline/internal/domain/models"
)

func testManager(t *testing.T, gid string, n int) (*ReplayManager, *fakeSessionStore, *fakeCommentator) {
	t.Helper()
	plays := newFakePlayStore()
	plays.plays[gid] = testPlays(gid, n)
	sessions := newFakeSessionStore()
	gen := &fakeCommentator{}
	m := NewReplayManager(plays, sessions, gen, nopMetrics{}, 3)
	return m, sessions, gen
}

func openReq(gid string) *models.ReplayRequest {
	return &models.ReplayRequest{GID: gid, Mode: models.ModeCasual, UserID: "u1", Interval: 10}
}

func TestOpenCreatesSession(t *testing.T) {
	m, sessions, _ := testManager(t, "g1", 6)
	sess, err := m.Open(context.Background(), openReq("g1"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if sess.ID == "" {
		t.Fatalf("session id empty")
	}
	if sess.State != models.SessionRunning || sess.Cursor != 0 {
		t.Fatalf("unexpected session %+v", sess)
	}
	stored, _ := sessions.Get(context.Background(), "u1", "g1")
	if stored == nil || stored.ID != sess.ID {
		t.Fatalf("session not registered")
	}
}

func TestOpenReusesPausedSessionCursor(t *testing.T) {
	m, sessions, _ := testManager(t, "g1", 6)
	sess, err := m.Open(context.Background(), openReq("g1"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	_ = sessions.SetCursor(context.Background(), "u1", "g1", 4)
	_ = sessions.SetState(context.Background(), "u1", "g1", models.SessionPaused)

	again, err := m.Open(context.Background(), openReq("g1"))
	if err != nil {
		t.Fatalf("re-Open: %v", err)
	}
	if again.ID != sess.ID {
		t.Fatalf("expected same session, got new id")
	}
	if again.Cursor != 4 {
		t.Fatalf("cursor = %d, want 4", again.Cursor)
	}
	if again.State != models.SessionRunning {
		t.Fatalf("state = %s", again.State)
	}
}

func TestOpenEnforcesSessionCap(t *testing.T) {
	plays := newFakePlayStore()
	sessions := newFakeSessionStore()
	m := NewReplayManager(plays, sessions, &fakeCommentator{}, nopMetrics{}, 2)

	for _, gid := range []string{"g1", "g2"} {
		if _, err := m.Open(context.Background(), openReq(gid)); err != nil {
			t.Fatalf("Open %s: %v", gid, err)
		}
	}
	if _, err := m.Open(context.Background(), openReq("g3")); err != ErrTooManyReplays {
		t.Fatalf("Open over cap = %v, want ErrTooManyReplays", err)
	}
}

func TestStreamEmitsAllPlaysInOrder(t *testing.T) {
	m, sessions, _ := testManager(t, "g1", 4)
	sess, err := m.Open(context.Background(), openReq("g1"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	sess.Interval = 0 // no pacing in tests

	var got []string
	if err := m.Stream(context.Background(), sess, func(text string) error {
		got = append(got, text)
		return nil
	}); err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("emitted %d lines, want 4", len(got))
	}
	for i, line := range got {
		if !strings.Contains(line, "Play "+string(rune('0'+i))) {
			t.Fatalf("line %d out of order: %q", i, line)
		}
	}
	stored, _ := sessions.Get(context.Background(), "u1", "g1")
	if stored.State != models.SessionClosed {
		t.Fatalf("finished session state = %s, want closed", stored.State)
	}
	if stored.Cursor != 4 {
		t.Fatalf("cursor = %d, want 4", stored.Cursor)
	}
}

func TestStreamStopsWhenPaused(t *testing.T) {
	m, sessions, _ := testManager(t, "g1", 5)
	sess, err := m.Open(context.Background(), openReq("g1"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	sess.Interval = 0

	var count int
	err = m.Stream(context.Background(), sess, func(string) error {
		count++
		if count == 2 {
			if err := m.Pause(context.Background(), "u1", "g1"); err != nil {
				t.Fatalf("Pause: %v", err)
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if count != 2 {
		t.Fatalf("emitted %d lines after pause, want 2", count)
	}
	stored, _ := sessions.Get(context.Background(), "u1", "g1")
	if stored.State != models.SessionPaused {
		t.Fatalf("state = %s, want paused", stored.State)
	}
	if stored.Cursor != 2 {
		t.Fatalf("cursor = %d, want 2", stored.Cursor)
	}
}

func TestStreamResumesFromCursor(t *testing.T) {
	m, _, _ := testManager(t, "g1", 5)
	sess, err := m.Open(context.Background(), openReq("g1"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	sess.Interval = 0

	var first int
	_ = m.Stream(context.Background(), sess, func(string) error {
		first++
		if first == 2 {
			_ = m.Pause(context.Background(), "u1", "g1")
		}
		return nil
	})

	if err := m.Resume(context.Background(), "u1", "g1"); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	again, err := m.Open(context.Background(), openReq("g1"))
	if err != nil {
		t.Fatalf("re-Open: %v", err)
	}
	again.Interval = 0

	var rest []string
	if err := m.Stream(context.Background(), again, func(text string) error {
		rest = append(rest, text)
		return nil
	}); err != nil {
		t.Fatalf("second Stream: %v", err)
	}
	if first+len(rest) != 5 {
		t.Fatalf("total emitted = %d, want 5", first+len(rest))
	}
	if !strings.Contains(rest[0], "Play 2") {
		t.Fatalf("resume did not continue from cursor: %q", rest[0])
	}
}

func TestStreamFallsBackWhenGeneratorDown(t *testing.T) {
	m, _, gen := testManager(t, "g1", 2)
	gen.fail = true
	sess, err := m.Open(context.Background(), openReq("g1"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	sess.Interval = 0

	var got []string
	if err := m.Stream(context.Background(), sess, func(text string) error {
		got = append(got, text)
		return nil
	}); err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("emitted %d lines, want 2", len(got))
	}
	if !strings.Contains(got[0], "Batter 0") || !strings.Contains(got[0], "inning 1") {
		t.Fatalf("fallback line = %q", got[0])
	}
}

func TestStreamNoPlays(t *testing.T) {
	m, _, _ := testManager(t, "g1", 0)
	sess, err := m.Open(context.Background(), openReq("g1"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := m.Stream(context.Background(), sess, func(string) error { return nil }); err == nil {
		t.Fatalf("expected error for game without plays")
	}
}

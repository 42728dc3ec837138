package ratelimit

import "testing"

func TestAllowDrainsBucket(t *testing.T) {
	l := New()
	for i := 0; i < 3; i++ {
		if !l.Allow("u1", 3, 0) {
			t.Fatalf("request %d should pass", i)
		}
	}
	if l.Allow("u1", 3, 0) {
		t.Fatal("bucket should be empty")
	}
}

func TestAllowKeysAreIndependent(t *testing.T) {
	l := New()
	if !l.Allow("u1", 1, 0) {
		t.Fatal("first u1 request should pass")
	}
	if l.Allow("u1", 1, 0) {
		t.Fatal("second u1 request should be limited")
	}
	if !l.Allow("u2", 1, 0) {
		t.Fatal("u2 should have its own bucket")
	}
}

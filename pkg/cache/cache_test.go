package cache

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
)

type scoreboard struct {
	GID  string `json:"gid"`
	Runs int    `json:"runs"`
}

func newTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	host, portStr, err := net.SplitHostPort(mr.Addr())
	if err != nil {
		t.Fatalf("split addr: %v", err)
	}
	port, _ := strconv.Atoi(portStr)

	rc, err := NewRedisCache(WithRedisHost(host), WithRedisPort(port), WithRedisPrefix("test"))
	if err != nil {
		t.Fatalf("NewRedisCache: %v", err)
	}
	return rc, mr
}

func TestMemoryCacheTypedRoundTrip(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	want := []scoreboard{{GID: "ANA202404020", Runs: 5}, {GID: "BOS202404030", Runs: 2}}
	if err := mc.Set(ctx, "boards", want, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	var got []scoreboard
	if err := mc.Get(ctx, "boards", &got); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got) != 2 || got[0].GID != "ANA202404020" || got[1].Runs != 2 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestMemoryCacheMiss(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()

	var out string
	if err := mc.Get(context.Background(), "absent", &out); err != ErrCacheMiss {
		t.Fatalf("expected ErrCacheMiss, got %v", err)
	}
}

func TestMemoryCacheEvictsOldest(t *testing.T) {
	mc := NewMemoryCache(WithMemoryMaxSize(2))
	defer mc.Close()
	ctx := context.Background()

	_ = mc.Set(ctx, "a", "1", time.Minute)
	_ = mc.Set(ctx, "b", "2", time.Minute)
	_ = mc.Set(ctx, "c", "3", time.Minute)

	var out string
	if err := mc.Get(ctx, "a", &out); err != ErrCacheMiss {
		t.Fatalf("expected oldest key evicted, got %v", err)
	}
	if err := mc.Get(ctx, "c", &out); err != nil || out != "3" {
		t.Fatalf("newest key lost: %v %q", err, out)
	}
}

func TestLayeredServesFromMemoryAfterWrite(t *testing.T) {
	rc, mr := newTestRedis(t)
	lc := NewLayeredCache(rc, WithLayeredMemorySize(16))
	defer lc.Close()
	ctx := context.Background()

	want := scoreboard{GID: "ANA202404020", Runs: 7}
	if err := lc.Set(ctx, "board", want, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	// drop the Redis copy; the memory layer should still answer
	mr.FlushAll()

	var got scoreboard
	if err := lc.Get(ctx, "board", &got); err != nil {
		t.Fatalf("Get after redis flush: %v", err)
	}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestLayeredFallsThroughToRedis(t *testing.T) {
	rc, _ := newTestRedis(t)
	ctx := context.Background()

	// seed Redis only, through a separate client so L1 stays cold
	if err := rc.Set(ctx, "board", scoreboard{GID: "BOS202404030", Runs: 3}, time.Minute); err != nil {
		t.Fatalf("seed redis: %v", err)
	}

	lc := NewLayeredCache(rc)
	defer lc.Close()

	var got scoreboard
	if err := lc.Get(ctx, "board", &got); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Runs != 3 {
		t.Fatalf("unexpected value: %+v", got)
	}
}

func TestKeyHelpers(t *testing.T) {
	if k := Key("predict", "ANA202404020"); k != "predict:ANA202404020" {
		t.Fatalf("Key = %q", k)
	}
	if k := KeyWith("replay", "u1", "g1", 3); k != "replay:u1:g1:3" {
		t.Fatalf("KeyWith = %q", k)
	}
}

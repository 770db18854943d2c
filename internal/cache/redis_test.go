package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestRedisRoundTripAndExpiry(t *testing.T) {
	server := miniredis.RunT(t)
	backend := NewRedis(RedisConfig{Addr: server.Addr(), Prefix: "pawmatch:"})
	defer backend.Close()

	ctx := context.Background()
	if err := backend.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}

	if err := backend.Set(ctx, "detail:1", []byte(`{"id":"1"}`), time.Hour); err != nil {
		t.Fatalf("set: %v", err)
	}

	if !server.Exists("pawmatch:detail:1") {
		t.Fatalf("expected prefixed key in redis")
	}

	value, found, err := backend.Get(ctx, "detail:1")
	if err != nil || !found || string(value) != `{"id":"1"}` {
		t.Fatalf("expected hit, got %q %v %v", value, found, err)
	}

	server.FastForward(time.Hour + time.Second)

	if _, found, err := backend.Get(ctx, "detail:1"); err != nil || found {
		t.Fatalf("expected miss after expiry, got found=%v err=%v", found, err)
	}
}

func TestRedisUnavailableReturnsError(t *testing.T) {
	server := miniredis.RunT(t)
	backend := NewRedis(RedisConfig{Addr: server.Addr()})
	defer backend.Close()

	server.Close()

	if _, _, err := backend.Get(context.Background(), "search:x"); err == nil {
		t.Fatalf("expected error when redis is down")
	}
}

package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryTTLExpiry(t *testing.T) {
	ctx := context.Background()
	written := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	now := written

	m := NewMemory()
	m.now = func() time.Time { return now }

	if err := m.Set(ctx, "search:abc", []byte("payload"), 3600*time.Second); err != nil {
		t.Fatalf("set: %v", err)
	}

	now = written.Add(3599 * time.Second)
	value, found, err := m.Get(ctx, "search:abc")
	if err != nil || !found || string(value) != "payload" {
		t.Fatalf("expected hit before expiry, got %q %v %v", value, found, err)
	}

	now = written.Add(3601 * time.Second)
	_, found, err = m.Get(ctx, "search:abc")
	if err != nil || found {
		t.Fatalf("expected miss after expiry, got found=%v err=%v", found, err)
	}

	if m.Len() != 0 {
		t.Fatalf("expected expired entry to be evicted, got %d entries", m.Len())
	}
}

func TestMemoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	original := []byte("abc")
	if err := m.Set(ctx, "k", original, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	original[0] = 'x'

	value, _, _ := m.Get(ctx, "k")
	if string(value) != "abc" {
		t.Fatalf("expected stored value to be isolated, got %q", value)
	}
}

func TestMemoryIgnoresNonPositiveTTL(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if err := m.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, found, _ := m.Get(ctx, "k"); found {
		t.Fatalf("expected zero TTL entries to be skipped")
	}
}

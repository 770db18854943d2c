// Package cache stores serialized directory results under deterministic keys.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/spigell/pawmatch/internal/pets"
)

// EntryType separates the key spaces of search results and candidate details.
type EntryType string

const (
	EntrySearch EntryType = "search"
	EntryDetail EntryType = "detail"
)

// Backend is a key-value store with per-entry TTL.
// Get reports found=false for absent and expired entries; err is reserved for backend failures.
type Backend interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// DeriveKey hashes a canonical payload into "{type}:{hex-digest}".
func DeriveKey(entryType EntryType, canonical string) string {
	sum := sha256.Sum256([]byte(canonical))
	return string(entryType) + ":" + hex.EncodeToString(sum[:])
}

// SearchKey returns the key for a query. Equivalent queries share a key.
func SearchKey(q pets.Query) string {
	return DeriveKey(EntrySearch, q.Canonical())
}

// DetailKey returns the key for a single candidate.
func DetailKey(id string) string {
	return DeriveKey(EntryDetail, strings.TrimSpace(id))
}

// Nop is a backend that never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (Nop) Set(context.Context, string, []byte, time.Duration) error { return nil }

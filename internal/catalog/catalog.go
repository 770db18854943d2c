// Package catalog serves candidate searches and lookups through a cache-aside layer over the directory.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spigell/pawmatch/internal/cache"
	"github.com/spigell/pawmatch/internal/logger"
	"github.com/spigell/pawmatch/internal/metrics"
	"github.com/spigell/pawmatch/internal/pets"
	"go.uber.org/zap"
)

const (
	DefaultSearchTTL = time.Hour
	DefaultDetailTTL = time.Hour
)

// Directory is the source of truth for candidates.
type Directory interface {
	Search(ctx context.Context, q pets.Query) (*pets.Candidates, error)
	Get(ctx context.Context, id string) (*pets.Candidate, error)
}

// IdentityMismatchError is returned when the directory answers a lookup with a different candidate.
type IdentityMismatchError struct {
	Requested string
	Returned  string
}

func (e *IdentityMismatchError) Error() string {
	return fmt.Sprintf("directory returned candidate %q for requested id %q", e.Returned, e.Requested)
}

// ErrIdentityMismatch matches any *IdentityMismatchError via errors.Is.
var ErrIdentityMismatch = errors.New("candidate identity mismatch")

func (e *IdentityMismatchError) Is(target error) bool {
	return target == ErrIdentityMismatch
}

// Catalog reads through the cache backend and populates it on miss.
type Catalog struct {
	directory Directory
	backend   cache.Backend
	searchTTL time.Duration
	detailTTL time.Duration
	timeout   time.Duration
	logger    *zap.Logger
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithTTLs overrides the per-type TTLs. Non-positive values keep the defaults.
func WithTTLs(search, detail time.Duration) Option {
	return func(c *Catalog) {
		if search > 0 {
			c.searchTTL = search
		}
		if detail > 0 {
			c.detailTTL = detail
		}
	}
}

// WithDirectoryTimeout bounds each directory call independently of the caller's deadline.
func WithDirectoryTimeout(timeout time.Duration) Option {
	return func(c *Catalog) {
		c.timeout = timeout
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Catalog) {
		c.logger = logger.WithFields(l)
	}
}

// New builds a catalog. A nil backend disables caching.
func New(directory Directory, backend cache.Backend, opts ...Option) *Catalog {
	if backend == nil {
		backend = cache.Nop{}
	}

	c := &Catalog{
		directory: directory,
		backend:   backend,
		searchTTL: DefaultSearchTTL,
		detailTTL: DefaultDetailTTL,
		logger:    zap.NewNop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Search returns candidates for the query, from cache when possible.
func (c *Catalog) Search(ctx context.Context, q pets.Query) (*pets.Candidates, error) {
	key := cache.SearchKey(q)

	var cached pets.Candidates
	if c.lookup(ctx, cache.EntrySearch, key, &cached) {
		return &cached, nil
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	result, err := c.directory.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	if result == nil {
		result = &pets.Candidates{}
	}

	c.store(ctx, key, result, c.searchTTL)
	return result, nil
}

// GetByID returns the candidate with the given id, from cache when possible.
func (c *Catalog) GetByID(ctx context.Context, id string) (*pets.Candidate, error) {
	id = strings.TrimSpace(id)
	key := cache.DetailKey(id)

	var cached pets.Candidate
	if c.lookup(ctx, cache.EntryDetail, key, &cached) && cached.ID == id {
		return &cached, nil
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	candidate, err := c.directory.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if candidate == nil || candidate.ID != id {
		mismatch := &IdentityMismatchError{Requested: id}
		if candidate != nil {
			mismatch.Returned = candidate.ID
		}
		c.logger.Error("directory returned a different candidate than requested",
			zap.String("requested_id", mismatch.Requested),
			zap.String("returned_id", mismatch.Returned),
		)
		return nil, mismatch
	}

	c.store(ctx, key, candidate, c.detailTTL)
	return candidate, nil
}

// lookup decodes a cached entry into target. Backend failures and corrupt entries count as misses.
func (c *Catalog) lookup(ctx context.Context, entryType cache.EntryType, key string, target any) bool {
	value, found, err := c.backend.Get(ctx, key)
	if err != nil {
		metrics.RecordCacheLookup(string(entryType), "error")
		c.logger.Warn("cache read failed, calling directory", zap.String("key", key), zap.Error(err))
		return false
	}
	if !found {
		metrics.RecordCacheLookup(string(entryType), "miss")
		return false
	}

	if err := json.Unmarshal(value, target); err != nil {
		metrics.RecordCacheLookup(string(entryType), "error")
		c.logger.Warn("cache entry is not decodable, calling directory", zap.String("key", key), zap.Error(err))
		return false
	}

	metrics.RecordCacheLookup(string(entryType), "hit")
	return true
}

func (c *Catalog) store(ctx context.Context, key string, value any, ttl time.Duration) {
	payload, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("encoding cache entry", zap.String("key", key), zap.Error(err))
		return
	}

	if err := c.backend.Set(ctx, key, payload, ttl); err != nil {
		c.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *Catalog) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

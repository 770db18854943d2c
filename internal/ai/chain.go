package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/spigell/pawmatch/internal/metrics"
	"go.uber.org/zap"
)

// Chain asks the primary resolver first and falls back on any error, timeout or invalid result.
// Each call picks its path independently.
type Chain struct {
	primary  Resolver
	fallback Resolver
	timeout  time.Duration
	logger   *zap.Logger
}

// NewChain builds a chain. A nil primary always uses the fallback.
func NewChain(primary, fallback Resolver, timeout time.Duration, logger *zap.Logger) *Chain {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chain{primary: primary, fallback: fallback, timeout: timeout, logger: logger}
}

func (c *Chain) Resolve(ctx context.Context, utterance string, history []Turn) (*Resolution, error) {
	if c.primary != nil {
		res, err := c.resolvePrimary(ctx, utterance, history)
		if err == nil {
			metrics.RecordResolverPath("primary")
			return res, nil
		}

		metrics.RecordResolverPath("fallback")
		c.logger.Warn("primary resolver failed, using keyword fallback", zap.Error(fmt.Errorf("%w: %w", ErrDegraded, err)))
	} else {
		metrics.RecordResolverPath("fallback")
	}

	return c.fallback.Resolve(ctx, utterance, history)
}

func (c *Chain) resolvePrimary(ctx context.Context, utterance string, history []Turn) (*Resolution, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	res, err := c.primary.Resolve(ctx, utterance, history)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, fmt.Errorf("empty resolution")
	}
	if _, ok := ParseIntent(string(res.Intent)); !ok {
		return nil, fmt.Errorf("intent %q is not in the intent set", res.Intent)
	}
	if res.Entities == nil {
		res.Entities = map[string]string{}
	}
	return res, nil
}

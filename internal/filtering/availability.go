package filtering

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/pawmatch/internal/pets"
)

type availabilityFilter struct {
	toggle
}

// NewAvailability creates a filter that removes candidates which are no longer adoptable.
// Candidates without a status are kept.
func NewAvailability() Filter {
	return &availabilityFilter{}
}

func (f *availabilityFilter) Name() string { return "availability" }

func (f *availabilityFilter) Validate(*Config) error { return nil }

func (f *availabilityFilter) Apply(_ context.Context, deps Deps, c *pets.Candidates) (*pets.Candidates, Step, error) {
	initial := c.Len()
	dropped := c.Retain(func(candidate *pets.Candidate) bool {
		status := strings.ToLower(strings.TrimSpace(candidate.Status))
		return status == "" || status == pets.StatusAdoptable
	})

	if deps.Logger != nil && len(dropped) > 0 {
		deps.Logger.Debug("excluding candidates that are not adoptable",
			zap.Strings("excluded_candidates", dropped),
			zap.Int("candidates_left", c.Len()),
		)
	}

	return c, Step{Initial: initial, Dropped: len(dropped), Left: c.Len()}, nil
}

func (f *availabilityFilter) Status() Status {
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason}
}

package filtering

import (
	"context"

	"go.uber.org/zap"

	"github.com/spigell/pawmatch/internal/pets"
)

type speciesFilter struct {
	toggle
	species string
}

// NewSpecies creates a filter that keeps only candidates of the requested species.
// It passes everything through when no species was requested.
func NewSpecies() Filter {
	return &speciesFilter{}
}

func (f *speciesFilter) Name() string { return "species" }

func (f *speciesFilter) Validate(cfg *Config) error {
	f.species = ""
	if cfg != nil {
		f.species = pets.NormalizeSpecies(cfg.Species)
	}
	return nil
}

func (f *speciesFilter) Apply(_ context.Context, deps Deps, c *pets.Candidates) (*pets.Candidates, Step, error) {
	initial := c.Len()
	if f.species == "" {
		return c, Step{Initial: initial, Dropped: 0, Left: c.Len()}, nil
	}

	dropped := c.Retain(func(candidate *pets.Candidate) bool {
		return pets.NormalizeSpecies(candidate.Species) == f.species
	})
	if deps.Logger != nil && len(dropped) > 0 {
		deps.Logger.Debug("excluding candidates of other species",
			zap.String("species", f.species),
			zap.Strings("excluded_candidates", dropped),
			zap.Int("candidates_left", c.Len()),
		)
	}

	return c, Step{Initial: initial, Dropped: len(dropped), Left: c.Len()}, nil
}

func (f *speciesFilter) Status() Status {
	details := map[string]string{}
	if f.species != "" {
		details["species"] = f.species
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}

package filtering

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/pawmatch/internal/pets"
)

type organizationsFilter struct {
	toggle
	static        []string
	organizations []string
}

// NewOrganizations creates a filter that removes candidates listed by the given organizations.
// Organizations from the request config are added to the static list.
func NewOrganizations(organizations []string) Filter {
	return &organizationsFilter{static: organizations}
}

func (f *organizationsFilter) Name() string { return "organizations" }

func (f *organizationsFilter) Validate(cfg *Config) error {
	f.organizations = append([]string(nil), f.static...)
	if cfg == nil {
		return nil
	}
	for _, org := range cfg.ExcludedOrganizations {
		if org = strings.TrimSpace(org); org != "" {
			f.organizations = append(f.organizations, org)
		}
	}
	return nil
}

func (f *organizationsFilter) Apply(_ context.Context, deps Deps, c *pets.Candidates) (*pets.Candidates, Step, error) {
	initial := c.Len()
	if len(f.organizations) == 0 {
		return c, Step{Initial: initial, Dropped: 0, Left: c.Len()}, nil
	}

	excluded := c.Exclude(pets.CandidateOrganizationIDField, f.organizations)
	if deps.Logger != nil && len(excluded) > 0 {
		deps.Logger.Debug("excluding candidates by organizations",
			zap.Strings("excluded_organizations", f.organizations),
			zap.Strings("excluded_candidates", excluded),
			zap.Int("candidates_left", c.Len()),
		)
	}

	return c, Step{Initial: initial, Dropped: len(excluded), Left: c.Len()}, nil
}

func (f *organizationsFilter) Status() Status {
	organizations := f.organizations
	if organizations == nil {
		organizations = f.static
	}
	details := map[string]string{}
	if len(organizations) > 0 {
		details["organizations"] = strings.Join(organizations, ",")
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}

package filtering

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"go.uber.org/zap"

	"github.com/spigell/pawmatch/internal/pets"
)

func candidates() *pets.Candidates {
	return &pets.Candidates{Items: []*pets.Candidate{
		{ID: "1", Species: "Dog", Status: "adoptable", Organization: pets.Organization{ID: "TX01"}},
		{ID: "2", Species: "Cat", Status: "adoptable", Organization: pets.Organization{ID: "TX02"}},
		{ID: "3", Species: "Dog", Status: "adopted", Organization: pets.Organization{ID: "TX01"}},
		{ID: "4", Species: "Dog", Organization: pets.Organization{ID: "tx02"}},
		{ID: "5", Species: "Rabbit", Status: "adoptable", Organization: pets.Organization{ID: "TX03"}},
	}}
}

func TestRunDefaultPipeline(t *testing.T) {
	cases := []struct {
		name string
		cfg  *Config
		orgs []string
		want []string
	}{
		{name: "availability only", cfg: &Config{}, want: []string{"1", "2", "4", "5"}},
		{name: "species", cfg: &Config{Species: "dogs"}, want: []string{"1", "4"}},
		{name: "static organizations", cfg: &Config{}, orgs: []string{"TX02"}, want: []string{"1", "5"}},
		{name: "request organizations", cfg: &Config{Species: "dog", ExcludedOrganizations: []string{"tx01"}}, want: []string{"4"}},
		{name: "nil config", cfg: nil, want: []string{"1", "2", "4", "5"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Run(context.Background(), tc.cfg, Deps{Logger: zap.NewNop()}, Default(tc.orgs), candidates())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got.IDs(), tc.want) {
				t.Fatalf("unexpected candidates: got %v, want %v", got.IDs(), tc.want)
			}
		})
	}
}

func TestOrganizationsFilterDoesNotAccumulate(t *testing.T) {
	steps := []Filter{NewOrganizations([]string{"TX03"})}

	if _, err := Run(context.Background(), &Config{ExcludedOrganizations: []string{"TX01"}}, Deps{}, steps, candidates()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := Run(context.Background(), &Config{}, Deps{}, steps, candidates())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []string{"1", "2", "3", "4"}; !reflect.DeepEqual(got.IDs(), want) {
		t.Fatalf("unexpected candidates: got %v, want %v", got.IDs(), want)
	}
}

func TestDisableByNameSkipsFilter(t *testing.T) {
	steps := Default(nil)
	if !DisableByName(steps, "availability", "include adopted") {
		t.Fatalf("expected availability filter to match")
	}
	if DisableByName(steps, "breed", "unknown") {
		t.Fatalf("expected no match for an unknown filter")
	}

	got, err := Run(context.Background(), &Config{Species: "dog"}, Deps{}, steps, candidates())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []string{"1", "3", "4"}; !reflect.DeepEqual(got.IDs(), want) {
		t.Fatalf("unexpected candidates: got %v, want %v", got.IDs(), want)
	}

	statuses := Describe(steps)
	if statuses[0].Enabled || statuses[0].Reason != "include adopted" {
		t.Fatalf("unexpected status: %+v", statuses[0])
	}
}

func TestDescribeReportsStaticOrganizations(t *testing.T) {
	statuses := Describe(Default([]string{"TX01", "TX02"}))

	if len(statuses) != 3 || statuses[1].Name != "organizations" {
		t.Fatalf("unexpected statuses: %+v", statuses)
	}
	if got := statuses[1].Details["organizations"]; got != "TX01,TX02" {
		t.Fatalf("expected static organizations before a run, got %q", got)
	}
}

type failingFilter struct {
	toggle
	validateErr error
	applyErr    error
}

func (f *failingFilter) Name() string { return "failing" }

func (f *failingFilter) Validate(*Config) error { return f.validateErr }

func (f *failingFilter) Apply(_ context.Context, _ Deps, c *pets.Candidates) (*pets.Candidates, Step, error) {
	return c, Step{}, f.applyErr
}

func TestRunPropagatesErrors(t *testing.T) {
	boom := errors.New("boom")

	if _, err := Run(context.Background(), nil, Deps{}, []Filter{&failingFilter{validateErr: boom}}, candidates()); !errors.Is(err, boom) {
		t.Fatalf("expected validate error, got %v", err)
	}
	if _, err := Run(context.Background(), nil, Deps{}, []Filter{&failingFilter{applyErr: boom}}, candidates()); !errors.Is(err, boom) {
		t.Fatalf("expected apply error, got %v", err)
	}
}

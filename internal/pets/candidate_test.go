package pets

import (
	"testing"
	"time"
)

func TestCandidatesExcludeKeepsOrder(t *testing.T) {
	c := &Candidates{Items: []*Candidate{
		{ID: "1", Organization: Organization{ID: "WA01"}},
		{ID: "2", Organization: Organization{ID: "WA02"}},
		{ID: "3", Organization: Organization{ID: "wa01"}},
		{ID: "4", Organization: Organization{ID: "WA03"}},
	}}

	dropped := c.Exclude(CandidateOrganizationIDField, []string{"WA01"})

	if len(dropped) != 2 || dropped[0] != "1" || dropped[1] != "3" {
		t.Fatalf("unexpected dropped ids: %v", dropped)
	}

	ids := c.IDs()
	if len(ids) != 2 || ids[0] != "2" || ids[1] != "4" {
		t.Fatalf("unexpected remaining ids: %v", ids)
	}
}

func TestCandidateDaysListed(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		published time.Time
		expect    int
	}{
		{name: "unknown", expect: 0},
		{name: "in the future", published: now.Add(time.Hour), expect: 0},
		{name: "ninety days", published: now.AddDate(0, 0, -90), expect: 90},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Candidate{PublishedAt: tt.published}
			if got := c.DaysListed(now); got != tt.expect {
				t.Fatalf("expected %d, got %d", tt.expect, got)
			}
		})
	}
}

func TestVocabularyIndexes(t *testing.T) {
	if idx, ok := AgeBandIndex("Kitten"); !ok || idx != 0 {
		t.Fatalf("expected kitten to map to the first age band, got %d %v", idx, ok)
	}
	if idx, ok := SizeIndex("Extra Large"); !ok || idx != 3 {
		t.Fatalf("expected extra large to map to the last size, got %d %v", idx, ok)
	}
	if _, ok := EnergyIndex("sleepy"); ok {
		t.Fatalf("expected unknown energy level")
	}
}

func TestBreedLabel(t *testing.T) {
	tests := []struct {
		candidate Candidate
		expect    string
	}{
		{candidate: Candidate{}, expect: "unknown breed"},
		{candidate: Candidate{Breed: "Labrador Retriever", MixedBreed: true}, expect: "Labrador Retriever mix"},
		{candidate: Candidate{Breed: "Beagle", SecondaryBreed: "Basset Hound"}, expect: "Beagle / Basset Hound"},
	}

	for _, tt := range tests {
		if got := tt.candidate.BreedLabel(); got != tt.expect {
			t.Fatalf("expected %q, got %q", tt.expect, got)
		}
	}
}

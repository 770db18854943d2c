package keyword

import (
	"context"
	"testing"
	"time"

	"github.com/spigell/pawmatch/internal/ai"
)

func newTestResolver() *Resolver {
	r := New()
	r.now = func() time.Time { return time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC) }
	return r
}

func TestResolveIntents(t *testing.T) {
	cases := []struct {
		utterance string
		want      ai.Intent
	}{
		{utterance: "Can you find me a dog?", want: ai.IntentSearchPets},
		{utterance: "I am looking for a kitten", want: ai.IntentSearchPets},
		{utterance: "I'd love to adopt", want: ai.IntentAdoptPet},
		{utterance: "Could I foster for a few weeks?", want: ai.IntentFosterPet},
		{utterance: "What would you recommend for me?", want: ai.IntentGetRecommendations},
		{utterance: "I want to meet Buddy on Saturday", want: ai.IntentScheduleVisit},
		{utterance: "How do I apply?", want: ai.IntentSubmitApplication},
		{utterance: "Tell me about beagles", want: ai.IntentBreedInfo},
		{utterance: "How often should I groom a poodle?", want: ai.IntentCareInfo},
		{utterance: "Hi there", want: ai.IntentGreeting},
		{utterance: "help", want: ai.IntentHelp},
		{utterance: "this is nothing in particular", want: ai.IntentGeneralQuery},
		{utterance: "", want: ai.IntentGeneralQuery},
	}

	r := newTestResolver()
	for _, tc := range cases {
		t.Run(tc.utterance, func(t *testing.T) {
			res, err := r.Resolve(context.Background(), tc.utterance, nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Intent != tc.want {
				t.Fatalf("Resolve(%q) intent = %s, want %s", tc.utterance, res.Intent, tc.want)
			}
			if res.Source != Source {
				t.Fatalf("unexpected source: %s", res.Source)
			}
		})
	}
}

func TestResolveFirstRuleWins(t *testing.T) {
	res, _ := newTestResolver().Resolve(context.Background(), "help me find a cat to adopt", nil)
	if res.Intent != ai.IntentSearchPets {
		t.Fatalf("expected search_pets to win, got %s", res.Intent)
	}
}

func TestResolveGeneralQueryHasLowConfidence(t *testing.T) {
	res, _ := newTestResolver().Resolve(context.Background(), "bananas", nil)
	if res.Confidence >= matchedConfidence {
		t.Fatalf("expected low confidence, got %v", res.Confidence)
	}
	if len(res.Entities) != 0 {
		t.Fatalf("expected no entities, got %+v", res.Entities)
	}
}

func TestResolveEntities(t *testing.T) {
	cases := []struct {
		name      string
		utterance string
		want      map[string]string
	}{
		{
			name:      "search vocabulary",
			utterance: "find a small senior dog in Austin, TX",
			want:      map[string]string{"species": "dog", "size": "small", "age_band": "senior", "location": "Austin, TX"},
		},
		{
			name:      "puppy",
			utterance: "show me puppies near 78701",
			want:      map[string]string{"species": "dog", "location": "78701"},
		},
		{
			name:      "visit date and time",
			utterance: "schedule a visit with pet 12345 on 2026-03-20 at 3pm",
			want:      map[string]string{"candidate_id": "12345", "date": "2026-03-20", "time": "15:00"},
		},
		{
			name:      "us date and clock",
			utterance: "can we meet on 3/21/2026 at 10:30",
			want:      map[string]string{"date": "2026-03-21", "time": "10:30"},
		},
		{
			name:      "relative date",
			utterance: "visit tomorrow at 12:15 pm",
			want:      map[string]string{"date": "2026-03-15", "time": "12:15"},
		},
		{
			name:      "invalid date",
			utterance: "visit on 2026-02-30",
			want:      map[string]string{},
		},
		{
			name:      "lifestyle",
			utterance: "I live in an apartment with no yard, I'm a first-time owner and pretty calm, and I have kids and I have a cat",
			want: map[string]string{
				"housing_type":     "apartment",
				"has_yard":         "false",
				"experience_level": "first_time",
				"activity_level":   "low",
				"has_children":     "true",
				"has_cats":         "true",
				"species":          "cat",
			},
		},
		{
			name:      "yard",
			utterance: "we have a house with a big backyard and I love hiking",
			want:      map[string]string{"housing_type": "house", "has_yard": "true", "activity_level": "high", "size": "large"},
		},
	}

	r := newTestResolver()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, _ := r.Resolve(context.Background(), tc.utterance, nil)
			for key, want := range tc.want {
				if got := res.Entities[key]; got != want {
					t.Fatalf("entity %s = %q, want %q (all: %+v)", key, got, want, res.Entities)
				}
			}
			for key := range res.Entities {
				if _, ok := tc.want[key]; !ok {
					t.Fatalf("unexpected entity %s=%q", key, res.Entities[key])
				}
			}
		})
	}
}

// Package ai classifies free-text turns into intents and entities.
package ai

import (
	"context"
	"errors"
	"strings"
)

// Intent is one of the fixed conversational intents.
type Intent string

const (
	IntentSearchPets         Intent = "search_pets"
	IntentAdoptPet           Intent = "adopt_pet"
	IntentFosterPet          Intent = "foster_pet"
	IntentGetRecommendations Intent = "get_recommendations"
	IntentScheduleVisit      Intent = "schedule_visit"
	IntentSubmitApplication  Intent = "submit_application"
	IntentBreedInfo          Intent = "breed_info"
	IntentCareInfo           Intent = "care_info"
	IntentGreeting           Intent = "greeting"
	IntentHelp               Intent = "help"
	IntentGeneralQuery       Intent = "general_query"
)

var intents = []Intent{
	IntentSearchPets,
	IntentAdoptPet,
	IntentFosterPet,
	IntentGetRecommendations,
	IntentScheduleVisit,
	IntentSubmitApplication,
	IntentBreedInfo,
	IntentCareInfo,
	IntentGreeting,
	IntentHelp,
	IntentGeneralQuery,
}

// Intents returns the enumerated intent set.
func Intents() []Intent {
	return append([]Intent(nil), intents...)
}

// ParseIntent matches s against the intent set, case-insensitively.
func ParseIntent(s string) (Intent, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, intent := range intents {
		if string(intent) == s {
			return intent, true
		}
	}
	return "", false
}

// Entity names extracted from utterances. They double as session parameter names.
const (
	EntitySpecies     = "species"
	EntitySize        = "size"
	EntityAgeBand     = "age_band"
	EntityLocation    = "location"
	EntityDate        = "date"
	EntityTime        = "time"
	EntityCandidateID = "candidate_id"
	EntityHousing     = "housing_type"
	EntityActivity    = "activity_level"
	EntityExperience  = "experience_level"
	EntityHasYard     = "has_yard"
	EntityHasChildren = "has_children"
	EntityHasDogs     = "has_dogs"
	EntityHasCats     = "has_cats"
)

var entityNames = []string{
	EntitySpecies, EntitySize, EntityAgeBand, EntityLocation, EntityDate, EntityTime,
	EntityCandidateID, EntityHousing, EntityActivity, EntityExperience,
	EntityHasYard, EntityHasChildren, EntityHasDogs, EntityHasCats,
}

// EntityNames returns every entity the resolvers may extract.
func EntityNames() []string {
	return append([]string(nil), entityNames...)
}

// IsEntity reports whether name is a recognized entity.
func IsEntity(name string) bool {
	for _, entity := range entityNames {
		if entity == name {
			return true
		}
	}
	return false
}

// Speaker roles in conversation history.
const (
	RoleUser  = "user"
	RoleAgent = "agent"
)

// Turn is a single utterance of conversation history.
type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Resolution is the shared output of every resolver.
type Resolution struct {
	Intent     Intent            `json:"intent"`
	Entities   map[string]string `json:"entities"`
	Confidence float64           `json:"confidence"`
	Rationale  string            `json:"rationale"`
	// Source names the resolver that produced the result.
	Source string `json:"source"`
	Raw    string `json:"-"`
}

// Resolver turns an utterance plus recent history into a Resolution.
type Resolver interface {
	Resolve(ctx context.Context, utterance string, history []Turn) (*Resolution, error)
}

// ErrDegraded marks a primary resolver failure that was answered by the fallback.
var ErrDegraded = errors.New("resolver degraded")

// LastTurns returns at most n trailing turns.
func LastTurns(history []Turn, n int) []Turn {
	if n <= 0 {
		return nil
	}
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}

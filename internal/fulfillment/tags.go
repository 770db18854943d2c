package fulfillment

import (
	"strings"

	"github.com/spigell/pawmatch/internal/ai"
	"github.com/spigell/pawmatch/internal/session"
)

// Tag routes a fulfillment request to its handler.
type Tag string

const (
	TagSearchCandidates    Tag = "search-candidates"
	TagValidateCandidateID Tag = "validate-candidate-id"
	TagGetRecommendations  Tag = "get-recommendations"
	TagScheduleVisit       Tag = "schedule-visit"
	TagSubmitApplication   Tag = "submit-application"
	TagUnknown             Tag = "unknown"
)

var tags = []Tag{
	TagSearchCandidates,
	TagValidateCandidateID,
	TagGetRecommendations,
	TagScheduleVisit,
	TagSubmitApplication,
}

// ParseTag maps s to a known tag. Anything else is TagUnknown.
func ParseTag(s string) Tag {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, tag := range tags {
		if string(tag) == s {
			return tag
		}
	}
	return TagUnknown
}

// requirement is a parameter that must be present before a handler runs.
type requirement struct {
	param   string
	aliases []string
	prompt  string
}

func (r requirement) satisfied(params session.Params) bool {
	if params.Has(r.param) {
		return true
	}
	for _, alias := range r.aliases {
		if params.Has(alias) {
			return true
		}
	}
	return false
}

var (
	needLocation = requirement{
		param:  session.ParamLocation,
		prompt: "I need to know your location to find pets near you. What's your ZIP code or city?",
	}
	needCandidate = requirement{
		param:   session.ParamCandidateID,
		aliases: []string{session.ParamValidatedID},
		prompt:  "Which pet are you interested in? Please provide the pet's ID.",
	}
	needDate = requirement{
		param:  session.ParamDate,
		prompt: "What date would you like to visit? Please use a format like 2026-05-30.",
	}
	needTime = requirement{
		param:  session.ParamTime,
		prompt: "What time works for you? Please use a format like 14:30.",
	}
)

// requirements lists, in prompt order, what each tag needs.
var requirements = map[Tag][]requirement{
	TagSearchCandidates: {needLocation},
	TagValidateCandidateID: {{
		param:  session.ParamCandidateID,
		prompt: "I need a pet ID to look up. Could you provide the pet's ID number?",
	}},
	TagGetRecommendations: {needLocation},
	TagScheduleVisit:      {needCandidate, needDate, needTime},
	TagSubmitApplication:  {needCandidate},
}

// missing returns the first unmet requirement for tag.
func missing(tag Tag, params session.Params) (requirement, bool) {
	for _, req := range requirements[tag] {
		if !req.satisfied(params) {
			return req, true
		}
	}
	return requirement{}, false
}

// tagForIntent picks the handler for a free-text turn without a tag.
func tagForIntent(intent ai.Intent) Tag {
	switch intent {
	case ai.IntentSearchPets, ai.IntentAdoptPet:
		return TagSearchCandidates
	case ai.IntentGetRecommendations:
		return TagGetRecommendations
	case ai.IntentScheduleVisit:
		return TagScheduleVisit
	case ai.IntentSubmitApplication:
		return TagSubmitApplication
	default:
		return TagUnknown
	}
}

// Package session keeps per-conversation parameters with additive merge semantics.
package session

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Parameter names understood by the service. Anything else is ignored on merge.
const (
	ParamSpecies        = "species"
	ParamLocation       = "location"
	ParamDistance       = "distance"
	ParamSize           = "size"
	ParamAgeBand        = "age_band"
	ParamHousing        = "housing_type"
	ParamHasYard        = "has_yard"
	ParamExperience     = "experience_level"
	ParamActivity       = "activity_level"
	ParamHasChildren    = "has_children"
	ParamHasDogs        = "has_dogs"
	ParamHasCats        = "has_cats"
	ParamSpecialNeedsOK = "special_needs_ok"
	ParamCandidateID    = "candidate_id"
	ParamValidatedID    = "validated_candidate_id"
	ParamCandidateName  = "candidate_name"
	ParamCandidateBreed = "candidate_breed"
	ParamCandidateAge   = "candidate_age"
	ParamCandidateSex   = "candidate_sex"
	ParamShelterName    = "shelter_name"
	ParamShelterCity    = "shelter_city"
	ParamShelterState   = "shelter_state"
	ParamDate           = "date"
	ParamTime           = "time"
	ParamResultsCount   = "search_results_count"
	ParamLastLocation   = "last_search_location"
	ParamRecommendedIDs = "recommended_candidate_ids"
	ParamVisitCandidate = "visit_candidate_id"
	ParamVisitDate      = "visit_date"
	ParamVisitTime      = "visit_time"
	ParamAppCandidate   = "application_candidate_id"
	ParamAppStatus      = "application_status"
	ParamApplicantName  = "applicant_name"
	ParamApplicantEmail = "applicant_email"
	ParamApplicantPhone = "applicant_phone"
	ParamLastIntent     = "last_intent"
)

var known = map[string]struct{}{}

func init() {
	for _, name := range []string{
		ParamSpecies, ParamLocation, ParamDistance, ParamSize, ParamAgeBand,
		ParamHousing, ParamHasYard, ParamExperience, ParamActivity,
		ParamHasChildren, ParamHasDogs, ParamHasCats, ParamSpecialNeedsOK,
		ParamCandidateID, ParamValidatedID, ParamCandidateName, ParamCandidateBreed,
		ParamCandidateAge, ParamCandidateSex, ParamShelterName, ParamShelterCity, ParamShelterState,
		ParamDate, ParamTime, ParamResultsCount, ParamLastLocation, ParamRecommendedIDs,
		ParamVisitCandidate, ParamVisitDate, ParamVisitTime, ParamAppCandidate, ParamAppStatus,
		ParamApplicantName, ParamApplicantEmail, ParamApplicantPhone, ParamLastIntent,
	} {
		known[name] = struct{}{}
	}
}

// Params maps parameter names to scalar or structured values.
type Params map[string]any

// IsKnown reports whether name is a recognized parameter.
func IsKnown(name string) bool {
	_, ok := known[name]
	return ok
}

// Known returns a copy of p without unrecognized or nil parameters.
func (p Params) Known() Params {
	out := make(Params, len(p))
	for key, value := range p {
		if value == nil || !IsKnown(key) {
			continue
		}
		out[key] = value
	}
	return out
}

// Merge overwrites keys present in patch and leaves the rest untouched.
func (p Params) Merge(patch Params) Params {
	out := make(Params, len(p)+len(patch))
	for key, value := range p {
		out[key] = value
	}
	for key, value := range patch {
		out[key] = value
	}
	return out
}

// Has reports whether name is set to a non-empty value.
func (p Params) Has(name string) bool {
	value, ok := p[name]
	if !ok || value == nil {
		return false
	}
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s) != ""
	}
	return true
}

// String returns the parameter rendered as a trimmed string.
func (p Params) String(name string) string {
	switch value := p[name].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(value)
	case float64:
		if value == float64(int64(value)) {
			return fmt.Sprintf("%d", int64(value))
		}
		return fmt.Sprintf("%g", value)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", value))
	}
}

// Profile is the typed adopter view of the session used for ranking.
type Profile struct {
	Species        string `mapstructure:"species"`
	Location       string `mapstructure:"location"`
	Size           string `mapstructure:"size"`
	AgeBand        string `mapstructure:"age_band"`
	Housing        string `mapstructure:"housing_type"`
	HasYard        *bool  `mapstructure:"has_yard"`
	Experience     string `mapstructure:"experience_level"`
	Activity       string `mapstructure:"activity_level"`
	HasChildren    *bool  `mapstructure:"has_children"`
	HasDogs        *bool  `mapstructure:"has_dogs"`
	HasCats        *bool  `mapstructure:"has_cats"`
	SpecialNeedsOK *bool  `mapstructure:"special_needs_ok"`
}

// Profile decodes the adopter profile, accepting yes/no style booleans.
func (p Params) Profile() (Profile, error) {
	var profile Profile
	cfg := &mapstructure.DecoderConfig{
		Result:           &profile,
		WeaklyTypedInput: true,
		DecodeHook:       yesNoHook,
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return profile, err
	}

	input := make(map[string]any, len(p))
	for key, value := range p {
		if value == nil {
			continue
		}
		input[key] = value
	}

	if err := decoder.Decode(input); err != nil {
		return profile, fmt.Errorf("decode profile: %w", err)
	}
	return profile, nil
}

func yesNoHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to.Kind() != reflect.Bool {
		return data, nil
	}
	s, ok := data.(string)
	if !ok {
		return data, nil
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "true", "1":
		return true, nil
	case "no", "n", "false", "0", "none":
		return false, nil
	default:
		return data, nil
	}
}

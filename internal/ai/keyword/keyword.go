// Package keyword resolves intents with ordered phrase rules. It never fails.
package keyword

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spigell/pawmatch/internal/ai"
	"github.com/spigell/pawmatch/internal/pets"
)

const (
	Source = "keyword"

	matchedConfidence  = 0.6
	fallbackConfidence = 0.2
)

type rule struct {
	intent  ai.Intent
	phrases []string
	pattern *regexp.Regexp
}

// Order matters: the first matching rule wins.
var rules = compileRules([]rule{
	{intent: ai.IntentSearchPets, phrases: []string{"search", "find", "look for", "looking for", "show me"}},
	{intent: ai.IntentAdoptPet, phrases: []string{"adopt", "adoption", "get a pet"}},
	{intent: ai.IntentFosterPet, phrases: []string{"foster", "fostering", "temporary"}},
	{intent: ai.IntentGetRecommendations, phrases: []string{"recommend", "recommendation", "recommendations", "suggest", "best match", "match me"}},
	{intent: ai.IntentScheduleVisit, phrases: []string{"visit", "meet", "schedule", "appointment"}},
	{intent: ai.IntentSubmitApplication, phrases: []string{"apply", "application"}},
	{intent: ai.IntentBreedInfo, phrases: []string{"breed", "breeds", "what is", "tell me about"}},
	{intent: ai.IntentCareInfo, phrases: []string{"care", "feed", "feeding", "groom", "grooming", "requirements"}},
	{intent: ai.IntentGreeting, phrases: []string{"hello", "hi", "hey", "greetings", "good morning", "good evening"}},
	{intent: ai.IntentHelp, phrases: []string{"help", "assist", "support", "what can you do"}},
})

func compileRules(in []rule) []rule {
	for i := range in {
		in[i].pattern = wordsPattern(in[i].phrases)
	}
	return in
}

// wordsPattern matches any phrase on word boundaries, preferring longer phrases.
func wordsPattern(phrases []string) *regexp.Regexp {
	sorted := append([]string(nil), phrases...)
	sort.Slice(sorted, func(i, j int) bool {
		if len(sorted[i]) != len(sorted[j]) {
			return len(sorted[i]) > len(sorted[j])
		}
		return sorted[i] < sorted[j]
	})

	quoted := make([]string, 0, len(sorted))
	for _, phrase := range sorted {
		quoted = append(quoted, strings.ReplaceAll(regexp.QuoteMeta(phrase), " ", `\s+`))
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

func keys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

var (
	speciesPattern = wordsPattern(keys(pets.SpeciesWords()))
	sizePattern    = wordsPattern(keys(pets.SizeWords()))
	agePattern     = wordsPattern(keys(pets.AgeWords()))

	housingPattern = wordsPattern(keys(housingWords))
	activityWords  = map[string]string{
		"active":      pets.EnergyHigh,
		"very active": pets.EnergyHigh,
		"run":         pets.EnergyHigh,
		"running":     pets.EnergyHigh,
		"runner":      pets.EnergyHigh,
		"hike":        pets.EnergyHigh,
		"hiking":      pets.EnergyHigh,
		"calm":        pets.EnergyLow,
		"relaxed":     pets.EnergyLow,
		"quiet":       pets.EnergyLow,
		"couch":       pets.EnergyLow,
		"moderate":    pets.EnergyModerate,
	}
	activityPattern = wordsPattern(keys(activityWords))

	experienceWords = map[string]string{
		"first time":         "first_time",
		"first-time":         "first_time",
		"never had":          "first_time",
		"never owned":        "first_time",
		"some experience":    "some",
		"had pets before":    "some",
		"experienced":        "experienced",
		"lots of experience": "experienced",
	}
	experiencePattern = wordsPattern(keys(experienceWords))

	noYardPattern    = regexp.MustCompile(`(?i)\b(?:no|without(?:\s+a)?|don'?t\s+have\s+a)\s+(?:back)?yard\b`)
	yardPattern      = regexp.MustCompile(`(?i)\b(?:back)?yard\b`)
	childrenPattern  = regexp.MustCompile(`(?i)\b(?:kids|children|child|toddler|toddlers|baby at home)\b`)
	otherDogsPattern = regexp.MustCompile(`(?i)\b(?:have|own|with)\s+(?:a\s+|another\s+|two\s+|\d+\s+)?dogs?\b`)
	otherCatsPattern = regexp.MustCompile(`(?i)\b(?:have|own|with)\s+(?:a\s+|another\s+|two\s+|\d+\s+)?cats?\b`)

	isoDatePattern   = regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`)
	usDatePattern    = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4})\b`)
	relativePattern  = regexp.MustCompile(`(?i)\b(today|tomorrow)\b`)
	clockPattern     = regexp.MustCompile(`\b([01]?\d|2[0-3]):([0-5]\d)\s*(?i:(am|pm))?\b`)
	meridiemPattern  = regexp.MustCompile(`(?i)\b(1[0-2]|0?[1-9])\s*(am|pm)\b`)
	candidatePattern = regexp.MustCompile(`(?i)(?:#|\b(?:id|pet|animal|number)\s*#?\s*)(\d{4,})\b`)
	zipPattern       = regexp.MustCompile(`(?i)\b(?:in|near|around|zip(?:\s*code)?)\s+(\d{5})\b`)
	placePattern     = regexp.MustCompile(`\b(?:in|near|around)\s+([A-Z][a-zA-Z]+(?:\s+[A-Z][a-zA-Z]+)*(?:,\s*[A-Z]{2})?)`)
)

var housingWords = map[string]string{
	"apartment": "apartment",
	"flat":      "apartment",
	"condo":     "apartment",
	"studio":    "apartment",
	"house":     "house",
	"home with": "house",
	"townhouse": "house",
	"farm":      "farm",
	"ranch":     "farm",
}

// Resolver is the deterministic fallback resolver.
type Resolver struct {
	now func() time.Time
}

func New() *Resolver {
	return &Resolver{now: time.Now}
}

// Resolve always returns a result.
func (r *Resolver) Resolve(_ context.Context, utterance string, _ []ai.Turn) (*ai.Resolution, error) {
	res := &ai.Resolution{
		Intent:     ai.IntentGeneralQuery,
		Entities:   r.extractEntities(utterance),
		Confidence: fallbackConfidence,
		Rationale:  "no keyword matched",
		Source:     Source,
	}

	for _, rl := range rules {
		if match := rl.pattern.FindString(utterance); match != "" {
			res.Intent = rl.intent
			res.Confidence = matchedConfidence
			res.Rationale = fmt.Sprintf("matched keyword %q", strings.ToLower(match))
			break
		}
	}

	return res, nil
}

func (r *Resolver) extractEntities(utterance string) map[string]string {
	entities := map[string]string{}

	set := func(name, value string) {
		if value != "" {
			entities[name] = value
		}
	}

	set(ai.EntitySpecies, pets.NormalizeSpecies(speciesPattern.FindString(utterance)))
	set(ai.EntitySize, pets.NormalizeSize(sizePattern.FindString(utterance)))
	set(ai.EntityAgeBand, pets.NormalizeAgeBand(agePattern.FindString(utterance)))
	set(ai.EntityHousing, lookup(housingWords, housingPattern.FindString(utterance)))
	set(ai.EntityActivity, lookup(activityWords, activityPattern.FindString(utterance)))
	set(ai.EntityExperience, lookup(experienceWords, experiencePattern.FindString(utterance)))
	set(ai.EntityLocation, location(utterance))
	set(ai.EntityDate, r.date(utterance))
	set(ai.EntityTime, clockTime(utterance))

	if match := candidatePattern.FindStringSubmatch(utterance); len(match) == 2 {
		set(ai.EntityCandidateID, match[1])
	}

	switch {
	case noYardPattern.MatchString(utterance):
		set(ai.EntityHasYard, "false")
	case yardPattern.MatchString(utterance):
		set(ai.EntityHasYard, "true")
	}
	if childrenPattern.MatchString(utterance) {
		set(ai.EntityHasChildren, "true")
	}
	if otherDogsPattern.MatchString(utterance) {
		set(ai.EntityHasDogs, "true")
	}
	if otherCatsPattern.MatchString(utterance) {
		set(ai.EntityHasCats, "true")
	}

	return entities
}

func lookup(words map[string]string, match string) string {
	if match == "" {
		return ""
	}
	key := strings.Join(strings.Fields(strings.ToLower(match)), " ")
	return words[key]
}

func location(utterance string) string {
	if match := placePattern.FindStringSubmatch(utterance); len(match) == 2 {
		return strings.TrimSpace(match[1])
	}
	if match := zipPattern.FindStringSubmatch(utterance); len(match) == 2 {
		return match[1]
	}
	return ""
}

func (r *Resolver) date(utterance string) string {
	if match := isoDatePattern.FindStringSubmatch(utterance); len(match) == 4 {
		return formatDate(match[1], match[2], match[3])
	}
	if match := usDatePattern.FindStringSubmatch(utterance); len(match) == 4 {
		return formatDate(match[3], match[1], match[2])
	}
	if match := relativePattern.FindString(utterance); match != "" {
		day := r.now()
		if strings.EqualFold(match, "tomorrow") {
			day = day.AddDate(0, 0, 1)
		}
		return day.Format("2006-01-02")
	}
	return ""
}

func formatDate(year, month, day string) string {
	y, _ := strconv.Atoi(year)
	m, _ := strconv.Atoi(month)
	d, _ := strconv.Atoi(day)

	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || int(t.Month()) != m || t.Day() != d {
		return ""
	}
	return t.Format("2006-01-02")
}

func clockTime(utterance string) string {
	if match := clockPattern.FindStringSubmatch(utterance); len(match) == 4 {
		hour, _ := strconv.Atoi(match[1])
		minute, _ := strconv.Atoi(match[2])
		return fmt.Sprintf("%02d:%02d", to24(hour, match[3]), minute)
	}
	if match := meridiemPattern.FindStringSubmatch(utterance); len(match) == 3 {
		hour, _ := strconv.Atoi(match[1])
		return fmt.Sprintf("%02d:00", to24(hour, match[2]))
	}
	return ""
}

func to24(hour int, meridiem string) int {
	switch strings.ToLower(meridiem) {
	case "am":
		if hour == 12 {
			return 0
		}
	case "pm":
		if hour < 12 {
			return hour + 12
		}
	}
	return hour
}

package pets

import "strings"

// Age bands in ascending order.
const (
	AgeBaby   = "baby"
	AgeYoung  = "young"
	AgeAdult  = "adult"
	AgeSenior = "senior"
)

// Sizes in ascending order.
const (
	SizeSmall  = "small"
	SizeMedium = "medium"
	SizeLarge  = "large"
	SizeXLarge = "xlarge"
)

// Energy levels in ascending order.
const (
	EnergyLow      = "low"
	EnergyModerate = "moderate"
	EnergyHigh     = "high"
)

var (
	ageBands = []string{AgeBaby, AgeYoung, AgeAdult, AgeSenior}
	sizes    = []string{SizeSmall, SizeMedium, SizeLarge, SizeXLarge}
	energies = []string{EnergyLow, EnergyModerate, EnergyHigh}

	ageAliases = map[string]string{
		"puppy":  AgeBaby,
		"kitten": AgeBaby,
		"baby":   AgeBaby,
		"young":  AgeYoung,
		"adult":  AgeAdult,
		"senior": AgeSenior,
		"old":    AgeSenior,
		"elder":  AgeSenior,
	}

	sizeAliases = map[string]string{
		"small":       SizeSmall,
		"tiny":        SizeSmall,
		"medium":      SizeMedium,
		"large":       SizeLarge,
		"big":         SizeLarge,
		"xlarge":      SizeXLarge,
		"x-large":     SizeXLarge,
		"extra large": SizeXLarge,
		"extra-large": SizeXLarge,
		"giant":       SizeXLarge,
	}

	energyAliases = map[string]string{
		"low":         EnergyLow,
		"calm":        EnergyLow,
		"moderate":    EnergyModerate,
		"medium":      EnergyModerate,
		"high":        EnergyHigh,
		"active":      EnergyHigh,
		"very active": EnergyHigh,
	}

	speciesAliases = map[string]string{
		"dog":     "dog",
		"dogs":    "dog",
		"puppy":   "dog",
		"puppies": "dog",
		"cat":     "cat",
		"cats":    "cat",
		"kitten":  "cat",
		"kittens": "cat",
		"rabbit":  "rabbit",
		"rabbits": "rabbit",
		"bunny":   "rabbit",
		"bird":    "bird",
		"birds":   "bird",
		"horse":   "horse",
		"horses":  "horse",
	}
)

func normalizeWith(aliases map[string]string, value string) string {
	key := strings.ToLower(strings.TrimSpace(value))
	if canonical, ok := aliases[key]; ok {
		return canonical
	}
	return key
}

func indexOf(values []string, value string) (int, bool) {
	for idx, v := range values {
		if v == value {
			return idx, true
		}
	}
	return 0, false
}

// NormalizeAgeBand maps directory and conversational age words onto the age band vocabulary.
func NormalizeAgeBand(value string) string { return normalizeWith(ageAliases, value) }

// NormalizeSize maps size words onto the size vocabulary.
func NormalizeSize(value string) string { return normalizeWith(sizeAliases, value) }

// NormalizeEnergy maps energy words onto the energy vocabulary.
func NormalizeEnergy(value string) string { return normalizeWith(energyAliases, value) }

// NormalizeSpecies lower-cases and singularizes common species names.
func NormalizeSpecies(value string) string { return normalizeWith(speciesAliases, value) }

// AgeBandIndex returns the ordinal of a normalized age band.
func AgeBandIndex(band string) (int, bool) { return indexOf(ageBands, NormalizeAgeBand(band)) }

// SizeIndex returns the ordinal of a normalized size.
func SizeIndex(size string) (int, bool) { return indexOf(sizes, NormalizeSize(size)) }

// EnergyIndex returns the ordinal of a normalized energy level.
func EnergyIndex(level string) (int, bool) { return indexOf(energies, NormalizeEnergy(level)) }

// AgeBands returns the age band vocabulary in ascending order.
func AgeBands() []string { return append([]string(nil), ageBands...) }

// Sizes returns the size vocabulary in ascending order.
func Sizes() []string { return append([]string(nil), sizes...) }

// SpeciesWords returns every recognized species word.
func SpeciesWords() map[string]string { return copyMap(speciesAliases) }

// AgeWords returns every recognized age word.
func AgeWords() map[string]string { return copyMap(ageAliases) }

// SizeWords returns every recognized size word.
func SizeWords() map[string]string { return copyMap(sizeAliases) }

func copyMap(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

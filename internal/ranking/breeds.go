package ranking

import (
	"strings"

	"github.com/spigell/pawmatch/internal/pets"
)

// breedEnergy holds breed-typical energy for listings without an explicit level.
var breedEnergy = map[string]string{
	"australian shepherd": pets.EnergyHigh,
	"border collie":       pets.EnergyHigh,
	"husky":               pets.EnergyHigh,
	"jack russell":        pets.EnergyHigh,
	"belgian malinois":    pets.EnergyHigh,
	"vizsla":              pets.EnergyHigh,
	"weimaraner":          pets.EnergyHigh,
	"dalmatian":           pets.EnergyHigh,
	"labrador":            pets.EnergyHigh,
	"german shepherd":     pets.EnergyHigh,
	"bengal":              pets.EnergyHigh,
	"abyssinian":          pets.EnergyHigh,
	"siamese":             pets.EnergyModerate,
	"golden retriever":    pets.EnergyModerate,
	"beagle":              pets.EnergyModerate,
	"poodle":              pets.EnergyModerate,
	"pit bull":            pets.EnergyModerate,
	"terrier":             pets.EnergyModerate,
	"domestic short hair": pets.EnergyModerate,
	"bulldog":             pets.EnergyLow,
	"basset hound":        pets.EnergyLow,
	"greyhound":           pets.EnergyLow,
	"shih tzu":            pets.EnergyLow,
	"cavalier":            pets.EnergyLow,
	"pug":                 pets.EnergyLow,
	"persian":             pets.EnergyLow,
	"ragdoll":             pets.EnergyLow,
	"british shorthair":   pets.EnergyLow,
}

// candidateEnergy returns the listed energy level or infers one from the breed.
func candidateEnergy(c *pets.Candidate) string {
	if energy := pets.NormalizeEnergy(c.Attributes.EnergyLevel); energy != "" {
		if _, ok := pets.EnergyIndex(energy); ok {
			return energy
		}
	}

	breed := strings.ToLower(c.Breed + " " + c.SecondaryBreed)
	best := ""
	for name := range breedEnergy {
		if !strings.Contains(breed, name) {
			continue
		}
		if len(name) > len(best) || (len(name) == len(best) && name < best) {
			best = name
		}
	}
	if best == "" {
		return ""
	}
	return breedEnergy[best]
}

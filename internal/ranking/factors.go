package ranking

import (
	"math"
	"strings"
	"time"

	"github.com/spigell/pawmatch/internal/pets"
	"github.com/spigell/pawmatch/internal/session"
)

const neutral = 0.5

// Experience levels stored in the session.
const (
	ExperienceFirstTime   = "first_time"
	ExperienceSome        = "some"
	ExperienceExperienced = "experienced"
)

func experienceIndex(level string) (int, bool) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case ExperienceFirstTime, "first-time", "none", "beginner":
		return 0, true
	case ExperienceSome, "some_experience", "intermediate":
		return 1, true
	case ExperienceExperienced, "expert":
		return 2, true
	default:
		return 0, false
	}
}

// checks averages individual compatibility checks into one sub-score.
type checks struct {
	sum    float64
	count  int
	labels []string
}

func (c *checks) add(score float64, label string) {
	c.sum += score
	c.count++
	if label != "" {
		c.labels = append(c.labels, label)
	}
}

func (c *checks) result(available bool) subScore {
	if !available {
		return subScore{}
	}
	if c.count == 0 {
		return subScore{value: neutral, available: true}
	}
	return subScore{value: c.sum / float64(c.count), available: true, labels: c.labels}
}

// lifestyle compares housing, yard and activity against the candidate's size and energy.
func lifestyle(p session.Profile, c *pets.Candidate) subScore {
	var ch checks
	size, sizeKnown := pets.SizeIndex(c.Size)
	large, _ := pets.SizeIndex(pets.SizeLarge)

	housing := strings.ToLower(strings.TrimSpace(p.Housing))
	if housing == "apartment" && sizeKnown {
		if size < large {
			ch.add(1.0, "apartment-friendly size")
		} else {
			ch.add(0.3, "")
		}
	}

	if p.HasYard != nil && sizeKnown && size >= large {
		if *p.HasYard {
			ch.add(1.0, "room to run")
		} else {
			ch.add(0.5, "")
		}
	}

	activity := strings.TrimSpace(p.Activity)
	if activity != "" {
		want, wantKnown := pets.EnergyIndex(activity)
		energy := candidateEnergy(c)
		have, haveKnown := pets.EnergyIndex(energy)

		switch {
		case !wantKnown || !haveKnown:
			ch.add(neutral, "")
		default:
			diff := int(math.Abs(float64(want - have)))
			switch diff {
			case 0:
				ch.add(1.0, energy+"-energy")
			case 1:
				ch.add(0.6, "")
			default:
				ch.add(0.3, "")
			}
		}
	}

	available := housing != "" || p.HasYard != nil || activity != ""
	return ch.result(available)
}

// personality compares household and experience against known candidate temperament.
// Unknown temperament scores neutral.
func personality(p session.Profile, c *pets.Candidate) subScore {
	var ch checks

	compat := func(has *bool, good *bool, label string) {
		if has == nil || !*has {
			return
		}
		switch {
		case good == nil:
			ch.add(neutral, "")
		case *good:
			ch.add(1.0, label)
		default:
			ch.add(0.0, "")
		}
	}

	compat(p.HasChildren, c.Attributes.GoodWithChildren, "good with children")
	compat(p.HasDogs, c.Attributes.GoodWithDogs, "good with dogs")
	compat(p.HasCats, c.Attributes.GoodWithCats, "good with cats")

	if experience, ok := experienceIndex(p.Experience); ok {
		energy, _ := pets.EnergyIndex(candidateEnergy(c))
		high, _ := pets.EnergyIndex(pets.EnergyHigh)

		switch {
		case c.Attributes.SpecialNeeds:
			ch.add([]float64{0.2, 0.5, 1.0}[experience], "")
		case candidateEnergy(c) != "" && energy == high:
			if experience >= 1 {
				ch.add(1.0, "")
			} else {
				ch.add(0.6, "")
			}
		case experience == 0:
			ch.add(1.0, "beginner-friendly")
		default:
			ch.add(1.0, "")
		}
	}

	if p.SpecialNeedsOK != nil && c.Attributes.SpecialNeeds {
		if *p.SpecialNeedsOK {
			ch.add(1.0, "special needs welcome")
		} else {
			ch.add(0.2, "")
		}
	}

	if c.Attributes.HouseTrained && ch.count > 0 {
		ch.labels = append(ch.labels, "house-trained")
	}

	available := p.HasChildren != nil || p.HasDogs != nil || p.HasCats != nil ||
		strings.TrimSpace(p.Experience) != "" || p.SpecialNeedsOK != nil
	return ch.result(available)
}

// constraints scores closeness to the requested species, size and age band.
func constraints(p session.Profile, c *pets.Candidate) subScore {
	var ch checks

	if species := pets.NormalizeSpecies(p.Species); species != "" {
		if pets.NormalizeSpecies(c.Species) == species {
			ch.add(1.0, species)
		} else {
			ch.add(0.0, "")
		}
	}

	proximity := func(want, have string, index func(string) (int, bool), label string) {
		if strings.TrimSpace(want) == "" {
			return
		}
		w, wantKnown := index(want)
		h, haveKnown := index(have)
		if !wantKnown || !haveKnown {
			ch.add(neutral, "")
			return
		}
		diff := math.Abs(float64(w - h))
		if diff == 0 {
			ch.add(1.0, label)
			return
		}
		ch.add(1-diff/3, "")
	}

	proximity(p.Size, c.Size, pets.SizeIndex, "preferred size")
	proximity(p.AgeBand, c.AgeBand, pets.AgeBandIndex, "preferred age")

	if ch.count == 0 {
		return subScore{value: 1.0, available: true}
	}
	return ch.result(true)
}

// urgency grows with listing age and placement risk flags.
func urgency(c *pets.Candidate, now time.Time) subScore {
	score := 0.0
	var labels []string

	if c.Attributes.Urgent {
		score += 0.4
		labels = append(labels, "urgent placement")
	}

	switch days := c.DaysListed(now); {
	case days > 180:
		score += 0.3
		labels = append(labels, "waiting 6+ months")
	case days > 90:
		score += 0.2
		labels = append(labels, "waiting 3+ months")
	case days > 30:
		score += 0.1
	}

	if pets.NormalizeAgeBand(c.AgeBand) == pets.AgeSenior {
		score += 0.2
		labels = append(labels, "senior")
	}
	if c.Attributes.SpecialNeeds {
		score += 0.1
		labels = append(labels, "special needs")
	}
	if c.Attributes.MedicalNeeds {
		score += 0.1
		labels = append(labels, "medical needs")
	}

	return subScore{value: math.Min(score, 1), available: true, labels: labels}
}

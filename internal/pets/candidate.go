package pets

import (
	"strings"
	"time"
)

const (
	CandidateIDField             = "ID"
	CandidateOrganizationIDField = "OrganizationID"
	CandidateSpeciesField        = "Species"
	CandidateStatusField         = "Status"

	StatusAdoptable = "adoptable"
)

type Candidates struct {
	Items []*Candidate `json:"items"`
}

// Candidate is an adoptable animal as listed by the directory.
type Candidate struct {
	ID             string       `json:"id"`
	Name           string       `json:"name,omitempty"`
	Species        string       `json:"species,omitempty"`
	Breed          string       `json:"breed,omitempty"`
	SecondaryBreed string       `json:"secondary_breed,omitempty"`
	MixedBreed     bool         `json:"mixed_breed,omitempty"`
	AgeBand        string       `json:"age_band,omitempty"`
	Size           string       `json:"size,omitempty"`
	Sex            string       `json:"sex,omitempty"`
	Location       Location     `json:"location"`
	Description    string       `json:"description,omitempty"`
	Media          []string     `json:"media,omitempty"`
	Organization   Organization `json:"organization"`
	Attributes     Attributes   `json:"attributes"`
	Tags           []string     `json:"tags,omitempty"`
	Status         string       `json:"status,omitempty"`
	PublishedAt    time.Time    `json:"published_at,omitempty"`
	Distance       float64      `json:"distance,omitempty"`
}

type Location struct {
	City     string `json:"city,omitempty"`
	State    string `json:"state,omitempty"`
	Postcode string `json:"postcode,omitempty"`
}

// Organization is the shelter or rescue holding the listing.
type Organization struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Attributes holds behavioral and care traits. Nil pointers mean the listing does not say.
type Attributes struct {
	GoodWithChildren *bool  `json:"good_with_children,omitempty"`
	GoodWithDogs     *bool  `json:"good_with_dogs,omitempty"`
	GoodWithCats     *bool  `json:"good_with_cats,omitempty"`
	HouseTrained     bool   `json:"house_trained,omitempty"`
	SpecialNeeds     bool   `json:"special_needs,omitempty"`
	MedicalNeeds     bool   `json:"medical_needs,omitempty"`
	Urgent           bool   `json:"urgent,omitempty"`
	EnergyLevel      string `json:"energy_level,omitempty"`
}

func (c *Candidate) GetStringField(name string) string {
	switch name {
	case CandidateIDField:
		return c.ID
	case CandidateOrganizationIDField:
		return c.Organization.ID
	case CandidateSpeciesField:
		return c.Species
	case CandidateStatusField:
		return c.Status
	default:
		return ""
	}
}

// BreedLabel returns a human readable breed description.
func (c *Candidate) BreedLabel() string {
	switch {
	case c.Breed == "":
		return "unknown breed"
	case c.SecondaryBreed != "":
		return c.Breed + " / " + c.SecondaryBreed
	case c.MixedBreed:
		return c.Breed + " mix"
	default:
		return c.Breed
	}
}

// DaysListed returns the whole days between publication and now. Unknown publication dates count as zero.
func (c *Candidate) DaysListed(now time.Time) int {
	if c.PublishedAt.IsZero() || now.Before(c.PublishedAt) {
		return 0
	}
	return int(now.Sub(c.PublishedAt).Hours() / 24)
}

// HasTag reports whether any listing tag contains the given word, case-insensitively.
func (c *Candidate) HasTag(word string) bool {
	word = strings.ToLower(word)
	for _, tag := range c.Tags {
		if strings.Contains(strings.ToLower(tag), word) {
			return true
		}
	}
	return false
}

func (c *Candidates) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Items)
}

func (c *Candidates) IDs() []string {
	ids := make([]string, 0, c.Len())
	for _, candidate := range c.Items {
		ids = append(ids, candidate.ID)
	}
	return ids
}

// Exclude drops candidates whose field matches one of targets and returns the dropped ids.
func (c *Candidates) Exclude(name string, targets []string) []string {
	if len(targets) == 0 {
		return nil
	}

	set := make(map[string]struct{}, len(targets))
	for _, target := range targets {
		set[strings.ToLower(strings.TrimSpace(target))] = struct{}{}
	}

	return c.Retain(func(candidate *Candidate) bool {
		_, drop := set[strings.ToLower(candidate.GetStringField(name))]
		return !drop
	})
}

// Retain keeps candidates for which keep returns true, preserving order, and returns the dropped ids.
func (c *Candidates) Retain(keep func(*Candidate) bool) []string {
	var dropped []string
	kept := c.Items[:0]
	for _, candidate := range c.Items {
		if keep(candidate) {
			kept = append(kept, candidate)
			continue
		}
		dropped = append(dropped, candidate.ID)
	}
	c.Items = kept
	return dropped
}

package directory

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spigell/pawmatch/internal/pets"
	"go.uber.org/zap"
)

// animal mirrors the listing API record.
type animal struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organization_id"`
	Type           string `json:"type"`
	Breeds         struct {
		Primary   string `json:"primary"`
		Secondary string `json:"secondary"`
		Mixed     bool   `json:"mixed"`
	} `json:"breeds"`
	Age         string `json:"age"`
	Gender      string `json:"gender"`
	Size        string `json:"size"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Attributes  struct {
		HouseTrained bool `json:"house_trained"`
		SpecialNeeds bool `json:"special_needs"`
		ShotsCurrent bool `json:"shots_current"`
	} `json:"attributes"`
	Environment struct {
		Children *bool `json:"children"`
		Dogs     *bool `json:"dogs"`
		Cats     *bool `json:"cats"`
	} `json:"environment"`
	Tags   []string `json:"tags"`
	Photos []struct {
		Medium string `json:"medium"`
		Full   string `json:"full"`
	} `json:"photos"`
	Contact struct {
		Email   string `json:"email"`
		Phone   string `json:"phone"`
		Address struct {
			City     string `json:"city"`
			State    string `json:"state"`
			Postcode string `json:"postcode"`
		} `json:"address"`
	} `json:"contact"`
	PublishedAt string  `json:"published_at"`
	Distance    float64 `json:"distance"`
}

type animalResponse struct {
	Animal Item `json:"animal"`
}

type organizationResponse struct {
	Organization struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
		Phone string `json:"phone"`
	} `json:"organization"`
}

func (c *Client) getAnimal(ctx context.Context, id string) (*pets.Candidate, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrNotFound
	}

	endpoint := fmt.Sprintf("%s%s/%s", c.APIURL, SearchPath, url.PathEscape(id))

	var response animalResponse
	if err := c.getJSON(ctx, "get", endpoint, nil, &response); err != nil {
		return nil, err
	}

	if len(response.Animal) == 0 {
		return nil, ErrNotFound
	}

	candidate, err := decodeAnimal(response.Animal)
	if err != nil {
		return nil, err
	}

	c.fillOrganization(ctx, candidate)
	return candidate, nil
}

// fillOrganization resolves the shelter name from the organization record.
// Lookup failures leave the listing's contact details in place.
func (c *Client) fillOrganization(ctx context.Context, candidate *pets.Candidate) {
	id := strings.TrimSpace(candidate.Organization.ID)
	if id == "" || candidate.Organization.Name != "" {
		return
	}

	endpoint := fmt.Sprintf("%s%s/%s", c.APIURL, OrganizationsPath, url.PathEscape(id))

	var response organizationResponse
	if err := c.getJSON(ctx, "organization", endpoint, nil, &response); err != nil {
		c.logger.Warn("organization lookup failed",
			zap.String("organization_id", id),
			zap.Error(err),
		)
		return
	}

	org := response.Organization
	candidate.Organization.Name = strings.TrimSpace(org.Name)
	if candidate.Organization.Email == "" {
		candidate.Organization.Email = org.Email
	}
	if candidate.Organization.Phone == "" {
		candidate.Organization.Phone = org.Phone
	}
}

func decodeAnimal(item Item) (*pets.Candidate, error) {
	var raw animal
	cfg := &mapstructure.DecoderConfig{
		Result:           &raw,
		TagName:          "json",
		WeaklyTypedInput: true,
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(map[string]any(item)); err != nil {
		return nil, fmt.Errorf("decode listing: %w", err)
	}

	return raw.toCandidate(), nil
}

func (a *animal) toCandidate() *pets.Candidate {
	candidate := &pets.Candidate{
		ID:             strings.TrimSpace(a.ID),
		Name:           strings.TrimSpace(a.Name),
		Species:        pets.NormalizeSpecies(a.Type),
		Breed:          a.Breeds.Primary,
		SecondaryBreed: a.Breeds.Secondary,
		MixedBreed:     a.Breeds.Mixed,
		AgeBand:        pets.NormalizeAgeBand(a.Age),
		Size:           pets.NormalizeSize(a.Size),
		Sex:            strings.ToLower(a.Gender),
		Location: pets.Location{
			City:     a.Contact.Address.City,
			State:    a.Contact.Address.State,
			Postcode: a.Contact.Address.Postcode,
		},
		Description: strings.TrimSpace(a.Description),
		Organization: pets.Organization{
			ID:    a.OrganizationID,
			Email: a.Contact.Email,
			Phone: a.Contact.Phone,
		},
		Attributes: pets.Attributes{
			GoodWithChildren: a.Environment.Children,
			GoodWithDogs:     a.Environment.Dogs,
			GoodWithCats:     a.Environment.Cats,
			HouseTrained:     a.Attributes.HouseTrained,
			SpecialNeeds:     a.Attributes.SpecialNeeds,
		},
		Tags:     a.Tags,
		Status:   strings.ToLower(a.Status),
		Distance: a.Distance,
	}

	for _, photo := range a.Photos {
		switch {
		case photo.Full != "":
			candidate.Media = append(candidate.Media, photo.Full)
		case photo.Medium != "":
			candidate.Media = append(candidate.Media, photo.Medium)
		}
	}

	if published, err := time.Parse(time.RFC3339, a.PublishedAt); err == nil {
		candidate.PublishedAt = published
	}

	candidate.Attributes.MedicalNeeds = candidate.HasTag("medical")
	candidate.Attributes.Urgent = candidate.HasTag("urgent")
	candidate.Attributes.EnergyLevel = energyFromTags(candidate)

	return candidate
}

func energyFromTags(c *pets.Candidate) string {
	switch {
	case c.HasTag("energetic"), c.HasTag("active"), c.HasTag("athletic"), c.HasTag("playful"):
		return pets.EnergyHigh
	case c.HasTag("calm"), c.HasTag("couch"), c.HasTag("laid-back"), c.HasTag("lazy"):
		return pets.EnergyLow
	default:
		return ""
	}
}

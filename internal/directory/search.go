package directory

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/spigell/pawmatch/internal/pets"
	"go.uber.org/zap"
)

const (
	SearchPath        = "/animals"
	OrganizationsPath = "/organizations"

	defaultLimit = 10
)

func (c *Client) search(ctx context.Context, q pets.Query) (*pets.Candidates, error) {
	q = q.Normalized()
	if q.Limit <= 0 {
		q.Limit = defaultLimit
	}

	params := buildParams(q)
	items, err := c.GetItems(ctx, c.APIURL+SearchPath, params, q.Limit)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	candidates := make([]*pets.Candidate, 0, len(items))
	for _, item := range items {
		candidate, err := decodeAnimal(item)
		if err != nil {
			c.logger.Warn("skipping undecodable listing", zap.Error(err))
			continue
		}
		candidates = append(candidates, candidate)
	}

	return &pets.Candidates{Items: candidates}, nil
}

// buildParams maps a normalized query onto the listing API query string.
func buildParams(q pets.Query) url.Values {
	params := url.Values{}

	if q.Species != "" {
		params.Set("type", q.Species)
	}
	if q.Location != "" {
		params.Set("location", q.Location)
		if q.Distance > 0 {
			params.Set("distance", strconv.Itoa(q.Distance))
		}
	}
	if q.Size != "" {
		params.Set("size", q.Size)
	}
	if q.AgeBand != "" {
		params.Set("age", q.AgeBand)
	}
	if q.Page > 0 {
		params.Set("page", strconv.Itoa(q.Page))
	}

	limit := q.Limit
	if limit <= 0 || limit > perPage {
		limit = perPage
	}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("status", pets.StatusAdoptable)

	return params
}

package pets

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Filter names used in normalized queries and as session parameter names.
const (
	FilterSpecies  = "species"
	FilterLocation = "location"
	FilterDistance = "distance"
	FilterSize     = "size"
	FilterAgeBand  = "age_band"
	FilterPage     = "page"
	FilterLimit    = "limit"
)

// Query is a set of directory search filters. Zero values mean "not filtered".
type Query struct {
	Species  string `mapstructure:"species" json:"species,omitempty"`
	Location string `mapstructure:"location" json:"location,omitempty"`
	Distance int    `mapstructure:"distance" json:"distance,omitempty"`
	Size     string `mapstructure:"size" json:"size,omitempty"`
	AgeBand  string `mapstructure:"age_band" json:"age_band,omitempty"`
	Page     int    `mapstructure:"page" json:"page,omitempty"`
	Limit    int    `mapstructure:"limit" json:"limit,omitempty"`
}

// QueryFromParams builds a query from loosely typed filter values such as session parameters.
// Unrecognized keys are ignored.
func QueryFromParams(params map[string]any) Query {
	var q Query
	for key, value := range params {
		switch strings.ToLower(strings.TrimSpace(key)) {
		case FilterSpecies:
			q.Species = toString(value)
		case FilterLocation:
			q.Location = toString(value)
		case FilterSize:
			q.Size = toString(value)
		case FilterAgeBand, "age":
			q.AgeBand = toString(value)
		case FilterDistance:
			q.Distance = toInt(value)
		case FilterPage:
			q.Page = toInt(value)
		case FilterLimit:
			q.Limit = toInt(value)
		}
	}
	return q
}

// Filters returns the normalized filter set: lower-cased, vocabulary-mapped values with empty filters dropped.
func (q Query) Filters() map[string]string {
	filters := map[string]string{
		FilterSpecies:  NormalizeSpecies(q.Species),
		FilterLocation: strings.ToLower(strings.TrimSpace(q.Location)),
		FilterSize:     NormalizeSize(q.Size),
		FilterAgeBand:  NormalizeAgeBand(q.AgeBand),
	}
	if q.Distance > 0 {
		filters[FilterDistance] = strconv.Itoa(q.Distance)
	}
	if q.Page > 0 {
		filters[FilterPage] = strconv.Itoa(q.Page)
	}
	if q.Limit > 0 {
		filters[FilterLimit] = strconv.Itoa(q.Limit)
	}

	for key, value := range filters {
		if value == "" {
			delete(filters, key)
		}
	}
	return filters
}

// Normalized returns the query with every filter in canonical form.
func (q Query) Normalized() Query {
	f := q.Filters()
	return Query{
		Species:  f[FilterSpecies],
		Location: f[FilterLocation],
		Distance: toInt(f[FilterDistance]),
		Size:     f[FilterSize],
		AgeBand:  f[FilterAgeBand],
		Page:     toInt(f[FilterPage]),
		Limit:    toInt(f[FilterLimit]),
	}
}

// Canonical serializes the normalized filters deterministically as sorted key=value pairs.
func (q Query) Canonical() string {
	filters := q.Filters()
	keys := make([]string, 0, len(filters))
	for key := range filters {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+"="+strconv.Quote(filters[key]))
	}
	return strings.Join(parts, "&")
}

func toString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprintf("%v", val)
	}
}

func toInt(v any) int {
	switch val := v.(type) {
	case int:
		return val
	case int64:
		return int(val)
	case float64:
		return int(val)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

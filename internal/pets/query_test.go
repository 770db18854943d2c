package pets

import "testing"

func TestQueryCanonicalIsOrderAndCaseIndependent(t *testing.T) {
	first := QueryFromParams(map[string]any{"species": "dog", "location": "seattle"})
	second := QueryFromParams(map[string]any{"location": "Seattle", "species": "Dog"})

	if first.Canonical() != second.Canonical() {
		t.Fatalf("expected equal canonical forms, got %q and %q", first.Canonical(), second.Canonical())
	}
}

func TestQueryFiltersDropEmptyValues(t *testing.T) {
	q := Query{Species: " Cats ", Location: "  ", Size: "", AgeBand: "Puppy", Distance: 0, Limit: 10}

	filters := q.Filters()
	expected := map[string]string{
		FilterSpecies: "cat",
		FilterAgeBand: "baby",
		FilterLimit:   "10",
	}

	if len(filters) != len(expected) {
		t.Fatalf("expected %d filters, got %v", len(expected), filters)
	}
	for key, value := range expected {
		if filters[key] != value {
			t.Fatalf("expected %s=%q, got %q", key, value, filters[key])
		}
	}
}

func TestQueryFromParams(t *testing.T) {
	q := QueryFromParams(map[string]any{
		"species":  "rabbit",
		"distance": float64(25),
		"limit":    "5",
		"age":      "senior",
		"housing":  "apartment",
	})

	if q.Species != "rabbit" || q.Distance != 25 || q.Limit != 5 || q.AgeBand != "senior" {
		t.Fatalf("unexpected query: %+v", q)
	}
}

func TestQueryDifferentFiltersDiffer(t *testing.T) {
	a := Query{Species: "dog", Location: "seattle"}
	b := Query{Species: "dog", Location: "seattle", Size: "large"}

	if a.Canonical() == b.Canonical() {
		t.Fatalf("expected queries with different filters to differ")
	}
}

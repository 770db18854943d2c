package directory

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spigell/pawmatch/internal/pets"
	"go.uber.org/zap"
)

const animalJSON = `{
	"id": 120,
	"organization_id": "WA40",
	"type": "Dog",
	"breeds": {"primary": "Labrador Retriever", "secondary": null, "mixed": true},
	"age": "Young",
	"gender": "Female",
	"size": "Extra Large",
	"name": "Biscuit",
	"description": "Loves fetch",
	"status": "adoptable",
	"attributes": {"house_trained": true, "special_needs": false},
	"environment": {"children": true, "dogs": null, "cats": false},
	"tags": ["Playful", "Needs medical follow-up"],
	"photos": [{"medium": "https://img/m.jpg", "full": "https://img/f.jpg"}],
	"contact": {"email": "adopt@shelter.org", "phone": "555", "address": {"city": "Seattle", "state": "WA", "postcode": "98101"}},
	"published_at": "2024-01-02T03:04:05+00:00",
	"distance": 3.5
}`

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c := New(context.Background(), Config{APIURL: server.URL, APIKey: "secret", MaxRetries: 3}, zap.NewNop())
	c.backoff = 0
	return c
}

const organizationJSON = `{"organization": {"id": "WA40", "name": "Seattle Humane", "email": "info@humane.org"}}`

func TestGetDecodesListing(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("unexpected authorization header %q", got)
		}
		switch r.URL.Path {
		case "/animals/120":
			w.Write([]byte(`{"animal": ` + animalJSON + `}`))
		case "/organizations/WA40":
			w.Write([]byte(organizationJSON))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))

	candidate, err := c.Get(context.Background(), "120")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if candidate.ID != "120" || candidate.Species != "dog" || candidate.Size != pets.SizeXLarge || candidate.AgeBand != pets.AgeYoung {
		t.Fatalf("unexpected candidate: %+v", candidate)
	}
	if candidate.Attributes.GoodWithChildren == nil || !*candidate.Attributes.GoodWithChildren {
		t.Fatalf("expected good with children")
	}
	if candidate.Attributes.GoodWithDogs != nil {
		t.Fatalf("expected unknown good with dogs")
	}
	if candidate.Attributes.GoodWithCats == nil || *candidate.Attributes.GoodWithCats {
		t.Fatalf("expected not good with cats")
	}
	if !candidate.Attributes.MedicalNeeds || candidate.Attributes.EnergyLevel != pets.EnergyHigh {
		t.Fatalf("expected tags to drive medical and energy: %+v", candidate.Attributes)
	}
	if len(candidate.Media) != 1 || candidate.Media[0] != "https://img/f.jpg" {
		t.Fatalf("unexpected media: %v", candidate.Media)
	}
	if candidate.Location.City != "Seattle" || candidate.Organization.Email != "adopt@shelter.org" {
		t.Fatalf("unexpected contact info: %+v %+v", candidate.Location, candidate.Organization)
	}
	if candidate.Organization.ID != "WA40" || candidate.Organization.Name != "Seattle Humane" {
		t.Fatalf("expected shelter name from the organization record: %+v", candidate.Organization)
	}
	if candidate.PublishedAt.IsZero() {
		t.Fatalf("expected published time")
	}
}

func TestGetNotFoundIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := c.Get(context.Background(), "404")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single call, got %d", calls.Load())
	}
}

func TestGetKeepsListingWhenOrganizationLookupFails(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/organizations/WA40" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"animal": ` + animalJSON + `}`))
	}))

	candidate, err := c.Get(context.Background(), "120")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if candidate.ID != "120" || candidate.Organization.Name != "" || candidate.Organization.Email != "adopt@shelter.org" {
		t.Fatalf("unexpected candidate: %+v", candidate.Organization)
	}
}

func TestRetriesTemporaryFailures(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/animals/120" {
			w.Write([]byte(organizationJSON))
			return
		}
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"animal": ` + animalJSON + `}`))
	}))

	if _, err := c.Get(context.Background(), "120"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 calls, got %d", calls.Load())
	}
}

func TestUnavailableAfterRetriesExhausted(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	_, err := c.Search(context.Background(), pets.Query{Species: "dog"})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestClientErrorsAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))

	_, err := c.Search(context.Background(), pets.Query{Species: "dog"})
	var status *StatusError
	if !errors.As(err, &status) || status.Code != http.StatusBadRequest {
		t.Fatalf("expected status error, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected 1 attempt, got %d", calls.Load())
	}
}

func TestSearchPaginatesUntilLimit(t *testing.T) {
	var pages []string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		pages = append(pages, q.Get("page"))
		if q.Get("type") != "dog" || q.Get("location") != "seattle" || q.Get("distance") != "50" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}

		page := q.Get("page")
		id := "p" + page
		resp := map[string]any{
			"animals": []map[string]any{
				{"id": id + "-a", "type": "Dog"},
				{"id": id + "-b", "type": "Dog"},
			},
			"pagination": map[string]any{"current_page": atoi(page), "total_pages": 5},
		}
		json.NewEncoder(w).Encode(resp)
	}))

	result, err := c.Search(context.Background(), pets.Query{Species: "Dog", Location: "Seattle", Distance: 50, Limit: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Len() != 3 {
		t.Fatalf("expected 3 candidates, got %d", result.Len())
	}
	if strings.Join(pages, ",") != "1,2" {
		t.Fatalf("expected two page requests, got %v", pages)
	}
	if ids := strings.Join(result.IDs(), ","); ids != "p1-a,p1-b,p2-a" {
		t.Fatalf("unexpected ids: %s", ids)
	}
}

func TestClientCredentialsAuth(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.Form.Get("client_id") != "id" || r.Form.Get("grant_type") != "client_credentials" {
			t.Errorf("unexpected token request: %v", r.Form)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token": "issued", "token_type": "Bearer", "expires_in": 3600}`))
	})
	mux.HandleFunc("/animals/120", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer issued" {
			t.Errorf("unexpected authorization header %q", got)
		}
		w.Write([]byte(`{"animal": ` + animalJSON + `}`))
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	c := New(context.Background(), Config{APIURL: server.URL, ClientID: "id", ClientSecret: "secret", Timeout: 5 * time.Second}, zap.NewNop())

	if _, err := c.Get(context.Background(), "120"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestBuildParams(t *testing.T) {
	params := buildParams(pets.Query{Species: "cat", Size: "small", AgeBand: "senior", Limit: 500})

	if params.Get("type") != "cat" || params.Get("size") != "small" || params.Get("age") != "senior" {
		t.Fatalf("unexpected params: %v", params)
	}
	if params.Get("limit") != "100" {
		t.Fatalf("expected limit capped at page size, got %s", params.Get("limit"))
	}
	if params.Has("distance") {
		t.Fatalf("distance without location must be omitted")
	}
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}

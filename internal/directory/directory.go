package directory

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/spigell/pawmatch/internal/pets"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	apiURL    = "https://api.petfinder.com/v2"
	tokenPath = "/oauth2/token"
	userAgent = "spigell/pawmatch"

	defaultTimeout    = 30 * time.Second
	defaultMaxRetries = 3
	defaultMaxPages   = 3
	defaultBackoff    = 500 * time.Millisecond
	defaultMaxBackoff = 5 * time.Second
	// Max value for search per page.
	perPage = 100
)

// Config describes how to reach the listing API.
type Config struct {
	APIURL   string
	TokenURL string
	// ClientID and ClientSecret enable the OAuth client credentials flow.
	ClientID     string
	ClientSecret string
	// APIKey is sent as a bearer token when client credentials are not configured.
	APIKey        string
	UserAgent     string
	Timeout       time.Duration
	MaxRetries    int
	MaxPages      int
	RatePerMinute int
}

// Client is a thin adapter over the listing API: search and get-by-id.
type Client struct {
	logger     *zap.Logger
	apiKey     string
	limiter    *RateLimiter
	maxRetries int
	maxPages   int
	backoff    time.Duration
	maxBackoff time.Duration

	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
}

// New builds a client. ctx scopes the OAuth token source.
func New(ctx context.Context, cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	base := strings.TrimRight(strings.TrimSpace(cfg.APIURL), "/")
	if base == "" {
		base = apiURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	httpClient := &http.Client{Timeout: timeout}
	if cfg.ClientID != "" && cfg.ClientSecret != "" {
		tokenURL := cfg.TokenURL
		if tokenURL == "" {
			tokenURL = base + tokenPath
		}
		cc := &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     tokenURL,
			AuthStyle:    oauth2.AuthStyleInParams,
		}
		httpClient = cc.Client(context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Timeout: timeout}))
		httpClient.Timeout = timeout
	}

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	maxPages := cfg.MaxPages
	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}

	agent := cfg.UserAgent
	if agent == "" {
		agent = userAgent
	}

	return &Client{
		logger:     logger,
		apiKey:     cfg.APIKey,
		limiter:    NewRateLimiter(cfg.RatePerMinute),
		maxRetries: maxRetries,
		maxPages:   maxPages,
		backoff:    defaultBackoff,
		maxBackoff: defaultMaxBackoff,
		HTTPClient: httpClient,
		UserAgent:  agent,
		APIURL:     base,
	}
}

// Search returns candidates matching the query.
func (c *Client) Search(ctx context.Context, q pets.Query) (*pets.Candidates, error) {
	return c.search(ctx, q)
}

// Get returns a single candidate or ErrNotFound.
func (c *Client) Get(ctx context.Context, id string) (*pets.Candidate, error) {
	return c.getAnimal(ctx, id)
}

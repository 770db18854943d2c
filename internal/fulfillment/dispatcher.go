// Package fulfillment routes tagged dialog requests to handlers and keeps session state in step.
package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/pawmatch/internal/ai"
	"github.com/spigell/pawmatch/internal/analytics"
	"github.com/spigell/pawmatch/internal/catalog"
	"github.com/spigell/pawmatch/internal/filtering"
	"github.com/spigell/pawmatch/internal/logger"
	"github.com/spigell/pawmatch/internal/metrics"
	"github.com/spigell/pawmatch/internal/pets"
	"github.com/spigell/pawmatch/internal/ranking"
	"github.com/spigell/pawmatch/internal/session"
)

const (
	fallbackText    = "I'm not sure how to help with that yet. You can search for pets, ask for recommendations, or schedule a visit."
	unavailableText = "Sorry, the pet service is unavailable right now. Please try again in a few minutes."
)

// Catalog is the cache-aside view of the pet directory.
type Catalog interface {
	Search(ctx context.Context, q pets.Query) (*pets.Candidates, error)
	GetByID(ctx context.Context, id string) (*pets.Candidate, error)
}

// Ranker orders candidates for an adopter profile.
type Ranker interface {
	Rank(ctx context.Context, profile session.Profile, candidates []*pets.Candidate, topK int) ([]ranking.Match, error)
}

// Emitter publishes analytics events without blocking.
type Emitter interface {
	Emit(eventType, conversationID string, data map[string]any)
}

// Config holds handler defaults.
type Config struct {
	DefaultDistance       int      `mapstructure:"default-distance"`
	SearchLimit           int      `mapstructure:"search-limit"`
	TopK                  int      `mapstructure:"top-k"`
	RecommendationPool    int      `mapstructure:"recommendation-pool"`
	ExcludedOrganizations []string `mapstructure:"excluded-organizations"`
	// DisabledFilters names pre-ranking filters to skip, e.g. "availability".
	DisabledFilters []string `mapstructure:"disabled-filters"`
}

// DefaultConfig returns the handler defaults used when a value is left at zero.
func DefaultConfig() Config {
	return Config{
		DefaultDistance:    50,
		SearchLimit:        10,
		TopK:               5,
		RecommendationPool: 50,
	}
}

// Deps aggregates the collaborators of the dispatcher.
type Deps struct {
	Catalog  Catalog
	Ranker   Ranker
	Resolver ai.Resolver
	Sessions session.Store
	Emitter  Emitter
	Delegate Delegate
	Logger   *zap.Logger
}

// Dispatcher handles one fulfillment turn at a time. It keeps no per-conversation state in memory.
type Dispatcher struct {
	cfg      Config
	catalog  Catalog
	ranker   Ranker
	resolver ai.Resolver
	sessions session.Store
	emitter  Emitter
	delegate Delegate
	logger   *zap.Logger
}

// New builds a dispatcher. Catalog and Sessions are required.
func New(cfg Config, deps Deps) (*Dispatcher, error) {
	if deps.Catalog == nil {
		return nil, errors.New("catalog is required")
	}
	if deps.Sessions == nil {
		return nil, errors.New("session store is required")
	}

	defaults := DefaultConfig()
	if cfg.DefaultDistance <= 0 {
		cfg.DefaultDistance = defaults.DefaultDistance
	}
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = defaults.SearchLimit
	}
	if cfg.TopK <= 0 {
		cfg.TopK = defaults.TopK
	}
	if cfg.RecommendationPool <= 0 {
		cfg.RecommendationPool = defaults.RecommendationPool
	}

	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	d := &Dispatcher{
		cfg:      cfg,
		catalog:  deps.Catalog,
		ranker:   deps.Ranker,
		resolver: deps.Resolver,
		sessions: deps.Sessions,
		emitter:  deps.Emitter,
		delegate: deps.Delegate,
		logger:   log,
	}
	if d.ranker == nil {
		d.ranker = ranking.NewEngine(ranking.WithLogger(log))
	}
	if d.delegate == nil {
		d.delegate = NewLogDelegate(log)
	}

	steps, err := d.filters()
	if err != nil {
		return nil, err
	}
	log.Info("recommendation filters", zap.Any("filters", filtering.Describe(steps)))

	return d, nil
}

// filters builds a fresh pre-ranking pipeline. Filters keep per-run state, so each request gets its own.
func (d *Dispatcher) filters() ([]filtering.Filter, error) {
	steps := filtering.Default(d.cfg.ExcludedOrganizations)
	for _, name := range d.cfg.DisabledFilters {
		if !filtering.DisableByName(steps, strings.TrimSpace(name), "disabled by configuration") {
			return nil, fmt.Errorf("unknown filter %q", name)
		}
	}
	return steps, nil
}

// turn is the per-request working state passed to handlers.
type turn struct {
	conversationID string
	params         session.Params
	request        session.Params
	logger         *zap.Logger
}

// outcome is what a handler produces on success.
type outcome struct {
	messages []Message
	patch    session.Params
	fields   map[string]any
}

// Handle processes one request and always returns a well-formed response.
func (d *Dispatcher) Handle(ctx context.Context, req Request) *Response {
	started := time.Now()
	tag := ParseTag(req.Tag)
	log := logger.WithConversation(d.logger, req.ConversationID, string(tag))

	stored, err := d.sessions.Get(ctx, req.ConversationID)
	if err != nil {
		log.Warn("session read failed, continuing with request parameters", zap.Error(err))
		stored = session.Params{}
	}

	requestParams := session.Params(req.SessionParameters).Known()
	resolved := session.Params{}
	if strings.TrimSpace(req.RawText) != "" && d.resolver != nil {
		var routed Tag
		resolved, routed = d.resolve(ctx, req, log)
		if tag == TagUnknown && routed != TagUnknown {
			tag = routed
			log = logger.WithConversation(d.logger, req.ConversationID, string(tag))
			log.Debug("free-text turn routed by intent")
		}
	}

	t := &turn{
		conversationID: req.ConversationID,
		params:         stored.Merge(resolved).Merge(requestParams),
		request:        requestParams,
		logger:         log,
	}

	resp := d.dispatch(ctx, tag, t, requestParams, resolved)

	metrics.RecordFulfillment(string(tag), string(resp.Status))
	metrics.RecordFulfillmentDuration(string(tag), time.Since(started).Seconds())
	return resp
}

func (d *Dispatcher) dispatch(ctx context.Context, tag Tag, t *turn, requestParams, resolved session.Params) *Response {
	if tag == TagUnknown {
		t.logger.Debug("unknown tag, returning fallback")
		d.persist(ctx, t, requestParams.Merge(resolved))
		d.emit(tag, t, StatusFinal, nil)
		return &Response{
			Messages:               []Message{textMessage(fallbackText)},
			SessionParametersPatch: resolved,
			Status:                 StatusFinal,
		}
	}

	if req, ok := missing(tag, t.params); ok {
		return d.needsParameter(tag, t, req.param, req.prompt)
	}

	var (
		result outcome
		err    error
	)
	switch tag {
	case TagSearchCandidates:
		result, err = d.searchCandidates(ctx, t)
	case TagValidateCandidateID:
		result, err = d.validateCandidateID(ctx, t)
	case TagGetRecommendations:
		result, err = d.getRecommendations(ctx, t)
	case TagScheduleVisit:
		result, err = d.scheduleVisit(ctx, t)
	case TagSubmitApplication:
		result, err = d.submitApplication(ctx, t)
	default:
		err = fmt.Errorf("no handler for tag %q", tag)
	}

	if err != nil {
		var validation *ValidationError
		if errors.As(err, &validation) {
			return d.needsParameter(tag, t, validation.Param, validation.Prompt)
		}
		return d.failure(tag, t, err)
	}

	patch := resolved.Merge(result.patch)
	d.persist(ctx, t, requestParams.Merge(patch))
	d.emit(tag, t, StatusFinal, result.fields)

	return &Response{
		Messages:               result.messages,
		SessionParametersPatch: patch,
		Status:                 StatusFinal,
	}
}

// resolve classifies the free text and returns its entities as parameters.
func (d *Dispatcher) resolve(ctx context.Context, req Request, log *zap.Logger) (session.Params, Tag) {
	resolution, err := d.resolver.Resolve(ctx, req.RawText, req.History)
	if err != nil || resolution == nil {
		log.Warn("free-text resolution failed", zap.Error(err))
		return session.Params{}, TagUnknown
	}

	params := session.Params{}
	for name, value := range resolution.Entities {
		if value == "" || !session.IsKnown(name) {
			continue
		}
		params[name] = value
	}
	params[session.ParamLastIntent] = string(resolution.Intent)

	log.Debug("free text resolved",
		zap.String("intent", string(resolution.Intent)),
		zap.String("source", resolution.Source),
		zap.Float64("confidence", resolution.Confidence),
		zap.Int("entities", len(params)-1),
	)
	return params, tagForIntent(resolution.Intent)
}

func (d *Dispatcher) needsParameter(tag Tag, t *turn, param, prompt string) *Response {
	t.logger.Debug("required parameter missing", zap.String("parameter", param))
	d.emit(tag, t, StatusNeedsParameter, map[string]any{"missing_parameter": param})
	return &Response{
		Messages:               []Message{textMessage("%s", prompt)},
		SessionParametersPatch: session.Params{},
		Status:                 StatusNeedsParameter,
	}
}

func (d *Dispatcher) failure(tag Tag, t *turn, err error) *Response {
	reason := "upstream_unavailable"
	if errors.Is(err, catalog.ErrIdentityMismatch) {
		reason = "identity_mismatch"
		t.logger.Error("fulfillment failed", zap.String("reason", reason), zap.Error(err))
	} else {
		t.logger.Warn("fulfillment failed", zap.String("reason", reason), zap.Error(err))
	}

	d.emit(tag, t, StatusError, map[string]any{"error_kind": reason})
	return &Response{
		Messages:               []Message{textMessage(unavailableText)},
		SessionParametersPatch: session.Params{},
		Status:                 StatusError,
	}
}

func (d *Dispatcher) persist(ctx context.Context, t *turn, patch session.Params) {
	if len(patch) == 0 || t.conversationID == "" {
		return
	}
	if err := d.sessions.Merge(ctx, t.conversationID, patch); err != nil {
		t.logger.Warn("session write failed", zap.Error(err))
	}
}

func (d *Dispatcher) emit(tag Tag, t *turn, status Status, fields map[string]any) {
	if d.emitter == nil {
		return
	}
	data := map[string]any{
		"tag":    string(tag),
		"status": string(status),
	}
	for key, value := range fields {
		data[key] = value
	}
	d.emitter.Emit("fulfillment."+string(tag), t.conversationID, analytics.Redact(data))
}

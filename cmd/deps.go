package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/pawmatch/internal/ai"
	"github.com/spigell/pawmatch/internal/ai/gemini"
	"github.com/spigell/pawmatch/internal/ai/keyword"
	"github.com/spigell/pawmatch/internal/analytics"
	"github.com/spigell/pawmatch/internal/cache"
	"github.com/spigell/pawmatch/internal/catalog"
	"github.com/spigell/pawmatch/internal/directory"
	"github.com/spigell/pawmatch/internal/fulfillment"
	"github.com/spigell/pawmatch/internal/ranking"
	"github.com/spigell/pawmatch/internal/secrets"
	"github.com/spigell/pawmatch/internal/session"
)

// application holds the wired core shared by serve and chat.
type application struct {
	dispatcher *fulfillment.Dispatcher
	sessions   session.Store
	emitter    *analytics.Emitter
	closers    []func() error
}

func newApplication(ctx context.Context, cfg *Config, logger *zap.Logger) (*application, error) {
	a := &application{}

	dir, err := newDirectory(ctx, cfg.Directory, logger)
	if err != nil {
		return nil, err
	}

	backend, err := newCacheBackend(cfg.Cache, logger)
	if err != nil {
		return nil, err
	}
	if closer, ok := backend.(interface{ Close() error }); ok {
		a.closers = append(a.closers, closer.Close)
	}

	sessions, err := newSessionStore(cfg.Session, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.sessions = sessions
	if closer, ok := sessions.(interface{ Close() error }); ok {
		a.closers = append(a.closers, closer.Close)
	}

	resolver, err := newResolver(ctx, cfg.AI, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.emitter, err = newEmitter(cfg.Analytics, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.dispatcher, err = fulfillment.New(cfg.Fulfillment, fulfillment.Deps{
		Catalog: catalog.New(dir, backend,
			catalog.WithTTLs(cfg.Cache.SearchTTL, cfg.Cache.DetailTTL),
			catalog.WithDirectoryTimeout(cfg.Directory.Timeout),
			catalog.WithLogger(logger.Named("catalog")),
		),
		Ranker: ranking.NewEngine(
			ranking.WithWorkers(cfg.Ranking.Workers),
			ranking.WithLogger(logger.Named("ranking")),
		),
		Resolver: resolver,
		Sessions: sessions,
		Emitter:  a.emitter,
		Logger:   logger.Named("fulfillment"),
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	return a, nil
}

// Close releases stores and connections in reverse order of creation.
func (a *application) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func newDirectory(ctx context.Context, cfg DirectoryConfig, logger *zap.Logger) (*directory.Client, error) {
	secret, err := secrets.Optional(secrets.Source{
		Name:  "directory client secret",
		Value: cfg.ClientSecret,
		File:  cfg.ClientSecretFile,
		Env:   "PETFINDER_CLIENT_SECRET",
	})
	if err != nil {
		return nil, err
	}

	apiKey, err := secrets.Optional(secrets.Source{
		Name:  "directory api key",
		Value: cfg.APIKey,
		File:  cfg.APIKeyFile,
		Env:   "PETFINDER_API_KEY",
	})
	if err != nil {
		return nil, err
	}

	if (cfg.ClientID == "" || secret == "") && apiKey == "" {
		logger.Warn("directory credentials are not configured, requests will be anonymous")
	}

	return directory.New(ctx, directory.Config{
		APIURL:        cfg.APIURL,
		ClientID:      cfg.ClientID,
		ClientSecret:  secret,
		APIKey:        apiKey,
		Timeout:       cfg.Timeout,
		MaxRetries:    cfg.MaxRetries,
		MaxPages:      cfg.MaxPages,
		RatePerMinute: cfg.RatePerMinute,
	}, logger.Named("directory")), nil
}

func newCacheBackend(cfg CacheConfig, logger *zap.Logger) (cache.Backend, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "memory":
		return cache.NewMemory(), nil
	case "redis":
		password, err := secrets.Optional(secrets.Source{
			Name:  "redis password",
			Value: cfg.Redis.Password,
			File:  cfg.Redis.PasswordFile,
		})
		if err != nil {
			return nil, err
		}
		logger.Info("using redis cache", zap.String("addr", cfg.Redis.Addr), zap.Int("db", cfg.Redis.DB))
		return cache.NewRedis(cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		}), nil
	case "none":
		return cache.Nop{}, nil
	default:
		return nil, fmt.Errorf("unsupported cache backend: %s", cfg.Backend)
	}
}

func newSessionStore(cfg SessionConfig, logger *zap.Logger) (session.Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "memory":
		return session.NewMemory(), nil
	case "sqlite":
		store, err := session.NewSQLite(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("opening session store: %w", err)
		}
		logger.Info("using sqlite session store", zap.String("path", store.Path()))
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported session backend: %s", cfg.Backend)
	}
}

// newResolver always returns a chain. Without a usable primary it serves keyword results only.
func newResolver(ctx context.Context, cfg AIConfig, logger *zap.Logger) (ai.Resolver, error) {
	var primary ai.Resolver
	if cfg.Enabled {
		provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
		if provider != "" && provider != gemini.Source {
			return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
		}

		apiKey, err := secrets.Load(secrets.Source{
			Name:  "gemini api key",
			Value: cfg.Gemini.APIKey,
			File:  cfg.Gemini.APIKeyFile,
			Env:   "GEMINI_API_KEY",
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY)", err)
		}

		genLogger := logger.With(zap.Int("ai_retry_attempts", cfg.Gemini.MaxRetries))
		generator, err := gemini.NewGenerator(ctx, gemini.Config{
			APIKey:      apiKey,
			Model:       cfg.Gemini.Model,
			MaxRetries:  cfg.Gemini.MaxRetries,
			Temperature: cfg.Gemini.Temperature,
		}, genLogger)
		if err != nil {
			return nil, err
		}

		primary = gemini.NewResolver(generator, cfg.HistoryTurns, cfg.Gemini.MaxLogLength, logger.Named("resolver"))
	}

	return ai.NewChain(primary, keyword.New(), cfg.Timeout, logger.Named("resolver")), nil
}

func newEmitter(cfg AnalyticsConfig, logger *zap.Logger) (*analytics.Emitter, error) {
	var sink analytics.Sink
	switch strings.ToLower(strings.TrimSpace(cfg.Sink)) {
	case "", "log":
		sink = analytics.LogSink{Logger: logger.Named("events")}
	case "http":
		if strings.TrimSpace(cfg.URL) == "" {
			return nil, errors.New("analytics.url is required for the http sink")
		}
		sink = analytics.NewHTTPSink(cfg.URL, cfg.SendTimeout)
	case "none":
		sink = analytics.Nop{}
	default:
		return nil, fmt.Errorf("unsupported analytics sink: %s", cfg.Sink)
	}

	return analytics.NewEmitter(sink,
		analytics.WithQueueSize(cfg.QueueSize),
		analytics.WithSendTimeout(cfg.SendTimeout),
		analytics.WithLogger(logger),
	), nil
}

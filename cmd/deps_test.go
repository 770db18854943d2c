package cmd

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/pawmatch/internal/cache"
	"github.com/spigell/pawmatch/internal/fulfillment"
	"github.com/spigell/pawmatch/internal/session"
)

func TestDefaultsDecodeIntoConfig(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if cfg.Cache.SearchTTL != time.Hour || cfg.Cache.DetailTTL != time.Hour {
		t.Fatalf("unexpected cache TTLs %v/%v", cfg.Cache.SearchTTL, cfg.Cache.DetailTTL)
	}
	if cfg.Directory.Timeout != 30*time.Second || cfg.Directory.RatePerMinute != 100 {
		t.Fatalf("unexpected directory defaults %+v", cfg.Directory)
	}
	if cfg.AI.Timeout != 5*time.Second || cfg.AI.HistoryTurns != 6 || cfg.AI.Gemini.Model != "gemini-2.0-flash-001" {
		t.Fatalf("unexpected ai defaults %+v", cfg.AI)
	}
	if cfg.Fulfillment.DefaultDistance != 50 || cfg.Fulfillment.TopK != 5 || cfg.Fulfillment.RecommendationPool != 50 {
		t.Fatalf("unexpected fulfillment defaults %+v", cfg.Fulfillment)
	}
	if cfg.Server.Path != "/webhook" || cfg.Ranking.Workers != 4 {
		t.Fatalf("unexpected server/ranking defaults %+v %+v", cfg.Server, cfg.Ranking)
	}
}

func TestNewCacheBackend(t *testing.T) {
	logger := zap.NewNop()

	backend, err := newCacheBackend(CacheConfig{Backend: "memory"}, logger)
	if err != nil {
		t.Fatalf("memory: %v", err)
	}
	if _, ok := backend.(*cache.Memory); !ok {
		t.Fatalf("expected memory backend, got %T", backend)
	}

	backend, err = newCacheBackend(CacheConfig{Backend: "none"}, logger)
	if err != nil {
		t.Fatalf("none: %v", err)
	}
	if _, ok := backend.(cache.Nop); !ok {
		t.Fatalf("expected nop backend, got %T", backend)
	}

	if _, err := newCacheBackend(CacheConfig{Backend: "memcached"}, logger); err == nil {
		t.Fatal("expected error for unsupported backend")
	}
}

func TestNewSessionStore(t *testing.T) {
	logger := zap.NewNop()

	store, err := newSessionStore(SessionConfig{Backend: "sqlite", Path: filepath.Join(t.TempDir(), "sessions.db")}, logger)
	if err != nil {
		t.Fatalf("sqlite: %v", err)
	}
	sqlite, ok := store.(*session.SQLite)
	if !ok {
		t.Fatalf("expected sqlite store, got %T", store)
	}
	defer sqlite.Close()

	if _, err := newSessionStore(SessionConfig{Backend: "etcd"}, logger); err == nil {
		t.Fatal("expected error for unsupported backend")
	}
}

func TestNewEmitterRequiresURLForHTTP(t *testing.T) {
	if _, err := newEmitter(AnalyticsConfig{Sink: "http"}, zap.NewNop()); err == nil {
		t.Fatal("expected error without url")
	}
	if _, err := newEmitter(AnalyticsConfig{Sink: "kafka"}, zap.NewNop()); err == nil {
		t.Fatal("expected error for unsupported sink")
	}
}

func TestNewResolverWithoutAIUsesKeywords(t *testing.T) {
	resolver, err := newResolver(context.Background(), AIConfig{Enabled: false}, zap.NewNop())
	if err != nil {
		t.Fatalf("newResolver: %v", err)
	}

	res, err := resolver.Resolve(context.Background(), "I want to schedule a visit tomorrow", nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Intent != "schedule_visit" || res.Source != "keyword" {
		t.Fatalf("unexpected resolution %+v", res)
	}
}

func TestNewResolverRejectsUnknownProvider(t *testing.T) {
	if _, err := newResolver(context.Background(), AIConfig{Enabled: true, Provider: "openai"}, zap.NewNop()); err == nil {
		t.Fatal("expected error for unsupported provider")
	}
}

func TestNewApplicationServesRequests(t *testing.T) {
	cfg := &Config{
		Directory:   DirectoryConfig{APIURL: "http://127.0.0.1:1", Timeout: time.Second, MaxRetries: 1},
		Cache:       CacheConfig{Backend: "memory", SearchTTL: time.Hour, DetailTTL: time.Hour},
		Session:     SessionConfig{Backend: "memory"},
		Analytics:   AnalyticsConfig{Sink: "none"},
		Fulfillment: fulfillment.DefaultConfig(),
	}

	core, err := newApplication(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("newApplication: %v", err)
	}
	defer core.Close()

	resp := core.dispatcher.Handle(context.Background(), fulfillment.Request{
		Tag:            "schedule-visit",
		ConversationID: "conv",
	})
	if resp.Status != fulfillment.StatusNeedsParameter {
		t.Fatalf("expected NEEDS_PARAMETER, got %s", resp.Status)
	}
}

func TestRedactedConfigMasksSecrets(t *testing.T) {
	cfg := Config{}
	cfg.AI.Gemini.APIKey = "key"
	cfg.Directory.ClientSecret = "secret"

	out := redactedConfig(cfg)
	if out.AI.Gemini.APIKey != "***" || out.Directory.ClientSecret != "***" {
		t.Fatalf("expected masked secrets, got %+v", out)
	}
	if cfg.AI.Gemini.APIKey != "key" {
		t.Fatal("original config must not change")
	}
}

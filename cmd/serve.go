package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/pawmatch/internal/logger"
	"github.com/spigell/pawmatch/internal/session"
	"github.com/spigell/pawmatch/internal/webhook"
)

const (
	shutdownTimeout = 10 * time.Second
	pruneInterval   = time.Hour
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the fulfillment webhook",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (overrides server.addr)")
	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the pawmatch", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(redactedConfig(*config), "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	core, err := newApplication(ctx, config, logger)
	if err != nil {
		logger.Fatal("wiring dependencies", zap.Error(err))
	}

	// Queued events are drained by Shutdown after the server stops.
	go core.emitter.Run(context.WithoutCancel(ctx))

	if store, ok := core.sessions.(*session.SQLite); ok && config.Session.TTL > 0 {
		go pruneSessions(ctx, store, config.Session.TTL, logger)
	}

	server := webhook.NewServer(config.Server, core.dispatcher, logger)
	if err := server.ListenAndServe(ctx); err != nil {
		logger.Error("server failed", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := core.emitter.Shutdown(shutdownCtx); err != nil {
		logger.Warn("analytics shutdown", zap.Error(err))
	}
	if err := core.Close(); err != nil {
		logger.Warn("closing stores", zap.Error(err))
	}
}

// pruneSessions drops idle sqlite sessions until ctx is done.
func pruneSessions(ctx context.Context, store *session.SQLite, ttl time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			removed, err := store.Prune(ctx, now.Add(-ttl))
			if err != nil {
				logger.Warn("pruning sessions", zap.Error(err))
				continue
			}
			if removed > 0 {
				logger.Info("pruned idle sessions", zap.Int64("removed", removed))
			}
		}
	}
}

// redactedConfig hides inline credentials before the config is logged.
func redactedConfig(cfg Config) Config {
	mask := func(s *string) {
		if *s != "" {
			*s = "***"
		}
	}
	mask(&cfg.Directory.ClientSecret)
	mask(&cfg.Directory.APIKey)
	mask(&cfg.Cache.Redis.Password)
	mask(&cfg.AI.Gemini.APIKey)
	return cfg
}

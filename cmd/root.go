package cmd

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/pawmatch/internal/fulfillment"
	"github.com/spigell/pawmatch/internal/webhook"
)

const (
	app       = "pawmatch"
	envPrefix = "PAWMATCH"
)

type Config struct {
	Server      webhook.Config     `mapstructure:"server"`
	Directory   DirectoryConfig    `mapstructure:"directory"`
	Cache       CacheConfig        `mapstructure:"cache"`
	Session     SessionConfig      `mapstructure:"session"`
	AI          AIConfig           `mapstructure:"ai"`
	Ranking     RankingConfig      `mapstructure:"ranking"`
	Fulfillment fulfillment.Config `mapstructure:"fulfillment"`
	Analytics   AnalyticsConfig    `mapstructure:"analytics"`
}

type DirectoryConfig struct {
	APIURL           string        `mapstructure:"api-url"`
	ClientID         string        `mapstructure:"client-id"`
	ClientSecret     string        `mapstructure:"client-secret"`
	ClientSecretFile string        `mapstructure:"client-secret-file"`
	APIKey           string        `mapstructure:"api-key"`
	APIKeyFile       string        `mapstructure:"api-key-file"`
	Timeout          time.Duration `mapstructure:"timeout"`
	MaxRetries       int           `mapstructure:"max-retries"`
	MaxPages         int           `mapstructure:"max-pages"`
	RatePerMinute    int           `mapstructure:"rate-per-minute"`
}

type CacheConfig struct {
	// Backend is one of memory, redis or none.
	Backend   string        `mapstructure:"backend"`
	SearchTTL time.Duration `mapstructure:"search-ttl"`
	DetailTTL time.Duration `mapstructure:"detail-ttl"`
	Redis     RedisConfig   `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr         string `mapstructure:"addr"`
	Password     string `mapstructure:"password"`
	PasswordFile string `mapstructure:"password-file"`
	DB           int    `mapstructure:"db"`
	Prefix       string `mapstructure:"prefix"`
}

type SessionConfig struct {
	// Backend is one of memory or sqlite.
	Backend string `mapstructure:"backend"`
	Path    string `mapstructure:"path"`
	// TTL prunes sqlite sessions idle for longer. Zero keeps them forever.
	TTL time.Duration `mapstructure:"ttl"`
}

type AIConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Provider     string        `mapstructure:"provider"`
	Timeout      time.Duration `mapstructure:"timeout"`
	HistoryTurns int           `mapstructure:"history-turns"`
	Gemini       GeminiConfig  `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey       string  `mapstructure:"api-key"`
	APIKeyFile   string  `mapstructure:"api-key-file"`
	Model        string  `mapstructure:"model"`
	MaxRetries   int     `mapstructure:"max-retries"`
	MaxLogLength int     `mapstructure:"max-log-length"`
	Temperature  float32 `mapstructure:"temperature"`
}

type RankingConfig struct {
	Workers int `mapstructure:"workers"`
}

type AnalyticsConfig struct {
	// Sink is one of log, http or none.
	Sink        string        `mapstructure:"sink"`
	URL         string        `mapstructure:"url"`
	QueueSize   int           `mapstructure:"queue-size"`
	SendTimeout time.Duration `mapstructure:"send-timeout"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "pawmatch is a fulfillment backend that matches adopters with adoptable pets",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is pawmatch.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	setDefaults(viper.GetViper())
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.path", "/webhook")
	v.SetDefault("server.read-timeout", 15*time.Second)
	v.SetDefault("server.write-timeout", 30*time.Second)

	v.SetDefault("directory.api-url", "")
	v.SetDefault("directory.client-id", "")
	v.SetDefault("directory.client-secret", "")
	v.SetDefault("directory.client-secret-file", "")
	v.SetDefault("directory.api-key", "")
	v.SetDefault("directory.api-key-file", "")
	v.SetDefault("directory.timeout", 30*time.Second)
	v.SetDefault("directory.max-retries", 3)
	v.SetDefault("directory.max-pages", 3)
	v.SetDefault("directory.rate-per-minute", 100)

	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.search-ttl", time.Hour)
	v.SetDefault("cache.detail-ttl", time.Hour)
	v.SetDefault("cache.redis.addr", "localhost:6379")
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.password-file", "")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.prefix", "pawmatch:")

	v.SetDefault("session.backend", "memory")
	v.SetDefault("session.path", "pawmatch-sessions.db")
	v.SetDefault("session.ttl", 7*24*time.Hour)

	v.SetDefault("ai.enabled", false)
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.timeout", 5*time.Second)
	v.SetDefault("ai.history-turns", 6)
	v.SetDefault("ai.gemini.api-key", "")
	v.SetDefault("ai.gemini.api-key-file", "")
	v.SetDefault("ai.gemini.model", "gemini-2.0-flash-001")
	v.SetDefault("ai.gemini.max-retries", 3)
	v.SetDefault("ai.gemini.max-log-length", 2000)
	v.SetDefault("ai.gemini.temperature", 0.1)

	v.SetDefault("ranking.workers", 4)

	defaults := fulfillment.DefaultConfig()
	v.SetDefault("fulfillment.default-distance", defaults.DefaultDistance)
	v.SetDefault("fulfillment.search-limit", defaults.SearchLimit)
	v.SetDefault("fulfillment.top-k", defaults.TopK)
	v.SetDefault("fulfillment.recommendation-pool", defaults.RecommendationPool)
	v.SetDefault("fulfillment.excluded-organizations", []string{})
	v.SetDefault("fulfillment.disabled-filters", []string{})

	v.SetDefault("analytics.sink", "log")
	v.SetDefault("analytics.url", "")
	v.SetDefault("analytics.queue-size", 256)
	v.SetDefault("analytics.send-timeout", 5*time.Second)
}

func initConfig() {
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// Defaults and environment are enough to start, but an explicit config must parse.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}

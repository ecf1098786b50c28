package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config holds the application's configuration
type Config struct {
	LogLevel                string        `mapstructure:"LOG_LEVEL"`
	WebPort                 int           `mapstructure:"WEB_PORT"`
	DocumentPath            string        `mapstructure:"GUIDE_DOCUMENT_PATH"`
	WatchDocument           bool          `mapstructure:"WATCH_DOCUMENT"`
	ReloadDebounceMS        int           `mapstructure:"RELOAD_DEBOUNCE_MS"`
	ReloadDebounce          time.Duration `mapstructure:"-"`
	ConfidenceThreshold     float64       `mapstructure:"CONFIDENCE_THRESHOLD"`
	RelevanceCutoff         float64       `mapstructure:"RELEVANCE_CUTOFF"`
	MaxResults              int           `mapstructure:"MAX_RESULTS"`
	MaxDraftItems           int           `mapstructure:"MAX_DRAFT_ITEMS"`
	DraftScoreRatio         float64       `mapstructure:"DRAFT_SCORE_RATIO"`
	KBCacheSize             int           `mapstructure:"KB_CACHE_SIZE"`
	RateLimitRequestsPerMin int           `mapstructure:"RATE_LIMIT_REQUESTS_PER_MIN"`
	RateLimitBurstSize      int           `mapstructure:"RATE_LIMIT_BURST_SIZE"`
	RateLimitClients        int           `mapstructure:"RATE_LIMIT_CLIENTS"`
	CORSAllowedOrigins      []string      `mapstructure:"CORS_ALLOWED_ORIGINS"`
}

// SetDefaults registers every key with its default value.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("WEB_PORT", 8090)
	v.SetDefault("GUIDE_DOCUMENT_PATH", "data/product.md")
	v.SetDefault("WATCH_DOCUMENT", true)
	v.SetDefault("RELOAD_DEBOUNCE_MS", 250)
	v.SetDefault("CONFIDENCE_THRESHOLD", 0.5)
	v.SetDefault("RELEVANCE_CUTOFF", 0.15)
	v.SetDefault("MAX_RESULTS", 10)
	v.SetDefault("MAX_DRAFT_ITEMS", 3)
	v.SetDefault("DRAFT_SCORE_RATIO", 0.8)
	v.SetDefault("KB_CACHE_SIZE", 4)
	v.SetDefault("RATE_LIMIT_REQUESTS_PER_MIN", 60)
	v.SetDefault("RATE_LIMIT_BURST_SIZE", 10)
	v.SetDefault("RATE_LIMIT_CLIENTS", 1024)
	v.SetDefault("CORS_ALLOWED_ORIGINS", []string{"*"})
}

func Load(logger *zap.Logger) *Config {
	// A missing .env is the normal case outside local development.
	if err := godotenv.Load(); err != nil && logger != nil {
		logger.Debug("No .env file loaded", zap.Error(err))
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")        // For running locally
	v.AddConfigPath("../")      // For running from docker subdir
	v.AddConfigPath("./config") // Common config folder
	v.AutomaticEnv()
	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if logger != nil {
			logger.Warn("Could not read config file, using defaults/env vars", zap.Error(err))
		}
	}

	config, err := decode(v)
	if err != nil {
		// Config decoding is critical - fail fast during bootstrap
		if logger != nil {
			logger.Fatal("Unable to decode config into struct", zap.Error(err))
		} else {
			fmt.Fprintf(os.Stderr, "FATAL: Unable to decode config into struct: %v\n", err)
			os.Exit(1)
		}
	}
	return config
}

func decode(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Env values arrive as a single comma separated string.
	if len(config.CORSAllowedOrigins) == 1 && strings.Contains(config.CORSAllowedOrigins[0], ",") {
		config.CORSAllowedOrigins = strings.Split(config.CORSAllowedOrigins[0], ",")
	}
	cleaned := make([]string, 0, len(config.CORSAllowedOrigins))
	for _, origin := range config.CORSAllowedOrigins {
		if origin = strings.TrimSpace(origin); origin != "" {
			cleaned = append(cleaned, origin)
		}
	}
	config.CORSAllowedOrigins = cleaned

	// Kept as an int on the way in: a bare "250" from the environment is not a valid duration string.
	config.ReloadDebounce = time.Duration(config.ReloadDebounceMS) * time.Millisecond

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate rejects values the pipeline cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1:
		return fmt.Errorf("CONFIDENCE_THRESHOLD must be within [0,1], got %v", c.ConfidenceThreshold)
	case c.RelevanceCutoff < 0 || c.RelevanceCutoff > 1:
		return fmt.Errorf("RELEVANCE_CUTOFF must be within [0,1], got %v", c.RelevanceCutoff)
	case c.DraftScoreRatio <= 0 || c.DraftScoreRatio > 1:
		return fmt.Errorf("DRAFT_SCORE_RATIO must be within (0,1], got %v", c.DraftScoreRatio)
	case c.MaxResults < 1:
		return fmt.Errorf("MAX_RESULTS must be positive, got %d", c.MaxResults)
	case c.MaxDraftItems < 1:
		return fmt.Errorf("MAX_DRAFT_ITEMS must be positive, got %d", c.MaxDraftItems)
	case c.KBCacheSize < 1:
		return fmt.Errorf("KB_CACHE_SIZE must be positive, got %d", c.KBCacheSize)
	case c.ReloadDebounceMS < 0:
		return fmt.Errorf("RELOAD_DEBOUNCE_MS must not be negative, got %d", c.ReloadDebounceMS)
	case c.DocumentPath == "":
		return fmt.Errorf("GUIDE_DOCUMENT_PATH must not be empty")
	}
	return nil
}

// Default returns the configuration produced by defaults alone.
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	config, err := decode(v)
	if err != nil {
		panic(err)
	}
	return config
}

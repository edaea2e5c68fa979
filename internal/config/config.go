// ABOUTME: Centralized configuration for the confidant chat core
// ABOUTME: Loads defaults, an optional TOML file and environment variables via viper
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"

	"github.com/harper/confidant/internal/enrichment"
)

// Store backends
const (
	StoreCharm  = "charm"
	StoreSQLite = "sqlite"
)

// Config holds all configuration for the chat core
type Config struct {
	// OpenAI settings
	OpenAIKey     string
	OpenAIBaseURL string
	ChatModel     string
	Timeout       time.Duration

	// Profile store settings
	StoreBackend string
	SQLitePath   string
	CharmHost    string
	CharmDBName  string
	AutoSync     bool

	// Session settings
	UserID                string
	EnrichmentProbability float64
	DiscardStaleReplies   bool
	Videos                string
	// Recommendations come from [[session.recommendations]] tables in the config file
	Recommendations []enrichment.Video

	LogLevel string

	// File is the config file that was read, empty when none was found
	File string
}

// envBindings maps viper keys to environment variables. OpenAI and Charm settings
// use the names those tools already read.
var envBindings = map[string]string{
	"openai.api_key":                 "OPENAI_API_KEY",
	"openai.base_url":                "OPENAI_BASE_URL",
	"openai.model":                   "CONFIDANT_OPENAI_MODEL",
	"openai.timeout":                 "OPENAI_TIMEOUT",
	"store.backend":                  "CONFIDANT_STORE",
	"store.sqlite_path":              "CONFIDANT_SQLITE_PATH",
	"charm.host":                     "CHARM_HOST",
	"charm.db":                       "CHARM_DB",
	"charm.auto_sync":                "CHARM_AUTO_SYNC",
	"session.user_id":                "CONFIDANT_USER_ID",
	"session.enrichment_probability": "CONFIDANT_ENRICHMENT_PROBABILITY",
	"session.discard_stale_replies":  "CONFIDANT_DISCARD_STALE_REPLIES",
	"session.videos":                 "CONFIDANT_VIDEOS",
	"log.level":                      "CONFIDANT_LOG_LEVEL",
}

// DefaultFile returns $XDG_CONFIG_HOME/confidant/config.toml
func DefaultFile() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		configHome = xdg.ConfigHome
	}
	return filepath.Join(configHome, "confidant", "config.toml")
}

// Load reads configuration from the default config file (if present) and the environment
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile reads configuration from path, or the default file when path is empty.
// A missing default file is fine; a missing explicit file is an error.
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("openai.model", "gpt-3.5-turbo")
	v.SetDefault("openai.timeout", time.Duration(0))
	v.SetDefault("store.backend", StoreCharm)
	v.SetDefault("charm.host", "cloud.charm.sh")
	v.SetDefault("charm.db", "confidant")
	v.SetDefault("charm.auto_sync", true)
	v.SetDefault("session.enrichment_probability", 0.5)
	v.SetDefault("session.discard_stale_replies", true)
	v.SetDefault("log.level", "info")

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("binding %s: %w", env, err)
		}
	}

	explicit := path != ""
	if !explicit {
		path = DefaultFile()
	}
	v.SetConfigFile(path)
	v.SetConfigType("toml")

	file := ""
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit || !(errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)) {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	} else {
		file = path
	}

	cfg := &Config{
		OpenAIKey:             v.GetString("openai.api_key"),
		OpenAIBaseURL:         v.GetString("openai.base_url"),
		ChatModel:             v.GetString("openai.model"),
		Timeout:               v.GetDuration("openai.timeout"),
		StoreBackend:          v.GetString("store.backend"),
		SQLitePath:            v.GetString("store.sqlite_path"),
		CharmHost:             v.GetString("charm.host"),
		CharmDBName:           v.GetString("charm.db"),
		AutoSync:              v.GetBool("charm.auto_sync"),
		UserID:                v.GetString("session.user_id"),
		EnrichmentProbability: v.GetFloat64("session.enrichment_probability"),
		DiscardStaleReplies:   v.GetBool("session.discard_stale_replies"),
		Videos:                v.GetString("session.videos"),
		LogLevel:              v.GetString("log.level"),
		File:                  file,
	}

	if err := v.UnmarshalKey("session.recommendations", &cfg.Recommendations); err != nil {
		return nil, fmt.Errorf("reading session.recommendations: %w", err)
	}

	return cfg, cfg.Validate()
}

// Validate checks ranges and enumerations
func (c *Config) Validate() error {
	if c.EnrichmentProbability < 0 || c.EnrichmentProbability > 1 {
		return fmt.Errorf("CONFIDANT_ENRICHMENT_PROBABILITY must be 0-1, got %f", c.EnrichmentProbability)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("OPENAI_TIMEOUT must not be negative, got %v", c.Timeout)
	}
	switch c.StoreBackend {
	case StoreCharm, StoreSQLite:
	default:
		return fmt.Errorf("CONFIDANT_STORE must be %q or %q, got %q", StoreCharm, StoreSQLite, c.StoreBackend)
	}
	return nil
}

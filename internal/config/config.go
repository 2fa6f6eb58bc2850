package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix               = "LEXFLOW"
	defaultHTTPAddress      = "0.0.0.0:8080"
	defaultDatabasePath     = "lexflow.db"
	defaultLogLevel         = "info"
	defaultAutosaveInterval = 5 * time.Minute
	defaultPresenceInterval = 15 * time.Second
	defaultDebounceWindow   = 500 * time.Millisecond
	defaultHistoryLimit     = 20
	defaultChangeLogLimit   = 200
)

// AppConfig captures runtime configuration for the draft API server.
type AppConfig struct {
	HTTPAddress      string
	DatabasePath     string
	RedisAddress     string
	LogLevel         string
	AutosaveInterval time.Duration
	PresenceInterval time.Duration
	DebounceWindow   time.Duration
	HistoryLimit     int
	ChangeLogLimit   int
	ExportBaseURL    string
	DraftgenBaseURL  string
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("database.path", defaultDatabasePath)
	configViper.SetDefault("redis.address", "")
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("draft.autosave_interval", defaultAutosaveInterval)
	configViper.SetDefault("draft.presence_interval", defaultPresenceInterval)
	configViper.SetDefault("draft.debounce_window", defaultDebounceWindow)
	configViper.SetDefault("draft.history_limit", defaultHistoryLimit)
	configViper.SetDefault("draft.changelog_limit", defaultChangeLogLimit)
	configViper.SetDefault("export.base_url", "")
	configViper.SetDefault("draftgen.base_url", "")
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:      configViper.GetString("http.address"),
		DatabasePath:     configViper.GetString("database.path"),
		RedisAddress:     configViper.GetString("redis.address"),
		LogLevel:         configViper.GetString("log.level"),
		AutosaveInterval: configViper.GetDuration("draft.autosave_interval"),
		PresenceInterval: configViper.GetDuration("draft.presence_interval"),
		DebounceWindow:   configViper.GetDuration("draft.debounce_window"),
		HistoryLimit:     configViper.GetInt("draft.history_limit"),
		ChangeLogLimit:   configViper.GetInt("draft.changelog_limit"),
		ExportBaseURL:    configViper.GetString("export.base_url"),
		DraftgenBaseURL:  configViper.GetString("draftgen.base_url"),
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c AppConfig) validate() error {
	if strings.TrimSpace(c.HTTPAddress) == "" {
		return fmt.Errorf("http.address is required")
	}
	if strings.TrimSpace(c.DatabasePath) == "" && strings.TrimSpace(c.RedisAddress) == "" {
		return fmt.Errorf("database.path or redis.address is required")
	}
	if c.AutosaveInterval <= 0 {
		return fmt.Errorf("draft.autosave_interval must be positive")
	}
	if c.PresenceInterval <= 0 {
		return fmt.Errorf("draft.presence_interval must be positive")
	}
	if c.DebounceWindow <= 0 {
		return fmt.Errorf("draft.debounce_window must be positive")
	}
	if c.HistoryLimit <= 0 {
		return fmt.Errorf("draft.history_limit must be positive")
	}
	if c.ChangeLogLimit <= 0 {
		return fmt.Errorf("draft.changelog_limit must be positive")
	}
	return nil
}

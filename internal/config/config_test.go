package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(NewViper())
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}

	if cfg.HTTPAddress != "0.0.0.0:8080" {
		t.Fatalf("expected default http address, got %q", cfg.HTTPAddress)
	}
	if cfg.DatabasePath != "lexflow.db" {
		t.Fatalf("expected default database path, got %q", cfg.DatabasePath)
	}
	if cfg.AutosaveInterval != 5*time.Minute {
		t.Fatalf("expected default autosave interval, got %v", cfg.AutosaveInterval)
	}
	if cfg.PresenceInterval != 15*time.Second {
		t.Fatalf("expected default presence interval, got %v", cfg.PresenceInterval)
	}
	if cfg.DebounceWindow != 500*time.Millisecond {
		t.Fatalf("expected default debounce window, got %v", cfg.DebounceWindow)
	}
	if cfg.HistoryLimit != 20 || cfg.ChangeLogLimit != 200 {
		t.Fatalf("expected default list limits, got %d and %d", cfg.HistoryLimit, cfg.ChangeLogLimit)
	}
}

func TestLoadOverrides(t *testing.T) {
	configViper := NewViper()
	configViper.Set("http.address", "127.0.0.1:9090")
	configViper.Set("redis.address", "127.0.0.1:6379")
	configViper.Set("draft.autosave_interval", "90s")
	configViper.Set("draft.history_limit", 5)

	cfg, err := Load(configViper)
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if cfg.HTTPAddress != "127.0.0.1:9090" {
		t.Fatalf("expected overridden address, got %q", cfg.HTTPAddress)
	}
	if cfg.RedisAddress != "127.0.0.1:6379" {
		t.Fatalf("expected redis address, got %q", cfg.RedisAddress)
	}
	if cfg.AutosaveInterval != 90*time.Second {
		t.Fatalf("expected overridden autosave interval, got %v", cfg.AutosaveInterval)
	}
	if cfg.HistoryLimit != 5 {
		t.Fatalf("expected overridden history limit, got %d", cfg.HistoryLimit)
	}
}

func TestLoadValidation(t *testing.T) {
	testCases := []struct {
		name  string
		key   string
		value any
	}{
		{name: "missing http address", key: "http.address", value: " "},
		{name: "non-positive autosave interval", key: "draft.autosave_interval", value: "0s"},
		{name: "non-positive presence interval", key: "draft.presence_interval", value: "-1s"},
		{name: "non-positive debounce window", key: "draft.debounce_window", value: "0ms"},
		{name: "non-positive history limit", key: "draft.history_limit", value: 0},
		{name: "non-positive changelog limit", key: "draft.changelog_limit", value: -1},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			configViper := NewViper()
			configViper.Set(testCase.key, testCase.value)
			if _, err := Load(configViper); err == nil {
				t.Fatalf("expected a validation error")
			}
		})
	}
}

func TestLoadRequiresSomeStore(t *testing.T) {
	configViper := NewViper()
	configViper.Set("database.path", "")
	configViper.Set("redis.address", "")
	if _, err := Load(configViper); err == nil {
		t.Fatalf("expected an error when no store is configured")
	}
}

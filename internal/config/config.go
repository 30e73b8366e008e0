// Package config loads the dashboard client configuration from a JSON file,
// falling back to defaults for anything unset.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// LogConfig controls the client's log sink.
type LogConfig struct {
	Level string `json:"level"`
	Path  string `json:"path"`
}

// Config holds all client settings.
type Config struct {
	// Endpoint is the ws:// or wss:// URL of the agent gateway.
	Endpoint string `json:"endpoint"`
	// ReconnectDelaySeconds is the fixed pause before each reconnect
	// attempt. There is no backoff and no retry cap.
	ReconnectDelaySeconds int `json:"reconnect_delay_seconds"`
	// StorePath is the SQLite file holding the persisted session set.
	StorePath string    `json:"store_path"`
	Log       LogConfig `json:"log"`
}

// Default returns the built-in configuration.
func Default() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	base := filepath.Join(home, ".agentdeck")
	return &Config{
		Endpoint:              "ws://127.0.0.1:8765/ws",
		ReconnectDelaySeconds: 3,
		StorePath:             filepath.Join(base, "sessions.db"),
		Log: LogConfig{
			Level: "info",
			Path:  filepath.Join(base, "agentdeck.log"),
		},
	}
}

// Load reads a config file over the defaults. A missing file is not an
// error; the defaults are returned unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Endpoint == "" {
		return errors.New("endpoint must not be empty")
	}
	if c.ReconnectDelaySeconds <= 0 {
		return errors.New("reconnect_delay_seconds must be positive")
	}
	return nil
}

// ReconnectDelay returns the reconnect pause as a duration.
func (c *Config) ReconnectDelay() time.Duration {
	return time.Duration(c.ReconnectDelaySeconds) * time.Second
}

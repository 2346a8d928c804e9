// Package config loads runtime settings from an optional YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config keeps runtime settings for the planner server and CLI.
type Config struct {
	// ListenAddr is the host:port the HTTP API binds to.
	ListenAddr string `yaml:"listen_addr"`
	// DatabasePath is the SQLite file path.
	DatabasePath string `yaml:"database_path"`
	// AuthToken, when set, is required as a bearer token on API requests.
	AuthToken string `yaml:"auth_token"`
	// Owner is the default owner id for CLI operations.
	Owner string `yaml:"owner"`
	// RetentionDays controls how long completion records for recurring
	// tasks are kept. Zero or negative disables pruning.
	RetentionDays int `yaml:"retention_days"`
}

// Default returns the configuration used when no file and no environment
// overrides are present.
func Default() Config {
	return Config{
		ListenAddr:    ":8080",
		DatabasePath:  "weekplanner.db",
		Owner:         "default",
		RetentionDays: 365,
	}
}

// Load reads the YAML file at path when it exists, then applies
// environment overrides. A missing file is not an error; a malformed
// file is.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// fall through to env overrides
		case err != nil:
			return cfg, fmt.Errorf("config: read %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("config: parse %s: %w", path, err)
			}
		}
	}

	applyEnv(&cfg)

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("WEEKPLANNER_LISTEN_ADDR")); v != "" {
		cfg.ListenAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("WEEKPLANNER_DB_PATH")); v != "" {
		cfg.DatabasePath = v
	}
	if v := strings.TrimSpace(os.Getenv("WEEKPLANNER_AUTH_TOKEN")); v != "" {
		cfg.AuthToken = v
	}
	if v := strings.TrimSpace(os.Getenv("WEEKPLANNER_OWNER")); v != "" {
		cfg.Owner = v
	}
	if v := strings.TrimSpace(os.Getenv("WEEKPLANNER_RETENTION_DAYS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RetentionDays = n
		}
	}
}

func (c Config) validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("config: listen_addr is required")
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("config: database_path is required")
	}
	if c.Owner == "" {
		return fmt.Errorf("config: owner is required")
	}
	return nil
}

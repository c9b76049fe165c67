// Package config loads the process configuration once at startup from
// the environment variables listed in the external-interfaces section
// of the design: DATABASE_URL, EVENT_STREAM_URL, GITOPS_REPO_URL,
// GITOPS_SSH_KEY_PATH, GITHUB_TOKEN, OTLP_ENDPOINT, LOG_LEVEL. There is
// no further config layer (no Viper, no koanf); an optional YAML file
// named by CONFIG_FILE supplies defaults that the environment
// variables above still override, for operators who prefer a checked-
// in config file over a pile of exported env vars.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is immutable once loaded; every long-running process reads it
// exactly once in main.
type Config struct {
	DatabaseURL      string `yaml:"database_url"`
	EventStreamURL   string `yaml:"event_stream_url"`
	GitOpsRepoURL    string `yaml:"gitops_repo_url"`
	GitOpsSSHKeyPath string `yaml:"gitops_ssh_key_path"`
	GitHubToken      string `yaml:"github_token"`
	OTLPEndpoint     string `yaml:"otlp_endpoint"`
	LogLevel         string `yaml:"log_level"`
	StateDir         string `yaml:"state_dir"`
}

// FromEnv populates a Config from an optional CONFIG_FILE YAML file
// followed by the process environment, applying the same defaults the
// CLI and the three long-running processes share. Environment
// variables win over the file, which wins over the built-in defaults.
func FromEnv() Config {
	cfg := Config{
		DatabaseURL: "sqlite://orchestrator.db",
		LogLevel:    "info",
		StateDir:    "./orchestrator-data",
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if loaded, err := loadFile(path, cfg); err == nil {
			cfg = loaded
		} else {
			fmt.Fprintf(os.Stderr, "config: ignoring CONFIG_FILE %s: %v\n", path, err)
		}
	}

	cfg.DatabaseURL = getenv("DATABASE_URL", cfg.DatabaseURL)
	cfg.EventStreamURL = getenv("EVENT_STREAM_URL", cfg.EventStreamURL)
	cfg.GitOpsRepoURL = getenv("GITOPS_REPO_URL", cfg.GitOpsRepoURL)
	cfg.GitOpsSSHKeyPath = getenv("GITOPS_SSH_KEY_PATH", cfg.GitOpsSSHKeyPath)
	cfg.GitHubToken = getenv("GITHUB_TOKEN", cfg.GitHubToken)
	cfg.OTLPEndpoint = getenv("OTLP_ENDPOINT", cfg.OTLPEndpoint)
	cfg.LogLevel = getenv("LOG_LEVEL", cfg.LogLevel)
	cfg.StateDir = getenv("STATE_DIR", cfg.StateDir)
	return cfg
}

// loadFile reads a YAML config file over base, leaving fields it does
// not mention at their value in base.
func loadFile(path string, base Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	cfg := base
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

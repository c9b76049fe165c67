package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)
	cfg := FromEnv()
	require.Equal(t, "sqlite://orchestrator.db", cfg.DatabaseURL)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, "./orchestrator-data", cfg.StateDir)
}

func TestFromEnv_FileThenEnvOverride(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "orchestrator.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database_url: sqlite:///var/lib/orchestrator.db
log_level: debug
state_dir: /var/lib/orchestrator
`), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("LOG_LEVEL", "warn")

	cfg := FromEnv()
	require.Equal(t, "sqlite:///var/lib/orchestrator.db", cfg.DatabaseURL, "file value used when env is unset")
	require.Equal(t, "/var/lib/orchestrator", cfg.StateDir)
	require.Equal(t, "warn", cfg.LogLevel, "env var overrides the file")
}

func TestFromEnv_MissingConfigFileFallsBackToDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "does-not-exist.yaml"))

	cfg := FromEnv()
	require.Equal(t, "sqlite://orchestrator.db", cfg.DatabaseURL)
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONFIG_FILE", "DATABASE_URL", "EVENT_STREAM_URL", "GITOPS_REPO_URL",
		"GITOPS_SSH_KEY_PATH", "GITHUB_TOKEN", "OTLP_ENDPOINT", "LOG_LEVEL", "STATE_DIR",
	} {
		t.Setenv(key, "")
	}
}

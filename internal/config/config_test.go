package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadReadsYAML(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("DATABASE_URL", "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "9090"
game:
  maxPlayers: 6
  roundDuration: 5m
generator:
  source: static
  fallback: true
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 6, cfg.Game.MaxPlayers)
	assert.Equal(t, 5*time.Minute, TTLDuration(cfg.Game.RoundDuration, 0))
	assert.Equal(t, "static", cfg.Generator.Source)
	assert.True(t, cfg.Generator.Fallback)
}

func TestLoadMissingFileUsesEnvironment(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "gsk_test")
	t.Setenv("REDIS_ADDR", "localhost:6380")
	t.Setenv("DATABASE_URL", "postgres://quiz@localhost/quiz")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "gsk_test", cfg.Generator.APIKey)
	assert.Equal(t, "localhost:6380", cfg.Redis.Addr)
	assert.Equal(t, "postgres://quiz@localhost/quiz", cfg.Postgres.URL)
}

func TestLoadKeepsConfiguredAPIKey(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "from-env")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("generator:\n  apiKey: from-file\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.Generator.APIKey)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unterminated"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, time.Minute, TTLDuration("", time.Minute))
	assert.Equal(t, time.Minute, TTLDuration("soon", time.Minute))
	assert.Equal(t, 90*time.Second, TTLDuration("90s", time.Minute))
	assert.Equal(t, 4, IntOr(0, 4))
	assert.Equal(t, 4, IntOr(-2, 4))
	assert.Equal(t, 7, IntOr(7, 4))
}

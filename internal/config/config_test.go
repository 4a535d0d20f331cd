package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c00lestkats/open-binmat/internal/game/rules"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	assert.Equal(t, "binmat:game:", cfg.Store.Redis.Prefix)
	assert.Equal(t, 24*time.Hour, cfg.Store.Redis.TTL)

	settings := cfg.GameSettings()
	assert.Equal(t, 110, settings.TurnLimit)
	assert.Equal(t, rules.OrderPlayerIndex, settings.Ord)
	assert.Equal(t, 2, settings.MarkInactiveTurns)
	assert.False(t, settings.KickOnInactive)
	assert.False(t, settings.AllowMultipleControl)
	assert.Empty(t, settings.Seed)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: debug
  format: json
game:
  turn_limit: 40
  ord: random
  kick_on_inactive: true
store:
  driver: redis
  redis:
    addr: cache:6379
    ttl: 30m
replay:
  enabled: true
  dir: /tmp/replays
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 40, cfg.Game.TurnLimit)
	assert.Equal(t, rules.OrderRandom, cfg.GameSettings().Ord)
	assert.True(t, cfg.Game.KickOnInactive)
	assert.Equal(t, 2, cfg.Game.MarkInactiveTurns, "unset keys keep their defaults")
	assert.Equal(t, DriverRedis, cfg.Store.Driver)
	assert.Equal(t, "cache:6379", cfg.Store.Redis.Addr)
	assert.Equal(t, 30*time.Minute, cfg.Store.Redis.TTL)
	assert.True(t, cfg.Replay.Enabled)
	assert.Equal(t, "/tmp/replays", cfg.Replay.Dir)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("BINMAT_GAME_TURN_LIMIT", "12")
	t.Setenv("BINMAT_LOGGING_LEVEL", "warn")

	path := writeConfig(t, "game:\n  turn_limit: 40\n")
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 12, cfg.Game.TurnLimit)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown driver", func(c *Config) { c.Store.Driver = "sqlite" }},
		{"unknown order", func(c *Config) { c.Game.Ord = "byName" }},
		{"zero turn limit", func(c *Config) { c.Game.TurnLimit = 0 }},
		{"negative inactivity", func(c *Config) { c.Game.MarkInactiveTurns = -1 }},
		{"postgres without dsn", func(c *Config) { c.Store.Driver = DriverPostgres }},
		{"replay without dir", func(c *Config) { c.Replay.Enabled = true; c.Replay.Dir = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, base().Validate())
}

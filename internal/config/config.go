package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/c00lestkats/open-binmat/internal/game"
	"github.com/c00lestkats/open-binmat/internal/game/rules"
)

// EnvPrefix prefixes every environment override, e.g. BINMAT_STORE_DRIVER.
const EnvPrefix = "BINMAT"

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

type Config struct {
	Logging LoggingConfig `mapstructure:"logging"`
	Game    GameConfig    `mapstructure:"game"`
	Store   StoreConfig   `mapstructure:"store"`
	Replay  ReplayConfig  `mapstructure:"replay"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// GameConfig holds the default rule settings for new games.
type GameConfig struct {
	TurnLimit            int    `mapstructure:"turn_limit"`
	Ord                  string `mapstructure:"ord"`
	MarkInactiveTurns    int    `mapstructure:"mark_inactive_turns"`
	KickOnInactive       bool   `mapstructure:"kick_on_inactive"`
	AllowMultipleControl bool   `mapstructure:"allow_multiple_control"`
}

type StoreConfig struct {
	Driver   string         `mapstructure:"driver"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	DSN      string `mapstructure:"dsn"`
	MaxConns int    `mapstructure:"max_conns"`
	Table    string `mapstructure:"table"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type ReplayConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir"`
}

func setDefaults(v *viper.Viper) {
	defaults := game.DefaultSettings()

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("game.turn_limit", defaults.TurnLimit)
	v.SetDefault("game.ord", string(defaults.Ord))
	v.SetDefault("game.mark_inactive_turns", defaults.MarkInactiveTurns)
	v.SetDefault("game.kick_on_inactive", defaults.KickOnInactive)
	v.SetDefault("game.allow_multiple_control", defaults.AllowMultipleControl)

	v.SetDefault("store.driver", DriverMemory)
	v.SetDefault("store.postgres.dsn", "")
	v.SetDefault("store.postgres.max_conns", 4)
	v.SetDefault("store.postgres.table", "binmat_games")
	v.SetDefault("store.redis.addr", "localhost:6379")
	v.SetDefault("store.redis.password", "")
	v.SetDefault("store.redis.db", 0)
	v.SetDefault("store.redis.prefix", "binmat:game:")
	v.SetDefault("store.redis.ttl", 24*time.Hour)

	v.SetDefault("replay.enabled", false)
	v.SetDefault("replay.dir", "replays")
}

// Load reads configuration from defaults, the YAML file at path (skipped when
// path is empty) and BINMAT_ environment variables, in increasing priority.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values Load cannot constrain by type.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverMemory, DriverPostgres, DriverRedis:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if !rules.OrderMode(c.Game.Ord).Valid() {
		return fmt.Errorf("unknown seat order %q", c.Game.Ord)
	}
	if c.Game.TurnLimit < 1 {
		return fmt.Errorf("turn limit must be at least 1, got %d", c.Game.TurnLimit)
	}
	if c.Game.MarkInactiveTurns < 0 {
		return fmt.Errorf("mark_inactive_turns must not be negative, got %d", c.Game.MarkInactiveTurns)
	}
	if c.Store.Driver == DriverPostgres && c.Store.Postgres.DSN == "" {
		return fmt.Errorf("store.postgres.dsn is required for the postgres driver")
	}
	if c.Replay.Enabled && c.Replay.Dir == "" {
		return fmt.Errorf("replay.dir is required when replays are enabled")
	}
	return nil
}

// GameSettings maps the game section onto rule settings for a new game.
func (c *Config) GameSettings() game.Settings {
	return game.Settings{
		TurnLimit:            c.Game.TurnLimit,
		Ord:                  rules.OrderMode(c.Game.Ord),
		MarkInactiveTurns:    c.Game.MarkInactiveTurns,
		KickOnInactive:       c.Game.KickOnInactive,
		AllowMultipleControl: c.Game.AllowMultipleControl,
	}
}

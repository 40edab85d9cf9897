// Package config provides Viper-based configuration loading for skirmish.
package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
	// Output is "stderr", "stdout", or a file path. Empty means stderr.
	Output string `mapstructure:"output"`
}

// EngineConfig holds encounter runtime settings.
type EngineConfig struct {
	// Seed seeds the deterministic random source. Zero selects the
	// cryptographic source.
	Seed uint32 `mapstructure:"seed"`
	// TurnTimeout auto-advances a turn left idle this long. Zero disables it.
	TurnTimeout time.Duration `mapstructure:"turn_timeout"`
	// MaxRounds caps simulated encounters.
	MaxRounds int `mapstructure:"max_rounds"`
}

// ContentConfig holds the locations of data-driven content.
type ContentConfig struct {
	ConditionsDir string `mapstructure:"conditions_dir"`
	TacticsDir    string `mapstructure:"tactics_dir"`
	ScriptsDir    string `mapstructure:"scripts_dir"`
	// ScriptInstructionLimit bounds each Lua hook call. Zero means unlimited.
	ScriptInstructionLimit int `mapstructure:"script_instruction_limit"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging  LoggingConfig  `mapstructure:"logging"`
	Database DatabaseConfig `mapstructure:"database"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Content  ContentConfig  `mapstructure:"content"`
}

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"json", "console"}
	sslModes   = []string{"disable", "require", "verify-ca", "verify-full"}
)

// violations accumulates failed rules in the order they were checked.
type violations []string

func (v *violations) check(ok bool, format string, args ...any) {
	if !ok {
		*v = append(*v, fmt.Sprintf(format, args...))
	}
}

func (v *violations) oneOf(key, got string, allowed []string) {
	v.check(slices.Contains(allowed, got), "%s must be one of [%s], got %q", key, strings.Join(allowed, ", "), got)
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var v violations

	v.oneOf("logging.level", c.Logging.Level, logLevels)
	v.oneOf("logging.format", c.Logging.Format, logFormats)

	db := c.Database
	v.check(db.Host != "", "database.host must not be empty")
	v.check(db.Port >= 1 && db.Port <= 65535, "database.port must be 1-65535, got %d", db.Port)
	v.check(db.User != "", "database.user must not be empty")
	v.check(db.Name != "", "database.name must not be empty")
	v.oneOf("database.sslmode", db.SSLMode, sslModes)
	v.check(db.MaxConns >= 1, "database.max_conns must be >= 1, got %d", db.MaxConns)
	v.check(db.MinConns >= 0, "database.min_conns must be >= 0, got %d", db.MinConns)
	v.check(db.MinConns <= db.MaxConns, "database.min_conns must not exceed database.max_conns")

	v.check(c.Engine.TurnTimeout >= 0, "engine.turn_timeout must not be negative")
	v.check(c.Engine.MaxRounds >= 1, "engine.max_rounds must be >= 1, got %d", c.Engine.MaxRounds)

	v.check(c.Content.ScriptInstructionLimit >= 0,
		"content.script_instruction_limit must be >= 0, got %d", c.Content.ScriptInstructionLimit)

	if len(v) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(v, "; "))
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := NewViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	return LoadFromViper(v)
}

// NewViper returns a Viper instance carrying the defaults and SKIRMISH_
// environment overrides, with no config file attached.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("SKIRMISH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stderr")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "skirmish")
	v.SetDefault("database.password", "skirmish")
	v.SetDefault("database.name", "skirmish")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("engine.seed", 0)
	v.SetDefault("engine.turn_timeout", "0s")
	v.SetDefault("engine.max_rounds", 20)

	v.SetDefault("content.conditions_dir", "content/conditions")
	v.SetDefault("content.tactics_dir", "content/tactics")
	v.SetDefault("content.scripts_dir", "content/scripts")
	v.SetDefault("content.script_instruction_limit", 100000)
}

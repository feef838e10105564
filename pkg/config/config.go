package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
)

// EnvPrefix prefixes environment overrides. A double underscore separates
// key levels: TABLESPEC_SERVER__ADDR sets server.addr.
const EnvPrefix = "TABLESPEC_"

// Config is the demo server configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Logging  LoggingConfig  `koanf:"logging"`
	Tables   TablesConfig   `koanf:"tables"`
}

type ServerConfig struct {
	Addr string `koanf:"addr"`
	// Router is mux or bunrouter.
	Router string `koanf:"router"`
}

type DatabaseConfig struct {
	// Driver is gorm or bun.
	Driver string `koanf:"driver"`
	DSN    string `koanf:"dsn"`
	Seed   bool   `koanf:"seed"`
}

type LoggingConfig struct {
	Dev    bool     `koanf:"dev"`
	Level  string   `koanf:"level"`
	Output []string `koanf:"output"`
}

type TablesConfig struct {
	// PerPage overrides the default page size when positive.
	PerPage int `koanf:"per_page"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"server.addr":     ":8080",
		"server.router":   "mux",
		"database.driver": "gorm",
		"database.dsn":    "file::memory:?cache=shared",
		"database.seed":   true,
		"logging.dev":     false,
		"logging.level":   "info",
		"logging.output":  []string{"stderr"},
		"tables.per_page": 0,
	}
}

// Load reads defaults, then the TOML file at path when path is not empty,
// then the environment.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

// Validate checks the enumerated settings.
func (c *Config) Validate() error {
	switch c.Server.Router {
	case "mux", "bunrouter":
	default:
		return fmt.Errorf("server.router must be mux or bunrouter, got %q", c.Server.Router)
	}
	switch c.Database.Driver {
	case "gorm", "bun":
	default:
		return fmt.Errorf("database.driver must be gorm or bun, got %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if c.Tables.PerPage < 0 {
		return fmt.Errorf("tables.per_page must not be negative, got %d", c.Tables.PerPage)
	}
	return nil
}

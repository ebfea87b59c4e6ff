package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Storage drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Config holds runtime settings for the server and the CLI.
type Config struct {
	LogLevel        string        `yaml:"log_level" env:"LOG_LEVEL" env-default:"INFO"`
	Address         string        `yaml:"address" env:"TASKBOARD_ADDRESS" env-default:":8080"`
	Driver          string        `yaml:"driver" env:"TASKBOARD_DRIVER" env-default:"postgres"`
	DatabaseURL     string        `yaml:"database_url" env:"DATABASE_URL"`
	SQLitePath      string        `yaml:"sqlite_path" env:"TASKBOARD_SQLITE_PATH" env-default:"taskboard.db"`
	Project         string        `yaml:"project" env:"TASKBOARD_PROJECT"`
	Actor           string        `yaml:"actor" env:"TASKBOARD_ACTOR" env-default:"api"`
	OverdueInterval time.Duration `yaml:"overdue_interval" env:"TASKBOARD_OVERDUE_INTERVAL" env-default:"15m"`
	APIKey          string        `yaml:"api_key" env:"TASKBOARD_API_KEY"`

	// EnforceTransitions rejects disallowed kanban moves up front instead
	// of applying them optimistically.
	EnforceTransitions bool `yaml:"enforce_transitions" env:"TASKBOARD_ENFORCE_TRANSITIONS" env-default:"false"`
}

// Load reads configPath when it exists, falling back to the environment
// alone when it does not.
func Load(configPath string) (Config, error) {
	var cfg Config

	if configPath == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return cfg, fmt.Errorf("read env: %w", err)
		}
		return cfg, cfg.validate()
	}

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		var pe *os.PathError
		if !errors.As(err, &pe) {
			return cfg, fmt.Errorf("read config %q: %w", configPath, err)
		}
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return cfg, fmt.Errorf("read env: %w", err)
		}
	}
	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	c.Driver = strings.ToLower(strings.TrimSpace(c.Driver))
	switch c.Driver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the %s driver", c.Driver)
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("TASKBOARD_SQLITE_PATH must not be empty")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown driver %q (want postgres, sqlite or memory)", c.Driver)
	}
	if c.OverdueInterval < 0 {
		return fmt.Errorf("TASKBOARD_OVERDUE_INTERVAL must not be negative, got %s", c.OverdueInterval)
	}
	return nil
}

// Level maps LogLevel onto slog levels.
func (c Config) Level() slog.Level {
	switch strings.ToUpper(c.LogLevel) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

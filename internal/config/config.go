package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   Server   `yaml:"server"`
	Log      Log      `yaml:"log"`
	Redis    Redis    `yaml:"redis"`
	Postgres Postgres `yaml:"postgres"`
	Trivia   Trivia   `yaml:"trivia"`
	Quiz     Quiz     `yaml:"quiz"`
}

type Server struct {
	Port string `yaml:"port" env:"PORT"`
}

type Log struct {
	Level string `yaml:"level" env:"LOG_LEVEL"`
}

type Redis struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB"`
	TTL      string `yaml:"ttl" env:"REDIS_TTL"`
}

type Postgres struct {
	URL string `yaml:"url" env:"POSTGRES_URL"`
}

// Trivia selects and tunes the question provider.
type Trivia struct {
	Source      string `yaml:"source" env:"TRIVIA_SOURCE"` // opentdb | postgres | static
	URL         string `yaml:"url" env:"TRIVIA_URL"`
	Amount      int    `yaml:"amount" env:"TRIVIA_AMOUNT"`
	Category    int    `yaml:"category" env:"TRIVIA_CATEGORY"`
	Difficulty  string `yaml:"difficulty" env:"TRIVIA_DIFFICULTY"`
	Type        string `yaml:"type" env:"TRIVIA_TYPE"`
	Timeout     string `yaml:"timeout" env:"TRIVIA_TIMEOUT"`
	MinInterval string `yaml:"min_interval" env:"TRIVIA_MIN_INTERVAL"`
}

type Quiz struct {
	DurationSeconds int `yaml:"duration_seconds" env:"QUIZ_DURATION_SECONDS"`
	// IdleTTL is how long a finished session is kept before it is reaped.
	IdleTTL string `yaml:"idle_ttl" env:"QUIZ_IDLE_TTL"`
}

// Load reads YAML config from path, then applies environment overrides.
// A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, err
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing environment: %w", err)
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

// SlogLevel returns the configured slog level, INFO when unset or invalid.
func (l Log) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const DefaultAPIURL = "https://rentacarros.onrender.com"

type Config struct {
	APIURL             string
	Port               string
	SessionSecret      string
	SessionIdleTimeout time.Duration
	SweepSchedule      string
	RequestTimeout     time.Duration
	LogLevel           slog.Level
	LogFormat          string
	SecureCookies      bool
}

// Load reads a .env file when present, then the process environment.
func Load() (*Config, error) {
	godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds the configuration from getenv, applying defaults.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		APIURL:        strings.TrimRight(getenv("API_URL"), "/"),
		Port:          getenv("PORT"),
		SessionSecret: getenv("SESSION_SECRET"),
		SweepSchedule: getenv("SWEEP_SCHEDULE"),
		LogFormat:     strings.ToLower(getenv("LOG_FORMAT")),
	}
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.SweepSchedule == "" {
		cfg.SweepSchedule = "@every 5m"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}

	var err error
	if cfg.SessionIdleTimeout, err = duration(getenv, "SESSION_IDLE_TIMEOUT", 30*time.Minute); err != nil {
		return nil, err
	}
	if cfg.RequestTimeout, err = duration(getenv, "REQUEST_TIMEOUT", 0); err != nil {
		return nil, err
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", v, err)
		}
	}
	if v := getenv("SECURE_COOKIES"); v != "" {
		if cfg.SecureCookies, err = strconv.ParseBool(v); err != nil {
			return nil, fmt.Errorf("invalid SECURE_COOKIES %q: %w", v, err)
		}
	}
	return cfg, nil
}

func duration(getenv func(string) string, key string, def time.Duration) (time.Duration, error) {
	v := getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative", key)
	}
	return d, nil
}

// NewLogger returns a logger writing to w in the configured format and level.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

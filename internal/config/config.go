package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

type Config struct {
	API     APIConfig
	Session SessionConfig
	Refresh RefreshConfig
	Weather WeatherConfig
	Metrics MetricsConfig
	Logging LoggingConfig
}

type APIConfig struct {
	BaseURL   string
	Timeout   time.Duration
	RateLimit int // requests per second, 0 disables throttling
}

type SessionConfig struct {
	Path string
}

type RefreshConfig struct {
	Interval time.Duration
}

type WeatherConfig struct {
	Location string
}

type MetricsConfig struct {
	Addr string
}

type LoggingConfig struct {
	Level string
}

func Load() (*Config, error) {
	cfg := &Config{
		API: APIConfig{
			BaseURL:   getEnv("API_URL", "http://localhost:5000/api"),
			Timeout:   getEnvDuration("API_TIMEOUT", 15*time.Second),
			RateLimit: getEnvInt("API_RATE_LIMIT", 0),
		},
		Session: SessionConfig{
			Path: getEnv("SESSION_DB_PATH", "./data/session.db"),
		},
		Refresh: RefreshConfig{
			Interval: getEnvDuration("REFRESH_INTERVAL", 30*time.Second),
		},
		Weather: WeatherConfig{
			Location: getEnv("WEATHER_LOCATION", "Delhi"),
		},
		Metrics: MetricsConfig{
			Addr: getEnv("METRICS_ADDR", ""),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid API url: %q", c.API.BaseURL)
	}

	if c.API.Timeout <= 0 {
		return fmt.Errorf("API timeout must be positive")
	}
	if c.API.RateLimit < 0 {
		return fmt.Errorf("invalid API rate limit: %d", c.API.RateLimit)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if c.Refresh.Interval < 5*time.Second {
		return fmt.Errorf("refresh interval must be at least 5 seconds")
	}

	if c.Session.Path == "" {
		return fmt.Errorf("session db path must not be empty")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}

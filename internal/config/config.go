package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds runtime configuration for the storefront client and the
// development backend.
type Config struct {
	// Client
	APIBaseURL              string        `yaml:"api_base_url"`
	RequestTimeout          time.Duration `yaml:"request_timeout"`
	StorePath               string        `yaml:"store_path"`
	LogLevel                string        `yaml:"log_level"`
	LogoutOnAnyProfileError bool          `yaml:"logout_on_any_profile_error"`

	// Development backend
	HTTPAddr        string        `yaml:"http_addr"`
	DBConnString    string        `yaml:"db_dsn"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	CORSOrigins     []string      `yaml:"cors_origins"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		APIBaseURL:      "http://localhost:3000",
		RequestTimeout:  15 * time.Second,
		StorePath:       defaultStorePath(),
		LogLevel:        "info",
		HTTPAddr:        ":3000",
		ShutdownTimeout: 10 * time.Second,
		CORSOrigins:     []string{"*"},
	}
}

// FromEnv builds Config with defaults, overridden by environment variables.
func FromEnv() Config {
	cfg := Defaults()
	applyEnv(&cfg)
	return cfg
}

// Load layers defaults, the YAML file at path (skipped when path is empty or
// the file does not exist) and environment variables, in that order.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	applyEnv(&cfg)
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.APIBaseURL = strings.TrimRight(envOrDefault("STOREFRONT_API_URL", cfg.APIBaseURL), "/")
	cfg.RequestTimeout = envDuration("STOREFRONT_HTTP_TIMEOUT_SECONDS", cfg.RequestTimeout)
	cfg.StorePath = envOrDefault("STOREFRONT_STORE_PATH", cfg.StorePath)
	cfg.LogLevel = envOrDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.LogoutOnAnyProfileError = envBool("LOGOUT_ON_ANY_PROFILE_ERROR", cfg.LogoutOnAnyProfileError)
	cfg.HTTPAddr = envOrDefault("HTTP_ADDR", cfg.HTTPAddr)
	cfg.DBConnString = envOrDefault("DB_DSN", cfg.DBConnString)
	cfg.ShutdownTimeout = envDuration("SHUTDOWN_TIMEOUT_SECONDS", cfg.ShutdownTimeout)
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = splitList(v)
	}
}

func defaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return ".storefront/store.db"
	}
	return dir + string(os.PathSeparator) + "storefront" + string(os.PathSeparator) + "store.db"
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		seconds, err := strconv.Atoi(v)
		if err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

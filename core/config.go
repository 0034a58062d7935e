package core

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds runtime settings for the API process.
type Config struct {
	Port                string   `yaml:"port"`                  // HTTP listen port (e.g., "3003")
	Secret              string   `yaml:"secret"`                // token signing secret; required
	DatabaseURL         string   `yaml:"database_url"`          // PostgreSQL DSN; required
	RedisURL            string   `yaml:"redis_url"`             // Redis URL for request metrics; optional
	LogDir              string   `yaml:"log_dir"`               // directory to write application logs
	TokenTTLMinutes     int      `yaml:"token_ttl_minutes"`     // token validity in minutes
	EnableTestingRoutes bool     `yaml:"enable_testing_routes"` // expose POST /api/testing/reset
	AllowedOrigins      []string `yaml:"allowed_origins"`       // allowed origins for CORS
}

// Load populates Config from environment variables, overlaid on an
// optional YAML file named by CONFIG_FILE. Environment values win.
func Load() Config {
	cfg := Config{}
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		// A broken config file is ignored rather than fatal; env vars
		// remain the authoritative source.
		if data, err := os.ReadFile(path); err == nil {
			_ = yaml.Unmarshal(data, &cfg)
		}
	}

	cfg.Port = firstNonEmpty(os.Getenv("PORT"), cfg.Port, "3003")
	cfg.Secret = firstNonEmpty(os.Getenv("SECRET"), cfg.Secret)
	cfg.DatabaseURL = firstNonEmpty(os.Getenv("DATABASE_URL"), os.Getenv("POSTGRES_URL"), cfg.DatabaseURL)
	cfg.RedisURL = firstNonEmpty(os.Getenv("REDIS_URL"), cfg.RedisURL)
	cfg.LogDir = firstNonEmpty(os.Getenv("LOG_DIR"), cfg.LogDir, "/var/log/bloglist")
	cfg.TokenTTLMinutes = intFromEnv("TOKEN_TTL_MINUTES", defaultInt(cfg.TokenTTLMinutes, 60))
	cfg.EnableTestingRoutes = boolFromEnv("ENABLE_TESTING_ROUTES", cfg.EnableTestingRoutes)
	if env := parseCSV(os.Getenv("ALLOWED_ORIGINS")); len(env) > 0 {
		cfg.AllowedOrigins = env
	}
	return cfg
}

// Validate reports missing settings that make startup impossible.
func (c Config) Validate() error {
	if c.Secret == "" {
		return errors.New("SECRET is required")
	}
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func defaultInt(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

// boolFromEnv reads a boolean from env var name, falling back to defaultVal when empty or invalid.
func boolFromEnv(name string, defaultVal bool) bool {
	if v := os.Getenv(name); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

// intFromEnv reads an int from env var name, falling back to defaultVal when empty or invalid.
func intFromEnv(name string, defaultVal int) int {
	if v := os.Getenv(name); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

// parseCSV splits comma-separated list and trims spaces; empty entries are skipped.
func parseCSV(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if t := strings.TrimSpace(v); t != "" {
			out = append(out, t)
		}
	}
	return out
}

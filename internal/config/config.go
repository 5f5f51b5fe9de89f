// Package config reads the service configuration from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// MinSecretLength is the shortest JWT secret accepted.
const MinSecretLength = 32

type Config struct {
	DBDriver    string
	DatabaseURL string
	Port        string

	JWTSecret   string
	JWTIssuer   string
	JWTAudience string

	// RedisURL enables cross-instance event fan-out when set.
	RedisURL     string
	RedisChannel string

	AllowedOrigins []string
	WSRateLimit    int

	LogLevel  string
	LogFormat string
}

// Load reads .env when present and then the environment. Values already set
// in the environment win over the file.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment only.
func FromEnv() (Config, error) {
	cfg := Config{
		DBDriver:       getenv("DB_DRIVER", "postgres"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		Port:           getenv("SERVER_PORT", "8080"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		JWTIssuer:      os.Getenv("JWT_ISSUER"),
		JWTAudience:    os.Getenv("JWT_AUDIENCE"),
		RedisURL:       os.Getenv("REDIS_URL"),
		RedisChannel:   getenv("REDIS_CHANNEL", "kanban:events"),
		AllowedOrigins: splitList(os.Getenv("ALLOWED_ORIGINS")),
		LogLevel:       getenv("LOG_LEVEL", "info"),
		LogFormat:      getenv("LOG_FORMAT", "text"),
	}
	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		cfg.LogLevel = "debug"
	}

	limit, err := getenvInt("WS_RATE_LIMIT", 5)
	if err != nil {
		return Config{}, err
	}
	cfg.WSRateLimit = limit

	if cfg.DatabaseURL == "" && cfg.DBDriver == "postgres" {
		cfg.DatabaseURL = postgresDSN()
	}
	return cfg, nil
}

// postgresDSN assembles a DSN from the POSTGRES_* variables, or returns ""
// when any of them is missing.
func postgresDSN() string {
	var vals []any
	for _, key := range postgresVars {
		v := os.Getenv(key)
		if v == "" {
			return ""
		}
		vals = append(vals, v)
	}
	return fmt.Sprintf("user=%s password=%s dbname=%s host=%s port=%s sslmode=disable", vals...)
}

var postgresVars = []string{"POSTGRES_USER", "POSTGRES_PASSWORD", "POSTGRES_DB", "POSTGRES_HOST", "POSTGRES_PORT"}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var errs []error
	switch c.DBDriver {
	case "postgres", "sqlite3":
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER must be postgres or sqlite3, got %q", c.DBDriver))
	}
	if c.DatabaseURL == "" {
		if c.DBDriver == "postgres" {
			var missing []string
			for _, key := range postgresVars {
				if os.Getenv(key) == "" {
					missing = append(missing, key)
				}
			}
			errs = append(errs, fmt.Errorf("DATABASE_URL or %s must be set", strings.Join(missing, ", ")))
		} else {
			errs = append(errs, errors.New("DATABASE_URL must be set"))
		}
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET must be set"))
	} else if len(c.JWTSecret) < MinSecretLength {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d characters", MinSecretLength))
	}
	if c.WSRateLimit <= 0 {
		errs = append(errs, errors.New("WS_RATE_LIMIT must be greater than zero"))
	}
	return errors.Join(errs...)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

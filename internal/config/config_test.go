package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allVars = []string{
	"DB_DRIVER", "DATABASE_URL", "SERVER_PORT", "JWT_SECRET", "JWT_ISSUER", "JWT_AUDIENCE",
	"REDIS_URL", "REDIS_CHANNEL", "ALLOWED_ORIGINS", "WS_RATE_LIMIT", "LOG_LEVEL", "LOG_FORMAT",
	"DEBUG", "POSTGRES_USER", "POSTGRES_PASSWORD", "POSTGRES_DB", "POSTGRES_HOST", "POSTGRES_PORT",
}

func clearEnv(t *testing.T) {
	for _, key := range allVars {
		t.Setenv(key, "")
	}
}

// unsetEnv removes keys for the rest of the test; godotenv only fills
// variables that are not present at all.
func unsetEnv(t *testing.T, keys ...string) {
	for _, key := range keys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

const secret = "0123456789abcdef0123456789abcdef"

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 5, cfg.WSRateLimit)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "kanban:events", cfg.RedisChannel)
	assert.Empty(t, cfg.AllowedOrigins)
	assert.Empty(t, cfg.DatabaseURL)
}

func TestFromEnv_PostgresQuintet(t *testing.T) {
	clearEnv(t)
	t.Setenv("POSTGRES_USER", "kanban")
	t.Setenv("POSTGRES_PASSWORD", "pw")
	t.Setenv("POSTGRES_DB", "boards")
	t.Setenv("POSTGRES_HOST", "db")
	t.Setenv("POSTGRES_PORT", "5432")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, ,http://b.test")
	t.Setenv("DEBUG", "true")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "user=kanban password=pw dbname=boards host=db port=5432 sslmode=disable", cfg.DatabaseURL)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestFromEnv_InvalidRateLimit(t *testing.T) {
	clearEnv(t)
	t.Setenv("WS_RATE_LIMIT", "lots")

	_, err := FromEnv()
	assert.ErrorContains(t, err, "WS_RATE_LIMIT")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr []string
	}{
		{
			name: "valid sqlite",
			cfg:  Config{DBDriver: "sqlite3", DatabaseURL: "kanban.db", JWTSecret: secret, WSRateLimit: 5},
		},
		{
			name:    "everything missing",
			cfg:     Config{DBDriver: "postgres"},
			wantErr: []string{"DATABASE_URL or POSTGRES_USER", "JWT_SECRET must be set", "WS_RATE_LIMIT"},
		},
		{
			name:    "short secret and bad driver",
			cfg:     Config{DBDriver: "mysql", DatabaseURL: "x", JWTSecret: "short", WSRateLimit: 1},
			wantErr: []string{"DB_DRIVER", "at least 32 characters"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			err := tt.cfg.Validate()
			if len(tt.wantErr) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			for _, want := range tt.wantErr {
				if !strings.Contains(err.Error(), want) {
					t.Fatalf("error %q does not mention %q", err, want)
				}
			}
		})
	}
}

func TestLoad_ReadsDotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("DB_DRIVER=sqlite3\nDATABASE_URL=file.db\nSERVER_PORT=9000\n"), 0o600))
	t.Chdir(dir)
	unsetEnv(t, "DB_DRIVER", "DATABASE_URL")
	// already set variables are not overridden by the file
	t.Setenv("SERVER_PORT", "7000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sqlite3", cfg.DBDriver)
	assert.Equal(t, "file.db", cfg.DatabaseURL)
	assert.Equal(t, "7000", cfg.Port)
}

func TestLoad_WithoutDotEnv(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	_, err := Load()
	assert.NoError(t, err)
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"DB_DRIVER", "DB_PATH", "DB_URL", "DB_CONNECT_ATTEMPTS", "LISTEN_ADDR", "SAVE_DEBOUNCE", "LOG_LEVEL", "AUTH_SECRET"} {
		t.Setenv(k, "")
	}

	cfg := FromEnv()
	assert.Equal(t, DriverSQLite, cfg.DBDriver)
	assert.Equal(t, "naskah.db", cfg.DataSource())
	assert.Equal(t, 5, cfg.DBConnectAttempts)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, DefaultDebounce, cfg.SaveDebounce)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.AuthSecret)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("DB_URL", "postgres://u:p@localhost/naskah")
	t.Setenv("DB_CONNECT_ATTEMPTS", "2")
	t.Setenv("SAVE_DEBOUNCE", "250ms")

	cfg := FromEnv()
	assert.Equal(t, DriverPostgres, cfg.DBDriver)
	assert.Equal(t, "postgres://u:p@localhost/naskah", cfg.DataSource())
	assert.Equal(t, 2, cfg.DBConnectAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.SaveDebounce)
}

func TestFromEnvIgnoresInvalidNumbers(t *testing.T) {
	t.Setenv("DB_CONNECT_ATTEMPTS", "-3")
	t.Setenv("SAVE_DEBOUNCE", "soon")

	cfg := FromEnv()
	assert.Equal(t, 5, cfg.DBConnectAttempts)
	assert.Equal(t, DefaultDebounce, cfg.SaveDebounce)
}

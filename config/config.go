package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"naskahlokal/pkg/logger"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	DefaultDebounce = 1500 * time.Millisecond
)

type Config struct {
	DBDriver          string
	DBPath            string
	DBURL             string
	DBConnectAttempts int
	ListenAddr        string
	SaveDebounce      time.Duration
	LogLevel          string
	AuthSecret        string
}

// Load reads a .env file if one exists and then the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		logger.Sugar.Debug("No .env file found, using environment variables from OS")
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment only.
func FromEnv() *Config {
	return &Config{
		DBDriver:          strings.ToLower(getEnv("DB_DRIVER", DriverSQLite)),
		DBPath:            getEnv("DB_PATH", "naskah.db"),
		DBURL:             getEnv("DB_URL", ""),
		DBConnectAttempts: getEnvInt("DB_CONNECT_ATTEMPTS", 5),
		ListenAddr:        getEnv("LISTEN_ADDR", ":8080"),
		SaveDebounce:      getEnvDuration("SAVE_DEBOUNCE", DefaultDebounce),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		AuthSecret:        getEnv("AUTH_SECRET", ""),
	}
}

// DataSource returns the driver specific connection string.
func (c *Config) DataSource() string {
	if c.DBDriver == DriverPostgres {
		return c.DBURL
	}
	return c.DBPath
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

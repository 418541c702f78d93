package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

type Config struct {
	AppPort string

	DBDriver string
	DBDSN    string

	// empty RedisAddr disables idempotent replay
	RedisAddr string
	RedisDB   int

	IdempTTLSecs int

	LogLevel string

	// lab behaviour: 500 bodies carry the raw error text
	ExposeErrorDetail bool

	ShutdownTimeout time.Duration
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getenvInt(k string, d int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return d
}

func getenvBool(k string, d bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return d
}

// Load reads the process environment. A .env file in the working directory,
// when present, fills variables that are not already set.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		AppPort:           getenv("APP_PORT", "8080"),
		DBDriver:          strings.ToLower(getenv("DB_DRIVER", DriverSQLite)),
		DBDSN:             getenv("DB_DSN", "loan.db"),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		RedisDB:           getenvInt("REDIS_DB", 0),
		IdempTTLSecs:      getenvInt("IDEMPOTENCY_TTL_SECONDS", 300),
		LogLevel:          strings.ToLower(getenv("LOG_LEVEL", "info")),
		ExposeErrorDetail: getenvBool("EXPOSE_ERROR_DETAIL", true),
		ShutdownTimeout:   time.Duration(getenvInt("SHUTDOWN_TIMEOUT_SECONDS", 10)) * time.Second,
	}
}

func (c *Config) Validate() error {
	switch c.DBDriver {
	case DriverSQLite, DriverMySQL, DriverPostgres:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (want sqlite, mysql or postgres)", c.DBDriver)
	}
	if c.DBDSN == "" {
		return errors.New("missing DB_DSN")
	}
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	if _, err := strconv.ParseUint(c.AppPort, 10, 16); err != nil {
		return fmt.Errorf("invalid APP_PORT %q: %w", c.AppPort, err)
	}
	if c.IdempTTLSecs <= 0 {
		return fmt.Errorf("invalid IDEMPOTENCY_TTL_SECONDS %d", c.IdempTTLSecs)
	}
	return nil
}

func (c *Config) IdempotencyEnabled() bool { return c.RedisAddr != "" }

func (c *Config) IdempTTL() time.Duration { return time.Duration(c.IdempTTLSecs) * time.Second }

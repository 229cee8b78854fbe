/*
Package config loads server configuration.

SOURCES (later wins):
  1. Defaults
  2. .env file (github.com/joho/godotenv); never overrides variables
     already set in the process environment
  3. Environment variables
  4. Command-line flags

VARIABLES:
  PORT             HTTP port (8080)
  DB_DRIVER        sqlite | postgres | memory (sqlite)
  DB_PATH          SQLite file, ":memory:" for a throwaway database (reports.db)
  DATABASE_URL     Postgres DSN, required when DB_DRIVER=postgres
  ALLOWED_ORIGINS  Comma-separated CORS origins
  CURRENCY         ISO 4217 code used in exports (AUD)
  EXPORT_DIR       Directory for scheduled CSV snapshots, empty disables them
  EXPORT_INTERVAL  Go duration between snapshots (24h)
  SEED_SCENARIO    Demo scenario loaded on startup when the store is empty
*/
package config

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/warp/agency-reports/export"
)

// Store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

var defaultOrigins = []string{"http://localhost:5173", "http://localhost:8080"}

// Config holds runtime configuration.
type Config struct {
	Port           int
	DBDriver       string
	DBPath         string
	DatabaseURL    string
	AllowedOrigins []string
	Currency       string
	ExportDir      string
	ExportInterval time.Duration
	SeedScenario   string
}

// Load reads the .env files (".env" when none are given) and then the
// environment.
func Load(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil {
		log.Println("[Config] No .env file found, falling back to system env vars")
	}

	cfg := Config{
		DBDriver:       strings.ToLower(getEnv("DB_DRIVER", DriverSQLite)),
		DBPath:         getEnv("DB_PATH", "reports.db"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "")),
		Currency:       strings.ToUpper(getEnv("CURRENCY", export.DefaultCurrencyCode)),
		ExportDir:      getEnv("EXPORT_DIR", ""),
		SeedScenario:   getEnv("SEED_SCENARIO", ""),
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = defaultOrigins
	}

	port, err := getEnvInt("PORT", 8080)
	if err != nil {
		return Config{}, fmt.Errorf("parse PORT: %w", err)
	}
	cfg.Port = port

	interval, err := getEnvDuration("EXPORT_INTERVAL", 24*time.Hour)
	if err != nil {
		return Config{}, fmt.Errorf("parse EXPORT_INTERVAL: %w", err)
	}
	cfg.ExportInterval = interval

	return cfg, nil
}

// ApplyFlags lets command-line flags override the loaded values.
func (c *Config) ApplyFlags(fs *flag.FlagSet, args []string) error {
	fs.IntVar(&c.Port, "port", c.Port, "HTTP server port")
	fs.StringVar(&c.DBPath, "db", c.DBPath, `SQLite database path (":memory:" for in-memory)`)
	fs.StringVar(&c.DBDriver, "driver", c.DBDriver, "record store: sqlite, postgres or memory")
	fs.StringVar(&c.ExportDir, "export-dir", c.ExportDir, "directory for scheduled CSV exports")
	fs.StringVar(&c.SeedScenario, "seed", c.SeedScenario, "demo scenario to load into an empty store")
	return fs.Parse(args)
}

// Validate checks that the settings are usable together.
func (c Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d out of range", c.Port))
	}
	switch c.DBDriver {
	case DriverSQLite:
		if c.DBPath == "" {
			errs = append(errs, errors.New("DB_PATH is required for the sqlite driver"))
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres driver"))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER %q: expected sqlite, postgres or memory", c.DBDriver))
	}
	if !export.KnownCurrency(c.Currency) {
		errs = append(errs, fmt.Errorf("CURRENCY %q is not an ISO 4217 code", c.Currency))
	}
	if c.ExportDir != "" && c.ExportInterval <= 0 {
		errs = append(errs, errors.New("EXPORT_INTERVAL must be positive when EXPORT_DIR is set"))
	}
	return errors.Join(errs...)
}

// ReadOnly reports whether the configured store rejects writes.
func (c Config) ReadOnly() bool {
	return c.DBDriver == DriverPostgres
}

func getEnv(key, defaultVal string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return defaultVal, nil
	}
	return strconv.Atoi(val)
}

func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return defaultVal, nil
	}
	return time.ParseDuration(val)
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

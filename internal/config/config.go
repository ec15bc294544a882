// Package config provides centralized configuration management for the
// cleaning CLI and server. Settings come from environment variables with
// defaults and are validated up front to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Paths   PathsConfig
	Engine  EngineConfig
	History HistoryConfig
	Server   ServerConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// PathsConfig locates inputs and outputs.
type PathsConfig struct {
	// DataDir holds the raw CSV files (default: data/raw)
	DataDir string `env:"CSVCLEAN_DATA_DIR" default:"data/raw"`

	// OutputDir receives clean_<name> files (default: data/clean)
	OutputDir string `env:"CSVCLEAN_OUTPUT_DIR" default:"data/clean"`

	// SchemaFile is an optional YAML or TOML file of extra dataset schemas.
	// Its datasets take precedence over the built-in ones.
	SchemaFile string `env:"CSVCLEAN_SCHEMA_FILE"`

	// LookupFile is the answer score table used by convertToQuantitative
	LookupFile string `env:"CSVCLEAN_LOOKUP_FILE" default:"data/quantitative.json"`
}

// EngineConfig tunes cleaning runs.
type EngineConfig struct {
	// Workers bounds datasets cleaned in parallel; 0 uses GOMAXPROCS
	Workers int `env:"CSVCLEAN_WORKERS" default:"0"`

	// StrictRules rejects schemas that name unknown rules (default: false)
	StrictRules bool `env:"CSVCLEAN_STRICT_RULES" default:"false"`

	// Limit keeps only the first N rows of each dataset; 0 keeps all
	Limit int `env:"CSVCLEAN_LIMIT" default:"0"`

	// Datasets is a comma-separated list of files to clean when none are
	// named on the command line; empty cleans every *.csv file
	Datasets []string `env:"CSVCLEAN_DATASETS"`
}

// HistoryConfig selects where finished runs are recorded.
type HistoryConfig struct {
	// Driver is none, sqlite or postgres (default: sqlite)
	Driver string `env:"HISTORY_DRIVER" default:"sqlite"`

	// SQLitePath is the database file for the sqlite driver
	SQLitePath string `env:"HISTORY_SQLITE_PATH" default:"data/csvclean-history.db"`

	// URL is the PostgreSQL connection string for the postgres driver.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 1)
	MinConns int `env:"DB_MIN_CONNS" default:"1"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"2m"`
	IdleTimeout  time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout bounds graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 2m)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"2m"`

	// MaxConcurrent bounds simultaneous clean requests (default: 4)
	MaxConcurrent int `env:"SERVER_MAX_CONCURRENT_CLEANS" default:"4"`

	// MaxWaitTime is how long a request waits for a clean slot (default: 30s)
	MaxWaitTime time.Duration `env:"SERVER_MAX_WAIT_TIME" default:"30s"`

	// MaxUploadSize caps request bodies in bytes (default: 100MB)
	MaxUploadSize int64 `env:"SERVER_MAX_UPLOAD_SIZE" default:"104857600"`
}

// SecurityConfig guards the HTTP API.
type SecurityConfig struct {
	// RequireAPIKey rejects /api requests without a valid X-API-Key (default: false)
	RequireAPIKey bool `env:"SECURITY_REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted keys
	APIKeys []string `env:"SECURITY_API_KEYS"`

	// TrustedProxies lists CIDRs whose X-Real-IP / X-Forwarded-For headers are honoured
	TrustedProxies []string `env:"SECURITY_TRUSTED_PROXIES"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

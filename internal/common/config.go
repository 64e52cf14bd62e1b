package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig
	Snapshot   SnapshotConfig
	Ingest     IngestConfig
	Resolver   ResolverConfig
	Automation AutomationConfig
}

// ServerConfig holds the HTTP command surface configuration
type ServerConfig struct {
	HTTPAddr string
}

// SnapshotConfig holds snapshot-store configuration. Driver selects the
// backend: "sqlite" (default) or "postgres".
type SnapshotConfig struct {
	Driver          string
	SQLitePath      string
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// IngestConfig holds spool-directory ingestion configuration
type IngestConfig struct {
	SpoolDir string
	Debounce time.Duration
}

// ResolverConfig holds crop-statistics fetch/retry configuration
type ResolverConfig struct {
	EndpointURL  string
	BaseDelay    time.Duration
	FetchTimeout time.Duration
	Workers      int
	QueueSize    int
}

// AutomationConfig holds the external automation collaborator configuration
type AutomationConfig struct {
	NudgeURL string
	Interval time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
		},
		Snapshot: SnapshotConfig{
			Driver:          getEnv("SNAPSHOT_DRIVER", "sqlite"),
			SQLitePath:      getEnv("SNAPSHOT_SQLITE_PATH", "parcel-recon.db"),
			DSN:             getEnv("DB_URL", ""),
			MaxConns:        getEnvAsInt32("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt32("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:     getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
		},
		Ingest: IngestConfig{
			SpoolDir: getEnv("SPOOL_DIR", "./spool"),
			Debounce: getEnvAsDuration("SPOOL_DEBOUNCE", 250*time.Millisecond),
		},
		Resolver: ResolverConfig{
			EndpointURL:  getEnv("CROPSTATS_URL", ""),
			BaseDelay:    getEnvAsDuration("FETCH_BASE_DELAY", 2*time.Second),
			FetchTimeout: getEnvAsDuration("FETCH_TIMEOUT", 30*time.Second),
			Workers:      getEnvAsInt("FETCH_WORKERS", 4),
			QueueSize:    getEnvAsInt("FETCH_QUEUE_SIZE", 256),
		},
		Automation: AutomationConfig{
			NudgeURL: getEnv("AUTOMATION_NUDGE_URL", ""),
			Interval: getEnvAsDuration("AUTOMATION_INTERVAL", 15*time.Second),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// ValidateConfig validates the loaded configuration
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	switch c.Snapshot.Driver {
	case "sqlite":
		if c.Snapshot.SQLitePath == "" {
			return NewAppError("CONFIG_ERROR", "SNAPSHOT_SQLITE_PATH is required", ErrInvalidInput)
		}
	case "postgres":
		if c.Snapshot.DSN == "" {
			return NewAppError("CONFIG_ERROR", "DB_URL is required for the postgres driver", ErrInvalidInput)
		}
	default:
		return NewAppError("CONFIG_ERROR", "SNAPSHOT_DRIVER must be sqlite or postgres", ErrInvalidInput)
	}
	if c.Resolver.EndpointURL == "" {
		return NewAppError("CONFIG_ERROR", "CROPSTATS_URL is required", ErrInvalidInput)
	}
	return nil
}

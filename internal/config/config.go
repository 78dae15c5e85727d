// Package config loads the indexer's configuration from environment
// variables, failing fast when a required variable is missing.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config is the full set of environment-driven settings the indexer reads
// at startup.
type Config struct {
	GRPCEndpoint   string
	GRPCToken      string
	DatabaseURL    string
	RedisURL       string
	DBPoolSize     int
	WriteBatchSize int
	MetricsPort    int
}

const (
	defaultRedisURL       = "redis://127.0.0.1:6379"
	defaultDBPoolSize     = 10
	defaultWriteBatchSize = 100
	defaultMetricsPort    = 9090
)

// FromEnv loads Config from the process environment. A missing required
// variable (GRPC_ENDPOINT, DATABASE_URL) is a configuration error: fatal at
// startup.
func FromEnv() (Config, error) {
	endpoint, err := required("GRPC_ENDPOINT")
	if err != nil {
		return Config{}, err
	}
	dbURL, err := required("DATABASE_URL")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		GRPCEndpoint:   endpoint,
		GRPCToken:      os.Getenv("GRPC_TOKEN"),
		DatabaseURL:    dbURL,
		RedisURL:       getenvDefault("REDIS_URL", defaultRedisURL),
		DBPoolSize:     getenvIntDefault("DB_POOL_SIZE", defaultDBPoolSize),
		WriteBatchSize: getenvIntDefault("WRITE_BATCH_SIZE", defaultWriteBatchSize),
		MetricsPort:    getenvIntDefault("METRICS_PORT", defaultMetricsPort),
	}
	return cfg, nil
}

func required(name string) (string, error) {
	v := os.Getenv(name)
	if v == "" {
		return "", fmt.Errorf("missing required environment variable: %s", name)
	}
	return v, nil
}

func getenvDefault(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}

func getenvIntDefault(name string, def int) int {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return parsed
}

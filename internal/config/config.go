// Package config loads agent configuration from the environment.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/outpost-labs/outpost/internal/logger"
)

// Environment variable names recognised by the agent. Flags take precedence
// over these, which in turn take precedence over the built-in defaults.
const (
	EnvServerAddress = "OUTPOST_SERVER_ADDRESS"
	EnvAuthToken     = "OUTPOST_AUTH_TOKEN"
	EnvPollInterval  = "OUTPOST_POLL_INTERVAL_SEC"
	EnvHeartbeatSpec = "OUTPOST_HEARTBEAT_SPEC"
)

// Config holds the agent's runtime configuration.
type Config struct {
	// ServerAddress is the base URL of the control plane API.
	ServerAddress string

	// AuthToken authenticates this agent against the control plane.
	AuthToken string

	// PollInterval is the fixed idle time between poll cycles.
	PollInterval time.Duration

	// HeartbeatSpec is the cron expression for presence updates.
	HeartbeatSpec string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		ServerAddress: GetEnv(EnvServerAddress, ""),
		AuthToken:     GetEnv(EnvAuthToken, ""),
		PollInterval:  GetDurationEnv(EnvPollInterval, 30) * time.Second,
		HeartbeatSpec: GetEnv(EnvHeartbeatSpec, "@every 1m"),
	}
}

// GetEnv retrieves the value of an environment variable with a fallback value if not set
func GetEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// GetDurationEnv retrieves an integer environment variable as a time.Duration
// unit count, falling back to the default on missing or malformed values.
func GetDurationEnv(key string, fallback int) time.Duration {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return time.Duration(intVal)
		}
		logger.Warnf("Invalid duration value for %s, using default %d", key, fallback)
	}
	return time.Duration(fallback)
}

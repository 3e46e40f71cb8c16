// Package config provides configuration management for the Pub/Sub system.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

// Config holds all configuration options for the Pub/Sub system.
type Config struct {
	// Server configuration
	Port   string
	Host   string
	WSPath string

	// Topic configuration
	TopicHistorySize       int
	MaxSubscriberQueueSize int
	OverflowPolicy         string

	// Timeout configuration
	WriteTimeout        time.Duration
	ReadTimeout         time.Duration
	ShutdownDrainWindow time.Duration

	// Logging configuration
	LogLevel string
	LogJSON  bool
}

// NewConfig creates a new configuration with default values, sourced from
// the environment the way the teacher's config layer always has.
func NewConfig() *Config {
	return &Config{
		Port:                   getEnv("PORT", "8080"),
		Host:                   getEnv("HOST", "0.0.0.0"),
		WSPath:                 getEnv("WS_PATH", "/ws"),
		TopicHistorySize:       getEnvAsInt("TOPIC_HISTORY_SIZE", 100),
		MaxSubscriberQueueSize: getEnvAsInt("MAX_SUBSCRIBER_QUEUE_SIZE", 100),
		OverflowPolicy:         getEnv("OVERFLOW_POLICY", "DROP_OLDEST"),
		WriteTimeout:           getEnvAsDuration("WRITE_TIMEOUT", 30*time.Second),
		ReadTimeout:            getEnvAsDuration("READ_TIMEOUT", 60*time.Second),
		ShutdownDrainWindow:    getEnvAsDuration("SHUTDOWN_DRAIN_WINDOW", 2*time.Second),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		LogJSON:                getEnv("LOG_JSON", "") == "true",
	}
}

// BindFlags registers the configuration as persistent flags on a cobra
// command, so command-line flags take precedence over the environment
// defaults loaded by NewConfig.
func (c *Config) BindFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVar(&c.Host, "host", c.Host, "server bind host")
	flags.StringVar(&c.Port, "port", c.Port, "server bind port")
	flags.StringVar(&c.WSPath, "ws-path", c.WSPath, "WebSocket endpoint path")
	flags.IntVar(&c.TopicHistorySize, "topic-history-size", c.TopicHistorySize, "per-topic replay ring capacity (H)")
	flags.IntVar(&c.MaxSubscriberQueueSize, "max-subscriber-queue-size", c.MaxSubscriberQueueSize, "per-subscriber delivery queue capacity (Q)")
	flags.StringVar(&c.OverflowPolicy, "overflow-policy", c.OverflowPolicy, "subscriber queue overflow policy (DROP_OLDEST, DISCONNECT)")
	flags.DurationVar(&c.WriteTimeout, "write-timeout", c.WriteTimeout, "WebSocket write timeout")
	flags.DurationVar(&c.ReadTimeout, "read-timeout", c.ReadTimeout, "WebSocket read timeout")
	flags.DurationVar(&c.ShutdownDrainWindow, "shutdown-drain-window", c.ShutdownDrainWindow, "grace period for delivery pumps to drain on shutdown")
	flags.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level (debug, info, warn, error)")
	flags.BoolVar(&c.LogJSON, "log-json", c.LogJSON, "emit logs as JSON instead of console format")
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsDuration gets an environment variable as a duration or returns a default value.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Package config loads daemon configuration from the environment, with
// optional .env file support.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Default configuration values.
const (
	DefaultDBPath          = "habitpred.db"
	DefaultLogLevel        = "info"
	DefaultMetricsPort     = 9109
	DefaultRetrainInterval = 15 * time.Minute
	DefaultMinLogsForML    = 8
	DefaultEnsembleWeight  = 0.6
	DefaultTopCount        = 5
	DefaultMQTTPort        = 1883
	DefaultMQTTTopicPrefix = "habitpred"
)

// Config holds all daemon settings.
type Config struct {
	DBPath          string
	LogLevel        string
	MetricsEnabled  bool
	MetricsPort     int
	RetrainInterval time.Duration
	MinLogsForML    int
	EnsembleWeight  float64
	TopCount        int

	// MQTT egress; disabled while the broker is empty.
	MQTTBroker      string
	MQTTPort        int
	MQTTClientID    string
	MQTTUsername    string
	MQTTPassword    string
	MQTTTopicPrefix string
}

// Load reads configuration from a .env file (if envFile is non-empty and
// exists) and the process environment, then validates it. Environment
// variables win over file values already set.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return nil, fmt.Errorf("load env file %s: %w", envFile, err)
			}
		}
	}

	cfg := &Config{
		DBPath:          getEnv("HABITPRED_DB_PATH", DefaultDBPath),
		LogLevel:        getEnv("HABITPRED_LOG_LEVEL", DefaultLogLevel),
		MetricsEnabled:  getEnvBool("HABITPRED_METRICS_ENABLED", true),
		MetricsPort:     getEnvInt("HABITPRED_METRICS_PORT", DefaultMetricsPort),
		RetrainInterval: getEnvDuration("HABITPRED_RETRAIN_INTERVAL", DefaultRetrainInterval),
		MinLogsForML:    getEnvInt("HABITPRED_MIN_LOGS", DefaultMinLogsForML),
		EnsembleWeight:  getEnvFloat("HABITPRED_ENSEMBLE_LOGISTIC_WEIGHT", DefaultEnsembleWeight),
		TopCount:        getEnvInt("HABITPRED_TOP_COUNT", DefaultTopCount),

		MQTTBroker:      getEnv("HABITPRED_MQTT_BROKER", ""),
		MQTTPort:        getEnvInt("HABITPRED_MQTT_PORT", DefaultMQTTPort),
		MQTTClientID:    getEnv("HABITPRED_MQTT_CLIENT_ID", "habitpredd"),
		MQTTUsername:    getEnv("HABITPRED_MQTT_USERNAME", ""),
		MQTTPassword:    getEnv("HABITPRED_MQTT_PASSWORD", ""),
		MQTTTopicPrefix: getEnv("HABITPRED_MQTT_TOPIC_PREFIX", DefaultMQTTTopicPrefix),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// MQTTEnabled reports whether telemetry egress is configured.
func (c *Config) MQTTEnabled() bool {
	return c.MQTTBroker != ""
}

func (c *Config) validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("database path must not be empty")
	}
	if c.MetricsPort <= 0 || c.MetricsPort > 65535 {
		return fmt.Errorf("metrics port %d out of range", c.MetricsPort)
	}
	if c.RetrainInterval < time.Minute {
		return fmt.Errorf("retrain interval %s below 1m", c.RetrainInterval)
	}
	if c.MinLogsForML < 1 {
		return fmt.Errorf("min logs for ML must be positive, got %d", c.MinLogsForML)
	}
	if c.EnsembleWeight <= 0 || c.EnsembleWeight > 1 {
		return fmt.Errorf("ensemble logistic weight %.2f outside (0,1]", c.EnsembleWeight)
	}
	if c.MQTTEnabled() && (c.MQTTPort <= 0 || c.MQTTPort > 65535) {
		return fmt.Errorf("mqtt port %d out of range", c.MQTTPort)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

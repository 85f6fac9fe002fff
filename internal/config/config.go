// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port           string
	WebhookURL     string
	BearerToken    string
	DBPath         string
	HideEmpty      bool          // exclude message-less sessions from the sidebar
	GatewayTimeout time.Duration // 0 = no timeout on the webhook call
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		WebhookURL:     getEnv("N8N_WEBHOOK_URL", ""),
		BearerToken:    getEnv("BEARER_TOKEN", ""),
		DBPath:         getEnv("DB_PATH", ""),
		HideEmpty:      getEnvBool("SIDEBAR_HIDE_EMPTY", true),
		GatewayTimeout: getEnvDuration("GATEWAY_TIMEOUT", 0),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.WebhookURL == "" {
		return fmt.Errorf("N8N_WEBHOOK_URL must be set")
	}
	if c.BearerToken == "" {
		return fmt.Errorf("BEARER_TOKEN must be set")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH must be set")
	}
	if c.GatewayTimeout < 0 {
		return fmt.Errorf("GATEWAY_TIMEOUT cannot be negative")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}

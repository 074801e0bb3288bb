// Package config provides configuration loading and management for foodtrace.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the complete foodtrace configuration
type Config struct {
	NATS     NATSConfig     `yaml:"nats"`
	Ledger   LedgerConfig   `yaml:"ledger"`
	Identity IdentityConfig `yaml:"identity"`
	Audit    AuditConfig    `yaml:"audit"`
	HTTP     HTTPConfig     `yaml:"http"`
}

// NATSConfig configures the NATS connection backing the ledger
type NATSConfig struct {
	// URL is the NATS server URL (empty = use embedded server)
	URL string `yaml:"url"`
	// Embedded indicates whether to use embedded NATS
	Embedded bool `yaml:"embedded"`
}

// LedgerConfig configures the key-value ledger
type LedgerConfig struct {
	// Bucket is the KV bucket name prefix (default: FOODTRACE)
	Bucket string `yaml:"bucket"`
}

// IdentityConfig configures the caller identity used for local invocations.
// In a Fabric deployment identity comes from the invoking certificate; this
// config only applies to the CLI and the HTTP gateway's dev mode.
type IdentityConfig struct {
	// Organisation is the caller's organisation attribute
	Organisation string `yaml:"organisation"`
	// User is the caller's user-name attribute
	User string `yaml:"user"`
}

// AuditConfig configures receipt publishing
type AuditConfig struct {
	// Enabled turns receipt publishing on
	Enabled bool `yaml:"enabled"`
	// Subject is the receipt subject prefix (default: foodtrace.receipts)
	Subject string `yaml:"subject"`
}

// HTTPConfig configures the HTTP gateway
type HTTPConfig struct {
	// Addr is the listen address for the serve command (default: :8088)
	Addr string `yaml:"addr"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		NATS: NATSConfig{
			URL:      "",
			Embedded: true,
		},
		Ledger: LedgerConfig{
			Bucket: "FOODTRACE",
		},
		Identity: IdentityConfig{
			Organisation: "",
			User:         "",
		},
		Audit: AuditConfig{
			Enabled: true,
			Subject: "foodtrace.receipts",
		},
		HTTP: HTTPConfig{
			Addr: ":8088",
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Ledger.Bucket == "" {
		return fmt.Errorf("ledger.bucket is required")
	}
	if c.Audit.Enabled && c.Audit.Subject == "" {
		return fmt.Errorf("audit.subject is required when audit is enabled")
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// NATS
	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
		c.NATS.Embedded = false
	}

	// Ledger
	if other.Ledger.Bucket != "" {
		c.Ledger.Bucket = other.Ledger.Bucket
	}

	// Identity
	if other.Identity.Organisation != "" {
		c.Identity.Organisation = other.Identity.Organisation
	}
	if other.Identity.User != "" {
		c.Identity.User = other.Identity.User
	}

	// Audit
	if other.Audit.Subject != "" {
		c.Audit.Subject = other.Audit.Subject
	}

	// HTTP
	if other.HTTP.Addr != "" {
		c.HTTP.Addr = other.HTTP.Addr
	}
}

// Package config loads seqcat-engine configuration from config.yaml
// with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for seqcat-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (the data-hub password) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8088"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Database configuration (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// MigrationsPath is the directory holding schema migrations.
	MigrationsPath string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"migrations"`

	// Portal configuration (the external sequence archive search API)
	Portal PortalConfig `yaml:"portal"`

	// Sync configuration
	Sync SyncConfig `yaml:"sync"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"seqcat"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"seqcat_engine"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"10"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
}

// PortalConfig holds the archive portal API client configuration.
type PortalConfig struct {
	// BaseURL is the portal search endpoint.
	BaseURL string `yaml:"base_url" env:"PORTAL_BASE_URL" env-default:"https://www.ebi.ac.uk/ena/portal/api/search"`

	// DataPortal is the portal data view tag sent with every request.
	DataPortal string `yaml:"data_portal" env:"PORTAL_DATA_PORTAL" env-default:"metagenome"`

	// RetryAttempts bounds transient-failure retries per request.
	RetryAttempts int `yaml:"retry_attempts" env:"PORTAL_RETRY_ATTEMPTS" env-default:"4"`

	// RetryDelaySeconds is the fixed delay between retries.
	RetryDelaySeconds int `yaml:"retry_delay_seconds" env:"PORTAL_RETRY_DELAY_SECONDS" env-default:"30"`

	// Data-hub credentials for private records. Secrets - not in YAML.
	DataHubUsername string `yaml:"-" env:"PORTAL_DATAHUB_USERNAME"`
	DataHubPassword string `yaml:"-" env:"PORTAL_DATAHUB_PASSWORD"`
}

// SyncConfig holds synchronization settings.
type SyncConfig struct {
	// PageSize bounds each paged portal request.
	PageSize int `yaml:"page_size" env:"SYNC_PAGE_SIZE" env-default:"5000"`

	// DataHubSubmitter is the Webin account behind the data-hub
	// credentials; privately fetched records are attributed to it.
	DataHubSubmitter string `yaml:"data_hub_submitter" env:"SYNC_DATA_HUB_SUBMITTER" env-default:""`
}

// RetryDelay returns the portal retry delay as a duration.
func (c *PortalConfig) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelaySeconds) * time.Second
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// Load reads configuration from config.yaml with environment variable
// overrides. When no config.yaml exists, environment variables alone are
// used. The version parameter is injected at build time.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	err := cleanenv.ReadConfig("config.yaml", cfg)
	if os.IsNotExist(err) {
		err = cleanenv.ReadEnv(cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}

	if cfg.Portal.RetryAttempts < 1 {
		return nil, fmt.Errorf("portal retry_attempts must be at least 1, got %d", cfg.Portal.RetryAttempts)
	}
	if cfg.Sync.PageSize < 1 {
		return nil, fmt.Errorf("sync page_size must be at least 1, got %d", cfg.Sync.PageSize)
	}

	return cfg, nil
}

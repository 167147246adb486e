package config

import (
	"fmt"
	"os"
	"time"

	gaconfig "github.com/JaimeStill/go-agents/pkg/config"
	"github.com/pelletier/go-toml/v2"

	"github.com/danishmustafa86/aidlink/pkg/database"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvAidLinkEnv             = "AIDLINK_ENV"
	EnvAidLinkShutdownTimeout = "AIDLINK_SHUTDOWN_TIMEOUT"
	EnvAidLinkVersion         = "AIDLINK_VERSION"
)

var databaseEnv = &database.Env{
	Host:            "AIDLINK_DB_HOST",
	Port:            "AIDLINK_DB_PORT",
	Name:            "AIDLINK_DB_NAME",
	User:            "AIDLINK_DB_USER",
	Password:        "AIDLINK_DB_PASSWORD",
	SSLMode:         "AIDLINK_DB_SSL_MODE",
	MaxOpenConns:    "AIDLINK_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "AIDLINK_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "AIDLINK_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "AIDLINK_DB_CONN_TIMEOUT",
}

// Config is the root configuration for the AidLink service.
type Config struct {
	Server          ServerConfig         `toml:"server"`
	Database        database.Config      `toml:"database"`
	Agent           gaconfig.AgentConfig `toml:"agent"`
	Gateway         GatewayConfig        `toml:"gateway"`
	API             APIConfig            `toml:"api"`
	Triage          TriageConfig         `toml:"triage"`
	Cases           CasesConfig          `toml:"cases"`
	Notifications   NotificationsConfig  `toml:"notifications"`
	Followup        FollowupConfig       `toml:"followup"`
	ShutdownTimeout string               `toml:"shutdown_timeout"`
	Version         string               `toml:"version"`
}

// Env returns the AIDLINK_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvAidLinkEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Agent.Merge(&overlay.Agent)
	c.Gateway.Merge(&overlay.Gateway)
	c.API.Merge(&overlay.API)
	c.Triage.Merge(&overlay.Triage)
	c.Cases.Merge(&overlay.Cases)
	c.Notifications.Merge(&overlay.Notifications)
	c.Followup.Merge(&overlay.Followup)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := FinalizeAgent(&c.Agent); err != nil {
		return fmt.Errorf("agent: %w", err)
	}
	if err := c.Gateway.Finalize(); err != nil {
		return fmt.Errorf("gateway: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Triage.Finalize(); err != nil {
		return fmt.Errorf("triage: %w", err)
	}
	if err := c.Cases.Finalize(); err != nil {
		return fmt.Errorf("cases: %w", err)
	}
	if err := c.Notifications.Finalize(); err != nil {
		return fmt.Errorf("notifications: %w", err)
	}
	if err := c.Followup.Finalize(); err != nil {
		return fmt.Errorf("followup: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvAidLinkShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvAidLinkVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvAidLinkEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	EnvGatewayMaxAttempts  = "AIDLINK_GATEWAY_MAX_ATTEMPTS"
	EnvGatewayCallTimeout  = "AIDLINK_GATEWAY_CALL_TIMEOUT"
	EnvGatewayRetryBackoff = "AIDLINK_GATEWAY_RETRY_BACKOFF"
)

// GatewayConfig bounds language model calls.
type GatewayConfig struct {
	MaxAttempts  int    `toml:"max_attempts"`
	CallTimeout  string `toml:"call_timeout"`
	RetryBackoff string `toml:"retry_backoff"`
}

// CallTimeoutDuration returns CallTimeout as a time.Duration.
func (c *GatewayConfig) CallTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.CallTimeout)
	return d
}

// RetryBackoffDuration returns RetryBackoff as a time.Duration.
func (c *GatewayConfig) RetryBackoffDuration() time.Duration {
	d, _ := time.ParseDuration(c.RetryBackoff)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *GatewayConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *GatewayConfig) Merge(overlay *GatewayConfig) {
	if overlay.MaxAttempts != 0 {
		c.MaxAttempts = overlay.MaxAttempts
	}
	if overlay.CallTimeout != "" {
		c.CallTimeout = overlay.CallTimeout
	}
	if overlay.RetryBackoff != "" {
		c.RetryBackoff = overlay.RetryBackoff
	}
}

func (c *GatewayConfig) loadDefaults() {
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 3
	}
	if c.CallTimeout == "" {
		c.CallTimeout = "30s"
	}
	if c.RetryBackoff == "" {
		c.RetryBackoff = "500ms"
	}
}

func (c *GatewayConfig) loadEnv() {
	if v := os.Getenv(EnvGatewayMaxAttempts); v != "" {
		if attempts, err := strconv.Atoi(v); err == nil {
			c.MaxAttempts = attempts
		}
	}
	if v := os.Getenv(EnvGatewayCallTimeout); v != "" {
		c.CallTimeout = v
	}
	if v := os.Getenv(EnvGatewayRetryBackoff); v != "" {
		c.RetryBackoff = v
	}
}

func (c *GatewayConfig) validate() error {
	if c.MaxAttempts < 1 {
		return fmt.Errorf("invalid max_attempts: %d", c.MaxAttempts)
	}
	if _, err := time.ParseDuration(c.CallTimeout); err != nil {
		return fmt.Errorf("invalid call_timeout: %w", err)
	}
	if _, err := time.ParseDuration(c.RetryBackoff); err != nil {
		return fmt.Errorf("invalid retry_backoff: %w", err)
	}
	return nil
}

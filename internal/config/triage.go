package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	EnvTriageConfidenceThreshold = "AIDLINK_TRIAGE_CONFIDENCE_THRESHOLD"
	EnvTriageMaxIdleTurns        = "AIDLINK_TRIAGE_MAX_IDLE_TURNS"
	EnvTriageIdleTimeout         = "AIDLINK_TRIAGE_IDLE_TIMEOUT"
	EnvTriageJanitorSchedule     = "AIDLINK_TRIAGE_JANITOR_SCHEDULE"
)

// TriageConfig bounds the intake dialogue.
type TriageConfig struct {
	ConfidenceThreshold float64 `toml:"confidence_threshold"`
	MaxIdleTurns        int     `toml:"max_idle_turns"`
	IdleTimeout         string  `toml:"idle_timeout"`
	JanitorSchedule     string  `toml:"janitor_schedule"`
}

// IdleTimeoutDuration returns IdleTimeout as a time.Duration.
func (c *TriageConfig) IdleTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.IdleTimeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *TriageConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *TriageConfig) Merge(overlay *TriageConfig) {
	if overlay.ConfidenceThreshold != 0 {
		c.ConfidenceThreshold = overlay.ConfidenceThreshold
	}
	if overlay.MaxIdleTurns != 0 {
		c.MaxIdleTurns = overlay.MaxIdleTurns
	}
	if overlay.IdleTimeout != "" {
		c.IdleTimeout = overlay.IdleTimeout
	}
	if overlay.JanitorSchedule != "" {
		c.JanitorSchedule = overlay.JanitorSchedule
	}
}

func (c *TriageConfig) loadDefaults() {
	if c.ConfidenceThreshold == 0 {
		c.ConfidenceThreshold = 0.6
	}
	if c.MaxIdleTurns == 0 {
		c.MaxIdleTurns = 3
	}
	if c.IdleTimeout == "" {
		c.IdleTimeout = "30m"
	}
	if c.JanitorSchedule == "" {
		c.JanitorSchedule = "*/10 * * * *"
	}
}

func (c *TriageConfig) loadEnv() {
	if v := os.Getenv(EnvTriageConfidenceThreshold); v != "" {
		if threshold, err := strconv.ParseFloat(v, 64); err == nil {
			c.ConfidenceThreshold = threshold
		}
	}
	if v := os.Getenv(EnvTriageMaxIdleTurns); v != "" {
		if turns, err := strconv.Atoi(v); err == nil {
			c.MaxIdleTurns = turns
		}
	}
	if v := os.Getenv(EnvTriageIdleTimeout); v != "" {
		c.IdleTimeout = v
	}
	if v := os.Getenv(EnvTriageJanitorSchedule); v != "" {
		c.JanitorSchedule = v
	}
}

func (c *TriageConfig) validate() error {
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("invalid confidence_threshold: %g", c.ConfidenceThreshold)
	}
	if c.MaxIdleTurns < 1 {
		return fmt.Errorf("invalid max_idle_turns: %d", c.MaxIdleTurns)
	}
	if _, err := time.ParseDuration(c.IdleTimeout); err != nil {
		return fmt.Errorf("invalid idle_timeout: %w", err)
	}
	return nil
}

package config

import (
	"fmt"
	"os"
	"time"
)

const EnvCasesDedupWindow = "AIDLINK_CASES_DEDUP_WINDOW"

// CasesConfig bounds case creation behavior.
type CasesConfig struct {
	DedupWindow string `toml:"dedup_window"`
}

// DedupWindowDuration returns DedupWindow as a time.Duration.
func (c *CasesConfig) DedupWindowDuration() time.Duration {
	d, _ := time.ParseDuration(c.DedupWindow)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *CasesConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *CasesConfig) Merge(overlay *CasesConfig) {
	if overlay.DedupWindow != "" {
		c.DedupWindow = overlay.DedupWindow
	}
}

func (c *CasesConfig) loadDefaults() {
	if c.DedupWindow == "" {
		c.DedupWindow = "10m"
	}
}

func (c *CasesConfig) loadEnv() {
	if v := os.Getenv(EnvCasesDedupWindow); v != "" {
		c.DedupWindow = v
	}
}

func (c *CasesConfig) validate() error {
	if _, err := time.ParseDuration(c.DedupWindow); err != nil {
		return fmt.Errorf("invalid dedup_window: %w", err)
	}
	return nil
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	EnvFollowupReminderDelay = "AIDLINK_FOLLOWUP_REMINDER_DELAY"
	EnvFollowupBatchSize     = "AIDLINK_FOLLOWUP_BATCH_SIZE"
	EnvFollowupSchedule      = "AIDLINK_FOLLOWUP_SCHEDULE"
)

// FollowupConfig controls the resolution confirmation cycle.
type FollowupConfig struct {
	ReminderDelay string `toml:"reminder_delay"`
	BatchSize     int    `toml:"batch_size"`
	Schedule      string `toml:"schedule"`
}

// ReminderDelayDuration returns ReminderDelay as a time.Duration.
func (c *FollowupConfig) ReminderDelayDuration() time.Duration {
	d, _ := time.ParseDuration(c.ReminderDelay)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *FollowupConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *FollowupConfig) Merge(overlay *FollowupConfig) {
	if overlay.ReminderDelay != "" {
		c.ReminderDelay = overlay.ReminderDelay
	}
	if overlay.BatchSize != 0 {
		c.BatchSize = overlay.BatchSize
	}
	if overlay.Schedule != "" {
		c.Schedule = overlay.Schedule
	}
}

func (c *FollowupConfig) loadDefaults() {
	if c.ReminderDelay == "" {
		c.ReminderDelay = "24h"
	}
	if c.BatchSize == 0 {
		c.BatchSize = 50
	}
	if c.Schedule == "" {
		c.Schedule = "0 * * * *"
	}
}

func (c *FollowupConfig) loadEnv() {
	if v := os.Getenv(EnvFollowupReminderDelay); v != "" {
		c.ReminderDelay = v
	}
	if v := os.Getenv(EnvFollowupBatchSize); v != "" {
		if size, err := strconv.Atoi(v); err == nil {
			c.BatchSize = size
		}
	}
	if v := os.Getenv(EnvFollowupSchedule); v != "" {
		c.Schedule = v
	}
}

func (c *FollowupConfig) validate() error {
	if _, err := time.ParseDuration(c.ReminderDelay); err != nil {
		return fmt.Errorf("invalid reminder_delay: %w", err)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("invalid batch_size: %d", c.BatchSize)
	}
	return nil
}

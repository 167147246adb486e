package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	EnvSMTPHost     = "AIDLINK_SMTP_HOST"
	EnvSMTPPort     = "AIDLINK_SMTP_PORT"
	EnvSMTPUsername = "AIDLINK_SMTP_USERNAME"
	EnvSMTPPassword = "AIDLINK_SMTP_PASSWORD"
	EnvSMTPFrom     = "AIDLINK_SMTP_FROM"

	EnvSlackWebhookURL = "AIDLINK_SLACK_WEBHOOK_URL"

	EnvSweepSchedule  = "AIDLINK_SWEEP_SCHEDULE"
	EnvSweepBatchSize = "AIDLINK_SWEEP_BATCH_SIZE"
	EnvSweepTimeout   = "AIDLINK_SWEEP_TIMEOUT"
)

// SMTPConfig holds the citizen email channel settings.
type SMTPConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	From     string `toml:"from"`
}

// SlackConfig holds the authority queue channel settings.
type SlackConfig struct {
	WebhookURL string `toml:"webhook_url"`
}

// SweepConfig controls the undelivered notification retry sweep.
type SweepConfig struct {
	Schedule  string `toml:"schedule"`
	BatchSize int    `toml:"batch_size"`
	Timeout   string `toml:"timeout"`
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *SweepConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// NotificationsConfig holds delivery channel and retry sweep settings.
type NotificationsConfig struct {
	SMTP  SMTPConfig  `toml:"smtp"`
	Slack SlackConfig `toml:"slack"`
	Sweep SweepConfig `toml:"sweep"`
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *NotificationsConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *NotificationsConfig) Merge(overlay *NotificationsConfig) {
	if overlay.SMTP.Host != "" {
		c.SMTP.Host = overlay.SMTP.Host
	}
	if overlay.SMTP.Port != 0 {
		c.SMTP.Port = overlay.SMTP.Port
	}
	if overlay.SMTP.Username != "" {
		c.SMTP.Username = overlay.SMTP.Username
	}
	if overlay.SMTP.Password != "" {
		c.SMTP.Password = overlay.SMTP.Password
	}
	if overlay.SMTP.From != "" {
		c.SMTP.From = overlay.SMTP.From
	}
	if overlay.Slack.WebhookURL != "" {
		c.Slack.WebhookURL = overlay.Slack.WebhookURL
	}
	if overlay.Sweep.Schedule != "" {
		c.Sweep.Schedule = overlay.Sweep.Schedule
	}
	if overlay.Sweep.BatchSize != 0 {
		c.Sweep.BatchSize = overlay.Sweep.BatchSize
	}
	if overlay.Sweep.Timeout != "" {
		c.Sweep.Timeout = overlay.Sweep.Timeout
	}
}

func (c *NotificationsConfig) loadDefaults() {
	if c.SMTP.Host == "" {
		c.SMTP.Host = "localhost"
	}
	if c.SMTP.Port == 0 {
		c.SMTP.Port = 587
	}
	if c.SMTP.From == "" {
		c.SMTP.From = "no-reply@aidlink.local"
	}
	if c.Sweep.Schedule == "" {
		c.Sweep.Schedule = "*/5 * * * *"
	}
	if c.Sweep.BatchSize == 0 {
		c.Sweep.BatchSize = 50
	}
	if c.Sweep.Timeout == "" {
		c.Sweep.Timeout = "2m"
	}
}

func (c *NotificationsConfig) loadEnv() {
	if v := os.Getenv(EnvSMTPHost); v != "" {
		c.SMTP.Host = v
	}
	if v := os.Getenv(EnvSMTPPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.SMTP.Port = port
		}
	}
	if v := os.Getenv(EnvSMTPUsername); v != "" {
		c.SMTP.Username = v
	}
	if v := os.Getenv(EnvSMTPPassword); v != "" {
		c.SMTP.Password = v
	}
	if v := os.Getenv(EnvSMTPFrom); v != "" {
		c.SMTP.From = v
	}
	if v := os.Getenv(EnvSlackWebhookURL); v != "" {
		c.Slack.WebhookURL = v
	}
	if v := os.Getenv(EnvSweepSchedule); v != "" {
		c.Sweep.Schedule = v
	}
	if v := os.Getenv(EnvSweepBatchSize); v != "" {
		if size, err := strconv.Atoi(v); err == nil {
			c.Sweep.BatchSize = size
		}
	}
	if v := os.Getenv(EnvSweepTimeout); v != "" {
		c.Sweep.Timeout = v
	}
}

func (c *NotificationsConfig) validate() error {
	if c.SMTP.Port < 1 || c.SMTP.Port > 65535 {
		return fmt.Errorf("invalid smtp port: %d", c.SMTP.Port)
	}
	if c.Sweep.BatchSize < 1 {
		return fmt.Errorf("invalid sweep batch_size: %d", c.Sweep.BatchSize)
	}
	if _, err := time.ParseDuration(c.Sweep.Timeout); err != nil {
		return fmt.Errorf("invalid sweep timeout: %w", err)
	}
	return nil
}

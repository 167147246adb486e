package intake

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/danishmustafa86/aidlink/pkg/lifecycle"
)

// JanitorConfig controls the stale session pass.
type JanitorConfig struct {
	// Schedule is a 5-field cron expression. Empty disables the janitor.
	Schedule string
	// Timeout bounds one full pass.
	Timeout time.Duration
}

// Janitor periodically abandons collecting sessions idle past the engine's
// inactivity bound.
type Janitor struct {
	system System
	cfg    JanitorConfig
	cron   *cron.Cron
	logger *slog.Logger
}

// NewJanitor creates the stale session janitor over the intake system.
func NewJanitor(system System, cfg JanitorConfig, logger *slog.Logger) *Janitor {
	return &Janitor{
		system: system,
		cfg:    cfg,
		cron:   cron.New(),
		logger: logger.With("system", "intake", "job", "janitor"),
	}
}

// Register wires the janitor into the application lifecycle.
func (j *Janitor) Register(coordinator *lifecycle.Coordinator) error {
	if j.cfg.Schedule == "" {
		j.logger.Info("stale session janitor disabled")
		return nil
	}

	if _, err := j.cron.AddFunc(j.cfg.Schedule, func() {
		j.Run(coordinator.Context())
	}); err != nil {
		return err
	}

	coordinator.OnStartup(func() {
		j.cron.Start()
		j.logger.Info("stale session pass scheduled", "schedule", j.cfg.Schedule)
	})

	coordinator.OnShutdown(func() {
		<-coordinator.Context().Done()
		<-j.cron.Stop().Done()
	})

	return nil
}

// Run executes one stale session pass.
func (j *Janitor) Run(ctx context.Context) {
	if j.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.cfg.Timeout)
		defer cancel()
	}

	abandoned, err := j.system.AbandonStale(ctx)
	if err != nil {
		j.logger.Error("stale session pass failed", "error", err)
		return
	}
	if abandoned > 0 {
		j.logger.Info("stale sessions abandoned", "count", abandoned)
	}
}

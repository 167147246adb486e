package notifications

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/danishmustafa86/aidlink/pkg/lifecycle"
)

// SweepConfig controls the undelivered-event retry sweep.
type SweepConfig struct {
	// Schedule is a 5-field cron expression. Empty disables the sweep.
	Schedule string
	// BatchSize caps how many events one pass re-attempts.
	BatchSize int
	// Timeout bounds one full pass.
	Timeout time.Duration
}

// Sweeper periodically re-attempts delivery of events that never confirmed a
// send. Together with deterministic event ids this gives at-least-once
// delivery without double-sending confirmed events.
type Sweeper struct {
	system System
	cfg    SweepConfig
	cron   *cron.Cron
	logger *slog.Logger
}

// NewSweeper creates a retry sweeper over the given notification system.
func NewSweeper(system System, cfg SweepConfig, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		system: system,
		cfg:    cfg,
		cron:   cron.New(),
		logger: logger.With("system", "notifications", "job", "sweep"),
	}
}

// Register wires the sweeper into the application lifecycle: the scheduler
// starts with the server and drains on shutdown.
func (s *Sweeper) Register(coordinator *lifecycle.Coordinator) error {
	if s.cfg.Schedule == "" {
		s.logger.Info("retry sweep disabled")
		return nil
	}

	if _, err := s.cron.AddFunc(s.cfg.Schedule, func() {
		s.Sweep(coordinator.Context())
	}); err != nil {
		return err
	}

	coordinator.OnStartup(func() {
		s.cron.Start()
		s.logger.Info("retry sweep scheduled", "schedule", s.cfg.Schedule)
	})

	coordinator.OnShutdown(func() {
		<-coordinator.Context().Done()
		<-s.cron.Stop().Done()
	})

	return nil
}

// Sweep runs one retry pass.
func (s *Sweeper) Sweep(ctx context.Context) {
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	delivered, err := s.system.RetryUndelivered(ctx, s.cfg.BatchSize)
	if err != nil {
		s.logger.Error("retry sweep failed", "error", err)
		return
	}
	if delivered > 0 {
		s.logger.Info("retry sweep delivered", "count", delivered)
	}
}

package followup

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/danishmustafa86/aidlink/pkg/lifecycle"
)

// SchedulerConfig controls the reminder pass.
type SchedulerConfig struct {
	// Schedule is a 5-field cron expression. Empty disables reminders.
	Schedule string
	// Timeout bounds one full pass.
	Timeout time.Duration
}

// Scheduler periodically sends the single reminder to stale pending cycles.
type Scheduler struct {
	system System
	cfg    SchedulerConfig
	cron   *cron.Cron
	logger *slog.Logger
}

// NewScheduler creates the reminder scheduler over the follow-up system.
func NewScheduler(system System, cfg SchedulerConfig, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		system: system,
		cfg:    cfg,
		cron:   cron.New(),
		logger: logger.With("system", "followup", "job", "reminders"),
	}
}

// Register wires the scheduler into the application lifecycle.
func (s *Scheduler) Register(coordinator *lifecycle.Coordinator) error {
	if s.cfg.Schedule == "" {
		s.logger.Info("reminder scheduler disabled")
		return nil
	}

	if _, err := s.cron.AddFunc(s.cfg.Schedule, func() {
		s.Run(coordinator.Context())
	}); err != nil {
		return err
	}

	coordinator.OnStartup(func() {
		s.cron.Start()
		s.logger.Info("reminder pass scheduled", "schedule", s.cfg.Schedule)
	})

	coordinator.OnShutdown(func() {
		<-coordinator.Context().Done()
		<-s.cron.Stop().Done()
	})

	return nil
}

// Run executes one reminder pass.
func (s *Scheduler) Run(ctx context.Context) {
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	reminded, err := s.system.RemindPending(ctx)
	if err != nil {
		s.logger.Error("reminder pass failed", "error", err)
		return
	}
	if reminded > 0 {
		s.logger.Info("reminders sent", "count", reminded)
	}
}

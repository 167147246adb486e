// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"fmt"
	"net/http"

	"github.com/danishmustafa86/aidlink/internal/config"
	"github.com/danishmustafa86/aidlink/internal/followup"
	"github.com/danishmustafa86/aidlink/internal/infrastructure"
	"github.com/danishmustafa86/aidlink/internal/intake"
	"github.com/danishmustafa86/aidlink/internal/notifications"
	"github.com/danishmustafa86/aidlink/pkg/middleware"
	"github.com/danishmustafa86/aidlink/pkg/module"
)

// NewModule creates the API module with all domain handlers, middleware, and
// background jobs registered against the application lifecycle.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(runtime)

	if err := registerJobs(cfg, runtime, domain); err != nil {
		return nil, fmt.Errorf("register jobs: %w", err)
	}

	mux := http.NewServeMux()
	registerRoutes(mux, domain)

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Logger))

	return m, nil
}

func registerJobs(cfg *config.Config, runtime *Runtime, domain *Domain) error {
	sweeper := notifications.NewSweeper(domain.Notifications, notifications.SweepConfig{
		Schedule:  cfg.Notifications.Sweep.Schedule,
		BatchSize: cfg.Notifications.Sweep.BatchSize,
		Timeout:   cfg.Notifications.Sweep.TimeoutDuration(),
	}, runtime.Logger)
	if err := sweeper.Register(runtime.Lifecycle); err != nil {
		return fmt.Errorf("notification sweep: %w", err)
	}

	scheduler := followup.NewScheduler(domain.Followups, followup.SchedulerConfig{
		Schedule: cfg.Followup.Schedule,
	}, runtime.Logger)
	if err := scheduler.Register(runtime.Lifecycle); err != nil {
		return fmt.Errorf("followup reminders: %w", err)
	}

	janitor := intake.NewJanitor(domain.Intake, intake.JanitorConfig{
		Schedule: cfg.Triage.JanitorSchedule,
	}, runtime.Logger)
	if err := janitor.Register(runtime.Lifecycle); err != nil {
		return fmt.Errorf("session janitor: %w", err)
	}

	return nil
}

package api

import (
	"github.com/danishmustafa86/aidlink/internal/cases"
	"github.com/danishmustafa86/aidlink/internal/followup"
	"github.com/danishmustafa86/aidlink/internal/gateway"
	"github.com/danishmustafa86/aidlink/internal/intake"
	"github.com/danishmustafa86/aidlink/internal/notifications"
	"github.com/danishmustafa86/aidlink/internal/sessions"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Gateway       gateway.System
	Cases         cases.System
	Intake        intake.System
	Notifications notifications.System
	Followups     followup.System
}

// NewDomain creates all domain systems from the API runtime. Construction
// order follows the dependency chain: the notification dispatcher must exist
// before the case manager that fans out through it.
func NewDomain(runtime *Runtime) *Domain {
	cfg := runtime.Config
	db := runtime.Database.Connection()

	gatewaySystem := gateway.New(cfg.Agent, gateway.Config{
		MaxAttempts:  cfg.Gateway.MaxAttempts,
		CallTimeout:  cfg.Gateway.CallTimeoutDuration(),
		RetryBackoff: cfg.Gateway.RetryBackoffDuration(),
	}, runtime.Logger)

	notificationStore := notifications.NewStore(db, runtime.Logger)
	notificationSystem := notifications.NewDispatcher(
		notificationStore,
		map[notifications.RecipientClass]notifications.Channel{
			notifications.RecipientCitizen: notifications.NewEmailChannel(notifications.SMTPConfig{
				Host:     cfg.Notifications.SMTP.Host,
				Port:     cfg.Notifications.SMTP.Port,
				Username: cfg.Notifications.SMTP.Username,
				Password: cfg.Notifications.SMTP.Password,
				From:     cfg.Notifications.SMTP.From,
			}),
			notifications.RecipientAuthority: notifications.NewSlackChannel(notifications.SlackConfig{
				WebhookURL: cfg.Notifications.Slack.WebhookURL,
			}),
		},
		runtime.Logger,
	)

	caseSystem := cases.NewManager(
		cases.NewStore(db, runtime.Logger),
		notificationSystem,
		cases.Config{DedupWindow: cfg.Cases.DedupWindowDuration()},
		runtime.Logger,
		runtime.Pagination,
	)

	intakeSystem := intake.NewEngine(
		sessions.New(db, runtime.Logger),
		caseSystem,
		gatewaySystem,
		intake.Config{
			ConfidenceThreshold: cfg.Triage.ConfidenceThreshold,
			MaxIdleTurns:        cfg.Triage.MaxIdleTurns,
			IdleTimeout:         cfg.Triage.IdleTimeoutDuration(),
		},
		runtime.Logger,
	)

	followupSystem := followup.NewResolver(
		followup.NewStore(db, runtime.Logger),
		caseSystem,
		notificationSystem,
		gatewaySystem,
		followup.Config{
			ReminderDelay: cfg.Followup.ReminderDelayDuration(),
			BatchSize:     cfg.Followup.BatchSize,
		},
		runtime.Logger,
	)

	return &Domain{
		Gateway:       gatewaySystem,
		Cases:         caseSystem,
		Intake:        intakeSystem,
		Notifications: notificationSystem,
		Followups:     followupSystem,
	}
}

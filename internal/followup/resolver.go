package followup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/danishmustafa86/aidlink/internal/cases"
	"github.com/danishmustafa86/aidlink/internal/gateway"
	"github.com/danishmustafa86/aidlink/internal/notifications"
)

// Outcome is the result of interpreting a citizen's confirmation reply.
type Outcome string

// Reply outcomes.
const (
	OutcomeResolved Outcome = "resolved"
	OutcomeReopened Outcome = "reopened"
	OutcomeUnclear  Outcome = "unclear"
)

// Reply is the resolver's answer to one citizen confirmation turn.
type Reply struct {
	Outcome Outcome     `json:"outcome"`
	Case    *cases.Case `json:"case,omitempty"`
	Prompt  string      `json:"prompt,omitempty"`
}

// System defines the public contract for follow-up operations.
type System interface {
	Handler() *Handler

	// RequestResolution starts (or idempotently continues) a confirmation
	// cycle after the assigned authority signals its work is done.
	RequestResolution(ctx context.Context, caseID uuid.UUID, authorityRef string) (*Followup, error)

	// HandleReply interprets the citizen's confirmation turn and resolves or
	// reopens the case accordingly. An uninterpretable reply leaves the cycle
	// open and returns a clarifying prompt.
	HandleReply(ctx context.Context, caseID uuid.UUID, citizenRef, text string) (*Reply, error)

	// RemindPending sends the single reminder to cycles past the configured
	// delay. Returns the number of reminders issued.
	RemindPending(ctx context.Context) (int, error)
}

// Config bounds the reminder behavior.
type Config struct {
	// ReminderDelay is how long a pending cycle waits before its one reminder.
	ReminderDelay time.Duration
	// BatchSize caps how many reminders one pass sends.
	BatchSize int
}

type resolver struct {
	store    Store
	cases    cases.System
	notifier notifications.System
	gateway  gateway.System
	cfg      Config
	logger   *slog.Logger
}

// NewResolver creates the follow-up resolver.
func NewResolver(
	store Store,
	caseSys cases.System,
	notifier notifications.System,
	gw gateway.System,
	cfg Config,
	logger *slog.Logger,
) System {
	if cfg.ReminderDelay <= 0 {
		cfg.ReminderDelay = 24 * time.Hour
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	return &resolver{
		store:    store,
		cases:    caseSys,
		notifier: notifier,
		gateway:  gw,
		cfg:      cfg,
		logger:   logger.With("system", "followup"),
	}
}

func (r *resolver) Handler() *Handler {
	return NewHandler(r, r.logger)
}

func (r *resolver) RequestResolution(ctx context.Context, caseID uuid.UUID, authorityRef string) (*Followup, error) {
	c, err := r.cases.Find(ctx, caseID)
	if err != nil {
		return nil, err
	}

	if c.Status != cases.StatusAssigned {
		return nil, fmt.Errorf("%w: case is %s", ErrNotRequestable, c.Status)
	}
	if c.AssignedAuthorityRef == nil || *c.AssignedAuthorityRef != authorityRef {
		return nil, fmt.Errorf("%w: case is not assigned to %s", ErrNotRequestable, authorityRef)
	}

	f, err := r.store.Request(ctx, caseID)
	if err != nil {
		return nil, err
	}

	kind := fmt.Sprintf("followup-request|%d", f.RequestedAt.Unix())
	subject := fmt.Sprintf("Is your %s issue resolved?", c.Category)
	body := fmt.Sprintf(
		"The responding team reports your %s case has been addressed. "+
			"Please reply yes to confirm, or no if the problem persists.",
		c.Category,
	)
	if err := r.notifier.Prompt(ctx, c, kind, subject, body); err != nil {
		// The event is persisted; the retry sweep owns redelivery.
		r.logger.Warn("confirmation prompt delivery failed", "case_id", caseID, "error", err)
	}

	r.logger.Info("resolution confirmation requested", "case_id", caseID, "authority_ref", authorityRef)
	return f, nil
}

func (r *resolver) HandleReply(ctx context.Context, caseID uuid.UUID, citizenRef, text string) (*Reply, error) {
	c, err := r.cases.Find(ctx, caseID)
	if err != nil {
		return nil, err
	}
	// A citizen ref mismatch reads as not found rather than leaking the case.
	if c.CitizenRef != citizenRef {
		return nil, ErrNotFound
	}

	f, err := r.store.Find(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if !f.Open() {
		return nil, ErrClosed
	}

	confirmed, decisive := r.interpret(ctx, text)
	if !decisive {
		return &Reply{
			Outcome: OutcomeUnclear,
			Prompt:  "Sorry, I did not catch that. Is your issue resolved? Please reply yes or no.",
		}, nil
	}

	if confirmed {
		if c.Status != cases.StatusResolved {
			if c, err = r.cases.SetStatus(ctx, caseID, cases.StatusResolved, citizenRef); err != nil {
				return nil, err
			}
		}
		if err := r.store.Close(ctx, caseID); err != nil {
			return nil, err
		}
		return &Reply{Outcome: OutcomeResolved, Case: c}, nil
	}

	// The dispute reopens the case; the transition notification re-alerts
	// the authority queue.
	if c.Status != cases.StatusOpen {
		if c, err = r.cases.SetStatus(ctx, caseID, cases.StatusOpen, citizenRef); err != nil {
			return nil, err
		}
	}
	if err := r.store.Close(ctx, caseID); err != nil {
		return nil, err
	}
	return &Reply{Outcome: OutcomeReopened, Case: c}, nil
}

func (r *resolver) RemindPending(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-r.cfg.ReminderDelay)
	pending, err := r.store.ListPendingBefore(ctx, cutoff, r.cfg.BatchSize)
	if err != nil {
		return 0, err
	}

	reminded := 0
	for _, f := range pending {
		c, err := r.cases.Find(ctx, f.CaseID)
		if err != nil {
			r.logger.Warn("reminder skipped", "case_id", f.CaseID, "error", err)
			continue
		}

		kind := fmt.Sprintf("followup-reminder|%d", f.RequestedAt.Unix())
		subject := fmt.Sprintf("Reminder: is your %s issue resolved?", c.Category)
		body := "We have not heard back about your case. " +
			"Please reply yes to confirm it is resolved, or no if the problem persists. " +
			"This is the only reminder you will receive."
		if err := r.notifier.Prompt(ctx, c, kind, subject, body); err != nil {
			r.logger.Warn("reminder delivery failed", "case_id", f.CaseID, "error", err)
		}

		// Mark even when the send failed: the event is persisted and the
		// retry sweep redelivers it. One reminder per cycle, ever.
		marked, err := r.store.MarkReminded(ctx, f.CaseID)
		if err != nil {
			return reminded, err
		}
		if marked {
			reminded++
		}
	}
	return reminded, nil
}

// replyContract is the machine-readable interpretation of a confirmation turn.
type replyContract struct {
	Confirmed bool `json:"confirmed"`
}

const interpretInstructions = `You are interpreting a citizen's reply to the question
"Is your reported issue resolved?". Respond with JSON only:
{"confirmed": true} when the reply affirms the issue is resolved,
{"confirmed": false} when it denies resolution or reports the problem persists.`

// interpret maps a citizen reply to a confirmation decision. The gateway
// decides when available; otherwise a keyword pass handles unambiguous
// replies and anything else stays undecided.
func (r *resolver) interpret(ctx context.Context, text string) (confirmed, decisive bool) {
	history := []gateway.Turn{{Role: gateway.RoleCitizen, Text: text}}
	parsed, err := gateway.Complete[replyContract](ctx, r.gateway, interpretInstructions, history)
	if err == nil {
		return parsed.Confirmed, true
	}
	r.logger.Warn("reply interpretation fell back to keywords", "error", err)

	return InterpretKeywords(text)
}

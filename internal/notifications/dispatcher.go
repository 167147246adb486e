package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/danishmustafa86/aidlink/internal/cases"
)

// System defines the public contract for notification operations.
type System interface {
	Handler() *Handler

	// Notify dispatches one case transition to the given recipient classes.
	// Replaying a transition that already delivered is a no-op.
	Notify(ctx context.Context, c *cases.Case, tr Transition, recipients []RecipientClass) error
	// Prompt delivers a one-off citizen message tied to a case. The kind
	// string keys the event id, so replaying the same kind for the same case
	// never sends twice.
	Prompt(ctx context.Context, c *cases.Case, kind, subject, body string) error
	// RetryUndelivered re-attempts delivery for events that have never been
	// confirmed sent. Returns the number delivered this pass.
	RetryUndelivered(ctx context.Context, limit int) (int, error)
	// Feed returns a citizen's notification events, newest first.
	Feed(ctx context.Context, citizenRef string) ([]Event, error)

	cases.Notifier
}

type dispatcher struct {
	store    Store
	channels map[RecipientClass]Channel
	logger   *slog.Logger
}

// NewDispatcher creates the notification dispatcher over the given store and
// per-recipient-class channels.
func NewDispatcher(store Store, channels map[RecipientClass]Channel, logger *slog.Logger) System {
	return &dispatcher{
		store:    store,
		channels: channels,
		logger:   logger.With("system", "notifications"),
	}
}

func (d *dispatcher) Handler() *Handler {
	return NewHandler(d, d.logger)
}

// CaseCreated notifies the authority queue of a new open case and confirms
// the filing to the citizen.
func (d *dispatcher) CaseCreated(ctx context.Context, c *cases.Case) {
	tr := Transition{To: cases.StatusOpen}
	if err := d.Notify(ctx, c, tr, []RecipientClass{RecipientAuthority, RecipientCitizen}); err != nil {
		d.logger.Error("case created notification failed", "case_id", c.ID, "error", err)
	}
}

// CaseTransitioned notifies the citizen of every transition; a reopen also
// re-notifies the authority queue with a fresh event id.
func (d *dispatcher) CaseTransitioned(ctx context.Context, c *cases.Case, from, to cases.Status) {
	recipients := []RecipientClass{RecipientCitizen}
	if to == cases.StatusOpen {
		recipients = append(recipients, RecipientAuthority)
	}

	tr := Transition{From: from, To: to}
	if err := d.Notify(ctx, c, tr, recipients); err != nil {
		d.logger.Error("transition notification failed",
			"case_id", c.ID,
			"transition", tr.String(),
			"error", err,
		)
	}
}

func (d *dispatcher) Notify(
	ctx context.Context,
	c *cases.Case,
	tr Transition,
	recipients []RecipientClass,
) error {
	eventID := EventID(c.ID, tr)

	g, gctx := errgroup.WithContext(ctx)
	for _, rc := range recipients {
		g.Go(func() error {
			return d.dispatch(gctx, c, tr, eventID, rc)
		})
	}
	return g.Wait()
}

func (d *dispatcher) dispatch(
	ctx context.Context,
	c *cases.Case,
	tr Transition,
	eventID uuid.UUID,
	rc RecipientClass,
) error {
	event := &Event{
		EventID:        eventID,
		CaseID:         c.ID,
		RecipientClass: rc,
		RecipientRef:   recipientRef(c, rc),
		Payload:        BuildPayload(c, tr, rc),
	}

	stored, err := d.store.Ensure(ctx, event)
	if err != nil {
		return err
	}
	if stored.Delivered {
		return nil
	}

	return d.deliver(ctx, stored)
}

// deliver attempts one send and marks the event delivered only on success.
// Failures leave the event for the retry sweep; losing a delivery is worse
// than duplicating one.
func (d *dispatcher) deliver(ctx context.Context, e *Event) error {
	channel, ok := d.channels[e.RecipientClass]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoChannel, e.RecipientClass)
	}

	if err := channel.Send(ctx, e.RecipientRef, e.Payload); err != nil {
		if recordErr := d.store.RecordAttempt(ctx, e.EventID, e.RecipientClass); recordErr != nil {
			err = errors.Join(err, recordErr)
		}
		return fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}

	marked, err := d.store.MarkDelivered(ctx, e.EventID, e.RecipientClass)
	if err != nil {
		return err
	}
	if marked {
		d.logger.Info("notification delivered",
			"event_id", e.EventID,
			"recipient_class", e.RecipientClass,
			"case_id", e.CaseID,
		)
	}
	return nil
}

func (d *dispatcher) Prompt(ctx context.Context, c *cases.Case, kind, subject, body string) error {
	event := &Event{
		EventID:        PromptEventID(c.ID, kind),
		CaseID:         c.ID,
		RecipientClass: RecipientCitizen,
		RecipientRef:   c.CitizenRef,
		Payload: Payload{
			CaseID:     c.ID,
			Category:   c.Category,
			Transition: kind,
			Subject:    subject,
			Body:       body,
		},
	}

	stored, err := d.store.Ensure(ctx, event)
	if err != nil {
		return err
	}
	if stored.Delivered {
		return nil
	}

	return d.deliver(ctx, stored)
}

func (d *dispatcher) RetryUndelivered(ctx context.Context, limit int) (int, error) {
	pending, err := d.store.ListUndelivered(ctx, limit)
	if err != nil {
		return 0, err
	}

	delivered := 0
	for i := range pending {
		if err := d.deliver(ctx, &pending[i]); err != nil {
			d.logger.Warn("retry delivery failed",
				"event_id", pending[i].EventID,
				"recipient_class", pending[i].RecipientClass,
				"attempts", pending[i].Attempts,
				"error", err,
			)
			continue
		}
		delivered++
	}
	return delivered, nil
}

func (d *dispatcher) Feed(ctx context.Context, citizenRef string) ([]Event, error) {
	return d.store.ListByRecipient(ctx, RecipientCitizen, citizenRef)
}

func recipientRef(c *cases.Case, rc RecipientClass) string {
	if rc == RecipientAuthority {
		return fmt.Sprintf("authority:%s", c.Category)
	}
	return c.CitizenRef
}

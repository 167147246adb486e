package notifications

import (
	"context"

	"github.com/google/uuid"
)

// Store is the persistence collaborator for notification events.
type Store interface {
	// Ensure inserts the event if no row exists for its
	// (event_id, recipient_class) pair and returns the stored row either way.
	Ensure(ctx context.Context, e *Event) (*Event, error)
	// MarkDelivered sets delivered exactly once. Returns false when the event
	// was already delivered, so replays never count a second send.
	MarkDelivered(ctx context.Context, eventID uuid.UUID, rc RecipientClass) (bool, error)
	// RecordAttempt increments the attempt counter for an undelivered event.
	RecordAttempt(ctx context.Context, eventID uuid.UUID, rc RecipientClass) error
	// ListUndelivered returns up to limit events awaiting delivery, oldest first.
	ListUndelivered(ctx context.Context, limit int) ([]Event, error)
	// ListByRecipient returns a recipient's events, newest first.
	ListByRecipient(ctx context.Context, rc RecipientClass, recipientRef string) ([]Event, error)
}

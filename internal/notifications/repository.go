package notifications

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/danishmustafa86/aidlink/pkg/repository"
)

type repo struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewStore creates a PostgreSQL-backed notification event store.
func NewStore(db *sql.DB, logger *slog.Logger) Store {
	return &repo{
		db:     db,
		logger: logger.With("store", "notifications"),
	}
}

const eventColumns = `event_id, case_id, recipient_class, recipient_ref,
	payload, delivered, attempts, created_at, delivered_at`

func (r *repo) Ensure(ctx context.Context, e *Event) (*Event, error) {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	insertQ := `
		INSERT INTO notifications(event_id, case_id, recipient_class, recipient_ref, payload)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (event_id, recipient_class) DO NOTHING`

	if _, err := r.db.ExecContext(ctx, insertQ,
		e.EventID, e.CaseID, e.RecipientClass, e.RecipientRef, payload,
	); err != nil {
		return nil, fmt.Errorf("ensure event: %w", err)
	}

	return r.find(ctx, e.EventID, e.RecipientClass)
}

func (r *repo) MarkDelivered(ctx context.Context, eventID uuid.UUID, rc RecipientClass) (bool, error) {
	markQ := `
		UPDATE notifications
		SET delivered = TRUE, delivered_at = NOW()
		WHERE event_id = $1 AND recipient_class = $2 AND delivered = FALSE`

	err := repository.ExecExpectOne(ctx, r.db, markQ, eventID, rc)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("mark delivered: %w", err)
	}
	return true, nil
}

func (r *repo) RecordAttempt(ctx context.Context, eventID uuid.UUID, rc RecipientClass) error {
	attemptQ := `
		UPDATE notifications
		SET attempts = attempts + 1
		WHERE event_id = $1 AND recipient_class = $2 AND delivered = FALSE`

	if _, err := r.db.ExecContext(ctx, attemptQ, eventID, rc); err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}
	return nil
}

func (r *repo) ListUndelivered(ctx context.Context, limit int) ([]Event, error) {
	q := fmt.Sprintf(`
		SELECT %s FROM notifications
		WHERE delivered = FALSE
		ORDER BY created_at ASC
		LIMIT $1`, eventColumns)

	events, err := repository.QueryMany(ctx, r.db, q, []any{limit}, scanEvent)
	if err != nil {
		return nil, fmt.Errorf("list undelivered events: %w", err)
	}
	return events, nil
}

func (r *repo) ListByRecipient(ctx context.Context, rc RecipientClass, recipientRef string) ([]Event, error) {
	q := fmt.Sprintf(`
		SELECT %s FROM notifications
		WHERE recipient_class = $1 AND recipient_ref = $2
		ORDER BY created_at DESC`, eventColumns)

	events, err := repository.QueryMany(ctx, r.db, q, []any{rc, recipientRef}, scanEvent)
	if err != nil {
		return nil, fmt.Errorf("list recipient events: %w", err)
	}
	return events, nil
}

func (r *repo) find(ctx context.Context, eventID uuid.UUID, rc RecipientClass) (*Event, error) {
	q := fmt.Sprintf(`
		SELECT %s FROM notifications
		WHERE event_id = $1 AND recipient_class = $2`, eventColumns)

	e, err := repository.QueryOne(ctx, r.db, q, []any{eventID, rc}, scanEvent)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrNotFound)
	}
	return &e, nil
}

func scanEvent(sc repository.Scanner) (Event, error) {
	var e Event
	var payloadRaw []byte

	err := sc.Scan(
		&e.EventID,
		&e.CaseID,
		&e.RecipientClass,
		&e.RecipientRef,
		&payloadRaw,
		&e.Delivered,
		&e.Attempts,
		&e.CreatedAt,
		&e.DeliveredAt,
	)
	if err != nil {
		return e, err
	}

	if len(payloadRaw) > 0 {
		if err := json.Unmarshal(payloadRaw, &e.Payload); err != nil {
			return e, fmt.Errorf("unmarshal payload: %w", err)
		}
	}

	return e, nil
}

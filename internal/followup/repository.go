package followup

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/danishmustafa86/aidlink/pkg/repository"
)

type repo struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewStore creates a PostgreSQL-backed follow-up store.
func NewStore(db *sql.DB, logger *slog.Logger) Store {
	return &repo{
		db:     db,
		logger: logger.With("store", "followups"),
	}
}

const followupColumns = `case_id, state, requested_at, reminded_at`

func (r *repo) Request(ctx context.Context, caseID uuid.UUID) (*Followup, error) {
	// An open cycle survives untouched; a closed or absent one resets to
	// pending with a fresh requested_at.
	q := fmt.Sprintf(`
		INSERT INTO followups(case_id, state, requested_at)
		VALUES ($1, 'pending', NOW())
		ON CONFLICT (case_id) DO UPDATE
		SET state = 'pending', requested_at = NOW(), reminded_at = NULL
		WHERE followups.state = 'closed'
		RETURNING %s`, followupColumns)

	f, err := repository.QueryOne(ctx, r.db, q, []any{caseID}, scanFollowup)
	if err == nil {
		return &f, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("request follow-up: %w", err)
	}

	// Conflict with an open cycle returns no row; read it back.
	return r.Find(ctx, caseID)
}

func (r *repo) Find(ctx context.Context, caseID uuid.UUID) (*Followup, error) {
	q := fmt.Sprintf(`
		SELECT %s FROM followups
		WHERE case_id = $1`, followupColumns)

	f, err := repository.QueryOne(ctx, r.db, q, []any{caseID}, scanFollowup)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrNotFound)
	}
	return &f, nil
}

func (r *repo) MarkReminded(ctx context.Context, caseID uuid.UUID) (bool, error) {
	q := `
		UPDATE followups
		SET state = 'reminded', reminded_at = NOW()
		WHERE case_id = $1 AND state = 'pending'`

	err := repository.ExecExpectOne(ctx, r.db, q, caseID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("mark reminded: %w", err)
	}
	return true, nil
}

func (r *repo) Close(ctx context.Context, caseID uuid.UUID) error {
	q := `
		UPDATE followups
		SET state = 'closed'
		WHERE case_id = $1 AND state <> 'closed'`

	if _, err := r.db.ExecContext(ctx, q, caseID); err != nil {
		return fmt.Errorf("close follow-up: %w", err)
	}
	return nil
}

func (r *repo) ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]Followup, error) {
	q := fmt.Sprintf(`
		SELECT %s FROM followups
		WHERE state = 'pending' AND requested_at <= $1
		ORDER BY requested_at ASC
		LIMIT $2`, followupColumns)

	followups, err := repository.QueryMany(ctx, r.db, q, []any{cutoff, limit}, scanFollowup)
	if err != nil {
		return nil, fmt.Errorf("list pending follow-ups: %w", err)
	}
	return followups, nil
}

func scanFollowup(sc repository.Scanner) (Followup, error) {
	var f Followup
	err := sc.Scan(
		&f.CaseID,
		&f.State,
		&f.RequestedAt,
		&f.RemindedAt,
	)
	return f, err
}

package sessions

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/danishmustafa86/aidlink/internal/gateway"
	"github.com/danishmustafa86/aidlink/pkg/repository"
)

type repo struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a PostgreSQL-backed session store.
func New(db *sql.DB, logger *slog.Logger) Store {
	return &repo{
		db:     db,
		logger: logger.With("system", "sessions"),
	}
}

const sessionColumns = `id, citizen_ref, category, status, turns, collected,
	idle_turns, unclear_prompts, created_at, updated_at`

func (r *repo) Insert(ctx context.Context, s *Session) error {
	turns, collected, err := marshalState(s)
	if err != nil {
		return err
	}

	insertQ := `
		INSERT INTO sessions(
			id, citizen_ref, category, status, turns, collected,
			idle_turns, unclear_prompts
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`

	err = r.db.QueryRowContext(ctx, insertQ,
		s.ID, s.CitizenRef, s.Category, s.Status, turns, collected,
		s.IdleTurns, s.UnclearPrompts,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	r.logger.Info("session created", "id", s.ID, "citizen_ref", s.CitizenRef)
	return nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Session, error) {
	q := fmt.Sprintf("SELECT %s FROM sessions WHERE id = $1", sessionColumns)

	s, err := repository.QueryOne(ctx, r.db, q, []any{id}, scanSession)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrNotFound)
	}
	return &s, nil
}

// Update persists the session's mutable state. The status guard makes a late
// write against an archived session a rejected no-op rather than an overwrite.
func (r *repo) Update(ctx context.Context, s *Session) error {
	turns, collected, err := marshalState(s)
	if err != nil {
		return err
	}

	updateQ := `
		UPDATE sessions
		SET category = $1, status = $2, turns = $3, collected = $4,
			idle_turns = $5, unclear_prompts = $6, updated_at = NOW()
		WHERE id = $7 AND status = 'collecting'`

	if err := repository.ExecExpectOne(ctx, r.db, updateQ,
		s.Category, s.Status, turns, collected,
		s.IdleTurns, s.UnclearPrompts, s.ID,
	); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("update session: %w", err)
		}
		if _, findErr := r.Find(ctx, s.ID); findErr != nil {
			return findErr
		}
		return ErrArchived
	}

	return nil
}

func (r *repo) ListIdleBefore(ctx context.Context, cutoff time.Time, limit int) ([]Session, error) {
	q := fmt.Sprintf(`
		SELECT %s FROM sessions
		WHERE status = 'collecting' AND updated_at <= $1
		ORDER BY updated_at ASC
		LIMIT $2`, sessionColumns)

	stale, err := repository.QueryMany(ctx, r.db, q, []any{cutoff, limit}, scanSession)
	if err != nil {
		return nil, fmt.Errorf("list idle sessions: %w", err)
	}
	return stale, nil
}

func marshalState(s *Session) (turns, collected []byte, err error) {
	if turns, err = json.Marshal(s.Turns); err != nil {
		return nil, nil, fmt.Errorf("marshal turns: %w", err)
	}
	if collected, err = json.Marshal(s.Collected); err != nil {
		return nil, nil, fmt.Errorf("marshal collected: %w", err)
	}
	return turns, collected, nil
}

func scanSession(sc repository.Scanner) (Session, error) {
	var s Session
	var turnsRaw, collectedRaw []byte

	err := sc.Scan(
		&s.ID,
		&s.CitizenRef,
		&s.Category,
		&s.Status,
		&turnsRaw,
		&collectedRaw,
		&s.IdleTurns,
		&s.UnclearPrompts,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return s, err
	}

	if len(turnsRaw) > 0 {
		if err := json.Unmarshal(turnsRaw, &s.Turns); err != nil {
			return s, fmt.Errorf("unmarshal turns: %w", err)
		}
	}
	if len(collectedRaw) > 0 {
		if err := json.Unmarshal(collectedRaw, &s.Collected); err != nil {
			return s, fmt.Errorf("unmarshal collected: %w", err)
		}
	}
	if s.Collected == nil {
		s.Collected = make(map[string]string)
	}
	if s.Turns == nil {
		s.Turns = []gateway.Turn{}
	}

	return s, nil
}

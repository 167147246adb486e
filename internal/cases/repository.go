package cases

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/danishmustafa86/aidlink/pkg/pagination"
	"github.com/danishmustafa86/aidlink/pkg/query"
	"github.com/danishmustafa86/aidlink/pkg/repository"
)

type repo struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewStore creates a PostgreSQL-backed case store.
func NewStore(db *sql.DB, logger *slog.Logger) Store {
	return &repo{
		db:     db,
		logger: logger.With("store", "cases"),
	}
}

func (r *repo) Insert(ctx context.Context, c *Case) error {
	report, err := json.Marshal(c.Report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	history, err := json.Marshal(c.History)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}

	insertQ := `
		INSERT INTO cases(id, category, report, report_digest, status, citizen_ref, history)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	digest := reportDigest(c.Category, c.Report)
	err = r.db.QueryRowContext(ctx, insertQ,
		c.ID, c.Category, report, digest, c.Status, c.CitizenRef, history,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert case: %w", err)
	}

	return nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Case, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	c, err := repository.QueryOne(ctx, r.db, q, args, scanCase)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrNotFound)
	}
	return &c, nil
}

func (r *repo) FindRecentDuplicate(
	ctx context.Context,
	citizenRef, digest string,
	window time.Duration,
) (*Case, error) {
	cutoff := time.Now().Add(-window)

	q := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE c.citizen_ref = $1 AND c.report_digest = $2 AND c.created_at > $3
		ORDER BY c.created_at DESC
		LIMIT 1`,
		projection.Columns(), projection.Table(),
	)

	c, err := repository.QueryOne(ctx, r.db, q, []any{citizenRef, digest, cutoff}, scanCase)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrNotFound)
	}
	return &c, nil
}

// CompareAndSwap applies the transition and its history append in one guarded
// UPDATE. The status predicate serializes racing writers: whichever commits
// first invalidates the other's expected status.
func (r *repo) CompareAndSwap(
	ctx context.Context,
	id uuid.UUID,
	expected Status,
	change Change,
	entry HistoryEntry,
) (*Case, error) {
	entryJSON, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("marshal history entry: %w", err)
	}

	swapQ := fmt.Sprintf(`
		UPDATE %s
		SET status = $2,
			history = c.history || $3::jsonb,
			assigned_authority_ref = CASE
				WHEN $4::boolean THEN NULL
				WHEN $5::text IS NOT NULL THEN $5
				ELSE c.assigned_authority_ref
			END,
			updated_at = NOW()
		WHERE c.id = $1 AND c.status = $6
		RETURNING %s`,
		projection.Table(), projection.Columns(),
	)

	c, err := repository.QueryOne(ctx, r.db, swapQ,
		[]any{id, change.Status, entryJSON, change.ClearAuthRef, change.AuthorityRef, expected},
		scanCase,
	)
	if err == nil {
		return &c, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("swap case status: %w", err)
	}

	// Zero rows: either the case is gone or another writer got there first.
	if _, findErr := r.Find(ctx, id); findErr != nil {
		return nil, findErr
	}
	return nil, ErrStale
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Case], error) {
	qb := query.NewBuilder(projection, defaultSort)
	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count cases: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanCase)
	if err != nil {
		return nil, fmt.Errorf("query cases: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

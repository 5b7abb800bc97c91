package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-ronin-automation/internal/models"
)

// Postgres implements Store on a pgx connection pool.
type Postgres struct {
	db *pgxpool.Pool
}

const postingColumns = `id, source, external_id, title, company, url, description_raw,
	salary, location, posted_at, quick_apply, match_score, match_rationale,
	status, attempt_count, last_attempt_at, failure_reason, created_at`

// Connect opens the pool and pings it.
func Connect(ctx context.Context, connString string) (*Postgres, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database url: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour

	// Supabase's connection pooler (PgBouncer in transaction mode) does not
	// support prepared statements, so the statement cache must be disabled.
	config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeExec

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	return &Postgres{db: pool}, nil
}

func (s *Postgres) Close() {
	if s.db != nil {
		s.db.Close()
	}
}

func scanPosting(row pgx.Row) (*models.JobPosting, error) {
	var p models.JobPosting
	err := row.Scan(
		&p.ID, &p.Source, &p.ExternalID, &p.Title, &p.Company, &p.URL,
		&p.DescriptionRaw, &p.Salary, &p.Location, &p.PostedAt, &p.QuickApply,
		&p.MatchScore, &p.MatchRationale, &p.Status, &p.AttemptCount,
		&p.LastAttemptAt, &p.FailureReason, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpsertPosting inserts a new posting as DISCOVERED or refreshes the
// descriptive fields of an existing one. Status and attempt bookkeeping are
// deliberately absent from the conflict update: only the orchestrator writes
// those.
func (s *Postgres) UpsertPosting(ctx context.Context, p *models.JobPosting) error {
	query := `
		INSERT INTO postings (source, external_id, title, company, url, description_raw,
			salary, location, posted_at, quick_apply, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (source, external_id)
		DO UPDATE SET title = EXCLUDED.title, company = EXCLUDED.company,
			description_raw = EXCLUDED.description_raw, salary = EXCLUDED.salary,
			location = EXCLUDED.location, quick_apply = EXCLUDED.quick_apply
		RETURNING ` + postingColumns

	status := p.Status
	if status == "" {
		status = models.StatusDiscovered
	}

	row := s.db.QueryRow(ctx, query, p.Source, p.ExternalID, p.Title, p.Company,
		p.URL, p.DescriptionRaw, p.Salary, p.Location, p.PostedAt, p.QuickApply, status)

	saved, err := scanPosting(row)
	if err != nil {
		return fmt.Errorf("failed to upsert posting: %w", err)
	}
	*p = *saved
	return nil
}

// FindByStatus returns postings in any of the given statuses, in the given
// processing order.
func (s *Postgres) FindByStatus(ctx context.Context, statuses []models.Status, order Order, limit int) ([]models.JobPosting, error) {
	orderBy := "posted_at ASC"
	switch order {
	case OrderNewestFirst:
		orderBy = "posted_at DESC"
	case OrderScoreDesc:
		orderBy = "match_score DESC"
	}

	query := fmt.Sprintf(`SELECT %s FROM postings WHERE status = ANY($1) ORDER BY %s`, postingColumns, orderBy)
	args := []any{statuses}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query postings: %w", err)
	}
	defer rows.Close()

	var postings []models.JobPosting
	for rows.Next() {
		p, err := scanPosting(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan posting: %w", err)
		}
		postings = append(postings, *p)
	}
	return postings, rows.Err()
}

// FinishApplication writes the terminal status of a claimed posting. The
// status guard makes the writeback conditional: if a recovery pass demoted
// the row while the form was being driven, zero rows match and the claim
// holder learns it lost instead of clobbering the newer status.
func (s *Postgres) FinishApplication(ctx context.Context, id string, status models.Status, failureReason string) (bool, error) {
	tag, err := s.db.Exec(ctx,
		"UPDATE postings SET status = $1, failure_reason = $2 WHERE id = $3 AND status = $4",
		status, failureReason, id, models.StatusInProgress)
	if err != nil {
		return false, fmt.Errorf("failed to finish application: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// UpdateScore persists scoring output and promotes the posting.
func (s *Postgres) UpdateScore(ctx context.Context, id string, score int, rationale string, status models.Status) error {
	_, err := s.db.Exec(ctx,
		"UPDATE postings SET match_score = $1, match_rationale = $2, status = $3 WHERE id = $4",
		score, rationale, status, id)
	if err != nil {
		return fmt.Errorf("failed to update posting score: %w", err)
	}
	return nil
}

// ClaimForApplication performs the atomic claim. The WHERE clause is the
// whole idempotence story: a posting that is SUBMITTED, already IN_PROGRESS
// or PERMANENTLY_FAILED matches zero rows and the claim loses.
func (s *Postgres) ClaimForApplication(ctx context.Context, id string) (*models.JobPosting, error) {
	query := `
		UPDATE postings
		SET status = $1, attempt_count = attempt_count + 1, last_attempt_at = now()
		WHERE id = $2 AND status = ANY($3)
		RETURNING ` + postingColumns

	claimable := []models.Status{models.StatusMatched, models.StatusFailedRetryable}
	row := s.db.QueryRow(ctx, query, models.StatusInProgress, id, claimable)

	p, err := scanPosting(row)
	if err == pgx.ErrNoRows {
		return nil, ErrNotClaimable
	}
	if err != nil {
		return nil, fmt.Errorf("failed to claim posting: %w", err)
	}
	return p, nil
}

// RecoverInFlight demotes stale IN_PROGRESS rows left by an interrupted run.
// The age criterion distinguishes an abandoned claim from one held by a run
// that is still mid-form right now: demoting the latter would let two runs
// submit the same posting.
func (s *Postgres) RecoverInFlight(ctx context.Context, reason string, olderThan time.Duration) (int, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE postings SET status = $1, failure_reason = $2
		 WHERE status = $3 AND (last_attempt_at IS NULL OR last_attempt_at < now() - make_interval(secs => $4))`,
		models.StatusFailedRetryable, reason, models.StatusInProgress, olderThan.Seconds())
	if err != nil {
		return 0, fmt.Errorf("failed to recover in-flight postings: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

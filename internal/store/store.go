// Package store is the durable posting table. Any tabular backend works as
// long as it satisfies Store; the production implementation is Postgres.
package store

import (
	"context"
	"errors"
	"time"

	"go-ronin-automation/internal/models"
)

// Order is the processing order for FindByStatus.
type Order string

const (
	OrderOldestFirst Order = "oldest"
	OrderNewestFirst Order = "newest"
	OrderScoreDesc   Order = "score"
)

// ErrNotClaimable is returned by ClaimForApplication when the posting is not
// in a claimable status — either it was already submitted, or a concurrent
// run got there first.
var ErrNotClaimable = errors.New("posting is not claimable")

// Store is the contract the orchestrator and scraper depend on. The
// orchestrator is the single writer of application status.
type Store interface {
	// UpsertPosting inserts a posting or refreshes the descriptive fields of
	// an existing one, keyed by (source, external_id). Status and attempt
	// bookkeeping of existing rows are never touched by an upsert.
	UpsertPosting(ctx context.Context, p *models.JobPosting) error

	// FindByStatus returns postings in any of the given statuses.
	// limit <= 0 means no limit.
	FindByStatus(ctx context.Context, statuses []models.Status, order Order, limit int) ([]models.JobPosting, error)

	// FinishApplication writes the terminal status of a claimed posting,
	// persisting the failure reason (empty string clears it). The write only
	// lands while the row is still IN_PROGRESS; false means the claim was
	// lost to a recovery pass in the meantime and nothing was written.
	FinishApplication(ctx context.Context, id string, status models.Status, failureReason string) (bool, error)

	// UpdateScore persists the match score and rationale and promotes the
	// posting to MATCHED or SKIPPED.
	UpdateScore(ctx context.Context, id string, score int, rationale string, status models.Status) error

	// ClaimForApplication atomically moves a MATCHED or FAILED_RETRYABLE
	// posting to IN_PROGRESS and increments its attempt count. Exactly one
	// caller can win the claim; everyone else gets ErrNotClaimable. This is
	// what enforces at-most-one submission across runs.
	ClaimForApplication(ctx context.Context, id string) (*models.JobPosting, error)

	// RecoverInFlight demotes postings left IN_PROGRESS by an interrupted run
	// to FAILED_RETRYABLE, recording reason. Only rows whose last attempt
	// started more than olderThan ago are touched, so a claim held by a live
	// concurrent run survives. Returns how many rows were demoted.
	RecoverInFlight(ctx context.Context, reason string, olderThan time.Duration) (int, error)
}

// Package orchestrator iterates over eligible postings, drives the form
// engine for each one and is the single writer of application status.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go-ronin-automation/internal/form"
	"go-ronin-automation/internal/models"
	"go-ronin-automation/internal/store"
)

// FormDriver is what the orchestrator needs from the form engine. Satisfied
// by *form.Driver; tests substitute a fake.
type FormDriver interface {
	Run(ctx context.Context, posting models.JobPosting, profile models.CandidateProfile) (form.Result, error)
}

// Options configure one run.
type Options struct {
	ScoreThreshold int
	MaxAttempts    int
	RateLimit      time.Duration // minimum delay between consecutive attempts
	Limit          int           // cap on postings per run, 0 = unlimited
	DryRun         bool
	ResumeOnly     bool // only FAILED_RETRYABLE postings
	QuickApplyOnly bool
	Order          store.Order
	// RecoverAfter is how long an IN_PROGRESS claim may sit before the
	// startup recovery pass treats it as abandoned. It must comfortably
	// exceed the longest possible form traversal, or recovery will demote a
	// claim a live concurrent run is still driving.
	RecoverAfter time.Duration
}

// RunSummary is the user-visible result of a run.
type RunSummary struct {
	Submitted         int
	Retried           int
	PermanentlyFailed int
	Skipped           int
	DryRuns           int
	// Failures maps posting URL to the reason of its most recent failure,
	// so a human can intervene on the permanently failed ones.
	Failures map[string]string
}

// Orchestrator owns the browser session and the store connection for the
// duration of a run. Postings are processed strictly one at a time; parallel
// form filling against one site multiplies detection risk and the browser
// session is not built for concurrent multiplexing.
type Orchestrator struct {
	store   store.Store
	driver  FormDriver
	profile models.CandidateProfile
	opts    Options
	log     *slog.Logger
}

func New(st store.Store, driver FormDriver, profile models.CandidateProfile, opts Options, log *slog.Logger) *Orchestrator {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.Order == "" {
		opts.Order = store.OrderOldestFirst
	}
	if opts.RecoverAfter <= 0 {
		opts.RecoverAfter = 30 * time.Minute
	}
	return &Orchestrator{store: st, driver: driver, profile: profile, opts: opts, log: log}
}

// Run processes every eligible posting. It returns a summary in all cases;
// the error is non-nil only for session-level failures (store unreachable,
// browser dead) or operator cancellation, which halt the run immediately.
func (o *Orchestrator) Run(ctx context.Context) (*RunSummary, error) {
	summary := &RunSummary{Failures: map[string]string{}}

	if !o.opts.DryRun {
		recovered, err := o.store.RecoverInFlight(ctx, "interrupted by previous run", o.opts.RecoverAfter)
		if err != nil {
			return summary, fmt.Errorf("recovering in-flight postings: %w", err)
		}
		if recovered > 0 {
			o.log.Warn("demoted stale in-progress postings", slog.Int("count", recovered))
		}
	}

	statuses := []models.Status{models.StatusMatched, models.StatusFailedRetryable}
	if o.opts.ResumeOnly {
		statuses = []models.Status{models.StatusFailedRetryable}
	}

	postings, err := o.store.FindByStatus(ctx, statuses, o.opts.Order, 0)
	if err != nil {
		return summary, fmt.Errorf("listing eligible postings: %w", err)
	}

	processed := 0
	for _, posting := range postings {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		if !o.eligible(posting) {
			summary.Skipped++
			continue
		}

		if o.opts.Limit > 0 && processed >= o.opts.Limit {
			break
		}

		if processed > 0 {
			if err := o.pace(ctx); err != nil {
				return summary, err
			}
		}
		processed++

		if o.opts.DryRun {
			if err := o.dryRun(ctx, posting, summary); err != nil {
				return summary, err
			}
			continue
		}

		if err := o.applyOne(ctx, posting, summary); err != nil {
			return summary, err
		}
	}

	o.log.Info("run complete",
		slog.Int("submitted", summary.Submitted),
		slog.Int("retried", summary.Retried),
		slog.Int("permanently_failed", summary.PermanentlyFailed),
		slog.Int("skipped", summary.Skipped),
		slog.Int("dry_runs", summary.DryRuns))
	return summary, nil
}

// eligible applies the score/attempt/quick-apply filter. Status filtering
// already happened in the store query.
func (o *Orchestrator) eligible(p models.JobPosting) bool {
	if p.MatchScore < o.opts.ScoreThreshold {
		return false
	}
	if p.AttemptCount >= o.opts.MaxAttempts {
		return false
	}
	if o.opts.QuickApplyOnly && !p.QuickApply {
		return false
	}
	return true
}

// applyOne claims one posting, drives its form and writes the outcome back.
func (o *Orchestrator) applyOne(ctx context.Context, posting models.JobPosting, summary *RunSummary) error {
	// the claim persists IN_PROGRESS before the browser touches anything, so
	// a crash mid-attempt leaves an auditable trail instead of a MATCHED row
	// masking a possible partial submission
	claimed, err := o.store.ClaimForApplication(ctx, posting.ID)
	if errors.Is(err, store.ErrNotClaimable) {
		// lost the race to a concurrent run, or the posting moved on
		summary.Skipped++
		return nil
	}
	if err != nil {
		return fmt.Errorf("claiming posting %s: %w", posting.ID, err)
	}

	attempt := models.ApplicationAttempt{PostingID: claimed.ID, StartedAt: time.Now()}
	o.log.Info("applying", slog.String("title", claimed.Title), slog.String("company", claimed.Company),
		slog.Int("attempt", claimed.AttemptCount))

	result, err := o.driver.Run(ctx, *claimed, o.profile)
	attempt.FinishedAt = time.Now()
	attempt.Unresolved = result.Unresolved

	if err != nil {
		// session-level failure: the posting stays IN_PROGRESS on purpose and
		// the whole run halts — a dead browser cannot safely continue
		attempt.Outcome = models.OutcomeError
		attempt.Reason = err.Error()
		o.log.Error("fatal form driver failure", attempt.LogAttrs()...)
		return fmt.Errorf("form driver failed on posting %s: %w", claimed.ID, err)
	}

	if result.Outcome == form.OutcomeAborted && result.Reason == form.ReasonCancelled {
		// operator abort: leave the posting IN_PROGRESS, the next run's
		// recovery pass will demote it
		if err := ctx.Err(); err != nil {
			return err
		}
		return context.Canceled
	}

	switch result.Outcome {
	case form.OutcomeSubmitted:
		attempt.Outcome = models.OutcomeSubmitted
		held, err := o.store.FinishApplication(ctx, claimed.ID, models.StatusSubmitted, "")
		if err != nil {
			return fmt.Errorf("persisting submitted status for %s: %w", claimed.ID, err)
		}
		if !held {
			o.log.Warn("claim lost before writeback, a recovery pass demoted it mid-attempt",
				slog.String("id", claimed.ID), slog.String("url", claimed.URL))
		}
		summary.Submitted++

	case form.OutcomeAborted:
		attempt.Outcome = abortOutcome(result)
		attempt.Reason = failureReason(result)
		summary.Failures[claimed.URL] = attempt.Reason

		next := models.StatusFailedRetryable
		if claimed.AttemptCount >= o.opts.MaxAttempts {
			next = models.StatusPermanentlyFailed
		}
		held, err := o.store.FinishApplication(ctx, claimed.ID, next, attempt.Reason)
		if err != nil {
			return fmt.Errorf("persisting failure status for %s: %w", claimed.ID, err)
		}
		switch {
		case !held:
			o.log.Warn("claim lost before writeback, a recovery pass demoted it mid-attempt",
				slog.String("id", claimed.ID), slog.String("url", claimed.URL))
		case next == models.StatusPermanentlyFailed:
			summary.PermanentlyFailed++
		default:
			summary.Retried++
		}
	}

	o.log.Info("application attempt finished", attempt.LogAttrs()...)
	return nil
}

// dryRun drives the form without claiming the posting or writing anything
// back.
func (o *Orchestrator) dryRun(ctx context.Context, posting models.JobPosting, summary *RunSummary) error {
	result, err := o.driver.Run(ctx, posting, o.profile)
	if err != nil {
		return fmt.Errorf("form driver failed on posting %s: %w", posting.ID, err)
	}
	summary.DryRuns++
	o.log.Info("dry run",
		slog.String("title", posting.Title),
		slog.String("outcome", string(result.Outcome)),
		slog.Int("filled", result.Filled),
		slog.Any("unresolved", result.Unresolved))
	return nil
}

// pace enforces the minimum delay between attempts without blocking through
// a cancellation.
func (o *Orchestrator) pace(ctx context.Context) error {
	if o.opts.RateLimit <= 0 {
		return nil
	}
	timer := time.NewTimer(o.opts.RateLimit)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func abortOutcome(r form.Result) models.AttemptOutcome {
	switch {
	case r.Reason == form.ReasonChallengeDetected:
		return models.OutcomeRejectedBySite
	case r.Filled > 0:
		return models.OutcomePartiallyFull
	default:
		return models.OutcomeError
	}
}

// failureReason renders the abort reason plus offending labels, persisted
// for human review.
func failureReason(r form.Result) string {
	if len(r.Unresolved) == 0 {
		return string(r.Reason)
	}
	return fmt.Sprintf("%s: %s", r.Reason, strings.Join(r.Unresolved, ", "))
}

package models

import (
	"log/slog"
	"time"
)

// AttemptOutcome is the coarse result of one application attempt.
type AttemptOutcome string

const (
	OutcomeSubmitted      AttemptOutcome = "submitted"
	OutcomePartiallyFull  AttemptOutcome = "partially_filled"
	OutcomeRejectedBySite AttemptOutcome = "rejected_by_site"
	OutcomeError          AttemptOutcome = "error"
)

// ApplicationAttempt is the structured record of one pass over a posting's
// form. Not persisted; emitted as a log record so a human can reconstruct
// what happened and the orchestrator can decide on retries.
type ApplicationAttempt struct {
	PostingID  string
	StartedAt  time.Time
	FinishedAt time.Time
	Outcome    AttemptOutcome
	Reason     string
	Unresolved []string
}

// LogAttrs renders the attempt as slog attributes.
func (a ApplicationAttempt) LogAttrs() []any {
	return []any{
		slog.String("posting_id", a.PostingID),
		slog.String("outcome", string(a.Outcome)),
		slog.String("reason", a.Reason),
		slog.Duration("elapsed", a.FinishedAt.Sub(a.StartedAt)),
		slog.Any("unresolved", a.Unresolved),
	}
}

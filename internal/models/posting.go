// Package models defines the posting lifecycle and the records shared by the
// scraper, the filter and the application engine.
//
// Valid status graph:
//
//	DISCOVERED ──► MATCHED ──► IN_PROGRESS ──► SUBMITTED
//	    │                          │   ▲
//	    ▼                          ▼   │
//	 SKIPPED            FAILED_RETRYABLE ──► PERMANENTLY_FAILED
//
// SUBMITTED, SKIPPED and PERMANENTLY_FAILED are terminal. The only backwards
// edge is IN_PROGRESS → FAILED_RETRYABLE, bounded by the configured attempt
// limit.
package models

import (
	"fmt"
	"time"
)

type Status string

const (
	StatusDiscovered        Status = "DISCOVERED"
	StatusMatched           Status = "MATCHED"
	StatusSkipped           Status = "SKIPPED"
	StatusInProgress        Status = "IN_PROGRESS"
	StatusSubmitted         Status = "SUBMITTED"
	StatusFailedRetryable   Status = "FAILED_RETRYABLE"
	StatusPermanentlyFailed Status = "PERMANENTLY_FAILED"
)

// validTransitions lists every allowed (from → to) pair.
var validTransitions = map[Status][]Status{
	StatusDiscovered:      {StatusMatched, StatusSkipped},
	StatusMatched:         {StatusInProgress},
	StatusInProgress:      {StatusSubmitted, StatusFailedRetryable, StatusPermanentlyFailed},
	StatusFailedRetryable: {StatusInProgress, StatusPermanentlyFailed},
	// SKIPPED, SUBMITTED and PERMANENTLY_FAILED are terminal
}

// ParseStatus converts a raw string to a Status, returning an error for
// unknown values.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	switch st {
	case StatusDiscovered, StatusMatched, StatusSkipped, StatusInProgress,
		StatusSubmitted, StatusFailedRetryable, StatusPermanentlyFailed:
		return st, nil
	}
	return "", fmt.Errorf("unknown posting status %q", s)
}

// IsTransitionAllowed returns true when moving from → to is permitted.
func IsTransitionAllowed(from, to Status) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a posting in this status will never be touched
// by the orchestrator again.
func IsTerminal(s Status) bool {
	_, ok := validTransitions[s]
	return !ok
}

// JobPosting is one advertisement tracked from discovery to application
// outcome. Identity is the (Source, ExternalID) pair; ID is assigned by the
// store.
type JobPosting struct {
	ID             string     `json:"id"`
	Source         string     `json:"source"`
	ExternalID     string     `json:"external_id"`
	Title          string     `json:"title"`
	Company        string     `json:"company"`
	URL            string     `json:"url"`
	DescriptionRaw string     `json:"description_raw"`
	Salary         string     `json:"salary"`
	Location       string     `json:"location"`
	PostedAt       time.Time  `json:"posted_at"`
	QuickApply     bool       `json:"quick_apply"`
	MatchScore     int        `json:"match_score"`
	MatchRationale string     `json:"match_rationale"`
	Status         Status     `json:"status"`
	AttemptCount   int        `json:"attempt_count"`
	LastAttemptAt  *time.Time `json:"last_attempt_at,omitempty"`
	FailureReason  string     `json:"failure_reason,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

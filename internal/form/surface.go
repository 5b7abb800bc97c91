package form

import (
	"context"
	"errors"
	"time"
)

// PageEvent is what the surface observed after the driver advanced a page.
type PageEvent string

const (
	// PageNext means another form page rendered and needs filling.
	PageNext PageEvent = "next-page"
	// PageComplete means the site shows a submission confirmation.
	PageComplete PageEvent = "complete"
)

// ErrTransitionTimeout is returned by WaitForTransition when neither a new
// page nor a confirmation appeared within the bound.
var ErrTransitionTimeout = errors.New("page transition timed out")

// ErrSessionLost marks unrecoverable browser failures (process died, target
// closed). Surfaces must wrap such failures with it so the driver can tell
// a dead session apart from a mutated page.
var ErrSessionLost = errors.New("browser session lost")

// Surface is the abstract browser capability set the driver runs against.
// The production implementation drives Playwright; tests substitute a fake.
type Surface interface {
	// EnumerateFields lists every visible interactable field on the current
	// page, in document order. Order must be stable across calls on the same
	// page snapshot.
	EnumerateFields(ctx context.Context) ([]FormField, error)

	// Apply commits a resolved decision to a field.
	Apply(ctx context.Context, field FormField, d Decision) error

	// Advance triggers the page's continue/submit action.
	Advance(ctx context.Context) error

	// WaitForTransition polls until the next page or a confirmation is
	// visible, or the timeout elapses (ErrTransitionTimeout).
	WaitForTransition(ctx context.Context, timeout time.Duration) (PageEvent, error)

	// ChallengePresent reports whether an anti-automation challenge is on
	// screen.
	ChallengePresent(ctx context.Context) (bool, error)
}

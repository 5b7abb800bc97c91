package form

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	"go-ronin-automation/internal/models"
)

// State is the driver's position in a single page traversal.
type State string

const (
	StatePageLoaded       State = "PageLoaded"
	StateFieldsEnumerated State = "FieldsEnumerated"
	StateFieldsResolving  State = "FieldsResolving"
	StatePageSubmittable  State = "PageSubmittable"
	StatePageSubmitted    State = "PageSubmitted"
	StateNextPageOrDone   State = "NextPageOrDone"
	StateAborted          State = "Aborted"
)

// AbortReason classifies why a traversal gave up. These are page-level,
// recoverable failures: the orchestrator decides whether to retry.
type AbortReason string

const (
	ReasonRequiredFieldUnresolved AbortReason = "RequiredFieldUnresolved"
	ReasonPageTransitionTimeout   AbortReason = "PageTransitionTimeout"
	ReasonChallengeDetected       AbortReason = "ChallengeDetected"
	ReasonPageStructureChanged    AbortReason = "PageStructureChanged"
	ReasonTooManyPages            AbortReason = "TooManyPages"
	ReasonCancelled               AbortReason = "Cancelled"
)

// Outcome is the driver's verdict for a whole application.
type Outcome string

const (
	OutcomeSubmitted Outcome = "Submitted"
	OutcomeAborted   Outcome = "Aborted"
	OutcomeDryRun    Outcome = "DryRun"
)

// Result is returned for every expected ending. Truly unrecoverable
// environment failures (dead browser) come back as a Go error instead.
type Result struct {
	Outcome    Outcome
	Reason     AbortReason
	Unresolved []string // labels of fields left without a value
	Pages      int
	Filled     int
}

// Options bound the traversal.
type Options struct {
	PageTimeout time.Duration
	MaxPages    int
	DryRun      bool
}

// Driver walks a multi-page application form. One Driver drives one browser
// surface; it never retries within a traversal — retry policy lives in the
// orchestrator, because mid-page browser state is not safely resumable.
type Driver struct {
	surface Surface
	interp  *Interpreter
	opts    Options
	log     *slog.Logger
}

func NewDriver(surface Surface, interp *Interpreter, opts Options, log *slog.Logger) *Driver {
	if opts.MaxPages <= 0 {
		opts.MaxPages = 8
	}
	if opts.PageTimeout <= 0 {
		opts.PageTimeout = 15 * time.Second
	}
	return &Driver{surface: surface, interp: interp, opts: opts, log: log}
}

// Run drives the form for one posting from the first loaded page to either a
// confirmation or an abort.
func (d *Driver) Run(ctx context.Context, posting models.JobPosting, profile models.CandidateProfile) (Result, error) {
	unresolved := mapset.NewSet[string]()
	res := Result{}

	for page := 1; ; page++ {
		res.Pages = page
		if page > d.opts.MaxPages {
			return d.abort(res, ReasonTooManyPages, unresolved), nil
		}

		d.enter(page, StatePageLoaded)

		if challenged, err := d.surface.ChallengePresent(ctx); err != nil {
			return d.structural(res, unresolved, err)
		} else if challenged {
			return d.abort(res, ReasonChallengeDetected, unresolved), nil
		}

		fields, err := d.surface.EnumerateFields(ctx)
		if err != nil {
			return d.structural(res, unresolved, err)
		}
		d.enter(page, StateFieldsEnumerated, slog.Int("count", len(fields)))

		d.enter(page, StateFieldsResolving)
		requiredUnresolved := mapset.NewSet[string]()
		for _, field := range fields {
			if err := ctx.Err(); err != nil {
				return d.abort(res, ReasonCancelled, unresolved), nil
			}

			decision, err := d.interp.Interpret(ctx, field, profile, posting)
			if errors.Is(err, ErrUnsupportedFieldKind) {
				d.log.Warn("unsupported field, flagged for human review",
					slog.String("label", field.Label), slog.String("kind", string(field.Kind)))
				d.markUnresolved(field, unresolved, requiredUnresolved)
				continue
			}
			if err != nil {
				return res, fmt.Errorf("interpreter failed on %q: %w", field.Label, err)
			}

			if !decision.Resolved() {
				d.markUnresolved(field, unresolved, requiredUnresolved)
				continue
			}

			// values are written as each field resolves, so an abort later in
			// the page still leaves the partial progress visible for diagnosis
			if err := d.surface.Apply(ctx, field, decision); err != nil {
				return d.structural(res, unresolved, err)
			}
			res.Filled++
		}

		// required fields gate progression; optional unresolved fields do not
		if requiredUnresolved.Cardinality() > 0 {
			return d.abort(res, ReasonRequiredFieldUnresolved, unresolved), nil
		}
		d.enter(page, StatePageSubmittable)

		if d.opts.DryRun {
			res.Outcome = OutcomeDryRun
			res.Unresolved = sortedSlice(unresolved)
			return res, nil
		}

		if err := d.surface.Advance(ctx); err != nil {
			return d.structural(res, unresolved, err)
		}
		d.enter(page, StatePageSubmitted)

		event, err := d.surface.WaitForTransition(ctx, d.opts.PageTimeout)
		if errors.Is(err, ErrTransitionTimeout) {
			return d.abort(res, ReasonPageTransitionTimeout, unresolved), nil
		}
		if err != nil {
			return d.structural(res, unresolved, err)
		}
		d.enter(page, StateNextPageOrDone, slog.String("event", string(event)))

		if event == PageComplete {
			res.Outcome = OutcomeSubmitted
			res.Unresolved = sortedSlice(unresolved)
			return res, nil
		}
	}
}

// enter traces a state transition; the debug log is the traversal's audit
// trail.
func (d *Driver) enter(page int, s State, attrs ...any) {
	args := append([]any{slog.Int("page", page), slog.String("state", string(s))}, attrs...)
	d.log.Debug("state transition", args...)
}

func (d *Driver) markUnresolved(field FormField, all, required mapset.Set[string]) {
	label := field.Label
	if label == "" {
		label = field.Selector
	}
	all.Add(label)
	if field.Required {
		required.Add(label)
	}
}

// abort finalizes an expected failure.
func (d *Driver) abort(res Result, reason AbortReason, unresolved mapset.Set[string]) Result {
	res.Outcome = OutcomeAborted
	res.Reason = reason
	res.Unresolved = sortedSlice(unresolved)
	d.log.Warn("form traversal aborted",
		slog.String("reason", string(reason)),
		slog.Int("page", res.Pages),
		slog.Any("unresolved", res.Unresolved))
	return res
}

// structural routes a surface error: a lost session is fatal and propagates,
// a cancellation mid-wait is the operator's, and anything else means the page
// mutated under us and the traversal aborts.
func (d *Driver) structural(res Result, unresolved mapset.Set[string], err error) (Result, error) {
	if errors.Is(err, ErrSessionLost) {
		return res, err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return d.abort(res, ReasonCancelled, unresolved), nil
	}
	d.log.Warn("unexpected page structure", slog.String("err", err.Error()))
	return d.abort(res, ReasonPageStructureChanged, unresolved), nil
}

// mapset iteration order is random; stable output keeps logs and tests
// deterministic.
func sortedSlice(s mapset.Set[string]) []string {
	out := s.ToSlice()
	sort.Strings(out)
	return out
}

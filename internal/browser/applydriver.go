package browser

import (
	"context"
	"errors"
	"log/slog"

	"github.com/playwright-community/playwright-go"

	"go-ronin-automation/internal/form"
	"go-ronin-automation/internal/models"
)

// ApplyDriver navigates to a posting, opens its application form and hands
// the page to the form driver. It is the production implementation of the
// orchestrator's driver dependency.
type ApplyDriver struct {
	surface *FormSurface
	driver  *form.Driver
	log     *slog.Logger
}

func NewApplyDriver(page playwright.Page, interp *form.Interpreter, opts form.Options, log *slog.Logger) *ApplyDriver {
	surface := NewFormSurface(page, log)
	return &ApplyDriver{
		surface: surface,
		driver:  form.NewDriver(surface, interp, opts, log),
		log:     log,
	}
}

// Run opens the posting's application form and walks it to completion.
func (a *ApplyDriver) Run(ctx context.Context, posting models.JobPosting, profile models.CandidateProfile) (form.Result, error) {
	if err := a.surface.OpenApplication(ctx, posting.URL); err != nil {
		if errors.Is(err, form.ErrSessionLost) || ctx.Err() != nil {
			return form.Result{}, err
		}
		// the posting page itself is unusable; treat it like any other
		// structural surprise and let the orchestrator decide on a retry
		a.log.Warn("could not open application form",
			slog.String("url", posting.URL), slog.String("err", err.Error()))
		return form.Result{
			Outcome: form.OutcomeAborted,
			Reason:  form.ReasonPageStructureChanged,
		}, nil
	}
	return a.driver.Run(ctx, posting, profile)
}

// Package app wires the full scrape and apply cycles. The cmd binaries and
// the scheduler all run through here so the composition lives in one place.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/playwright-community/playwright-go"

	"go-ronin-automation/internal/ai"
	"go-ronin-automation/internal/browser"
	"go-ronin-automation/internal/config"
	"go-ronin-automation/internal/dedup"
	"go-ronin-automation/internal/filter"
	"go-ronin-automation/internal/form"
	"go-ronin-automation/internal/models"
	"go-ronin-automation/internal/orchestrator"
	"go-ronin-automation/internal/reporter"
	"go-ronin-automation/internal/scraper"
	"go-ronin-automation/internal/scraper/seek"
	"go-ronin-automation/internal/store"
)

// ApplyOverrides are the per-invocation knobs the apply CLI exposes on top
// of the config file.
type ApplyOverrides struct {
	Limit      int
	DryRun     bool
	ResumeOnly bool
}

// RunScrape discovers postings, scores them and announces fresh matches.
func RunScrape(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	log = log.With(slog.String("cycle", "scrape"))

	st, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer st.Close()

	page, cleanup, err := newPage(cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	scrapers := []scraper.Scraper{
		seek.NewScraper(cfg, log),
	}

	var discovered []models.JobPosting
	for _, s := range scrapers {
		log.Info("starting scraper", slog.String("platform", s.Name()))
		jobs, err := s.Scrape(ctx, page)
		if err != nil {
			log.Error("scraper failed", slog.String("platform", s.Name()), slog.String("err", err.Error()))
			continue
		}
		log.Info("scraper finished", slog.String("platform", s.Name()), slog.Int("postings", len(jobs)))
		discovered = append(discovered, jobs...)
	}

	matcher := filter.NewMatcher(cfg.Profile, cfg.Scrape.ExcludeKeywords)
	cache := dedup.NewCache(cfg.Scrape.CachePath, log)
	tg := newReporter(cfg, log)

	var matched, skipped int
	var freshURLs []string
	for i := range discovered {
		p := &discovered[i]
		if err := st.UpsertPosting(ctx, p); err != nil {
			return fmt.Errorf("persisting posting %s: %w", p.URL, err)
		}
		// rescoring a posting the orchestrator already moved on would fight
		// the status machine
		if p.Status != models.StatusDiscovered {
			continue
		}

		score, rationale := matcher.Score(*p)
		status := models.StatusSkipped
		if score >= cfg.Apply.ScoreThreshold {
			status = models.StatusMatched
		}
		if err := st.UpdateScore(ctx, p.ID, score, rationale, status); err != nil {
			return fmt.Errorf("scoring posting %s: %w", p.URL, err)
		}

		if status != models.StatusMatched {
			skipped++
			continue
		}
		matched++
		p.MatchScore = score
		p.MatchRationale = rationale

		if tg != nil && !cache.IsSeen(p.URL) {
			if err := tg.SendPosting(*p); err != nil {
				log.Warn("failed to announce posting", slog.String("err", err.Error()))
			}
		}
		freshURLs = append(freshURLs, p.URL)
	}
	cache.Add(freshURLs)

	log.Info("scrape cycle summary",
		slog.Int("discovered", len(discovered)),
		slog.Int("matched", matched),
		slog.Int("skipped", skipped))
	return nil
}

// RunApply drives the submission orchestrator over the eligible backlog.
func RunApply(ctx context.Context, cfg *config.Config, log *slog.Logger, ov ApplyOverrides) (*orchestrator.RunSummary, error) {
	log = log.With(slog.String("cycle", "apply"))

	st, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	page, cleanup, err := newPage(cfg, log)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	interp := form.NewInterpreter(ai.NewGroqClient(cfg.GroqAPIKey), cfg.Apply.FieldTimeout, log)
	driver := browser.NewApplyDriver(page, interp, form.Options{
		PageTimeout: cfg.Apply.PageTimeout,
		MaxPages:    cfg.Apply.MaxPages,
		DryRun:      ov.DryRun,
	}, log)

	orch := orchestrator.New(st, driver, cfg.Profile, orchestrator.Options{
		ScoreThreshold: cfg.Apply.ScoreThreshold,
		MaxAttempts:    cfg.Apply.MaxAttempts,
		RateLimit:      cfg.Apply.RateLimit,
		Limit:          ov.Limit,
		DryRun:         ov.DryRun,
		ResumeOnly:     ov.ResumeOnly,
		QuickApplyOnly: cfg.Apply.QuickApplyOnly,
		Order:          store.Order(cfg.Apply.Order),
		RecoverAfter:   cfg.Apply.RecoverAfter,
	}, log)

	summary, runErr := orch.Run(ctx)

	if tg := newReporter(cfg, log); tg != nil && !ov.DryRun {
		if err := tg.SendRunSummary(summary); err != nil {
			log.Warn("failed to send run summary", slog.String("err", err.Error()))
		}
		if runErr != nil {
			if err := tg.SendError(runErr); err != nil {
				log.Warn("failed to send error report", slog.String("err", err.Error()))
			}
		}
	}
	return summary, runErr
}

// newPage boots the browser stack and returns a logged-in page plus its
// teardown.
func newPage(cfg *config.Config, log *slog.Logger) (playwright.Page, func(), error) {
	manager, err := browser.NewManager(true)
	if err != nil {
		return nil, nil, err
	}

	cookiePath := filepath.Join(cfg.Scrape.CookiesPath, "cookies-seek.json")
	cookies, err := browser.LoadCookies(cookiePath)
	if err != nil {
		log.Warn("no session cookies loaded, sites may demand a login",
			slog.String("path", cookiePath), slog.String("err", err.Error()))
	}

	browserCtx, err := manager.NewContext(cookies)
	if err != nil {
		manager.Close()
		return nil, nil, err
	}
	page, err := browserCtx.NewPage()
	if err != nil {
		manager.Close()
		return nil, nil, err
	}

	cleanup := func() {
		browserCtx.Close()
		if err := manager.Close(); err != nil {
			log.Warn("browser shutdown failed", slog.String("err", err.Error()))
		}
	}
	return page, cleanup, nil
}

// newReporter returns nil when Telegram is not configured; reporting is
// optional everywhere.
func newReporter(cfg *config.Config, log *slog.Logger) *reporter.TelegramReporter {
	if cfg.TelegramToken == "" || cfg.TelegramChatID == 0 {
		return nil
	}
	tg, err := reporter.NewTelegramReporter(cfg.TelegramToken, cfg.TelegramChatID)
	if err != nil {
		log.Warn("telegram reporter unavailable", slog.String("err", err.Error()))
		return nil
	}
	return tg
}

// The scheduler command runs scrape and apply cycles continuously.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"go-ronin-automation/internal/app"
	"go-ronin-automation/internal/config"
	"go-ronin-automation/internal/logger"
	"go-ronin-automation/internal/scheduler"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML config file")
	scrapeSpec := flag.String("scrape-every", "@every 6h", "cron spec for the scrape cycle")
	applySpec := flag.String("apply-every", "@every 2h", "cron spec for the apply cycle")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Logging, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scrape := scheduler.Task{
		Name: "scrape",
		Spec: *scrapeSpec,
		Run: func(ctx context.Context) error {
			return app.RunScrape(ctx, cfg, log)
		},
	}
	apply := scheduler.Task{
		Name: "apply",
		Spec: *applySpec,
		Run: func(ctx context.Context) error {
			summary, err := app.RunApply(ctx, cfg, log, app.ApplyOverrides{})
			if summary != nil {
				log.Info("apply cycle summary",
					slog.Int("submitted", summary.Submitted),
					slog.Int("retried", summary.Retried),
					slog.Int("permanently_failed", summary.PermanentlyFailed))
			}
			return err
		},
	}

	sched := scheduler.New(log)
	for _, task := range []scheduler.Task{scrape, apply} {
		if err := sched.Add(ctx, task); err != nil {
			log.Error("failed to schedule task", slog.String("err", err.Error()))
			os.Exit(1)
		}
	}

	// populate the backlog before the first apply tick
	sched.Start(ctx, scrape)

	<-ctx.Done()
	sched.Stop()
}

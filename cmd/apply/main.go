// The apply command drives application submissions over the matched backlog.
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
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML config file")
	limit := flag.Int("limit", 0, "max postings to process this run (0 = unlimited)")
	dryRun := flag.Bool("dry-run", false, "resolve fields but never advance or submit")
	resume := flag.Bool("resume", false, "only process postings that previously failed retryably")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Logging, os.Stdout)

	// ctrl-c cancels between postings and between fields; nothing half-done
	// gets forced through
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := app.RunApply(ctx, cfg, log, app.ApplyOverrides{
		Limit:      *limit,
		DryRun:     *dryRun,
		ResumeOnly: *resume,
	})
	if err != nil {
		if summary != nil {
			log.Error("apply run failed", slog.String("err", err.Error()),
				slog.Int("submitted_before_failure", summary.Submitted))
		} else {
			log.Error("apply run failed", slog.String("err", err.Error()))
		}
		os.Exit(1)
	}

	for url, reason := range summary.Failures {
		log.Warn("needs attention", slog.String("url", url), slog.String("reason", reason))
	}
}

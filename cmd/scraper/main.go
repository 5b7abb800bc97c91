// The scraper command runs one discovery cycle: scrape, score, persist.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-ronin-automation/internal/app"
	"go-ronin-automation/internal/config"
	"go-ronin-automation/internal/logger"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML config file")
	timeout := flag.Duration("timeout", 10*time.Minute, "hard bound on the whole cycle")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Logging, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	if err := app.RunScrape(ctx, cfg, log); err != nil {
		log.Error("scrape run failed", slog.String("err", err.Error()))
		os.Exit(1)
	}
}

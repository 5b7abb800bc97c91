// Package scheduler runs the scrape and apply cycles on a cron interval.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// Task is one scheduled unit of work, typically a scrape or apply cycle.
type Task struct {
	Name string
	Spec string // cron spec, e.g. "@every 6h"
	Run  func(ctx context.Context) error
}

// Scheduler wraps robfig/cron. Cycles for the same task never overlap; a
// scrape that outlives its interval skips the next tick instead of stacking
// browser sessions.
type Scheduler struct {
	cron *cron.Cron
	log  *slog.Logger

	mu      sync.Mutex
	running map[string]bool
}

func New(log *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		log:     log,
		running: map[string]bool{},
	}
}

// Add registers a task. Must be called before Start.
func (s *Scheduler) Add(ctx context.Context, task Task) error {
	_, err := s.cron.AddFunc(task.Spec, func() {
		s.runOnce(ctx, task)
	})
	if err != nil {
		return fmt.Errorf("scheduling %s (%s): %w", task.Name, task.Spec, err)
	}
	s.log.Info("task scheduled", slog.String("task", task.Name), slog.String("spec", task.Spec))
	return nil
}

// Start begins ticking and runs every task once immediately, so a fresh
// deployment does not sit idle until the first interval elapses.
func (s *Scheduler) Start(ctx context.Context, immediate ...Task) {
	s.cron.Start()
	for _, task := range immediate {
		go s.runOnce(ctx, task)
	}
}

// Stop halts scheduling and waits for in-flight cycles started by cron.
func (s *Scheduler) Stop() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.log.Info("scheduler stopped")
}

func (s *Scheduler) runOnce(ctx context.Context, task Task) {
	s.mu.Lock()
	if s.running[task.Name] {
		s.mu.Unlock()
		s.log.Warn("previous cycle still running, skipping tick", slog.String("task", task.Name))
		return
	}
	s.running[task.Name] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running[task.Name] = false
		s.mu.Unlock()
	}()

	s.log.Info("cycle started", slog.String("task", task.Name))
	if err := task.Run(ctx); err != nil {
		s.log.Error("cycle failed", slog.String("task", task.Name), slog.String("err", err.Error()))
		return
	}
	s.log.Info("cycle complete", slog.String("task", task.Name))
}

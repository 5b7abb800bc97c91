package scheduler

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testScheduler() *Scheduler {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestAdd_RejectsBadSpec(t *testing.T) {
	s := testScheduler()
	err := s.Add(context.Background(), Task{Name: "bad", Spec: "not a spec", Run: func(context.Context) error { return nil }})
	assert.ErrorContains(t, err, "scheduling bad")
}

func TestRunOnce_SkipsOverlappingCycles(t *testing.T) {
	s := testScheduler()
	release := make(chan struct{})
	started := make(chan struct{})

	var mu sync.Mutex
	runs := 0
	task := Task{Name: "scrape", Spec: "@every 1h", Run: func(context.Context) error {
		mu.Lock()
		runs++
		first := runs == 1
		mu.Unlock()
		if first {
			close(started)
			<-release
		}
		return nil
	}}

	go s.runOnce(context.Background(), task)
	<-started

	// second tick fires while the first cycle is still in flight
	s.runOnce(context.Background(), task)
	close(release)
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, runs, "overlapping tick must be skipped, not queued")
}

func TestRunOnce_RunsAgainAfterCompletion(t *testing.T) {
	s := testScheduler()
	runs := 0
	task := Task{Name: "apply", Spec: "@every 1h", Run: func(context.Context) error {
		runs++
		return nil
	}}

	s.runOnce(context.Background(), task)
	s.runOnce(context.Background(), task)
	assert.Equal(t, 2, runs)
}

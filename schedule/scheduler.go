// Package schedule runs jobs at fixed intervals.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

type Job struct {
	Name string
	// Interval is the time between runs. If <= 0 the job only runs once on
	// start.
	Interval time.Duration
	// SkipInitial delays the first run until the first tick.
	SkipInitial bool
	Run         func(ctx context.Context) error
}

// Scheduler runs every job on start and then on its own ticker. Each run
// happens on a separate goroutine; a tick that arrives while the previous run
// of the same job is still going is skipped.
type Scheduler struct {
	Jobs   []Job
	Logger *slog.Logger

	// NewTicker creates a ticker channel and its stop function. If nil,
	// time.NewTicker is used.
	NewTicker func(d time.Duration) (tick <-chan time.Time, stop func())
}

// Run blocks until ctx is cancelled and all in-flight runs have returned.
func (s *Scheduler) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, job := range s.Jobs {
		wg.Add(1)
		go func(job Job) {
			defer wg.Done()
			s.loop(ctx, job)
		}(job)
	}
	wg.Wait()
}

func (s *Scheduler) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

func (s *Scheduler) loop(ctx context.Context, job Job) {
	logger := s.logger().With("job", job.Name)

	var running atomic.Bool
	var runs sync.WaitGroup
	defer runs.Wait()

	fire := func() {
		if !running.CompareAndSwap(false, true) {
			logger.Warn("schedule: previous run still in progress, skipping")
			return
		}
		runs.Add(1)
		go func() {
			defer runs.Done()
			defer running.Store(false)
			s.execute(ctx, logger, job)
		}()
	}

	if !job.SkipInitial {
		fire()
	}

	if job.Interval <= 0 {
		<-ctx.Done()
		return
	}

	newTicker := s.NewTicker
	if newTicker == nil {
		newTicker = defaultNewTicker
	}
	ch, stop := newTicker(job.Interval)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ch:
			fire()
		}
	}
}

func (s *Scheduler) execute(ctx context.Context, logger *slog.Logger, job Job) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("schedule: job panicked", "error", fmt.Sprint(r))
		}
	}()

	if err := job.Run(ctx); err != nil {
		logger.Error("schedule: job failed", "error", err, "duration", time.Since(start))
		return
	}
	logger.Debug("schedule: job finished", "duration", time.Since(start))
}

func defaultNewTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

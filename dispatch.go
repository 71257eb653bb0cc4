package snakeshot

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"
)

// CaptureTask captures one session and returns its screenshot files. It must
// not fail: an empty result means nothing was captured this time.
type CaptureTask interface {
	Capture(ctx context.Context, id SessionID) []string
}

// Dispatcher fans a capture task out over every live session and gathers the
// results into a manifest.
type Dispatcher struct {
	sessions SessionLister
	task     CaptureTask
	opts     DispatchOpts
	logger   *slog.Logger
}

func NewDispatcher(sessions SessionLister, task CaptureTask, opts DispatchOpts, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		sessions: sessions,
		task:     task,
		opts:     opts,
		logger:   logger,
	}
}

// Dispatch blocks until every session has been captured. Sessions without
// files are left out of the manifest. If sessions cannot be listed the
// manifest is empty.
func (d *Dispatcher) Dispatch(ctx context.Context) Manifest {
	start := time.Now()

	ids, err := d.sessions.ListSessions(ctx)
	if err != nil {
		d.logger.Error("dispatch: list sessions", "error", err)
		return Manifest{}
	}

	result := dispatchResult{
		manifest: make(Manifest),
	}

	concurrency := d.opts.Concurrency
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}
	guard := make(chan struct{}, concurrency)

	var wg sync.WaitGroup
	for _, id := range ids {
		guard <- struct{}{}
		wg.Add(1)
		go func(id SessionID) {
			defer wg.Done()
			defer func() {
				<-guard
			}()

			files := d.capture(ctx, id)
			if len(files) > 0 {
				d.logger.Debug("dispatch: captured", "session", id, "files", files)
			}
			result.add(id, files)
		}(id)
	}
	wg.Wait()

	d.logger.Info("dispatch: finished", "sessions", len(ids), "captured", len(result.manifest), "duration", time.Since(start))

	return result.manifest
}

// capture runs the task for one session. A panicking task yields no files.
func (d *Dispatcher) capture(ctx context.Context, id SessionID) (files []string) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("dispatch: capture panicked", "session", id, "error", fmt.Sprint(r))
			files = nil
		}
	}()
	return d.task.Capture(ctx, id)
}

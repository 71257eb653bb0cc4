// Package pipeline wires the capture, report and eviction components
// together from a Config.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/b1naryth1ef/snakeshot"
	"github.com/b1naryth1ef/snakeshot/api"
	"github.com/b1naryth1ef/snakeshot/lock"
	"github.com/b1naryth1ef/snakeshot/report"
	"github.com/b1naryth1ef/snakeshot/schedule"
)

const reportMutexName = "distributed-mutex-report"

type Pipeline struct {
	config *snakeshot.Config
	logger *slog.Logger

	mutex      lock.Mutex
	closeMutex func() error

	dispatcher *snakeshot.Dispatcher
	store      *report.Store
	evictor    *report.Evictor
}

func ensureDirectory(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModePerm)
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	return nil
}

func newMutex(config *snakeshot.Config) (lock.Mutex, func() error, error) {
	noop := func() error { return nil }

	switch config.Lock.Kind {
	case snakeshot.LockLocal:
		return lock.NewLocal(), noop, nil
	case snakeshot.LockFile:
		return lock.NewFile(config.Lock.Path), noop, nil
	case snakeshot.LockSQLite:
		m, err := lock.OpenSQLite(config.Lock.Path, reportMutexName, config.LockTTL())
		if err != nil {
			return nil, nil, err
		}
		return m, m.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported lock kind '%s'", config.Lock.Kind)
	}
}

func New(config *snakeshot.Config, logger *slog.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if err := ensureDirectory(config.OutputPath); err != nil {
		return nil, err
	}

	client, err := api.New(config.API.Address, config.API.ClientName, config.APITimeout())
	if err != nil {
		return nil, err
	}
	client.MaxMapDimension = config.API.MaxMapDimension

	palette, err := config.Palette()
	if err != nil {
		return nil, err
	}

	mutex, closeMutex, err := newMutex(config)
	if err != nil {
		return nil, err
	}

	renderer := snakeshot.NewRenderer(palette)
	capturer := snakeshot.NewCapturer(client, renderer, config.OutputPath, config.CaptureOpts(), logger)
	store := report.NewStore(config.ReportPath(), mutex, logger)

	return &Pipeline{
		config:     config,
		logger:     logger,
		mutex:      mutex,
		closeMutex: closeMutex,
		dispatcher: snakeshot.NewDispatcher(client, capturer, snakeshot.DispatchOpts{Concurrency: config.Concurrency}, logger),
		store:      store,
		evictor:    report.NewEvictor(config.OutputPath, store, logger),
	}, nil
}

// CaptureCycle captures every live session and records the result as the
// latest report.
func (p *Pipeline) CaptureCycle(ctx context.Context) error {
	manifest := p.dispatcher.Dispatch(ctx)
	if len(manifest) > 0 {
		p.logger.Debug("pipeline: report games", "manifest", manifest)
	}
	return p.store.Write(ctx, manifest)
}

func (p *Pipeline) EvictCycle(ctx context.Context) error {
	_, err := p.evictor.Evict(ctx)
	return err
}

// Run captures and evicts on the configured intervals until ctx is
// cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	scheduler := &schedule.Scheduler{
		Logger: p.logger,
		Jobs: []schedule.Job{
			{
				Name:     "dispatch_taking_screenshots",
				Interval: p.config.CaptureInterval(),
				Run:      p.CaptureCycle,
			},
			{
				Name:        "delete_expired_screenshots_cache",
				Interval:    p.config.EvictInterval(),
				SkipInitial: true,
				Run:         p.EvictCycle,
			},
		},
	}

	p.logger.Info("pipeline: starting scheduler",
		"capture_interval", p.config.CaptureInterval(),
		"evict_interval", p.config.EvictInterval(),
		"output", p.config.OutputPath,
	)
	start := time.Now()
	scheduler.Run(ctx)
	p.logger.Info("pipeline: scheduler stopped", "uptime", time.Since(start))

	return nil
}

func (p *Pipeline) Store() *report.Store {
	return p.store
}

func (p *Pipeline) Close() error {
	return p.closeMutex()
}

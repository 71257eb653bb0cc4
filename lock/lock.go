// Package lock provides mutexes with a capacity of one that can be shared by
// goroutines, processes or hosts depending on the implementation.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrWouldBlock = errors.New("lock is held elsewhere")
	ErrLeaseLost  = errors.New("lock lease expired before release")
)

// Release gives a held lock back.
type Release func() error

// Mutex is acquired around every access to a shared resource. Acquire blocks
// until the lock is held or ctx is done.
type Mutex interface {
	Acquire(ctx context.Context) (Release, error)
}

// With runs fn while holding m.
func With(ctx context.Context, m Mutex, fn func() error) (err error) {
	release, err := m.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	defer func() {
		if rerr := release(); rerr != nil && err == nil {
			err = fmt.Errorf("failed to release lock: %w", rerr)
		}
	}()
	return fn()
}

// poll calls try until it reports success, fails, or ctx is done.
func poll(ctx context.Context, interval time.Duration, try func() (bool, error)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		ok, err := try()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

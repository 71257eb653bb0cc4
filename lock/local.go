package lock

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Local is a mutex shared by goroutines of one process.
type Local struct {
	sem *semaphore.Weighted
}

func NewLocal() *Local {
	return &Local{
		sem: semaphore.NewWeighted(1),
	}
}

func (l *Local) Acquire(ctx context.Context) (Release, error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return func() error {
		l.sem.Release(1)
		return nil
	}, nil
}

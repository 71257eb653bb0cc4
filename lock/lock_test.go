package lock

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertExclusive checks that b cannot be acquired while a is held and can
// be once a is released.
func assertExclusive(t *testing.T, a, b Mutex) {
	t.Helper()

	release, err := a.Acquire(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	_, err = b.Acquire(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, release())

	ctx, cancel = context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	release, err = b.Acquire(ctx)
	require.NoError(t, err)
	require.NoError(t, release())
}

func assertSerializes(t *testing.T, mutexes ...Mutex) {
	t.Helper()

	var inside, overlaps atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(m Mutex) {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			err := With(ctx, m, func() error {
				if inside.Add(1) > 1 {
					overlaps.Add(1)
				}
				time.Sleep(5 * time.Millisecond)
				inside.Add(-1)
				return nil
			})
			assert.NoError(t, err)
		}(mutexes[i%len(mutexes)])
	}
	wg.Wait()
	assert.Zero(t, overlaps.Load())
}

func TestLocal(t *testing.T) {
	l := NewLocal()
	assertExclusive(t, l, l)
	assertSerializes(t, l)
}

func TestWithReturnsError(t *testing.T) {
	l := NewLocal()
	boom := errors.New("boom")
	err := With(context.Background(), l, func() error { return boom })
	assert.ErrorIs(t, err, boom)

	// the lock was released despite the error
	release, err := l.Acquire(context.Background())
	require.NoError(t, err)
	require.NoError(t, release())
}

func TestWithAcquireFailure(t *testing.T) {
	l := NewLocal()
	release, err := l.Acquire(context.Background())
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err = With(ctx, l, func() error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func openTestSQLite(t *testing.T, path string, ttl time.Duration) *SQLite {
	t.Helper()
	s, err := OpenSQLite(path, "distributed-mutex-report", ttl)
	require.NoError(t, err)
	s.PollInterval = 10 * time.Millisecond
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lock.db")
	a := openTestSQLite(t, path, 0)
	b := openTestSQLite(t, path, 0)

	assertExclusive(t, a, b)
	assertSerializes(t, a, b)
}

func TestSQLiteLeaseExpiry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lock.db")
	a := openTestSQLite(t, path, time.Minute)
	b := openTestSQLite(t, path, time.Minute)

	now := time.Now()
	a.now = func() time.Time { return now }
	b.now = func() time.Time { return now.Add(2 * time.Minute) }

	staleRelease, err := a.Acquire(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	release, err := b.Acquire(ctx)
	require.NoError(t, err, "an expired lease can be taken over")

	assert.ErrorIs(t, staleRelease(), ErrLeaseLost)
	require.NoError(t, release())
}

func TestSQLiteNamesAreIndependent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lock.db")
	a := openTestSQLite(t, path, 0)
	other, err := OpenSQLite(path, "another", 0)
	require.NoError(t, err)
	defer other.Close()

	ra, err := a.Acquire(context.Background())
	require.NoError(t, err)
	defer ra()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	rb, err := other.Acquire(ctx)
	require.NoError(t, err)
	require.NoError(t, rb())
}

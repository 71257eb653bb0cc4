package snakeshot

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type taskFunc func(ctx context.Context, id SessionID) []string

func (f taskFunc) Capture(ctx context.Context, id SessionID) []string {
	return f(ctx, id)
}

func TestDispatchOmitsEmptySessions(t *testing.T) {
	lister := &stubSource{ids: []SessionID{1, 2}}
	results := map[SessionID][]string{
		1: {"f1", "f2"},
		2: {},
	}
	task := taskFunc(func(ctx context.Context, id SessionID) []string {
		return results[id]
	})

	manifest := NewDispatcher(lister, task, DispatchOpts{Concurrency: 4}, discardLogger()).Dispatch(context.Background())
	assert.Equal(t, Manifest{1: {"f1", "f2"}}, manifest)
}

func TestDispatchListFailure(t *testing.T) {
	lister := &stubSource{ids: []SessionID{1}, listErr: errors.New("connection refused")}
	var calls atomic.Int32
	task := taskFunc(func(ctx context.Context, id SessionID) []string {
		calls.Add(1)
		return []string{"f"}
	})

	manifest := NewDispatcher(lister, task, DispatchOpts{}, discardLogger()).Dispatch(context.Background())
	assert.Empty(t, manifest)
	assert.NotNil(t, manifest)
	assert.Zero(t, calls.Load())
}

func TestDispatchRecoversFromPanickingTask(t *testing.T) {
	lister := &stubSource{ids: []SessionID{1, 2, 3}}
	task := taskFunc(func(ctx context.Context, id SessionID) []string {
		if id == 2 {
			panic("image: NewRGBA Rectangle has huge or negative dimensions")
		}
		return []string{ScreenshotName(id, MapSize{Width: 4, Height: 4}, "tiny")}
	})

	manifest := NewDispatcher(lister, task, DispatchOpts{Concurrency: 2}, discardLogger()).Dispatch(context.Background())
	assert.Equal(t, Manifest{
		1: {"g1s4x4-tiny.jpeg"},
		3: {"g3s4x4-tiny.jpeg"},
	}, manifest)
}

func TestDispatchBoundedConcurrency(t *testing.T) {
	ids := make([]SessionID, 20)
	for i := range ids {
		ids[i] = SessionID(i + 1)
	}

	var running, peak atomic.Int32
	task := taskFunc(func(ctx context.Context, id SessionID) []string {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		running.Add(-1)
		return []string{ScreenshotName(id, MapSize{Width: 1, Height: 1}, "tiny")}
	})

	manifest := NewDispatcher(&stubSource{ids: ids}, task, DispatchOpts{Concurrency: 3}, discardLogger()).Dispatch(context.Background())
	assert.Len(t, manifest, len(ids))
	assert.LessOrEqual(t, peak.Load(), int32(3))
	assert.Zero(t, running.Load(), "dispatch returns only after every task finished")
}

func TestManifestFiles(t *testing.T) {
	m := Manifest{
		1: {"a.jpeg", "b.jpeg"},
		2: {"c.jpeg"},
	}
	assert.Equal(t, map[string]struct{}{
		"a.jpeg": {},
		"b.jpeg": {},
		"c.jpeg": {},
	}, m.Files())
}

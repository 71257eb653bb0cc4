//go:build unix

package lock

import (
	"path/filepath"
	"testing"
	"time"
)

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.lock")
	a := NewFile(path)
	b := NewFile(path)
	b.PollInterval = 10 * time.Millisecond

	assertExclusive(t, a, b)
	assertSerializes(t, a, b)
}

//go:build unix

package lock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

const defaultFilePollInterval = 50 * time.Millisecond

// File is a mutex backed by flock(2) on a lock file. Every process that can
// reach the file, including hosts sharing the filesystem, contends for it.
type File struct {
	Path         string
	PollInterval time.Duration
}

func NewFile(path string) *File {
	return &File{
		Path:         path,
		PollInterval: defaultFilePollInterval,
	}
}

func (f *File) Acquire(ctx context.Context) (Release, error) {
	interval := f.PollInterval
	if interval <= 0 {
		interval = defaultFilePollInterval
	}

	var lockFile *os.File
	err := poll(ctx, interval, func() (bool, error) {
		lf, err := tryFileLock(f.Path)
		if errors.Is(err, ErrWouldBlock) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		lockFile = lf
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	return func() error {
		return releaseFileLock(lockFile)
	}, nil
}

func tryFileLock(path string) (*os.File, error) {
	lockFile, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}

	err = unix.Flock(int(lockFile.Fd()), unix.LOCK_EX|unix.LOCK_NB)
	if err != nil {
		lockFile.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, ErrWouldBlock
		}
		return nil, fmt.Errorf("failed to acquire file lock: %w", err)
	}

	return lockFile, nil
}

// releaseFileLock unlocks and closes the lock file. The file itself stays:
// removing it would let a waiter lock an unlinked inode while a new one is
// created by the next opener.
func releaseFileLock(lockFile *os.File) error {
	err1 := unix.Flock(int(lockFile.Fd()), unix.LOCK_UN)
	err2 := lockFile.Close()
	return errors.Join(err1, err2)
}

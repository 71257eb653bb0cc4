//go:build !unix

package lock

import (
	"context"
	"errors"
	"time"
)

type File struct {
	Path         string
	PollInterval time.Duration
}

func NewFile(path string) *File {
	return &File{Path: path}
}

func (f *File) Acquire(ctx context.Context) (Release, error) {
	return nil, errors.New("file locks are only supported on unix systems")
}

// Package report persists the screenshot manifest and evicts screenshots the
// manifest no longer references.
package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/b1naryth1ef/snakeshot"
	"github.com/b1naryth1ef/snakeshot/lock"
)

// Store keeps the latest manifest in a JSON file. Every read and write holds
// the mutex.
type Store struct {
	path   string
	mutex  lock.Mutex
	logger *slog.Logger
}

func NewStore(path string, mutex lock.Mutex, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		path:   path,
		mutex:  mutex,
		logger: logger,
	}
}

func (s *Store) Path() string {
	return s.path
}

// Write replaces the stored manifest. An empty manifest is not written so a
// failed capture cycle never drops the protection of the previous one.
func (s *Store) Write(ctx context.Context, manifest snakeshot.Manifest) error {
	if len(manifest) == 0 {
		s.logger.Debug("report: skipping empty manifest")
		return nil
	}

	data, err := json.Marshal(manifest)
	if err != nil {
		return err
	}

	return lock.With(ctx, s.mutex, func() error {
		if err := writeFileAtomic(s.path, data); err != nil {
			return fmt.Errorf("failed to write report %s: %w", s.path, err)
		}
		s.logger.Debug("report: written", "path", s.path, "sessions", len(manifest))
		return nil
	})
}

// ReadLatest returns the stored manifest. A missing or unreadable report
// yields an empty manifest; only failing to take the mutex is an error.
func (s *Store) ReadLatest(ctx context.Context) (snakeshot.Manifest, error) {
	var data []byte
	err := lock.With(ctx, s.mutex, func() error {
		var err error
		data, err = os.ReadFile(s.path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("report: read", "path", s.path, "error", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	manifest := snakeshot.Manifest{}
	if len(data) == 0 {
		return manifest, nil
	}

	if err := json.Unmarshal(data, &manifest); err != nil {
		s.logger.Warn("report: parse", "path", s.path, "error", err)
		return snakeshot.Manifest{}, nil
	}
	return manifest, nil
}

func writeFileAtomic(path string, data []byte) error {
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

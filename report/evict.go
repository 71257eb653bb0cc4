package report

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/b1naryth1ef/snakeshot"
)

// ManifestReader provides the latest persisted manifest.
type ManifestReader interface {
	ReadLatest(ctx context.Context) (snakeshot.Manifest, error)
}

// Evictor deletes screenshots that the latest manifest does not reference.
type Evictor struct {
	dir     string
	reports ManifestReader
	logger  *slog.Logger

	remove func(name string) error
}

func NewEvictor(dir string, reports ManifestReader, logger *slog.Logger) *Evictor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evictor{
		dir:     dir,
		reports: reports,
		logger:  logger,
		remove:  os.Remove,
	}
}

// Evict returns the number of files it deleted. Files that fail to delete are
// logged and skipped, files already gone are not counted.
func (e *Evictor) Evict(ctx context.Context) (int, error) {
	manifest, err := e.reports.ReadLatest(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read latest report: %w", err)
	}
	protected := manifest.Files()

	entries, err := os.ReadDir(e.dir)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, entry := range entries {
		name := entry.Name()
		if !entry.Type().IsRegular() || !strings.HasSuffix(name, snakeshot.ScreenshotExt) {
			continue
		}
		if _, ok := protected[name]; ok {
			continue
		}

		err := e.remove(filepath.Join(e.dir, name))
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			e.logger.Warn("evict: delete screenshot", "file", name, "error", err)
			continue
		}
		deleted++
	}

	e.logger.Info("evict: finished", "protected", len(protected), "deleted", deleted)
	return deleted, nil
}

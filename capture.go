package snakeshot

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"log/slog"
	"os"
	"path/filepath"
)

const DefaultQuality = 70

// ScreenshotName is the file name of one sized screenshot of a session. It
// depends only on the session, the map size and the size slug, so a new
// capture overwrites the previous one.
func ScreenshotName(id SessionID, size MapSize, slug string) string {
	return fmt.Sprintf("g%ds%dx%d-%s%s", id, size.Width, size.Height, slug, ScreenshotExt)
}

// Capturer renders every configured output size of a session into dir.
type Capturer struct {
	source   SessionSource
	renderer *Renderer
	dir      string
	opts     CaptureOpts
	logger   *slog.Logger
}

func NewCapturer(source SessionSource, renderer *Renderer, dir string, opts CaptureOpts, logger *slog.Logger) *Capturer {
	if opts.Quality <= 0 {
		opts.Quality = DefaultQuality
	}
	if len(opts.Sizes) == 0 {
		opts.Sizes = DefaultOutputSizes
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Capturer{
		source:   source,
		renderer: renderer,
		dir:      dir,
		opts:     opts,
		logger:   logger,
	}
}

// Capture takes all sized screenshots of a session and returns their file
// names. Any failure is logged and results in no files.
func (c *Capturer) Capture(ctx context.Context, id SessionID) []string {
	c.logger.Debug("capture: taking screenshots", "session", id)

	size, objects, err := c.source.MapAndObjects(ctx, id)
	if err != nil {
		c.logger.Warn("capture: fetch session", "session", id, "error", err)
		return nil
	}

	files := make([]string, 0, len(c.opts.Sizes))
	for _, out := range c.opts.Sizes {
		img, err := c.renderer.Render(size, image.Pt(out.Length, out.Length), objects, c.opts.StrictSized)
		if err != nil {
			c.logger.Error("capture: render", "session", id, "size", out.Slug, "error", err)
			return nil
		}

		name := ScreenshotName(id, size, out.Slug)
		if err := c.save(name, img); err != nil {
			c.logger.Error("capture: save screenshot", "session", id, "file", name, "error", err)
			return nil
		}
		files = append(files, name)
	}

	return files
}

func (c *Capturer) save(name string, img image.Image) error {
	f, err := os.CreateTemp(c.dir, name+".*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: c.opts.Quality}); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode jpeg: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	return os.Rename(tmp, filepath.Join(c.dir, name))
}

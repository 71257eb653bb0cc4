// Package web serves the latest screenshots over HTTP.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/b1naryth1ef/snakeshot"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const shutdownTimeout = 5 * time.Second

// ManifestReader provides the latest persisted manifest.
type ManifestReader interface {
	ReadLatest(ctx context.Context) (snakeshot.Manifest, error)
}

type Server struct {
	dir     string
	reports ManifestReader
	palette snakeshot.Palette
	logger  *slog.Logger
}

func NewServer(dir string, reports ManifestReader, palette snakeshot.Palette, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		dir:     dir,
		reports: reports,
		palette: palette,
		logger:  logger,
	}
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/", s.index)
	r.Get("/report.json", s.report)
	r.Get("/legend.json", s.legend)
	r.Get("/screenshots/{name}", s.screenshot)

	return r
}

// ListenAndServe blocks until ctx is cancelled, then shuts the server down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("web: listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) latest(w http.ResponseWriter, r *http.Request) (snakeshot.Manifest, bool) {
	manifest, err := s.reports.ReadLatest(r.Context())
	if err != nil {
		s.logger.Warn("web: read report", "error", err)
		http.Error(w, "report unavailable", http.StatusServiceUnavailable)
		return nil, false
	}
	return manifest, true
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	manifest, ok := s.latest(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, newFrontendData(manifest, s.palette)); err != nil {
		s.logger.Error("web: render index", "error", err)
	}
}

func (s *Server) report(w http.ResponseWriter, r *http.Request) {
	manifest, ok := s.latest(w, r)
	if !ok {
		return
	}
	if manifest == nil {
		manifest = snakeshot.Manifest{}
	}
	respondJSON(w, s.logger, manifest)
}

func (s *Server) legend(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, s.logger, legend(s.palette))
}

func (s *Server) screenshot(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name != filepath.Base(name) || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, snakeshot.ScreenshotExt) {
		http.NotFound(w, r)
		return
	}

	http.ServeFile(w, r, filepath.Join(s.dir, name))
}

func respondJSON(w http.ResponseWriter, logger *slog.Logger, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("web: encode response", "error", err)
	}
}

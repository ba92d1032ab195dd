// Package server wires the public pages, the admin screens and the
// operational endpoints onto one router.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"

	"head-cleaner/internal/admin"
	"head-cleaner/internal/auth"
	"head-cleaner/internal/plugin"
	"head-cleaner/internal/site"
)

// RenderEvent is a lightweight value type carrying only the fields the TUI
// needs about one rendered page.
type RenderEvent struct {
	Path      string
	Removed   int
	Intercept bool
	Bytes     int
	Duration  time.Duration
	Timestamp time.Time
}

// Server is the HTTP front of the site.
type Server struct {
	plugin *plugin.Plugin
	site   *site.Site
	admin  *admin.Handler
	logger *slog.Logger
	router chi.Router

	renders    atomic.Int64
	saves      atomic.Int64
	errors     atomic.Int64
	lastRender atomic.Value // stores time.Time

	onRender func(RenderEvent)
	onSave   func(admin.SaveEvent)
}

// New creates a Server for s with plugin p. Admin requests are
// authenticated with issuer. A nil logger uses slog.Default.
func New(p *plugin.Plugin, s *site.Site, issuer *auth.Issuer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	srv := &Server{
		plugin: p,
		site:   s,
		admin:  admin.New(p, s, issuer, logger),
		logger: logger.With("module", "server"),
	}
	srv.admin.SetOnSave(srv.saved)

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(srv.recoverMiddleware)
	r.Use(srv.loggingMiddleware)

	r.Get("/health", srv.handleHealth)
	r.Get("/stats", srv.handleStats)
	r.Get("/", srv.handlePage)
	r.Get("/{slug}/", srv.handlePage)
	r.Get("/{slug}", srv.handleSlash)

	r.Group(func(r chi.Router) {
		r.Use(issuer.Middleware)
		srv.admin.Routes(r)
	})
	srv.router = r
	return srv
}

// SetOnRender registers a callback invoked after each rendered page.
// The callback must be non-blocking (e.g. a non-blocking channel send).
func (s *Server) SetOnRender(fn func(RenderEvent)) {
	s.onRender = fn
}

// SetOnSave registers a callback invoked after each settings save.
// The callback must be non-blocking.
func (s *Server) SetOnSave(fn func(admin.SaveEvent)) {
	s.onSave = fn
}

// ErrCount returns the atomic error counter for direct reads by the TUI.
func (s *Server) ErrCount() *atomic.Int64 {
	return &s.errors
}

// Handler returns the HTTP handler for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) saved(evt admin.SaveEvent) {
	s.saves.Add(1)
	if s.onSave != nil {
		s.onSave(evt)
	}
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	slug := chi.URLParam(r, "slug")

	bus := s.site.NewBus()
	_, rep := s.plugin.Boot(ctx, bus)

	cw := &countingWriter{w: w}
	w.Header().Set("Content-Type", "text/html; charset=UTF-8")
	if err := s.site.Render(ctx, bus, cw, slug); err != nil {
		if errors.Is(err, site.ErrNotFound) {
			http.Error(w, "page not found", http.StatusNotFound)
			return
		}
		s.errors.Add(1)
		s.logger.ErrorContext(ctx, "render failed", "operation", "render", "outcome", "failure",
			"path", r.URL.Path, "error", err.Error())
		if cw.n == 0 {
			http.Error(w, "render failed", http.StatusInternalServerError)
		}
		return
	}

	now := time.Now()
	s.renders.Add(1)
	s.lastRender.Store(now)

	if s.onRender != nil {
		s.onRender(RenderEvent{
			Path:      r.URL.Path,
			Removed:   len(rep.Applied),
			Intercept: rep.Intercept,
			Bytes:     cw.n,
			Duration:  now.Sub(start),
			Timestamp: now,
		})
	}
}

func (s *Server) handleSlash(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, r.URL.Path+"/", http.StatusMovedPermanently)
}

// jsonError writes a JSON error response with the correct Content-Type.
func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"renders": s.renders.Load(),
		"saves":   s.saves.Load(),
		"errors":  s.errors.Load(),
	}

	if last := s.lastRender.Load(); last != nil {
		if t, ok := last.(time.Time); ok {
			resp["last_render"] = t.Format(time.RFC3339)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

type countingWriter struct {
	w http.ResponseWriter
	n int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += n
	return n, err
}

// Package server exposes the import pipeline over HTTP: upload a CAD file to
// stage an import session, preview it, confirm mappings, and evict it.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/steelforge/takeoff/internal/parser"
	"github.com/steelforge/takeoff/internal/session"
)

// Tenancy headers. Multi-tenant routing and authentication live upstream;
// these carry the already-authenticated identity.
const (
	headerTenantID = "X-Tenant-ID"
	headerUserID   = "X-User-ID"
)

// Server wires the parser and session services to the HTTP surface.
type Server struct {
	parser   *parser.Service
	sessions *session.Service

	// ParseTimeout bounds one file's parse as a whole.
	ParseTimeout time.Duration
	// MaxUploadBytes caps the multipart request body.
	MaxUploadBytes int64
}

// New creates an HTTP server over the given services.
func New(parserSvc *parser.Service, sessionSvc *session.Service) *Server {
	return &Server{
		parser:         parserSvc,
		sessions:       sessionSvc,
		ParseTimeout:   2 * time.Minute,
		MaxUploadBytes: 64 << 20,
	}
}

// Routes builds the router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api/import-sessions", func(r chi.Router) {
		r.Post("/", s.handleCreate)
		r.Get("/{sessionID}/preview", s.handlePreview)
		r.Post("/{sessionID}/confirm", s.handleConfirm)
		r.Delete("/{sessionID}", s.handleRemove)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requestLogger logs one line per request with the request id.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		slog.Info("Request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JakeFAU/appprofiler/internal/clock/system"
	"github.com/JakeFAU/appprofiler/internal/config"
	"github.com/JakeFAU/appprofiler/internal/metrics"
	"github.com/JakeFAU/appprofiler/internal/profile"
	"github.com/JakeFAU/appprofiler/internal/ratelimit"
	"github.com/JakeFAU/appprofiler/internal/storage"
	"github.com/JakeFAU/appprofiler/internal/upload"
	"github.com/JakeFAU/appprofiler/internal/viewer"
)

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces profile ids.
type IDGenerator interface {
	NewID() (string, error)
}

// Server wires HTTP handlers to the upload coordinator and the viewer.
type Server struct {
	router      chi.Router
	coordinator *upload.Coordinator
	store       storage.Provider
	idGen       IDGenerator
	clock       Clock
	cfg         config.Config
	logger      *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(
	coordinator *upload.Coordinator,
	store storage.Provider,
	backend viewer.Backend,
	idGen IDGenerator,
	clock Clock,
	cfg config.Config,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		coordinator: coordinator,
		store:       store,
		idGen:       idGen,
		clock:       clock,
		cfg:         cfg,
		logger:      logger,
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(metrics.Middleware)

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1/profiles", func(r chi.Router) {
		if cfg.Server.IngestAPIKey != "" {
			r.Use(apiKeyMiddleware(cfg.Server.IngestAPIKey))
		}
		if cfg.Server.IngestRateLimit.RPS > 0 {
			r.Use(ratelimit.New(cfg.Server.IngestRateLimit).Middleware)
		}
		r.Post("/", s.ingestProfile)
	})

	profiles := viewer.NewMiddleware(http.HandlerFunc(s.notFound), store, backend, logger.Named("viewer"))
	r.Handle("/app_profiler", profiles)
	r.Handle("/app_profiler/*", profiles)
	r.NotFound(profiles.ServeHTTP)

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if _, err := s.store.List(ctx); err != nil {
		s.logger.Warn("storage not ready", zap.Error(err))
		s.writeError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) notFound(w http.ResponseWriter, _ *http.Request) {
	s.writeError(w, http.StatusNotFound, "not found")
}

// ingestProfile accepts a raw JSON profile and runs it through the coordinator.
// Query parameters: name (basename to store under) and autoredirect (bool).
func (s *Server) ingestProfile(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, int64(s.cfg.Server.MaxUploadBytes)))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge, "profile too large")
			return
		}
		s.writeError(w, http.StatusBadRequest, "failed to read profile")
		return
	}
	if !json.Valid(body) {
		s.writeError(w, http.StatusBadRequest, "profile must be valid JSON")
		return
	}

	var autoredirect *bool
	if raw := r.URL.Query().Get("autoredirect"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "autoredirect must be a boolean")
			return
		}
		autoredirect = &v
	}

	basename, err := s.basename(r.URL.Query().Get("name"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec := profile.NewRecord(profile.ID(basename), body, basename)
	resp := s.coordinator.Call(r.Context(), rec, nil, autoredirect)

	payload, err := json.Marshal(map[string]string{"id": rec.ID})
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "encode response")
		return
	}
	resp.Headers["Content-Type"] = "application/json"
	resp.Body = append(resp.Body, payload)
	if err := resp.Apply(w); err != nil {
		s.logger.Warn("write ingest response failed", zap.Error(err))
	}
}

// basename validates a caller-supplied name or generates <stamp>-<uuid>.json.
func (s *Server) basename(name string) (string, error) {
	if name == "" {
		id, err := s.idGen.NewID()
		if err != nil {
			return "", fmt.Errorf("generate profile id: %w", err)
		}
		return system.Stamp(s.clock.Now()) + "-" + id + profile.Suffix, nil
	}
	if path.Base(name) != name || name == "." || name == ".." || strings.ContainsAny(name, `\`) {
		return "", errors.New("name must be a plain file name")
	}
	if !strings.HasSuffix(name, profile.Suffix) {
		name += profile.Suffix
	}
	return name, nil
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func loggingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			reqID, _ := r.Context().Value(requestIDKey{}).(string)
			logger.Info("request completed",
				zap.String("request_id", reqID),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.status),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			)
		})
	}
}

func recoverMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered", zap.Any("error", rec), zap.String("path", r.URL.Path))
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_, _ = w.Write([]byte(`{"error":"internal server error"}` + "\n"))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("write response: %w", err)
	}
	return n, nil
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := rw.ResponseWriter.(http.Hijacker); ok {
		conn, buf, err := h.Hijack()
		if err != nil {
			return nil, nil, fmt.Errorf("hijack connection: %w", err)
		}
		return conn, buf, nil
	}
	return nil, nil, errors.New("hijacker not supported")
}

type requestIDKey struct{}

func apiKeyMiddleware(expected string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("X-API-Key") != expected {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"unauthorized"}` + "\n"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("write JSON failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

// Package server exposes the compile pipeline to the notebook UI over HTTP.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.trai.ch/jsbook/internal/core/domain"
	"go.trai.ch/jsbook/internal/core/ports"
	"go.trai.ch/jsbook/internal/engine/bundler"
	"go.trai.ch/jsbook/internal/engine/preview"
	"go.trai.ch/zerr"
)

const (
	maxRequestBody  = 4 << 20
	shutdownTimeout = 5 * time.Second
	defaultCellID   = "default"
)

// ErrListenFailed is returned when the server cannot bind its address.
var ErrListenFailed = zerr.New("failed to listen")

// CompileRequest is the body of POST /api/compile.
type CompileRequest struct {
	Source  string `json:"source"`
	Runtime string `json:"runtime,omitempty"`
	CellID  string `json:"cellId,omitempty"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status               string `json:"status"`
	UptimeSeconds        int64  `json:"uptimeSeconds"`
	IdleRemainingSeconds int64  `json:"idleRemainingSeconds"`
	InFlight             int    `json:"inFlight"`
}

// Server serves compile and preview requests.
type Server struct {
	lifecycle *Lifecycle
	sessions  *bundler.Sessions
	preview   *preview.Renderer
	logger    ports.Logger
	router    chi.Router
}

// New creates a Server and registers its routes.
func New(lifecycle *Lifecycle, sessions *bundler.Sessions, renderer *preview.Renderer, logger ports.Logger) *Server {
	s := &Server{
		lifecycle: lifecycle,
		sessions:  sessions,
		preview:   renderer,
		logger:    logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.touch)
	r.Get("/healthz", s.handleHealth)
	r.Get("/preview", s.handlePreview)
	r.Post("/api/compile", s.handleCompile)
	s.router = r

	return s
}

// Handler returns the HTTP handler of s.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve listens on addr until ctx is done or the lifecycle shuts down.
func (s *Server) Serve(ctx context.Context, addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return zerr.With(zerr.Wrap(err, ErrListenFailed.Error()), "addr", addr)
	}
	return s.ServeListener(ctx, lis)
}

// ServeListener serves on lis until ctx is done or the lifecycle shuts down.
func (s *Server) ServeListener(ctx context.Context, lis net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info(fmt.Sprintf("serving on http://%s", lis.Addr()))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		return s.shutdown(srv)
	case <-s.lifecycle.Done():
		s.logger.Info("idle timeout reached, shutting down")
		return s.shutdown(srv)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) shutdown(srv *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(ctx)
}

func (s *Server) touch(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		end := s.lifecycle.Begin()
		defer end()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:               "ok",
		UptimeSeconds:        int64(s.lifecycle.Uptime().Seconds()),
		IdleRemainingSeconds: int64(s.lifecycle.IdleRemaining().Seconds()),
		InFlight:             s.lifecycle.InFlight(),
	})
}

func (s *Server) handleCompile(w http.ResponseWriter, r *http.Request) {
	var req CompileRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, domain.BuildOutput{Err: "invalid request body: " + err.Error()})
		return
	}

	rt, err := domain.ParseRuntime(req.Runtime)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, domain.BuildOutput{Err: err.Error() + ": " + req.Runtime})
		return
	}

	cellID := req.CellID
	if cellID == "" {
		cellID = defaultCellID
	}

	out, current := s.sessions.Get(cellID).Compile(r.Context(), domain.BuildInput{Source: req.Source, Runtime: rt})
	if !current {
		writeJSON(w, http.StatusConflict, domain.BuildOutput{Err: "superseded by a newer build"})
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	doc := preview.Document{Title: r.URL.Query().Get("title")}

	var buf bytes.Buffer
	if err := s.preview.Render(r.Context(), &buf, doc); err != nil {
		s.logger.Error(err)
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

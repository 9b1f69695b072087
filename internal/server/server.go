// Package server provides the HTTP surface of goldenreps: session control,
// history, the live event socket, the camera stream and metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ayusman/goldenreps/internal/capture"
	"github.com/ayusman/goldenreps/internal/server/api"
)

// Config holds the server configuration. Every collaborator is optional;
// routes whose collaborator is missing are not mounted.
type Config struct {
	StaticDir  string
	Controller api.Controller
	History    api.History
	Best       api.BestReader
	Hub        *Hub
	Frames     *capture.FrameBuffer
	Gatherer   prometheus.Gatherer
	Logger     *zap.Logger
}

// Server represents the HTTP server.
type Server struct {
	config Config
	router chi.Router
	logger *zap.Logger
	start  time.Time
	http   *http.Server
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		config: config,
		router: chi.NewRouter(),
		logger: logger.Named("http"),
		start:  time.Now(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.logger))

	s.router.Get("/api/health", s.handleHealth)

	if s.config.Controller != nil {
		h := api.NewSessionHandler(s.config.Controller, s.logger)
		s.router.Route("/api/session", func(r chi.Router) {
			r.Get("/", h.Status)
			r.Post("/start", h.Start)
			r.Post("/stop", h.Stop)
			r.Post("/reset", h.Reset)
		})
	}

	if s.config.History != nil {
		h := api.NewHistoryHandler(s.config.History, s.config.Best)
		s.router.Get("/api/sessions", h.List)
		s.router.Get("/api/sessions/{id}", h.Get)
	}

	if s.config.Hub != nil {
		s.router.Get("/api/events", s.config.Hub.ServeHTTP)
	}

	if s.config.Frames != nil {
		s.router.Get("/api/stream", NewStreamHandler(s.config.Frames).ServeHTTP)
	}

	if s.config.Gatherer != nil {
		s.router.Get("/metrics", promhttp.HandlerFor(s.config.Gatherer, promhttp.HandlerOpts{}).ServeHTTP)
	}

	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.router.Handle("/*", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

type healthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Session bool   `json:"session_running"`
}

// handleHealth handles GET /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status: "ok",
		Uptime: time.Since(s.start).Round(time.Second).String(),
	}
	if s.config.Controller != nil {
		resp.Session = s.config.Controller.Status().Running
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully within the given grace period.
func (s *Server) ListenAndServe(ctx context.Context, addr string, grace time.Duration) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", addr))
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()

	if s.config.Hub != nil {
		s.config.Hub.Close()
	}
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

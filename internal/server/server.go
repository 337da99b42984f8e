package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/damianti/micro-organisms/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Config holds server configuration.
type Config struct {
	Port         int
	DataDir      string
	MinSamples   int
	MinAbundance float64
	CORSOrigins  []string
}

// Server is the read-only microbiome composition API.
type Server struct {
	cfg        Config
	pipeline   *pipeline.Pipeline
	logger     *zap.Logger
	metrics    *metrics
	httpServer *http.Server
}

// New creates a server around an existing pipeline. The pipeline may or may
// not have run yet; data endpoints answer 503 until a snapshot is ready.
func New(cfg Config, pipe *pipeline.Pipeline, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	registry := prometheus.NewRegistry()
	s := &Server{
		cfg:      cfg,
		pipeline: pipe,
		logger:   logger,
		metrics:  newMetrics(registry),
	}
	s.observeSnapshot()

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.instrument("/", s.corsMiddleware(s.handleIndex)))
	mux.HandleFunc("/api/environments", s.instrument("/api/environments", s.corsMiddleware(s.handleEnvironments)))
	mux.HandleFunc("/api/composition/", s.instrument("/api/composition", s.corsMiddleware(s.handleComposition)))
	mux.HandleFunc("/api/stats", s.instrument("/api/stats", s.corsMiddleware(s.handleStats)))
	mux.HandleFunc("/api/health", s.instrument("/api/health", s.corsMiddleware(s.handleHealth)))
	mux.HandleFunc("/api/reload", s.instrument("/api/reload", s.corsMiddleware(s.handleReload)))
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start starts the server and blocks until shutdown.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", zap.Int("port", s.cfg.Port))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-stop:
	}
	s.logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}

// Port returns the configured port.
func (s *Server) Port() int {
	return s.cfg.Port
}

// observeSnapshot updates the snapshot-derived gauges.
func (s *Server) observeSnapshot() {
	snap, err := s.pipeline.Snapshot()
	if err != nil {
		return
	}
	s.metrics.environmentsReady.Set(float64(len(snap.Aggregates.Environments)))
	s.metrics.reloadDuration.Set(snap.Duration.Seconds())
}

// corsMiddleware adds CORS headers for the configured frontend origins.
func (s *Server) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		for _, allowed := range s.cfg.CORSOrigins {
			if origin == allowed || allowed == "*" {
				w.Header().Set("Access-Control-Allow-Origin", allowed)
				break
			}
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

// instrument wraps a handler with request counting and latency observation.
func (s *Server) instrument(path string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		s.metrics.requestsTotal.WithLabelValues(path, strconv.Itoa(rec.status)).Inc()
		s.metrics.requestDuration.WithLabelValues(path).Observe(time.Since(start).Seconds())
	}
}

// statusRecorder captures the response status code for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// writeJSON writes a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encoding response", zap.Error(err))
	}
}

// writeError writes a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

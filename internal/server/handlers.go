package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/damianti/micro-organisms/internal/pipeline"
	"go.uber.org/zap"
)

const apiVersion = "1.0.0"

// loadStatus mirrors the pipeline lifecycle for API responses.
type loadStatus struct {
	Loaded     bool   `json:"loaded"`
	Loading    bool   `json:"loading"`
	Error      string `json:"error,omitempty"`
	LastUpdate string `json:"last_update,omitempty"`
}

func (s *Server) status() loadStatus {
	st := loadStatus{
		Loaded:  s.pipeline.State() == pipeline.StateReady,
		Loading: s.pipeline.State() == pipeline.StateLoading,
	}
	if err := s.pipeline.LastError(); err != nil {
		st.Error = err.Error()
	}
	if snap, err := s.pipeline.Snapshot(); err == nil {
		st.Loaded = true
		st.LastUpdate = snap.LoadedAt.Format(time.RFC3339)
	}
	return st
}

// endpointInfo describes one API endpoint for the index page.
type endpointInfo struct {
	Method      string `json:"method"`
	Path        string `json:"path"`
	Description string `json:"description"`
}

// handleIndex handles GET / and answers 404 for unknown paths.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		s.writeError(w, http.StatusNotFound, "endpoint not found")
		return
	}
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	totalEnvironments := 0
	if envs, err := s.pipeline.Environments(); err == nil {
		totalEnvironments = len(envs)
	}

	s.writeJSON(w, http.StatusOK, struct {
		Message           string         `json:"message"`
		Version           string         `json:"version"`
		Description       string         `json:"description"`
		Status            loadStatus     `json:"status"`
		Endpoints         []endpointInfo `json:"endpoints"`
		TotalEnvironments int            `json:"total_environments"`
	}{
		Message:     "microlens microbiome API",
		Version:     apiVersion,
		Description: "Average microbial composition per sample environment",
		Status:      s.status(),
		Endpoints: []endpointInfo{
			{Method: "GET", Path: "/", Description: "API information"},
			{Method: "GET", Path: "/api/environments", Description: "Available environments"},
			{Method: "GET", Path: "/api/composition/{environment}", Description: "Composition of one environment"},
			{Method: "GET", Path: "/api/stats", Description: "Dataset statistics"},
			{Method: "GET", Path: "/api/health", Description: "Health check"},
			{Method: "POST", Path: "/api/reload", Description: "Re-run the pipeline"},
			{Method: "GET", Path: "/metrics", Description: "Prometheus metrics"},
		},
		TotalEnvironments: totalEnvironments,
	})
}

// environmentEntry is one row of the environments listing.
type environmentEntry struct {
	Name        string `json:"name"`
	SampleCount int    `json:"sample_count"`
	PhylaCount  int    `json:"phyla_count"`
}

// handleEnvironments handles GET /api/environments.
func (s *Server) handleEnvironments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	snap, err := s.pipeline.Snapshot()
	if err != nil {
		s.writeNotLoaded(w)
		return
	}

	list := snap.Aggregates.EnvironmentList()
	entries := make([]environmentEntry, 0, len(list))
	totalSamples := 0
	for _, info := range list {
		entry := environmentEntry{Name: info.Name, SampleCount: info.SampleCount}
		if comp, err := snap.Aggregates.Composition(info.Name, s.cfg.MinAbundance); err == nil {
			entry.PhylaCount = len(comp.Composition)
		}
		entries = append(entries, entry)
		totalSamples += info.SampleCount
	}

	s.writeJSON(w, http.StatusOK, struct {
		Environments      []environmentEntry `json:"environments"`
		TotalEnvironments int                `json:"total_environments"`
		TotalSamples      int                `json:"total_samples"`
	}{
		Environments:      entries,
		TotalEnvironments: len(entries),
		TotalSamples:      totalSamples,
	})
}

// handleComposition handles GET /api/composition/{environment}.
// The min_abundance query parameter overrides the configured threshold.
func (s *Server) handleComposition(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	environment := strings.TrimPrefix(r.URL.Path, "/api/composition/")
	if environment == "" {
		s.writeError(w, http.StatusBadRequest, "environment name required")
		return
	}

	if _, err := s.pipeline.Snapshot(); err != nil {
		s.writeNotLoaded(w)
		return
	}

	minAbundance := s.cfg.MinAbundance
	if raw := r.URL.Query().Get("min_abundance"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			s.writeError(w, http.StatusBadRequest, "invalid min_abundance")
			return
		}
		minAbundance = v
	}

	comp, err := s.pipeline.Composition(environment, minAbundance)
	if err != nil {
		var notFound *pipeline.EnvironmentNotFoundError
		if errors.As(err, &notFound) {
			s.writeJSON(w, http.StatusNotFound, struct {
				Error     string   `json:"error"`
				Available []string `json:"available_environments"`
			}{
				Error:     "environment '" + environment + "' not found",
				Available: notFound.Available,
			})
			return
		}
		s.logger.Error("composition lookup failed", zap.String("environment", environment), zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to get composition")
		return
	}

	s.writeJSON(w, http.StatusOK, struct {
		*pipeline.Composition
		RequestTimestamp string `json:"request_timestamp"`
		DataSource       string `json:"data_source"`
	}{
		Composition:      comp,
		RequestTimestamp: time.Now().Format(time.RFC3339),
		DataSource:       "GTDB taxonomy",
	})
}

// handleStats handles GET /api/stats.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	snap, err := s.pipeline.Snapshot()
	if err != nil {
		s.writeNotLoaded(w)
		return
	}

	summary := snap.Aggregates.Stats(s.cfg.MinAbundance, 5)
	s.writeJSON(w, http.StatusOK, struct {
		*pipeline.StatsSummary
		ProcessedAt string     `json:"processed_at"`
		Status      loadStatus `json:"status"`
	}{
		StatsSummary: summary,
		ProcessedAt:  snap.LoadedAt.Format(time.RFC3339),
		Status:       s.status(),
	})
}

// handleHealth handles GET /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, struct {
		Status     string `json:"status"`
		Timestamp  string `json:"timestamp"`
		DataLoaded bool   `json:"data_loaded"`
	}{
		Status:     "healthy",
		Timestamp:  time.Now().Format(time.RFC3339),
		DataLoaded: s.pipeline.State() == pipeline.StateReady,
	})
}

// handleReload handles POST /api/reload: re-runs the whole pipeline. A
// reload already in flight answers 409; readers keep the previous snapshot
// until the new one is published.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	snap, err := s.pipeline.Run(s.cfg.DataDir, s.cfg.MinSamples)
	if err != nil {
		if errors.Is(err, pipeline.ErrLoadInProgress) {
			// Rejected reloads never ran and do not count as completed.
			s.writeJSON(w, http.StatusConflict, struct {
				Message string     `json:"message"`
				Status  loadStatus `json:"status"`
			}{
				Message: "data load already in progress",
				Status:  s.status(),
			})
			return
		}
		s.metrics.reloadsTotal.Inc()
		s.metrics.reloadFailures.Inc()
		s.logger.Error("reload failed", zap.Error(err))
		s.writeJSON(w, http.StatusInternalServerError, struct {
			Error  string     `json:"error"`
			Status loadStatus `json:"status"`
		}{
			Error:  "reload failed: " + err.Error(),
			Status: s.status(),
		})
		return
	}

	s.metrics.reloadsTotal.Inc()
	s.observeSnapshot()
	s.writeJSON(w, http.StatusOK, struct {
		Message            string     `json:"message"`
		EnvironmentsLoaded int        `json:"environments_loaded"`
		Status             loadStatus `json:"status"`
	}{
		Message:            "data reloaded",
		EnvironmentsLoaded: len(snap.Aggregates.Environments),
		Status:             s.status(),
	})
}

// writeNotLoaded answers 503 for data endpoints hit before a snapshot exists.
func (s *Server) writeNotLoaded(w http.ResponseWriter) {
	s.writeJSON(w, http.StatusServiceUnavailable, struct {
		Error  string     `json:"error"`
		Status loadStatus `json:"status"`
	}{
		Error:  "data not loaded",
		Status: s.status(),
	})
}

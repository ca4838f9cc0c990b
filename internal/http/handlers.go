package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"finboard/internal/amqp"
	"finboard/internal/core"
)

const requestTimeout = 15 * time.Second

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady reports readiness plus summary-cache counters when a stats
// source is wired.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.cacheStats == nil {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
		return
	}

	hits, misses := s.cacheStats.Stats()
	writeJSON(w, r, http.StatusOK, map[string]any{
		"status": "ready",
		"cache": map[string]any{
			"hits":    hits,
			"misses":  misses,
			"entries": s.cacheStats.Size(),
		},
	})
}

func (s *Server) handlePortfolios(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	portfolios := s.dashboard.Portfolios()
	resp := make([]portfolioResponse, 0, len(portfolios))
	for _, p := range portfolios {
		resp = append(resp, toPortfolioResponse(p))
	}
	writeJSON(w, r, http.StatusOK, resp)
}

// datasetHandler serves one fixed dataset for a portfolio. The ?force=true
// query bypasses the cache.
func (s *Server) datasetHandler(dataset string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.serveDataset(w, r, dataset)
	}
}

// handleNamedDataset serves any dataset by key, for views beyond the AP/AR
// summaries (aging trend, cash flow, WIP schedule).
func (s *Server) handleNamedDataset(w http.ResponseWriter, r *http.Request) {
	s.serveDataset(w, r, r.PathValue("dataset"))
}

func (s *Server) serveDataset(w http.ResponseWriter, r *http.Request, dataset string) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	force := strings.EqualFold(r.URL.Query().Get("force"), "true")
	summary, err := s.dashboard.Dataset(ctx, r.PathValue("id"), dataset, force)
	if err != nil {
		status := http.StatusNotFound
		if !isNotFound(err) {
			status = http.StatusInternalServerError
			slog.ErrorContext(ctx, "Dataset request failed", "error", err, "dataset", dataset)
		}
		writeError(w, r, status, err.Error())
		return
	}
	writeJSON(w, r, http.StatusOK, toDatasetResponse(summary))
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	snapshot, err := s.dashboard.Snapshot(ctx, r.PathValue("id"), false)
	if err != nil {
		status := http.StatusNotFound
		if !isNotFound(err) {
			status = http.StatusInternalServerError
			slog.ErrorContext(ctx, "Snapshot request failed", "error", err)
		}
		writeError(w, r, status, err.Error())
		return
	}
	writeJSON(w, r, http.StatusOK, toSnapshotResponse(snapshot))
}

// handleRefresh drops the portfolio's cached summaries, rebuilds the
// snapshot live, and announces the refresh over AMQP when a publisher is
// wired.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	portfolioID := r.PathValue("id")
	s.dashboard.Invalidate(portfolioID)

	snapshot, err := s.dashboard.Snapshot(ctx, portfolioID, true)
	if err != nil {
		status := http.StatusNotFound
		if !isNotFound(err) {
			status = http.StatusInternalServerError
			slog.ErrorContext(ctx, "Forced refresh failed", "error", err, "portfolio", portfolioID)
		}
		writeError(w, r, status, err.Error())
		return
	}

	if s.publisher != nil {
		msg := amqp.NewSnapshotRefreshedMessage(snapshot)
		if err := s.publisher.PublishSnapshotRefreshed(ctx, msg); err != nil {
			// The refresh itself succeeded; a lost notification is not
			// worth failing the request over.
			slog.WarnContext(ctx, "Refresh notification publish failed",
				"error", err, "portfolio", portfolioID)
		}
	}

	writeJSON(w, r, http.StatusOK, toSnapshotResponse(snapshot))
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.ErrorContext(r.Context(), "Response encoding failed", "error", err, "url", r.URL.Path)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, map[string]string{"error": msg})
}

// isNotFound reports whether err is a lookup failure rather than a pipeline
// one. Unknown portfolios and datasets map to 404.
func isNotFound(err error) bool {
	return errors.Is(err, core.ErrUnknownDataset) || strings.Contains(err.Error(), "unknown portfolio")
}

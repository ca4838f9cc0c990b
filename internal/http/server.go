// Package http serves the dashboard JSON API.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"finboard/internal/amqp"
	"finboard/internal/config"
	"finboard/internal/core"

	"github.com/google/uuid"
)

// Dashboard is the slice of the dashboard service the handlers need.
type Dashboard interface {
	Dataset(ctx context.Context, portfolioID, dataset string, force bool) (core.DatasetSummary, error)
	Snapshot(ctx context.Context, portfolioID string, force bool) (core.PortfolioSnapshot, error)
	Invalidate(portfolioID string)
	Portfolios() []config.Portfolio
}

// RefreshPublisher announces forced refreshes. nil disables publishing.
type RefreshPublisher interface {
	PublishSnapshotRefreshed(ctx context.Context, msg *amqp.SnapshotRefreshedMessage) error
}

// CacheStats is the summary cache's counter surface, reported on /readyz.
type CacheStats interface {
	Stats() (hits, misses uint64)
	Size() int
}

type Server struct {
	http.Server
	dashboard    Dashboard
	publisher    RefreshPublisher
	cacheStats   CacheStats
	rateLimiter  *rateLimiter
	shutdownOnce sync.Once
}

// NewServer configures routes and timeouts, returning a ready-to-run server.
// publisher may be nil when AMQP is unavailable; refreshes then only log.
// stats may be nil; /readyz then omits cache counters.
func NewServer(addr string, dashboard Dashboard, publisher RefreshPublisher, stats CacheStats) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		dashboard:   dashboard,
		publisher:   publisher,
		cacheStats:  stats,
		rateLimiter: newRateLimiter(60),
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/api/portfolios", s.withAPIHeaders(s.handlePortfolios))
	mux.HandleFunc("/api/portfolios/{id}/ap", s.withAPIHeaders(s.datasetHandler(core.DatasetAPSummary)))
	mux.HandleFunc("/api/portfolios/{id}/ar", s.withAPIHeaders(s.datasetHandler(core.DatasetARSummary)))
	mux.HandleFunc("/api/portfolios/{id}/datasets/{dataset}", s.withAPIHeaders(s.handleNamedDataset))
	mux.HandleFunc("/api/portfolios/{id}/dashboard", s.withAPIHeaders(s.handleDashboard))
	mux.HandleFunc("/api/portfolios/{id}/refresh", s.withAPIHeaders(s.handleRefresh))

	return s
}

// Shutdown stops the listener and the rate limiter cleanup goroutine.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withAPIHeaders adds security headers, rate limiting, a request trace ID,
// and request logging.
func (s *Server) withAPIHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP)

		// Refresh is the expensive endpoint; everything else is cache-backed.
		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("X-Request-ID", requestID)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds(),
			"client_ip", clientIP)
	}
}

type contextKey string

const requestIDKey contextKey = "request_id"

// RequestID extracts the trace ID injected by the middleware.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Package worker periodically rebuilds portfolio snapshots and announces
// them over AMQP.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"finboard/internal/amqp"
	"finboard/internal/core"
)

// SnapshotBuilder is the slice of the dashboard service the worker needs.
type SnapshotBuilder interface {
	Snapshot(ctx context.Context, portfolioID string, force bool) (core.PortfolioSnapshot, error)
}

// Publisher announces completed refreshes. nil degrades to log-only.
type Publisher interface {
	PublishSnapshotRefreshed(ctx context.Context, msg *amqp.SnapshotRefreshedMessage) error
}

// RefreshWorker rebuilds every configured portfolio on a fixed interval so
// dashboard reads stay warm and refresh events keep flowing even when
// nobody clicks refresh.
type RefreshWorker struct {
	dashboard  SnapshotBuilder
	publisher  Publisher
	portfolios []string
	interval   time.Duration

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewRefreshWorker(dashboard SnapshotBuilder, publisher Publisher, portfolios []string, interval time.Duration) *RefreshWorker {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &RefreshWorker{
		dashboard:  dashboard,
		publisher:  publisher,
		portfolios: portfolios,
		interval:   interval,
	}
}

// Start begins the refresh loop. Returns an error if already running.
func (w *RefreshWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("refresh worker is already running")
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	go w.runLoop(ctx)

	slog.InfoContext(ctx, "Refresh worker started",
		"interval", w.interval,
		"portfolios", len(w.portfolios))

	return nil
}

// Stop gracefully stops the worker and waits for the loop to finish.
func (w *RefreshWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	close(w.stopCh)

	select {
	case <-w.doneCh:
		slog.InfoContext(ctx, "Refresh worker stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Refresh worker stop timed out")
		return ctx.Err()
	}

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	return nil
}

func (w *RefreshWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *RefreshWorker) runLoop(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// Refresh immediately on startup so the first dashboard read is warm.
	w.refreshAll(ctx)

	for {
		select {
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.refreshAll(ctx)
		}
	}
}

// refreshAll rebuilds every portfolio in turn. Failures are contained per
// portfolio; one bad spreadsheet must not starve the others.
func (w *RefreshWorker) refreshAll(ctx context.Context) {
	for _, portfolioID := range w.portfolios {
		select {
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		default:
		}

		w.refreshOne(ctx, portfolioID)
	}
}

func (w *RefreshWorker) refreshOne(ctx context.Context, portfolioID string) {
	start := time.Now()

	snapshot, err := w.dashboard.Snapshot(ctx, portfolioID, true)
	if err != nil {
		slog.ErrorContext(ctx, "Portfolio refresh failed",
			"portfolio", portfolioID, "error", err)
		return
	}

	slog.InfoContext(ctx, "Portfolio refreshed",
		"portfolio", portfolioID,
		"datasets", len(snapshot.Datasets),
		"duration_ms", time.Since(start).Milliseconds())

	if w.publisher == nil {
		slog.DebugContext(ctx, "No publisher configured, skipping refresh notification",
			"portfolio", portfolioID)
		return
	}

	msg := amqp.NewSnapshotRefreshedMessage(snapshot)
	if err := w.publisher.PublishSnapshotRefreshed(ctx, msg); err != nil {
		slog.WarnContext(ctx, "Refresh notification publish failed",
			"portfolio", portfolioID, "error", err)
	}
}

package worker

import (
	"context"
	"fmt"
	"log/slog"

	"finboard/internal/amqp"
)

// RefreshConsumer delivers snapshot refresh events to a handler.
type RefreshConsumer interface {
	ConsumeSnapshotRefreshed(ctx context.Context, handler func(*amqp.SnapshotRefreshedMessage) error) error
}

// CacheInvalidator drops cached summaries for one portfolio.
type CacheInvalidator interface {
	Invalidate(portfolioID string)
}

// RefreshListener keeps a process's summary cache coherent with refreshes
// performed elsewhere: when another process announces a rebuilt snapshot,
// the cached summaries for that portfolio are dropped so the next read
// fetches fresh data.
type RefreshListener struct {
	consumer  RefreshConsumer
	dashboard CacheInvalidator
}

func NewRefreshListener(consumer RefreshConsumer, dashboard CacheInvalidator) *RefreshListener {
	return &RefreshListener{consumer: consumer, dashboard: dashboard}
}

// Run consumes refresh events until ctx is cancelled.
func (l *RefreshListener) Run(ctx context.Context) error {
	return l.consumer.ConsumeSnapshotRefreshed(ctx, l.handle)
}

func (l *RefreshListener) handle(msg *amqp.SnapshotRefreshedMessage) error {
	if msg.Portfolio == "" {
		return fmt.Errorf("refresh message missing portfolio")
	}
	l.dashboard.Invalidate(msg.Portfolio)
	slog.Info("Invalidated cached summaries after refresh event",
		"portfolio", msg.Portfolio,
		"datasets", len(msg.Datasets))
	return nil
}

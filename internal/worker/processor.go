package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"contactfinder/internal/repository"
	"contactfinder/internal/service"
)

// CacheWorker listens for completed searches and re-warms the balance
// cache off the request path. Execute only invalidates the cached summary;
// this worker reads the fresh state back so the next balance poll is a
// cache hit again.
type CacheWorker struct {
	svc      service.AccountingService
	natsConn *nats.Conn
}

func NewCacheWorker(svc service.AccountingService, nc *nats.Conn) *CacheWorker {
	return &CacheWorker{
		svc:      svc,
		natsConn: nc,
	}
}

// Run subscribes to the search-completed topic and blocks until ctx is
// cancelled. QueueSubscribe keeps the refresh work at one worker per event
// even when several instances run.
func (w *CacheWorker) Run(ctx context.Context) error {
	sub, err := w.natsConn.QueueSubscribe(repository.TopicSearchCompleted, "cache_group", func(m *nats.Msg) {
		var event repository.SearchEvent
		if err := json.Unmarshal(m.Data, &event); err != nil {
			slog.Error("worker: failed to unmarshal search event", "error", err)
			return
		}

		// GetBalance reads through to the store and repopulates the cache.
		if _, err := w.svc.GetBalance(ctx, event.UserID); err != nil {
			slog.Error("worker: failed to refresh balance cache",
				"user_id", event.UserID,
				"record_id", event.RecordID,
				"error", err,
			)
			return
		}

		slog.Debug("worker: balance cache refreshed",
			"user_id", event.UserID,
			"record_id", event.RecordID,
		)
	})

	if err != nil {
		return fmt.Errorf("worker: failed to subscribe to NATS: %w", err)
	}

	slog.Info("Cache worker is running")

	<-ctx.Done()

	slog.Info("Worker received shutdown signal, draining subscription...")
	return sub.Drain()
}

// Start implements the infrastructure.Server interface.
func (w *CacheWorker) Start(ctx context.Context) error {
	return w.Run(ctx)
}

// Stop implements the infrastructure.Server interface (no-op, shutdown is via ctx).
func (w *CacheWorker) Stop(ctx context.Context) error {
	return nil
}

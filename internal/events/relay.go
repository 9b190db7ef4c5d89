package events

import (
	"context"
	"time"

	"bazaar/internal/domain"
	applog "bazaar/internal/log"
)

type OutboxStore interface {
	Unpublished(ctx context.Context, limit int) ([]domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string) error
}

// Relay moves committed outbox rows to the publisher. Delivery is at least
// once: an event whose mark fails is published again on the next pass.
type Relay struct {
	store     OutboxStore
	pub       Publisher
	interval  time.Duration
	batchSize int
}

func NewRelay(store OutboxStore, pub Publisher, interval time.Duration) *Relay {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Relay{store: store, pub: pub, interval: interval, batchSize: 100}
}

// Run polls until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			r.Flush(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Flush publishes one batch and returns how many events were marked.
// It stops at the first publish failure to keep per-checkout order.
func (r *Relay) Flush(ctx context.Context) int {
	evs, err := r.store.Unpublished(ctx, r.batchSize)
	if err != nil {
		applog.Error(nil, "outbox.fetch_failed", err, nil)
		return 0
	}
	n := 0
	for _, ev := range evs {
		if err := r.pub.Publish(ctx, ev); err != nil {
			applog.Error(nil, "outbox.publish_failed", err, map[string]any{"event_id": ev.ID})
			return n
		}
		if err := r.store.MarkPublished(ctx, ev.ID); err != nil {
			applog.Error(nil, "outbox.mark_failed", err, map[string]any{"event_id": ev.ID})
			continue
		}
		n++
	}
	return n
}

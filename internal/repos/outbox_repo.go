package repos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"bazaar/internal/domain"
)

// OutboxRepo stores events written in the same transaction as the state
// change they describe. The relay publishes them later.
type OutboxRepo struct{ db sqlx.ExtContext }

func NewOutboxRepo(db sqlx.ExtContext) *OutboxRepo { return &OutboxRepo{db: db} }

func (r *OutboxRepo) Insert(ctx context.Context, ev domain.OutboxEvent) error {
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO outbox(id, event_type, aggregate_id, payload, created_at)
		VALUES(?,?,?,?,?)`, ev.ID, ev.EventType, ev.AggregateID, ev.Payload, ev.CreatedAt)
	return domain.Storage("outbox.insert", err)
}

func (r *OutboxRepo) Unpublished(ctx context.Context, limit int) ([]domain.OutboxEvent, error) {
	var out []domain.OutboxEvent
	err := sqlx.SelectContext(ctx, r.db, &out, `
		SELECT id, event_type, aggregate_id, payload, created_at
		FROM outbox
		WHERE published_at IS NULL
		ORDER BY created_at, rowid
		LIMIT ?`, limit)
	return out, domain.Storage("outbox.unpublished", err)
}

func (r *OutboxRepo) MarkPublished(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE outbox SET published_at=? WHERE id=?`, time.Now().UTC(), id)
	return domain.Storage("outbox.mark_published", err)
}

// Pending counts events still waiting for the relay.
func (r *OutboxRepo) Pending(ctx context.Context) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, r.db, &n, `SELECT COUNT(*) FROM outbox WHERE published_at IS NULL`)
	return n, domain.Storage("outbox.pending", err)
}

package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"bazaar/internal/domain"
)

// PurchaseRepo is the append-only ledger. There is no update or delete.
type PurchaseRepo struct{ db sqlx.ExtContext }

func NewPurchaseRepo(db sqlx.ExtContext) *PurchaseRepo { return &PurchaseRepo{db: db} }

const purchaseCols = `
    id, checkout_id, user_id, item_id, item_name, quantity,
    unit_price, captured_value, purchased_at`

func (r *PurchaseRepo) Insert(ctx context.Context, p domain.PurchaseRecord) error {
	_, err := sqlx.NamedExecContext(ctx, r.db, `
		INSERT INTO purchases(id, checkout_id, user_id, item_id, item_name, quantity, unit_price, captured_value, purchased_at)
		VALUES(:id, :checkout_id, :user_id, :item_id, :item_name, :quantity, :unit_price, :captured_value, :purchased_at)`,
		map[string]any{
			"id":             p.ID,
			"checkout_id":    p.CheckoutID,
			"user_id":        p.UserID,
			"item_id":        p.ItemID,
			"item_name":      p.ItemName,
			"quantity":       p.Quantity,
			"unit_price":     p.UnitPrice.String(),
			"captured_value": p.CapturedValue.String(),
			"purchased_at":   p.PurchasedAt.UTC(),
		})
	return domain.Storage("purchase.insert", err)
}

// ByUser returns the user's history, newest first.
func (r *PurchaseRepo) ByUser(ctx context.Context, userID string) ([]domain.PurchaseRecord, error) {
	var out []domain.PurchaseRecord
	err := sqlx.SelectContext(ctx, r.db, &out, `
		SELECT `+purchaseCols+`
		FROM purchases
		WHERE user_id = ?
		ORDER BY purchased_at DESC, rowid`, userID)
	return out, domain.Storage("purchase.by_user", err)
}

func (r *PurchaseRepo) ByCheckout(ctx context.Context, checkoutID string) ([]domain.PurchaseRecord, error) {
	var out []domain.PurchaseRecord
	err := sqlx.SelectContext(ctx, r.db, &out, `
		SELECT `+purchaseCols+`
		FROM purchases
		WHERE checkout_id = ?
		ORDER BY rowid`, checkoutID)
	return out, domain.Storage("purchase.by_checkout", err)
}

// Latest returns the most recent ledger entries across all users.
func (r *PurchaseRepo) Latest(ctx context.Context, limit int) ([]domain.PurchaseRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []domain.PurchaseRecord
	err := sqlx.SelectContext(ctx, r.db, &out, `
		SELECT `+purchaseCols+`
		FROM purchases
		ORDER BY purchased_at DESC, rowid DESC
		LIMIT ?`, limit)
	return out, domain.Storage("purchase.latest", err)
}

func (r *PurchaseRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, r.db, &n, `SELECT COUNT(DISTINCT checkout_id) FROM purchases`)
	return n, domain.Storage("purchase.count", err)
}

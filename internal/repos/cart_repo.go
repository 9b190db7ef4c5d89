package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"bazaar/internal/domain"
)

type CartRepo struct{ db sqlx.ExtContext }

func NewCartRepo(db sqlx.ExtContext) *CartRepo { return &CartRepo{db: db} }

const cartLineCols = `id, user_id, item_id, quantity, created_at, updated_at`

// Upsert adds qty to the user's line for itemID, creating the line if needed.
// The increment happens in a single statement so concurrent adds never lose
// an update.
func (r *CartRepo) Upsert(ctx context.Context, userID, itemID string, qty int) (domain.CartLine, error) {
	now := time.Now().UTC()
	var line domain.CartLine
	err := sqlx.GetContext(ctx, r.db, &line, `
		INSERT INTO cart_lines(id, user_id, item_id, quantity, created_at, updated_at)
		VALUES(?,?,?,?,?,?)
		ON CONFLICT(user_id, item_id) DO UPDATE SET
		  quantity   = cart_lines.quantity + excluded.quantity,
		  updated_at = excluded.updated_at
		RETURNING `+cartLineCols,
		uuid.NewString(), userID, itemID, qty, now, now)
	if err != nil {
		return domain.CartLine{}, domain.Storage("cart.upsert", err)
	}
	return line, nil
}

func (r *CartRepo) Line(ctx context.Context, lineID string) (domain.CartLine, error) {
	var line domain.CartLine
	if err := sqlx.GetContext(ctx, r.db, &line, `SELECT `+cartLineCols+` FROM cart_lines WHERE id=?`, lineID); err != nil {
		return domain.CartLine{}, lookupErr("cart.line", err)
	}
	return line, nil
}

// Lines returns the user's cart lines in the order they were first added.
func (r *CartRepo) Lines(ctx context.Context, userID string) ([]domain.CartLine, error) {
	var out []domain.CartLine
	err := sqlx.SelectContext(ctx, r.db, &out, `
		SELECT `+cartLineCols+`
		FROM cart_lines
		WHERE user_id = ?
		ORDER BY created_at, rowid`, userID)
	return out, domain.Storage("cart.lines", err)
}

// View joins the cart with current item data. Lines whose item has been
// removed are kept and flagged unavailable; they add nothing to the total.
func (r *CartRepo) View(ctx context.Context, userID string) (domain.CartView, error) {
	var rows []domain.CartLineView
	err := sqlx.SelectContext(ctx, r.db, &rows, `
		SELECT cl.id AS line_id, cl.item_id, cl.quantity,
		       COALESCE(i.name, '')  AS name,
		       COALESCE(i.price, '0') AS unit_price,
		       (i.id IS NOT NULL)     AS available
		FROM cart_lines cl
		LEFT JOIN items i ON i.id = cl.item_id
		WHERE cl.user_id = ?
		ORDER BY cl.created_at, cl.rowid`, userID)
	if err != nil {
		return domain.CartView{}, domain.Storage("cart.view", err)
	}
	total := decimal.Zero
	for _, l := range rows {
		if l.Available {
			total = total.Add(l.Subtotal())
		}
	}
	return domain.CartView{Lines: rows, Total: total}, nil
}

// Delete removes a line only if userID owns it.
func (r *CartRepo) Delete(ctx context.Context, userID, lineID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cart_lines WHERE id=? AND user_id=?`, lineID, userID)
	if err != nil {
		return domain.Storage("cart.delete", err)
	}
	return affectedOne("cart.delete", res)
}

func (r *CartRepo) Clear(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM cart_lines WHERE user_id=?`, userID)
	return domain.Storage("cart.clear", err)
}

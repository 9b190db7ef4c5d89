package repos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"bazaar/internal/domain"
)

type FavoriteRepo struct{ db sqlx.ExtContext }

func NewFavoriteRepo(db sqlx.ExtContext) *FavoriteRepo { return &FavoriteRepo{db: db} }

func (r *FavoriteRepo) Add(ctx context.Context, userID, itemID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO favorites(user_id, item_id, created_at)
		VALUES(?,?,?)
		ON CONFLICT(user_id, item_id) DO NOTHING`, userID, itemID, time.Now().UTC())
	return domain.Storage("favorite.add", err)
}

func (r *FavoriteRepo) Remove(ctx context.Context, userID, itemID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM favorites WHERE user_id=? AND item_id=?`, userID, itemID)
	return domain.Storage("favorite.remove", err)
}

// RemoveItem drops an item from every user's favorites.
func (r *FavoriteRepo) RemoveItem(ctx context.Context, itemID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM favorites WHERE item_id=?`, itemID)
	return domain.Storage("favorite.remove_item", err)
}

func (r *FavoriteRepo) List(ctx context.Context, userID string) ([]domain.FavoriteItem, error) {
	var out []domain.FavoriteItem
	err := sqlx.SelectContext(ctx, r.db, &out, `
		SELECT f.item_id,
		       COALESCE(i.name, '')   AS name,
		       COALESCE(i.price, '0') AS price,
		       (i.id IS NOT NULL)     AS available
		FROM favorites f
		LEFT JOIN items i ON i.id = f.item_id
		WHERE f.user_id = ?
		ORDER BY f.created_at DESC, f.rowid DESC`, userID)
	return out, domain.Storage("favorite.list", err)
}

func (r *FavoriteRepo) Has(ctx context.Context, userID, itemID string) (bool, error) {
	var n int
	err := sqlx.GetContext(ctx, r.db, &n, `SELECT COUNT(*) FROM favorites WHERE user_id=? AND item_id=?`, userID, itemID)
	return n > 0, domain.Storage("favorite.has", err)
}

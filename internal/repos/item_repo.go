package repos

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"bazaar/internal/domain"
)

type ItemRepo struct{ db sqlx.ExtContext }

func NewItemRepo(db sqlx.ExtContext) *ItemRepo { return &ItemRepo{db: db} }

const itemCols = `
    id, COALESCE(category_id,'') AS category_id, name, description, price,
    COALESCE(image_ref,'') AS image_ref, created_at, updated_at`

// List returns items in a stable order. An empty categoryID lists everything.
func (r *ItemRepo) List(ctx context.Context, categoryID string) ([]domain.Item, error) {
	where, args := ``, []any{}
	if categoryID != "" {
		where, args = `WHERE category_id = ?`, append(args, categoryID)
	}
	var out []domain.Item
	err := sqlx.SelectContext(ctx, r.db, &out, `SELECT `+itemCols+` FROM items `+where+` ORDER BY LOWER(name), id`, args...)
	return out, domain.Storage("item.list", err)
}

func (r *ItemRepo) Get(ctx context.Context, id string) (domain.Item, error) {
	var it domain.Item
	if err := sqlx.GetContext(ctx, r.db, &it, `SELECT `+itemCols+` FROM items WHERE id = ?`, id); err != nil {
		return domain.Item{}, lookupErr("item.get", err)
	}
	return it, nil
}

// GetMany returns the items that still exist, keyed by id.
func (r *ItemRepo) GetMany(ctx context.Context, ids []string) (map[string]domain.Item, error) {
	out := make(map[string]domain.Item, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query, args, err := sqlx.In(`SELECT `+itemCols+` FROM items WHERE id IN (?)`, ids)
	if err != nil {
		return nil, domain.Storage("item.get_many", err)
	}
	var rows []domain.Item
	if err := sqlx.SelectContext(ctx, r.db, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, domain.Storage("item.get_many", err)
	}
	for _, it := range rows {
		out[it.ID] = it
	}
	return out, nil
}

func (r *ItemRepo) Search(ctx context.Context, q, categoryID string, limit int) ([]domain.Item, error) {
	where := `1 = 1`
	args := []any{}
	if q != "" {
		like := "%" + strings.ToLower(q) + "%"
		where += ` AND (LOWER(name) LIKE ? OR LOWER(description) LIKE ?)`
		args = append(args, like, like)
	}
	if categoryID != "" {
		where += ` AND category_id = ?`
		args = append(args, categoryID)
	}
	args = append(args, limit)

	var out []domain.Item
	err := sqlx.SelectContext(ctx, r.db, &out, `
		SELECT `+itemCols+`
		FROM items
		WHERE `+where+`
		ORDER BY LOWER(name), id
		LIMIT ?`, args...)
	return out, domain.Storage("item.search", err)
}

// Upsert creates the item or replaces its mutable fields. A price change
// only affects future checkouts.
func (r *ItemRepo) Upsert(ctx context.Context, it *domain.Item) error {
	now := time.Now().UTC()
	if it.CreatedAt.IsZero() {
		it.CreatedAt = now
	}
	it.UpdatedAt = now
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO items(id, category_id, name, description, price, image_ref, created_at, updated_at)
		VALUES(?, NULLIF(?,''), ?, ?, ?, NULLIF(?,''), ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		  category_id = excluded.category_id,
		  name        = excluded.name,
		  description = excluded.description,
		  price       = excluded.price,
		  image_ref   = excluded.image_ref,
		  updated_at  = excluded.updated_at`,
		it.ID, it.CategoryID, it.Name, it.Description, it.Price.String(), it.ImageRef, it.CreatedAt, it.UpdatedAt)
	return domain.Storage("item.upsert", err)
}

// Delete removes only the item row. Cart lines and purchases refer to items
// by id and are left alone.
func (r *ItemRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return domain.Storage("item.delete", err)
	}
	return affectedOne("item.delete", res)
}

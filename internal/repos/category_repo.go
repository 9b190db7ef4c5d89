package repos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"bazaar/internal/domain"
)

type CategoryRepo struct{ db sqlx.ExtContext }

func NewCategoryRepo(db sqlx.ExtContext) *CategoryRepo { return &CategoryRepo{db: db} }

func (r *CategoryRepo) List(ctx context.Context) ([]domain.Category, error) {
	var out []domain.Category
	err := sqlx.SelectContext(ctx, r.db, &out, `
		SELECT id, name, created_at
		FROM categories
		ORDER BY LOWER(name)`)
	return out, domain.Storage("category.list", err)
}

func (r *CategoryRepo) Get(ctx context.Context, id string) (domain.Category, error) {
	var c domain.Category
	err := sqlx.GetContext(ctx, r.db, &c, `SELECT id, name, created_at FROM categories WHERE id=?`, id)
	if err != nil {
		return domain.Category{}, lookupErr("category.get", err)
	}
	return c, nil
}

func (r *CategoryRepo) Create(ctx context.Context, c *domain.Category) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO categories(id,name,created_at) VALUES(?,?,?)`, c.ID, c.Name, c.CreatedAt)
	if isUniqueViolation(err) {
		return domain.ErrDuplicateCategory
	}
	return domain.Storage("category.create", err)
}

func (r *CategoryRepo) Rename(ctx context.Context, id, name string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE categories SET name=? WHERE id=?`, name, id)
	if isUniqueViolation(err) {
		return domain.ErrDuplicateCategory
	}
	if err != nil {
		return domain.Storage("category.rename", err)
	}
	return affectedOne("category.rename", res)
}

// Delete removes the category and detaches its items.
func (r *CategoryRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE items SET category_id=NULL WHERE category_id=?`, id); err != nil {
		return domain.Storage("category.detach", err)
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id=?`, id)
	if err != nil {
		return domain.Storage("category.delete", err)
	}
	return affectedOne("category.delete", res)
}

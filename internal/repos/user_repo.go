package repos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"bazaar/internal/domain"
)

type UserRepo struct{ db sqlx.ExtContext }

func NewUserRepo(db sqlx.ExtContext) *UserRepo { return &UserRepo{db: db} }

const userCols = `id, username, password_hash, is_admin, created_at`

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users(id, username, password_hash, is_admin, created_at)
		VALUES(?,?,?,?,?)`, u.ID, u.Username, u.Hash, u.IsAdmin, u.CreatedAt)
	if isUniqueViolation(err) {
		return domain.ErrDuplicateUsername
	}
	return domain.Storage("user.create", err)
}

func (r *UserRepo) ByUsername(ctx context.Context, username string) (*domain.User, error) {
	var u domain.User
	err := sqlx.GetContext(ctx, r.db, &u, `SELECT `+userCols+` FROM users WHERE LOWER(username)=LOWER(?)`, username)
	if err != nil {
		return nil, lookupErr("user.by_username", err)
	}
	return &u, nil
}

func (r *UserRepo) ByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	err := sqlx.GetContext(ctx, r.db, &u, `SELECT `+userCols+` FROM users WHERE id=?`, id)
	if err != nil {
		return nil, lookupErr("user.by_id", err)
	}
	return &u, nil
}

// List returns all accounts, admins first.
func (r *UserRepo) List(ctx context.Context) ([]domain.User, error) {
	var out []domain.User
	err := sqlx.SelectContext(ctx, r.db, &out, `SELECT `+userCols+` FROM users ORDER BY is_admin DESC, LOWER(username)`)
	return out, domain.Storage("user.list", err)
}

func (r *UserRepo) BindSession(ctx context.Context, sid, userID string) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions(id, user_id, created_at, last_seen) VALUES(?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET user_id=excluded.user_id, last_seen=excluded.last_seen`,
		sid, userID, now, now)
	return domain.Storage("session.bind", err)
}

func (r *UserRepo) SessionUser(ctx context.Context, sid string) (*domain.User, error) {
	var u domain.User
	err := sqlx.GetContext(ctx, r.db, &u, `
		SELECT u.id, u.username, u.password_hash, u.is_admin, u.created_at
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.id = ?`, sid)
	if err != nil {
		return nil, lookupErr("session.user", err)
	}
	return &u, nil
}

func (r *UserRepo) UnbindSession(ctx context.Context, sid string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE sessions SET user_id=NULL, last_seen=? WHERE id=?`, time.Now().UTC(), sid)
	return domain.Storage("session.unbind", err)
}

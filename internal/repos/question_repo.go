package repos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"bazaar/internal/domain"
)

type QuestionRepo struct{ db sqlx.ExtContext }

func NewQuestionRepo(db sqlx.ExtContext) *QuestionRepo { return &QuestionRepo{db: db} }

const questionSelect = `
	SELECT q.id, q.item_id, COALESCE(i.name, '') AS item_name,
	       q.user_id, COALESCE(u.username, '') AS username,
	       q.body, COALESCE(q.answer, '') AS answer,
	       q.created_at, q.answered_at
	FROM questions q
	LEFT JOIN items i ON i.id = q.item_id
	LEFT JOIN users u ON u.id = q.user_id`

func (r *QuestionRepo) Create(ctx context.Context, q *domain.Question) error {
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO questions(id, item_id, user_id, body, created_at)
		VALUES(?,?,?,?,?)`, q.ID, q.ItemID, q.UserID, q.Body, q.CreatedAt)
	return domain.Storage("question.create", err)
}

func (r *QuestionRepo) ByItem(ctx context.Context, itemID string) ([]domain.Question, error) {
	var out []domain.Question
	err := sqlx.SelectContext(ctx, r.db, &out, questionSelect+`
		WHERE q.item_id = ?
		ORDER BY q.created_at, q.rowid`, itemID)
	return out, domain.Storage("question.by_item", err)
}

// Unanswered lists open questions, oldest first.
func (r *QuestionRepo) Unanswered(ctx context.Context) ([]domain.Question, error) {
	var out []domain.Question
	err := sqlx.SelectContext(ctx, r.db, &out, questionSelect+`
		WHERE q.answered_at IS NULL
		ORDER BY q.created_at, q.rowid`)
	return out, domain.Storage("question.unanswered", err)
}

func (r *QuestionRepo) Answer(ctx context.Context, id, answer string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE questions SET answer=?, answered_at=? WHERE id=?`, answer, time.Now().UTC(), id)
	if err != nil {
		return domain.Storage("question.answer", err)
	}
	return affectedOne("question.answer", res)
}

func (r *QuestionRepo) DeleteByItem(ctx context.Context, itemID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM questions WHERE item_id=?`, itemID)
	return domain.Storage("question.delete_by_item", err)
}

package services

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"bazaar/internal/domain"
	"bazaar/internal/repos"
)

const maxQuestionLen = 500

type QuestionService struct {
	Questions *repos.QuestionRepo
	Items     *repos.ItemRepo
}

func NewQuestionService(q *repos.QuestionRepo, items *repos.ItemRepo) *QuestionService {
	return &QuestionService{Questions: q, Items: items}
}

func (s *QuestionService) Ask(ctx context.Context, userID, itemID, body string) (domain.Question, error) {
	body = strings.TrimSpace(body)
	if body == "" || utf8.RuneCountInString(body) > maxQuestionLen {
		return domain.Question{}, domain.ErrInvalidInput
	}
	if _, err := s.Items.Get(ctx, itemID); err != nil {
		return domain.Question{}, err
	}
	q := domain.Question{ID: uuid.NewString(), ItemID: itemID, UserID: userID, Body: body}
	if err := s.Questions.Create(ctx, &q); err != nil {
		return domain.Question{}, err
	}
	return q, nil
}

func (s *QuestionService) Answer(ctx context.Context, questionID, answer string) error {
	answer = strings.TrimSpace(answer)
	if answer == "" || utf8.RuneCountInString(answer) > maxQuestionLen {
		return domain.ErrInvalidInput
	}
	return s.Questions.Answer(ctx, questionID, answer)
}

func (s *QuestionService) ListForItem(ctx context.Context, itemID string) ([]domain.Question, error) {
	return s.Questions.ByItem(ctx, itemID)
}

func (s *QuestionService) Unanswered(ctx context.Context) ([]domain.Question, error) {
	return s.Questions.Unanswered(ctx)
}

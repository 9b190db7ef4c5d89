package services

import (
	"context"

	"bazaar/internal/domain"
	"bazaar/internal/repos"
)

type CartService struct {
	Carts *repos.CartRepo
	Items *repos.ItemRepo
}

func NewCartService(carts *repos.CartRepo, items *repos.ItemRepo) *CartService {
	return &CartService{Carts: carts, Items: items}
}

// AddItem puts qty units of itemID in the user's cart, merging with an
// existing line for the same item.
func (s *CartService) AddItem(ctx context.Context, userID, itemID string, qty int) (domain.CartLine, error) {
	if qty < 1 {
		return domain.CartLine{}, domain.ErrInvalidQuantity
	}
	if _, err := s.Items.Get(ctx, itemID); err != nil {
		return domain.CartLine{}, err
	}
	return s.Carts.Upsert(ctx, userID, itemID, qty)
}

// RemoveLine deletes one of the user's own lines.
func (s *CartService) RemoveLine(ctx context.Context, userID, lineID string) error {
	line, err := s.Carts.Line(ctx, lineID)
	if err != nil {
		return err
	}
	if line.UserID != userID {
		return domain.ErrForbidden
	}
	return s.Carts.Delete(ctx, userID, lineID)
}

func (s *CartService) ListLines(ctx context.Context, userID string) (domain.CartView, error) {
	return s.Carts.View(ctx, userID)
}

func (s *CartService) Clear(ctx context.Context, userID string) error {
	return s.Carts.Clear(ctx, userID)
}

package services

import (
	"context"

	"bazaar/internal/domain"
	"bazaar/internal/repos"
)

type FavoriteService struct {
	Favs  *repos.FavoriteRepo
	Items *repos.ItemRepo
}

func NewFavoriteService(favs *repos.FavoriteRepo, items *repos.ItemRepo) *FavoriteService {
	return &FavoriteService{Favs: favs, Items: items}
}

// Add is idempotent.
func (s *FavoriteService) Add(ctx context.Context, userID, itemID string) error {
	if _, err := s.Items.Get(ctx, itemID); err != nil {
		return err
	}
	return s.Favs.Add(ctx, userID, itemID)
}

func (s *FavoriteService) Remove(ctx context.Context, userID, itemID string) error {
	return s.Favs.Remove(ctx, userID, itemID)
}

func (s *FavoriteService) List(ctx context.Context, userID string) ([]domain.FavoriteItem, error) {
	return s.Favs.List(ctx, userID)
}

func (s *FavoriteService) Has(ctx context.Context, userID, itemID string) (bool, error) {
	return s.Favs.Has(ctx, userID, itemID)
}

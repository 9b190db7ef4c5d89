package services

import (
	"context"

	"github.com/shopspring/decimal"

	"bazaar/internal/domain"
	"bazaar/internal/repos"
)

type PurchaseService struct {
	Purchases *repos.PurchaseRepo
}

func NewPurchaseService(p *repos.PurchaseRepo) *PurchaseService {
	return &PurchaseService{Purchases: p}
}

func (s *PurchaseService) History(ctx context.Context, userID string) ([]domain.PurchaseRecord, error) {
	return s.Purchases.ByUser(ctx, userID)
}

func (s *PurchaseService) Latest(ctx context.Context, limit int) ([]domain.PurchaseRecord, error) {
	return s.Purchases.Latest(ctx, limit)
}

func (s *PurchaseService) CheckoutCount(ctx context.Context) (int, error) {
	return s.Purchases.Count(ctx)
}

// Receipt rebuilds a past checkout from the ledger. Other users' checkouts
// are reported as not found.
func (s *PurchaseService) Receipt(ctx context.Context, userID, checkoutID string) (domain.Receipt, error) {
	recs, err := s.Purchases.ByCheckout(ctx, checkoutID)
	if err != nil {
		return domain.Receipt{}, err
	}
	if len(recs) == 0 || recs[0].UserID != userID {
		return domain.Receipt{}, domain.ErrNotFound
	}
	r := domain.Receipt{
		CheckoutID:  checkoutID,
		UserID:      userID,
		PurchasedAt: recs[0].PurchasedAt,
		Records:     recs,
		Total:       decimal.Zero,
	}
	for _, rec := range recs {
		r.Total = r.Total.Add(rec.CapturedValue)
	}
	return r, nil
}

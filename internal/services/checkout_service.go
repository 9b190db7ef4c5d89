package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"bazaar/internal/domain"
	"bazaar/internal/events"
	"bazaar/internal/repos"
)

// CheckoutService turns carts into ledger entries. Each call is one
// database transaction: either every record, the outbox event and the
// cart clear are committed, or none of them are.
type CheckoutService struct {
	DB  *sqlx.DB
	Now func() time.Time
}

func NewCheckoutService(db *sqlx.DB) *CheckoutService {
	return &CheckoutService{DB: db, Now: time.Now}
}

type wanted struct {
	itemID string
	qty    int
}

// Checkout purchases everything in the user's cart at current prices and
// empties the cart. On any error the cart and ledger are left as they were.
func (s *CheckoutService) Checkout(ctx context.Context, userID string) (domain.Receipt, error) {
	start := s.Now().UTC()
	var rcpt domain.Receipt
	err := repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		carts := repos.NewCartRepo(tx)
		lines, err := carts.Lines(ctx, userID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return domain.ErrEmptyCart
		}

		want := make([]wanted, 0, len(lines))
		for _, l := range lines {
			want = append(want, wanted{itemID: l.ItemID, qty: l.Quantity})
		}
		if rcpt, err = s.settle(ctx, tx, userID, start, want); err != nil {
			return err
		}
		return carts.Clear(ctx, userID)
	})
	if err != nil {
		return domain.Receipt{}, err
	}
	return rcpt, nil
}

// BuyNow purchases a single unit of one item without touching the cart.
func (s *CheckoutService) BuyNow(ctx context.Context, userID, itemID string) (domain.Receipt, error) {
	start := s.Now().UTC()
	var rcpt domain.Receipt
	err := repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		var err error
		rcpt, err = s.settle(ctx, tx, userID, start, []wanted{{itemID: itemID, qty: 1}})
		return err
	})
	if err != nil {
		return domain.Receipt{}, err
	}
	return rcpt, nil
}

// settle prices the wanted lines from one snapshot read inside tx and
// appends them to the ledger under a single checkout id stamped with start.
func (s *CheckoutService) settle(ctx context.Context, tx *sqlx.Tx, userID string, start time.Time, want []wanted) (domain.Receipt, error) {
	ids := make([]string, 0, len(want))
	for _, w := range want {
		ids = append(ids, w.itemID)
	}
	snapshot, err := repos.NewItemRepo(tx).GetMany(ctx, ids)
	if err != nil {
		return domain.Receipt{}, err
	}
	for _, w := range want {
		if _, ok := snapshot[w.itemID]; !ok {
			return domain.Receipt{}, &domain.ItemUnavailableError{ItemID: w.itemID}
		}
	}

	rcpt := domain.Receipt{
		CheckoutID:  uuid.NewString(),
		UserID:      userID,
		PurchasedAt: start,
		Total:       decimal.Zero,
	}
	ledger := repos.NewPurchaseRepo(tx)
	for _, w := range want {
		it := snapshot[w.itemID]
		rec := domain.PurchaseRecord{
			ID:            uuid.NewString(),
			CheckoutID:    rcpt.CheckoutID,
			UserID:        userID,
			ItemID:        it.ID,
			ItemName:      it.Name,
			Quantity:      w.qty,
			UnitPrice:     it.Price,
			CapturedValue: it.Price.Mul(decimal.NewFromInt(int64(w.qty))),
			PurchasedAt:   rcpt.PurchasedAt,
		}
		if err := ledger.Insert(ctx, rec); err != nil {
			return domain.Receipt{}, err
		}
		rcpt.Records = append(rcpt.Records, rec)
		rcpt.Total = rcpt.Total.Add(rec.CapturedValue)
	}

	ev, err := events.PurchaseCompleted(rcpt)
	if err != nil {
		return domain.Receipt{}, err
	}
	if err := repos.NewOutboxRepo(tx).Insert(ctx, ev); err != nil {
		return domain.Receipt{}, err
	}
	return rcpt, nil
}

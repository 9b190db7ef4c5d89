package domain

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
}

// Item is a sellable catalog entry (an ad). Price is a per-unit price and may
// change at any time; purchases keep their own copy.
type Item struct {
	ID          string          `db:"id"`
	CategoryID  string          `db:"category_id"`
	Name        string          `db:"name"`
	Description string          `db:"description"`
	Price       decimal.Decimal `db:"price"`
	ImageRef    string          `db:"image_ref"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

type CartLine struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	ItemID    string    `db:"item_id"`
	Quantity  int       `db:"quantity"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// CartLineView joins a cart line with the item's current name and price.
// It is for display only; checkout re-reads prices itself.
type CartLineView struct {
	LineID    string          `db:"line_id"`
	ItemID    string          `db:"item_id"`
	Name      string          `db:"name"`
	UnitPrice decimal.Decimal `db:"unit_price"`
	Quantity  int             `db:"quantity"`
	Available bool            `db:"available"`
}

func (v CartLineView) Subtotal() decimal.Decimal {
	return v.UnitPrice.Mul(decimal.NewFromInt(int64(v.Quantity)))
}

type CartView struct {
	Lines []CartLineView
	Total decimal.Decimal
}

// PurchaseRecord is an immutable ledger entry. CapturedValue is
// UnitPrice * Quantity as of PurchasedAt and is never recomputed.
type PurchaseRecord struct {
	ID            string          `db:"id"`
	CheckoutID    string          `db:"checkout_id"`
	UserID        string          `db:"user_id"`
	ItemID        string          `db:"item_id"`
	ItemName      string          `db:"item_name"`
	Quantity      int             `db:"quantity"`
	UnitPrice     decimal.Decimal `db:"unit_price"`
	CapturedValue decimal.Decimal `db:"captured_value"`
	PurchasedAt   time.Time       `db:"purchased_at"`
}

type Receipt struct {
	CheckoutID  string
	UserID      string
	PurchasedAt time.Time
	Records     []PurchaseRecord
	Total       decimal.Decimal
}

type FavoriteItem struct {
	ItemID    string          `db:"item_id"`
	Name      string          `db:"name"`
	Price     decimal.Decimal `db:"price"`
	Available bool            `db:"available"`
}

type Question struct {
	ID         string       `db:"id"`
	ItemID     string       `db:"item_id"`
	ItemName   string       `db:"item_name"`
	UserID     string       `db:"user_id"`
	Username   string       `db:"username"`
	Body       string       `db:"body"`
	Answer     string       `db:"answer"`
	CreatedAt  time.Time    `db:"created_at"`
	AnsweredAt sql.NullTime `db:"answered_at"`
}

func (q Question) Answered() bool { return q.AnsweredAt.Valid }

type OutboxEvent struct {
	ID          string    `db:"id"`
	EventType   string    `db:"event_type"`
	AggregateID string    `db:"aggregate_id"`
	Payload     []byte    `db:"payload"`
	CreatedAt   time.Time `db:"created_at"`
}

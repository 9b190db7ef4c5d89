package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bazaar/internal/domain"
)

const EventPurchaseCompleted = "purchase.completed"

// Envelope is the message body published to the broker.
type Envelope struct {
	EventID      string          `json:"event_id"`
	EventType    string          `json:"event_type"`
	EventVersion int             `json:"event_version"`
	OccurredAt   time.Time       `json:"occurred_at"`
	Producer     string          `json:"producer"`
	Payload      json.RawMessage `json:"payload"`
}

type PurchaseLine struct {
	ItemID        string          `json:"item_id"`
	ItemName      string          `json:"item_name"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	CapturedValue decimal.Decimal `json:"captured_value"`
}

type PurchaseCompletedPayload struct {
	CheckoutID  string          `json:"checkout_id"`
	UserID      string          `json:"user_id"`
	PurchasedAt time.Time       `json:"purchased_at"`
	Lines       []PurchaseLine  `json:"lines"`
	Total       decimal.Decimal `json:"total"`
}

// PurchaseCompleted builds the outbox row for a finished checkout. It is
// written in the checkout transaction, so the event exists iff the
// purchase records do.
func PurchaseCompleted(r domain.Receipt) (domain.OutboxEvent, error) {
	p := PurchaseCompletedPayload{
		CheckoutID:  r.CheckoutID,
		UserID:      r.UserID,
		PurchasedAt: r.PurchasedAt,
		Total:       r.Total,
	}
	for _, rec := range r.Records {
		p.Lines = append(p.Lines, PurchaseLine{
			ItemID:        rec.ItemID,
			ItemName:      rec.ItemName,
			Quantity:      rec.Quantity,
			UnitPrice:     rec.UnitPrice,
			CapturedValue: rec.CapturedValue,
		})
	}
	payload, err := json.Marshal(p)
	if err != nil {
		return domain.OutboxEvent{}, err
	}

	id := uuid.NewString()
	env, err := json.Marshal(Envelope{
		EventID:      id,
		EventType:    EventPurchaseCompleted,
		EventVersion: 1,
		OccurredAt:   r.PurchasedAt,
		Producer:     "bazaar",
		Payload:      payload,
	})
	if err != nil {
		return domain.OutboxEvent{}, err
	}
	return domain.OutboxEvent{
		ID:          id,
		EventType:   EventPurchaseCompleted,
		AggregateID: r.CheckoutID,
		Payload:     env,
		CreatedAt:   r.PurchasedAt,
	}, nil
}

package cache

import (
	"context"
	"errors"

	"bazaar/internal/domain"
)

// ItemCache holds catalog items for the item detail page. Entries are
// dropped whenever the item is edited or deleted.
type ItemCache interface {
	Get(ctx context.Context, itemID string) (*domain.Item, error)
	Set(ctx context.Context, item *domain.Item) error
	Delete(ctx context.Context, itemID string) error
}

var ErrCacheMiss = errors.New("cache miss")

// Nop is used when no Redis address is configured. Every Get misses.
type Nop struct{}

func (Nop) Get(context.Context, string) (*domain.Item, error) { return nil, ErrCacheMiss }
func (Nop) Set(context.Context, *domain.Item) error           { return nil }
func (Nop) Delete(context.Context, string) error              { return nil }

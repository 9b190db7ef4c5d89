package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidQuantity    = errors.New("quantity must be a positive integer")
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrItemUnavailable    = errors.New("item is no longer available")
	ErrDuplicateUsername  = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrDuplicateCategory  = errors.New("category already exists")
	ErrInvalidInput       = errors.New("invalid input")
	ErrStorage            = errors.New("storage failure")
)

// ItemUnavailableError names the catalog item that vanished between
// add-to-cart and checkout.
type ItemUnavailableError struct {
	ItemID string
}

func (e *ItemUnavailableError) Error() string {
	return fmt.Sprintf("item %s is no longer available", e.ItemID)
}

func (e *ItemUnavailableError) Is(target error) bool { return target == ErrItemUnavailable }

// Storage wraps a store failure so callers can match it with ErrStorage
// while keeping the driver error in the chain.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}

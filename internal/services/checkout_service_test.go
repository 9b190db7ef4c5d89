package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bazaar/internal/domain"
	"bazaar/internal/repos"
	"bazaar/internal/services"
)

func TestCheckout_EmptyCart(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()

	_, err := e.checkout.Checkout(ctx, "u1")
	assert.ErrorIs(t, err, domain.ErrEmptyCart)

	hist, err := e.purchases.History(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, hist)

	pending, err := repos.NewOutboxRepo(e.db).Pending(ctx)
	require.NoError(t, err)
	assert.Zero(t, pending)
}

func TestCheckout_CapturesValuesAndClearsCart(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	a := e.item(t, "A", "10")
	b := e.item(t, "B", "5")

	_, err := e.cart.AddItem(ctx, "u1", a.ID, 2)
	require.NoError(t, err)
	_, err = e.cart.AddItem(ctx, "u1", b.ID, 1)
	require.NoError(t, err)

	r, err := e.checkout.Checkout(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, r.Records, 2)
	assert.Equal(t, a.ID, r.Records[0].ItemID)
	assert.True(t, r.Records[0].CapturedValue.Equal(decimal.NewFromInt(20)))
	assert.True(t, r.Records[1].CapturedValue.Equal(decimal.NewFromInt(5)))
	assert.True(t, r.Total.Equal(decimal.NewFromInt(25)))
	assert.Equal(t, r.Records[0].PurchasedAt, r.Records[1].PurchasedAt)
	assert.Equal(t, r.CheckoutID, r.Records[1].CheckoutID)

	v, err := e.cart.ListLines(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, v.Lines)

	hist, err := e.purchases.History(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, hist, 2)

	pending, err := repos.NewOutboxRepo(e.db).Pending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, pending)
}

func TestCheckout_LaterPriceEditDoesNotTouchHistory(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	a := e.item(t, "A", "10")

	_, err := e.cart.AddItem(ctx, "u1", a.ID, 2)
	require.NoError(t, err)
	_, err = e.checkout.Checkout(ctx, "u1")
	require.NoError(t, err)

	_, err = e.catalog.UpsertItem(ctx, services.ItemInput{ID: a.ID, Name: "A", Price: decimal.NewFromInt(99)})
	require.NoError(t, err)

	hist, err := e.purchases.History(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.True(t, hist[0].UnitPrice.Equal(decimal.NewFromInt(10)))
	assert.True(t, hist[0].CapturedValue.Equal(decimal.NewFromInt(20)))
}

func TestCheckout_DeletedItemAbortsWholeCheckout(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	a := e.item(t, "A", "10")
	b := e.item(t, "B", "5")

	_, err := e.cart.AddItem(ctx, "u1", a.ID, 2)
	require.NoError(t, err)
	_, err = e.cart.AddItem(ctx, "u1", b.ID, 1)
	require.NoError(t, err)
	require.NoError(t, e.catalog.DeleteItem(ctx, b.ID))

	_, err = e.checkout.Checkout(ctx, "u1")
	require.ErrorIs(t, err, domain.ErrItemUnavailable)
	var unavailable *domain.ItemUnavailableError
	require.True(t, errors.As(err, &unavailable))
	assert.Equal(t, b.ID, unavailable.ItemID)

	v, err := e.cart.ListLines(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, v.Lines, 2)
	assert.True(t, v.Lines[0].Available)
	assert.False(t, v.Lines[1].Available)

	hist, err := e.purchases.History(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, hist)
}

func TestCheckout_HistorySurvivesItemDeletion(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	a := e.item(t, "A", "7.25")

	_, err := e.cart.AddItem(ctx, "u1", a.ID, 2)
	require.NoError(t, err)
	r, err := e.checkout.Checkout(ctx, "u1")
	require.NoError(t, err)
	require.NoError(t, e.catalog.DeleteItem(ctx, a.ID))

	got, err := e.purchases.Receipt(ctx, "u1", r.CheckoutID)
	require.NoError(t, err)
	require.Len(t, got.Records, 1)
	assert.Equal(t, "A", got.Records[0].ItemName)
	assert.Equal(t, "14.50", got.Total.StringFixed(2))

	_, err = e.purchases.Receipt(ctx, "someone-else", r.CheckoutID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBuyNow_SingleUnitLeavesCartAlone(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	a := e.item(t, "A", "10")
	b := e.item(t, "B", "3.50")

	_, err := e.cart.AddItem(ctx, "u1", a.ID, 4)
	require.NoError(t, err)

	r, err := e.checkout.BuyNow(ctx, "u1", b.ID)
	require.NoError(t, err)
	require.Len(t, r.Records, 1)
	assert.Equal(t, 1, r.Records[0].Quantity)
	assert.True(t, r.Total.Equal(decimal.RequireFromString("3.5")))

	v, err := e.cart.ListLines(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, v.Lines, 1)
	assert.Equal(t, 4, v.Lines[0].Quantity)

	_, err = e.checkout.BuyNow(ctx, "u1", "gone")
	assert.ErrorIs(t, err, domain.ErrItemUnavailable)
}

func TestCheckout_ConcurrentAddIsBeforeOrAfter(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	a := e.item(t, "A", "1")

	_, err := e.cart.AddItem(ctx, "u1", a.ID, 1)
	require.NoError(t, err)

	var wg sync.WaitGroup
	var rcpt domain.Receipt
	var coErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		rcpt, coErr = e.checkout.Checkout(ctx, "u1")
	}()
	go func() {
		defer wg.Done()
		_, err := e.cart.AddItem(ctx, "u1", a.ID, 1)
		assert.NoError(t, err)
	}()
	wg.Wait()
	require.NoError(t, coErr)

	v, err := e.cart.ListLines(ctx, "u1")
	require.NoError(t, err)
	bought := rcpt.Records[0].Quantity
	left := 0
	if len(v.Lines) == 1 {
		left = v.Lines[0].Quantity
	}
	assert.Equal(t, 2, bought+left)
}

func TestCheckout_StampsStartTime(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	a := e.item(t, "A", "2")

	t0 := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	calls := 0
	e.checkout.Now = func() time.Time {
		calls++
		return t0.Add(time.Duration(calls-1) * time.Hour)
	}

	_, err := e.cart.AddItem(ctx, "u1", a.ID, 1)
	require.NoError(t, err)
	r, err := e.checkout.Checkout(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	require.Len(t, r.Records, 1)
	assert.True(t, r.Records[0].PurchasedAt.Equal(t0))

	r, err = e.checkout.BuyNow(ctx, "u1", a.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.True(t, r.Records[0].PurchasedAt.Equal(t0.Add(time.Hour)))
}

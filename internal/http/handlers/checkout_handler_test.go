package handlers_test

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bazaar/internal/repos"
)

func TestCartCheckoutReceiptFlow(t *testing.T) {
	h := newHarness(t)
	alice := h.user("alice", false)

	resp := h.post("/cart", url.Values{"item_id": {"itm-headphones"}, "qty": {"2"}}, alice)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/cart", resp.Header.Get("Location"))
	h.post("/cart", url.Values{"item_id": {"itm-lamp"}}, alice)

	page := body(t, h.get("/cart", alice))
	assert.Contains(t, page, "Wireless Headphones")
	assert.Contains(t, page, "$179.80")
	assert.Contains(t, page, "$199.79")

	resp = h.post("/checkout", nil, alice)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	receiptURL := resp.Header.Get("Location")
	require.True(t, strings.HasPrefix(receiptURL, "/receipt/"), receiptURL)

	page = body(t, h.get(receiptURL, alice, flashOf(resp)))
	assert.Contains(t, page, "Thank you! Your order is complete.")
	assert.Contains(t, page, "Desk Lamp")
	assert.Contains(t, page, "$199.79")

	assert.Contains(t, body(t, h.get("/cart", alice)), "Your cart is empty.")
	assert.Contains(t, body(t, h.get("/purchases", alice)), "Wireless Headphones")

	done := h.logs.FilterMessage("checkout.complete").All()
	require.Len(t, done, 1)
	fields := done[0].ContextMap()["fields"].(map[string]any)
	assert.Equal(t, "199.79", fields["total"])
	assert.Equal(t, true, fields["audit"])

	// another customer cannot read the receipt
	bob := h.user("bob", false)
	assert.Equal(t, http.StatusNotFound, h.get(receiptURL, bob).StatusCode)
	assert.Len(t, h.logs.FilterMessage("access.denied.receipt").All(), 1)
}

func TestCheckoutEmptyCartIsReported(t *testing.T) {
	h := newHarness(t)
	sid := h.user("alice", false)

	resp := h.post("/checkout", nil, sid)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/cart", resp.Header.Get("Location"))

	page := body(t, h.get("/cart", sid, flashOf(resp)))
	assert.Contains(t, page, `<div class="flash error">Your cart is empty.</div>`)
	assert.Empty(t, h.logs.FilterMessage("checkout.complete").All())
}

func TestCheckoutWithVanishedItemLeavesCart(t *testing.T) {
	h := newHarness(t)
	sid := h.user("alice", false)
	h.post("/cart", url.Values{"item_id": {"itm-keyboard"}, "qty": {"1"}}, sid)
	h.post("/cart", url.Values{"item_id": {"itm-lamp"}, "qty": {"3"}}, sid)

	require.NoError(t, h.deps.AdminHandler.Catalog.DeleteItem(t.Context(), "itm-keyboard"))

	resp := h.post("/checkout", nil, sid)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	page := body(t, h.get("/cart", sid, flashOf(resp)))
	assert.Contains(t, page, "no longer available")
	assert.Contains(t, page, "Desk Lamp")

	recs, err := repos.NewPurchaseRepo(h.db).ByUser(t.Context(), h.userID("alice"))
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestAddToCartValidatesInput(t *testing.T) {
	h := newHarness(t)
	sid := h.user("alice", false)

	resp := h.post("/cart", url.Values{"item_id": {"itm-lamp"}, "qty": {"0"}}, sid)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/item/itm-lamp", resp.Header.Get("Location"))

	resp = h.post("/cart", url.Values{"item_id": {"no-such-item"}, "qty": {"1"}}, sid)
	require.Equal(t, http.StatusFound, resp.StatusCode)

	resp = h.post("/cart", url.Values{"item_id": {"../etc"}}, sid)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	assert.Contains(t, body(t, h.get("/cart", sid)), "Your cart is empty.")
	assert.NotEmpty(t, h.logs.FilterMessage("validation.fail").All())
}

func TestCartRequiresLogin(t *testing.T) {
	h := newHarness(t)

	resp := h.post("/cart", url.Values{"item_id": {"itm-lamp"}, "qty": {"1"}})
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestRemoveLineOfAnotherUserIsForbidden(t *testing.T) {
	h := newHarness(t)
	alice := h.user("alice", false)
	mallory := h.user("mallory", false)
	h.post("/cart", url.Values{"item_id": {"itm-lamp"}, "qty": {"1"}}, alice)

	lines, err := repos.NewCartRepo(h.db).Lines(t.Context(), h.userID("alice"))
	require.NoError(t, err)
	require.Len(t, lines, 1)

	resp := h.post("/cart/"+lines[0].ID+"/delete", nil, mallory)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Contains(t, body(t, h.get("/cart", mallory, flashOf(resp))), "You cannot change that.")
	assert.Contains(t, body(t, h.get("/cart", alice)), "Desk Lamp")

	resp = h.post("/cart/"+lines[0].ID+"/delete", nil, alice)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Contains(t, body(t, h.get("/cart", alice)), "Your cart is empty.")
}

func TestBuyNowLeavesCartAlone(t *testing.T) {
	h := newHarness(t)
	sid := h.user("alice", false)
	h.post("/cart", url.Values{"item_id": {"itm-lamp"}, "qty": {"2"}}, sid)

	resp := h.post("/item/itm-gopl/buy", nil, sid)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	receiptURL := resp.Header.Get("Location")
	require.True(t, strings.HasPrefix(receiptURL, "/receipt/"))

	page := body(t, h.get(receiptURL, sid))
	assert.Contains(t, page, "The Go Programming Language")
	assert.Contains(t, page, "$25.00")
	assert.Contains(t, body(t, h.get("/cart", sid)), "Desk Lamp")

	assert.Equal(t, http.StatusNotFound, h.post("/item/gone/buy", nil, sid).StatusCode)
}

func TestFavoritesAndQuestions(t *testing.T) {
	h := newHarness(t)
	sid := h.user("alice", false)
	admin := h.user("root", true)

	resp := h.post("/favorites", url.Values{"item_id": {"itm-gopl"}}, sid)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Contains(t, body(t, h.get("/favorites", sid)), "The Go Programming Language")
	assert.Contains(t, body(t, h.get("/item/itm-gopl", sid)), "Remove from favorites")

	resp = h.post("/item/itm-gopl/questions", url.Values{"body": {"Is it signed?"}}, sid)
	require.Equal(t, http.StatusFound, resp.StatusCode)

	open, err := h.deps.AdminHandler.Questions.Unanswered(t.Context())
	require.NoError(t, err)
	require.Len(t, open, 1)

	resp = h.post("/admin/questions/"+open[0].ID+"/answer", url.Values{"answer": {"Yes, by both authors."}}, admin)
	require.Equal(t, http.StatusFound, resp.StatusCode)

	page := body(t, h.get("/item/itm-gopl"))
	assert.Contains(t, page, "Is it signed?")
	assert.Contains(t, page, "Yes, by both authors.")

	resp = h.post("/favorites/delete", url.Values{"item_id": {"itm-gopl"}}, sid)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.NotContains(t, body(t, h.get("/favorites", sid)), "The Go Programming Language")

	// empty questions are refused
	resp = h.post("/item/itm-gopl/questions", url.Values{"body": {"   "}}, sid)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Contains(t, body(t, h.get("/item/itm-gopl", sid, flashOf(resp))), "Please check the form")
}

package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"bazaar/internal/domain"
	applog "bazaar/internal/log"
	"bazaar/internal/services"
	"bazaar/internal/validate"
)

type CheckoutHandler struct {
	Checkout  *services.CheckoutService
	Purchases *services.PurchaseService
}

func (h *CheckoutHandler) Place(c *fiber.Ctx) error {
	u := currentUser(c)
	r, err := h.Checkout.Checkout(c.UserContext(), u.ID)
	if err != nil {
		var unavailable *domain.ItemUnavailableError
		if errors.As(err, &unavailable) {
			applog.Info(c, "checkout.item_unavailable", map[string]any{"item": unavailable.ItemID})
		}
		if errors.Is(err, domain.ErrStorage) {
			applog.Error(c, "checkout.fail", err, nil)
			flash(c, "Checkout failed. Nothing was charged and your cart is unchanged.", true)
			return c.Redirect("/cart")
		}
		return back(c, "/cart", "checkout", err, "")
	}
	applog.Audit(c, "checkout.complete", map[string]any{
		"checkout": r.CheckoutID,
		"lines":    len(r.Records),
		"total":    r.Total.String(),
	})
	flash(c, "Thank you! Your order is complete.", false)
	return c.Redirect("/receipt/" + r.CheckoutID)
}

// BuyNow purchases one unit of the item straight from its page.
func (h *CheckoutHandler) BuyNow(c *fiber.Ctx) error {
	u := currentUser(c)
	itemID, ok := validate.ID(c.Params("id"))
	if !ok {
		return notFound(c, "This item is no longer available")
	}
	r, err := h.Checkout.BuyNow(c.UserContext(), u.ID, itemID)
	if err != nil {
		if errors.Is(err, domain.ErrItemUnavailable) {
			return notFound(c, "This item is no longer available")
		}
		return back(c, "/item/"+itemID, "checkout.buy_now", err, "")
	}
	applog.Audit(c, "checkout.buy_now", map[string]any{"checkout": r.CheckoutID, "item": itemID, "total": r.Total.String()})
	flash(c, "Thank you! Your order is complete.", false)
	return c.Redirect("/receipt/" + r.CheckoutID)
}

func (h *CheckoutHandler) Receipt(c *fiber.Ctx) error {
	u := currentUser(c)
	id, ok := validate.ID(c.Params("checkout"))
	if !ok {
		return notFound(c, "Receipt not found")
	}
	r, err := h.Purchases.Receipt(c.UserContext(), u.ID, id)
	if errors.Is(err, domain.ErrNotFound) {
		applog.Security(c, "access.denied.receipt", map[string]any{"checkout": id})
		return notFound(c, "Receipt not found")
	}
	if err != nil {
		return err
	}
	return render(c, "receipt", fiber.Map{"Title": "Receipt", "Receipt": r})
}

// History lists the purchase records of the current user.
func (h *CheckoutHandler) History(c *fiber.Ctx) error {
	u := currentUser(c)
	recs, err := h.Purchases.History(c.UserContext(), u.ID)
	if err != nil {
		applog.Error(c, "purchases.history.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load purchases", "Title": "", "Q": "", "Err": ""})
	}
	return render(c, "purchases", fiber.Map{"Title": "Purchases", "Records": recs})
}

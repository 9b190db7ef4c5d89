package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "bazaar/internal/log"
	"bazaar/internal/services"
	"bazaar/internal/validate"
)

type CartHandler struct {
	Cart *services.CartService
}

func (h *CartHandler) View(c *fiber.Ctx) error {
	u := currentUser(c)
	cv, err := h.Cart.ListLines(c.UserContext(), u.ID)
	if err != nil {
		return err
	}
	return render(c, "cart", fiber.Map{"Title": "Cart", "Cart": cv})
}

func (h *CartHandler) Add(c *fiber.Ctx) error {
	u := currentUser(c)
	itemID, ok := validate.ID(c.FormValue("item_id"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "item_id"})
		return c.Status(fiber.StatusBadRequest).SendString("missing item_id")
	}
	qty, ok := validate.Qty(c.FormValue("qty", "1"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "qty"})
		flash(c, "Quantity must be between 1 and 99.", true)
		return c.Redirect("/item/" + itemID)
	}

	line, err := h.Cart.AddItem(c.UserContext(), u.ID, itemID, qty)
	if err != nil {
		return back(c, "/item/"+itemID, "cart.add", err, "")
	}
	applog.Audit(c, "cart.add", map[string]any{"item": itemID, "qty": qty, "line_qty": line.Quantity})
	return back(c, "/cart", "cart.add", nil, "Added to your cart.")
}

func (h *CartHandler) Remove(c *fiber.Ctx) error {
	u := currentUser(c)
	lineID, ok := validate.ID(c.Params("line"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).SendString("invalid line")
	}
	err := h.Cart.RemoveLine(c.UserContext(), u.ID, lineID)
	if err == nil {
		applog.Audit(c, "cart.remove", map[string]any{"line": lineID})
	}
	return back(c, "/cart", "cart.remove", err, "Removed from your cart.")
}

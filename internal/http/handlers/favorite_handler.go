package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "bazaar/internal/log"
	"bazaar/internal/services"
	"bazaar/internal/validate"
)

type FavoriteHandler struct {
	Favs *services.FavoriteService
}

func (h *FavoriteHandler) List(c *fiber.Ctx) error {
	items, err := h.Favs.List(c.UserContext(), currentUser(c).ID)
	if err != nil {
		applog.Error(c, "favorites.list.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load favorites", "Title": "", "Q": "", "Err": ""})
	}
	return render(c, "favorites", fiber.Map{"Title": "Favorites", "Items": items})
}

func (h *FavoriteHandler) Add(c *fiber.Ctx) error {
	id, ok := validate.ID(c.FormValue("item_id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).SendString("missing item_id")
	}
	err := h.Favs.Add(c.UserContext(), currentUser(c).ID, id)
	if err == nil {
		applog.Audit(c, "favorites.add", map[string]any{"item": id})
	}
	return back(c, "/item/"+id, "favorites.add", err, "Saved to favorites.")
}

func (h *FavoriteHandler) Remove(c *fiber.Ctx) error {
	id, ok := validate.ID(c.FormValue("item_id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).SendString("missing item_id")
	}
	err := h.Favs.Remove(c.UserContext(), currentUser(c).ID, id)
	if err == nil {
		applog.Audit(c, "favorites.remove", map[string]any{"item": id})
	}
	return back(c, "/favorites", "favorites.remove", err, "Removed from favorites.")
}

package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"bazaar/internal/domain"
	"bazaar/internal/log"
	"bazaar/internal/services"
	"bazaar/internal/validate"
)

type CatalogHandler struct {
	Catalog   *services.CatalogService
	Favs      *services.FavoriteService
	Questions *services.QuestionService
}

func (h *CatalogHandler) Home(c *fiber.Ctx) error {
	cats, err := h.Catalog.ListCategories(c.UserContext())
	if err != nil {
		return err
	}
	items, err := h.Catalog.ListItems(c.UserContext(), "")
	if err != nil {
		return err
	}
	return render(c, "home", fiber.Map{"Categories": cats, "Items": items})
}

func (h *CatalogHandler) Category(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return notFound(c, "Category not found")
	}
	cat, err := h.Catalog.GetCategory(c.UserContext(), id)
	if errors.Is(err, domain.ErrNotFound) {
		return notFound(c, "Category not found")
	}
	if err != nil {
		return err
	}
	items, err := h.Catalog.ListItems(c.UserContext(), id)
	if err != nil {
		return err
	}
	return render(c, "category", fiber.Map{"Title": cat.Name, "Category": cat, "Items": items})
}

func (h *CatalogHandler) Item(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "item"})
		return notFound(c, "This item is no longer available")
	}
	it, err := h.Catalog.GetItem(c.UserContext(), id)
	if errors.Is(err, domain.ErrNotFound) {
		return notFound(c, "This item is no longer available")
	}
	if err != nil {
		return err
	}
	qs, err := h.Questions.ListForItem(c.UserContext(), id)
	if err != nil {
		return err
	}
	fav := false
	if u := currentUser(c); u != nil {
		if fav, err = h.Favs.Has(c.UserContext(), u.ID, id); err != nil {
			return err
		}
	}
	return render(c, "item", fiber.Map{"Title": it.Name, "Item": it, "Questions": qs, "Favorite": fav})
}

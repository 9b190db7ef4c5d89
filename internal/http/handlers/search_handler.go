package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"bazaar/internal/log"
	"bazaar/internal/services"
	"bazaar/internal/validate"
)

type SearchHandler struct {
	Catalog *services.CatalogService
}

func (h *SearchHandler) Search(c *fiber.Ctx) error {
	cats, err := h.Catalog.ListCategories(c.UserContext())
	if err != nil {
		return err
	}
	data := fiber.Map{"Title": "Search", "Categories": cats, "CategoryID": "", "Items": nil, "Count": 0}

	rawQ := c.Query("q")
	category := strings.TrimSpace(c.Query("category"))
	if strings.TrimSpace(rawQ) == "" && category == "" {
		return render(c, "search", data)
	}
	q := ""
	if strings.TrimSpace(rawQ) != "" {
		var ok bool
		if q, ok = validate.Q(rawQ); !ok {
			log.Security(c, "validation.fail", map[string]any{"field": "q", "value": rawQ})
			data["Err"] = "Enter a valid keyword (letters and numbers only)"
			c.Status(fiber.StatusBadRequest)
			return render(c, "search", data)
		}
	}
	if category != "" {
		if _, ok := validate.ID(category); !ok {
			log.Security(c, "validation.fail", map[string]any{"field": "category"})
			data["Err"] = "Invalid category"
			c.Status(fiber.StatusBadRequest)
			return render(c, "search", data)
		}
	}

	items, err := h.Catalog.Search(c.UserContext(), q, category)
	if err != nil {
		log.Error(c, "search.error", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load results. Please retry.", "Title": "", "Q": "", "Err": ""})
	}
	data["Q"] = q
	data["CategoryID"] = category
	data["Items"] = items
	data["Count"] = len(items)
	return render(c, "search", data)
}

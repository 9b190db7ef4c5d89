package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"bazaar/internal/domain"
	applog "bazaar/internal/log"
	"bazaar/internal/media"
	"bazaar/internal/services"
	"bazaar/internal/validate"
)

type AdminHandler struct {
	Catalog   *services.CatalogService
	Purchases *services.PurchaseService
	Questions *services.QuestionService
	Auth      *services.AuthService
	Media     *media.Store
}

func adminFail(c *fiber.Ctx, action string, err error, msg string) error {
	applog.Error(c, action, err, nil)
	return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": msg, "Title": "", "Q": "", "Err": ""})
}

// GET /admin
func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	ctx := c.UserContext()
	items, err := h.Catalog.ListItems(ctx, "")
	if err != nil {
		return adminFail(c, "admin.dashboard.fail", err, "Could not load dashboard")
	}
	cats, err := h.Catalog.ListCategories(ctx)
	if err != nil {
		return adminFail(c, "admin.dashboard.fail", err, "Could not load dashboard")
	}
	checkouts, err := h.Purchases.CheckoutCount(ctx)
	if err != nil {
		return adminFail(c, "admin.dashboard.fail", err, "Could not load dashboard")
	}
	open, err := h.Questions.Unanswered(ctx)
	if err != nil {
		return adminFail(c, "admin.dashboard.fail", err, "Could not load dashboard")
	}
	return render(c, "admin_dashboard", fiber.Map{
		"Title":         "Admin",
		"ItemCount":     len(items),
		"CategoryCount": len(cats),
		"CheckoutCount": checkouts,
		"OpenQuestions": len(open),
	})
}

// GET /admin/items
func (h *AdminHandler) Items(c *fiber.Ctx) error {
	items, err := h.Catalog.ListItems(c.UserContext(), "")
	if err != nil {
		return adminFail(c, "admin.items.list.fail", err, "Could not load items")
	}
	return render(c, "admin_items", fiber.Map{"Title": "Items", "Items": items})
}

func (h *AdminHandler) itemForm(c *fiber.Ctx, it domain.Item, price string) error {
	cats, err := h.Catalog.ListCategories(c.UserContext())
	if err != nil {
		return adminFail(c, "admin.items.form.fail", err, "Could not load categories")
	}
	return render(c, "admin_item_form", fiber.Map{"Title": "Item", "Item": it, "Price": price, "Categories": cats})
}

// GET /admin/items/new
func (h *AdminHandler) NewItemForm(c *fiber.Ctx) error {
	return h.itemForm(c, domain.Item{}, "")
}

// GET /admin/items/:id/edit
func (h *AdminHandler) EditItemForm(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return notFound(c, "Item not found")
	}
	it, err := h.Catalog.GetItem(c.UserContext(), id)
	if errors.Is(err, domain.ErrNotFound) {
		return notFound(c, "Item not found")
	}
	if err != nil {
		return adminFail(c, "admin.items.edit.fail", err, "Could not load item")
	}
	return h.itemForm(c, it, it.Price.StringFixed(2))
}

// SaveItem handles POST /admin/items and POST /admin/items/:id.
func (h *AdminHandler) SaveItem(c *fiber.Ctx) error {
	id := ""
	if p := c.Params("id"); p != "" {
		var ok bool
		if id, ok = validate.ID(p); !ok {
			return notFound(c, "Item not found")
		}
	}
	draft := domain.Item{
		ID:          id,
		CategoryID:  strings.TrimSpace(c.FormValue("category_id")),
		Name:        c.FormValue("name"),
		Description: c.FormValue("description"),
	}
	rawPrice := c.FormValue("price")
	redo := func(msg string) error {
		c.Status(fiber.StatusBadRequest)
		cats, _ := h.Catalog.ListCategories(c.UserContext())
		return render(c, "admin_item_form", fiber.Map{"Title": "Item", "Item": draft, "Price": rawPrice, "Categories": cats, "Err": msg})
	}

	name, ok := validate.Name(draft.Name)
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "name"})
		return redo("Name is required (up to 80 characters).")
	}
	price, ok := validate.Price(rawPrice)
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "price", "value": rawPrice})
		return redo("Price must be a non-negative amount with at most two decimals.")
	}
	desc, ok := validate.Text(draft.Description, 2000, false)
	if !ok {
		return redo("Description is too long.")
	}

	var imageRef string
	if fh, err := c.FormFile("image"); err == nil && fh.Size > 0 {
		if imageRef, err = h.Media.Save(fh); err != nil {
			switch {
			case errors.Is(err, media.ErrTooLarge):
				return redo("Image is larger than 4 MB.")
			case errors.Is(err, media.ErrUnsupported):
				applog.Security(c, "upload.rejected", map[string]any{"filename": fh.Filename})
				return redo("Only JPEG, PNG, GIF and WebP images are accepted.")
			}
			return adminFail(c, "admin.items.upload.fail", err, "Could not store image")
		}
	}

	it, err := h.Catalog.UpsertItem(c.UserContext(), services.ItemInput{
		ID:          id,
		CategoryID:  draft.CategoryID,
		Name:        name,
		Description: desc,
		Price:       price,
		ImageRef:    imageRef,
	})
	if err != nil {
		if imageRef != "" {
			_ = h.Media.Delete(imageRef)
		}
		if errors.Is(err, domain.ErrInvalidInput) {
			return redo("Unknown category.")
		}
		return adminFail(c, "admin.items.save.fail", err, "Could not save item")
	}
	applog.Audit(c, "admin.items.save", map[string]any{"item": it.ID, "price": it.Price.String()})
	flash(c, "Saved "+it.Name+".", false)
	return c.Redirect("/admin/items")
}

// POST /admin/items/:id/delete
func (h *AdminHandler) DeleteItem(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).SendString("invalid id")
	}
	err := h.Catalog.DeleteItem(c.UserContext(), id)
	if err == nil {
		applog.Audit(c, "admin.items.delete", map[string]any{"item": id})
	}
	return back(c, "/admin/items", "admin.items.delete", err, "Item deleted.")
}

// GET /admin/categories
func (h *AdminHandler) Categories(c *fiber.Ctx) error {
	cats, err := h.Catalog.ListCategories(c.UserContext())
	if err != nil {
		return adminFail(c, "admin.categories.list.fail", err, "Could not load categories")
	}
	return render(c, "admin_categories", fiber.Map{"Title": "Categories", "Categories": cats})
}

func (h *AdminHandler) CreateCategory(c *fiber.Ctx) error {
	name, ok := validate.Name(c.FormValue("name"))
	if !ok {
		return back(c, "/admin/categories", "admin.categories.create", domain.ErrInvalidInput, "")
	}
	cat, err := h.Catalog.CreateCategory(c.UserContext(), name)
	if err == nil {
		applog.Audit(c, "admin.categories.create", map[string]any{"category": cat.ID, "name": cat.Name})
	}
	return back(c, "/admin/categories", "admin.categories.create", err, "Category created.")
}

func (h *AdminHandler) RenameCategory(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).SendString("invalid id")
	}
	name, ok := validate.Name(c.FormValue("name"))
	if !ok {
		return back(c, "/admin/categories", "admin.categories.rename", domain.ErrInvalidInput, "")
	}
	err := h.Catalog.RenameCategory(c.UserContext(), id, name)
	if err == nil {
		applog.Audit(c, "admin.categories.rename", map[string]any{"category": id, "name": name})
	}
	return back(c, "/admin/categories", "admin.categories.rename", err, "Category renamed.")
}

func (h *AdminHandler) DeleteCategory(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).SendString("invalid id")
	}
	err := h.Catalog.DeleteCategory(c.UserContext(), id)
	if err == nil {
		applog.Audit(c, "admin.categories.delete", map[string]any{"category": id})
	}
	return back(c, "/admin/categories", "admin.categories.delete", err, "Category deleted.")
}

// GET /admin/purchases
func (h *AdminHandler) PurchasesPage(c *fiber.Ctx) error {
	recs, err := h.Purchases.Latest(c.UserContext(), 100)
	if err != nil {
		return adminFail(c, "admin.purchases.list.fail", err, "Could not load purchases")
	}
	return render(c, "admin_purchases", fiber.Map{"Title": "Purchases", "Records": recs})
}

// GET /admin/questions
func (h *AdminHandler) QuestionsPage(c *fiber.Ctx) error {
	qs, err := h.Questions.Unanswered(c.UserContext())
	if err != nil {
		return adminFail(c, "admin.questions.list.fail", err, "Could not load questions")
	}
	return render(c, "admin_questions", fiber.Map{"Title": "Questions", "Questions": qs})
}

func (h *AdminHandler) AnswerQuestion(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).SendString("invalid id")
	}
	err := h.Questions.Answer(c.UserContext(), id, c.FormValue("answer"))
	if err == nil {
		applog.Audit(c, "admin.questions.answer", map[string]any{"question": id})
	}
	return back(c, "/admin/questions", "admin.questions.answer", err, "Answer posted.")
}

// UsersPage lists every account. Accounts are never deleted.
func (h *AdminHandler) UsersPage(c *fiber.Ctx) error {
	users, err := h.Auth.ListUsers(c.UserContext())
	if err != nil {
		return adminFail(c, "admin.users.list.fail", err, "Could not load users")
	}
	return render(c, "admin_users", fiber.Map{"Title": "Users", "Users": users})
}

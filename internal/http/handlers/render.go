package handlers

import (
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"bazaar/internal/domain"
	applog "bazaar/internal/log"
)

const flashCookie = "flash"

func render(c *fiber.Ctx, tmpl string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	for _, k := range []string{"Title", "Q", "Err"} {
		if _, ok := data[k]; !ok {
			data[k] = ""
		}
	}
	if u := currentUser(c); u != nil {
		data["User"] = u
	}
	// Pick up the token the CSRF middleware put into Locals
	tok, _ := c.Locals("CSRFToken").(string)
	if tok == "" {
		tok = c.Cookies("csrf_")
	}
	data["CSRFToken"] = tok

	msg, isErr := popFlash(c)
	data["Flash"] = msg
	data["FlashErr"] = isErr
	return c.Render(tmpl, data)
}

func notFound(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": msg, "Title": "", "Q": "", "Err": ""})
}

// currentUser returns the session user the middleware resolved, or nil.
func currentUser(c *fiber.Ctx) *domain.User {
	u, _ := c.Locals("user").(*domain.User)
	return u
}

// flash stores a one-shot status message shown on the next rendered page.
func flash(c *fiber.Ctx, msg string, isErr bool) {
	kind := "ok:"
	if isErr {
		kind = "err:"
	}
	c.Cookie(&fiber.Cookie{
		Name:     flashCookie,
		Value:    base64.RawURLEncoding.EncodeToString([]byte(kind + msg)),
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func popFlash(c *fiber.Ctx) (string, bool) {
	raw := c.Cookies(flashCookie)
	if raw == "" {
		return "", false
	}
	c.Cookie(&fiber.Cookie{Name: flashCookie, Value: "", Path: "/", Expires: time.Now().Add(-time.Hour)})
	b, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return "", false
	}
	if msg, ok := strings.CutPrefix(string(b), "err:"); ok {
		return msg, true
	}
	msg, _ := strings.CutPrefix(string(b), "ok:")
	return msg, false
}

// userMessage turns a service error into something safe to show. Storage
// and unknown failures are logged and reported generically.
func userMessage(c *fiber.Ctx, action string, err error) (int, string) {
	var unavailable *domain.ItemUnavailableError
	switch {
	case errors.As(err, &unavailable):
		return fiber.StatusConflict, "An item in your cart is no longer available. Remove it and try again."
	case errors.Is(err, domain.ErrEmptyCart):
		return fiber.StatusBadRequest, "Your cart is empty."
	case errors.Is(err, domain.ErrInvalidQuantity):
		return fiber.StatusBadRequest, "Quantity must be a whole number of at least 1."
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, "That no longer exists."
	case errors.Is(err, domain.ErrForbidden):
		applog.Security(c, action+".forbidden", nil)
		return fiber.StatusForbidden, "You cannot change that."
	case errors.Is(err, domain.ErrDuplicateUsername):
		return fiber.StatusConflict, "That username is taken."
	case errors.Is(err, domain.ErrDuplicateCategory):
		return fiber.StatusConflict, "A category with that name already exists."
	case errors.Is(err, domain.ErrInvalidCredentials):
		return fiber.StatusUnauthorized, "Invalid username or password"
	case errors.Is(err, domain.ErrInvalidInput):
		return fiber.StatusBadRequest, "Please check the form and try again."
	}
	applog.Error(c, action+".fail", err, nil)
	return fiber.StatusInternalServerError, "Something went wrong. Please try again."
}

// back redirects with a flash message describing err, or msg on success.
func back(c *fiber.Ctx, to, action string, err error, msg string) error {
	if err != nil {
		_, text := userMessage(c, action, err)
		flash(c, text, true)
		return c.Redirect(to)
	}
	if msg != "" {
		flash(c, msg, false)
	}
	return c.Redirect(to)
}

package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "bazaar/internal/log"
	"bazaar/internal/services"
)

// LoadSession resolves the sid cookie into the current user and stores it
// in Locals ("user", "user_id"). Anonymous requests pass through.
func LoadSession(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if sid := c.Cookies("sid"); sid != "" {
			if u, err := auth.CurrentUser(c.UserContext(), sid); err == nil && u != nil {
				c.Locals("user", u)
				c.Locals("user_id", u.ID)
			}
		}
		return c.Next()
	}
}

// RequireUser enforces that a user is logged in; otherwise redirect to login.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if currentUser(c) == nil {
			return c.Redirect("/login")
		}
		return c.Next()
	}
}

func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		u := currentUser(c)
		if u == nil {
			return c.Redirect("/login")
		}
		if !u.IsAdmin {
			applog.Security(c, "access.denied.admin", nil)
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Access denied", "Title": "", "Q": "", "Err": ""})
		}
		return c.Next()
	}
}

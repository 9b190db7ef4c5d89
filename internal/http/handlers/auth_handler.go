package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"bazaar/internal/log"
	"bazaar/internal/services"
	"bazaar/internal/validate"
)

type AuthHandler struct {
	Auth         *services.AuthService
	CookieSecure bool
}

func (h *AuthHandler) ensureSID(c *fiber.Ctx) string {
	sid := c.Cookies("sid")
	if sid == "" {
		sid = uuid.NewString()
		h.setSID(c, sid, time.Time{})
	}
	return sid
}

func (h *AuthHandler) setSID(c *fiber.Ctx, sid string, expires time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     "sid",
		Value:    sid,
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   h.CookieSecure,
		Expires:  expires,
	})
}

func (h *AuthHandler) LoginForm(c *fiber.Ctx) error {
	return render(c, "login", fiber.Map{"Title": "Log in"})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	username := c.FormValue("username")
	pass := c.FormValue("password")
	if _, ok := validate.Username(username); !ok || pass == "" {
		log.Security(c, "auth.login.fail", map[string]any{"username": username, "reason": "bad_format"})
		return c.Status(fiber.StatusUnauthorized).Render("login", h.loginErr(c))
	}

	// a fresh sid on every login so a pre-login cookie cannot be fixed
	sid := uuid.NewString()
	u, err := h.Auth.Login(c.UserContext(), sid, username, pass)
	if err != nil {
		status, _ := userMessage(c, "auth.login", err)
		log.Security(c, "auth.login.fail", map[string]any{"username": username})
		return c.Status(status).Render("login", h.loginErr(c))
	}
	h.setSID(c, sid, time.Time{})
	c.Locals("user_id", u.ID)
	log.Audit(c, "auth.login.success", map[string]any{"username": u.Username})
	return c.Redirect("/")
}

func (h *AuthHandler) loginErr(c *fiber.Ctx) fiber.Map {
	return fiber.Map{"Title": "Log in", "Q": "", "Err": "Invalid username or password", "CSRFToken": c.Cookies("csrf_")}
}

func (h *AuthHandler) RegisterForm(c *fiber.Ctx) error {
	return render(c, "register", fiber.Map{"Title": "Register", "Username": ""})
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	username, ok := validate.Username(c.FormValue("username"))
	pass := c.FormValue("password")
	fail := func(status int, msg string) error {
		return c.Status(status).Render("register", fiber.Map{
			"Title": "Register", "Q": "", "Err": msg, "Username": username, "CSRFToken": c.Cookies("csrf_"),
		})
	}
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "username"})
		return fail(fiber.StatusBadRequest, "Usernames are 3-32 letters, digits, dots, dashes or underscores.")
	}
	if !validate.Password(pass) {
		log.Security(c, "validation.fail", map[string]any{"field": "password"})
		return fail(fiber.StatusBadRequest, "Password does not meet the requirements.")
	}

	u, err := h.Auth.Register(c.UserContext(), username, pass, false)
	if err != nil {
		status, msg := userMessage(c, "auth.register", err)
		return fail(status, msg)
	}
	log.Audit(c, "auth.register", map[string]any{"username": u.Username, "user": u.ID})

	sid := uuid.NewString()
	if _, err := h.Auth.Login(c.UserContext(), sid, username, pass); err != nil {
		log.Error(c, "auth.register.login.fail", err, nil)
		return c.Redirect("/login")
	}
	h.setSID(c, sid, time.Time{})
	flash(c, "Welcome, "+u.Username+"!", false)
	return c.Redirect("/")
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	sid := h.ensureSID(c)
	if err := h.Auth.Logout(c.UserContext(), sid); err != nil {
		log.Error(c, "auth.logout.fail", err, nil)
	}
	h.setSID(c, "", time.Now().Add(-1*time.Hour))
	log.Audit(c, "auth.logout", nil)
	return c.Redirect("/")
}

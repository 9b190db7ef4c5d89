package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"

	"bazaar/internal/config"
	applog "bazaar/internal/log"
	"bazaar/internal/media"
	"bazaar/internal/web"
)

// NewApp builds the HTTP server: middleware, static assets and routes.
func NewApp(cfg config.Config, d *Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		Views:        web.Engine(),
		BodyLimit:    media.MaxImageBytes + 256<<10,
		ErrorHandler: errorHandler,
	})

	// ---------- Middlewares ----------
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		Output: zap.NewStdLog(applog.L().Named("access")).Writer(),
		Format: "${status} ${method} ${path} ${latency} ${locals:requestid}\n",
	}))
	app.Use(helmet.New())
	app.Use(LoadSession(d.Auth))
	app.Use(limiter.New(limiter.Config{
		Max:        cfg.RateLimit,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			p := c.Path()
			return strings.HasPrefix(p, "/static/") || strings.HasPrefix(p, "/media/")
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.global.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).SendString("Too many requests. Please slow down.")
		},
	}))
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "form:csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   cfg.CookieSecure,
		ContextKey:     "csrf",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", map[string]any{"reason": err.Error()})
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{
				"Message": "Security check failed. Please refresh and try again.", "Title": "", "Q": "", "Err": "",
			})
		},
	}))
	app.Use(func(c *fiber.Ctx) error {
		if tok, ok := c.Locals("csrf").(string); ok {
			c.Locals("CSRFToken", tok)
		}
		return c.Next()
	})

	// ---------- Static assets ----------
	app.Use("/static", filesystem.New(filesystem.Config{Root: web.Static(), MaxAge: 3600}))
	app.Get("/media/*", d.MediaHandler.Serve)

	// ---------- Catalog ----------
	app.Get("/", d.CatalogHandler.Home)
	app.Get("/search", d.SearchHandler.Search)
	app.Get("/category/:id", d.CatalogHandler.Category)
	app.Get("/item/:id", d.CatalogHandler.Item)

	// ---------- Auth (login throttled) ----------
	authH := d.AuthHandler
	app.Get("/login", authH.LoginForm)
	app.Post("/login", limiter.New(limiter.Config{
		Max:        10,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			c.Status(fiber.StatusTooManyRequests)
			return render(c, "login", fiber.Map{"Title": "Log in", "Err": "Too many attempts. Please try again later."})
		},
	}), authH.Login)
	app.Get("/register", authH.RegisterForm)
	app.Post("/register", authH.Register)
	app.Post("/logout", authH.Logout)

	// ---------- Signed-in customers ----------
	user := RequireUser()
	app.Get("/cart", user, d.CartHandler.View)
	app.Post("/cart", user, d.CartHandler.Add)
	app.Post("/cart/:line/delete", user, d.CartHandler.Remove)
	app.Post("/checkout", user, d.CheckoutHandler.Place)
	app.Post("/item/:id/buy", user, d.CheckoutHandler.BuyNow)
	app.Get("/receipt/:checkout", user, d.CheckoutHandler.Receipt)
	app.Get("/purchases", user, d.CheckoutHandler.History)
	app.Get("/favorites", user, d.FavoriteHandler.List)
	app.Post("/favorites", user, d.FavoriteHandler.Add)
	app.Post("/favorites/delete", user, d.FavoriteHandler.Remove)
	app.Post("/item/:id/questions", user, d.QuestionHandler.Ask)

	// ---------- Admin ----------
	adminH := d.AdminHandler
	admin := app.Group("/admin", RequireAdmin())
	admin.Get("/", adminH.Dashboard)
	admin.Get("/items", adminH.Items)
	admin.Get("/items/new", adminH.NewItemForm)
	admin.Post("/items", adminH.SaveItem)
	admin.Get("/items/:id/edit", adminH.EditItemForm)
	admin.Post("/items/:id", adminH.SaveItem)
	admin.Post("/items/:id/delete", adminH.DeleteItem)
	admin.Get("/categories", adminH.Categories)
	admin.Post("/categories", adminH.CreateCategory)
	admin.Post("/categories/:id", adminH.RenameCategory)
	admin.Post("/categories/:id/delete", adminH.DeleteCategory)
	admin.Get("/purchases", adminH.PurchasesPage)
	admin.Get("/questions", adminH.QuestionsPage)
	admin.Post("/questions/:id/answer", adminH.AnswerQuestion)
	admin.Get("/users", adminH.UsersPage)

	// ---------- Health & 404 ----------
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Use(func(c *fiber.Ctx) error {
		return notFound(c, "Page not found")
	})
	return app
}

// errorHandler logs the failure and shows a friendly page without internals.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "Something went wrong. Please try again."
	var fe *fiber.Error
	if errors.As(err, &fe) && fe.Code < fiber.StatusInternalServerError {
		code = fe.Code
		msg = fe.Message
	} else {
		applog.Error(c, "server.error", err, nil)
	}
	if rerr := c.Status(code).Render("notfound", fiber.Map{"Message": msg, "Title": "", "Q": "", "Err": ""}); rerr != nil {
		return c.Status(code).SendString(msg)
	}
	return nil
}

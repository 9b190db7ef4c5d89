package handlers

import (
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"

	applog "bazaar/internal/log"
	"bazaar/internal/media"
)

type MediaHandler struct {
	Store *media.Store
}

// Serve streams an uploaded image. Anything that could escape the media
// directory is answered with 404.
func (h *MediaHandler) Serve(c *fiber.Ctx) error {
	raw := c.Params("*")
	decoded, err := url.PathUnescape(raw)
	if err != nil || strings.ContainsAny(decoded, "/\\\x00") || strings.Contains(strings.ToLower(raw), "%2e") {
		applog.Security(c, "media.traversal.block", map[string]any{"path": raw})
		return c.SendStatus(fiber.StatusNotFound)
	}
	full, ok := h.Store.Path(decoded)
	if !ok {
		applog.Security(c, "media.traversal.block", map[string]any{"path": raw})
		return c.SendStatus(fiber.StatusNotFound)
	}
	c.Set(fiber.HeaderXContentTypeOptions, "nosniff")
	return c.SendFile(full, false)
}

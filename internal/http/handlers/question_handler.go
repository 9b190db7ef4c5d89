package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "bazaar/internal/log"
	"bazaar/internal/services"
	"bazaar/internal/validate"
)

type QuestionHandler struct {
	Questions *services.QuestionService
}

func (h *QuestionHandler) Ask(c *fiber.Ctx) error {
	itemID, ok := validate.ID(c.Params("id"))
	if !ok {
		return notFound(c, "This item is no longer available")
	}
	q, err := h.Questions.Ask(c.UserContext(), currentUser(c).ID, itemID, c.FormValue("body"))
	if err == nil {
		applog.Audit(c, "question.ask", map[string]any{"item": itemID, "question": q.ID})
	}
	return back(c, "/item/"+itemID, "question.ask", err, "Your question was posted.")
}

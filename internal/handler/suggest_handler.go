package handler

import (
	"strconv"

	"go-distribusi-ops/internal/service"

	"github.com/gofiber/fiber/v2"
)

type SuggestHandler struct {
	service service.SuggestService
}

func NewSuggestHandler(s service.SuggestService) *SuggestHandler {
	return &SuggestHandler{service: s}
}

// GetSuggestions maps free text to typed filter suggestions.
// GET /api/v1/search/suggestions?q=...&limit=10
func (h *SuggestHandler) GetSuggestions(c *fiber.Ctx) error {
	limit, err := strconv.Atoi(c.Query("limit", "10"))
	if err != nil || limit <= 0 {
		limit = 10
	}

	suggestions, err := h.service.Suggest(c.Context(), c.Query("q"), limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": suggestions})
}

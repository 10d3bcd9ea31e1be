package handler

import (
	"go-distribusi-ops/internal/service"

	"github.com/gofiber/fiber/v2"
)

type OptionsHandler struct {
	service service.OptionsService
}

func NewOptionsHandler(s service.OptionsService) *OptionsHandler {
	return &OptionsHandler{service: s}
}

// GetOptions enumerates distinct filter values with counts.
// GET /api/v1/filter-options/:entity/:field
func (h *OptionsHandler) GetOptions(c *fiber.Ctx) error {
	options, err := h.service.Options(c.Context(), c.Params("entity"), c.Params("field"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": options})
}

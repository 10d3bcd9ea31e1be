package handler

import (
	"go-distribusi-ops/internal/service"
	"go-distribusi-ops/pkg/datetz"

	"github.com/gofiber/fiber/v2"
)

type StatsHandler struct {
	service service.StatsService
	ranger  *datetz.Ranger
}

func NewStatsHandler(s service.StatsService, ranger *datetz.Ranger) *StatsHandler {
	return &StatsHandler{service: s, ranger: ranger}
}

// Per-entity sortable whitelists; keys are API names, values DB columns.
var statsSortable = map[string]map[string]string{
	"stores": {
		"id":         "stores.id",
		"name":       "stores.name",
		"kabupaten":  "stores.kabupaten",
		"created_at": "stores.created_at",
	},
	"sales_reps": {
		"id":         "sales_reps.id",
		"name":       "sales_reps.name",
		"created_at": "sales_reps.created_at",
	},
	"products": {
		"id":    "products.id",
		"name":  "products.name",
		"price": "products.price",
	},
}

// GetStats serves dashboard KPI lists for one entity.
// GET /api/v1/stats/:entity
func (h *StatsHandler) GetStats(c *fiber.Ctx) error {
	entity := c.Params("entity")
	sortable, ok := statsSortable[entity]
	if !ok {
		// Let the service produce the canonical unknown-entity error
		sortable = map[string]string{"id": "id"}
	}

	f, err := parseFilter(c, h.ranger, sortable, "id")
	if err != nil {
		return respondError(c, err)
	}

	result, err := h.service.GetStats(c.Context(), entity, f)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

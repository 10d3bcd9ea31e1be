package handler

import (
	"go-distribusi-ops/internal/query"
	"go-distribusi-ops/internal/repository"
	"go-distribusi-ops/internal/service"
	"go-distribusi-ops/pkg/datetz"

	"github.com/gofiber/fiber/v2"
)

type ReconHandler struct {
	service service.ReconService
	ranger  *datetz.Ranger
}

func NewReconHandler(s service.ReconService, ranger *datetz.Ranger) *ReconHandler {
	return &ReconHandler{service: s, ranger: ranger}
}

var stockSortable = map[string]string{"product_id": "product_id"}

// GetStock returns derived stock positions for the requested scope.
// GET /api/v1/stock?store_id=&sales_rep_id=&product_id=&date_from=&date_to=&date_range=
func (h *ReconHandler) GetStock(c *fiber.Ctx) error {
	f, err := parseFilter(c, h.ranger, stockSortable, "product_id")
	if err != nil {
		return respondError(c, err)
	}

	scope := repository.Scope{
		ProductID:  f.ProductID,
		StoreID:    f.StoreID,
		SalesRepID: f.SalesRepID,
	}
	positions, err := h.service.ComputeStock(c.Context(), scope, f.Window)
	if err != nil {
		return respondError(c, err)
	}

	filters := f.Applied()
	ignored := f.Ignored
	if ignored == nil {
		ignored = []query.IgnoredFilter{}
	}
	filters["ignored"] = ignored
	return c.JSON(fiber.Map{
		"data":    positions,
		"filters": filters,
	})
}

// GetCashFlow returns the cash-flow summary for a window, defaulting to the
// current month when no window was given.
// GET /api/v1/cashflow?date_from=&date_to=&date_range=
func (h *ReconHandler) GetCashFlow(c *fiber.Ctx) error {
	f, err := parseFilter(c, h.ranger, stockSortable, "product_id")
	if err != nil {
		return respondError(c, err)
	}

	window := f.Window
	if window == nil {
		r, _ := h.ranger.Shortcut("current_month")
		window = &r
	}

	summary, err := h.service.ComputeCashFlow(c.Context(), *window)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(summary)
}

package handler

import (
	"context"
	"errors"
	"strconv"

	"go-distribusi-ops/internal/query"
	"go-distribusi-ops/internal/service"
	"go-distribusi-ops/pkg/datetz"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// queryGetter adapts fiber's query access to the filter parser.
func queryGetter(c *fiber.Ctx) query.Getter {
	return func(key string) string {
		return c.Query(key)
	}
}

func parseFilter(c *fiber.Ctx, ranger *datetz.Ranger, sortable map[string]string, defaultSort string) (query.Filter, error) {
	return query.Parse(queryGetter(c), ranger, sortable, defaultSort)
}

func parseIDParam(c *fiber.Ctx, name string) (uint, error) {
	raw := c.Params(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, &query.ValidationError{Field: name, Reason: "must be a positive integer"}
	}
	return uint(id), nil
}

// respondError maps error kinds to transport codes. Structural problems are
// 400, missing rows 404, an unreachable or timed-out store 503 (retryable);
// everything else is a plain 500.
func respondError(c *fiber.Ctx, err error) error {
	var ve *query.ValidationError
	if errors.As(err, &ve) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": ve.Error()})
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "upstream store unavailable, retry later"})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
}

// listResponse is the canonical list shape shared by ledger list endpoints
// and stats: data plus pre-pagination totals plus filter/sort echo.
func listResponse(data interface{}, f query.Filter, total int64) fiber.Map {
	totalPages := int((total + int64(f.PageSize) - 1) / int64(f.PageSize))
	filters := f.Applied()
	ignored := f.Ignored
	if ignored == nil {
		ignored = []query.IgnoredFilter{}
	}
	filters["ignored"] = ignored
	return fiber.Map{
		"data": data,
		"pagination": service.Pagination{
			Page:       f.Page,
			Limit:      f.PageSize,
			Total:      total,
			TotalPages: totalPages,
		},
		"filters": filters,
		"sorting": fiber.Map{"field": f.SortField, "dir": string(f.SortDir)},
	}
}

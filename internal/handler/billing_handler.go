package handler

import (
	"go-distribusi-ops/internal/model"
	"go-distribusi-ops/internal/service"
	"go-distribusi-ops/pkg/datetz"

	"github.com/gofiber/fiber/v2"
)

type BillingHandler struct {
	service service.LedgerService
	ranger  *datetz.Ranger
}

func NewBillingHandler(s service.LedgerService, ranger *datetz.Ranger) *BillingHandler {
	return &BillingHandler{service: s, ranger: ranger}
}

var billingSortable = map[string]string{
	"id":             "billings.id",
	"created_at":     "billings.created_at",
	"total_received": "billings.total_received",
}

func (h *BillingHandler) List(c *fiber.Ctx) error {
	f, err := parseFilter(c, h.ranger, billingSortable, "id")
	if err != nil {
		return respondError(c, err)
	}
	billings, total, err := h.service.ListBillings(c.Context(), f)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(listResponse(billings, f, total))
}

func (h *BillingHandler) Get(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	billing, err := h.service.GetBilling(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(billing)
}

func (h *BillingHandler) Create(c *fiber.Ctx) error {
	var billing model.Billing
	if err := c.BodyParser(&billing); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	if err := h.service.CreateBilling(c.Context(), &billing); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Billing created", "data": billing})
}

func (h *BillingHandler) Update(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var billing model.Billing
	if err := c.BodyParser(&billing); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	updated, err := h.service.UpdateBilling(c.Context(), id, &billing)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Billing updated", "data": updated})
}

func (h *BillingHandler) Delete(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.service.DeleteBilling(c.Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Billing deleted"})
}

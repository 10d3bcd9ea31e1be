package handler

import (
	"go-distribusi-ops/internal/model"
	"go-distribusi-ops/internal/service"
	"go-distribusi-ops/pkg/datetz"

	"github.com/gofiber/fiber/v2"
)

type DepositHandler struct {
	service service.LedgerService
	ranger  *datetz.Ranger
}

func NewDepositHandler(s service.LedgerService, ranger *datetz.Ranger) *DepositHandler {
	return &DepositHandler{service: s, ranger: ranger}
}

var depositSortable = map[string]string{
	"id":           "deposits.id",
	"deposit_date": "deposits.deposit_date",
	"amount":       "deposits.amount",
	"created_at":   "deposits.created_at",
}

func (h *DepositHandler) List(c *fiber.Ctx) error {
	f, err := parseFilter(c, h.ranger, depositSortable, "id")
	if err != nil {
		return respondError(c, err)
	}
	deposits, total, err := h.service.ListDeposits(c.Context(), f)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(listResponse(deposits, f, total))
}

func (h *DepositHandler) Get(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	deposit, err := h.service.GetDeposit(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(deposit)
}

func (h *DepositHandler) Create(c *fiber.Ctx) error {
	var deposit model.Deposit
	if err := c.BodyParser(&deposit); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	if err := h.service.CreateDeposit(c.Context(), &deposit); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Deposit created", "data": deposit})
}

func (h *DepositHandler) Update(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var deposit model.Deposit
	if err := c.BodyParser(&deposit); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	updated, err := h.service.UpdateDeposit(c.Context(), id, &deposit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Deposit updated", "data": updated})
}

func (h *DepositHandler) Delete(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.service.DeleteDeposit(c.Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Deposit deleted"})
}

package handler

import (
	"go-distribusi-ops/internal/model"
	"go-distribusi-ops/internal/service"
	"go-distribusi-ops/pkg/datetz"

	"github.com/gofiber/fiber/v2"
)

type ShipmentHandler struct {
	service service.LedgerService
	ranger  *datetz.Ranger
}

func NewShipmentHandler(s service.LedgerService, ranger *datetz.Ranger) *ShipmentHandler {
	return &ShipmentHandler{service: s, ranger: ranger}
}

var shipmentSortable = map[string]string{
	"id":         "shipments.id",
	"ship_date":  "shipments.ship_date",
	"created_at": "shipments.created_at",
}

func (h *ShipmentHandler) List(c *fiber.Ctx) error {
	f, err := parseFilter(c, h.ranger, shipmentSortable, "id")
	if err != nil {
		return respondError(c, err)
	}
	shipments, total, err := h.service.ListShipments(c.Context(), f)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(listResponse(shipments, f, total))
}

func (h *ShipmentHandler) Get(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	shipment, err := h.service.GetShipment(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(shipment)
}

func (h *ShipmentHandler) Create(c *fiber.Ctx) error {
	var shipment model.Shipment
	if err := c.BodyParser(&shipment); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	if err := h.service.CreateShipment(c.Context(), &shipment); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Shipment created", "data": shipment})
}

func (h *ShipmentHandler) Update(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var shipment model.Shipment
	if err := c.BodyParser(&shipment); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	updated, err := h.service.UpdateShipment(c.Context(), id, &shipment)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Shipment updated", "data": updated})
}

func (h *ShipmentHandler) Delete(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.service.DeleteShipment(c.Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Shipment deleted"})
}

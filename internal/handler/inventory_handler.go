package handler

import (
	"strings"

	"salon-inventory/internal/model"
	"salon-inventory/internal/service"

	"github.com/gofiber/fiber/v2"
)

type InventoryHandler struct {
	service service.InventoryService
}

func NewInventoryHandler(s service.InventoryService) *InventoryHandler {
	return &InventoryHandler{service: s}
}

// Consume takes the oldest ACTIVE units of a group
// POST /api/v1/inventory/consume
func (h *InventoryHandler) Consume(c *fiber.Ctx) error {
	var input service.ConsumeInput
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	result, err := h.service.SelectForConsumption(c.UserContext(), actorFrom(c), input)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Stock consumed", "data": result})
}

// ConsumeUnit consumes one specific unit
// POST /api/v1/units/:id/consume
func (h *InventoryHandler) ConsumeUnit(c *fiber.Ctx) error {
	unitID, ok := paramUUID(c, "id")
	if !ok {
		return badRequest(c, "Invalid unit ID")
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Invalid JSON")
		}
	}

	unit, err := h.service.ConsumeSingleUnit(c.UserContext(), actorFrom(c), unitID, req.Reason)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Unit consumed", "data": unit})
}

// UpdateUnitStatus is the administrative override
// PATCH /api/v1/units/:id/status
func (h *InventoryHandler) UpdateUnitStatus(c *fiber.Ctx) error {
	unitID, ok := paramUUID(c, "id")
	if !ok {
		return badRequest(c, "Invalid unit ID")
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	status := model.UnitStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	unit, err := h.service.MarkUnitStatus(c.UserContext(), actorFrom(c), unitID, status)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Unit status updated", "data": unit})
}

package handler

import (
	"salon-inventory/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type CatalogHandler struct {
	service service.CatalogService
}

func NewCatalogHandler(s service.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: s}
}

// CreateProductGroup registers a new identity tuple
// POST /api/v1/product-groups
func (h *CatalogHandler) CreateProductGroup(c *fiber.Ctx) error {
	var input service.CreateProductGroupInput
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	group, err := h.service.CreateProductGroup(c.UserContext(), actorFrom(c), input)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(201).JSON(fiber.Map{"message": "Product group created", "data": group})
}

// GetProductGroups lists groups with their live stock
// GET /api/v1/product-groups
func (h *CatalogHandler) GetProductGroups(c *fiber.Ctx) error {
	groups, err := h.service.ListWithStockSummary(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(groups)
}

// GET /api/v1/product-groups/:id
func (h *CatalogHandler) GetProductGroup(c *fiber.Ctx) error {
	id, ok := paramUUID(c, "id")
	if !ok {
		return badRequest(c, "Invalid product group ID")
	}

	group, err := h.service.GetProductGroup(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(group)
}

// GetUnits lists units in FIFO order
// GET /api/v1/units?product_group_id=&status=
func (h *CatalogHandler) GetUnits(c *fiber.Ctx) error {
	var filter service.UnitListFilter
	if raw := c.Query("product_group_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return badRequest(c, "Invalid product_group_id")
		}
		filter.ProductGroupID = id
	}
	filter.Status = c.Query("status")

	units, err := h.service.ListUnits(c.UserContext(), filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(units)
}

package handler

import (
	"fmt"

	"salon-inventory/internal/service"

	"github.com/gofiber/fiber/v2"
)

type SalesHandler struct {
	service service.SalesInvoiceService
}

func NewSalesHandler(s service.SalesInvoiceService) *SalesHandler {
	return &SalesHandler{service: s}
}

// POST /api/v1/sales-invoices
func (h *SalesHandler) CreateInvoice(c *fiber.Ctx) error {
	var input service.CreateSalesInvoiceInput
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	invoice, err := h.service.CreateSalesInvoice(c.UserContext(), actorFrom(c), input)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Invoice created", "data": invoice})
}

// GET /api/v1/sales-invoices
func (h *SalesHandler) GetInvoices(c *fiber.Ctx) error {
	invoices, err := h.service.ListSalesInvoices(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(invoices)
}

// GET /api/v1/sales-invoices/:id
func (h *SalesHandler) GetInvoice(c *fiber.Ctx) error {
	id, ok := paramUUID(c, "id")
	if !ok {
		return badRequest(c, "Invalid invoice ID")
	}

	invoice, err := h.service.GetSalesInvoice(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(invoice)
}

// GET /api/v1/sales-invoices/:id/pdf
func (h *SalesHandler) DownloadPDF(c *fiber.Ctx) error {
	id, ok := paramUUID(c, "id")
	if !ok {
		return badRequest(c, "Invalid invoice ID")
	}

	name, pdf, err := h.service.RenderSalesInvoicePDF(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}

	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Send(pdf)
}

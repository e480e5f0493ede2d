package handler

import (
	"fmt"

	"salon-inventory/internal/service"
	"salon-inventory/pkg/spreadsheet"

	"github.com/gofiber/fiber/v2"
)

// uploadField is the multipart field carrying a product spreadsheet.
const uploadField = "file"

type ImportExportHandler struct {
	service service.ImportExportService
}

func NewImportExportHandler(s service.ImportExportService) *ImportExportHandler {
	return &ImportExportHandler{service: s}
}

// ImportInventory creates one unit per row
// POST /api/v1/inventory/import
func (h *ImportExportHandler) ImportInventory(c *fiber.Ctx) error {
	var req struct {
		Items []service.InventoryImportRow `json:"items"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	result, err := h.service.ImportInventory(c.UserContext(), actorFrom(c), req.Items)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message":        fmt.Sprintf("Imported %d items", result.ImportedCount),
		"imported_count": result.ImportedCount,
		"errors":         result.Errors,
	})
}

// ImportProducts reads a CSV/XLSX product template
// POST /api/v1/products/import
func (h *ImportExportHandler) ImportProducts(c *fiber.Ctx) error {
	fh, err := c.FormFile(uploadField)
	if err != nil {
		return badRequest(c, "file is required")
	}
	f, err := fh.Open()
	if err != nil {
		return badRequest(c, "could not read file")
	}
	defer f.Close()

	result, err := h.service.ImportProductsFile(c.UserContext(), actorFrom(c), fh.Filename, f)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// GET /api/v1/products/import-template?format=csv|xlsx
func (h *ImportExportHandler) ProductTemplate(c *fiber.Ctx) error {
	format, err := spreadsheet.ParseFormat(c.Query("format"))
	if err != nil {
		return badRequest(c, "format must be csv or xlsx")
	}
	out, err := h.service.ProductImportTemplate(format)
	if err != nil {
		return respondError(c, err)
	}
	return sendFile(c, out)
}

// GET /api/v1/export/inventory?format=csv|xlsx
func (h *ImportExportHandler) ExportInventory(c *fiber.Ctx) error {
	format, err := spreadsheet.ParseFormat(c.Query("format"))
	if err != nil {
		return badRequest(c, "format must be csv or xlsx")
	}
	out, err := h.service.ExportInventory(c.UserContext(), format)
	if err != nil {
		return respondError(c, err)
	}
	return sendFile(c, out)
}

// GET /api/v1/export/procurement?format=csv|xlsx
func (h *ImportExportHandler) ExportProcurement(c *fiber.Ctx) error {
	format, err := spreadsheet.ParseFormat(c.Query("format"))
	if err != nil {
		return badRequest(c, "format must be csv or xlsx")
	}
	out, err := h.service.ExportProcurement(c.UserContext(), format)
	if err != nil {
		return respondError(c, err)
	}
	return sendFile(c, out)
}

func sendFile(c *fiber.Ctx, out *service.FileExport) error {
	c.Set(fiber.HeaderContentType, out.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", out.Filename))
	return c.Send(out.Body)
}

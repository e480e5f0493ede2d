package handler

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"salon-inventory/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// invoiceField is the multipart field carrying supplier invoice attachments.
const invoiceField = "invoices"

type ProcurementHandler struct {
	service service.ProcurementService
}

func NewProcurementHandler(s service.ProcurementService) *ProcurementHandler {
	return &ProcurementHandler{service: s}
}

// CreateRequest raises a PENDING request
// POST /api/v1/procurement
func (h *ProcurementHandler) CreateRequest(c *fiber.Ctx) error {
	var input service.CreateRequestInput
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	req, err := h.service.CreateRequest(c.UserContext(), actorFrom(c), input)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(201).JSON(fiber.Map{"message": "Procurement request created", "data": req})
}

// GET /api/v1/procurement
func (h *ProcurementHandler) GetRequests(c *fiber.Ctx) error {
	requests, err := h.service.ListRequests(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(requests)
}

// GET /api/v1/procurement/:id
func (h *ProcurementHandler) GetRequest(c *fiber.Ctx) error {
	id, ok := paramUUID(c, "id")
	if !ok {
		return badRequest(c, "Invalid request ID")
	}

	req, err := h.service.GetRequest(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(req)
}

// Approve moves a PENDING request to APPROVED
// POST /api/v1/procurement/:id/approve
func (h *ProcurementHandler) Approve(c *fiber.Ctx) error {
	id, ok := paramUUID(c, "id")
	if !ok {
		return badRequest(c, "Invalid request ID")
	}

	var input service.ApproveInput
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&input); err != nil {
			return badRequest(c, "Invalid JSON")
		}
	}

	req, err := h.service.Approve(c.UserContext(), actorFrom(c), id, input)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Procurement request approved", "data": req})
}

// Receive records a delivery with its invoice attachments (multipart/form-data)
// POST /api/v1/procurement/:id/receive
func (h *ProcurementHandler) Receive(c *fiber.Ctx) error {
	id, ok := paramUUID(c, "id")
	if !ok {
		return badRequest(c, "Invalid request ID")
	}

	input, err := receiveInputFromForm(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	files, err := invoiceUploads(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	result, err := h.service.Receive(c.UserContext(), actorFrom(c), id, input, files)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Stock received", "data": result})
}

func receiveInputFromForm(c *fiber.Ctx) (service.ReceiveInput, error) {
	var input service.ReceiveInput

	qty, err := strconv.Atoi(strings.TrimSpace(c.FormValue("quantity")))
	if err != nil {
		return input, fmt.Errorf("quantity must be a whole number")
	}
	input.Quantity = qty
	input.SKUSuffix = c.FormValue("sku_suffix")

	if raw := c.FormValue("expiry_date"); raw != "" {
		expiry, err := service.ParseDate(raw)
		if err != nil {
			return input, fmt.Errorf("expiry_date must be YYYY-MM-DD")
		}
		input.ExpiryDate = expiry
	}
	if raw := c.FormValue("stocked_date"); raw != "" {
		stocked, err := service.ParseDate(raw)
		if err != nil {
			return input, fmt.Errorf("stocked_date must be YYYY-MM-DD")
		}
		input.StockedDate = &stocked
	}
	if raw := strings.TrimSpace(c.FormValue("cost_price")); raw != "" {
		cost, err := decimal.NewFromString(raw)
		if err != nil {
			return input, fmt.Errorf("cost_price must be a number")
		}
		input.CostPrice = cost
	}
	return input, nil
}

func invoiceUploads(c *fiber.Ctx) ([]service.InvoiceUpload, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, fmt.Errorf("request must be multipart/form-data")
	}

	headers := form.File[invoiceField]
	uploads := make([]service.InvoiceUpload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("could not read %s", fh.Filename)
		}
		content, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("could not read %s", fh.Filename)
		}
		uploads = append(uploads, service.InvoiceUpload{
			Name:         fh.Filename,
			DeclaredType: fh.Header.Get(fiber.HeaderContentType),
			Content:      content,
		})
	}
	return uploads, nil
}

// GET /api/v1/procurement/:id/invoices
func (h *ProcurementHandler) GetInvoices(c *fiber.Ctx) error {
	id, ok := paramUUID(c, "id")
	if !ok {
		return badRequest(c, "Invalid request ID")
	}

	invoices, err := h.service.ListInvoices(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(invoices)
}

// GET /api/v1/procurement/:id/receipts
func (h *ProcurementHandler) GetReceipts(c *fiber.Ctx) error {
	id, ok := paramUUID(c, "id")
	if !ok {
		return badRequest(c, "Invalid request ID")
	}

	receipts, err := h.service.ListReceipts(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(receipts)
}

// DownloadInvoiceFile streams one stored attachment
// GET /api/v1/procurement/:id/invoices/:invoiceId/files/:index
func (h *ProcurementHandler) DownloadInvoiceFile(c *fiber.Ctx) error {
	requestID, ok := paramUUID(c, "id")
	if !ok {
		return badRequest(c, "Invalid request ID")
	}
	invoiceID, ok := paramUUID(c, "invoiceId")
	if !ok {
		return badRequest(c, "Invalid invoice ID")
	}
	index, err := c.ParamsInt("index")
	if err != nil {
		return badRequest(c, "Invalid file index")
	}

	file, rc, err := h.service.OpenInvoiceFile(c.UserContext(), requestID, invoiceID, index)
	if err != nil {
		return respondError(c, err)
	}

	c.Set(fiber.HeaderContentType, file.MimeType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", file.Name))
	// fasthttp closes rc once the body is written.
	return c.SendStream(rc, int(file.Size))
}

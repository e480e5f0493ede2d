package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"salon-inventory/internal/model"
	"salon-inventory/internal/repository"
	"salon-inventory/internal/ws"
	"salon-inventory/pkg/apperror"
	"salon-inventory/pkg/blobstore"
	"salon-inventory/pkg/metrics"
	"salon-inventory/pkg/sku"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DefaultMaxInvoiceBytes is the per-file attachment limit.
const DefaultMaxInvoiceBytes int64 = 10 << 20

// Attachment MIME types accepted on receive.
var allowedInvoiceTypes = []string{"application/pdf", "image/png", "image/jpeg"}

const skuCollisionAttempts = 3

type ProcurementService interface {
	CreateRequest(ctx context.Context, actor Actor, input CreateRequestInput) (*model.ProcurementRequest, error)
	Approve(ctx context.Context, actor Actor, requestID uuid.UUID, input ApproveInput) (*model.ProcurementRequest, error)
	Receive(ctx context.Context, actor Actor, requestID uuid.UUID, input ReceiveInput, files []InvoiceUpload) (*ReceiveResult, error)
	ListRequests(ctx context.Context) ([]model.ProcurementRequest, error)
	GetRequest(ctx context.Context, requestID uuid.UUID) (*model.ProcurementRequest, error)
	ListInvoices(ctx context.Context, requestID uuid.UUID) ([]model.Invoice, error)
	ListReceipts(ctx context.Context, requestID uuid.UUID) ([]model.ProcurementReceipt, error)
	OpenInvoiceFile(ctx context.Context, requestID, invoiceID uuid.UUID, index int) (*model.InvoiceFile, io.ReadCloser, error)
}

type CreateRequestInput struct {
	ProductGroupID       uuid.UUID           `json:"product_group_id" validate:"uuid_required"`
	Purpose              string              `json:"purpose" validate:"required,oneof=RETAIL INHOUSE"`
	RequestedQty         int                 `json:"requested_qty" validate:"gt=0"`
	EstimatedPrice       decimal.NullDecimal `json:"estimated_price" validate:"omitempty,dec_gte0"`
	ExpectedDeliveryDate string              `json:"expected_delivery_date"`
	Remarks              string              `json:"remarks" validate:"max=1000"`
}

type ApproveInput struct {
	// ApprovedQty defaults to the requested quantity when nil.
	ApprovedQty *int `json:"approved_qty" validate:"omitempty,gt=0"`
}

type ReceiveInput struct {
	Quantity    int             `json:"quantity" validate:"gt=0"`
	SKUSuffix   string          `json:"sku_suffix" validate:"required,max=20"`
	ExpiryDate  time.Time       `json:"expiry_date"`
	StockedDate *time.Time      `json:"stocked_date"`
	CostPrice   decimal.Decimal `json:"cost_price" validate:"dec_gte0"`
}

// InvoiceUpload is one attachment as received from the caller.
type InvoiceUpload struct {
	Name         string
	DeclaredType string
	Content      []byte
}

type ReceiveResult struct {
	Request *model.ProcurementRequest `json:"request"`
	Receipt *model.ProcurementReceipt `json:"receipt"`
	Invoice *model.Invoice            `json:"invoice"`
	SKUs    []string                  `json:"skus"`
}

type procurementService struct {
	requestRepo  repository.ProcurementRepository
	invoiceRepo  repository.InvoiceRepository
	unitRepo     repository.InventoryUnitRepository
	groupRepo    repository.ProductGroupRepository
	settingsRepo repository.SettingsRepository
	blobs        blobstore.Store
	db           *gorm.DB
	wsHub        *ws.Hub
	metrics      *metrics.InventoryMetrics
	log          zerolog.Logger
	maxFileBytes int64
	now          func() time.Time
}

type ProcurementDeps struct {
	Requests     repository.ProcurementRepository
	Invoices     repository.InvoiceRepository
	Units        repository.InventoryUnitRepository
	Groups       repository.ProductGroupRepository
	Settings     repository.SettingsRepository
	Blobs        blobstore.Store
	DB           *gorm.DB
	Hub          *ws.Hub
	Metrics      *metrics.InventoryMetrics
	Log          zerolog.Logger
	MaxFileBytes int64
}

func NewProcurementService(deps ProcurementDeps) ProcurementService {
	maxBytes := deps.MaxFileBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxInvoiceBytes
	}
	return &procurementService{
		requestRepo:  deps.Requests,
		invoiceRepo:  deps.Invoices,
		unitRepo:     deps.Units,
		groupRepo:    deps.Groups,
		settingsRepo: deps.Settings,
		blobs:        deps.Blobs,
		db:           deps.DB,
		wsHub:        deps.Hub,
		metrics:      deps.Metrics,
		log:          deps.Log.With().Str("component", "procurement").Logger(),
		maxFileBytes: maxBytes,
		now:          time.Now,
	}
}

// ParseDate accepts YYYY-MM-DD or RFC3339.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}

func (s *procurementService) CreateRequest(ctx context.Context, actor Actor, input CreateRequestInput) (*model.ProcurementRequest, error) {
	input.Purpose = strings.ToUpper(strings.TrimSpace(input.Purpose))
	if err := validate(&input); err != nil {
		return nil, err
	}

	var expected *time.Time
	if strings.TrimSpace(input.ExpectedDeliveryDate) != "" {
		parsed, err := ParseDate(input.ExpectedDeliveryDate)
		if err != nil {
			return nil, apperror.Validation("expected delivery date is invalid")
		}
		expected = &parsed
	}

	if _, err := s.groupRepo.FindByID(ctx, input.ProductGroupID); err != nil {
		return nil, storeError(err, "product group")
	}

	req := &model.ProcurementRequest{
		ProductGroupID:       input.ProductGroupID,
		Purpose:              model.Purpose(input.Purpose),
		RequestedQty:         input.RequestedQty,
		EstimatedPrice:       input.EstimatedPrice,
		ExpectedDeliveryDate: expected,
		Remarks:              strings.TrimSpace(input.Remarks),
		Status:               model.ProcurementPending,
		RequestedBy:          actor.ID,
	}
	req.CreatedBy = actor.ID
	req.UpdatedBy = actor.ID

	if err := s.requestRepo.Create(ctx, req); err != nil {
		return nil, storeError(err, "procurement request")
	}

	s.metrics.ProcurementTransition(string(model.ProcurementPending))
	s.log.Info().Str("request_id", req.ID.String()).Int("requested_qty", req.RequestedQty).Str("actor", actor.ID).Msg("procurement requested")
	s.publish(actor, "request_created", req, fmt.Sprintf("%s requested %d units", actor.Name, req.RequestedQty))
	return s.GetRequest(ctx, req.ID)
}

func (s *procurementService) Approve(ctx context.Context, actor Actor, requestID uuid.UUID, input ApproveInput) (*model.ProcurementRequest, error) {
	if err := validate(&input); err != nil {
		return nil, err
	}
	req, err := s.requestRepo.FindByID(ctx, requestID)
	if err != nil {
		return nil, storeError(err, "procurement request")
	}
	if req.Status != model.ProcurementPending {
		return nil, apperror.InvalidState(fmt.Sprintf("request is %s, only PENDING requests can be approved", req.Status))
	}

	qty := req.RequestedQty
	if input.ApprovedQty != nil {
		qty = *input.ApprovedQty
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		affected, err := s.requestRepo.Approve(tx, requestID, qty, actor.ID, s.now())
		if err != nil {
			return err
		}
		if affected == 0 {
			return apperror.InvalidState("request was approved concurrently")
		}
		return nil
	})
	if err != nil {
		return nil, storeError(err, "procurement request")
	}

	s.metrics.ProcurementTransition(string(model.ProcurementApproved))
	s.log.Info().Str("request_id", requestID.String()).Int("approved_qty", qty).Str("actor", actor.ID).Msg("procurement approved")

	updated, err := s.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	s.publish(actor, "request_approved", updated, fmt.Sprintf("%s approved %d units", actor.Name, qty))
	return updated, nil
}

// validateAttachments sniffs every file and rejects the whole set on the first bad one.
func (s *procurementService) validateAttachments(files []InvoiceUpload) ([]string, error) {
	if len(files) == 0 {
		return nil, apperror.PolicyViolation("invoice upload is mandatory")
	}
	types := make([]string, len(files))
	for i, f := range files {
		if int64(len(f.Content)) > s.maxFileBytes {
			return nil, apperror.PolicyViolation(fmt.Sprintf("file %q is too large, max %d MB per file", f.Name, s.maxFileBytes>>20))
		}
		detected := mimetype.Detect(f.Content)
		if !detected.Is(allowedInvoiceTypes[0]) && !detected.Is(allowedInvoiceTypes[1]) && !detected.Is(allowedInvoiceTypes[2]) {
			return nil, apperror.PolicyViolation(fmt.Sprintf("file %q has invalid type, allowed: PDF, PNG, JPG", f.Name))
		}
		declared := strings.TrimSpace(strings.SplitN(f.DeclaredType, ";", 2)[0])
		if declared != "" && declared != "application/octet-stream" && !detected.Is(declared) {
			return nil, apperror.PolicyViolation(fmt.Sprintf("file %q content does not match its declared type %s", f.Name, declared))
		}
		types[i] = detected.String()
	}
	return types, nil
}

func (s *procurementService) Receive(ctx context.Context, actor Actor, requestID uuid.UUID, input ReceiveInput, files []InvoiceUpload) (*ReceiveResult, error) {
	// 1. Validate everything before touching storage
	input.SKUSuffix = sku.NormalizeSuffix(input.SKUSuffix)
	if err := validate(&input); err != nil {
		return nil, err
	}
	if input.ExpiryDate.IsZero() {
		return nil, apperror.Validation("expiry date is required")
	}
	now := s.now()
	stocked := now
	if input.StockedDate != nil && !input.StockedDate.IsZero() {
		stocked = *input.StockedDate
	}
	mimeTypes, err := s.validateAttachments(files)
	if err != nil {
		return nil, err
	}

	// 2. State, over-receipt and policy prechecks
	req, err := s.requestRepo.FindByID(ctx, requestID)
	if err != nil {
		return nil, storeError(err, "procurement request")
	}
	if !req.Status.Receivable() {
		return nil, apperror.InvalidState(fmt.Sprintf("request is %s, it must be APPROVED to receive stock", req.Status))
	}
	if req.ReceivedQty+input.Quantity > req.ApprovedQty {
		return nil, apperror.OverReceipt(req.Remaining())
	}
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return nil, storeError(err, "settings")
	}
	if limit := settings.Procurement.MaxReceiveQuantity; limit > 0 && input.Quantity > limit {
		return nil, apperror.PolicyViolation(fmt.Sprintf("cannot receive more than %d units at once", limit))
	}
	if !settings.Procurement.AllowPartialReceive && input.Quantity != req.Remaining() {
		return nil, apperror.PolicyViolation(fmt.Sprintf("partial receiving is disabled, receive all %d remaining units", req.Remaining()))
	}

	// 3. Store attachments; they are removed again if the database step fails
	stored := make([]model.InvoiceFile, 0, len(files))
	cleanup := func() {
		for _, f := range stored {
			if err := s.blobs.Delete(context.WithoutCancel(ctx), f.Path); err != nil {
				s.log.Error().Err(err).Str("path", f.Path).Msg("failed to remove orphaned invoice file")
			}
		}
	}
	for i, f := range files {
		name := blobstore.ObjectName(requestID.String(), now, i, f.Name)
		ref, err := s.blobs.Save(ctx, name, bytes.NewReader(f.Content), mimeTypes[i])
		if err != nil {
			cleanup()
			return nil, apperror.Internal(err, "failed to store invoice file")
		}
		stored = append(stored, model.InvoiceFile{Name: f.Name, MimeType: mimeTypes[i], Size: int64(len(f.Content)), Path: ref})
	}

	// 4. One transaction for request totals, receipt, invoice and units
	receipt := &model.ProcurementReceipt{
		ProcurementID: requestID,
		Quantity:      input.Quantity,
		SKUSuffix:     input.SKUSuffix,
		ExpiryDate:    input.ExpiryDate,
		StockedDate:   stocked,
		CostPrice:     input.CostPrice.Round(2),
		ReceivedBy:    actor.ID,
	}
	receipt.CreatedBy = actor.ID
	invoice := &model.Invoice{ProcurementID: requestID, Files: stored, UploadedBy: actor.ID}
	invoice.CreatedBy = actor.ID
	var skus []string

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		affected, err := s.requestRepo.IncrementReceived(tx, requestID, input.Quantity, actor.ID)
		if err != nil {
			return err
		}
		if affected == 0 {
			var current model.ProcurementRequest
			if err := tx.First(&current, "id = ?", requestID).Error; err != nil {
				return err
			}
			if !current.Status.Receivable() {
				return apperror.InvalidState(fmt.Sprintf("request is %s, it must be APPROVED to receive stock", current.Status))
			}
			return apperror.OverReceipt(current.Remaining())
		}

		if err := s.requestRepo.CreateReceipt(tx, receipt); err != nil {
			return err
		}
		invoice.ReceiptID = receipt.ID
		if err := s.invoiceRepo.Create(tx, invoice); err != nil {
			return err
		}

		skus, err = s.uniqueSKUs(tx, now, input.SKUSuffix, input.Quantity)
		if err != nil {
			return err
		}
		units := make([]model.InventoryUnit, len(skus))
		for i, code := range skus {
			units[i] = model.InventoryUnit{
				ProductGroupID: req.ProductGroupID,
				SKU:            code,
				ExpiryDate:     input.ExpiryDate,
				StockedDate:    stocked,
				CostPrice:      receipt.CostPrice,
				Status:         model.UnitActive,
				ReceiptID:      &receipt.ID,
			}
			units[i].CreatedBy = actor.ID
			units[i].UpdatedBy = actor.ID
		}
		return s.unitRepo.CreateBatch(tx, units)
	})
	if err != nil {
		cleanup()
		return nil, storeError(err, "procurement receipt")
	}

	updated, err := s.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	s.metrics.UnitsReceived(input.Quantity)
	s.metrics.ProcurementTransition(string(updated.Status))
	s.log.Info().
		Str("request_id", requestID.String()).
		Int("quantity", input.Quantity).
		Int("received_qty", updated.ReceivedQty).
		Str("status", string(updated.Status)).
		Str("actor", actor.ID).
		Msg("procurement received")
	s.publish(actor, "stock_received", updated, fmt.Sprintf("%s received %d units", actor.Name, input.Quantity))

	return &ReceiveResult{Request: updated, Receipt: receipt, Invoice: invoice, SKUs: skus}, nil
}

// uniqueSKUs generates a batch and regenerates it while any code already exists in the store.
func (s *procurementService) uniqueSKUs(tx *gorm.DB, at time.Time, suffix string, n int) ([]string, error) {
	for attempt := 0; attempt < skuCollisionAttempts; attempt++ {
		codes, err := sku.GenerateBatch(at, suffix, n)
		if err != nil {
			return nil, err
		}
		existing, err := s.unitRepo.ExistingSKUs(tx, codes)
		if err != nil {
			return nil, err
		}
		if len(existing) == 0 {
			return codes, nil
		}
	}
	return nil, apperror.New(apperror.CodeDuplicateKey, "could not generate unique SKUs for this batch")
}

func (s *procurementService) ListRequests(ctx context.Context) ([]model.ProcurementRequest, error) {
	reqs, err := s.requestRepo.FindAll(ctx)
	if err != nil {
		return nil, storeError(err, "procurement request")
	}
	return reqs, nil
}

func (s *procurementService) GetRequest(ctx context.Context, requestID uuid.UUID) (*model.ProcurementRequest, error) {
	req, err := s.requestRepo.FindByID(ctx, requestID)
	if err != nil {
		return nil, storeError(err, "procurement request")
	}
	return req, nil
}

func (s *procurementService) ListInvoices(ctx context.Context, requestID uuid.UUID) ([]model.Invoice, error) {
	if _, err := s.GetRequest(ctx, requestID); err != nil {
		return nil, err
	}
	invoices, err := s.invoiceRepo.FindByProcurement(ctx, requestID)
	if err != nil {
		return nil, storeError(err, "invoice")
	}
	return invoices, nil
}

func (s *procurementService) ListReceipts(ctx context.Context, requestID uuid.UUID) ([]model.ProcurementReceipt, error) {
	if _, err := s.GetRequest(ctx, requestID); err != nil {
		return nil, err
	}
	receipts, err := s.requestRepo.ListReceipts(ctx, requestID)
	if err != nil {
		return nil, storeError(err, "procurement receipt")
	}
	return receipts, nil
}

// OpenInvoiceFile resolves a stored attachment by invoice and position, never by a caller-supplied path.
func (s *procurementService) OpenInvoiceFile(ctx context.Context, requestID, invoiceID uuid.UUID, index int) (*model.InvoiceFile, io.ReadCloser, error) {
	invoice, err := s.invoiceRepo.FindByID(ctx, invoiceID)
	if err != nil {
		return nil, nil, storeError(err, "invoice")
	}
	if invoice.ProcurementID != requestID {
		return nil, nil, apperror.NotFound("invoice")
	}
	if index < 0 || index >= len(invoice.Files) {
		return nil, nil, apperror.NotFound("invoice file")
	}
	file := invoice.Files[index]
	rc, err := s.blobs.Open(ctx, file.Path)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) || errors.Is(err, blobstore.ErrInvalidPath) {
			return nil, nil, apperror.NotFound("invoice file")
		}
		return nil, nil, apperror.Internal(err, "failed to read invoice file")
	}
	return &file, rc, nil
}

func (s *procurementService) publish(actor Actor, action string, req *model.ProcurementRequest, message string) {
	s.wsHub.Publish(map[string]interface{}{
		"type":   ws.EventProcurementUpdate,
		"action": action,
		"request": map[string]interface{}{
			"id":               req.ID,
			"product_group_id": req.ProductGroupID,
			"status":           req.Status,
			"requested_qty":    req.RequestedQty,
			"approved_qty":     req.ApprovedQty,
			"received_qty":     req.ReceivedQty,
		},
		"user":    actor.userInfo(),
		"message": message,
	})
}

package service

import (
	"context"
	"strings"
	"time"

	"salon-inventory/internal/model"
	"salon-inventory/internal/repository"
	"salon-inventory/pkg/apperror"
	"salon-inventory/pkg/invoicepdf"
	"salon-inventory/pkg/sku"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const invoiceNumberAttempts = 5

type SalesInvoiceService interface {
	CreateSalesInvoice(ctx context.Context, actor Actor, input CreateSalesInvoiceInput) (*model.SalesInvoice, error)
	ListSalesInvoices(ctx context.Context) ([]model.SalesInvoice, error)
	GetSalesInvoice(ctx context.Context, id uuid.UUID) (*model.SalesInvoice, error)
	RenderSalesInvoicePDF(ctx context.Context, id uuid.UUID) (string, []byte, error)
}

type SalesLineInput struct {
	Description string          `json:"description" validate:"required,max=255"`
	Quantity    int             `json:"quantity" validate:"gt=0"`
	UnitPrice   decimal.Decimal `json:"unit_price" validate:"dec_gte0"`
}

type CreateSalesInvoiceInput struct {
	CustomerName  string           `json:"customer_name" validate:"required,max=255"`
	CustomerEmail string           `json:"customer_email" validate:"omitempty,email"`
	Items         []SalesLineInput `json:"items" validate:"required,min=1,dive"`
	// TaxRate is a percentage; nil falls back to the business default.
	TaxRate *decimal.Decimal `json:"tax_rate" validate:"omitempty,dec_gte0,lte=100"`
	Notes   string           `json:"notes" validate:"max=2000"`
}

type salesInvoiceService struct {
	repo         repository.SalesInvoiceRepository
	settingsRepo repository.SettingsRepository
	log          zerolog.Logger
	now          func() time.Time
}

func NewSalesInvoiceService(repo repository.SalesInvoiceRepository, settingsRepo repository.SettingsRepository, log zerolog.Logger) SalesInvoiceService {
	return &salesInvoiceService{
		repo:         repo,
		settingsRepo: settingsRepo,
		log:          log.With().Str("component", "sales").Logger(),
		now:          time.Now,
	}
}

var hundred = decimal.NewFromInt(100)

// computeTotals fills line totals and returns subtotal, tax and total rounded to cents.
func computeTotals(items []model.SalesInvoiceItem, rate decimal.Decimal) (subtotal, tax, total decimal.Decimal) {
	subtotal = decimal.Zero
	for i := range items {
		items[i].LineTotal = items[i].UnitPrice.Mul(decimal.NewFromInt(int64(items[i].Quantity))).Round(2)
		subtotal = subtotal.Add(items[i].LineTotal)
	}
	tax = subtotal.Mul(rate).Div(hundred).Round(2)
	total = subtotal.Add(tax).Round(2)
	return subtotal.Round(2), tax, total
}

func (s *salesInvoiceService) CreateSalesInvoice(ctx context.Context, actor Actor, input CreateSalesInvoiceInput) (*model.SalesInvoice, error) {
	input.CustomerName = strings.TrimSpace(input.CustomerName)
	input.CustomerEmail = strings.TrimSpace(input.CustomerEmail)
	if err := validate(&input); err != nil {
		return nil, err
	}

	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return nil, storeError(err, "settings")
	}
	rate := settings.Business.DefaultTaxPercent
	if input.TaxRate != nil {
		rate = *input.TaxRate
	}
	rate = rate.Round(2)

	items := make([]model.SalesInvoiceItem, len(input.Items))
	for i, line := range input.Items {
		items[i] = model.SalesInvoiceItem{
			Position:    i,
			Description: strings.TrimSpace(line.Description),
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice.Round(2),
		}
	}
	subtotal, tax, total := computeTotals(items, rate)

	prefix := settings.Business.InvoicePrefix
	if prefix == "" {
		prefix = model.DefaultSettings().Business.InvoicePrefix
	}
	number, err := s.nextNumber(ctx, prefix)
	if err != nil {
		return nil, err
	}

	invoice := &model.SalesInvoice{
		InvoiceNumber: number,
		CustomerName:  input.CustomerName,
		CustomerEmail: input.CustomerEmail,
		Items:         items,
		Subtotal:      subtotal,
		TaxRate:       rate,
		TaxAmount:     tax,
		TotalAmount:   total,
		Notes:         strings.TrimSpace(input.Notes),
	}
	invoice.CreatedBy = actor.ID
	invoice.UpdatedBy = actor.ID

	if err := s.repo.Create(ctx, invoice); err != nil {
		return nil, storeError(err, "sales invoice")
	}
	s.log.Info().Str("invoice_number", number).Str("total", total.StringFixed(2)).Str("actor", actor.ID).Msg("sales invoice created")
	return invoice, nil
}

// nextNumber builds <prefix>-DDMMYYYY-<6 random> and retries on the rare collision.
func (s *salesInvoiceService) nextNumber(ctx context.Context, prefix string) (string, error) {
	date := sku.DatePrefix(s.now())
	for attempt := 0; attempt < invoiceNumberAttempts; attempt++ {
		number := prefix + "-" + date + "-" + sku.Random(6)
		exists, err := s.repo.NumberExists(ctx, number)
		if err != nil {
			return "", storeError(err, "sales invoice")
		}
		if !exists {
			return number, nil
		}
	}
	return "", apperror.New(apperror.CodeDuplicateKey, "could not allocate a unique invoice number")
}

func (s *salesInvoiceService) ListSalesInvoices(ctx context.Context) ([]model.SalesInvoice, error) {
	invoices, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, storeError(err, "sales invoice")
	}
	return invoices, nil
}

func (s *salesInvoiceService) GetSalesInvoice(ctx context.Context, id uuid.UUID) (*model.SalesInvoice, error) {
	invoice, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "sales invoice")
	}
	return invoice, nil
}

// RenderSalesInvoicePDF returns the download filename and document bytes.
func (s *salesInvoiceService) RenderSalesInvoicePDF(ctx context.Context, id uuid.UUID) (string, []byte, error) {
	invoice, err := s.GetSalesInvoice(ctx, id)
	if err != nil {
		return "", nil, err
	}
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return "", nil, storeError(err, "settings")
	}

	issued := invoice.CreatedAt
	if loc, err := time.LoadLocation(settings.Business.Timezone); err == nil {
		issued = issued.In(loc)
	}

	doc := invoicepdf.Document{
		ShopName:      settings.Business.ShopName,
		Number:        invoice.InvoiceNumber,
		IssuedAt:      issued,
		DateLayout:    settings.Business.DateLayout(),
		Currency:      settings.Business.Currency,
		CustomerName:  invoice.CustomerName,
		CustomerEmail: invoice.CustomerEmail,
		Subtotal:      invoice.Subtotal,
		TaxRate:       invoice.TaxRate,
		TaxAmount:     invoice.TaxAmount,
		Total:         invoice.TotalAmount,
		Notes:         invoice.Notes,
	}
	for _, item := range invoice.Items {
		doc.Lines = append(doc.Lines, invoicepdf.Line{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			LineTotal:   item.LineTotal,
		})
	}

	pdf, err := invoicepdf.Render(doc)
	if err != nil {
		return "", nil, apperror.Internal(err, "failed to render invoice")
	}
	return invoicepdf.Filename(invoice.InvoiceNumber), pdf, nil
}

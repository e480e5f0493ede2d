package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"salon-inventory/internal/model"
	"salon-inventory/internal/repository"
	"salon-inventory/internal/ws"
	"salon-inventory/pkg/apperror"
	"salon-inventory/pkg/database"
	"salon-inventory/pkg/spreadsheet"
	"salon-inventory/pkg/sku"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Defaults for product-template rows, which carry no brand or pack size.
const (
	templateBrand           = "Generic"
	templateQuantityPerItem = 1
	templateUnit            = model.UnitPiece
)

type ImportExportService interface {
	ImportInventory(ctx context.Context, actor Actor, rows []InventoryImportRow) (*InventoryImportResult, error)
	ImportProductsFile(ctx context.Context, actor Actor, filename string, r io.Reader) (*ProductImportResult, error)
	ExportInventory(ctx context.Context, format spreadsheet.Format) (*FileExport, error)
	ExportProcurement(ctx context.Context, format spreadsheet.Format) (*FileExport, error)
	ProductImportTemplate(format spreadsheet.Format) (*FileExport, error)
}

// InventoryImportRow is one unit to import. SKU is generated when empty.
type InventoryImportRow struct {
	BrandName         string          `json:"brand_name"`
	SubCategory       string          `json:"sub_category"`
	ProductName       string          `json:"product_name"`
	QuantityPerItem   float64         `json:"quantity_per_item"`
	Unit              string          `json:"unit"`
	SellingPrice      decimal.Decimal `json:"selling_price"`
	LowStockThreshold int             `json:"low_stock_threshold"`
	CostPrice         decimal.Decimal `json:"cost_price"`
	ExpiryDate        string          `json:"expiry_date"`
	StockedDate       string          `json:"stocked_date"`
	SKU               string          `json:"sku"`
}

type InventoryImportResult struct {
	ImportedCount int      `json:"imported_count"`
	Errors        []string `json:"errors,omitempty"`
}

// productTemplateRow mirrors the product import template columns.
type productTemplateRow struct {
	ProductName  string          `validate:"required"`
	SKU          string          `validate:"required,max=40"`
	Category     string          `validate:"required"`
	CostPrice    decimal.Decimal `validate:"dec_gte0"`
	SellingPrice decimal.Decimal `validate:"dec_gte0"`
	TaxRate      decimal.Decimal `validate:"dec_gte0,lte=100"`
	StockQty     int             `validate:"gte=0"`
	Status       string          `validate:"oneof=ACTIVE INACTIVE"`
	ExpiryDate   *time.Time
}

type ImportRowResult struct {
	Index   int    `json:"index"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type ProductImportResult struct {
	Summary struct {
		Inserted int `json:"inserted"`
		Errors   int `json:"errors"`
	} `json:"summary"`
	Results []ImportRowResult `json:"results"`
}

// FileExport is a rendered download.
type FileExport struct {
	Filename    string
	ContentType string
	Body        []byte
}

type importExportService struct {
	groupRepo       repository.ProductGroupRepository
	unitRepo        repository.InventoryUnitRepository
	procurementRepo repository.ProcurementRepository
	invoiceRepo     repository.InvoiceRepository
	db              *gorm.DB
	wsHub           *ws.Hub
	log             zerolog.Logger
	now             func() time.Time
}

func NewImportExportService(
	groupRepo repository.ProductGroupRepository,
	unitRepo repository.InventoryUnitRepository,
	procurementRepo repository.ProcurementRepository,
	invoiceRepo repository.InvoiceRepository,
	db *gorm.DB,
	hub *ws.Hub,
	log zerolog.Logger,
) ImportExportService {
	return &importExportService{
		groupRepo:       groupRepo,
		unitRepo:        unitRepo,
		procurementRepo: procurementRepo,
		invoiceRepo:     invoiceRepo,
		db:              db,
		wsHub:           hub,
		log:             log.With().Str("component", "import_export").Logger(),
		now:             time.Now,
	}
}

func rowMessage(err error) string {
	if typed := apperror.As(err); typed != nil {
		return typed.Message()
	}
	return err.Error()
}

// ImportInventory processes rows one by one; a failed row does not abort the others.
func (s *importExportService) ImportInventory(ctx context.Context, actor Actor, rows []InventoryImportRow) (*InventoryImportResult, error) {
	if len(rows) == 0 {
		return nil, apperror.Validation("no items to import")
	}

	result := &InventoryImportResult{}
	for i, row := range rows {
		if err := s.importInventoryRow(ctx, actor, row); err != nil {
			s.log.Debug().Err(err).Int("row", i+1).Msg("inventory import row rejected")
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %s", i+1, rowMessage(err)))
			continue
		}
		result.ImportedCount++
	}

	s.log.Info().Int("imported", result.ImportedCount).Int("failed", len(result.Errors)).Str("actor", actor.ID).Msg("inventory import completed")
	s.publishImport(actor, result.ImportedCount)
	return result, nil
}

func (s *importExportService) importInventoryRow(ctx context.Context, actor Actor, row InventoryImportRow) error {
	// 1. Normalize and validate
	identity := model.ProductIdentity{
		BrandName:       row.BrandName,
		SubCategory:     row.SubCategory,
		ProductName:     row.ProductName,
		QuantityPerItem: row.QuantityPerItem,
		Unit:            model.UnitOfMeasure(row.Unit),
		SellingPrice:    row.SellingPrice,
	}.Normalize()
	if err := validate(&identity); err != nil {
		return err
	}
	if !row.CostPrice.IsPositive() {
		return apperror.Validation("missing cost price")
	}
	if strings.TrimSpace(row.ExpiryDate) == "" {
		return apperror.Validation("missing expiry date")
	}
	expiry, err := ParseDate(row.ExpiryDate)
	if err != nil {
		return apperror.Validation("invalid expiry date format (use YYYY-MM-DD)")
	}
	stocked := s.now()
	if strings.TrimSpace(row.StockedDate) != "" {
		if stocked, err = ParseDate(row.StockedDate); err != nil {
			return apperror.Validation("invalid stocked date format (use YYYY-MM-DD)")
		}
	}

	// 2. Find or create the group and insert the unit together
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		group, _, err := s.groupRepo.FindOrCreate(tx, identity, row.LowStockThreshold)
		if err != nil {
			return err
		}

		code := strings.TrimSpace(row.SKU)
		if code == "" {
			code = sku.ForImport(identity.BrandName, identity.ProductName)
		} else {
			existing, err := s.unitRepo.ExistingSKUs(tx, []string{code})
			if err != nil {
				return err
			}
			if len(existing) > 0 {
				return apperror.Newf(apperror.CodeDuplicateKey, "SKU %s already exists", code)
			}
		}

		unit := model.InventoryUnit{
			ProductGroupID: group.ID,
			SKU:            code,
			ExpiryDate:     expiry,
			StockedDate:    stocked,
			CostPrice:      row.CostPrice.Round(2),
			Status:         model.UnitActive,
		}
		unit.CreatedBy = actor.ID
		unit.UpdatedBy = actor.ID
		if err := s.unitRepo.CreateBatch(tx, []model.InventoryUnit{unit}); err != nil {
			if database.IsUniqueViolation(err) {
				return apperror.Newf(apperror.CodeDuplicateKey, "SKU %s already exists", code)
			}
			return err
		}
		return nil
	})
}

// ImportProductsFile reads a product template (CSV or XLSX) and creates stock_qty units per row.
func (s *importExportService) ImportProductsFile(ctx context.Context, actor Actor, filename string, r io.Reader) (*ProductImportResult, error) {
	format, err := spreadsheet.FormatFromFilename(filename)
	if err != nil {
		return nil, apperror.Validation("unsupported file type")
	}
	records, err := spreadsheet.Read(r, format)
	if err != nil {
		if errors.Is(err, spreadsheet.ErrEmpty) {
			return nil, apperror.Validation("file has no rows")
		}
		return nil, apperror.Wrap(apperror.CodeValidation, err, "could not read file")
	}

	result := &ProductImportResult{Results: make([]ImportRowResult, 0, len(records))}
	for i, record := range records {
		// Spreadsheet row number: header is row 1.
		index := i + 2
		inserted, err := s.importProductRecord(ctx, actor, record)
		if err != nil {
			result.Summary.Errors++
			result.Results = append(result.Results, ImportRowResult{Index: index, Status: "error", Message: rowMessage(err)})
			continue
		}
		result.Summary.Inserted += inserted
		result.Results = append(result.Results, ImportRowResult{Index: index, Status: "inserted"})
	}

	s.log.Info().Str("file", filename).Int("inserted", result.Summary.Inserted).Int("failed", result.Summary.Errors).Str("actor", actor.ID).Msg("product import completed")
	s.publishImport(actor, result.Summary.Inserted)
	return result, nil
}

func parseTemplateRow(record map[string]string) (*productTemplateRow, error) {
	row := &productTemplateRow{
		ProductName: record["product_name"],
		SKU:         record["sku"],
		Category:    record["category"],
		Status:      strings.ToUpper(record["status"]),
	}
	if row.Status == "" {
		row.Status = string(model.UnitActive)
	}

	var err error
	if row.CostPrice, err = parseAmount(record["cost_price"], "cost_price"); err != nil {
		return nil, err
	}
	if row.SellingPrice, err = parseAmount(record["selling_price"], "selling_price"); err != nil {
		return nil, err
	}
	if row.TaxRate, err = parseAmount(record["tax_rate"], "tax_rate"); err != nil {
		return nil, err
	}
	if raw := record["stock_qty"]; raw != "" {
		if row.StockQty, err = strconv.Atoi(raw); err != nil {
			return nil, apperror.Validation("stock_qty must be a whole number")
		}
	}
	if raw := record["expiry_date"]; raw != "" {
		expiry, err := ParseDate(raw)
		if err != nil {
			return nil, apperror.Validation("invalid expiry_date format (use YYYY-MM-DD)")
		}
		row.ExpiryDate = &expiry
	}

	if err := validate(row); err != nil {
		return nil, err
	}
	return row, nil
}

func parseAmount(raw, field string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, apperror.Newf(apperror.CodeValidation, "%s must be a number", field)
	}
	return d, nil
}

func (s *importExportService) importProductRecord(ctx context.Context, actor Actor, record map[string]string) (int, error) {
	row, err := parseTemplateRow(record)
	if err != nil {
		return 0, err
	}

	identity := model.ProductIdentity{
		BrandName:       templateBrand,
		SubCategory:     row.Category,
		ProductName:     row.ProductName,
		QuantityPerItem: templateQuantityPerItem,
		Unit:            templateUnit,
		SellingPrice:    row.SellingPrice,
	}.Normalize()

	now := s.now()
	// The template carries no expiry; such units surface as expired until corrected.
	expiry := now
	if row.ExpiryDate != nil {
		expiry = *row.ExpiryDate
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		group, _, err := s.groupRepo.FindOrCreate(tx, identity, model.DefaultLowStockThreshold)
		if err != nil {
			return err
		}
		if row.StockQty == 0 {
			return nil
		}

		codes, err := sku.GenerateBatch(now, row.SKU, row.StockQty)
		if err != nil {
			return apperror.Wrap(apperror.CodeDuplicateKey, err, "could not generate unique SKUs")
		}
		units := make([]model.InventoryUnit, row.StockQty)
		for i := range units {
			units[i] = model.InventoryUnit{
				ProductGroupID: group.ID,
				SKU:            codes[i],
				ExpiryDate:     expiry,
				StockedDate:    now,
				CostPrice:      row.CostPrice.Round(2),
				Status:         model.UnitActive,
			}
			units[i].CreatedBy = actor.ID
			units[i].UpdatedBy = actor.ID
		}
		if err := s.unitRepo.CreateBatch(tx, units); err != nil {
			if database.IsUniqueViolation(err) {
				return apperror.New(apperror.CodeDuplicateKey, "generated SKU already exists, retry the row")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return row.StockQty, nil
}

func (s *importExportService) publishImport(actor Actor, count int) {
	if count == 0 {
		return
	}
	s.wsHub.Publish(map[string]interface{}{
		"type":    ws.EventStockUpdate,
		"action":  "inventory_imported",
		"count":   count,
		"user":    actor.userInfo(),
		"message": fmt.Sprintf("%s imported %d units", actor.Name, count),
	})
}

func (s *importExportService) ExportInventory(ctx context.Context, format spreadsheet.Format) (*FileExport, error) {
	units, err := s.unitRepo.ListAllWithGroup(ctx)
	if err != nil {
		return nil, storeError(err, "inventory unit")
	}

	table := spreadsheet.Table{Sheet: "Inventory", Headers: spreadsheet.InventoryHeaders}
	for _, u := range units {
		var productName, category string
		selling := decimal.Zero
		if u.ProductGroup != nil {
			productName = u.ProductGroup.ProductName
			category = u.ProductGroup.SubCategory
			selling = u.ProductGroup.SellingPrice
		}
		table.Rows = append(table.Rows, []interface{}{
			productName,
			u.SKU,
			category,
			u.CostPrice.StringFixed(2),
			selling.StringFixed(2),
			0,
			1,
			string(u.Status),
			u.StockedDate.UTC().Format(time.RFC3339),
		})
	}
	return s.render(format, "inventory_"+s.now().UTC().Format("2006-01-02"), table)
}

func (s *importExportService) ExportProcurement(ctx context.Context, format spreadsheet.Format) (*FileExport, error) {
	requests, err := s.procurementRepo.FindAll(ctx)
	if err != nil {
		return nil, storeError(err, "procurement request")
	}
	invoices, err := s.invoiceRepo.FirstByProcurement(ctx)
	if err != nil {
		return nil, storeError(err, "invoice")
	}

	table := spreadsheet.Table{Sheet: "Procurement", Headers: spreadsheet.ProcurementHeaders}
	for _, r := range requests {
		var productName, invoiceNo string
		if r.ProductGroup != nil {
			productName = r.ProductGroup.ProductName
		}
		if inv, ok := invoices[r.ID]; ok && len(inv.Files) > 0 {
			invoiceNo = inv.Files[0].Name
		}
		quantity := r.ApprovedQty
		if quantity == 0 {
			quantity = r.RequestedQty
		}
		price := decimal.Zero
		if r.EstimatedPrice.Valid {
			price = r.EstimatedPrice.Decimal
		}
		table.Rows = append(table.Rows, []interface{}{
			// No supplier entity exists.
			"",
			productName,
			quantity,
			price.StringFixed(2),
			invoiceNo,
			r.UpdatedAt.UTC().Format(time.RFC3339),
			string(r.Status),
		})
	}
	return s.render(format, "procurement_"+s.now().UTC().Format("2006-01-02"), table)
}

func (s *importExportService) ProductImportTemplate(format spreadsheet.Format) (*FileExport, error) {
	table := spreadsheet.Table{Sheet: "Products", Headers: spreadsheet.ProductTemplateHeaders}
	if format == spreadsheet.FormatCSV {
		table.Rows = [][]interface{}{{"Sample Product", "SKU-001", "Hair Care", "", "", "0", "0", "ACTIVE"}}
	}
	return s.render(format, "products_template", table)
}

func (s *importExportService) render(format spreadsheet.Format, basename string, table spreadsheet.Table) (*FileExport, error) {
	var buf bytes.Buffer
	if err := spreadsheet.Write(&buf, format, table); err != nil {
		if errors.Is(err, spreadsheet.ErrUnsupportedFormat) {
			return nil, apperror.Validation("format must be csv or xlsx")
		}
		return nil, apperror.Internal(err, "failed to render export")
	}
	return &FileExport{
		Filename:    basename + format.Extension(),
		ContentType: format.ContentType(),
		Body:        buf.Bytes(),
	}, nil
}

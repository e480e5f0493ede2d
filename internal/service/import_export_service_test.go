package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"salon-inventory/internal/model"
	"salon-inventory/pkg/apperror"
	"salon-inventory/pkg/spreadsheet"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *env) importExport() *importExportService {
	svc := NewImportExportService(e.groups, e.units, e.requests, e.invoices, e.db, nil, nopLog).(*importExportService)
	svc.now = func() time.Time { return time.Date(2025, 3, 4, 9, 30, 0, 0, time.UTC) }
	return svc
}

func importRow(sku, cost, expiry string) InventoryImportRow {
	row := InventoryImportRow{
		BrandName:       "Loreal",
		SubCategory:     "Hair Care",
		ProductName:     "Shampoo",
		QuantityPerItem: 250,
		Unit:            "ml",
		SellingPrice:    decimal.NewFromInt(450),
		ExpiryDate:      expiry,
		SKU:             sku,
	}
	if cost != "" {
		row.CostPrice = decimal.RequireFromString(cost)
	}
	return row
}

func TestImportInventoryReportsRowErrors(t *testing.T) {
	e := newEnv(t)
	svc := e.importExport()

	res, err := svc.ImportInventory(context.Background(), testActor, []InventoryImportRow{
		importRow("", "200", "2025-08-01"),
		importRow("CUSTOM-1", "210.456", "2025-09-01"),
		importRow("CUSTOM-1", "200", "2025-09-01"),
		importRow("", "", "2025-09-01"),
		importRow("", "200", "31/12/2025"),
		importRow("", "200", ""),
	})
	require.NoError(t, err)

	assert.Equal(t, 2, res.ImportedCount)
	assert.Equal(t, []string{
		"Row 3: SKU CUSTOM-1 already exists",
		"Row 4: missing cost price",
		"Row 5: invalid expiry date format (use YYYY-MM-DD)",
		"Row 6: missing expiry date",
	}, res.Errors)

	// Both imported units landed in one group.
	groups, err := e.groups.FindAll(context.Background())
	require.NoError(t, err)
	require.Len(t, groups, 1)

	units, err := e.units.ListAllWithGroup(context.Background())
	require.NoError(t, err)
	require.Len(t, units, 2)
	for _, u := range units {
		assert.Equal(t, groups[0].ID, u.ProductGroupID)
		assert.Equal(t, model.UnitActive, u.Status)
	}

	var custom model.InventoryUnit
	require.NoError(t, e.db.First(&custom, "sku = ?", "CUSTOM-1").Error)
	assert.Equal(t, "210.46", custom.CostPrice.StringFixed(2))

	var generated model.InventoryUnit
	require.NoError(t, e.db.First(&generated, "sku <> ?", "CUSTOM-1").Error)
	assert.Regexp(t, `^LOSH-[0-9A-Z]{6}$`, generated.SKU)
}

func TestImportInventoryRejectsEmptyBatch(t *testing.T) {
	e := newEnv(t)
	_, err := e.importExport().ImportInventory(context.Background(), testActor, nil)
	assert.True(t, apperror.Is(err, apperror.CodeValidation))
}

func TestImportProductsFileFromCSV(t *testing.T) {
	e := newEnv(t)
	svc := e.importExport()

	file := strings.Join([]string{
		"Product Name,SKU,Category,Cost Price,Selling Price,Tax Rate,Stock Qty,Status",
		"Hair Gel,GEL,Styling,120,180,18,3,active",
		"Wax,WAX,Styling,90,150,0,0,ACTIVE",
		",NONAME,Styling,1,1,0,1,ACTIVE",
		"Spray,SPR,Styling,abc,150,0,1,ACTIVE",
		"Toner,TON,Color,10,20,150,1,ACTIVE",
	}, "\n")

	res, err := svc.ImportProductsFile(context.Background(), testActor, "products.csv", strings.NewReader(file))
	require.NoError(t, err)

	assert.Equal(t, 3, res.Summary.Inserted)
	assert.Equal(t, 3, res.Summary.Errors)
	require.Len(t, res.Results, 5)
	assert.Equal(t, ImportRowResult{Index: 2, Status: "inserted"}, res.Results[0])
	assert.Equal(t, ImportRowResult{Index: 3, Status: "inserted"}, res.Results[1])
	assert.Equal(t, 4, res.Results[2].Index)
	assert.Equal(t, "error", res.Results[2].Status)
	assert.Equal(t, "cost_price must be a number", res.Results[3].Message)
	assert.Equal(t, "error", res.Results[4].Status)

	// Rows with stock_qty 0 still create their group.
	groups, err := e.groups.FindAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, groups, 2)

	units, err := e.units.ListAllWithGroup(context.Background())
	require.NoError(t, err)
	require.Len(t, units, 3)
	for _, u := range units {
		assert.Regexp(t, `^04032025-GEL-[0-9A-Z]{5}$`, u.SKU)
		assert.Equal(t, "Generic", u.ProductGroup.BrandName)
		assert.Equal(t, model.UnitPiece, u.ProductGroup.Unit)
	}
}

func TestImportProductsFileRejectsUnknownType(t *testing.T) {
	e := newEnv(t)
	_, err := e.importExport().ImportProductsFile(context.Background(), testActor, "products.txt", strings.NewReader("x"))
	assert.True(t, apperror.Is(err, apperror.CodeValidation))

	_, err = e.importExport().ImportProductsFile(context.Background(), testActor, "products.csv", strings.NewReader(""))
	assert.True(t, apperror.Is(err, apperror.CodeValidation))
}

func TestExportInventoryCSV(t *testing.T) {
	e := newEnv(t)
	g := e.group(t, "Shampoo", 1)
	e.unit(t, g.ID, "A-1", day("2025-06-01"), day("2025-01-02"))
	e.unit(t, g.ID, "A-2", day("2025-06-01"), day("2025-01-03"))

	out, err := e.importExport().ExportInventory(context.Background(), spreadsheet.FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "inventory_2025-03-04.csv", out.Filename)
	assert.Equal(t, spreadsheet.FormatCSV.ContentType(), out.ContentType)

	records, err := csv.NewReader(bytes.NewReader(out.Body)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, spreadsheet.InventoryHeaders, records[0])
	assert.Equal(t, []string{"Shampoo", "A-1", "Hair Care", "200.00", "450.00", "0", "1", "ACTIVE", "2025-01-02T00:00:00Z"}, records[1])
	assert.Equal(t, "A-2", records[2][1])
}

func TestExportProcurementCSV(t *testing.T) {
	e := newEnv(t)
	g := e.group(t, "Shampoo", 1)
	procurement, _ := e.procurement(t)
	_, err := procurement.CreateRequest(context.Background(), testActor, CreateRequestInput{
		ProductGroupID: g.ID, Purpose: "RETAIL", RequestedQty: 6,
		EstimatedPrice: decimal.NewNullDecimal(decimal.RequireFromString("99.5")),
	})
	require.NoError(t, err)

	out, err := e.importExport().ExportProcurement(context.Background(), spreadsheet.FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "procurement_2025-03-04.csv", out.Filename)

	records, err := csv.NewReader(bytes.NewReader(out.Body)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	row := records[1]
	assert.Equal(t, []string{"", "Shampoo", "6", "99.50", ""}, row[:5])
	assert.Equal(t, "PENDING", row[6])
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	e := newEnv(t)
	_, err := e.importExport().ExportInventory(context.Background(), spreadsheet.Format("pdf"))
	assert.True(t, apperror.Is(err, apperror.CodeValidation))
}

func TestProductImportTemplate(t *testing.T) {
	e := newEnv(t)
	svc := e.importExport()

	out, err := svc.ProductImportTemplate(spreadsheet.FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "products_template.csv", out.Filename)
	records, err := csv.NewReader(bytes.NewReader(out.Body)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, spreadsheet.ProductTemplateHeaders, records[0])

	xlsx, err := svc.ProductImportTemplate(spreadsheet.FormatXLSX)
	require.NoError(t, err)
	assert.Equal(t, "products_template.xlsx", xlsx.Filename)

	// The XLSX template carries the header row only.
	rows, err := spreadsheet.Read(bytes.NewReader(xlsx.Body), spreadsheet.FormatXLSX)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

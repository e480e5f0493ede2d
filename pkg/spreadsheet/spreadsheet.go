// Package spreadsheet encodes and decodes header-keyed tables as CSV or XLSX.
package spreadsheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"

	ContentTypeCSV  = "text/csv; charset=utf-8"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file type")
	ErrEmpty             = errors.New("file has no rows")
)

// Column sets used by the import and export endpoints.
var (
	InventoryHeaders = []string{
		"product_name", "sku", "category", "cost_price", "selling_price",
		"tax_rate", "stock_qty", "status", "created_at",
	}
	ProcurementHeaders = []string{
		"supplier_name", "product_name", "quantity", "purchase_price",
		"invoice_no", "purchase_date", "status",
	}
	ProductTemplateHeaders = InventoryHeaders[:8]
)

// ParseFormat accepts "csv" or "xlsx"; empty defaults to csv.
func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "csv":
		return FormatCSV, nil
	case "xlsx":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, raw)
}

// FormatFromFilename picks the codec from a file extension.
func FormatFromFilename(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx", ".xls":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
}

func (f Format) ContentType() string {
	if f == FormatXLSX {
		return ContentTypeXLSX
	}
	return ContentTypeCSV
}

func (f Format) Extension() string {
	return "." + string(f)
}

// Table is one sheet of output.
type Table struct {
	Sheet   string
	Headers []string
	Rows    [][]interface{}
}

func Write(w io.Writer, format Format, t Table) error {
	switch format {
	case FormatCSV:
		return writeCSV(w, t)
	case FormatXLSX:
		return writeXLSX(w, t)
	}
	return ErrUnsupportedFormat
}

func writeCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Headers); err != nil {
		return err
	}
	for _, row := range t.Rows {
		record := make([]string, len(row))
		for i, v := range row {
			record[i] = cellString(v)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeXLSX(w io.Writer, t Table) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := t.Sheet
	if sheet == "" {
		sheet = "Sheet1"
	}
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]interface{}, len(t.Headers))
	for i, h := range t.Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, row := range t.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = xlsxValue(v)
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	return f.Write(w)
}

// Read returns the data rows keyed by normalized header name.
func Read(r io.Reader, format Format) ([]map[string]string, error) {
	var (
		rows [][]string
		err  error
	)
	switch format {
	case FormatCSV:
		rows, err = readCSV(r)
	case FormatXLSX:
		rows, err = readXLSX(r)
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrEmpty
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = NormalizeHeader(h)
	}

	out := make([]map[string]string, 0, len(rows)-1)
	for _, cells := range rows[1:] {
		if blank(cells) {
			continue
		}
		record := make(map[string]string, len(headers))
		for i, h := range headers {
			if h == "" {
				continue
			}
			if i < len(cells) {
				record[h] = strings.TrimSpace(cells[i])
			} else {
				record[h] = ""
			}
		}
		out = append(out, record)
	}
	return out, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return rows, nil
}

func readXLSX(r io.Reader) ([][]string, error) {
	file, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open excel file: %w", err)
	}
	defer file.Close()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("excel file has no sheets")
	}
	rows, err := file.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet rows: %w", err)
	}
	return rows, nil
}

// NormalizeHeader lowercases, strips a BOM and turns inner spaces into underscores.
func NormalizeHeader(raw string) string {
	value := strings.TrimSpace(raw)
	value = strings.TrimPrefix(value, "\ufeff")
	value = strings.ToLower(value)
	return strings.Join(strings.Fields(value), "_")
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func cellString(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// xlsxValue keeps numbers numeric and stringifies everything else excelize cannot type.
func xlsxValue(v interface{}) interface{} {
	switch x := v.(type) {
	case nil:
		return ""
	case string, int, int64, float64, bool:
		return x
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

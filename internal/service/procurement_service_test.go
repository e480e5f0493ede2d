package service

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"salon-inventory/internal/model"
	"salon-inventory/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pdfInvoice = InvoiceUpload{
	Name:         "invoice.pdf",
	DeclaredType: "application/pdf",
	Content:      []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n"),
}

func receiveInput(qty int) ReceiveInput {
	return ReceiveInput{
		Quantity:   qty,
		SKUSuffix:  "lor 250",
		ExpiryDate: day("2026-06-30"),
		CostPrice:  decimal.RequireFromString("199.5"),
	}
}

func newApprovedRequest(t *testing.T, e *env, svc *procurementService, requested int) *model.ProcurementRequest {
	t.Helper()
	g := e.group(t, "Shampoo "+uuid.NewString()[:6], 5)
	req, err := svc.CreateRequest(context.Background(), testActor, CreateRequestInput{
		ProductGroupID: g.ID,
		Purpose:        "retail",
		RequestedQty:   requested,
	})
	require.NoError(t, err)
	approved, err := svc.Approve(context.Background(), testActor, req.ID, ApproveInput{})
	require.NoError(t, err)
	return approved
}

func countUnits(t *testing.T, e *env, groupID uuid.UUID) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(&model.InventoryUnit{}).Where("product_group_id = ?", groupID).Count(&n).Error)
	return n
}

func TestCreateRequestStartsPending(t *testing.T) {
	e := newEnv(t)
	svc, _ := e.procurement(t)
	g := e.group(t, "Shampoo", 5)

	req, err := svc.CreateRequest(context.Background(), testActor, CreateRequestInput{
		ProductGroupID:       g.ID,
		Purpose:              "INHOUSE",
		RequestedQty:         12,
		EstimatedPrice:       decimal.NewNullDecimal(decimal.NewFromInt(150)),
		ExpectedDeliveryDate: "2025-03-15",
		Remarks:              "monthly restock",
	})
	require.NoError(t, err)
	assert.Equal(t, model.ProcurementPending, req.Status)
	assert.Equal(t, 0, req.ApprovedQty)
	assert.Equal(t, 0, req.ReceivedQty)
	assert.Equal(t, testActor.ID, req.RequestedBy)
	require.NotNil(t, req.ExpectedDeliveryDate)
	assert.Equal(t, "2025-03-15", req.ExpectedDeliveryDate.Format("2006-01-02"))
}

func TestCreateRequestValidation(t *testing.T) {
	e := newEnv(t)
	svc, _ := e.procurement(t)
	g := e.group(t, "Shampoo", 5)

	cases := []struct {
		name  string
		input CreateRequestInput
		code  apperror.Code
	}{
		{"zero quantity", CreateRequestInput{ProductGroupID: g.ID, Purpose: "RETAIL", RequestedQty: 0}, apperror.CodeValidation},
		{"bad purpose", CreateRequestInput{ProductGroupID: g.ID, Purpose: "RESALE", RequestedQty: 1}, apperror.CodeValidation},
		{"negative price", CreateRequestInput{ProductGroupID: g.ID, Purpose: "RETAIL", RequestedQty: 1, EstimatedPrice: decimal.NewNullDecimal(decimal.NewFromInt(-1))}, apperror.CodeValidation},
		{"bad date", CreateRequestInput{ProductGroupID: g.ID, Purpose: "RETAIL", RequestedQty: 1, ExpectedDeliveryDate: "next week"}, apperror.CodeValidation},
		{"unknown group", CreateRequestInput{ProductGroupID: uuid.New(), Purpose: "RETAIL", RequestedQty: 1}, apperror.CodeNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateRequest(context.Background(), testActor, tc.input)
			assert.True(t, apperror.Is(err, tc.code), "got %v", err)
		})
	}
}

func TestApproveDefaultsToRequestedAndOnlyOnce(t *testing.T) {
	e := newEnv(t)
	svc, _ := e.procurement(t)
	req := newApprovedRequest(t, e, svc, 10)

	assert.Equal(t, model.ProcurementApproved, req.Status)
	assert.Equal(t, 10, req.ApprovedQty)
	assert.Equal(t, testActor.ID, req.ApprovedBy)
	assert.NotNil(t, req.ApprovedAt)

	override := 4
	_, err := svc.Approve(context.Background(), testActor, req.ID, ApproveInput{ApprovedQty: &override})
	assert.True(t, apperror.Is(err, apperror.CodeInvalidState))
}

func TestApproveWithOverride(t *testing.T) {
	e := newEnv(t)
	svc, _ := e.procurement(t)
	g := e.group(t, "Shampoo", 5)
	req, err := svc.CreateRequest(context.Background(), testActor, CreateRequestInput{ProductGroupID: g.ID, Purpose: "RETAIL", RequestedQty: 10})
	require.NoError(t, err)

	bad := 0
	_, err = svc.Approve(context.Background(), testActor, req.ID, ApproveInput{ApprovedQty: &bad})
	assert.True(t, apperror.Is(err, apperror.CodeValidation))

	qty := 6
	approved, err := svc.Approve(context.Background(), testActor, req.ID, ApproveInput{ApprovedQty: &qty})
	require.NoError(t, err)
	assert.Equal(t, 6, approved.ApprovedQty)
}

func TestReceivePartialThenFull(t *testing.T) {
	e := newEnv(t)
	svc, _ := e.procurement(t)
	req := newApprovedRequest(t, e, svc, 10)

	first, err := svc.Receive(context.Background(), testActor, req.ID, receiveInput(4), []InvoiceUpload{pdfInvoice})
	require.NoError(t, err)
	assert.Equal(t, 4, first.Request.ReceivedQty)
	assert.Equal(t, model.ProcurementPartiallyReceived, first.Request.Status)
	assert.Len(t, first.SKUs, 4)
	assert.Equal(t, int64(4), countUnits(t, e, req.ProductGroupID))

	second, err := svc.Receive(context.Background(), testActor, req.ID, receiveInput(6), []InvoiceUpload{pdfInvoice})
	require.NoError(t, err)
	assert.Equal(t, 10, second.Request.ReceivedQty)
	assert.Equal(t, model.ProcurementReceived, second.Request.Status)
	assert.Equal(t, int64(10), countUnits(t, e, req.ProductGroupID))

	receipts, err := svc.ListReceipts(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Len(t, receipts, 2)

	invoices, err := svc.ListInvoices(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Len(t, invoices, 2)
}

func TestReceiveCreatesUnitsSharingBatchData(t *testing.T) {
	e := newEnv(t)
	svc, _ := e.procurement(t)
	req := newApprovedRequest(t, e, svc, 5)

	res, err := svc.Receive(context.Background(), testActor, req.ID, receiveInput(5), []InvoiceUpload{pdfInvoice})
	require.NoError(t, err)

	var units []model.InventoryUnit
	require.NoError(t, e.db.Where("receipt_id = ?", res.Receipt.ID).Find(&units).Error)
	require.Len(t, units, 5)

	seen := map[string]bool{}
	for _, u := range units {
		assert.Equal(t, model.UnitActive, u.Status)
		assert.Equal(t, req.ProductGroupID, u.ProductGroupID)
		assert.True(t, u.ExpiryDate.Equal(day("2026-06-30")))
		assert.True(t, u.StockedDate.Equal(res.Receipt.StockedDate))
		assert.True(t, u.CostPrice.Equal(decimal.RequireFromString("199.5")))
		assert.Contains(t, u.SKU, "-LOR250-")
		assert.False(t, seen[u.SKU], "duplicate sku %s", u.SKU)
		seen[u.SKU] = true
	}
	assert.Equal(t, "LOR250", res.Receipt.SKUSuffix)
}

func TestReceiveOverReceiptCreatesNothing(t *testing.T) {
	e := newEnv(t)
	svc, store := e.procurement(t)
	req := newApprovedRequest(t, e, svc, 10)

	_, err := svc.Receive(context.Background(), testActor, req.ID, receiveInput(8), []InvoiceUpload{pdfInvoice})
	require.NoError(t, err)

	_, err = svc.Receive(context.Background(), testActor, req.ID, receiveInput(5), []InvoiceUpload{pdfInvoice})
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeOverReceipt))
	assert.Equal(t, apperror.ReceiptOverflow{Remaining: 2}, apperror.As(err).Details())

	current, err := svc.GetRequest(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, current.ReceivedQty)
	assert.Equal(t, int64(8), countUnits(t, e, req.ProductGroupID))

	invoices, err := svc.ListInvoices(context.Background(), req.ID)
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	_, err = store.Open(context.Background(), invoices[0].Files[0].Path)
	assert.NoError(t, err)
}

func TestReceiveRequiresApprovedState(t *testing.T) {
	e := newEnv(t)
	svc, _ := e.procurement(t)
	g := e.group(t, "Shampoo", 5)
	req, err := svc.CreateRequest(context.Background(), testActor, CreateRequestInput{ProductGroupID: g.ID, Purpose: "RETAIL", RequestedQty: 3})
	require.NoError(t, err)

	_, err = svc.Receive(context.Background(), testActor, req.ID, receiveInput(1), []InvoiceUpload{pdfInvoice})
	assert.True(t, apperror.Is(err, apperror.CodeInvalidState))

	approved, err := svc.Approve(context.Background(), testActor, req.ID, ApproveInput{})
	require.NoError(t, err)
	_, err = svc.Receive(context.Background(), testActor, approved.ID, receiveInput(3), []InvoiceUpload{pdfInvoice})
	require.NoError(t, err)

	_, err = svc.Receive(context.Background(), testActor, approved.ID, receiveInput(1), []InvoiceUpload{pdfInvoice})
	assert.True(t, apperror.Is(err, apperror.CodeInvalidState))
}

func TestReceiveRejectsBadAttachments(t *testing.T) {
	e := newEnv(t)
	svc, _ := e.procurement(t)
	req := newApprovedRequest(t, e, svc, 3)

	cases := []struct {
		name  string
		files []InvoiceUpload
	}{
		{"missing", nil},
		{"text file", []InvoiceUpload{{Name: "notes.txt", DeclaredType: "text/plain", Content: []byte("just some text")}}},
		{"mismatched type", []InvoiceUpload{{Name: "invoice.png", DeclaredType: "image/png", Content: pdfInvoice.Content}}},
		{"one bad among good", []InvoiceUpload{pdfInvoice, {Name: "x.exe", Content: []byte("MZ\x90\x00")}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Receive(context.Background(), testActor, req.ID, receiveInput(1), tc.files)
			assert.True(t, apperror.Is(err, apperror.CodePolicyViolation), "got %v", err)
		})
	}
	assert.Equal(t, int64(0), countUnits(t, e, req.ProductGroupID))
}

func TestReceiveRejectsOversizedAttachment(t *testing.T) {
	e := newEnv(t)
	svc, _ := e.procurement(t)
	svc.maxFileBytes = 64
	req := newApprovedRequest(t, e, svc, 3)

	big := pdfInvoice
	big.Content = append(append([]byte{}, pdfInvoice.Content...), []byte(strings.Repeat("0", 128))...)
	_, err := svc.Receive(context.Background(), testActor, req.ID, receiveInput(1), []InvoiceUpload{big})
	assert.True(t, apperror.Is(err, apperror.CodePolicyViolation))
}

func TestReceiveValidatesInput(t *testing.T) {
	e := newEnv(t)
	svc, _ := e.procurement(t)
	req := newApprovedRequest(t, e, svc, 3)

	zero := receiveInput(0)
	_, err := svc.Receive(context.Background(), testActor, req.ID, zero, []InvoiceUpload{pdfInvoice})
	assert.True(t, apperror.Is(err, apperror.CodeValidation))

	noExpiry := receiveInput(1)
	noExpiry.ExpiryDate = time.Time{}
	_, err = svc.Receive(context.Background(), testActor, req.ID, noExpiry, []InvoiceUpload{pdfInvoice})
	assert.True(t, apperror.Is(err, apperror.CodeValidation))
}

func TestReceivePolicyFromSettings(t *testing.T) {
	e := newEnv(t)
	svc, _ := e.procurement(t)
	settings := NewSettingsService(e.settings, nil, nopLog)
	req := newApprovedRequest(t, e, svc, 10)

	limit := 3
	_, err := settings.UpdateSettings(context.Background(), testActor, SettingsPatch{Procurement: &ProcurementPatch{MaxReceiveQuantity: &limit}})
	require.NoError(t, err)
	_, err = svc.Receive(context.Background(), testActor, req.ID, receiveInput(4), []InvoiceUpload{pdfInvoice})
	assert.True(t, apperror.Is(err, apperror.CodePolicyViolation))

	limit = 100
	partial := false
	_, err = settings.UpdateSettings(context.Background(), testActor, SettingsPatch{Procurement: &ProcurementPatch{MaxReceiveQuantity: &limit, AllowPartialReceive: &partial}})
	require.NoError(t, err)
	_, err = svc.Receive(context.Background(), testActor, req.ID, receiveInput(4), []InvoiceUpload{pdfInvoice})
	assert.True(t, apperror.Is(err, apperror.CodePolicyViolation))

	res, err := svc.Receive(context.Background(), testActor, req.ID, receiveInput(10), []InvoiceUpload{pdfInvoice})
	require.NoError(t, err)
	assert.Equal(t, model.ProcurementReceived, res.Request.Status)
}

func TestOpenInvoiceFile(t *testing.T) {
	e := newEnv(t)
	svc, _ := e.procurement(t)
	req := newApprovedRequest(t, e, svc, 2)

	res, err := svc.Receive(context.Background(), testActor, req.ID, receiveInput(2), []InvoiceUpload{pdfInvoice})
	require.NoError(t, err)

	file, rc, err := svc.OpenInvoiceFile(context.Background(), req.ID, res.Invoice.ID, 0)
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, pdfInvoice.Content, body)
	assert.Equal(t, "application/pdf", file.MimeType)
	assert.Equal(t, "invoice.pdf", file.Name)

	_, _, err = svc.OpenInvoiceFile(context.Background(), req.ID, res.Invoice.ID, 3)
	assert.True(t, apperror.Is(err, apperror.CodeNotFound))

	_, _, err = svc.OpenInvoiceFile(context.Background(), uuid.New(), res.Invoice.ID, 0)
	assert.True(t, apperror.Is(err, apperror.CodeNotFound))
}

func TestListRequestsNewestFirst(t *testing.T) {
	e := newEnv(t)
	svc, _ := e.procurement(t)
	g := e.group(t, "Shampoo", 5)
	for i := 1; i <= 3; i++ {
		_, err := svc.CreateRequest(context.Background(), testActor, CreateRequestInput{ProductGroupID: g.ID, Purpose: "RETAIL", RequestedQty: i})
		require.NoError(t, err)
	}

	reqs, err := svc.ListRequests(context.Background())
	require.NoError(t, err)
	require.Len(t, reqs, 3)
	assert.Equal(t, 3, reqs[0].RequestedQty)
	require.NotNil(t, reqs[0].ProductGroup)
	assert.Equal(t, "Shampoo", reqs[0].ProductGroup.ProductName)
}

package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Purpose string

const (
	PurposeRetail  Purpose = "RETAIL"
	PurposeInhouse Purpose = "INHOUSE"
)

type ProcurementStatus string

// PENDING -> APPROVED -> PARTIALLY_RECEIVED* -> RECEIVED
const (
	ProcurementPending           ProcurementStatus = "PENDING"
	ProcurementApproved          ProcurementStatus = "APPROVED"
	ProcurementPartiallyReceived ProcurementStatus = "PARTIALLY_RECEIVED"
	ProcurementReceived          ProcurementStatus = "RECEIVED"
)

// Receivable reports whether receive() may run from this state.
func (s ProcurementStatus) Receivable() bool {
	return s == ProcurementApproved || s == ProcurementPartiallyReceived
}

type ProcurementRequest struct {
	BaseModel
	ProductGroupID       uuid.UUID           `gorm:"type:uuid;not null;index" json:"product_group_id"`
	ProductGroup         *ProductGroup       `gorm:"foreignKey:ProductGroupID" json:"product_group,omitempty"`
	Purpose              Purpose             `gorm:"type:varchar(10);not null" json:"purpose"`
	RequestedQty         int                 `gorm:"not null" json:"requested_qty"`
	ApprovedQty          int                 `gorm:"not null" json:"approved_qty"`
	ReceivedQty          int                 `gorm:"not null" json:"received_qty"`
	EstimatedPrice       decimal.NullDecimal `gorm:"type:numeric(12,2)" json:"estimated_price"`
	ExpectedDeliveryDate *time.Time          `json:"expected_delivery_date,omitempty"`
	Remarks              string              `gorm:"type:text" json:"remarks,omitempty"`
	Status               ProcurementStatus   `gorm:"type:varchar(20);not null;index" json:"status"`
	RequestedBy          string              `gorm:"type:varchar(64);not null" json:"requested_by"`
	ApprovedBy           string              `gorm:"type:varchar(64)" json:"approved_by,omitempty"`
	ApprovedAt           *time.Time          `json:"approved_at,omitempty"`
}

// Remaining is how many units may still be received.
func (r *ProcurementRequest) Remaining() int {
	if r.ApprovedQty <= r.ReceivedQty {
		return 0
	}
	return r.ApprovedQty - r.ReceivedQty
}

// ProcurementReceipt is an append-only record of one receiving event.
type ProcurementReceipt struct {
	BaseModel
	ProcurementID uuid.UUID       `gorm:"type:uuid;not null;index" json:"procurement_id"`
	Quantity      int             `gorm:"not null" json:"quantity"`
	SKUSuffix     string          `gorm:"column:sku_suffix;type:varchar(40);not null" json:"sku_suffix"`
	ExpiryDate    time.Time       `gorm:"not null" json:"expiry_date"`
	StockedDate   time.Time       `gorm:"not null" json:"stocked_date"`
	CostPrice     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"cost_price"`
	ReceivedBy    string          `gorm:"type:varchar(64);not null" json:"received_by"`
}

// InvoiceFile describes one stored supplier invoice attachment.
type InvoiceFile struct {
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
	Size     int64  `json:"size"`
	Path     string `json:"path"`
}

// Invoice holds the supplier paperwork for one receipt.
type Invoice struct {
	BaseModel
	ProcurementID uuid.UUID     `gorm:"type:uuid;not null;index" json:"procurement_id"`
	ReceiptID     uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex" json:"receipt_id"`
	Files         []InvoiceFile `gorm:"serializer:json;type:text" json:"files"`
	UploadedBy    string        `gorm:"type:varchar(64);not null" json:"uploaded_by"`
}

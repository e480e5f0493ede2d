package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SalesInvoice is immutable once created.
type SalesInvoice struct {
	BaseModel
	InvoiceNumber string             `gorm:"type:varchar(40);uniqueIndex;not null" json:"invoice_number"`
	CustomerName  string             `gorm:"type:varchar(255);not null" json:"customer_name"`
	CustomerEmail string             `gorm:"type:varchar(255)" json:"customer_email,omitempty"`
	Items         []SalesInvoiceItem `gorm:"foreignKey:SalesInvoiceID" json:"items"`
	Subtotal      decimal.Decimal    `gorm:"type:numeric(14,2);not null" json:"subtotal"`
	TaxRate       decimal.Decimal    `gorm:"type:numeric(5,2);not null" json:"tax_rate"`
	TaxAmount     decimal.Decimal    `gorm:"type:numeric(14,2);not null" json:"tax_amount"`
	TotalAmount   decimal.Decimal    `gorm:"type:numeric(14,2);not null" json:"total_amount"`
	Notes         string             `gorm:"type:text" json:"notes,omitempty"`
}

type SalesInvoiceItem struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey" json:"-"`
	SalesInvoiceID uuid.UUID       `gorm:"type:uuid;not null;index" json:"-"`
	Position       int             `gorm:"not null" json:"-"`
	Description    string          `gorm:"type:varchar(255);not null" json:"description"`
	Quantity       int             `gorm:"not null" json:"quantity"`
	UnitPrice      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unit_price"`
	LineTotal      decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"line_total"`
}

func (item *SalesInvoiceItem) BeforeCreate(tx *gorm.DB) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	return nil
}

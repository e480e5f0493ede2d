package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type UnitStatus string

const (
	UnitActive   UnitStatus = "ACTIVE"
	UnitExpired  UnitStatus = "EXPIRED"
	UnitConsumed UnitStatus = "CONSUMED"
)

func (s UnitStatus) Valid() bool {
	switch s {
	case UnitActive, UnitExpired, UnitConsumed:
		return true
	}
	return false
}

// Consumption reasons. The field is free-form; these are the recognized categories.
const (
	ReasonSales    = "SALES"
	ReasonService  = "SERVICE"
	ReasonInternal = "INTERNAL"
	ReasonDamaged  = "DAMAGED"
	ReasonManual   = "MANUAL"
)

// InventoryUnit is one physical item. Units are never deleted.
type InventoryUnit struct {
	BaseModel
	ProductGroupID uuid.UUID       `gorm:"type:uuid;not null;index:idx_unit_fifo,priority:1" json:"product_group_id"`
	ProductGroup   *ProductGroup   `gorm:"foreignKey:ProductGroupID" json:"product_group,omitempty"`
	SKU            string          `gorm:"column:sku;type:varchar(80);uniqueIndex;not null" json:"sku"`
	ExpiryDate     time.Time       `gorm:"not null;index:idx_unit_fifo,priority:3" json:"expiry_date"`
	StockedDate    time.Time       `gorm:"not null;index:idx_unit_fifo,priority:4" json:"stocked_date"`
	CostPrice      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"cost_price"`
	Status         UnitStatus      `gorm:"type:varchar(12);not null;index:idx_unit_fifo,priority:2" json:"status"`
	ConsumedAt     *time.Time      `json:"consumed_at,omitempty"`
	ConsumedReason string          `gorm:"type:varchar(32)" json:"consumed_reason,omitempty"`

	// Set when the unit came from a procurement receipt.
	ReceiptID *uuid.UUID `gorm:"type:uuid;index" json:"receipt_id,omitempty"`
}

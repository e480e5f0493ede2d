package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel handles ID (UUID) and the audit trail. Records are never hard-deleted.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CreatedBy string `gorm:"type:varchar(64)" json:"created_by,omitempty"`
	UpdatedBy string `gorm:"type:varchar(64)" json:"updated_by,omitempty"`
}

// BeforeCreate assigns an ID unless the caller already chose one.
func (base *BaseModel) BeforeCreate(tx *gorm.DB) (err error) {
	if base.ID == uuid.Nil {
		base.ID = uuid.New()
	}
	return
}

// AllModels lists every table managed by AutoMigrate.
func AllModels() []interface{} {
	return []interface{}{
		&Privilege{},
		&Role{},
		&User{},
		&ProductGroup{},
		&ProcurementRequest{},
		&ProcurementReceipt{},
		&Invoice{},
		&InventoryUnit{},
		&SalesInvoice{},
		&SalesInvoiceItem{},
		&Settings{},
	}
}

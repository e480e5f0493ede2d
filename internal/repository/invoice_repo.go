package repository

import (
	"context"

	"salon-inventory/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InvoiceRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error)
	FindByProcurement(ctx context.Context, procurementID uuid.UUID) ([]model.Invoice, error)
	// FirstByProcurement returns the earliest invoice per request, keyed by request id.
	FirstByProcurement(ctx context.Context) (map[uuid.UUID]model.Invoice, error)
	Create(tx *gorm.DB, invoice *model.Invoice) error
}

type invoiceRepo struct {
	db *gorm.DB
}

func NewInvoiceRepo(db *gorm.DB) InvoiceRepository {
	return &invoiceRepo{db}
}

func (r *invoiceRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	var inv model.Invoice
	if err := r.db.WithContext(ctx).First(&inv, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *invoiceRepo) FindByProcurement(ctx context.Context, procurementID uuid.UUID) ([]model.Invoice, error) {
	var invoices []model.Invoice
	err := r.db.WithContext(ctx).
		Where("procurement_id = ?", procurementID).
		Order("created_at ASC").
		Find(&invoices).Error
	return invoices, err
}

func (r *invoiceRepo) FirstByProcurement(ctx context.Context) (map[uuid.UUID]model.Invoice, error) {
	var invoices []model.Invoice
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&invoices).Error; err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]model.Invoice)
	for _, inv := range invoices {
		if _, seen := out[inv.ProcurementID]; !seen {
			out[inv.ProcurementID] = inv
		}
	}
	return out, nil
}

func (r *invoiceRepo) Create(tx *gorm.DB, invoice *model.Invoice) error {
	return tx.Create(invoice).Error
}

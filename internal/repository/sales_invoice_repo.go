package repository

import (
	"context"

	"salon-inventory/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SalesInvoiceRepository interface {
	Create(ctx context.Context, invoice *model.SalesInvoice) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.SalesInvoice, error)
	FindAll(ctx context.Context) ([]model.SalesInvoice, error)
	NumberExists(ctx context.Context, number string) (bool, error)
}

type salesInvoiceRepo struct {
	db *gorm.DB
}

func NewSalesInvoiceRepo(db *gorm.DB) SalesInvoiceRepository {
	return &salesInvoiceRepo{db}
}

// Create inserts the invoice with its items in one transaction.
func (r *salesInvoiceRepo) Create(ctx context.Context, invoice *model.SalesInvoice) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(invoice).Error
	})
}

func (r *salesInvoiceRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.SalesInvoice, error) {
	var invoice model.SalesInvoice
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		First(&invoice, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *salesInvoiceRepo) FindAll(ctx context.Context) ([]model.SalesInvoice, error) {
	var invoices []model.SalesInvoice
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Order("created_at DESC").
		Find(&invoices).Error
	return invoices, err
}

func (r *salesInvoiceRepo) NumberExists(ctx context.Context, number string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.SalesInvoice{}).Where("invoice_number = ?", number).Count(&n).Error
	return n > 0, err
}

package repository

import (
	"context"
	"time"

	"salon-inventory/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProcurementRepository interface {
	Create(ctx context.Context, req *model.ProcurementRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.ProcurementRequest, error)
	FindAll(ctx context.Context) ([]model.ProcurementRequest, error)
	CountByStatus(ctx context.Context, status model.ProcurementStatus) (int64, error)
	ListReceipts(ctx context.Context, procurementID uuid.UUID) ([]model.ProcurementReceipt, error)

	Approve(tx *gorm.DB, id uuid.UUID, approvedQty int, actor string, at time.Time) (int64, error)
	IncrementReceived(tx *gorm.DB, id uuid.UUID, qty int, actor string) (int64, error)
	CreateReceipt(tx *gorm.DB, receipt *model.ProcurementReceipt) error
}

type procurementRepo struct {
	db *gorm.DB
}

func NewProcurementRepo(db *gorm.DB) ProcurementRepository {
	return &procurementRepo{db}
}

func (r *procurementRepo) Create(ctx context.Context, req *model.ProcurementRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *procurementRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.ProcurementRequest, error) {
	var req model.ProcurementRequest
	if err := r.db.WithContext(ctx).Preload("ProductGroup").First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *procurementRepo) FindAll(ctx context.Context) ([]model.ProcurementRequest, error) {
	var reqs []model.ProcurementRequest
	err := r.db.WithContext(ctx).Preload("ProductGroup").Order("created_at DESC").Find(&reqs).Error
	return reqs, err
}

func (r *procurementRepo) CountByStatus(ctx context.Context, status model.ProcurementStatus) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.ProcurementRequest{}).Where("status = ?", status).Count(&n).Error
	return n, err
}

func (r *procurementRepo) ListReceipts(ctx context.Context, procurementID uuid.UUID) ([]model.ProcurementReceipt, error) {
	var receipts []model.ProcurementReceipt
	err := r.db.WithContext(ctx).
		Where("procurement_id = ?", procurementID).
		Order("created_at ASC").
		Find(&receipts).Error
	return receipts, err
}

// Approve only matches a PENDING row, so a second approval affects nothing.
func (r *procurementRepo) Approve(tx *gorm.DB, id uuid.UUID, approvedQty int, actor string, at time.Time) (int64, error) {
	res := tx.Model(&model.ProcurementRequest{}).
		Where("id = ? AND status = ?", id, model.ProcurementPending).
		Updates(map[string]interface{}{
			"approved_qty": approvedQty,
			"status":       model.ProcurementApproved,
			"approved_by":  actor,
			"approved_at":  at,
			"updated_by":   actor,
		})
	return res.RowsAffected, res.Error
}

// IncrementReceived is the over-receipt guard: the row is only updated while it
// is receivable and the new total stays within approved_qty.
func (r *procurementRepo) IncrementReceived(tx *gorm.DB, id uuid.UUID, qty int, actor string) (int64, error) {
	res := tx.Model(&model.ProcurementRequest{}).
		Where("id = ? AND status IN ? AND received_qty + ? <= approved_qty", id,
			[]model.ProcurementStatus{model.ProcurementApproved, model.ProcurementPartiallyReceived}, qty).
		Updates(map[string]interface{}{
			"received_qty": gorm.Expr("received_qty + ?", qty),
			"status": gorm.Expr("CASE WHEN received_qty + ? >= approved_qty THEN ? ELSE ? END",
				qty, model.ProcurementReceived, model.ProcurementPartiallyReceived),
			"updated_by": actor,
		})
	return res.RowsAffected, res.Error
}

func (r *procurementRepo) CreateReceipt(tx *gorm.DB, receipt *model.ProcurementReceipt) error {
	return tx.Create(receipt).Error
}

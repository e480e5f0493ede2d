package repository

import (
	"context"
	"time"

	"salon-inventory/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UnitFilter narrows ListUnits. Zero values mean "any".
type UnitFilter struct {
	ProductGroupID uuid.UUID
	Status         model.UnitStatus
	Limit          int
}

// ActiveExpiry is one ACTIVE unit reduced to what the stock summary needs.
type ActiveExpiry struct {
	ProductGroupID uuid.UUID
	ExpiryDate     time.Time
}

// GroupCount is an aggregate count of ACTIVE units for one product group.
type GroupCount struct {
	ProductGroupID uuid.UUID
	Count          int64
}

type InventoryUnitRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.InventoryUnit, error)
	List(ctx context.Context, filter UnitFilter) ([]model.InventoryUnit, error)
	ListAllWithGroup(ctx context.Context) ([]model.InventoryUnit, error)
	ActiveExpiries(ctx context.Context) ([]ActiveExpiry, error)
	ActiveCountsByGroup(ctx context.Context) ([]GroupCount, error)
	CountExpired(ctx context.Context, now time.Time) (int64, error)
	ExpiringBetween(ctx context.Context, from, to time.Time, limit int) ([]model.InventoryUnit, error)
	StockedBetween(ctx context.Context, from, to time.Time) ([]time.Time, error)
	ConsumedBetween(ctx context.Context, from, to time.Time) ([]time.Time, error)

	// Transactional operations.
	CreateBatch(tx *gorm.DB, units []model.InventoryUnit) error
	ExistingSKUs(tx *gorm.DB, skus []string) ([]string, error)
	SelectFIFO(tx *gorm.DB, productGroupID uuid.UUID, limit int) ([]model.InventoryUnit, error)
	MarkConsumed(tx *gorm.DB, ids []uuid.UUID, at time.Time, reason, actor string) (int64, error)
	OverrideStatus(tx *gorm.DB, id uuid.UUID, status model.UnitStatus, at time.Time, reason, actor string) (int64, error)
}

type inventoryUnitRepo struct {
	db *gorm.DB
}

func NewInventoryUnitRepo(db *gorm.DB) InventoryUnitRepository {
	return &inventoryUnitRepo{db}
}

// fifoOrder is the consumption order: earliest expiry, then earliest stocked, then id for stability.
const fifoOrder = "expiry_date ASC, stocked_date ASC, id ASC"

func (r *inventoryUnitRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.InventoryUnit, error) {
	var unit model.InventoryUnit
	if err := r.db.WithContext(ctx).Preload("ProductGroup").First(&unit, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &unit, nil
}

func (r *inventoryUnitRepo) List(ctx context.Context, filter UnitFilter) ([]model.InventoryUnit, error) {
	q := r.db.WithContext(ctx).Preload("ProductGroup")
	if filter.ProductGroupID != uuid.Nil {
		q = q.Where("product_group_id = ?", filter.ProductGroupID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	var units []model.InventoryUnit
	err := q.Order(fifoOrder).Find(&units).Error
	return units, err
}

func (r *inventoryUnitRepo) ListAllWithGroup(ctx context.Context) ([]model.InventoryUnit, error) {
	var units []model.InventoryUnit
	err := r.db.WithContext(ctx).Preload("ProductGroup").Order("stocked_date ASC, sku ASC").Find(&units).Error
	return units, err
}

func (r *inventoryUnitRepo) ActiveExpiries(ctx context.Context) ([]ActiveExpiry, error) {
	var rows []ActiveExpiry
	err := r.db.WithContext(ctx).Model(&model.InventoryUnit{}).
		Select("product_group_id, expiry_date").
		Where("status = ?", model.UnitActive).
		Scan(&rows).Error
	return rows, err
}

func (r *inventoryUnitRepo) ActiveCountsByGroup(ctx context.Context) ([]GroupCount, error) {
	var rows []GroupCount
	err := r.db.WithContext(ctx).Model(&model.InventoryUnit{}).
		Select("product_group_id, COUNT(*) AS count").
		Where("status = ?", model.UnitActive).
		Group("product_group_id").
		Scan(&rows).Error
	return rows, err
}

func (r *inventoryUnitRepo) CountExpired(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.InventoryUnit{}).
		Where("status = ? AND expiry_date < ?", model.UnitActive, now).
		Count(&n).Error
	return n, err
}

func (r *inventoryUnitRepo) ExpiringBetween(ctx context.Context, from, to time.Time, limit int) ([]model.InventoryUnit, error) {
	var units []model.InventoryUnit
	err := r.db.WithContext(ctx).Preload("ProductGroup").
		Where("status = ? AND expiry_date >= ? AND expiry_date <= ?", model.UnitActive, from, to).
		Order(fifoOrder).
		Limit(limit).
		Find(&units).Error
	return units, err
}

func (r *inventoryUnitRepo) StockedBetween(ctx context.Context, from, to time.Time) ([]time.Time, error) {
	var out []time.Time
	err := r.db.WithContext(ctx).Model(&model.InventoryUnit{}).
		Where("stocked_date BETWEEN ? AND ?", from, to).
		Pluck("stocked_date", &out).Error
	return out, err
}

func (r *inventoryUnitRepo) ConsumedBetween(ctx context.Context, from, to time.Time) ([]time.Time, error) {
	var out []time.Time
	err := r.db.WithContext(ctx).Model(&model.InventoryUnit{}).
		Where("status = ? AND consumed_at BETWEEN ? AND ?", model.UnitConsumed, from, to).
		Pluck("consumed_at", &out).Error
	return out, err
}

func (r *inventoryUnitRepo) CreateBatch(tx *gorm.DB, units []model.InventoryUnit) error {
	if len(units) == 0 {
		return nil
	}
	return tx.CreateInBatches(&units, 100).Error
}

func (r *inventoryUnitRepo) ExistingSKUs(tx *gorm.DB, skus []string) ([]string, error) {
	var found []string
	if len(skus) == 0 {
		return found, nil
	}
	err := tx.Model(&model.InventoryUnit{}).Where("sku IN ?", skus).Pluck("sku", &found).Error
	return found, err
}

func (r *inventoryUnitRepo) SelectFIFO(tx *gorm.DB, productGroupID uuid.UUID, limit int) ([]model.InventoryUnit, error) {
	var units []model.InventoryUnit
	err := tx.Where("product_group_id = ? AND status = ?", productGroupID, model.UnitActive).
		Order(fifoOrder).
		Limit(limit).
		Find(&units).Error
	return units, err
}

// MarkConsumed only touches rows that are still ACTIVE; the caller compares
// the affected count with len(ids) to detect a concurrent consumer.
func (r *inventoryUnitRepo) MarkConsumed(tx *gorm.DB, ids []uuid.UUID, at time.Time, reason, actor string) (int64, error) {
	res := tx.Model(&model.InventoryUnit{}).
		Where("id IN ? AND status = ?", ids, model.UnitActive).
		Updates(map[string]interface{}{
			"status":          model.UnitConsumed,
			"consumed_at":     at,
			"consumed_reason": reason,
			"updated_by":      actor,
		})
	return res.RowsAffected, res.Error
}

func (r *inventoryUnitRepo) OverrideStatus(tx *gorm.DB, id uuid.UUID, status model.UnitStatus, at time.Time, reason, actor string) (int64, error) {
	updates := map[string]interface{}{
		"status":     status,
		"updated_by": actor,
	}
	switch status {
	case model.UnitConsumed:
		updates["consumed_at"] = at
		updates["consumed_reason"] = reason
	case model.UnitActive:
		updates["consumed_at"] = nil
		updates["consumed_reason"] = ""
	}
	res := tx.Model(&model.InventoryUnit{}).Where("id = ?", id).Updates(updates)
	return res.RowsAffected, res.Error
}

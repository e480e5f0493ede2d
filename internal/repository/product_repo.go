package repository

import (
	"context"
	"errors"

	"salon-inventory/internal/model"
	"salon-inventory/pkg/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProductGroupRepository interface {
	Create(ctx context.Context, group *model.ProductGroup) error
	FindAll(ctx context.Context) ([]model.ProductGroup, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.ProductGroup, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.ProductGroup, error)
	Count(ctx context.Context) (int64, error)
	// FindByIdentity and FindOrCreate accept a tx so import and receive can share one transaction.
	FindByIdentity(tx *gorm.DB, identity model.ProductIdentity) (*model.ProductGroup, error)
	FindOrCreate(tx *gorm.DB, identity model.ProductIdentity, lowStockThreshold int) (*model.ProductGroup, bool, error)
}

type productGroupRepo struct {
	db *gorm.DB
}

func NewProductGroupRepo(db *gorm.DB) ProductGroupRepository {
	return &productGroupRepo{db}
}

func (r *productGroupRepo) Create(ctx context.Context, group *model.ProductGroup) error {
	return r.db.WithContext(ctx).Create(group).Error
}

func (r *productGroupRepo) FindAll(ctx context.Context) ([]model.ProductGroup, error) {
	var groups []model.ProductGroup
	err := r.db.WithContext(ctx).
		Order("brand_name ASC, product_name ASC, quantity_per_item ASC").
		Find(&groups).Error
	return groups, err
}

func (r *productGroupRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.ProductGroup, error) {
	var group model.ProductGroup
	if err := r.db.WithContext(ctx).First(&group, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *productGroupRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.ProductGroup, error) {
	out := make(map[uuid.UUID]model.ProductGroup, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var groups []model.ProductGroup
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&groups).Error; err != nil {
		return nil, err
	}
	for _, g := range groups {
		out[g.ID] = g
	}
	return out, nil
}

func (r *productGroupRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.ProductGroup{}).Count(&n).Error
	return n, err
}

func (r *productGroupRepo) FindByIdentity(tx *gorm.DB, identity model.ProductIdentity) (*model.ProductGroup, error) {
	var group model.ProductGroup
	err := tx.Where(
		"brand_name = ? AND sub_category = ? AND product_name = ? AND quantity_per_item = ? AND unit = ? AND selling_price = ?",
		identity.BrandName, identity.SubCategory, identity.ProductName,
		identity.QuantityPerItem, identity.Unit, identity.SellingPrice,
	).First(&group).Error
	if err != nil {
		return nil, err
	}
	return &group, nil
}

// FindOrCreate looks the tuple up and inserts it only when absent. A concurrent
// insert of the same tuple loses on the unique index and re-reads the winner.
func (r *productGroupRepo) FindOrCreate(tx *gorm.DB, identity model.ProductIdentity, lowStockThreshold int) (*model.ProductGroup, bool, error) {
	existing, err := r.FindByIdentity(tx, identity)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	group := model.NewProductGroup(identity, lowStockThreshold)
	createErr := tx.Transaction(func(inner *gorm.DB) error {
		return inner.Create(group).Error
	})
	if createErr == nil {
		return group, true, nil
	}
	if !database.IsUniqueViolation(createErr) {
		return nil, false, createErr
	}
	existing, err = r.FindByIdentity(tx, identity)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

package service

import (
	"context"
	"fmt"
	"time"

	"salon-inventory/internal/model"
	"salon-inventory/internal/repository"
	"salon-inventory/internal/ws"
	"salon-inventory/pkg/apperror"
	"salon-inventory/pkg/database"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type CatalogService interface {
	CreateProductGroup(ctx context.Context, actor Actor, input CreateProductGroupInput) (*model.ProductGroup, error)
	FindOrCreateProductGroup(ctx context.Context, identity model.ProductIdentity, lowStockThreshold int) (*model.ProductGroup, bool, error)
	ListWithStockSummary(ctx context.Context) ([]ProductGroupSummary, error)
	GetProductGroup(ctx context.Context, id uuid.UUID) (*model.ProductGroup, error)
	ListUnits(ctx context.Context, filter UnitListFilter) ([]model.InventoryUnit, error)
}

type CreateProductGroupInput struct {
	model.ProductIdentity
	LowStockThreshold int `json:"low_stock_threshold" validate:"gte=0"`
}

type UnitListFilter struct {
	ProductGroupID uuid.UUID
	Status         string
}

// ProductGroupSummary is a group plus its live ACTIVE stock, recomputed on every read.
type ProductGroupSummary struct {
	model.ProductGroup
	ActiveUnits    int        `json:"active_units"`
	EarliestExpiry *time.Time `json:"earliest_expiry"`
	LowStock       bool       `json:"low_stock"`
}

type catalogService struct {
	groupRepo repository.ProductGroupRepository
	unitRepo  repository.InventoryUnitRepository
	db        *gorm.DB
	wsHub     *ws.Hub
	log       zerolog.Logger
}

func NewCatalogService(groupRepo repository.ProductGroupRepository, unitRepo repository.InventoryUnitRepository, db *gorm.DB, hub *ws.Hub, log zerolog.Logger) CatalogService {
	return &catalogService{
		groupRepo: groupRepo,
		unitRepo:  unitRepo,
		db:        db,
		wsHub:     hub,
		log:       log.With().Str("component", "catalog").Logger(),
	}
}

func (s *catalogService) CreateProductGroup(ctx context.Context, actor Actor, input CreateProductGroupInput) (*model.ProductGroup, error) {
	input.ProductIdentity = input.ProductIdentity.Normalize()
	if err := validate(&input); err != nil {
		return nil, err
	}

	group := model.NewProductGroup(input.ProductIdentity, input.LowStockThreshold)
	group.CreatedBy = actor.ID
	group.UpdatedBy = actor.ID

	if err := s.groupRepo.Create(ctx, group); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperror.Wrap(apperror.CodeDuplicateKey, err, "a product group with the same brand, category, name, size, unit and price already exists")
		}
		return nil, storeError(err, "product group")
	}

	s.log.Info().Str("product_group_id", group.ID.String()).Str("actor", actor.ID).Msg("product group created")
	s.wsHub.Publish(map[string]interface{}{
		"type":   ws.EventStockUpdate,
		"action": "product_group_created",
		"product_group": map[string]interface{}{
			"id":           group.ID,
			"brand_name":   group.BrandName,
			"product_name": group.ProductName,
		},
		"user":    actor.userInfo(),
		"message": fmt.Sprintf("%s created product group '%s %s'", actor.Name, group.BrandName, group.ProductName),
	})
	return group, nil
}

func (s *catalogService) FindOrCreateProductGroup(ctx context.Context, identity model.ProductIdentity, lowStockThreshold int) (*model.ProductGroup, bool, error) {
	identity = identity.Normalize()
	if err := validate(&identity); err != nil {
		return nil, false, err
	}
	group, created, err := s.groupRepo.FindOrCreate(s.db.WithContext(ctx), identity, lowStockThreshold)
	if err != nil {
		return nil, false, storeError(err, "product group")
	}
	return group, created, nil
}

func (s *catalogService) ListWithStockSummary(ctx context.Context) ([]ProductGroupSummary, error) {
	groups, err := s.groupRepo.FindAll(ctx)
	if err != nil {
		return nil, storeError(err, "product group")
	}
	expiries, err := s.unitRepo.ActiveExpiries(ctx)
	if err != nil {
		return nil, storeError(err, "inventory unit")
	}

	counts := make(map[uuid.UUID]int, len(groups))
	earliest := make(map[uuid.UUID]time.Time, len(groups))
	for _, row := range expiries {
		counts[row.ProductGroupID]++
		if cur, ok := earliest[row.ProductGroupID]; !ok || row.ExpiryDate.Before(cur) {
			earliest[row.ProductGroupID] = row.ExpiryDate
		}
	}

	out := make([]ProductGroupSummary, 0, len(groups))
	for _, g := range groups {
		summary := ProductGroupSummary{
			ProductGroup: g,
			ActiveUnits:  counts[g.ID],
			LowStock:     counts[g.ID] <= g.LowStockThreshold,
		}
		if exp, ok := earliest[g.ID]; ok {
			exp := exp
			summary.EarliestExpiry = &exp
		}
		out = append(out, summary)
	}
	return out, nil
}

func (s *catalogService) GetProductGroup(ctx context.Context, id uuid.UUID) (*model.ProductGroup, error) {
	group, err := s.groupRepo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "product group")
	}
	return group, nil
}

func (s *catalogService) ListUnits(ctx context.Context, filter UnitListFilter) ([]model.InventoryUnit, error) {
	status := model.UnitStatus(filter.Status)
	if status != "" && !status.Valid() {
		return nil, apperror.Validation("status must be one of ACTIVE, EXPIRED, CONSUMED")
	}
	units, err := s.unitRepo.List(ctx, repository.UnitFilter{ProductGroupID: filter.ProductGroupID, Status: status})
	if err != nil {
		return nil, storeError(err, "inventory unit")
	}
	return units, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"salon-inventory/internal/model"
	"salon-inventory/internal/repository"
	"salon-inventory/internal/ws"
	"salon-inventory/pkg/apperror"
	"salon-inventory/pkg/metrics"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// maxConsumeAttempts bounds retries when a concurrent consumer wins some of the selected units.
const maxConsumeAttempts = 3

var errUnitsRaced = errors.New("selected units changed during consumption")

type InventoryService interface {
	SelectForConsumption(ctx context.Context, actor Actor, input ConsumeInput) (*ConsumeResult, error)
	ConsumeSingleUnit(ctx context.Context, actor Actor, unitID uuid.UUID, reason string) (*model.InventoryUnit, error)
	MarkUnitStatus(ctx context.Context, actor Actor, unitID uuid.UUID, status model.UnitStatus) (*model.InventoryUnit, error)
}

type ConsumeInput struct {
	ProductGroupID uuid.UUID `json:"product_group_id" validate:"uuid_required"`
	Quantity       int       `json:"quantity" validate:"gt=0"`
	Reason         string    `json:"reason" validate:"omitempty,max=32"`
}

type ConsumeResult struct {
	UnitIDs []uuid.UUID `json:"unit_ids"`
	Count   int         `json:"count"`
}

type inventoryService struct {
	unitRepo  repository.InventoryUnitRepository
	groupRepo repository.ProductGroupRepository
	db        *gorm.DB
	wsHub     *ws.Hub
	metrics   *metrics.InventoryMetrics
	log       zerolog.Logger
	now       func() time.Time
}

func NewInventoryService(unitRepo repository.InventoryUnitRepository, groupRepo repository.ProductGroupRepository, db *gorm.DB, hub *ws.Hub, m *metrics.InventoryMetrics, log zerolog.Logger) InventoryService {
	return &inventoryService{
		unitRepo:  unitRepo,
		groupRepo: groupRepo,
		db:        db,
		wsHub:     hub,
		metrics:   m,
		log:       log.With().Str("component", "inventory").Logger(),
		now:       time.Now,
	}
}

func normalizeReason(reason, fallback string) string {
	reason = strings.ToUpper(strings.TrimSpace(reason))
	if reason == "" {
		return fallback
	}
	return reason
}

func (s *inventoryService) SelectForConsumption(ctx context.Context, actor Actor, input ConsumeInput) (*ConsumeResult, error) {
	if err := validate(&input); err != nil {
		return nil, err
	}
	reason := normalizeReason(input.Reason, model.ReasonSales)

	group, err := s.groupRepo.FindByID(ctx, input.ProductGroupID)
	if err != nil {
		return nil, storeError(err, "product group")
	}

	var selected []model.InventoryUnit
	for attempt := 1; attempt <= maxConsumeAttempts; attempt++ {
		selected = nil
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			// 1. Oldest-expiring ACTIVE units first
			units, err := s.unitRepo.SelectFIFO(tx, input.ProductGroupID, input.Quantity)
			if err != nil {
				return err
			}
			if len(units) < input.Quantity {
				return apperror.InsufficientStock(input.Quantity, len(units))
			}

			// 2. Conditioned on ACTIVE so a concurrent consumer cannot take the same unit twice
			ids := make([]uuid.UUID, len(units))
			for i, u := range units {
				ids[i] = u.ID
			}
			affected, err := s.unitRepo.MarkConsumed(tx, ids, s.now(), reason, actor.ID)
			if err != nil {
				return err
			}
			if int(affected) != len(ids) {
				return errUnitsRaced
			}
			selected = units
			return nil
		})
		if !errors.Is(err, errUnitsRaced) {
			break
		}
		s.metrics.FIFOConflict()
		s.log.Warn().Int("attempt", attempt).Str("product_group_id", input.ProductGroupID.String()).Msg("fifo selection raced, retrying")
	}
	if errors.Is(err, errUnitsRaced) {
		return nil, apperror.Wrap(apperror.CodeConflict, err, "stock changed concurrently, please retry")
	}
	if err != nil {
		return nil, storeError(err, "inventory unit")
	}

	result := &ConsumeResult{UnitIDs: make([]uuid.UUID, len(selected)), Count: len(selected)}
	skus := make([]string, len(selected))
	for i, u := range selected {
		result.UnitIDs[i] = u.ID
		skus[i] = u.SKU
	}

	s.metrics.UnitsConsumed(reason, result.Count)
	s.log.Info().
		Str("product_group_id", group.ID.String()).
		Int("quantity", result.Count).
		Str("reason", reason).
		Str("actor", actor.ID).
		Msg("units consumed")

	s.wsHub.Publish(map[string]interface{}{
		"type":   ws.EventStockUpdate,
		"action": "units_consumed",
		"consumption": map[string]interface{}{
			"product_group_id": group.ID,
			"product_name":     group.ProductName,
			"quantity":         result.Count,
			"reason":           reason,
			"skus":             skus,
		},
		"user":    actor.userInfo(),
		"message": fmt.Sprintf("%s consumed %d units of '%s' (%s)", actor.Name, result.Count, group.ProductName, reason),
	})
	return result, nil
}

func (s *inventoryService) ConsumeSingleUnit(ctx context.Context, actor Actor, unitID uuid.UUID, reason string) (*model.InventoryUnit, error) {
	if unitID == uuid.Nil {
		return nil, apperror.Validation("unit id is required")
	}
	reason = normalizeReason(reason, model.ReasonManual)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		affected, err := s.unitRepo.MarkConsumed(tx, []uuid.UUID{unitID}, s.now(), reason, actor.ID)
		if err != nil {
			return err
		}
		if affected == 1 {
			return nil
		}
		// Nothing updated: either the unit is missing or it is no longer ACTIVE.
		var current model.InventoryUnit
		if err := tx.Select("id", "status").First(&current, "id = ?", unitID).Error; err != nil {
			return err
		}
		return apperror.InvalidState(fmt.Sprintf("unit is %s, only ACTIVE units can be consumed", current.Status))
	})
	if err != nil {
		return nil, storeError(err, "inventory unit")
	}

	unit, err := s.unitRepo.FindByID(ctx, unitID)
	if err != nil {
		return nil, storeError(err, "inventory unit")
	}

	s.metrics.UnitsConsumed(reason, 1)
	s.log.Info().Str("unit_id", unitID.String()).Str("sku", unit.SKU).Str("reason", reason).Str("actor", actor.ID).Msg("unit consumed")
	s.wsHub.Publish(map[string]interface{}{
		"type":   ws.EventStockUpdate,
		"action": "unit_consumed",
		"unit": map[string]interface{}{
			"id":               unit.ID,
			"sku":              unit.SKU,
			"product_group_id": unit.ProductGroupID,
			"reason":           reason,
		},
		"user":    actor.userInfo(),
		"message": fmt.Sprintf("%s consumed unit %s (%s)", actor.Name, unit.SKU, reason),
	})
	return unit, nil
}

// MarkUnitStatus is an administrative override: any status may be set from any status.
func (s *inventoryService) MarkUnitStatus(ctx context.Context, actor Actor, unitID uuid.UUID, status model.UnitStatus) (*model.InventoryUnit, error) {
	status = model.UnitStatus(strings.ToUpper(strings.TrimSpace(string(status))))
	if !status.Valid() {
		return nil, apperror.Validation("status must be one of ACTIVE, EXPIRED, CONSUMED")
	}

	var previous model.UnitStatus
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current model.InventoryUnit
		if err := tx.First(&current, "id = ?", unitID).Error; err != nil {
			return err
		}
		previous = current.Status
		_, err := s.unitRepo.OverrideStatus(tx, unitID, status, s.now(), model.ReasonManual, actor.ID)
		return err
	})
	if err != nil {
		return nil, storeError(err, "inventory unit")
	}

	unit, err := s.unitRepo.FindByID(ctx, unitID)
	if err != nil {
		return nil, storeError(err, "inventory unit")
	}

	s.metrics.StatusOverride(string(status))
	s.log.Warn().
		Str("unit_id", unitID.String()).
		Str("sku", unit.SKU).
		Str("previous_status", string(previous)).
		Str("new_status", string(status)).
		Str("actor", actor.ID).
		Msg("unit status overridden")

	s.wsHub.Publish(map[string]interface{}{
		"type":   ws.EventStockUpdate,
		"action": "unit_status_overridden",
		"unit": map[string]interface{}{
			"id":              unit.ID,
			"sku":             unit.SKU,
			"previous_status": previous,
			"status":          status,
		},
		"user":    actor.userInfo(),
		"message": fmt.Sprintf("%s set unit %s from %s to %s", actor.Name, unit.SKU, previous, status),
	})
	return unit, nil
}

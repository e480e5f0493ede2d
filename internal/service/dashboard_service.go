package service

import (
	"context"
	"sort"
	"time"

	"salon-inventory/internal/model"
	"salon-inventory/internal/repository"
	"salon-inventory/pkg/apperror"

	"github.com/google/uuid"
)

const (
	lowStockAlertLimit = 5
	expiryAlertLimit   = 10
	maxMovementDays    = 365
)

type DashboardService interface {
	GetStockMovement(ctx context.Context, days int) ([]StockMovementData, error)
	GetDashboardStats(ctx context.Context) (*DashboardStats, error)
}

// StockMovementData untuk chart data
type StockMovementData struct {
	Date     string `json:"date"`
	Inbound  int    `json:"inbound"`
	Outbound int    `json:"outbound"`
}

type DashboardStats struct {
	Stats  DashboardCounts `json:"stats"`
	Alerts DashboardAlerts `json:"alerts"`
}

type DashboardCounts struct {
	TotalProducts   int64 `json:"total_products"`
	LowStock        int   `json:"low_stock"`
	Expired         int64 `json:"expired"`
	PendingRequests int64 `json:"pending_requests"`
}

type DashboardAlerts struct {
	LowStock     []LowStockAlert       `json:"low_stock"`
	ExpiringSoon []model.InventoryUnit `json:"expiring_soon"`
}

type LowStockAlert struct {
	ProductGroupID    uuid.UUID `json:"product_group_id"`
	BrandName         string    `json:"brand_name"`
	ProductName       string    `json:"product_name"`
	LowStockThreshold int       `json:"low_stock_threshold"`
	StockCount        int       `json:"stock_count"`
}

type dashboardService struct {
	groupRepo       repository.ProductGroupRepository
	unitRepo        repository.InventoryUnitRepository
	procurementRepo repository.ProcurementRepository
	settingsRepo    repository.SettingsRepository
	now             func() time.Time
}

func NewDashboardService(groupRepo repository.ProductGroupRepository, unitRepo repository.InventoryUnitRepository, procurementRepo repository.ProcurementRepository, settingsRepo repository.SettingsRepository) DashboardService {
	return &dashboardService{
		groupRepo:       groupRepo,
		unitRepo:        unitRepo,
		procurementRepo: procurementRepo,
		settingsRepo:    settingsRepo,
		now:             time.Now,
	}
}

// GetStockMovement buckets units stocked (inbound) and consumed (outbound) per UTC day.
func (s *dashboardService) GetStockMovement(ctx context.Context, days int) ([]StockMovementData, error) {
	if days <= 0 || days > maxMovementDays {
		return nil, apperror.Newf(apperror.CodeValidation, "days must be between 1 and %d", maxMovementDays)
	}
	endDate := s.now()
	startDate := endDate.AddDate(0, 0, -days)

	stocked, err := s.unitRepo.StockedBetween(ctx, startDate, endDate)
	if err != nil {
		return nil, storeError(err, "inventory unit")
	}
	consumed, err := s.unitRepo.ConsumedBetween(ctx, startDate, endDate)
	if err != nil {
		return nil, storeError(err, "inventory unit")
	}

	byDay := make(map[string]*StockMovementData)
	bucket := func(t time.Time) *StockMovementData {
		day := t.UTC().Format("2006-01-02")
		row, ok := byDay[day]
		if !ok {
			row = &StockMovementData{Date: day}
			byDay[day] = row
		}
		return row
	}
	for _, t := range stocked {
		bucket(t).Inbound++
	}
	for _, t := range consumed {
		bucket(t).Outbound++
	}

	results := make([]StockMovementData, 0, len(byDay))
	for _, row := range byDay {
		results = append(results, *row)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Date < results[j].Date })
	return results, nil
}

func (s *dashboardService) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	now := s.now()

	// 1. Total products and pending requests
	totalProducts, err := s.groupRepo.Count(ctx)
	if err != nil {
		return nil, storeError(err, "product group")
	}
	pending, err := s.procurementRepo.CountByStatus(ctx, model.ProcurementPending)
	if err != nil {
		return nil, storeError(err, "procurement request")
	}

	// 2. ACTIVE units whose expiry has passed
	expired, err := s.unitRepo.CountExpired(ctx, now)
	if err != nil {
		return nil, storeError(err, "inventory unit")
	}

	// 3. Low stock groups (active count at or below the group threshold)
	lowStock, err := s.lowStock(ctx)
	if err != nil {
		return nil, err
	}

	// 4. Expiring within the configured alert window
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return nil, storeError(err, "settings")
	}
	horizon := now.AddDate(0, 0, settings.Inventory.ExpiryAlertDays)
	expiring, err := s.unitRepo.ExpiringBetween(ctx, now, horizon, expiryAlertLimit)
	if err != nil {
		return nil, storeError(err, "inventory unit")
	}

	top := lowStock
	if len(top) > lowStockAlertLimit {
		top = top[:lowStockAlertLimit]
	}
	return &DashboardStats{
		Stats: DashboardCounts{
			TotalProducts:   totalProducts,
			LowStock:        len(lowStock),
			Expired:         expired,
			PendingRequests: pending,
		},
		Alerts: DashboardAlerts{
			LowStock:     top,
			ExpiringSoon: expiring,
		},
	}, nil
}

// lowStock returns low-stock groups, emptiest first.
func (s *dashboardService) lowStock(ctx context.Context) ([]LowStockAlert, error) {
	groups, err := s.groupRepo.FindAll(ctx)
	if err != nil {
		return nil, storeError(err, "product group")
	}
	counts, err := s.unitRepo.ActiveCountsByGroup(ctx)
	if err != nil {
		return nil, storeError(err, "inventory unit")
	}
	byGroup := make(map[uuid.UUID]int, len(counts))
	for _, c := range counts {
		byGroup[c.ProductGroupID] = int(c.Count)
	}

	out := make([]LowStockAlert, 0)
	for _, g := range groups {
		n := byGroup[g.ID]
		if n > g.LowStockThreshold {
			continue
		}
		out = append(out, LowStockAlert{
			ProductGroupID:    g.ID,
			BrandName:         g.BrandName,
			ProductName:       g.ProductName,
			LowStockThreshold: g.LowStockThreshold,
			StockCount:        n,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StockCount < out[j].StockCount })
	return out, nil
}

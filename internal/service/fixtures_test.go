package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"salon-inventory/internal/model"
	"salon-inventory/internal/repository"
	"salon-inventory/pkg/blobstore"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	testActor = Actor{ID: "user-1", Name: "Tester", Email: "tester@example.com", Role: model.RoleAdmin}
	nopLog    = zerolog.Nop()
)

// env bundles a fresh in-memory store and every repository on top of it.
type env struct {
	db        *gorm.DB
	groups    repository.ProductGroupRepository
	units     repository.InventoryUnitRepository
	requests  repository.ProcurementRepository
	invoices  repository.InvoiceRepository
	settings  repository.SettingsRepository
	sales     repository.SalesInvoiceRepository
	users     repository.UserRepository
	roles     repository.RoleRepository
	privilege repository.PrivilegeRepository
}

func newEnv(t *testing.T) *env {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(model.AllModels()...))

	return &env{
		db:        db,
		groups:    repository.NewProductGroupRepo(db),
		units:     repository.NewInventoryUnitRepo(db),
		requests:  repository.NewProcurementRepo(db),
		invoices:  repository.NewInvoiceRepo(db),
		settings:  repository.NewSettingsRepo(db),
		sales:     repository.NewSalesInvoiceRepo(db),
		users:     repository.NewUserRepo(db),
		roles:     repository.NewRoleRepo(db),
		privilege: repository.NewPrivilegeRepo(db),
	}
}

func (e *env) catalog() CatalogService {
	return NewCatalogService(e.groups, e.units, e.db, nil, nopLog)
}

func (e *env) inventory() *inventoryService {
	return NewInventoryService(e.units, e.groups, e.db, nil, nil, nopLog).(*inventoryService)
}

func (e *env) procurement(t *testing.T) (*procurementService, *blobstore.LocalStore) {
	t.Helper()
	store, err := blobstore.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	svc := NewProcurementService(ProcurementDeps{
		Requests: e.requests,
		Invoices: e.invoices,
		Units:    e.units,
		Groups:   e.groups,
		Settings: e.settings,
		Blobs:    store,
		DB:       e.db,
		Log:      nopLog,
	})
	return svc.(*procurementService), store
}

func (e *env) group(t *testing.T, name string, threshold int) *model.ProductGroup {
	t.Helper()
	g, err := e.catalog().CreateProductGroup(context.Background(), testActor, CreateProductGroupInput{
		ProductIdentity: model.ProductIdentity{
			BrandName:       "Loreal",
			SubCategory:     "Hair Care",
			ProductName:     name,
			QuantityPerItem: 250,
			Unit:            model.UnitMilliliter,
			SellingPrice:    decimal.NewFromInt(450),
		},
		LowStockThreshold: threshold,
	})
	require.NoError(t, err)
	return g
}

func (e *env) unit(t *testing.T, groupID uuid.UUID, sku string, expiry, stocked time.Time) *model.InventoryUnit {
	t.Helper()
	u := model.InventoryUnit{
		ProductGroupID: groupID,
		SKU:            sku,
		ExpiryDate:     expiry,
		StockedDate:    stocked,
		CostPrice:      decimal.NewFromInt(200),
		Status:         model.UnitActive,
	}
	require.NoError(t, e.units.CreateBatch(e.db, []model.InventoryUnit{u}))
	var stored model.InventoryUnit
	require.NoError(t, e.db.First(&stored, "sku = ?", sku).Error)
	return &stored
}

func (e *env) unitStatus(t *testing.T, id uuid.UUID) model.UnitStatus {
	t.Helper()
	var u model.InventoryUnit
	require.NoError(t, e.db.First(&u, "id = ?", id).Error)
	return u.Status
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"salon-inventory/internal/handler"
	"salon-inventory/internal/middleware"
	"salon-inventory/internal/model"
	"salon-inventory/internal/repository"
	"salon-inventory/internal/service"
	"salon-inventory/internal/ws"
	"salon-inventory/pkg/blobstore"
	"salon-inventory/pkg/config"
	"salon-inventory/pkg/database"
	"salon-inventory/pkg/jwt"
	"salon-inventory/pkg/logger"
	"salon-inventory/pkg/metrics"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const (
	invoicePrefix   = "invoices"
	shutdownTimeout = 10 * time.Second
)

func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		boot := zerolog.New(os.Stderr)
		boot.Fatal().Err(err).Msg("load config")
	}
	log := logger.New(logger.Options{
		ServiceName: cfg.App.Name,
		Level:       cfg.App.LogLevel,
		Format:      cfg.App.LogFormat,
	})

	// 2. Setup Database
	db, err := database.ConnectDB(cfg.DB, cfg.App.IsDev())
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}
	defer database.Close(db)

	if err := db.AutoMigrate(model.AllModels()...); err != nil {
		log.Fatal().Err(err).Msg("migrate schema")
	}

	// 3. Blob store for invoice attachments
	ctx := context.Background()
	blobs, err := openBlobStore(ctx, cfg.Blob)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Blob.Driver).Msg("open blob store")
	}
	if closer, ok := blobs.(io.Closer); ok {
		defer closer.Close()
	}

	// 4. Setup WebSocket Hub and metrics
	wsHub := ws.NewHub(log)
	go wsHub.Run()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	inventoryMetrics := metrics.NewInventoryMetrics(registry)

	// 5. Dependency Injection (Wiring Layers)
	groupRepo := repository.NewProductGroupRepo(db)
	unitRepo := repository.NewInventoryUnitRepo(db)
	procurementRepo := repository.NewProcurementRepo(db)
	invoiceRepo := repository.NewInvoiceRepo(db)
	settingsRepo := repository.NewSettingsRepo(db)
	salesRepo := repository.NewSalesInvoiceRepo(db)
	userRepo := repository.NewUserRepo(db)
	privilegeRepo := repository.NewPrivilegeRepo(db)
	roleRepo := repository.NewRoleRepo(db)

	tokens := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TTL())

	catalogService := service.NewCatalogService(groupRepo, unitRepo, db, wsHub, log)
	invService := service.NewInventoryService(unitRepo, groupRepo, db, wsHub, inventoryMetrics, log)
	procurementService := service.NewProcurementService(service.ProcurementDeps{
		Requests:     procurementRepo,
		Invoices:     invoiceRepo,
		Units:        unitRepo,
		Groups:       groupRepo,
		Settings:     settingsRepo,
		Blobs:        blobs,
		DB:           db,
		Hub:          wsHub,
		Metrics:      inventoryMetrics,
		Log:          log,
		MaxFileBytes: cfg.Upload.MaxBytes,
	})
	settingsService := service.NewSettingsService(settingsRepo, wsHub, log)
	salesService := service.NewSalesInvoiceService(salesRepo, settingsRepo, log)
	dashService := service.NewDashboardService(groupRepo, unitRepo, procurementRepo, settingsRepo)
	importExportService := service.NewImportExportService(groupRepo, unitRepo, procurementRepo, invoiceRepo, db, wsHub, log)
	authService := service.NewAuthService(userRepo, tokens, wsHub, log)
	userService := service.NewUserService(userRepo, privilegeRepo, roleRepo, log)

	// 6. Explicit bootstrap: access control tables, then the first admin
	if err := userService.SeedAccessControl(ctx); err != nil {
		log.Fatal().Err(err).Msg("seed access control")
	}
	if _, err := userService.EnsureAdminSeed(ctx, cfg.Seed); err != nil {
		log.Fatal().Err(err).Msg("seed admin user")
	}

	catalogHandler := handler.NewCatalogHandler(catalogService)
	invHandler := handler.NewInventoryHandler(invService)
	procurementHandler := handler.NewProcurementHandler(procurementService)
	settingsHandler := handler.NewSettingsHandler(settingsService)
	salesHandler := handler.NewSalesHandler(salesService)
	dashHandler := handler.NewDashboardHandler(dashService)
	importExportHandler := handler.NewImportExportHandler(importExportService)
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	roleHandler := handler.NewRoleHandler(userService)

	// 7. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: cfg.App.Name,
		// several invoice attachments plus form fields
		BodyLimit: int(cfg.Upload.MaxBytes) * 4,
	})

	// Middleware
	app.Use(recover.New()) // Panic recovery
	app.Use(requestid.New())
	app.Use(middleware.RequestLogger(log, inventoryMetrics))
	app.Use(cors.New())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "ws_clients": wsHub.ClientCount()})
	})

	// 8. Routes
	api := app.Group("/api/v1")

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/login", authHandler.Login)
	auth.Post("/reset-password", authHandler.ChangePassword)
	auth.Post("/validate-token", authHandler.ValidateToken)
	auth.Post("/heartbeat", middleware.RequireAuth(authService), authHandler.Heartbeat)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", middleware.RequireAuth(authService))
	priv := middleware.RequirePrivilege

	// Dashboard
	protected.Get("/dashboard/stats", priv(model.PrivDashboardView), dashHandler.GetDashboardStats)
	protected.Get("/dashboard/stock-movement", priv(model.PrivDashboardView), dashHandler.GetStockMovement)

	// Catalog
	protected.Get("/product-groups", priv(model.PrivCatalogView), catalogHandler.GetProductGroups)
	protected.Get("/product-groups/:id", priv(model.PrivCatalogView), catalogHandler.GetProductGroup)
	protected.Post("/product-groups", priv(model.PrivCatalogCreate), catalogHandler.CreateProductGroup)
	protected.Get("/units", priv(model.PrivInventoryView), catalogHandler.GetUnits)

	// Stock movements
	protected.Post("/inventory/consume", priv(model.PrivInventoryConsume), invHandler.Consume)
	protected.Post("/units/:id/consume", priv(model.PrivInventoryConsume), invHandler.ConsumeUnit)
	protected.Patch("/units/:id/status", priv(model.PrivInventoryStatus), invHandler.UpdateUnitStatus)

	// Procurement
	protected.Get("/procurement", priv(model.PrivProcurementView), procurementHandler.GetRequests)
	protected.Post("/procurement", priv(model.PrivProcurementCreate), procurementHandler.CreateRequest)
	protected.Get("/procurement/:id", priv(model.PrivProcurementView), procurementHandler.GetRequest)
	protected.Post("/procurement/:id/approve", priv(model.PrivProcurementApprove), procurementHandler.Approve)
	protected.Post("/procurement/:id/receive", priv(model.PrivProcurementReceive), procurementHandler.Receive)
	protected.Get("/procurement/:id/receipts", priv(model.PrivProcurementView), procurementHandler.GetReceipts)
	protected.Get("/procurement/:id/invoices", priv(model.PrivProcurementView), procurementHandler.GetInvoices)
	protected.Get("/procurement/:id/invoices/:invoiceId/files/:index", priv(model.PrivProcurementView), procurementHandler.DownloadInvoiceFile)

	// Settings
	protected.Get("/settings", priv(model.PrivSettingsView), settingsHandler.GetSettings)
	protected.Put("/settings", priv(model.PrivSettingsUpdate), settingsHandler.UpdateSettings)

	// Sales invoices
	protected.Get("/sales-invoices", priv(model.PrivSalesView), salesHandler.GetInvoices)
	protected.Post("/sales-invoices", priv(model.PrivSalesCreate), salesHandler.CreateInvoice)
	protected.Get("/sales-invoices/:id", priv(model.PrivSalesView), salesHandler.GetInvoice)
	protected.Get("/sales-invoices/:id/pdf", priv(model.PrivSalesView), salesHandler.DownloadPDF)

	// Import / export
	protected.Post("/inventory/import", priv(model.PrivInventoryImport), importExportHandler.ImportInventory)
	protected.Post("/products/import", priv(model.PrivInventoryImport), importExportHandler.ImportProducts)
	protected.Get("/products/import-template", priv(model.PrivInventoryImport), importExportHandler.ProductTemplate)
	protected.Get("/export/inventory", priv(model.PrivExportRun), importExportHandler.ExportInventory)
	protected.Get("/export/procurement", priv(model.PrivExportRun), importExportHandler.ExportProcurement)

	// User Management
	protected.Get("/users", priv(model.PrivUserManage), userHandler.GetUsers)
	protected.Get("/users/:id", priv(model.PrivUserManage), userHandler.GetUser)
	protected.Post("/users", priv(model.PrivUserManage), userHandler.CreateUser)
	protected.Put("/users/:id", priv(model.PrivUserManage), userHandler.UpdateUser)
	protected.Put("/users/:id/password", priv(model.PrivUserManage), userHandler.ResetPassword)
	protected.Get("/roles", roleHandler.GetRoles)
	protected.Get("/privileges", roleHandler.GetPrivileges)

	// WebSocket Route
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		wsHub.Register <- c
		defer func() { wsHub.Unregister <- c }()

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	// 9. Graceful Shutdown
	go func() {
		log.Info().Str("port", cfg.App.Port).Str("env", cfg.App.Env).Msg("server listening")
		if err := app.Listen(":" + cfg.App.Port); err != nil {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	log.Info().Msg("server exited")
}

func openBlobStore(ctx context.Context, cfg config.BlobConfig) (blobstore.Store, error) {
	if cfg.Driver == config.BlobDriverGCS {
		store, err := blobstore.NewGCSStore(ctx, cfg.GCSBucket, cfg.GCSCredentialsJSON, invoicePrefix)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	store, err := blobstore.NewLocalStore(cfg.LocalDir)
	if err != nil {
		return nil, err
	}
	return store, nil
}

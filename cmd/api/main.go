package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"farmer-admin/internal/config"
	"farmer-admin/internal/handler"
	"farmer-admin/internal/middleware"
	"farmer-admin/internal/repository"
	"farmer-admin/internal/service"
	"farmer-admin/internal/ws"
	"farmer-admin/pkg/database"
	"farmer-admin/pkg/jwt"
	"farmer-admin/pkg/logger"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"
)

func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	defer func() { _ = log.Sync() }()

	// 2. Setup Database
	db, err := database.Connect(cfg.Database, log, cfg.Log.SQLLevel)
	if err != nil {
		log.Fatal("connect database", zap.Error(err))
	}
	// AutoMigrate keeps dev databases in step; production schemas should come from a migration tool.
	if err := database.AutoMigrate(db); err != nil {
		log.Fatal("migrate database", zap.Error(err))
	}

	// 3. Setup WebSocket Hub
	wsHub := ws.NewHub(log)
	go wsHub.Run()

	// 4. Dependency Injection (Wiring Layers)
	uow := repository.NewUnitOfWork(db)
	userRepo := repository.NewUserRepo(db)
	inventoryRepo := repository.NewInventoryRepo(db)
	txRepo := repository.NewInventoryTransactionRepo(db)
	dispatchRepo := repository.NewDispatchRepo(db)
	farmerRepo := repository.NewFarmerRepo(db)
	taskRepo := repository.NewTaskRepo(db)
	messageRepo := repository.NewMessageRepo(db)
	dashRepo := repository.NewDashboardRepo(db)

	jwtManager := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.Expiration, cfg.JWT.Issuer)

	ledger := service.NewStockLedger(uow, wsHub, log)
	importer := service.NewBulkImporter(uow, ledger, wsHub, log)
	invService := service.NewInventoryService(uow, inventoryRepo, txRepo, ledger, importer, wsHub, log)
	dispatchService := service.NewDispatchService(uow, dispatchRepo, ledger, wsHub, log)
	authService := service.NewAuthService(userRepo, jwtManager, log)
	userService := service.NewUserService(userRepo)
	farmerService := service.NewFarmerService(farmerRepo, log)
	dashService := service.NewDashboardService(dashRepo, txRepo)
	taskService := service.NewTaskService(taskRepo, userRepo)
	chatService := service.NewChatService(messageRepo, wsHub)

	// 5. Seed default admin user
	seedCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	created, err := authService.SeedAdmin(seedCtx, cfg.Seed.AdminEmail, cfg.Seed.AdminPassword, cfg.Seed.AdminName)
	cancel()
	if err != nil {
		log.Warn("seed admin user", zap.Error(err))
	} else if created {
		log.Info("admin user created", zap.String("email", cfg.Seed.AdminEmail))
	}

	// 6. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName:   cfg.App.Name,
		BodyLimit: cfg.HTTP.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.RequestLogger(log))
	app.Use(cors.New(cors.Config{AllowOrigins: cfg.HTTP.CORSAllowOrigins}))

	// 7. Routes
	handler.SetupRoutes(app, handler.Handlers{
		Auth:      handler.NewAuthHandler(authService, log),
		User:      handler.NewUserHandler(userService, cfg.Pagination, log),
		Inventory: handler.NewInventoryHandler(invService, dispatchService, cfg.Pagination, log),
		Farmer:    handler.NewFarmerHandler(farmerService, cfg.Pagination, log),
		Dashboard: handler.NewDashboardHandler(dashService, log),
		Task:      handler.NewTaskHandler(taskService, cfg.Pagination, log),
		Chat:      handler.NewChatHandler(chatService, log),
	}, authService)

	// WebSocket Route
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		wsHub.Add(c)
		defer wsHub.Remove(c)

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	// 8. Graceful Shutdown
	go func() {
		log.Info("listening", zap.String("port", cfg.App.Port), zap.String("env", cfg.App.Env))
		if err := app.Listen(":" + cfg.App.Port); err != nil {
			log.Panic("listen", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	wsHub.Stop()
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	log.Info("server exited")
}

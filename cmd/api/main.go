package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go-distribusi-ops/internal/cache"
	"go-distribusi-ops/internal/handler"
	"go-distribusi-ops/internal/model"
	"go-distribusi-ops/internal/repository"
	"go-distribusi-ops/internal/service"
	"go-distribusi-ops/internal/ws"
	"go-distribusi-ops/pkg/database"
	"go-distribusi-ops/pkg/datetz"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
)

func main() {
	// 1. Load Env
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	// 2. Setup Database
	db, err := database.ConnectDB()
	if err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}
	// Auto Migrate (Hati-hati di production, sebaiknya pakai tools migrasi terpisah)
	db.AutoMigrate(
		&model.Product{}, &model.SalesRep{}, &model.Store{},
		&model.Shipment{}, &model.ShipmentLine{},
		&model.Billing{}, &model.BillingLine{}, &model.Deduction{},
		&model.Deposit{},
	)

	// 3. Business timezone: every date filter and day bucket uses this zone
	tz := os.Getenv("APP_TIMEZONE")
	if tz == "" {
		tz = "Asia/Jakarta"
	}
	ranger, err := datetz.NewRanger(tz)
	if err != nil {
		log.Fatalf("Invalid APP_TIMEZONE %q: %v", tz, err)
	}

	// 4. Result cache: Redis when configured, otherwise a no-op
	resultCache := setupCache()

	// 5. Setup WebSocket Hub
	wsHub := ws.NewHub()
	go wsHub.Run()

	// 6. Dependency Injection (Wiring Layers)
	productRepo := repository.NewProductRepo(db)
	storeRepo := repository.NewStoreRepo(db)
	salesRepRepo := repository.NewSalesRepRepo(db)
	shipmentRepo := repository.NewShipmentRepo(db)
	billingRepo := repository.NewBillingRepo(db)
	depositRepo := repository.NewDepositRepo(db)
	aggProvider := repository.NewPrecomputedProvider(db)

	reconService := service.NewReconService(shipmentRepo, billingRepo, depositRepo, productRepo, aggProvider, resultCache, ranger)
	statsService := service.NewStatsService(storeRepo, salesRepRepo, productRepo, shipmentRepo, billingRepo, aggProvider)
	ledgerService := service.NewLedgerService(shipmentRepo, billingRepo, depositRepo, resultCache, wsHub)
	optionsService := service.NewOptionsService(storeRepo, salesRepRepo, productRepo, billingRepo)
	suggestService := service.NewSuggestService(storeRepo, salesRepRepo)

	reconHandler := handler.NewReconHandler(reconService, ranger)
	statsHandler := handler.NewStatsHandler(statsService, ranger)
	shipmentHandler := handler.NewShipmentHandler(ledgerService, ranger)
	billingHandler := handler.NewBillingHandler(ledgerService, ranger)
	depositHandler := handler.NewDepositHandler(ledgerService, ranger)
	productHandler := handler.NewProductHandler(productRepo, ranger)
	storeHandler := handler.NewStoreHandler(storeRepo, ranger)
	salesRepHandler := handler.NewSalesRepHandler(salesRepRepo, ranger)
	optionsHandler := handler.NewOptionsHandler(optionsService)
	suggestHandler := handler.NewSuggestHandler(suggestService)

	// 7. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: "Distribusi Ops API v1.0",
	})

	// Middleware
	app.Use(logger.New())  // Logging request
	app.Use(recover.New()) // Panic recovery
	app.Use(cors.New())    // CORS

	// 8. Routes
	api := app.Group("/api/v1")

	// Reconciliation dashboards
	api.Get("/stock", reconHandler.GetStock)
	api.Get("/cashflow", reconHandler.GetCashFlow)
	api.Get("/stats/:entity", statsHandler.GetStats)

	// Filter controls
	api.Get("/filter-options/:entity/:field", optionsHandler.GetOptions)
	api.Get("/search/suggestions", suggestHandler.GetSuggestions)

	// Ledger streams
	api.Get("/shipments", shipmentHandler.List)
	api.Get("/shipments/:id", shipmentHandler.Get)
	api.Post("/shipments", shipmentHandler.Create)
	api.Put("/shipments/:id", shipmentHandler.Update)
	api.Delete("/shipments/:id", shipmentHandler.Delete)

	api.Get("/billings", billingHandler.List)
	api.Get("/billings/:id", billingHandler.Get)
	api.Post("/billings", billingHandler.Create)
	api.Put("/billings/:id", billingHandler.Update)
	api.Delete("/billings/:id", billingHandler.Delete)

	api.Get("/deposits", depositHandler.List)
	api.Get("/deposits/:id", depositHandler.Get)
	api.Post("/deposits", depositHandler.Create)
	api.Put("/deposits/:id", depositHandler.Update)
	api.Delete("/deposits/:id", depositHandler.Delete)

	// Master data
	api.Get("/products", productHandler.List)
	api.Get("/products/:id", productHandler.Get)
	api.Post("/products", productHandler.Create)
	api.Put("/products/:id", productHandler.Update)
	api.Delete("/products/:id", productHandler.Delete)

	api.Get("/stores", storeHandler.List)
	api.Get("/stores/:id", storeHandler.Get)
	api.Post("/stores", storeHandler.Create)
	api.Put("/stores/:id", storeHandler.Update)
	api.Delete("/stores/:id", storeHandler.Delete)

	api.Get("/sales-reps", salesRepHandler.List)
	api.Get("/sales-reps/:id", salesRepHandler.Get)
	api.Post("/sales-reps", salesRepHandler.Create)
	api.Put("/sales-reps/:id", salesRepHandler.Update)
	api.Delete("/sales-reps/:id", salesRepHandler.Delete)

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
		port := os.Getenv("PORT")
		if port == "" {
			port = "3000"
		}
		if err := app.Listen(":" + port); err != nil {
			log.Panic(err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}

// setupCache returns a Redis-backed cache when REDIS_ADDR is set and
// reachable, otherwise a no-op so the API still serves without Redis.
func setupCache() cache.Cache {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		log.Println("REDIS_ADDR not set, result cache disabled")
		return cache.Noop{}
	}

	redisDB := 0
	if raw := os.Getenv("REDIS_DB"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			log.Printf("Warning: invalid REDIS_DB %q, using 0", raw)
		} else {
			redisDB = n
		}
	}

	rc := cache.NewRedisCache(addr, os.Getenv("REDIS_PASSWORD"), redisDB)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rc.Ping(ctx); err != nil {
		log.Printf("Warning: Redis unreachable (%v), result cache disabled", err)
		return cache.Noop{}
	}
	log.Println("Redis result cache connected")
	return rc
}

package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/shopspring/decimal"
	"github.com/streadway/amqp"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"kahawa/internal/config"
	"kahawa/internal/handlers"
	"kahawa/internal/middleware"
	"kahawa/internal/models"
	"kahawa/internal/repositories"
	"kahawa/internal/services"
	"kahawa/pkg/rabbitmq"
)

func main() {
	// --- Configuration ---
	cfg := config.Load()

	// --- Database ---
	db, err := openDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.InventoryItem{}, &models.Order{}, &models.OrderItem{}); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// --- RabbitMQ ---
	mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
	if err != nil {
		log.Fatalf("Failed to initialize RabbitMQ client: %v", err)
	}
	defer mqClient.Close() // Ensure the connection is closed on exit

	// --- Application ---
	app := buildApp(cfg, db, services.NewAMQPNotifier(mqClient))

	// Seed some beverages so a fresh install has something to order.
	seedInventory(repositories.NewGORMInventoryRepository(db))

	// --- Notification worker ---
	// The worker drains queued notification jobs. Actual SMS delivery is
	// handled by an external gateway; here the job is logged for delivery.
	go func() {
		log.Println("Starting notification worker...")
		handler := func(msg amqp.Delivery) error {
			var job services.NotificationJob
			if err := json.Unmarshal(msg.Body, &job); err != nil {
				return fmt.Errorf("malformed notification job: %w", err)
			}
			log.Printf("SMS to %s (order %s, %s): %s", job.PhoneNumber, job.OrderID, job.Event, job.Message)
			return nil
		}
		if consumerErr := mqClient.ConsumeNotifications(handler); consumerErr != nil {
			log.Printf("Failed to start notification worker: %v", consumerErr)
		}
	}()

	// --- Start HTTP Server ---
	log.Printf("Starting server on port %s", cfg.AppPort)

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(cfg.AppPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}

	// Close RabbitMQ connection is handled by defer in main
	log.Println("Server gracefully stopped")
}

// openDatabase opens the configured database. SQLite is the local default;
// production deployments point DATABASE_DRIVER/DATABASE_DSN at PostgreSQL.
func openDatabase(cfg *config.Config) (*gorm.DB, error) {
	switch cfg.DatabaseDriver {
	case "postgres":
		return gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	case "sqlite":
		return gorm.Open(sqlite.Open(cfg.DatabaseDSN), &gorm.Config{})
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}
}

// buildApp wires repositories, services and handlers into a Fiber app.
func buildApp(cfg *config.Config, db *gorm.DB, notifier services.Notifier) *fiber.App {
	// --- Repositories ---
	inventoryRepo := repositories.NewGORMInventoryRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)
	userRepo := repositories.NewGORMUserRepository(db)

	// --- Services ---
	inventoryService := services.NewInventoryService(inventoryRepo, orderRepo)
	orderService := services.NewOrderService(orderRepo, userRepo, inventoryService, notifier)
	authService := services.NewAuthService(userRepo, cfg.JWTSecret, cfg.TokenLifetime)

	// --- Handlers ---
	inventoryHandler := handlers.NewInventoryHandler(inventoryService)
	orderHandler := handlers.NewOrderHandler(orderService)
	authHandler := handlers.NewAuthHandler(authService)

	app := fiber.New()

	// --- Middleware ---
	app.Use(logger.New()) // Request logger

	// --- API Routes ---
	apiV1 := app.Group("/api/v1")

	// Authentication routes (public)
	authHandler.RegisterRoutes(apiV1)

	// Protected routes (require JWT authentication)
	protectedRoutes := apiV1.Group("", middleware.AuthRequired(authService))
	authHandler.RegisterProtectedRoutes(protectedRoutes)
	inventoryHandler.RegisterRoutes(protectedRoutes)
	orderHandler.RegisterRoutes(protectedRoutes)

	// --- Health Check Endpoint ---
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	return app
}

// seedInventory populates an empty inventory with some initial beverages.
func seedInventory(repo repositories.InventoryRepository) {
	existing, err := repo.GetAll()
	if err != nil || len(existing) > 0 {
		return
	}

	items := []models.InventoryItem{
		{Name: "Espresso", BeverageType: models.BeverageCoffee, Caffeinated: true, Price: decimal.NewFromFloat(2.50), OnHand: 40, WarnLimit: 5},
		{Name: "Mocha", BeverageType: models.BeverageCoffee, Caffeinated: true, Flavored: true, Price: decimal.NewFromFloat(3.75), OnHand: 25, WarnLimit: 5},
		{Name: "Green Tea", BeverageType: models.BeverageTea, Price: decimal.NewFromFloat(2.00), OnHand: 30, WarnLimit: models.DefaultWarnLimit},
		{Name: "Chai Latte", BeverageType: models.BeverageTea, Caffeinated: true, Flavored: true, Price: decimal.NewFromFloat(3.25), OnHand: 15, WarnLimit: models.DefaultWarnLimit},
	}

	for i := range items {
		if err := repo.Create(&items[i]); err != nil {
			log.Printf("Error seeding inventory item %s: %v", items[i].Name, err)
		} else {
			log.Printf("Seeded inventory item: %s (ID: %s)", items[i].Name, items[i].ID)
		}
	}
}

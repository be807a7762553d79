package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/talabli/talabli-backend/database"
	"github.com/talabli/talabli-backend/internal/handlers"
	"github.com/talabli/talabli-backend/internal/jobs"
	"github.com/talabli/talabli-backend/internal/models"
	"github.com/talabli/talabli-backend/internal/routes"
	"github.com/talabli/talabli-backend/internal/services"
	"github.com/talabli/talabli-backend/internal/storage"
)

func main() {
	// Load .env file for local development
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found - checking environment variables")
	}

	merchantID := os.Getenv("MERCHANT_ID")
	if merchantID == "" {
		merchantID = "talabli-demo"
	}
	botPhone := os.Getenv("BOT_PHONE")

	// Initialize storage
	var store storage.Store
	var dbCheck func() error

	if os.Getenv("USE_MEMORY_STORE") == "true" {
		log.Println("⚠️  Using in-memory storage (not for production!)")
		memStore := storage.NewMemoryStore()
		seedDemoCatalog(memStore, merchantID)
		store = memStore
	} else {
		log.Println("📦 Connecting to PostgreSQL database...")
		database.Connect()

		log.Println("🔄 Running database migrations...")
		err := database.DB.AutoMigrate(
			&models.Merchant{},
			&models.Branch{},
			&models.MenuItem{},
			&models.Order{},
		)
		if err != nil {
			log.Fatal("Failed to migrate database:", err)
		}
		log.Println("✅ Database migrations completed!")

		store = storage.NewDatabaseStore(database.DB)
		dbCheck = func() error {
			sqlDB, err := database.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.Ping()
		}
	}

	// Redis-backed session persistence (best-effort; degrades to misses)
	rdb := database.ConnectRedis()
	sessionStore := services.NewSessionStore(rdb)

	// Core state engine
	conversationStore := services.NewConversationStore()
	cartStore := services.NewCartStore()
	botFlags := services.NewBotFlags()

	// Outbound sender (optional in development)
	var sender services.MessageSender
	twilioService, err := services.NewTwilioService()
	if err != nil {
		log.Printf("⚠️  Twilio not configured - replies will be logged only: %v", err)
	} else {
		sender = twilioService
		log.Println("✅ Twilio service initialized")
	}

	flowService := services.NewFlowService(store, conversationStore, cartStore, botFlags, merchantID, botPhone)

	// Mirror flow state into Redis off conversation updates
	sessionMirror := jobs.NewSessionMirror(conversationStore, cartStore, sessionStore)
	sessionMirror.Start()

	// Handlers
	whatsappHandler := handlers.NewWhatsAppHandler(flowService, sender)
	dashboardHandler := handlers.NewDashboardHandler(conversationStore, cartStore, botFlags)
	healthHandler := handlers.NewHealthHandler(sessionStore, sender != nil, dbCheck)

	// Create fiber app
	app := fiber.New(fiber.Config{
		AppName: "Talabli Backend v1.0.0",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PATCH, DELETE, OPTIONS",
	}))

	routes.SetupRoutes(app, whatsappHandler, dashboardHandler, healthHandler)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("\n🛑 Gracefully shutting down...")
		sessionMirror.Stop()
		_ = app.Shutdown()
	}()

	log.Println("========================================")
	log.Printf("🚀 Talabli Backend starting on port %s", port)
	log.Printf("🏪 Merchant: %s", merchantID)
	log.Printf("📊 Storage: %s", storageType())
	log.Printf("📱 WhatsApp: %s", whatsappStatus(sender))
	log.Println("========================================")

	log.Fatal(app.Listen(":" + port))
}

func storageType() string {
	if os.Getenv("USE_MEMORY_STORE") == "true" {
		return "In-Memory (Testing)"
	}
	return "PostgreSQL Database"
}

func whatsappStatus(sender services.MessageSender) string {
	if sender == nil {
		return "Not configured"
	}
	return "Configured"
}

// seedDemoCatalog loads a small menu so the bot is usable out of the box
// on the in-memory store.
func seedDemoCatalog(store *storage.MemoryStore, merchantID string) {
	_, _ = store.CreateMerchant(&models.Merchant{
		MerchantID: merchantID,
		Name:       "Talabli Demo Kitchen",
		Currency:   "SAR",
		Active:     true,
	})
	_, _ = store.CreateBranch(&models.Branch{
		BranchID:   merchantID + "-main",
		MerchantID: merchantID,
		Name:       "Main Branch",
		Phone:      "+966500000000",
		Address:    "King Fahd Rd, Riyadh",
		Open:       true,
	})

	items := []*models.MenuItem{
		{ItemID: "itm-001", MerchantID: merchantID, Category: "Burgers", Name: "Classic Burger", Price: 25, Currency: "SAR", Available: true,
			AddonsJSON: `[{"id":"add-cheese","name":"Extra Cheese","price":3,"quantity":1,"currency":"SAR"}]`},
		{ItemID: "itm-002", MerchantID: merchantID, Category: "Burgers", Name: "Double Burger", Price: 38, Currency: "SAR", Available: true},
		{ItemID: "itm-003", MerchantID: merchantID, Category: "Sides", Name: "Fries", Price: 9, Currency: "SAR", Available: true},
		{ItemID: "itm-004", MerchantID: merchantID, Category: "Drinks", Name: "Soft Drink", Price: 6, Currency: "SAR", Available: true},
	}
	for _, item := range items {
		_, _ = store.CreateMenuItem(item)
	}
	log.Printf("🌱 Seeded demo catalog with %d items", len(items))
}

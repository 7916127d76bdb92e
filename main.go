package main

import (
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/recuerdame/recuerdame-backend/internal/handlers"
	"github.com/recuerdame/recuerdame-backend/internal/jobs"
	"github.com/recuerdame/recuerdame-backend/internal/routes"
	"github.com/recuerdame/recuerdame-backend/internal/services"
	"github.com/recuerdame/recuerdame-backend/internal/storage"
)

const version = "1.0.0"

func main() {
	// Load .env file for local development
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found - checking environment variables")
	}

	// Initialize storage
	var store storage.Store
	if os.Getenv("USE_MEMORY_STORE") == "true" {
		log.Println("⚠️  Using in-memory storage (not for production!)")
		store = storage.NewMemoryStore()
	} else {
		path := os.Getenv("REMINDERS_FILE")
		if path == "" {
			path = filepath.Join("data", "recordatorios.json")
		}
		store = storage.NewFileStore(path)
		log.Printf("📦 Using file storage: %s", path)
	}

	// Initialize the outbound sender; without Twilio credentials the bot
	// still runs, logging every send instead.
	var sender services.Sender
	twilioService, err := services.NewTwilioService()
	if err != nil {
		log.Printf("⚠️  Twilio not configured (%v) - sends will be logged only", err)
		sender = services.LogSender{}
	} else {
		log.Println("✅ Twilio service initialized")
		sender = twilioService
	}

	// Initialize services
	sessionManager := services.NewSessionManager(store)
	whatsappService := services.NewWhatsAppService(store, sessionManager)

	// Initialize and start the delivery job
	reminderJob := jobs.NewReminderJob(store, sender)
	reminderJob.Start()

	log.Println("✅ All services initialized and delivery job started")

	// Create fiber app
	app := fiber.New(fiber.Config{
		AppName: "Recuerdame Backend v" + version,
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
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	// Service status endpoint
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service":  "Recuerdame Backend API",
			"version":  version,
			"status":   "healthy",
			"storage":  getStorageType(),
			"whatsapp": getWhatsAppStatus(twilioService),
			"sessions": sessionManager.ActiveCount(),
			"delivery": "running",
			"commands": []string{".r", ".recordatorio", ".ver", ".cancelar", ".ayuda"},
		})
	})

	// Setup routes
	whatsappHandler := handlers.NewWhatsAppHandler(whatsappService, sender)
	reminderHandler := handlers.NewReminderHandler(store, sender)
	healthHandler := handlers.NewHealthHandler(version)
	routes.SetupRoutes(app, whatsappHandler, reminderHandler, healthHandler)

	// Get port from environment or use default
	port := os.Getenv("PORT")
	if port == "" {
		port = "3008"
	}

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("\n🛑 Gracefully shutting down...")
		log.Println("⏹️  Stopping reminder delivery job...")
		reminderJob.Stop()
		log.Println("⏹️  Shutting down server...")
		_ = app.Shutdown()
	}()

	// Start server
	log.Println("========================================")
	log.Printf("🚀 Recuerdame Backend starting on port %s", port)
	log.Printf("📊 Storage: %s", getStorageType())
	log.Printf("📱 WhatsApp: %s", getWhatsAppStatus(twilioService))
	log.Println("📋 Commands: .r, .ver, .cancelar, .ayuda")
	log.Println("========================================")

	log.Fatal(app.Listen(":" + port))
}

func getStorageType() string {
	if os.Getenv("USE_MEMORY_STORE") == "true" {
		return "In-Memory (Testing)"
	}
	return "JSON File"
}

func getWhatsAppStatus(t *services.TwilioService) string {
	if t == nil {
		return "Not configured"
	}
	return "Configured"
}

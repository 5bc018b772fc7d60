package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"workshop-registration-backend/internal/config"
	"workshop-registration-backend/internal/handlers"
	"workshop-registration-backend/internal/repositories"
	"workshop-registration-backend/internal/services"
	"workshop-registration-backend/internal/tokens"
	"workshop-registration-backend/pkg/database"
	"workshop-registration-backend/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	// Initialize logger
	logger.Init()

	// Load configuration
	cfg, err := config.NewConfigFromEnv()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	// Initialize database
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Fatalf("Database connection error: %v", err)
	}

	// Run migrations
	if err := repositories.AutoMigrate(db); err != nil {
		log.Fatalf("Migration error: %v", err)
	}

	// Initialize repositories
	repo := repositories.NewRepository(db)

	// Attendance tokens live in memory; a restart invalidates them, which is
	// acceptable because the projector mints a new one within seconds.
	tokenStore := tokens.NewMemoryStore(cfg.AttendanceTokenTTL)

	// Initialize services
	authSvc := services.NewAuthService(repo, cfg)
	workshopSvc := services.NewWorkshopService(repo, cfg)
	registrationSvc := services.NewRegistrationService(repo, cfg)
	attendanceSvc := services.NewAttendanceService(repo, cfg, tokenStore)

	// Initialize handlers
	handler := handlers.NewHandler(authSvc, workshopSvc, registrationSvc, attendanceSvc, cfg)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Workshop Registration API",
		BodyLimit:    int(cfg.MaxUploadSize) + 1024*1024,
		ErrorHandler: handlers.ErrorHandler,
	})

	// Global middlewares
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Create upload directories
	if err := os.MkdirAll(cfg.PaymentDir, 0755); err != nil {
		log.Fatalf("Failed to create payment directory: %v", err)
	}
	if err := os.MkdirAll(cfg.QRDir, 0755); err != nil {
		log.Fatalf("Failed to create QR directory: %v", err)
	}

	// Static file serving
	app.Static("/payments", cfg.PaymentDir)
	app.Static("/qrcodes", cfg.QRDir)

	// Register routes
	api := app.Group("/api/v1")
	handler.RegisterRoutes(api)

	// Start server
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		log.Printf("🚀 Server starting on %s", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Server shutdown error: %v", err)
	}
	log.Println("Server stopped gracefully")
}

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"sirlizard/language-for-you/internal/config"
	"sirlizard/language-for-you/internal/handlers"
	"sirlizard/language-for-you/internal/logging"
	"sirlizard/language-for-you/internal/repositories"
	"sirlizard/language-for-you/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}
	log.Println("✅ Config loaded successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appLogger := logging.New(os.Stdout, cfg.Server.Env)

	// Initialize database
	db, err := config.InitDatabase(ctx, cfg)
	if err != nil {
		log.Fatalf("❌ Failed to initialize database: %v", err)
	}

	// Initialize repositories
	jobRepo := repositories.NewJobRepository(db)
	fileRepo := repositories.NewSharedFileRepository(db)
	profileRepo := repositories.NewProfileRepository(db)
	log.Println("✅ Repositories initialized successfully")

	// Initialize object store
	store, err := newObjectStore(ctx, cfg)
	if err != nil {
		log.Fatalf("❌ Failed to initialize object store: %v", err)
	}
	log.Printf("✅ Object store initialized (%s)", cfg.Storage.Driver)

	// Initialize Gemini AI
	geminiService, err := services.NewGeminiService(ctx, cfg.Gemini)
	if err != nil {
		log.Fatalf("❌ Failed to initialize Gemini AI: %v", err)
	}
	log.Println("✅ Gemini AI initialized successfully")

	memory := services.NewNoopMemory()
	if cfg.Qdrant.Enabled && cfg.Qdrant.URL != "" {
		qdrantMemory, err := services.NewQdrantMemory(
			cfg.Qdrant.URL,
			cfg.Qdrant.APIKey,
			cfg.Qdrant.Collection,
			geminiService,
			services.NewTextChunker(),
			appLogger,
		)
		if err != nil {
			log.Fatalf("❌ Failed to initialize Qdrant: %v", err)
		}
		if err := qdrantMemory.Init(ctx); err != nil {
			log.Printf("⚠️  Translation memory unavailable: %v", err)
		} else {
			memory = qdrantMemory
			log.Println("✅ Translation memory initialized successfully")
		}
	}

	// Initialize services
	pricer := services.NewPricer(cfg.Pricing)
	retryPolicy := services.RetryPolicy{
		MaxAttempts:  cfg.Retry.MaxAttempts,
		InitialDelay: cfg.Retry.InitialDelay,
		Logger:       appLogger,
	}

	fileService := services.NewFileService(fileRepo, jobRepo, store, cfg.Storage.MaxFileSize, appLogger)
	jobService := services.NewJobService(jobRepo, profileRepo, fileService, pricer, appLogger)
	premiumService := services.NewPremiumService(
		jobRepo,
		fileService,
		services.NewTextExtractor(),
		services.NewGeminiTranslator(geminiService, services.NewPromptBuilder()),
		services.NewElevenLabsService(cfg.ElevenLabs),
		memory,
		pricer,
		retryPolicy,
		appLogger,
	)
	profileService := services.NewProfileService(profileRepo, store, cfg.Storage.MaxFileSize, appLogger)
	assistantService := services.NewAssistantService(geminiService, retryPolicy)
	log.Println("✅ Services initialized successfully")

	// Initialize reconciler
	reconciler := services.NewReconciler(jobRepo, fileRepo, premiumService, services.ReconcilerOptions{
		Interval:    cfg.Reconciler.Interval,
		Grace:       cfg.Reconciler.Grace,
		MaxAttempts: cfg.Reconciler.MaxTranslationAttempts,
	}, appLogger)
	reconciler.Start(ctx)
	log.Println("✅ Reconciler started successfully")

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Language for You API",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		BodyLimit:    int(cfg.Storage.MaxFileSize) + 1<<20,
		ErrorHandler: handlers.NewErrorHandler(appLogger),
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	if cfg.Storage.Driver == "local" {
		app.Static("/uploads", cfg.Storage.UploadPath)
	}

	handlers.RegisterRoutes(app, handlers.Handlers{
		Jobs:      handlers.NewJobHandler(jobService, cfg.Storage.MaxFileSize),
		Premium:   handlers.NewPremiumHandler(premiumService, cfg.Storage.MaxFileSize),
		Files:     handlers.NewFileHandler(fileService),
		Profiles:  handlers.NewProfileHandler(profileService, cfg.Storage.MaxFileSize),
		Assistant: handlers.NewAssistantHandler(assistantService),
	}, handlers.AuthMiddleware([]byte(cfg.Auth.JWTSecret), profileRepo))
	log.Println("✅ Handlers initialized")

	// Root route
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Language for You API",
			"version": "1.0.0",
			"endpoints": []string{
				"GET /api/v1/health",
				"GET /api/v1/quote",
				"POST /api/v1/jobs",
				"GET /api/v1/jobs/{open,working,history,submitted}",
				"POST /api/v1/jobs/:id/{accept,return,rating}",
				"POST /api/v1/premium/{translate,voice-over}",
				"GET /api/v1/files/:id[/download|/url]",
				"GET|PATCH /api/v1/profile",
				"POST /api/v1/assistant/chat",
			},
		})
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("\n🛑 Shutting down server...")
		reconciler.Stop()
		cancel()
		if err := app.Shutdown(); err != nil {
			log.Printf("❌ Server forced to shutdown: %v", err)
		}
	}()

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("🚀 Server starting on %s\n", addr)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

func newObjectStore(ctx context.Context, cfg *config.Config) (services.ObjectStore, error) {
	if cfg.Storage.Driver == "s3" {
		return services.NewS3ObjectStore(ctx, cfg.Storage.S3)
	}

	root, err := filepath.Abs(cfg.Storage.UploadPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve upload path: %w", err)
	}
	return services.NewDiskObjectStore(root, cfg.Server.PublicURL+"/uploads")
}

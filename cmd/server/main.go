package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron"

	config "github.com/maheshrc27/postflow-suggestions/configs"
	"github.com/maheshrc27/postflow-suggestions/internal/api/handlers"
	"github.com/maheshrc27/postflow-suggestions/internal/api/middleware"
	"github.com/maheshrc27/postflow-suggestions/internal/generation"
	job "github.com/maheshrc27/postflow-suggestions/internal/jobs"
	"github.com/maheshrc27/postflow-suggestions/internal/repository"
	"github.com/maheshrc27/postflow-suggestions/internal/service"
	"github.com/maheshrc27/postflow-suggestions/internal/storage"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg := config.LoadConfig()
	ctx := context.Background()

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			slog.Error(err.Error(), "path", c.Path())
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendURL,
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	suggestionRepo := repository.NewSuggestionRepository(db)
	profileRepo := repository.NewBusinessProfileRepository(db)
	socialPostRepo := repository.NewSocialPostRepository(db)
	socialAccountRepo := repository.NewSocialAccountRepository(db)

	policy := generation.Policy{
		MaxRetries:   cfg.Generation.BackoffRetries,
		InitialDelay: cfg.Generation.BackoffInitialDelay,
		Retryable:    generation.IsRateLimited,
	}

	text, images, closeText := newGenerators(ctx, cfg)
	defer closeText()
	orchestrator := generation.NewOrchestrator(text, images, policy, cfg.OpenAI.ImageSize)

	store := newStore(ctx, cfg)
	materializer := storage.NewMaterializer(store, &http.Client{Timeout: time.Minute})

	instagramService := service.NewInstagramService(*cfg, policy, nil)
	summarizerService := service.NewSummarizerService(*cfg, instagramService, socialPostRepo, socialAccountRepo)
	suggestionService := service.NewSuggestionService(cfg.Generation, suggestionRepo, profileRepo, summarizerService, orchestrator, materializer)

	authMiddleware := middleware.NewAuthMiddleware(*cfg)

	if local, ok := store.(*storage.LocalStore); ok {
		app.Static("/uploads", local.Dir())
	}
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	suggestions := handlers.NewSuggestionHandler(suggestionService)
	api.Get("/suggestions", suggestions.ListSuggestions)
	api.Post("/suggestions/:id/refresh", suggestions.RefreshSuggestion)

	social := handlers.NewSocialHandler(summarizerService)
	api.Get("/social/top-posts", social.TopPosts)

	// cron jobs
	socialSyncJob := job.NewSocialSyncJob(socialAccountRepo, summarizerService)

	c := cron.New()
	if err := c.AddFunc(fmt.Sprintf("@every %s", cfg.SocialSyncInterval), socialSyncJob.SyncPosts); err != nil {
		log.Fatalf("Invalid social sync interval: %v", err)
	}
	c.Start()
	defer c.Stop()

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	slog.Info("server is running", "port", cfg.Port)

	gracefulShutdown(app)
}

// newGenerators picks the text provider. Images always come from OpenAI and
// are disabled when no key is configured.
func newGenerators(ctx context.Context, cfg *config.Config) (generation.TextGenerator, generation.ImageGenerator, func()) {
	var images generation.ImageGenerator
	var openaiClient *generation.OpenAIClient
	if cfg.OpenAI.APIKey != "" {
		openaiClient = generation.NewOpenAIClient(generation.OpenAIConfig{
			APIKey:     cfg.OpenAI.APIKey,
			BaseURL:    cfg.OpenAI.BaseURL,
			TextModel:  cfg.OpenAI.TextModel,
			ImageModel: cfg.OpenAI.ImageModel,
		})
		images = openaiClient
	} else {
		slog.Warn("OPENAI_API_KEY is not set, suggestions will have no images")
	}

	if cfg.Generation.TextProvider == "gemini" {
		gemini, err := generation.NewGeminiClient(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
		if err != nil {
			log.Fatalf("Failed to create Gemini client: %v", err)
		}
		return gemini, images, func() { gemini.Close() }
	}

	if openaiClient == nil {
		log.Fatal("OPENAI_API_KEY is required when TEXT_PROVIDER is openai")
	}
	return openaiClient, images, func() {}
}

func newStore(ctx context.Context, cfg *config.Config) storage.Store {
	if cfg.StorageDriver == "r2" {
		store, err := storage.NewR2Store(ctx, cfg.R2)
		if err != nil {
			log.Fatalf("Failed to configure R2 storage: %v", err)
		}
		return store
	}
	return storage.NewLocalStore(cfg.UploadDir, cfg.PublicBaseURL)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	slog.Info("shutting down server")

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}
	slog.Info("server shutdown complete")
}

package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/arturoeanton/go-semantic-codes-ollama/internal/adapter/ai"
	"github.com/arturoeanton/go-semantic-codes-ollama/internal/adapter/store"
	"github.com/arturoeanton/go-semantic-codes-ollama/internal/handler"
	"github.com/arturoeanton/go-semantic-codes-ollama/internal/service"
	"github.com/arturoeanton/go-semantic-codes-ollama/pkg/config"

	_ "github.com/lib/pq"
)

func main() {
	// ── Load .env file ───────────────────────────────────────────────────
	_ = godotenv.Load() // silently ignore if .env doesn't exist

	// ── Configuration ────────────────────────────────────────────────────
	cfg := config.Load()

	slog.Info("🚀 Starting Semantic Codes API",
		"port", cfg.Port,
		"ollama", cfg.OllamaURL,
		"model", cfg.OllamaModel,
		"dimension", cfg.EmbeddingDimension,
	)

	// ── Database ─────────────────────────────────────────────────────────
	pgStore, err := store.NewPostgresStore(cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pgStore.Close()

	if err := pgStore.Migrate(context.Background(), cfg.EmbeddingDimension); err != nil {
		slog.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}

	codeStore := store.NewCodeStore(pgStore)

	// ── Adapters ─────────────────────────────────────────────────────────
	embedder := ai.NewOllamaEmbedder(ai.OllamaConfig{
		BaseURL:     cfg.OllamaURL,
		Model:       cfg.OllamaModel,
		Token:       cfg.OllamaToken,
		Dimension:   cfg.EmbeddingDimension,
		MaxAttempts: cfg.EmbedRetryAttempts,
		BaseDelay:   cfg.EmbedRetryBaseDelay,
		Timeout:     cfg.EmbedTimeout,
	})

	// ── Services ─────────────────────────────────────────────────────────
	codeService := service.NewCodeService(codeStore, embedder)
	searchService := service.NewSearchService(codeStore, embedder, cfg.SearchLimitMax)
	ingestService := service.NewIngestService(codeStore, embedder, service.IngestConfig{
		MaxRows:    cfg.CSVMaxRows,
		ChunkSize:  cfg.CSVChunkSize,
		ChunkDelay: cfg.CSVChunkDelay,
	})

	// ── Fiber App ────────────────────────────────────────────────────────
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: []string{cfg.FrontendURL},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
	}))

	api := app.Group("/api/v1")

	// Health check
	api.Get("/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"app":     cfg.AppName,
			"version": "1.0.0",
		})
	})

	// ── Routes ───────────────────────────────────────────────────────────
	// Static /codes routes must come before the parameterized :id routes.
	searchHandler := handler.NewSearchHandler(searchService)
	searchHandler.Register(api)

	uploadHandler := handler.NewUploadHandler(ingestService)
	uploadHandler.Register(api)

	codeHandler := handler.NewCodeHandler(codeService)
	codeHandler.Register(api)

	// ── Start ────────────────────────────────────────────────────────────
	slog.Info("🌐 Fiber listening", "port", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

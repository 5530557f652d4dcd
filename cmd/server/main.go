package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/arturoeanton/go-code-similarity-ollama/internal/adapter/ai"
	"github.com/arturoeanton/go-code-similarity-ollama/internal/adapter/store"
	"github.com/arturoeanton/go-code-similarity-ollama/internal/handler"
	"github.com/arturoeanton/go-code-similarity-ollama/internal/mcp"
	"github.com/arturoeanton/go-code-similarity-ollama/internal/service"
	"github.com/arturoeanton/go-code-similarity-ollama/pkg/config"

	_ "github.com/lib/pq"
)

func main() {
	// ── Load .env file ───────────────────────────────────────────────────
	_ = godotenv.Load() // silently ignore if .env doesn't exist

	// ── Configuration ────────────────────────────────────────────────────
	cfg := config.Load()

	// ── Logging ──────────────────────────────────────────────────────────
	// Configured once here; everything downstream logs through slog.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	})))

	slog.Info("🚀 Starting CodeEcho",
		"port", cfg.Port,
		"ollama_embed", cfg.OllamaEmbedURL,
		"embed_model", cfg.OllamaEmbedModel,
		"mcp_enabled", cfg.MCPEnabled,
	)

	// ── Database ─────────────────────────────────────────────────────────
	pgStore, err := store.NewPostgresStore(cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pgStore.Close()

	recordStore := store.NewRecordStore(pgStore, cfg.CacheTTL)

	// ── Adapters ─────────────────────────────────────────────────────────
	ollamaProvider := ai.NewOllamaProvider(ai.OllamaEndpointConfig{
		BaseURL: cfg.OllamaEmbedURL,
		Model:   cfg.OllamaEmbedModel,
		Token:   cfg.OllamaEmbedToken,
		Timeout: cfg.EmbedTimeout,
	})

	// ── Services ─────────────────────────────────────────────────────────
	embedService := service.NewEmbedService(ollamaProvider, cfg.EmbedChunkLimit, cfg.EmbedConcurrency)
	indexService := service.NewIndexService(recordStore, embedService)
	similarityService := service.NewSimilarityService(recordStore, embedService)

	// ── Fiber App ────────────────────────────────────────────────────────
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New())

	// ── Routes ───────────────────────────────────────────────────────────
	elementHandler := handler.NewElementHandler(indexService)
	elementHandler.Register(app)

	similarityHandler := handler.NewSimilarityHandler(similarityService)
	similarityHandler.Register(app)

	// ── MCP Server (separate port) ───────────────────────────────────────
	if cfg.MCPEnabled {
		mcpServer := mcp.NewServer(similarityService, cfg.MCPPort)
		go func() {
			if err := mcpServer.Start(); err != nil {
				slog.Error("MCP server failed", "error", err)
			}
		}()
	}

	// ── Start ────────────────────────────────────────────────────────────
	slog.Info("🌐 Fiber listening", "port", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

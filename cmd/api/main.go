package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/medbook/backend/internal/adapters/cache"
	"github.com/medbook/backend/internal/adapters/database"
	"github.com/medbook/backend/internal/api/handlers"
	"github.com/medbook/backend/internal/api/routes"
	"github.com/medbook/backend/internal/application/services"
	"github.com/medbook/backend/internal/domain/providers"
	"github.com/medbook/backend/internal/infrastructure/clients/embedding"
	"github.com/medbook/backend/internal/infrastructure/clients/openai"
	"github.com/medbook/backend/internal/infrastructure/clients/postgres"
	"github.com/medbook/backend/internal/infrastructure/clients/redis"
	"github.com/medbook/backend/internal/infrastructure/observability"
	"github.com/medbook/backend/pkg/config"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Env)
	logger := observability.GetLogger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					logger.Error().Err(err).Msg("Error shutting down OpenTelemetry")
				}
			}()
			logger.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize metrics")
	}

	pgClient, err := postgres.NewClient(ctx, &cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()

	healthChecks := map[string]handlers.Pinger{"postgres": pgClient}

	var cacheProvider providers.CacheProvider
	redisClient, err := redis.NewClient(ctx, &cfg.Redis)
	if err != nil {
		// embeddings are simply not cached without Redis
		logger.Warn().Err(err).Msg("Redis unavailable, query embeddings will not be cached")
	} else {
		defer redisClient.Close()
		cacheProvider = cache.NewRedisAdapter(redisClient, cfg.Redis.KeyPrefix)
		healthChecks["redis"] = redisClient
	}

	var embedder providers.EmbeddingProvider
	embeddingClient, err := embedding.NewClient(&cfg.Embedding)
	if err != nil {
		logger.Warn().Err(err).Msg("Embedding service not configured, vector search disabled")
	} else {
		embedder = embeddingClient
		if cacheProvider != nil {
			embedder = cache.NewCachedEmbeddingProvider(embeddingClient, cacheProvider, cfg.Embedding.Model, cfg.Embedding.CacheTTLSeconds)
		}
	}

	llm, err := openai.NewSimilarityLLM(&cfg.OpenAI)
	if err != nil {
		logger.Warn().Err(err).Str("backend", cfg.OpenAI.Backend).Msg("Similarity LLM not configured, AI search disabled")
	}

	searchService, err := services.NewGlobalSearchService(embedder, llm, cfg.Search)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize search service")
	}
	defer searchService.Close()

	catalogRepo := database.NewSearchCatalogAdapter(pgClient)
	analyticsService := services.NewSearchAnalyticsService(database.NewSearchAnalyticsAdapter(pgClient))

	searchHandler := handlers.NewSearchHandler(searchService, catalogRepo, analyticsService, cfg.Search.CandidateLimit)
	healthHandler := handlers.NewHealthHandler(healthChecks)

	router := routes.NewRouter(searchHandler, healthHandler, cfg.Server.AllowedOrigins, metrics)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:        serverAddr,
		Handler:     router.SetupRoutes(),
		ReadTimeout: 15 * time.Second,
		// AI searches fan out to many LLM batches
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", serverAddr).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("Server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Error during server shutdown")
	}

	logger.Info().Msg("Server stopped")
}

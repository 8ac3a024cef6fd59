package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/spoileralert/backend/internal/adapters/auth"
	"github.com/spoileralert/backend/internal/adapters/cache"
	"github.com/spoileralert/backend/internal/adapters/database"
	"github.com/spoileralert/backend/internal/adapters/events"
	"github.com/spoileralert/backend/internal/adapters/providers/metadata"
	"github.com/spoileralert/backend/internal/adapters/search"
	"github.com/spoileralert/backend/internal/api/handlers"
	"github.com/spoileralert/backend/internal/api/loaders"
	"github.com/spoileralert/backend/internal/api/middleware"
	"github.com/spoileralert/backend/internal/api/routes"
	"github.com/spoileralert/backend/internal/application/services"
	"github.com/spoileralert/backend/internal/domain/providers"
	"github.com/spoileralert/backend/internal/domain/repositories"
	"github.com/spoileralert/backend/internal/infrastructure/clients/jsonstore"
	"github.com/spoileralert/backend/internal/infrastructure/clients/redis"
	"github.com/spoileralert/backend/internal/infrastructure/clients/typesense"
	"github.com/spoileralert/backend/internal/infrastructure/observability"
	"github.com/spoileralert/backend/pkg/config"
)

const cacheWarmInterval = 10 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Env)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			observability.ExportLogs(cfg.OTEL.ServiceName)
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			log.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	// Storage
	store := jsonstore.NewGateway(&cfg.Storage, jsonstore.WithMetrics(metrics))
	if err := store.Check(ctx, jsonstore.AllCollections...); err != nil {
		log.Fatal().Err(err).Str("data_dir", cfg.Storage.DataDir).Msg("data collections are not readable")
	}
	log.Info().Str("data_dir", cfg.Storage.DataDir).Msg("data collections loaded")

	// Cache and event bus fall back to in-process implementations without Redis
	var cacheProvider providers.CacheProvider = cache.NewMemoryAdapter()
	var eventBus providers.EventBus = events.NewMemoryEventBus()
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(ctx, &cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, using in-process cache and event bus")
		} else {
			defer redisClient.Close()
			cacheProvider = cache.NewRedisAdapter(redisClient)
			eventBus = events.NewRedisEventBus(redisClient)
		}
	}

	// Movie search
	var searchRepo repositories.MovieSearchRepository = search.NewMemoryIndex()
	if cfg.Typesense.Enabled {
		tsClient, err := typesense.NewClient(ctx, &cfg.Typesense)
		if err != nil {
			log.Warn().Err(err).Msg("typesense unavailable, using in-process search index")
		} else if err := tsClient.InitSchema(ctx); err != nil {
			log.Warn().Err(err).Msg("failed to initialize typesense schema, using in-process search index")
		} else {
			searchRepo = search.NewTypesenseAdapter(tsClient)
		}
	}

	// Metadata provider
	var metadataProvider providers.MetadataProvider
	if cfg.TMDB.APIKey != "" {
		metadataProvider = metadata.NewTMDBProvider(&cfg.TMDB, cacheProvider)
	} else {
		log.Warn().Msg("TMDB_API_KEY not set, using mock metadata provider")
		metadataProvider = metadata.NewMockMetadataProvider()
	}

	// Repositories
	userRepo := database.NewUserAdapter(store)
	reviewRepo := database.NewReviewAdapter(store)
	movieRepo := database.NewCachedMovieAdapter(database.NewMovieAdapter(store), cacheProvider)
	replyRepo := database.NewReplyAdapter(store)
	likeRepo := database.NewLikeAdapter(store)
	favoriteRepo := database.NewFavoriteAdapter(store)

	// Services
	identityService := services.NewIdentityService(
		userRepo,
		auth.NewJWTIssuer(&cfg.Auth),
		auth.NewBcryptHasher(0),
		auth.NewCacheResetTokenStore(cacheProvider),
		cacheProvider,
		cfg.Auth.ResetTokenTTL,
	)
	userService := services.NewUserService(userRepo, auth.NewBcryptHasher(0))
	catalogService := services.NewCatalogService(movieRepo, searchRepo, reviewRepo)
	reviewService := services.NewReviewService(reviewRepo, movieRepo)
	socialService := services.NewSocialService(reviewRepo, movieRepo, userRepo, replyRepo, likeRepo, favoriteRepo, metadataProvider)
	moderationService := services.NewModerationService(reviewRepo, userRepo, eventBus, metrics)
	enrichmentService := services.NewEnrichmentService(movieRepo, metadataProvider)

	if n, err := catalogService.Reindex(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to index movies for search")
	} else {
		log.Info().Int("movies", n).Msg("movie search index built")
	}

	cacheInvalidationService := services.NewCacheInvalidationService(cacheProvider, eventBus)
	if err := cacheInvalidationService.Start(); err != nil {
		log.Warn().Err(err).Msg("failed to start cache invalidation service")
	}

	cacheWarmingService := services.NewCacheWarmingService(movieRepo)
	cacheWarmingService.StartPeriodicWarming(ctx, cacheWarmInterval)

	// Handlers
	router := routes.NewRouter(
		handlers.NewAuthHandler(identityService),
		handlers.NewUserHandler(userService),
		handlers.NewMovieHandler(catalogService),
		handlers.NewReviewHandler(reviewService),
		handlers.NewSocialHandler(socialService),
		handlers.NewAdminHandler(moderationService),
		handlers.NewTMDBHandler(enrichmentService),
		routes.Options{
			Auth:            identityService,
			Events:          handlers.NewSSEHandler(eventBus),
			Loaders:         loaders.Middleware(userRepo, movieRepo),
			CacheMiddleware: middleware.NewCacheMiddleware(cacheProvider, metrics),
			AllowedOrigins:  cfg.CORS.AllowedOrigins,
			Metrics:         metrics,
		},
	)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.SetupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	cancel()
	cacheInvalidationService.Stop()

	if err := eventBus.Close(); err != nil {
		log.Error().Err(err).Msg("error closing event bus")
	}

	log.Info().Msg("server stopped")
}

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-desk/internal/analysis"
	httptransport "github.com/spec-kit/ticket-desk/internal/api/http"
	"github.com/spec-kit/ticket-desk/internal/api/http/handlers"
	"github.com/spec-kit/ticket-desk/internal/auth"
	"github.com/spec-kit/ticket-desk/internal/backend"
	"github.com/spec-kit/ticket-desk/internal/cache"
	"github.com/spec-kit/ticket-desk/internal/catalog"
	"github.com/spec-kit/ticket-desk/internal/config"
	"github.com/spec-kit/ticket-desk/internal/events"
	"github.com/spec-kit/ticket-desk/internal/observability"
	"github.com/spec-kit/ticket-desk/internal/persistence"
	"github.com/spec-kit/ticket-desk/internal/repository"
	"github.com/spec-kit/ticket-desk/internal/service"
	"github.com/spec-kit/ticket-desk/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics()

	cat, err := catalog.Load(cfg.Composer.CatalogPath)
	if err != nil {
		logger.Fatal("failed to load catalog", zap.Error(err))
	}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	deps := map[string]handlers.Pinger{}
	var templates repository.TemplateRepository
	if pool := pg.PoolHandle(); pool != nil {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pool, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		templates = repository.NewTemplateRepository(pool)
		seeded, err := repository.SeedTemplates(ctx, templates, cat.Templates)
		if err != nil {
			logger.Fatal("failed to seed templates", zap.Error(err))
		}
		logger.Info("templates seeded", zap.Int("count", seeded))
		deps["postgres"] = pg
	} else {
		templates = repository.NewMemoryTemplateRepository(cat.Templates)
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	var (
		listings    cache.ListingCache
		revocations cache.RevocationStore
	)
	if redis.Available() {
		if ttl := cfg.Composer.ListingCacheTTL(); ttl > 0 {
			listings = cache.NewRedisListingCache(redis.Client, ttl)
		}
		revocations = cache.NewRedisRevocationStore(redis.Client)
		deps["redis"] = redis
	} else {
		if ttl := cfg.Composer.ListingCacheTTL(); ttl > 0 {
			listings = cache.NewMemoryListingCache(ttl)
		}
		revocations = cache.NewMemoryRevocationStore()
	}

	backendClient := backend.NewClient(cfg.Backend, logger)

	var analyzer service.SentimentAnalyzer = backendClient
	if cfg.Analyzer.OpenAIKey != "" {
		analyzer = analysis.Chain{analysis.NewOpenAIAnalyzer(cfg.Analyzer), backendClient}
	}

	dispatcher := events.NewInMemoryDispatcher()
	worker.StartNotificationWorker(service.NewNotificationService(dispatcher, listings, logger))

	catalogService := service.NewCatalogService(cat, templates, backendClient, logger, metrics)
	composerService := service.NewComposerService(service.ComposerDependencies{
		Backend:         backendClient,
		Analyzer:        analyzer,
		Templates:       templates,
		Categories:      cat,
		Studios:         catalogService,
		Dispatcher:      dispatcher,
		Logger:          logger,
		Metrics:         metrics,
		AnalyzerTimeout: cfg.Analyzer.Timeout(),
	})
	listingService := service.NewListingService(backendClient, listings, logger)

	var provider service.ProviderSignOut
	if p := auth.NewProviderClient(cfg.Auth.ProviderSignOut, cfg.Backend.Timeout()); p.Enabled() {
		provider = p
	}
	authService := service.NewAuthService(provider, revocations, composerService, cfg.Auth.RevocationTTL(), logger)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, 60)
	authMiddleware := auth.NewAuthMiddleware(tokens, revocations, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		BodyLimit:    20 * 1024 * 1024,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, deps),
		Drafts:         handlers.NewDraftsHandler(composerService),
		Catalog:        handlers.NewCatalogHandler(catalogService),
		Tickets:        handlers.NewTicketsHandler(listingService),
		Auth:           handlers.NewAuthHandler(authService),
		AuthMiddleware: authMiddleware,
		Metrics:        metrics,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown incomplete", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}

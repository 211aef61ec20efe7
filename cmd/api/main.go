package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/voxtill/voxtill-backend/api/routes"
	"github.com/voxtill/voxtill-backend/internal/catalog"
	"github.com/voxtill/voxtill-backend/internal/partners"
	"github.com/voxtill/voxtill-backend/internal/pricing"
	"github.com/voxtill/voxtill-backend/internal/rules"
	"github.com/voxtill/voxtill-backend/internal/transactions"
	"github.com/voxtill/voxtill-backend/pkg/config"
	"github.com/voxtill/voxtill-backend/pkg/db"
	"github.com/voxtill/voxtill-backend/pkg/logger"
	"github.com/voxtill/voxtill-backend/pkg/metrics"
	"github.com/voxtill/voxtill-backend/pkg/migrate"
	"github.com/voxtill/voxtill-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	resolutionMetrics := metrics.NewResolutionMetrics(prometheus.DefaultRegisterer)

	engine, err := pricing.NewEngine(pricing.EngineParams{
		Config:  cfg.Pricing,
		Logger:  logg,
		Metrics: resolutionMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create pricing engine", err)
		os.Exit(1)
	}

	rulesService, err := rules.NewService(rules.ServiceParams{
		Repo:     rules.NewRepository(dbClient.DB()),
		Versions: redisClient,
		Logger:   logg,
		TTL:      cfg.Pricing.SnapshotTTL,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create rules service", err)
		os.Exit(1)
	}

	partnersService, err := partners.NewService(partners.ServiceParams{
		Repo: partners.NewRepository(dbClient.DB()),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create partners service", err)
		os.Exit(1)
	}

	catalogService, err := catalog.NewService(catalog.ServiceParams{
		Repo: catalog.NewRepository(dbClient.DB()),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	transactionsService, err := transactions.NewService(transactions.ServiceParams{
		Repo:     transactions.NewRepository(dbClient.DB()),
		DB:       dbClient,
		Rules:    rulesService,
		Partners: partnersService,
		Catalog:  catalogService,
		Engine:   engine,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create transactions service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:       cfg,
			Logger:       logg,
			DB:           dbClient,
			Redis:        redisClient,
			Transactions: transactionsService,
			Rules:        rulesService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/agritraceio/agritrace-backend/api/routes"
	"github.com/agritraceio/agritrace-backend/internal/gateway"
	"github.com/agritraceio/agritrace-backend/internal/ingest"
	"github.com/agritraceio/agritrace-backend/internal/produce"
	"github.com/agritraceio/agritrace-backend/internal/purchase"
	"github.com/agritraceio/agritrace-backend/internal/txsync"
	"github.com/agritraceio/agritrace-backend/internal/users"
	"github.com/agritraceio/agritrace-backend/pkg/config"
	"github.com/agritraceio/agritrace-backend/pkg/db"
	"github.com/agritraceio/agritrace-backend/pkg/env"
	"github.com/agritraceio/agritrace-backend/pkg/logger"
	"github.com/agritraceio/agritrace-backend/pkg/metrics"
	"github.com/agritraceio/agritrace-backend/pkg/migrate"
	"github.com/agritraceio/agritrace-backend/pkg/pubsub"
	"github.com/agritraceio/agritrace-backend/pkg/redis"
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

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.Flags.UseSQLite, logg)
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

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	ledgerClient, err := gateway.Open(context.Background(), cfg.Ledger, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to connect ledger gateway", err)
		os.Exit(1)
	}
	defer func() {
		if err := ledgerClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing ledger gateway", err)
		}
	}()

	registry := prometheus.NewRegistry()
	ledgerMetrics := metrics.NewLedgerMetrics(registry)

	syncOpts := txsync.Options{Metrics: ledgerMetrics, Logger: logg}
	if cfg.PubSub.ProjectID != "" {
		psClient, err := pubsub.NewClient(context.Background(), cfg.PubSub, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap pubsub", err)
			os.Exit(1)
		}
		defer func() {
			if err := psClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing pubsub", err)
			}
		}()
		syncOpts.Events = txsync.NewEventPublisher(psClient.MirrorEventsPublisher())
	}

	syncService, err := txsync.NewService(ledgerClient, txsync.NewRepository(dbClient.DB()), syncOpts)
	if err != nil {
		logg.Error(context.Background(), "failed to create txsync service", err)
		os.Exit(1)
	}
	userService, err := users.NewService(users.NewRepository(dbClient.DB()), cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to create users service", err)
		os.Exit(1)
	}
	produceService, err := produce.NewService(produce.NewRepository(dbClient.DB()), syncService, ledgerClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create produce service", err)
		os.Exit(1)
	}
	purchaseService, err := purchase.NewService(purchase.NewRepository(dbClient.DB()), syncService)
	if err != nil {
		logg.Error(context.Background(), "failed to create purchase service", err)
		os.Exit(1)
	}
	ingestService, err := ingest.NewService(syncService, cfg.Ingest)
	if err != nil {
		logg.Error(context.Background(), "failed to create ingest service", err)
		os.Exit(1)
	}

	addr := ":" + env.Get("PORT", cfg.App.Port)
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":     cfg.App.Env,
		"addr":    addr,
		"backend": string(ledgerClient.Mode()),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:       cfg,
			Logger:       logg,
			DB:           dbClient,
			Redis:        redisClient,
			Ledger:       ledgerClient,
			Registry:     registry,
			Users:        userService,
			Transactions: syncService,
			Produce:      produceService,
			Purchases:    purchaseService,
			Ingest:       ingestService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

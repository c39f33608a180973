package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/leanai/mumul-backend/api/controllers"
	"github.com/leanai/mumul-backend/api/routes"
	"github.com/leanai/mumul-backend/internal/auth"
	"github.com/leanai/mumul-backend/pkg/auth/session"
	"github.com/leanai/mumul-backend/pkg/config"
	"github.com/leanai/mumul-backend/pkg/db"
	"github.com/leanai/mumul-backend/pkg/enums"
	"github.com/leanai/mumul-backend/pkg/logger"
	"github.com/leanai/mumul-backend/pkg/metrics"
	"github.com/leanai/mumul-backend/pkg/migrate"
	"github.com/leanai/mumul-backend/pkg/redis"
	"github.com/leanai/mumul-backend/pkg/storage"
)

const shutdownTimeout = 15 * time.Second

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

	loc, err := cfg.App.Location()
	if err != nil {
		logg.Error(context.Background(), "failed to load time zone", err)
		os.Exit(1)
	}

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
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

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	issuer, err := auth.NewIssuer(cfg.JWT, sessionManager)
	if err != nil {
		logg.Error(context.Background(), "failed to create token issuer", err)
		os.Exit(1)
	}

	store, err := storage.New(context.Background(), cfg.Storage, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap media storage", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	httpMetrics := metrics.NewHTTPMetrics(registry)
	outbound := metrics.NewOutboundMetrics(registry)

	gw, err := buildGateways(context.Background(), cfg, logg, outbound)
	if err != nil {
		logg.Error(context.Background(), "failed to configure gateways", err)
		os.Exit(1)
	}

	deps, err := buildServices(serviceDeps{
		cfg:      cfg,
		logg:     logg,
		db:       dbClient,
		redis:    redisClient,
		tokens:   issuer,
		store:    store,
		gateways: gw,
		loc:      loc,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to build services", err)
		os.Exit(1)
	}

	deps.Config = cfg
	deps.Logger = logg
	deps.Sessions = sessionManager
	deps.Limiter = redisClient
	deps.Ready = map[string]controllers.Pinger{
		"database": dbClient,
		"redis":    redisClient,
	}
	deps.HTTPMetrics = httpMetrics
	if cfg.FeatureFlags.MetricsEndpoint {
		deps.Gatherer = registry
	}
	if driver, _ := enums.ParseStorageDriver(cfg.Storage.Driver); cfg.FeatureFlags.ServeLocalMedia && driver == enums.StorageDriverLocal {
		deps.MediaDir = cfg.Storage.MediaRoot
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

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-sigCtx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}

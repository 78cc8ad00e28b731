package main

import (
	"context"
	"errors"
	"fmt"
	"freight-route-service/internal/adapters/cache"
	"freight-route-service/internal/adapters/distance"
	"freight-route-service/internal/adapters/lock"
	"freight-route-service/internal/adapters/repositories"
	"freight-route-service/internal/adapters/shipments"
	"freight-route-service/internal/api"
	"freight-route-service/internal/api/handlers"
	"freight-route-service/internal/config"
	"freight-route-service/internal/platform/db"
	"freight-route-service/internal/platform/logger"
	"freight-route-service/internal/platform/migration"
	"freight-route-service/internal/ports"
	"freight-route-service/internal/services"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// store is everything the services need from persistence.
type store interface {
	ports.DepotRepository
	ports.VehicleRepository
	ports.RouteRepository
	ports.CostRepository
	ports.TariffRegistry
}

// main is the application composition root.
// It wires concrete adapters behind ports and starts the HTTP server.
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, foundEnvFile, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Env)
	if err != nil {
		return err
	}
	defer log.Sync()
	zap.ReplaceGlobals(log)

	if !foundEnvFile {
		log.Info("no .env file found (using environment variables)")
	}
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, distanceCache, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	var locker ports.VehicleLocker = lock.NewLocalLocker()
	if cfg.RedisAddress != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddress})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping %s: %w", cfg.RedisAddress, err)
		}
		locker = lock.NewRedisLocker(rdb, cfg.LockTTL, cfg.LockWait, log)
		distanceCache = cache.NewRedisDistanceCache(rdb, cfg.DistanceCacheTTL)
		log.Info("using redis for locks and distance cache", zap.String("addr", cfg.RedisAddress))
	}

	// OSRM calls are bounded per request by the estimator, not by the client.
	osrm, err := distance.NewOSRMClient(cfg.OSRMURL, &http.Client{})
	if err != nil {
		return err
	}
	estimator := distance.NewFallbackEstimator(osrm, distanceCache, cfg.OSRMTimeout, log)

	gateway, err := shipmentGateway(cfg, log)
	if err != nil {
		return err
	}

	costs := services.NewCostEngine(st, log)
	composer := services.NewRouteComposer(services.RouteComposerDeps{
		Depots:    services.NewDepotSelector(st),
		Distances: estimator,
		Costs:     costs,
		Vehicles:  st,
		Routes:    st,
		Shipments: gateway,
	}, cfg.CostTimeout, log)
	lifecycle := services.NewLegLifecycle(services.LegLifecycleDeps{
		Vehicles:  st,
		Routes:    st,
		Costs:     costs,
		Shipments: gateway,
		Locks:     locker,
	}, log)
	queries := services.NewQueries(st, st, st)

	router := api.NewRouter(
		&handlers.RouteHandler{Routes: composer, Queries: queries, Log: log},
		&handlers.LegHandler{Legs: lifecycle, Queries: queries, Log: log},
		log,
	)

	// Write timeout covers three variants of OSRM calls plus cost estimation.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
	}
	return nil
}

// openStore returns the Postgres store when DATABASE_URL is set, migrating it
// first, or an in-memory store seeded from SEED_PATH otherwise. The distance
// cache is SQL-backed only with Postgres.
func openStore(ctx context.Context, cfg config.Config, log *zap.Logger) (store, ports.DistanceCache, func(), error) {
	if !cfg.UsesPostgres() {
		mem := repositories.NewMemoryStore()
		if err := repositories.SeedFromJSON(ctx, mem, cfg.SeedPath); err != nil {
			return nil, nil, nil, err
		}
		log.Warn("DATABASE_URL not set, using in-memory store", zap.String("seed", cfg.SeedPath))
		return mem, nil, func() {}, nil
	}

	if err := migration.Up(cfg.DatabaseURL, cfg.MigrationsDir, log); err != nil {
		return nil, nil, nil, err
	}
	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, err
	}
	closeFn := func() {
		if err := conn.Close(); err != nil {
			log.Warn("close database", zap.Error(err))
		}
	}
	return repositories.NewPostgresStore(conn), cache.NewSQLDistanceCache(conn, cfg.DistanceCacheTTL), closeFn, nil
}

func shipmentGateway(cfg config.Config, log *zap.Logger) (ports.ShipmentGateway, error) {
	if cfg.ShipmentsURL == "" {
		log.Warn("SHIPMENTS_URL not set, shipments are kept in memory")
		return shipments.NewMemoryGateway(), nil
	}
	return shipments.NewHTTPGateway(cfg.ShipmentsURL, &http.Client{Timeout: 10 * time.Second})
}

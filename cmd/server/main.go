package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"market-delivery-service/internal/adapters/cache"
	"market-delivery-service/internal/adapters/geocode"
	"market-delivery-service/internal/adapters/repositories"
	"market-delivery-service/internal/api"
	"market-delivery-service/internal/config"
	"market-delivery-service/internal/platform/db"
	"market-delivery-service/internal/platform/obs"
	"market-delivery-service/internal/ports"
	"market-delivery-service/internal/services"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

// main is the application composition root.
// It wires concrete adapters (SQL, Redis, ORS) behind ports and starts the HTTP server.
func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.SetDefault(obs.NewLogger(cfg.LogLevel, cfg.LogFormat))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := obs.InitTracing(ctx, obs.TracingConfig{
		Enabled:     cfg.TracingEnabled,
		ServiceName: cfg.TracingServiceName,
	})
	if err != nil {
		return err
	}
	defer obs.ShutdownTracing(context.Background(), shutdownTracing)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := obs.NewMetrics(reg)
	if err != nil {
		return err
	}

	conn, err := db.Open(ctx, cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer conn.Close()

	dialect, err := repositories.DialectForDriver(cfg.DBDriver)
	if err != nil {
		return err
	}
	if err := initAndSeed(ctx, conn, dialect, cfg.SeedPath); err != nil {
		return err
	}

	repo := repositories.NewSQLMarketRepository(conn, dialect)

	source, closeSource, err := newSnapshotSource(ctx, cfg, repo, metrics)
	if err != nil {
		return err
	}
	defer closeSource()

	geocoder, err := newGeocoder(cfg, conn, dialect, metrics)
	if err != nil {
		return err
	}

	router := api.NewRouter(api.Deps{
		Source: source,
		Service: services.NewDeliveryService(
			services.WithEstimate(cfg.MinDeliveryMinutes, cfg.MinutesPerKm),
			services.WithMetrics(metrics),
		),
		Geocoder:    geocoder,
		Metrics:     metrics,
		RateLimiter: api.NewIPRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		JWTSecret:   cfg.JWTSecret,
	})

	// Warm the snapshot so configuration problems show up in the startup logs.
	if _, err := source.Snapshot(ctx); err != nil {
		slog.WarnContext(ctx, "initial snapshot load failed", "err", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", srv.Addr, "db_driver", cfg.DBDriver)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func initAndSeed(ctx context.Context, conn *sql.DB, dialect repositories.Dialect, seedPath string) error {
	if err := repositories.InitSchema(ctx, conn); err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}
	if seedPath == "" {
		return nil
	}
	if err := repositories.SeedFromJSON(ctx, conn, dialect, seedPath); err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}
	slog.Info("seeded markets", "path", seedPath)
	return nil
}

// newSnapshotSource shares configuration through Redis when REDIS_URL is set
// and falls back to a per-process cache otherwise.
func newSnapshotSource(
	ctx context.Context,
	cfg config.Config,
	repo ports.MarketRepository,
	metrics *obs.Metrics,
) (ports.SnapshotSource, func(), error) {
	if cfg.RedisURL == "" {
		return cache.NewMemorySnapshotCache(repo, cfg.SnapshotTTL, metrics), func() {}, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		slog.WarnContext(ctx, "redis unreachable, snapshots will load from the database", "err", err)
	}

	closeFn := func() {
		if err := client.Close(); err != nil {
			slog.Warn("close redis client", "err", err)
		}
	}
	return cache.NewRedisSnapshotCache(client, repo, "", cfg.SnapshotTTL, metrics), closeFn, nil
}

// newGeocoder returns nil when no ORS key is configured; address lookups are
// then rejected and callers must send coordinates.
func newGeocoder(cfg config.Config, conn *sql.DB, dialect repositories.Dialect, metrics *obs.Metrics) (ports.Geocoder, error) {
	if cfg.ORSAPIKey == "" {
		slog.Info("ORS_API_KEY not set, address geocoding disabled")
		return nil, nil
	}

	g, err := geocode.NewORSGeocoder(cfg.ORSAPIKey,
		geocode.WithBaseURL(cfg.ORSBaseURL),
		geocode.WithCountry(cfg.GeocodeCountry),
		geocode.WithCache(cache.NewSQLGeocodeCache(conn, dialect, cfg.GeocodeCacheTTL)),
		geocode.WithRateLimit(1, 5),
		geocode.WithMetrics(metrics),
	)
	if err != nil {
		return nil, fmt.Errorf("create geocoder: %w", err)
	}
	return g, nil
}

package main

import (
	"context"
	"flag"
	"log/slog"
	"market-delivery-service/internal/adapters/repositories"
	"market-delivery-service/internal/config"
	"market-delivery-service/internal/domain"
	"market-delivery-service/internal/platform/db"
	"market-delivery-service/internal/platform/obs"
	"os"
)

// dbtool initializes the schema and loads market configuration from a JSON
// seed file, then reports what the resulting snapshot would contain.
func main() {
	seedFlag := flag.String("seed", "", "path to a markets JSON file (defaults to SEED_PATH)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}
	slog.SetDefault(obs.NewLogger(cfg.LogLevel, cfg.LogFormat))

	seedPath := *seedFlag
	if seedPath == "" {
		seedPath = cfg.SeedPath
	}
	if seedPath == "" {
		seedPath = "data/seeds/markets.json"
	}

	if err := run(context.Background(), cfg, seedPath); err != nil {
		slog.Error("dbtool failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, seedPath string) error {
	conn, err := db.Open(ctx, cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer conn.Close()

	dialect, err := repositories.DialectForDriver(cfg.DBDriver)
	if err != nil {
		return err
	}

	slog.Info("initializing database schema", "driver", cfg.DBDriver)
	if err := repositories.InitSchema(ctx, conn); err != nil {
		return err
	}

	slog.Info("seeding database", "path", seedPath)
	if err := repositories.SeedFromJSON(ctx, conn, dialect, seedPath); err != nil {
		return err
	}

	markets, err := repositories.NewSQLMarketRepository(conn, dialect).ListMarkets(ctx)
	if err != nil {
		return err
	}
	snap := domain.NewSnapshot(markets)
	for _, issue := range snap.Issues() {
		slog.Warn("configuration issue", "market_id", issue.MarketID, "zone_id", issue.ZoneID, "err", issue.Err)
	}
	slog.Info("seeding complete", "markets", len(markets), "active", len(snap.ActiveMarkets()), "issues", len(snap.Issues()))
	return nil
}

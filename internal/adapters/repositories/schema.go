package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Create the markets, delivery_zones and geocode_cache tables.
// The DDL sticks to types both Postgres and SQLite accept.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createMarketsQuery := `
	CREATE TABLE IF NOT EXISTS markets (
		id BIGINT PRIMARY KEY,
		name TEXT NOT NULL,
		latitude DOUBLE PRECISION NOT NULL,
		longitude DOUBLE PRECISION NOT NULL,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		default_fee NUMERIC(12, 2),
		max_delivery_km DOUBLE PRECISION NOT NULL DEFAULT 0
	);
	`

	createZonesQuery := `
	CREATE TABLE IF NOT EXISTS delivery_zones (
		id BIGINT PRIMARY KEY,
		market_id BIGINT NOT NULL REFERENCES markets(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		kind TEXT NOT NULL DEFAULT 'standard',
		priority INTEGER NOT NULL DEFAULT 0,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		shape_type TEXT NOT NULL,
		center_lat DOUBLE PRECISION,
		center_lon DOUBLE PRECISION,
		radius_km DOUBLE PRECISION,
		polygon TEXT,
		base_fee NUMERIC(12, 2) NOT NULL DEFAULT 0,
		rate_per_km NUMERIC(12, 2) NOT NULL DEFAULT 0,
		min_fee NUMERIC(12, 2),
		max_fee NUMERIC(12, 2),
		free_delivery_threshold NUMERIC(12, 2),
		fixed_fee NUMERIC(12, 2),
		surcharge_percent NUMERIC(6, 2) NOT NULL DEFAULT 0,
		fee_bands TEXT,
		estimated_minutes INTEGER NOT NULL DEFAULT 0
	);
	`

	createZonesIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_delivery_zones_market
	ON delivery_zones(market_id, priority, id);
	`

	createGeocodeCacheQuery := `
	CREATE TABLE IF NOT EXISTS geocode_cache (
		address TEXT PRIMARY KEY,
		lon DOUBLE PRECISION NOT NULL,
		lat DOUBLE PRECISION NOT NULL,
		cached_at BIGINT NOT NULL
	);
	`

	statements := []string{
		createMarketsQuery,
		createZonesQuery,
		createZonesIndexQuery,
		createGeocodeCacheQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"market-delivery-service/internal/domain"
	"market-delivery-service/internal/platform/obs"
)

// SQL-backed implementation of the MarketRepository port. Works against both
// Postgres and SQLite; Dialect selects the placeholder style.
type SQLMarketRepository struct {
	DB      *sql.DB
	Dialect Dialect
}

func NewSQLMarketRepository(db *sql.DB, dialect Dialect) *SQLMarketRepository {
	return &SQLMarketRepository{DB: db, Dialect: dialect}
}

// Return every market with its zones, ordered by market id. Zones come back
// ordered by priority then id.
func (r *SQLMarketRepository) ListMarkets(ctx context.Context) (_ []domain.Market, err error) {
	defer obs.Time(ctx, "markets.ListMarkets")(&err)

	if r.DB == nil {
		return nil, errors.New("market repository: DB is nil")
	}

	marketsQuery := `
	SELECT
		id,
		name,
		latitude,
		longitude,
		active,
		default_fee,
		max_delivery_km
	FROM markets
	ORDER BY id;
	`
	rows, err := r.DB.QueryContext(ctx, marketsQuery)
	if err != nil {
		return nil, fmt.Errorf("list markets: query markets table: %w", err)
	}
	defer rows.Close()

	markets := make([]domain.Market, 0, 16)
	index := make(map[int64]int)
	for rows.Next() {
		var m domain.Market
		if err := rows.Scan(
			&m.ID,
			&m.Name,
			&m.Location.Lat,
			&m.Location.Lon,
			&m.Active,
			&m.DefaultFee,
			&m.MaxDeliveryKm,
		); err != nil {
			return nil, fmt.Errorf("list markets: scan market row: %w", err)
		}
		index[m.ID] = len(markets)
		markets = append(markets, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list markets: market row iteration: %w", err)
	}

	zones, err := r.listZones(ctx)
	if err != nil {
		return nil, err
	}
	for _, z := range zones {
		i, ok := index[z.MarketID]
		if !ok {
			continue
		}
		markets[i].Zones = append(markets[i].Zones, z)
	}

	return markets, nil
}

func (r *SQLMarketRepository) listZones(ctx context.Context) ([]domain.Zone, error) {
	zonesQuery := `
	SELECT
		id,
		market_id,
		name,
		kind,
		priority,
		active,
		shape_type,
		center_lat,
		center_lon,
		radius_km,
		polygon,
		base_fee,
		rate_per_km,
		min_fee,
		max_fee,
		free_delivery_threshold,
		fixed_fee,
		surcharge_percent,
		fee_bands,
		estimated_minutes
	FROM delivery_zones
	ORDER BY market_id, priority, id;
	`
	rows, err := r.DB.QueryContext(ctx, zonesQuery)
	if err != nil {
		return nil, fmt.Errorf("list markets: query delivery_zones table: %w", err)
	}
	defer rows.Close()

	zones := make([]domain.Zone, 0, 32)
	for rows.Next() {
		var (
			z                    domain.Zone
			kind, shapeType      string
			centerLat, centerLon sql.NullFloat64
			radiusKm             sql.NullFloat64
			polygon, bands       sql.NullString
		)
		if err := rows.Scan(
			&z.ID,
			&z.MarketID,
			&z.Name,
			&kind,
			&z.Priority,
			&z.Active,
			&shapeType,
			&centerLat,
			&centerLon,
			&radiusKm,
			&polygon,
			&z.Fee.BaseFee,
			&z.Fee.RatePerKm,
			&z.Fee.MinFee,
			&z.Fee.MaxFee,
			&z.Fee.FreeDeliveryThreshold,
			&z.Fee.FixedFee,
			&z.Fee.SurchargePercent,
			&bands,
			&z.EstimatedMinutes,
		); err != nil {
			return nil, fmt.Errorf("list markets: scan zone row: %w", err)
		}
		z.Kind = domain.ZoneKind(kind)

		shape, err := decodeShape(domain.ShapeType(shapeType), centerLat, centerLon, radiusKm, polygon)
		if err != nil {
			return nil, fmt.Errorf("list markets: zone id=%d: %w", z.ID, err)
		}
		z.Shape = shape

		if bands.Valid && bands.String != "" {
			if err := json.Unmarshal([]byte(bands.String), &z.Fee.Bands); err != nil {
				return nil, fmt.Errorf("list markets: zone id=%d: parse fee_bands: %w", z.ID, err)
			}
		}
		zones = append(zones, z)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list markets: zone row iteration: %w", err)
	}

	return zones, nil
}

// Polygon rings are stored as a JSON array of [lon, lat] pairs.
func decodeShape(
	shapeType domain.ShapeType,
	centerLat, centerLon, radiusKm sql.NullFloat64,
	polygon sql.NullString,
) (domain.Shape, error) {
	center := domain.Coordinates{Lat: centerLat.Float64, Lon: centerLon.Float64}

	switch shapeType {
	case domain.ShapeRadius:
		return domain.RadiusShape(center, radiusKm.Float64), nil
	case domain.ShapePolygon:
		var pairs [][]float64
		if polygon.Valid && polygon.String != "" {
			if err := json.Unmarshal([]byte(polygon.String), &pairs); err != nil {
				return domain.Shape{}, fmt.Errorf("parse polygon: %w", err)
			}
		}
		ring := make([]domain.Coordinates, 0, len(pairs))
		for i, p := range pairs {
			if len(p) != 2 {
				return domain.Shape{}, fmt.Errorf("parse polygon: vertex %d has %d components", i, len(p))
			}
			ring = append(ring, domain.Coordinates{Lon: p[0], Lat: p[1]})
		}
		shape := domain.PolygonShape(ring)
		if centerLat.Valid && centerLon.Valid {
			shape.Center = center
		}
		return shape, nil
	default:
		// Unknown shapes are loaded as-is; snapshot validation reports them.
		return domain.Shape{Type: shapeType, Center: center}, nil
	}
}

func encodeShape(s domain.Shape) (centerLat, centerLon, radiusKm sql.NullFloat64, polygon sql.NullString, err error) {
	centerLat = sql.NullFloat64{Float64: s.Center.Lat, Valid: true}
	centerLon = sql.NullFloat64{Float64: s.Center.Lon, Valid: true}

	switch s.Type {
	case domain.ShapeRadius:
		radiusKm = sql.NullFloat64{Float64: s.RadiusKm, Valid: true}
	case domain.ShapePolygon:
		pairs := make([][]float64, 0, len(s.Ring))
		for _, v := range s.Ring {
			pairs = append(pairs, v.CoordsToList())
		}
		b, e := json.Marshal(pairs)
		if e != nil {
			return centerLat, centerLon, radiusKm, polygon, fmt.Errorf("encode polygon: %w", e)
		}
		polygon = sql.NullString{String: string(b), Valid: true}
		// Unset polygon centers are stored as NULL and default to the centroid on load.
		if s.Center == (domain.Coordinates{}) {
			centerLat, centerLon = sql.NullFloat64{}, sql.NullFloat64{}
		}
	}
	return centerLat, centerLon, radiusKm, polygon, nil
}

// Upsert markets and replace each market's zones in a single transaction.
func (r *SQLMarketRepository) SaveMarkets(ctx context.Context, markets []domain.Market) (err error) {
	defer obs.Time(ctx, "markets.SaveMarkets")(&err)

	if r.DB == nil {
		return errors.New("market repository: DB is nil")
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save markets: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	upsertMarket := r.Dialect.Rebind(`
	INSERT INTO markets (id, name, latitude, longitude, active, default_fee, max_delivery_km)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE
	SET name = excluded.name,
		latitude = excluded.latitude,
		longitude = excluded.longitude,
		active = excluded.active,
		default_fee = excluded.default_fee,
		max_delivery_km = excluded.max_delivery_km;
	`)
	deleteZones := r.Dialect.Rebind(`DELETE FROM delivery_zones WHERE market_id = ?;`)
	insertZone := r.Dialect.Rebind(`
	INSERT INTO delivery_zones (
		id, market_id, name, kind, priority, active,
		shape_type, center_lat, center_lon, radius_km, polygon,
		base_fee, rate_per_km, min_fee, max_fee, free_delivery_threshold,
		fixed_fee, surcharge_percent, fee_bands, estimated_minutes
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`)

	for _, m := range markets {
		if _, err := tx.ExecContext(ctx, upsertMarket,
			m.ID, m.Name, m.Location.Lat, m.Location.Lon, m.Active, m.DefaultFee, m.MaxDeliveryKm,
		); err != nil {
			return fmt.Errorf("save markets: upsert market id=%d: %w", m.ID, err)
		}
		if _, err := tx.ExecContext(ctx, deleteZones, m.ID); err != nil {
			return fmt.Errorf("save markets: clear zones market id=%d: %w", m.ID, err)
		}

		for _, z := range m.Zones {
			lat, lon, radius, polygon, err := encodeShape(z.Shape)
			if err != nil {
				return fmt.Errorf("save markets: zone id=%d: %w", z.ID, err)
			}
			bands := sql.NullString{}
			if len(z.Fee.Bands) > 0 {
				b, err := json.Marshal(z.Fee.Bands)
				if err != nil {
					return fmt.Errorf("save markets: zone id=%d: encode fee_bands: %w", z.ID, err)
				}
				bands = sql.NullString{String: string(b), Valid: true}
			}

			if _, err := tx.ExecContext(ctx, insertZone,
				z.ID, m.ID, z.Name, string(z.Kind), z.Priority, z.Active,
				string(z.Shape.Type), lat, lon, radius, polygon,
				z.Fee.BaseFee, z.Fee.RatePerKm, z.Fee.MinFee, z.Fee.MaxFee, z.Fee.FreeDeliveryThreshold,
				z.Fee.FixedFee, z.Fee.SurchargePercent, bands, z.EstimatedMinutes,
			); err != nil {
				return fmt.Errorf("save markets: insert zone id=%d: %w", z.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save markets: commit tx: %w", err)
	}
	return nil
}

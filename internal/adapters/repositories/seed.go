package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"market-delivery-service/internal/domain"
	"os"
	"strings"
)

// Populate markets and zones from a JSON file holding an array of markets.
// Re-seeding is idempotent: markets are upserted and their zones replaced.
func SeedFromJSON(ctx context.Context, db *sql.DB, dialect Dialect, jsonPath string) error {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("seed markets: read %q: %w", jsonPath, err)
	}

	var markets []domain.Market
	if err := json.Unmarshal(bytes, &markets); err != nil {
		return fmt.Errorf("seed markets: parse json: %w", err)
	}

	seen := map[int64]struct{}{}
	for i, m := range markets {
		if m.ID <= 0 {
			return fmt.Errorf("seed markets: invalid market id at index %d: %d", i+1, m.ID)
		}
		if strings.TrimSpace(m.Name) == "" {
			return fmt.Errorf("seed markets: market id=%d: name cannot be empty", m.ID)
		}
		if _, ok := seen[m.ID]; ok {
			return fmt.Errorf("seed markets: duplicate market id=%d", m.ID)
		}
		seen[m.ID] = struct{}{}

		for _, z := range m.Zones {
			if z.ID <= 0 {
				return fmt.Errorf("seed markets: market id=%d: invalid zone id %d", m.ID, z.ID)
			}
		}
	}

	repo := NewSQLMarketRepository(db, dialect)
	if err := repo.SaveMarkets(ctx, markets); err != nil {
		return fmt.Errorf("seed markets: %w", err)
	}
	return nil
}

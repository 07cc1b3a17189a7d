package domain

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// A configuration problem found while building a snapshot. ZoneID is zero
// when the whole market was rejected.
type ConfigIssue struct {
	MarketID int64
	ZoneID   int64
	Err      error
}

func (i ConfigIssue) Error() string {
	if i.ZoneID == 0 {
		return fmt.Sprintf("market %d: %v", i.MarketID, i.Err)
	}
	return fmt.Sprintf("market %d zone %d: %v", i.MarketID, i.ZoneID, i.Err)
}

func (i ConfigIssue) Unwrap() error { return i.Err }

// Immutable, validated view of market and zone configuration.
//
// Zones that fail validation are left out and reported through Issues, so one
// bad fee rule never takes the rest of a market offline. A Snapshot is safe for
// concurrent use because nothing mutates it after NewSnapshot returns.
type Snapshot struct {
	byID   map[int64]*Market
	active []*Market
	issues []ConfigIssue
}

// NewSnapshot deep-copies markets, drops invalid entries and indexes the rest.
func NewSnapshot(markets []Market) *Snapshot {
	s := &Snapshot{byID: make(map[int64]*Market, len(markets))}

	for _, src := range markets {
		if _, dup := s.byID[src.ID]; dup {
			s.issues = append(s.issues, ConfigIssue{MarketID: src.ID, Err: errors.New("duplicate market id")})
			continue
		}
		if err := validateMarket(&src); err != nil {
			s.issues = append(s.issues, ConfigIssue{MarketID: src.ID, Err: err})
			continue
		}

		m := src
		m.Zones = make([]Zone, 0, len(src.Zones))
		seen := make(map[int64]struct{}, len(src.Zones))
		for _, z := range src.Zones {
			if _, ok := seen[z.ID]; ok {
				s.issues = append(s.issues, ConfigIssue{MarketID: m.ID, ZoneID: z.ID, Err: errors.New("duplicate zone id")})
				continue
			}
			seen[z.ID] = struct{}{}

			z.MarketID = m.ID
			if err := z.Validate(); err != nil {
				s.issues = append(s.issues, ConfigIssue{MarketID: m.ID, ZoneID: z.ID, Err: err})
				continue
			}
			z.Shape.Ring = slices.Clone(z.Shape.Ring)
			z.Fee.Bands = slices.Clone(z.Fee.Bands)
			m.Zones = append(m.Zones, z)
		}

		s.byID[m.ID] = &m
		if m.Active {
			s.active = append(s.active, &m)
		}
	}

	slices.SortFunc(s.active, func(a, b *Market) int { return cmp.Compare(a.ID, b.ID) })
	return s
}

func validateMarket(m *Market) error {
	if strings.TrimSpace(m.Name) == "" {
		return errors.New("name must not be empty")
	}
	if err := m.Location.Validate(); err != nil {
		return fmt.Errorf("location: %w", err)
	}
	if m.DefaultFee.Valid && m.DefaultFee.Decimal.IsNegative() {
		return fmt.Errorf("%w: default_fee %s is negative", ErrInvalidFeeConfiguration, m.DefaultFee.Decimal)
	}
	if m.MaxDeliveryKm < 0 {
		return fmt.Errorf("max_delivery_km %v is negative", m.MaxDeliveryKm)
	}
	return nil
}

// Market returns the active market with the given id.
func (s *Snapshot) Market(id int64) (*Market, error) {
	m, ok := s.byID[id]
	if !ok || !m.Active {
		return nil, fmt.Errorf("%w: id %d", ErrMarketNotFound, id)
	}
	return m, nil
}

// ActiveMarkets returns active markets ordered by id. Callers must not modify
// the returned markets.
func (s *Snapshot) ActiveMarkets() []*Market {
	return slices.Clone(s.active)
}

func (s *Snapshot) Issues() []ConfigIssue {
	return slices.Clone(s.issues)
}

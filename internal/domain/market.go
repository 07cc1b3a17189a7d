package domain

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"
)

// A physical marketplace location from which vendors deliver.
//
// DefaultFee is charged when a point falls outside every zone. MaxDeliveryKm
// bounds how far from Location the market delivers at all, inside a zone or
// not; zero means unbounded.
type Market struct {
	ID            int64               `json:"id"`
	Name          string              `json:"name"`
	Location      Coordinates         `json:"location"`
	Active        bool                `json:"active"`
	DefaultFee    decimal.NullDecimal `json:"default_fee"`
	MaxDeliveryKm float64             `json:"max_delivery_km,omitempty"`
	Zones         []Zone              `json:"zones,omitempty"`
}

// ActiveZones returns the market's active zones in precedence order.
func (m *Market) ActiveZones() []*Zone {
	out := make([]*Zone, 0, len(m.Zones))
	for i := range m.Zones {
		if m.Zones[i].Active {
			out = append(out, &m.Zones[i])
		}
	}
	slices.SortFunc(out, compareZones)
	return out
}

// WithinRange reports whether a point dist km from the market location is
// inside the market's delivery range.
func (m *Market) WithinRange(dist float64) bool {
	return m.MaxDeliveryKm <= 0 || dist <= m.MaxDeliveryKm
}

// compareZones orders by ascending priority, then ascending id.
func compareZones(a, b *Zone) int {
	if c := cmp.Compare(a.Priority, b.Priority); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

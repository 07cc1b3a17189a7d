package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func nullDec(s string) decimal.NullDecimal { return decimal.NewNullDecimal(dec(s)) }

func TestFeeRuleValidate(t *testing.T) {
	cases := []struct {
		name    string
		kind    ZoneKind
		rule    FeeRule
		wantErr bool
	}{
		{"standard ok", ZoneStandard, FeeRule{BaseFee: dec("500"), RatePerKm: dec("150")}, false},
		{"min equals max", ZoneStandard, FeeRule{MinFee: nullDec("100"), MaxFee: nullDec("100")}, false},
		{"min above max", ZoneStandard, FeeRule{MinFee: nullDec("2000"), MaxFee: nullDec("1000")}, true},
		{"negative base", ZoneStandard, FeeRule{BaseFee: dec("-1")}, true},
		{"negative rate", ZoneStandard, FeeRule{RatePerKm: dec("-0.5")}, true},
		{"negative threshold", ZoneStandard, FeeRule{FreeDeliveryThreshold: nullDec("-10")}, true},
		{"duplicate band", ZoneStandard, FeeRule{Bands: []FeeBand{{5, dec("800")}, {5, dec("900")}}}, true},
		{"negative band fee", ZoneStandard, FeeRule{Bands: []FeeBand{{0, dec("-1")}}}, true},
		{"negative band threshold", ZoneStandard, FeeRule{Bands: []FeeBand{{-1, dec("1")}}}, true},
		{"fixed without amount", ZoneFixed, FeeRule{}, true},
		{"fixed with amount", ZoneFixed, FeeRule{FixedFee: nullDec("700")}, false},
		{"surcharge too high", ZoneSurcharge, FeeRule{SurchargePercent: dec("250")}, true},
		{"surcharge missing", ZoneSurcharge, FeeRule{BaseFee: dec("500")}, true},
		{"surcharge zero", ZoneSurcharge, FeeRule{SurchargePercent: dec("0")}, true},
		{"surcharge negative", ZoneSurcharge, FeeRule{SurchargePercent: dec("-5")}, true},
		{"surcharge ok", ZoneSurcharge, FeeRule{SurchargePercent: dec("25")}, false},
		{"surcharge at cap", ZoneSurcharge, FeeRule{SurchargePercent: dec("200")}, false},
		{"zero percent elsewhere", ZoneStandard, FeeRule{}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.rule.Validate(tc.kind)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidFeeConfiguration)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestFeeRuleValidateReportsFirstFieldInOrder(t *testing.T) {
	rule := FeeRule{
		MinFee:                nullDec("-1"),
		MaxFee:                nullDec("-2"),
		FreeDeliveryThreshold: nullDec("-3"),
		FixedFee:              nullDec("-4"),
	}

	for i := 0; i < 20; i++ {
		err := rule.Validate(ZoneFixed)
		require.ErrorIs(t, err, ErrInvalidFeeConfiguration)
		assert.Contains(t, err.Error(), "min_fee -1 is negative")
	}
}

func TestZoneValidateShape(t *testing.T) {
	z := Zone{ID: 1, Name: "bad", Kind: ZoneStandard, Shape: RadiusShape(Coordinates{}, 0)}
	assert.ErrorIs(t, z.Validate(), ErrInvalidZoneShape)

	z.Shape = Shape{Type: "hexagon"}
	assert.ErrorIs(t, z.Validate(), ErrInvalidZoneShape)

	z.Shape = RadiusShape(Coordinates{Lat: 91, Lon: 0}, 1)
	assert.ErrorIs(t, z.Validate(), ErrInvalidZoneShape)
}

func TestMarketActiveZonesOrder(t *testing.T) {
	m := Market{Zones: []Zone{
		{ID: 9, Priority: 2, Active: true},
		{ID: 4, Priority: 1, Active: true},
		{ID: 3, Priority: 2, Active: true},
		{ID: 1, Priority: 0, Active: false},
	}}

	var ids []int64
	for _, z := range m.ActiveZones() {
		ids = append(ids, z.ID)
	}
	assert.Equal(t, []int64{4, 3, 9}, ids)
}

func TestMarketWithinRange(t *testing.T) {
	assert.True(t, (&Market{}).WithinRange(1e6))

	m := &Market{MaxDeliveryKm: 10}
	assert.True(t, m.WithinRange(10))
	assert.False(t, m.WithinRange(10.01))
}

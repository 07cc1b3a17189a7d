package services

import (
	"market-delivery-service/internal/domain"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertFee(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, dec(want).Equal(got), "fee = %s, want %s", got, want)
	assert.Equal(t, int32(-2), got.Exponent(), "fee should carry 2 decimal places")
}

func TestZoneFeeLinear(t *testing.T) {
	rule := domain.FeeRule{BaseFee: dec("500"), RatePerKm: dec("150")}
	assertFee(t, "950.00", ZoneFee(domain.ZoneStandard, rule, 3, dec("10000")).Total)
	assertFee(t, "500.00", ZoneFee(domain.ZoneStandard, rule, 0, dec("0")).Total)
}

func TestZoneFeeBandStaircase(t *testing.T) {
	rule := domain.FeeRule{
		BaseFee:   dec("100"),
		RatePerKm: dec("10"),
		Bands: []domain.FeeBand{
			{ThresholdKm: 10, Fee: dec("1200")},
			{ThresholdKm: 0, Fee: dec("500")},
			{ThresholdKm: 5, Fee: dec("800")},
		},
	}

	cases := []struct {
		km   float64
		want string
	}{
		{0, "500.00"},
		{4.99, "500.00"},
		{5, "800.00"},
		{7, "800.00"},
		{10, "1200.00"},
		{42, "1200.00"},
	}
	for _, tc := range cases {
		assertFee(t, tc.want, ZoneFee(domain.ZoneStandard, rule, tc.km, dec("0")).Total)
	}
}

func TestZoneFeeBandBelowFirstThresholdKeepsLinear(t *testing.T) {
	rule := domain.FeeRule{
		BaseFee:   dec("100"),
		RatePerKm: dec("10"),
		Bands:     []domain.FeeBand{{ThresholdKm: 5, Fee: dec("800")}},
	}
	assertFee(t, "120.00", ZoneFee(domain.ZoneStandard, rule, 2, dec("0")).Total)
}

func TestZoneFeeFreeDeliveryOverride(t *testing.T) {
	rule := domain.FeeRule{
		BaseFee:               dec("500"),
		RatePerKm:             dec("150"),
		MinFee:                nullDec("300"),
		FreeDeliveryThreshold: nullDec("20000"),
	}
	assertFee(t, "0.00", ZoneFee(domain.ZoneStandard, rule, 4, dec("25000")).Total)
	assertFee(t, "0.00", ZoneFee(domain.ZoneStandard, rule, 4, dec("20000")).Total)
	assertFee(t, "1100.00", ZoneFee(domain.ZoneStandard, rule, 4, dec("19999.99")).Total)
}

func TestZoneFeeCapEnforcement(t *testing.T) {
	rule := domain.FeeRule{BaseFee: dec("300"), RatePerKm: dec("100"), MaxFee: nullDec("2000")}
	assertFee(t, "2000.00", ZoneFee(domain.ZoneStandard, rule, 50, dec("0")).Total)
}

func TestZoneFeeMinimum(t *testing.T) {
	rule := domain.FeeRule{BaseFee: dec("100"), RatePerKm: dec("10"), MinFee: nullDec("400")}
	assertFee(t, "400.00", ZoneFee(domain.ZoneStandard, rule, 1, dec("0")).Total)
}

func TestZoneFeeRoundsHalfUp(t *testing.T) {
	rule := domain.FeeRule{BaseFee: dec("0.005"), RatePerKm: dec("0")}
	assertFee(t, "0.01", ZoneFee(domain.ZoneStandard, rule, 0, dec("0")).Total)

	rule = domain.FeeRule{BaseFee: dec("10.125")}
	assertFee(t, "10.13", ZoneFee(domain.ZoneStandard, rule, 0, dec("0")).Total)

	rule = domain.FeeRule{BaseFee: dec("10.124")}
	assertFee(t, "10.12", ZoneFee(domain.ZoneStandard, rule, 0, dec("0")).Total)
}

func TestZoneFeeKinds(t *testing.T) {
	rule := domain.FeeRule{
		BaseFee:          dec("1000"),
		RatePerKm:        dec("0"),
		FixedFee:         nullDec("700"),
		SurchargePercent: dec("25"),
		MaxFee:           nullDec("1200"),
	}

	assertFee(t, "700.00", ZoneFee(domain.ZoneFixed, rule, 9, dec("0")).Total)
	assertFee(t, "0.00", ZoneFee(domain.ZoneFree, rule, 9, dec("0")).Total)
	assertFee(t, "1200.00", ZoneFee(domain.ZoneSurcharge, rule, 9, dec("0")).Total)

	rule.MaxFee = decimal.NullDecimal{}
	assertFee(t, "1250.00", ZoneFee(domain.ZoneSurcharge, rule, 9, dec("0")).Total)
}

func TestZoneFeeDeterministic(t *testing.T) {
	rule := domain.FeeRule{
		BaseFee:   dec("250"),
		RatePerKm: dec("137.5"),
		Bands:     []domain.FeeBand{{ThresholdKm: 8, Fee: dec("1500")}},
		MaxFee:    nullDec("1400"),
	}
	first := ZoneFee(domain.ZoneStandard, rule, 3.3333, dec("5000"))
	for i := 0; i < 10; i++ {
		again := ZoneFee(domain.ZoneStandard, rule, 3.3333, dec("5000"))
		assert.True(t, first.Total.Equal(again.Total))
		assert.Equal(t, first.Reason, again.Reason)
	}
}

func TestComputeFeeFallback(t *testing.T) {
	market := &domain.Market{ID: 1, Location: stoneTown, DefaultFee: nullDec("1000")}

	fee, err := ComputeFee(market, nil, 12, dec("0"))
	require.NoError(t, err)
	assertFee(t, "1000.00", fee.Total)
}

func TestComputeFeeNoZoneNoDefault(t *testing.T) {
	market := &domain.Market{ID: 1, Location: stoneTown}

	_, err := ComputeFee(market, nil, 12, dec("0"))
	require.ErrorIs(t, err, domain.ErrUnavailableZone)
}

func TestComputeFeeFallbackBeyondRange(t *testing.T) {
	market := &domain.Market{ID: 1, Location: stoneTown, DefaultFee: nullDec("1000"), MaxDeliveryKm: 10}

	_, err := ComputeFee(market, nil, 10.5, dec("0"))
	require.ErrorIs(t, err, domain.ErrUnavailableZone)

	fee, err := ComputeFee(market, nil, 10, dec("0"))
	require.NoError(t, err)
	assertFee(t, "1000.00", fee.Total)
}

func TestComputeFeeUnavailableZone(t *testing.T) {
	market := &domain.Market{ID: 1, Location: stoneTown, DefaultFee: nullDec("1000")}
	zone := &domain.Zone{ID: 2, Name: "airport", Kind: domain.ZoneUnavailable}

	_, err := ComputeFee(market, zone, 1, dec("0"))
	require.ErrorIs(t, err, domain.ErrUnavailableZone)
}

func TestZoneFeeBreakdownFreeOverride(t *testing.T) {
	rule := domain.FeeRule{
		BaseFee:               dec("500"),
		RatePerKm:             dec("150"),
		FreeDeliveryThreshold: nullDec("20000"),
	}

	b := ZoneFee(domain.ZoneStandard, rule, 4, dec("25000"))
	assert.True(t, b.FreeDelivery)
	assertFee(t, "0.00", b.Total)
	assertFee(t, "1100.00", b.Discount)
	assertFee(t, "1100.00", b.DistanceFee)
	assert.Contains(t, b.Reason, "threshold 20000.00")

	b = ZoneFee(domain.ZoneStandard, rule, 4, dec("100"))
	assert.False(t, b.FreeDelivery)
	assertFee(t, "0.00", b.Discount)
	assertFee(t, "1100.00", b.Total)
	assert.Equal(t, "distance fee", b.Reason)
}

func TestZoneFeeBreakdownCap(t *testing.T) {
	rule := domain.FeeRule{BaseFee: dec("300"), RatePerKm: dec("100"), MaxFee: nullDec("2000")}

	b := ZoneFee(domain.ZoneStandard, rule, 50, dec("0"))
	assert.Equal(t, domain.ClampMax, b.Clamp)
	assertFee(t, "5300.00", b.DistanceFee)
	assertFee(t, "2000.00", b.Total)

	rule = domain.FeeRule{BaseFee: dec("100"), MinFee: nullDec("400")}
	assert.Equal(t, domain.ClampMin, ZoneFee(domain.ZoneStandard, rule, 1, dec("0")).Clamp)
}

func TestZoneFeeBreakdownSurchargeAndBand(t *testing.T) {
	rule := domain.FeeRule{
		BaseFee:          dec("1000"),
		RatePerKm:        dec("100"),
		SurchargePercent: dec("25"),
		Bands:            []domain.FeeBand{{ThresholdKm: 5, Fee: dec("1800")}},
	}

	b := ZoneFee(domain.ZoneSurcharge, rule, 2, dec("0"))
	assert.Nil(t, b.Band)
	assertFee(t, "1200.00", b.DistanceFee)
	assertFee(t, "300.00", b.Surcharge)
	assertFee(t, "1500.00", b.Total)
	assert.Equal(t, domain.ClampNone, b.Clamp)

	b = ZoneFee(domain.ZoneSurcharge, rule, 6, dec("0"))
	require.NotNil(t, b.Band)
	assert.Equal(t, 5.0, b.Band.ThresholdKm)
	assert.True(t, dec("1800").Equal(b.Band.Fee))
	assertFee(t, "1600.00", b.DistanceFee)
	assertFee(t, "450.00", b.Surcharge)
	assertFee(t, "2250.00", b.Total)
}

func TestComputeFeeFallbackBreakdown(t *testing.T) {
	market := &domain.Market{ID: 1, Location: stoneTown, DefaultFee: nullDec("1000")}

	b, err := ComputeFee(market, nil, 3, dec("0"))
	require.NoError(t, err)
	assert.False(t, b.FreeDelivery)
	assert.Equal(t, "market default fee outside all zones", b.Reason)
	assertFee(t, "0.00", b.DistanceFee)
}

package services

import (
	"cmp"
	"fmt"
	"market-delivery-service/internal/domain"
	"slices"

	"github.com/shopspring/decimal"
)

// Fees are quoted in the currency's minor-unit precision.
const feeScale = 2

var hundred = decimal.NewFromInt(100)

// Compute the delivery fee for a resolved zone, or the market's default fee
// when zone is nil.
//
// Fails with domain.ErrUnavailableZone when no zone matched and the market has
// no default fee, when the fallback point is beyond the market's delivery
// range, or when the matched zone is of kind "unavailable".
// The total is rounded half-up to 2 places and is never negative.
func ComputeFee(
	market *domain.Market,
	zone *domain.Zone,
	distanceKm float64,
	orderTotal decimal.Decimal,
) (domain.FeeBreakdown, error) {
	if zone == nil {
		if !market.DefaultFee.Valid {
			return domain.FeeBreakdown{}, fmt.Errorf("%w: market %d has no zone here and no default fee", domain.ErrUnavailableZone, market.ID)
		}
		if !market.WithinRange(distanceKm) {
			return domain.FeeBreakdown{}, fmt.Errorf(
				"%w: %.2f km exceeds market %d delivery range of %.2f km",
				domain.ErrUnavailableZone, distanceKm, market.ID, market.MaxDeliveryKm,
			)
		}
		return domain.FeeBreakdown{
			DistanceFee: zeroFee,
			Surcharge:   zeroFee,
			Discount:    zeroFee,
			Total:       finalizeFee(market.DefaultFee.Decimal),
			Reason:      "market default fee outside all zones",
		}, nil
	}

	if zone.Kind == domain.ZoneUnavailable {
		return domain.FeeBreakdown{}, fmt.Errorf("%w: zone %q", domain.ErrUnavailableZone, zone.Name)
	}

	return ZoneFee(zone.Kind, zone.Fee, distanceKm, orderTotal), nil
}

var zeroFee = decimal.Zero.Round(feeScale)

// Apply a zone's fee rule to a distance and order total.
//
// Standard and surcharge zones start from base + rate*distance, replaced by
// the last band whose threshold the distance meets. Surcharge zones then add
// SurchargePercent. Fixed zones charge FixedFee and free zones charge nothing.
// The [MinFee, MaxFee] clamp applies to every priced kind, and reaching the
// free-delivery threshold waives whatever remains.
func ZoneFee(kind domain.ZoneKind, rule domain.FeeRule, distanceKm float64, orderTotal decimal.Decimal) domain.FeeBreakdown {
	b := domain.FeeBreakdown{DistanceFee: zeroFee, Surcharge: zeroFee, Discount: zeroFee, Total: zeroFee}

	var fee decimal.Decimal
	switch kind {
	case domain.ZoneUnavailable:
		b.Reason = "delivery unavailable in this zone"
		return b
	case domain.ZoneFree:
		b.Reason = "free delivery zone"
		return b
	case domain.ZoneFixed:
		fee = rule.FixedFee.Decimal
		b.Reason = "fixed zone fee"
	case domain.ZoneSurcharge:
		fee = distanceFee(rule, distanceKm, &b)
		surcharge := fee.Mul(rule.SurchargePercent).Div(hundred)
		b.Surcharge = surcharge.Round(feeScale)
		fee = fee.Add(surcharge)
		b.Reason = fmt.Sprintf("distance fee with %s%% zone surcharge", rule.SurchargePercent)
	default:
		fee = distanceFee(rule, distanceKm, &b)
		b.Reason = "distance fee"
	}

	if rule.MinFee.Valid && fee.LessThan(rule.MinFee.Decimal) {
		fee = rule.MinFee.Decimal
		b.Clamp = domain.ClampMin
	}
	if rule.MaxFee.Valid && fee.GreaterThan(rule.MaxFee.Decimal) {
		fee = rule.MaxFee.Decimal
		b.Clamp = domain.ClampMax
	}
	fee = finalizeFee(fee)

	if rule.FreeDeliveryThreshold.Valid && orderTotal.GreaterThanOrEqual(rule.FreeDeliveryThreshold.Decimal) {
		b.FreeDelivery = true
		b.Discount = fee
		b.Reason = fmt.Sprintf(
			"free delivery: order total %s reaches threshold %s",
			orderTotal.StringFixed(feeScale), rule.FreeDeliveryThreshold.Decimal.StringFixed(feeScale),
		)
		return b
	}

	b.Total = fee
	return b
}

// base + rate*distance, overridden by the band staircase. Records both steps on b.
func distanceFee(rule domain.FeeRule, distanceKm float64, b *domain.FeeBreakdown) decimal.Decimal {
	fee := rule.BaseFee.Add(rule.RatePerKm.Mul(decimal.NewFromFloat(distanceKm)))
	b.DistanceFee = fee.Round(feeScale)

	if len(rule.Bands) == 0 {
		return fee
	}

	bands := slices.Clone(rule.Bands)
	slices.SortFunc(bands, func(a, b domain.FeeBand) int { return cmp.Compare(a.ThresholdKm, b.ThresholdKm) })

	// Last threshold met wins; bands do not accumulate.
	for _, band := range bands {
		if distanceKm < band.ThresholdKm {
			break
		}
		fee = band.Fee
		b.Band = &band
	}
	return fee
}

func finalizeFee(fee decimal.Decimal) decimal.Decimal {
	if fee.IsNegative() {
		fee = decimal.Zero
	}
	return fee.Round(feeScale)
}

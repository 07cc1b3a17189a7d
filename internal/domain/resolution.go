package domain

import "github.com/shopspring/decimal"

// Which end of a fee rule's [MinFee, MaxFee] range replaced the computed amount.
type ClampBound string

const (
	ClampNone ClampBound = ""
	ClampMin  ClampBound = "min"
	ClampMax  ClampBound = "max"
)

// How a delivery fee was reached. Amounts carry 2 decimal places.
//
// DistanceFee is base + rate*distance and is zero for fixed, free and default
// fees. Band is set when a distance band replaced DistanceFee. Discount is the
// amount waived because the order reached the free-delivery threshold, in
// which case FreeDelivery is true and Total is zero.
type FeeBreakdown struct {
	DistanceFee  decimal.Decimal
	Band         *FeeBand
	Surcharge    decimal.Decimal
	Clamp        ClampBound
	Discount     decimal.Decimal
	FreeDelivery bool
	Total        decimal.Decimal
	Reason       string
}

// Outcome of matching a customer location to a market zone and fee.
//
// Zone is nil when no zone matched and the market's default fee was charged;
// Fallback is true in exactly that case. DistanceKm is measured from the
// zone's center, or from the market location on the fallback path.
// Fee always equals Breakdown.Total.
type Resolution struct {
	MarketID         int64
	MarketName       string
	Zone             *Zone
	DistanceKm       float64
	Fee              decimal.Decimal
	Breakdown        FeeBreakdown
	Fallback         bool
	EstimatedMinutes int
}

// Closest active market to a point.
type NearestResult struct {
	Market     *Market
	DistanceKm float64
}

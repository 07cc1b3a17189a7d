package dto

import "github.com/shopspring/decimal"

type QuoteRequest struct {
	MarketID   int64           `json:"market_id"`
	Latitude   *float64        `json:"latitude"`
	Longitude  *float64        `json:"longitude"`
	Address    string          `json:"address"`
	OrderTotal decimal.Decimal `json:"order_total"`
}

// Location-only quote request shared by best-quote and fee listing.
type BestQuoteRequest struct {
	Latitude   *float64        `json:"latitude"`
	Longitude  *float64        `json:"longitude"`
	Address    string          `json:"address"`
	OrderTotal decimal.Decimal `json:"order_total"`
}

type QuoteZone struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Kind string `json:"kind"`
}

type FeeBand struct {
	ThresholdKm float64 `json:"threshold_km"`
	Fee         string  `json:"fee"`
}

// Amounts are decimal strings with 2 places.
type FeeBreakdown struct {
	DistanceFee  string   `json:"distance_fee"`
	Band         *FeeBand `json:"band,omitempty"`
	Surcharge    string   `json:"surcharge"`
	Clamp        string   `json:"clamp,omitempty"`
	Discount     string   `json:"discount"`
	FreeDelivery bool     `json:"free_delivery"`
}

type QuoteResponse struct {
	MarketID         int64        `json:"market_id"`
	MarketName       string       `json:"market_name"`
	Zone             *QuoteZone   `json:"zone"`
	Latitude         float64      `json:"latitude"`
	Longitude        float64      `json:"longitude"`
	DistanceKm       float64      `json:"distance_km"`
	Fee              string       `json:"fee"`
	FeeBreakdown     FeeBreakdown `json:"fee_breakdown"`
	Reason           string       `json:"reason"`
	Fallback         bool         `json:"fallback"`
	EstimatedMinutes int          `json:"estimated_minutes"`
}

// One quote per deliverable market, cheapest first.
type MarketFeesResponse struct {
	Markets []QuoteResponse `json:"markets"`
}

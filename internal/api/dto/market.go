package dto

type MarketResponse struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	ZoneCount     int     `json:"zone_count"`
	DefaultFee    *string `json:"default_fee,omitempty"`
	MaxDeliveryKm float64 `json:"max_delivery_km,omitempty"`
}

type ListMarketsResponse struct {
	Markets []MarketResponse `json:"markets"`
}

// Either both coordinates or an address must be supplied.
type NearestRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Address   string   `json:"address"`
}

type NearestResponse struct {
	MarketID   int64   `json:"market_id"`
	MarketName string  `json:"market_name"`
	DistanceKm float64 `json:"distance_km"`
}

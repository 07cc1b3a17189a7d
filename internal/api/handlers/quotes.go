package handlers

import (
	"market-delivery-service/internal/api/dto"
	"market-delivery-service/internal/domain"
	"market-delivery-service/internal/ports"
	"market-delivery-service/internal/services"
	"net/http"
)

type QuoteHandler struct {
	Source   ports.SnapshotSource
	Service  *services.DeliveryService
	Geocoder ports.Geocoder
}

// Quote resolves the delivery zone and fee for an order in a chosen market.
func (h *QuoteHandler) Quote(w http.ResponseWriter, r *http.Request) {
	var req dto.QuoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.MarketID <= 0 {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "market_id is required")
		return
	}

	point, err := resolvePoint(r.Context(), h.Geocoder, req.Latitude, req.Longitude, req.Address)
	if err != nil {
		writeLocationError(w, r, err)
		return
	}

	snap, err := h.Source.Snapshot(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	res, err := h.Service.ResolveDelivery(r.Context(), snap, req.MarketID, point, req.OrderTotal)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, quoteResponse(res, point))
}

func quoteResponse(res domain.Resolution, point domain.Coordinates) dto.QuoteResponse {
	out := dto.QuoteResponse{
		MarketID:         res.MarketID,
		MarketName:       res.MarketName,
		Latitude:         point.Lat,
		Longitude:        point.Lon,
		DistanceKm:       roundKm(res.DistanceKm),
		Fee:              res.Fee.StringFixed(2),
		FeeBreakdown:     feeBreakdown(res.Breakdown),
		Reason:           res.Breakdown.Reason,
		Fallback:         res.Fallback,
		EstimatedMinutes: res.EstimatedMinutes,
	}
	if res.Zone != nil {
		out.Zone = &dto.QuoteZone{ID: res.Zone.ID, Name: res.Zone.Name, Kind: string(res.Zone.Kind)}
	}
	return out
}

func feeBreakdown(b domain.FeeBreakdown) dto.FeeBreakdown {
	out := dto.FeeBreakdown{
		DistanceFee:  b.DistanceFee.StringFixed(2),
		Surcharge:    b.Surcharge.StringFixed(2),
		Clamp:        string(b.Clamp),
		Discount:     b.Discount.StringFixed(2),
		FreeDelivery: b.FreeDelivery,
	}
	if b.Band != nil {
		out.Band = &dto.FeeBand{ThresholdKm: b.Band.ThresholdKm, Fee: b.Band.Fee.StringFixed(2)}
	}
	return out
}

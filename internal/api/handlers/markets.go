package handlers

import (
	"errors"
	"market-delivery-service/internal/api/dto"
	"market-delivery-service/internal/ports"
	"market-delivery-service/internal/services"
	"net/http"
)

type MarketHandler struct {
	Source   ports.SnapshotSource
	Service  *services.DeliveryService
	Geocoder ports.Geocoder
}

// List returns the active markets in id order.
func (h *MarketHandler) List(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Source.Snapshot(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	markets := snap.ActiveMarkets()
	res := dto.ListMarketsResponse{Markets: make([]dto.MarketResponse, 0, len(markets))}
	for _, m := range markets {
		item := dto.MarketResponse{
			ID:            m.ID,
			Name:          m.Name,
			Latitude:      m.Location.Lat,
			Longitude:     m.Location.Lon,
			ZoneCount:     len(m.ActiveZones()),
			MaxDeliveryKm: m.MaxDeliveryKm,
		}
		if m.DefaultFee.Valid {
			fee := m.DefaultFee.Decimal.StringFixed(2)
			item.DefaultFee = &fee
		}
		res.Markets = append(res.Markets, item)
	}

	writeJSON(w, r, http.StatusOK, res)
}

// Nearest finds the closest active market to the caller's location.
func (h *MarketHandler) Nearest(w http.ResponseWriter, r *http.Request) {
	var req dto.NearestRequest
	if !decodeJSON(w, r, &req) {
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

	nearest, err := h.Service.FindNearest(r.Context(), point, snap.ActiveMarkets())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.NearestResponse{
		MarketID:   nearest.Market.ID,
		MarketName: nearest.Market.Name,
		DistanceKm: roundKm(nearest.DistanceKm),
	})
}

// BestQuote quotes every active market and returns the cheapest that delivers.
func (h *MarketHandler) BestQuote(w http.ResponseWriter, r *http.Request) {
	var req dto.BestQuoteRequest
	if !decodeJSON(w, r, &req) {
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

	res, err := h.Service.QuoteBestMarket(r.Context(), snap, point, req.OrderTotal)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, quoteResponse(res, point))
}

// Fees lists a quote from every market that can deliver to the caller's
// location, cheapest first. An empty list means no market delivers there.
func (h *MarketHandler) Fees(w http.ResponseWriter, r *http.Request) {
	var req dto.BestQuoteRequest
	if !decodeJSON(w, r, &req) {
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

	quotes, err := h.Service.QuoteMarkets(r.Context(), snap, point, req.OrderTotal)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	res := dto.MarketFeesResponse{Markets: make([]dto.QuoteResponse, 0, len(quotes))}
	for _, q := range quotes {
		res.Markets = append(res.Markets, quoteResponse(q, point))
	}
	writeJSON(w, r, http.StatusOK, res)
}

func writeLocationError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errLocationRequired), errors.Is(err, errGeocodingDisabled):
		writeError(w, r, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		writeDomainError(w, r, err)
	}
}

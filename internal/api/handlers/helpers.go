package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"market-delivery-service/internal/domain"
	"market-delivery-service/internal/platform/obs"
	"market-delivery-service/internal/ports"
	"math"
	"net/http"
)

// Bodies larger than this are rejected before decoding.
const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.ErrorContext(r.Context(), "encode failed",
			"req_id", obs.RequestID(r.Context()), "method", r.Method, "path", r.URL.Path, "err", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, msg string) {
	writeJSON(w, r, status, errorResponse{Error: msg, Code: code})
}

// decodeJSON strictly decodes a single JSON object into dst. It writes the
// 400 response itself and reports false on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "invalid json body")
		return false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "body must contain only one JSON object")
		return false
	}
	return true
}

// writeDomainError maps core error kinds to HTTP responses. Business outcomes
// are shown to the caller; anything else is logged and reported as a 500.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidCoordinate):
		writeError(w, r, http.StatusBadRequest, "invalid_coordinate", err.Error())
	case errors.Is(err, domain.ErrInvalidOrderTotal):
		writeError(w, r, http.StatusBadRequest, "invalid_order_total", err.Error())
	case errors.Is(err, domain.ErrMarketNotFound):
		writeError(w, r, http.StatusNotFound, "market_not_found", "market not found")
	case errors.Is(err, domain.ErrNoMarketsAvailable):
		writeError(w, r, http.StatusNotFound, "no_markets", "no markets available")
	case errors.Is(err, domain.ErrUnavailableZone):
		writeError(w, r, http.StatusUnprocessableEntity, "delivery_unavailable", "delivery unavailable to this address")
	case errors.Is(err, ports.ErrAddressNotFound):
		writeError(w, r, http.StatusUnprocessableEntity, "address_not_found", "address could not be located")
	default:
		slog.ErrorContext(r.Context(), "request failed",
			"req_id", obs.RequestID(r.Context()), "method", r.Method, "path", r.URL.Path, "err", err)
		writeError(w, r, http.StatusInternalServerError, "internal", "internal server error")
	}
}

func roundKm(km float64) float64 {
	return math.Round(km*1000) / 1000
}

package handlers

import (
	"context"
	"log/slog"
	"market-delivery-service/internal/platform/obs"
	"market-delivery-service/internal/ports"
	"net/http"
	"time"
)

// Health provides a minimal liveness check endpoint.
func Health(w http.ResponseWriter, r *http.Request) {
	res := map[string]string{"status": "ok"}
	writeJSON(w, r, http.StatusOK, res)
}

type ReadyHandler struct {
	Source ports.SnapshotSource
}

// Ready reports whether configuration can currently be loaded.
func (h *ReadyHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	snap, err := h.Source.Snapshot(ctx)
	if err != nil {
		slog.WarnContext(ctx, "readiness check failed", "req_id", obs.RequestID(ctx), "err", err)
		writeError(w, r, http.StatusServiceUnavailable, "not_ready", "configuration unavailable")
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]any{
		"status":         "ready",
		"active_markets": len(snap.ActiveMarkets()),
		"config_issues":  len(snap.Issues()),
	})
}

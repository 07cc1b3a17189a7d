package handlers

import (
	"log/slog"
	"market-delivery-service/internal/platform/obs"
	"market-delivery-service/internal/ports"
	"net/http"
)

type AdminHandler struct {
	Source ports.SnapshotSource
}

// InvalidateSnapshot drops cached configuration so edits take effect on the
// next request.
func (h *AdminHandler) InvalidateSnapshot(w http.ResponseWriter, r *http.Request) {
	if err := h.Source.Invalidate(r.Context()); err != nil {
		writeDomainError(w, r, err)
		return
	}
	slog.InfoContext(r.Context(), "configuration snapshot invalidated", "req_id", obs.RequestID(r.Context()))
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "invalidated"})
}

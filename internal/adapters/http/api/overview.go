package api

import (
	"net/http"
	"strings"
)

// OverviewHandler serves the main dashboard JSON.
type OverviewHandler struct {
	deps Dependencies
}

// NewOverviewHandler creates a new overview handler.
func NewOverviewHandler(deps Dependencies) *OverviewHandler {
	return &OverviewHandler{deps: deps}
}

// HandleGetOverview handles GET /api/overview?q= requests.
func (h *OverviewHandler) HandleGetOverview(w http.ResponseWriter, r *http.Request) {
	search := strings.TrimSpace(r.URL.Query().Get("q"))
	ov, err := h.deps.Overview(r.Context(), search)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, ov)
		return
	}
	writeJSON(w, http.StatusOK, ov)
}

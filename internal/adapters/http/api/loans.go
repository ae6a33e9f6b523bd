package api

import (
	"net/http"
	"strings"
)

// LoansHandler serves the loan book JSON.
type LoansHandler struct {
	deps Dependencies
}

// NewLoansHandler creates a new loan book handler.
func NewLoansHandler(deps Dependencies) *LoansHandler {
	return &LoansHandler{deps: deps}
}

// HandleGetLoans handles GET /api/loans?q=&page= requests.
func (h *LoansHandler) HandleGetLoans(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err)
		return
	}
	search := strings.TrimSpace(r.URL.Query().Get("q"))
	lb, err := h.deps.LoanBook(r.Context(), search, page)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, lb)
		return
	}
	writeJSON(w, http.StatusOK, lb)
}

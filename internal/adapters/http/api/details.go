package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	service "github.com/okian/retention/internal/app"
	"github.com/okian/retention/internal/domain/model"
	"github.com/okian/retention/pkg/errs"
)

// DetailsHandler serves single customer and application lookups plus the
// product catalogue.
type DetailsHandler struct {
	deps Dependencies
}

// NewDetailsHandler creates a new details handler.
func NewDetailsHandler(deps Dependencies) *DetailsHandler {
	return &DetailsHandler{deps: deps}
}

// HandleGetCustomer handles GET /api/customers/{id} requests.
func (h *DetailsHandler) HandleGetCustomer(w http.ResponseWriter, r *http.Request) {
	cd, err := h.deps.CustomerDetail(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, detailStatus(err), detailCode(err), errors.New(cd.Error))
		return
	}
	writeJSON(w, http.StatusOK, cd)
}

// HandleGetApplication handles GET /api/applications/{id} requests.
func (h *DetailsHandler) HandleGetApplication(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err)
		return
	}
	ad, err := h.deps.ApplicationDetail(r.Context(), id)
	if err != nil {
		writeError(w, detailStatus(err), detailCode(err), errors.New(ad.Error))
		return
	}
	writeJSON(w, http.StatusOK, ad)
}

type productsResponse struct {
	Products []model.RefinanceProduct `json:"products"`
}

// HandleGetProducts handles GET /api/products requests.
func (h *DetailsHandler) HandleGetProducts(w http.ResponseWriter, r *http.Request) {
	ps, err := h.deps.Products(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, codeUpstream, nil)
		return
	}
	writeJSON(w, http.StatusOK, productsResponse{Products: ps})
}

// parseID reads the numeric {id} route variable.
func parseID(r *http.Request) (int64, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errs.NewKind("api.parseID", ErrBadRequest)
	}
	return id, nil
}

func detailStatus(err error) int {
	if errors.Is(err, service.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusBadGateway
}

func detailCode(err error) string {
	if errors.Is(err, service.ErrNotFound) {
		return codeNotFound
	}
	return codeUpstream
}

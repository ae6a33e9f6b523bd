package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/okian/retention/internal/adapters/export"
	service "github.com/okian/retention/internal/app"
	"github.com/okian/retention/internal/domain/view"
	"github.com/okian/retention/pkg/logger"
)

// MLHandler serves the ML dashboard JSON endpoints and the CSV download.
type MLHandler struct {
	deps   Dependencies
	prefix string
	log    logger.Logger
	now    func() time.Time
}

// NewMLHandler creates a new ML dashboard handler.
func NewMLHandler(deps Dependencies, exportPrefix string, log logger.Logger) *MLHandler {
	return &MLHandler{deps: deps, prefix: exportPrefix, log: log, now: time.Now}
}

// ensureLoaded performs the first load when nothing has been fetched yet.
func ensureLoaded(ctx context.Context, deps Dependencies) {
	if deps.Snapshot().Status == view.Idle {
		_ = deps.Refresh(ctx)
	}
}

// HandleGetPredictions handles GET /api/ml/predictions requests. A failed
// load is reported with 502 and the last good rows, if any.
func (h *MLHandler) HandleGetPredictions(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err)
		return
	}
	ensureLoaded(r.Context(), h.deps)

	render := h.deps.View(q)
	status := http.StatusOK
	if render.Status == view.Failed {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, render)
}

// HandleGetStats handles GET /api/ml/stats requests.
func (h *MLHandler) HandleGetStats(w http.ResponseWriter, r *http.Request) {
	ensureLoaded(r.Context(), h.deps)
	writeJSON(w, http.StatusOK, h.deps.Stats())
}

// HandleExport handles GET /api/ml/export.csv requests. The body holds every
// record matching the filters, in the requested order, ignoring the page.
func (h *MLHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err)
		return
	}
	ctx := r.Context()
	ensureLoaded(ctx, h.deps)

	var buf bytes.Buffer
	if _, err := h.deps.Export(ctx, &buf, q); err != nil {
		h.log.Error(ctx, "export failed", logger.Error(err))
		writeError(w, http.StatusInternalServerError, codeInternal, errors.New("export failed"))
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename(h.prefix, h.now())+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

type refreshResponse struct {
	Status  view.Status `json:"status"`
	LoadID  string      `json:"load_id"`
	Records int         `json:"records"`
}

// HandleRefresh handles POST /api/ml/refresh requests.
func (h *MLHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Refresh(r.Context()); err != nil {
		writeError(w, http.StatusBadGateway, codeUpstream, errors.New(service.PredictionsFailedMessage))
		return
	}
	st := h.deps.Snapshot()
	writeJSON(w, http.StatusOK, refreshResponse{Status: st.Status, LoadID: st.LoadID, Records: len(st.Records)})
}

package api

import (
	"bytes"
	"context"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	service "github.com/okian/retention/internal/app"
	"github.com/okian/retention/internal/domain/filter"
	"github.com/okian/retention/internal/domain/ordering"
	"github.com/okian/retention/internal/domain/pagination"
	"github.com/okian/retention/internal/domain/risk"
	"github.com/okian/retention/internal/domain/view"
	"github.com/okian/retention/pkg/errs"
	"github.com/okian/retention/pkg/logger"
)

// Option is a select option on a page form.
type Option struct {
	Value    string
	Label    string
	Selected bool
}

func options(current string, pairs ...string) []Option {
	out := make([]Option, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, Option{Value: pairs[i], Label: pairs[i+1], Selected: pairs[i] == current})
	}
	return out
}

// pageLinks builds pagination links that keep the other query parameters.
type pageLinks struct {
	path  string
	query url.Values
}

// PageURL is the link to page p.
func (l pageLinks) PageURL(p int) string {
	q := url.Values{}
	for k, v := range l.query {
		q[k] = v
	}
	q.Set("page", strconv.Itoa(p))
	return l.path + "?" + q.Encode()
}

// pager feeds the shared pagination template.
type pager struct {
	Window pagination.Window
	Links  pageLinks
}

type overviewPage struct {
	Title string
	Nav   string
	service.Overview
}

type mlPage struct {
	pageLinks
	Title     string
	Nav       string
	Render    view.Render
	Risks     []Option
	Ages      []Option
	Credits   []Option
	Sorts     []Option
	ExportURL string
	Levels    []risk.Level
}

// Pager is the pagination block for the ML table.
func (p mlPage) Pager() pager { return pager{Window: p.Render.Window, Links: p.pageLinks} }

type customerPage struct {
	Title string
	Nav   string
	service.CustomerDetail
}

type applicationPage struct {
	Title string
	Nav   string
	service.ApplicationDetail
}

type loansPage struct {
	pageLinks
	Title string
	Nav   string
	service.LoanBook
}

// Pager is the pagination block for the loan table.
func (p loansPage) Pager() pager { return pager{Window: p.Window, Links: p.pageLinks} }

// PagesHandler renders the HTML dashboard pages.
type PagesHandler struct {
	deps     Dependencies
	log      logger.Logger
	overview *template.Template
	ml       *template.Template
	loans    *template.Template
	customer *template.Template
	app      *template.Template
}

// NewPagesHandler creates a new pages handler.
func NewPagesHandler(deps Dependencies, log logger.Logger) *PagesHandler {
	return &PagesHandler{
		deps:     deps,
		log:      log,
		overview: parseTemplate("overview.html"),
		ml:       parseTemplate("ml.html"),
		loans:    parseTemplate("loans.html"),
		customer: parseTemplate("customer.html"),
		app:      parseTemplate("application.html"),
	}
}

// render buffers the layout of t and writes it with status.
func (h *PagesHandler) render(ctx context.Context, w http.ResponseWriter, status int, t *template.Template, data any) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		h.log.Error(ctx, "page render failed", logger.Error(errs.WrapKind("api.render", ErrRender, err)))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// HandleOverview handles GET / and GET /dashboard requests.
func (h *PagesHandler) HandleOverview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	search := strings.TrimSpace(r.URL.Query().Get("q"))
	ov, err := h.deps.Overview(ctx, search)
	status := http.StatusOK
	if err != nil {
		h.log.Warn(ctx, "overview page degraded", logger.Error(errs.WrapKind("api.HandleOverview", ErrUpstream, err)))
		status = http.StatusBadGateway
	}
	h.render(ctx, w, status, h.overview, overviewPage{Title: "대시보드", Nav: "overview", Overview: ov})
}

// HandleML handles GET /ml requests.
func (h *PagesHandler) HandleML(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q, err := parseQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ensureLoaded(ctx, h.deps)
	rd := h.deps.View(q)

	status := http.StatusOK
	if rd.Status == view.Failed {
		status = http.StatusBadGateway
	}

	keep := url.Values{}
	if q.Criteria.Search != "" {
		keep.Set("q", q.Criteria.Search)
	}
	keep.Set("risk", q.Criteria.Risk)
	keep.Set("age", q.Criteria.Age)
	keep.Set("credit", q.Criteria.Credit)
	keep.Set("sort", string(q.Sort))

	h.render(ctx, w, status, h.ml, mlPage{
		pageLinks: pageLinks{path: "/ml", query: keep},
		Title:     "머신러닝 대시보드",
		Nav:       "ml",
		Render:    rd,
		Risks: options(q.Criteria.Risk,
			filter.All, "전체 위험도",
			string(risk.High), risk.High.Label(),
			string(risk.Medium), risk.Medium.Label(),
			string(risk.Low), risk.Low.Label()),
		Ages: options(q.Criteria.Age,
			filter.All, "전체 연령",
			string(filter.Young), "청년 (35세 미만)",
			string(filter.Middle), "중년 (35-55세)",
			string(filter.Senior), "고령 (55세 이상)"),
		Credits: options(q.Criteria.Credit,
			filter.All, "전체 등급",
			"A", "A등급", "B", "B등급", "C", "C등급", "D", "D등급"),
		Sorts: options(string(q.Sort),
			string(ordering.ByRisk), "위험도순",
			string(ordering.ByAge), "나이순",
			string(ordering.ByCredit), "신용등급순",
			string(ordering.ByAmount), "대출금액순"),
		ExportURL: "/api/ml/export.csv?" + keep.Encode(),
		Levels:    risk.Levels,
	})
}

// HandleRefresh handles POST /ml/refresh form submissions.
func (h *PagesHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Refresh(r.Context()); err != nil {
		h.log.Warn(r.Context(), "refresh from page failed", logger.Error(err))
	}
	http.Redirect(w, r, "/ml", http.StatusSeeOther)
}

// HandleLoans handles GET /loans requests.
func (h *PagesHandler) HandleLoans(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page, err := parsePage(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	search := strings.TrimSpace(r.URL.Query().Get("q"))
	lb, err := h.deps.LoanBook(ctx, search, page)
	status := http.StatusOK
	if err != nil {
		status = http.StatusBadGateway
	}

	keep := url.Values{}
	if search != "" {
		keep.Set("q", search)
	}
	h.render(ctx, w, status, h.loans, loansPage{
		pageLinks: pageLinks{path: "/loans", query: keep},
		Title:     "대출 현황",
		Nav:       "loans",
		LoanBook:  lb,
	})
}

// HandleCustomer handles GET /customers/{id} requests.
func (h *PagesHandler) HandleCustomer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cd, err := h.deps.CustomerDetail(ctx, mux.Vars(r)["id"])
	status := http.StatusOK
	if err != nil {
		status = detailStatus(err)
	}
	h.render(ctx, w, status, h.customer, customerPage{Title: "고객 상세", Nav: "overview", CustomerDetail: cd})
}

// HandleApplication handles GET /applications/{id} requests.
func (h *PagesHandler) HandleApplication(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := parseID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ad, err := h.deps.ApplicationDetail(ctx, id)
	status := http.StatusOK
	if err != nil {
		status = detailStatus(err)
	}
	h.render(ctx, w, status, h.app, applicationPage{Title: "신청 상세", Nav: "overview", ApplicationDetail: ad})
}

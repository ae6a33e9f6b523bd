// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	service "github.com/okian/retention/internal/app"
	"github.com/okian/retention/internal/domain/model"
	"github.com/okian/retention/internal/domain/stats"
	"github.com/okian/retention/internal/domain/view"
	"github.com/okian/retention/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Refresh reloads the ML dashboard records.
	Refresh(ctx context.Context) error
	Snapshot() view.State

	// Read operations derive pages from the loaded data.
	View(q service.Query) view.Render
	Stats() stats.Aggregate
	Export(ctx context.Context, w io.Writer, q service.Query) (int, error)

	Overview(ctx context.Context, search string) (service.Overview, error)
	LoanBook(ctx context.Context, search string, page int) (service.LoanBook, error)

	// Detail lookups read single records with their related rows.
	CustomerDetail(ctx context.Context, customerID string) (service.CustomerDetail, error)
	ApplicationDetail(ctx context.Context, id int64) (service.ApplicationDetail, error)
	Products(ctx context.Context) ([]model.RefinanceProduct, error)
}

// Server wires HTTP routes for the dashboard.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	mlHandler       *MLHandler
	overviewHandler *OverviewHandler
	loansHandler    *LoansHandler
	detailsHandler  *DetailsHandler
	pagesHandler    *PagesHandler
}

// ServerOption configures a Server.
type ServerOption func(*serverConfig)

type serverConfig struct {
	exportPrefix string
	log          logger.Logger
}

// WithExportPrefix sets the CSV download filename prefix.
func WithExportPrefix(p string) ServerOption {
	return func(c *serverConfig) {
		if p != "" {
			c.exportPrefix = p
		}
	}
}

// WithLogger sets the handler logger.
func WithLogger(l logger.Logger) ServerOption {
	return func(c *serverConfig) {
		if l != nil {
			c.log = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...ServerOption) *Server {
	cfg := serverConfig{exportPrefix: "ml_dashboard"}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.log == nil {
		cfg.log = logger.Get()
	}
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		mlHandler:       NewMLHandler(deps, cfg.exportPrefix, cfg.log),
		overviewHandler: NewOverviewHandler(deps),
		loansHandler:    NewLoansHandler(deps),
		detailsHandler:  NewDetailsHandler(deps),
		pagesHandler:    NewPagesHandler(deps, cfg.log),
	}
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(_ context.Context, r *mux.Router) {
	if r == nil {
		panic("router is nil")
	}
	r.Use(RequestIDMiddleware)

	r.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz")).Methods(http.MethodGet)
	r.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats")).Methods(http.MethodGet)

	// HTML pages
	r.HandleFunc("/", MetricsMiddleware(s.pagesHandler.HandleOverview, "page_overview")).Methods(http.MethodGet)
	r.HandleFunc("/dashboard", MetricsMiddleware(s.pagesHandler.HandleOverview, "page_overview")).Methods(http.MethodGet)
	r.HandleFunc("/ml", MetricsMiddleware(s.pagesHandler.HandleML, "page_ml")).Methods(http.MethodGet)
	r.HandleFunc("/ml/refresh", MetricsMiddleware(s.pagesHandler.HandleRefresh, "page_ml_refresh")).Methods(http.MethodPost)
	r.HandleFunc("/loans", MetricsMiddleware(s.pagesHandler.HandleLoans, "page_loans")).Methods(http.MethodGet)
	r.HandleFunc("/customers/{id}", MetricsMiddleware(s.pagesHandler.HandleCustomer, "page_customer")).Methods(http.MethodGet)
	r.HandleFunc("/applications/{id}", MetricsMiddleware(s.pagesHandler.HandleApplication, "page_application")).Methods(http.MethodGet)

	// JSON API
	a := r.PathPrefix("/api").Subrouter()
	a.HandleFunc("/overview", MetricsMiddleware(s.overviewHandler.HandleGetOverview, "overview")).Methods(http.MethodGet)
	a.HandleFunc("/ml/predictions", MetricsMiddleware(s.mlHandler.HandleGetPredictions, "ml_predictions")).Methods(http.MethodGet)
	a.HandleFunc("/ml/stats", MetricsMiddleware(s.mlHandler.HandleGetStats, "ml_stats")).Methods(http.MethodGet)
	a.HandleFunc("/ml/export.csv", MetricsMiddleware(s.mlHandler.HandleExport, "ml_export")).Methods(http.MethodGet)
	a.HandleFunc("/ml/refresh", MetricsMiddleware(s.mlHandler.HandleRefresh, "ml_refresh")).Methods(http.MethodPost)
	a.HandleFunc("/loans", MetricsMiddleware(s.loansHandler.HandleGetLoans, "loans")).Methods(http.MethodGet)
	a.HandleFunc("/customers/{id}", MetricsMiddleware(s.detailsHandler.HandleGetCustomer, "customer")).Methods(http.MethodGet)
	a.HandleFunc("/applications/{id}", MetricsMiddleware(s.detailsHandler.HandleGetApplication, "application")).Methods(http.MethodGet)
	a.HandleFunc("/products", MetricsMiddleware(s.detailsHandler.HandleGetProducts, "products")).Methods(http.MethodGet)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

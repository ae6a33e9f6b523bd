// Package service orchestrates the dashboard views: it fetches from the
// configured sources, feeds results through the view reducer and serves the
// derived pages to the HTTP API.
package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/okian/retention/internal/adapters/export"
	"github.com/okian/retention/internal/domain/filter"
	"github.com/okian/retention/internal/domain/loanbook"
	"github.com/okian/retention/internal/domain/model"
	"github.com/okian/retention/internal/domain/ordering"
	"github.com/okian/retention/internal/domain/pagination"
	"github.com/okian/retention/internal/domain/risk"
	"github.com/okian/retention/internal/domain/stats"
	"github.com/okian/retention/internal/domain/view"
	"github.com/okian/retention/pkg/errs"
	"github.com/okian/retention/pkg/logger"
	"github.com/okian/retention/pkg/metrics"
)

// User-facing failure messages.
const (
	PredictionsFailedMessage = "데이터를 불러오는 중 오류가 발생했습니다."
	OverviewFailedMessage    = "데이터를 불러오는데 실패했습니다."
	LoanBookFailedMessage    = "대출 데이터를 불러오는데 실패했습니다."
)

const (
	recentCount       = 5
	loanCustomerLimit = 1000
)

// Errors returned by the view operations.
var (
	ErrOverviewUnavailable = errors.New("overview unavailable")
	ErrLoanBookUnavailable = errors.New("loan book unavailable")
)

// Service owns the ML dashboard state and assembles the overview and loan
// book pages.
type Service struct {
	mu sync.RWMutex

	predictor Predictor
	source    Source
	details   Details

	state view.State

	// Configuration
	pageSize     int
	fetchLimit   int
	loanPageSize int

	started    bool
	lastLoaded time.Time

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithPageSize sets the ML dashboard page size.
func WithPageSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithFetchLimit sets the list limit used by the overview fetches.
func WithFetchLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.fetchLimit = n
		}
	}
}

// WithLoanPageSize sets the loan book page size.
func WithLoanPageSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.loanPageSize = n
		}
	}
}

// WithDetails sets where customer and application detail pages are read
// from. Without it those pages report ErrDetailsUnavailable.
func WithDetails(d Details) Option {
	return func(s *Service) {
		s.details = d
	}
}

// New constructs a Service reading predictions from p and listings from src.
func New(p Predictor, src Source, opts ...Option) *Service {
	s := &Service{
		predictor:    p,
		source:       src,
		pageSize:     view.DefaultPageSize,
		fetchLimit:   100,
		loanPageSize: 50,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	s.state = view.New(s.pageSize)
	return s
}

// Start performs the first predictions load. A failed load leaves the view in
// the failed state and is not returned.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = true
	s.mu.Unlock()

	s.logger.Info(ctx, "starting dashboard service",
		logger.String("source", s.source.Name()),
		logger.Int("pageSize", s.pageSize),
	)
	if err := s.Refresh(ctx); err != nil {
		s.logger.Warn(ctx, "initial predictions load failed", logger.Error(err))
	}
	return nil
}

// Stop marks the service stopped.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	s.started = false
	s.logger.Info(context.Background(), "dashboard service stopped")
}

// Dispatch applies a to the shared state and returns the result.
func (s *Service) Dispatch(a view.Action) view.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = view.Reduce(s.state, a)
	return s.state
}

// Snapshot returns the current state value.
func (s *Service) Snapshot() view.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Refresh reloads the predictions. Concurrent refreshes are not serialized;
// whichever resolves last determines the state.
func (s *Service) Refresh(ctx context.Context) error {
	id := uuid.NewString()
	s.Dispatch(view.LoadStarted{ID: id})
	s.logger.Debug(ctx, "loading predictions", logger.String("loadID", id))

	start := time.Now()
	res, err := s.predictor.Predictions(ctx)
	if err != nil {
		s.Dispatch(view.LoadFailed{ID: id, Message: PredictionsFailedMessage})
		metrics.RecordViewLoad("ml", false)
		s.logger.Error(ctx, "predictions load failed",
			logger.String("loadID", id),
			logger.Error(err),
		)
		return errs.Wrap("service.Refresh", err)
	}
	if len(res.Rejected) > 0 {
		s.logger.Warn(ctx, "predictions rejected by schema",
			logger.String("loadID", id),
			logger.Int("rejected", len(res.Rejected)),
		)
	}

	st := s.Dispatch(view.LoadSucceeded{ID: id, Records: res.Records})
	s.mu.Lock()
	s.lastLoaded = time.Now()
	s.mu.Unlock()

	metrics.RecordViewLoad("ml", true)
	metrics.UpdateRecordsLoaded(len(st.Records))
	tiers := make(map[risk.Level]int, len(risk.Levels))
	for _, p := range st.Records {
		tiers[risk.Classify(p)]++
	}
	for _, l := range risk.Levels {
		metrics.UpdateRiskTier(string(l), tiers[l])
	}

	s.logger.Info(ctx, "predictions loaded",
		logger.String("loadID", id),
		logger.Int("records", len(st.Records)),
		logger.Duration("took", time.Since(start)),
	)
	return nil
}

// Query is one request's view of the ML dashboard.
type Query struct {
	Criteria filter.Criteria
	Sort     ordering.Key
	Page     int
}

// DefaultQuery shows everything sorted by risk on the first page.
func DefaultQuery() Query {
	return Query{Criteria: filter.Default(), Sort: ordering.ByRisk, Page: 1}
}

// apply reduces q onto a copy of the shared state. The page change comes last
// since every criteria change resets the page.
func (s *Service) apply(q Query) view.State {
	st := s.Snapshot()
	actions := []view.Action{
		view.SearchChanged{Term: q.Criteria.Search},
		view.RiskFilterChanged{Risk: q.Criteria.Risk},
		view.AgeFilterChanged{Age: q.Criteria.Age},
		view.CreditFilterChanged{Credit: q.Criteria.Credit},
	}
	if q.Sort != "" {
		actions = append(actions, view.SortChanged{Key: q.Sort})
	}
	if q.Page > 0 {
		actions = append(actions, view.PageChanged{Page: q.Page})
	}
	return view.ReduceAll(st, actions...)
}

// View derives the ML dashboard page for q without touching the shared
// state.
func (s *Service) View(q Query) view.Render {
	return view.Derive(s.apply(q))
}

// Stats is the aggregate over every loaded record.
func (s *Service) Stats() stats.Aggregate {
	return stats.Build(s.Snapshot().Records)
}

// Export writes the filtered and sorted collection for q as CSV and returns
// the number of rows written.
func (s *Service) Export(ctx context.Context, w io.Writer, q Query) (int, error) {
	rows := view.Visible(s.apply(q))
	n, err := export.Write(w, rows)
	if err != nil {
		s.logger.Error(ctx, "csv export failed", logger.Error(err))
		return n, errs.Wrap("service.Export", err)
	}
	metrics.RecordCSVExport(n)
	s.logger.Debug(ctx, "csv exported", logger.Int("rows", n))
	return n, nil
}

// Overview is the main dashboard page.
type Overview struct {
	Summary         model.DashboardSummary       `json:"summary"`
	RecentCustomers []model.Customer             `json:"recent_customers"`
	RecentLoans     []model.Loan                 `json:"recent_loans"`
	Customers       []model.Customer             `json:"customers"`
	Loans           []model.Loan                 `json:"loans"`
	Applications    []model.RefinanceApplication `json:"applications"`
	Search          string                       `json:"search,omitempty"`
	Error           string                       `json:"error,omitempty"`
}

func head[T any](xs []T, n int) []T {
	if len(xs) > n {
		return xs[:n]
	}
	return xs
}

// Overview fetches the summary, customers, loans and applications in
// parallel. A failed companion fetch leaves its section empty; only when
// every fetch fails is an error returned. A non-empty search narrows the
// customer list.
func (s *Service) Overview(ctx context.Context, search string) (Overview, error) {
	var (
		out                                    = Overview{Search: search}
		summaryErr, custErr, loanErr, applyErr error
		g                                      errgroup.Group
	)

	g.Go(func() error {
		out.Summary, summaryErr = s.source.Summary(ctx)
		return nil
	})
	g.Go(func() error {
		var l Listing[model.Customer]
		if search != "" {
			l, custErr = s.source.SearchCustomers(ctx, search, s.fetchLimit)
		} else {
			l, custErr = s.source.Customers(ctx, 0, s.fetchLimit)
		}
		out.Customers = l.Records
		return nil
	})
	g.Go(func() error {
		var l Listing[model.Loan]
		l, loanErr = s.source.Loans(ctx, 0, s.fetchLimit)
		out.Loans = l.Records
		return nil
	})
	g.Go(func() error {
		var l Listing[model.RefinanceApplication]
		l, applyErr = s.source.Applications(ctx, 0, s.fetchLimit)
		out.Applications = l.Records
		return nil
	})
	_ = g.Wait()

	failed := 0
	for name, err := range map[string]error{
		"summary":      summaryErr,
		"customers":    custErr,
		"loans":        loanErr,
		"applications": applyErr,
	} {
		if err != nil {
			failed++
			s.logger.Warn(ctx, "overview fetch failed",
				logger.String("section", name),
				logger.Error(err),
			)
		}
	}
	if failed == 4 {
		metrics.RecordViewLoad("overview", false)
		out.Error = OverviewFailedMessage
		return out, errs.WrapKind("service.Overview", ErrOverviewUnavailable, summaryErr)
	}

	out.RecentCustomers = head(out.Customers, recentCount)
	out.RecentLoans = head(out.Loans, recentCount)
	metrics.RecordViewLoad("overview", true)
	return out, nil
}

// LoanBook is one page of the loan book.
type LoanBook struct {
	Rows   []model.LoanRow   `json:"rows"`
	Stats  model.LoanStats   `json:"stats"`
	Search string            `json:"search,omitempty"`
	Window pagination.Window `json:"pagination"`
	Error  string            `json:"error,omitempty"`
}

// LoanBook fetches page p of loans with the customer list, joins them and
// summarizes the page. The search term filters the joined page. A page past
// the end is a no-op: the first page is served instead.
func (s *Service) LoanBook(ctx context.Context, search string, p int) (LoanBook, error) {
	if p < 1 {
		p = 1
	}
	out := LoanBook{Search: search}

	loans, customers, err := s.loanPage(ctx, p)
	if err == nil && p > 1 && s.pastEnd(p, loans) {
		s.logger.Debug(ctx, "loan page out of range", logger.Int("page", p), logger.Int("total", loans.Total))
		p = 1
		loans, customers, err = s.loanPage(ctx, p)
	}
	if err != nil {
		metrics.RecordViewLoad("loans", false)
		s.logger.Error(ctx, "loan book load failed", logger.Int("page", p), logger.Error(err))
		out.Error = LoanBookFailedMessage
		out.Window = pagination.Build(1, 1)
		return out, errs.WrapKind("service.LoanBook", ErrLoanBookUnavailable, err)
	}

	rows := loanbook.Join(loans.Records, customers.Records)
	out.Stats = loanbook.Summarize(loans.Records, count(customers.Total, len(customers.Records)))
	out.Rows = loanbook.Search(rows, search)

	total := loans.Total
	if total < 0 {
		// Without a reported total, allow one more page while pages are full.
		total = (p-1)*s.loanPageSize + len(loans.Records)
		if len(loans.Records) == s.loanPageSize {
			total++
		}
	}
	out.Window = pagination.Build(p, pagination.TotalPages(total, s.loanPageSize))
	metrics.RecordViewLoad("loans", true)
	return out, nil
}

// loanPage fetches loans for page p and the customers to join them with.
func (s *Service) loanPage(ctx context.Context, p int) (Listing[model.Loan], Listing[model.Customer], error) {
	var (
		loans     Listing[model.Loan]
		customers Listing[model.Customer]
		g, gctx   = errgroup.WithContext(ctx)
	)
	g.Go(func() error {
		var err error
		loans, err = s.source.Loans(gctx, (p-1)*s.loanPageSize, s.loanPageSize)
		return err
	})
	g.Go(func() error {
		var err error
		customers, err = s.source.Customers(gctx, 0, loanCustomerLimit)
		return err
	})
	err := g.Wait()
	return loans, customers, err
}

// pastEnd reports whether page p lies beyond the loans the source holds.
// Without a reported total only an empty page counts as past the end.
func (s *Service) pastEnd(p int, loans Listing[model.Loan]) bool {
	if loans.Total >= 0 {
		return !pagination.Valid(p, pagination.TotalPages(loans.Total, s.loanPageSize))
	}
	return len(loans.Records) == 0
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := map[string]interface{}{
		"started":      s.started,
		"source":       s.source.Name(),
		"details":      s.details != nil,
		"status":       s.state.Status,
		"loadID":       s.state.LoadID,
		"records":      len(s.state.Records),
		"pageSize":     s.pageSize,
		"fetchLimit":   s.fetchLimit,
		"loanPageSize": s.loanPageSize,
	}
	if !s.lastLoaded.IsZero() {
		out["lastLoaded"] = s.lastLoaded.UTC().Format(time.RFC3339)
	}
	return out
}

package service

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/okian/retention/internal/adapters/postgrest"
	"github.com/okian/retention/internal/domain/model"
	"github.com/okian/retention/pkg/errs"
	"github.com/okian/retention/pkg/logger"
	"github.com/okian/retention/pkg/metrics"
)

// Detail page messages.
const (
	CustomerNotFoundMessage    = "고객을 찾을 수 없습니다."
	ApplicationNotFoundMessage = "신청 정보를 찾을 수 없습니다."
	DetailFailedMessage        = "상세 정보를 불러오는데 실패했습니다."
)

// Detail lookup errors.
var (
	ErrNotFound           = errors.New("record not found")
	ErrDetailsUnavailable = errors.New("details unavailable")
)

// Details looks up one record together with its related rows.
// *postgrest.Client implements it.
type Details interface {
	CustomerWithLoans(ctx context.Context, customerID string) (model.CustomerWithLoans, error)
	CustomerWithApplications(ctx context.Context, customerID string) (model.CustomerWithApplications, error)
	Application(ctx context.Context, id int64) (model.RefinanceApplication, error)
	DocumentsByApplication(ctx context.Context, applicationID int64) (postgrest.Page[model.Document], error)
	LogsByApplication(ctx context.Context, applicationID int64) (postgrest.Page[model.ApplicationLog], error)
}

// CustomerDetail is one customer with their loans and refinance requests.
type CustomerDetail struct {
	Customer     model.Customer               `json:"customer"`
	Loans        []model.Loan                 `json:"loans"`
	Applications []model.RefinanceApplication `json:"applications"`
	LoanTotal    float64                      `json:"loan_total"`
	Remaining    float64                      `json:"remaining_total"`
	Error        string                       `json:"error,omitempty"`
}

// ApplicationDetail is one refinance application with its documents and
// audit log.
type ApplicationDetail struct {
	Application model.RefinanceApplication `json:"application"`
	Documents   []model.Document           `json:"documents"`
	Logs        []model.ApplicationLog     `json:"logs"`
	Error       string                     `json:"error,omitempty"`
}

// CustomerDetail fetches the customer with business id customerID, their
// loans and their applications.
func (s *Service) CustomerDetail(ctx context.Context, customerID string) (CustomerDetail, error) {
	const op = "service.CustomerDetail"
	out := CustomerDetail{Loans: []model.Loan{}, Applications: []model.RefinanceApplication{}}
	if s.details == nil {
		out.Error = DetailFailedMessage
		return out, errs.NewKind(op, ErrDetailsUnavailable)
	}

	var (
		withLoans model.CustomerWithLoans
		withApps  model.CustomerWithApplications
		g, gctx   = errgroup.WithContext(ctx)
	)
	g.Go(func() error {
		var err error
		withLoans, err = s.details.CustomerWithLoans(gctx, customerID)
		return err
	})
	g.Go(func() error {
		var err error
		withApps, err = s.details.CustomerWithApplications(gctx, customerID)
		return err
	})
	if err := g.Wait(); err != nil {
		metrics.RecordViewLoad("customer", false)
		return out, s.detailError(ctx, op, err, &out.Error, CustomerNotFoundMessage,
			logger.String("customerID", customerID))
	}

	out.Customer = withLoans.Customer
	if withLoans.Loans != nil {
		out.Loans = withLoans.Loans
	}
	if withApps.Applications != nil {
		out.Applications = withApps.Applications
	}
	for _, l := range out.Loans {
		out.LoanTotal += l.LoanAmount
		out.Remaining += l.RemainingAmount
	}
	metrics.RecordViewLoad("customer", true)
	return out, nil
}

// ApplicationDetail fetches refinance application id with its documents and
// audit log, newest entries first.
func (s *Service) ApplicationDetail(ctx context.Context, id int64) (ApplicationDetail, error) {
	const op = "service.ApplicationDetail"
	out := ApplicationDetail{Documents: []model.Document{}, Logs: []model.ApplicationLog{}}
	if s.details == nil {
		out.Error = DetailFailedMessage
		return out, errs.NewKind(op, ErrDetailsUnavailable)
	}

	var (
		app     model.RefinanceApplication
		docs    postgrest.Page[model.Document]
		logs    postgrest.Page[model.ApplicationLog]
		g, gctx = errgroup.WithContext(ctx)
	)
	g.Go(func() error {
		var err error
		app, err = s.details.Application(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		docs, err = s.details.DocumentsByApplication(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		logs, err = s.details.LogsByApplication(gctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		metrics.RecordViewLoad("application", false)
		return out, s.detailError(ctx, op, err, &out.Error, ApplicationNotFoundMessage,
			logger.Any("applicationID", id))
	}

	out.Application = app
	if docs.Records != nil {
		out.Documents = docs.Records
	}
	if logs.Records != nil {
		out.Logs = logs.Records
	}
	metrics.RecordViewLoad("application", true)
	return out, nil
}

// detailError sets the page message for err and returns it tagged with
// ErrNotFound or ErrDetailsUnavailable.
func (s *Service) detailError(ctx context.Context, op string, err error, msg *string, notFound string, field logger.Field) error {
	if errors.Is(err, postgrest.ErrNotFound) {
		*msg = notFound
		s.logger.Debug(ctx, "detail record not found", field)
		return errs.WrapKind(op, ErrNotFound, err)
	}
	*msg = DetailFailedMessage
	s.logger.Error(ctx, "detail load failed", field, logger.Error(err))
	return errs.WrapKind(op, ErrDetailsUnavailable, err)
}

// Products lists the refinance products on offer.
func (s *Service) Products(ctx context.Context) ([]model.RefinanceProduct, error) {
	l, err := s.source.Products(ctx)
	if err != nil {
		metrics.RecordViewLoad("products", false)
		s.logger.Error(ctx, "products load failed", logger.Error(err))
		return []model.RefinanceProduct{}, errs.Wrap("service.Products", err)
	}
	metrics.RecordViewLoad("products", true)
	if l.Records == nil {
		return []model.RefinanceProduct{}, nil
	}
	return l.Records, nil
}

package service

import (
	"context"
	"strings"

	"github.com/okian/retention/internal/adapters/backend"
	"github.com/okian/retention/internal/adapters/postgrest"
	"github.com/okian/retention/internal/adapters/schema"
	"github.com/okian/retention/internal/domain/model"
)

// assetsPerLoan mirrors the backend's placeholder total-assets figure.
const assetsPerLoan = 50_000_000

// Listing is one page of a source listing. Total is the full row count, or
// -1 when the source does not report one.
type Listing[T any] struct {
	Records  []T
	Total    int
	Rejected int
}

// Predictor supplies the ML dashboard records.
type Predictor interface {
	Predictions(ctx context.Context) (schema.Decoded[model.Prediction], error)
}

// Source supplies the overview and loan book listings.
type Source interface {
	Name() string
	Summary(ctx context.Context) (model.DashboardSummary, error)
	Customers(ctx context.Context, skip, limit int) (Listing[model.Customer], error)
	SearchCustomers(ctx context.Context, term string, limit int) (Listing[model.Customer], error)
	Loans(ctx context.Context, skip, limit int) (Listing[model.Loan], error)
	Applications(ctx context.Context, skip, limit int) (Listing[model.RefinanceApplication], error)
	Products(ctx context.Context) (Listing[model.RefinanceProduct], error)
}

// RESTClient is the subset of the backend client a REST source needs.
type RESTClient interface {
	Dashboard(ctx context.Context) (model.DashboardSummary, error)
	Customers(ctx context.Context, req backend.ListRequest) (schema.Decoded[model.Customer], error)
	Loans(ctx context.Context, req backend.ListRequest) (schema.Decoded[model.Loan], error)
	RefinanceApplications(ctx context.Context, req backend.ListRequest) (schema.Decoded[model.RefinanceApplication], error)
	Products(ctx context.Context) (schema.Decoded[model.RefinanceProduct], error)
}

// PostgRESTClient is the subset of the PostgREST client a PostgREST source
// needs.
type PostgRESTClient interface {
	Customers(ctx context.Context, q postgrest.Query) (postgrest.Page[model.Customer], error)
	SearchCustomers(ctx context.Context, term string) (postgrest.Page[model.Customer], error)
	Loans(ctx context.Context, q postgrest.Query) (postgrest.Page[model.Loan], error)
	RefinanceApplications(ctx context.Context, q postgrest.Query) (postgrest.Page[model.RefinanceApplication], error)
	ActiveProducts(ctx context.Context) (postgrest.Page[model.RefinanceProduct], error)
}

func fromDecoded[T any](d schema.Decoded[T]) Listing[T] {
	return Listing[T]{Records: d.Records, Total: -1, Rejected: len(d.Rejected)}
}

func fromPage[T any](p postgrest.Page[T]) Listing[T] {
	return Listing[T]{Records: p.Records, Total: p.Total, Rejected: len(p.Rejected)}
}

type restSource struct {
	c RESTClient
}

// NewRESTSource reads listings from the backend REST API.
func NewRESTSource(c RESTClient) Source { return &restSource{c: c} }

func (r *restSource) Name() string { return "rest" }

func (r *restSource) Summary(ctx context.Context) (model.DashboardSummary, error) {
	return r.c.Dashboard(ctx)
}

func (r *restSource) Customers(ctx context.Context, skip, limit int) (Listing[model.Customer], error) {
	d, err := r.c.Customers(ctx, backend.ListRequest{Skip: skip, Limit: limit})
	if err != nil {
		return Listing[model.Customer]{}, err
	}
	return fromDecoded(d), nil
}

// SearchCustomers filters one listing locally; the REST API has no search.
func (r *restSource) SearchCustomers(ctx context.Context, term string, limit int) (Listing[model.Customer], error) {
	l, err := r.Customers(ctx, 0, limit)
	if err != nil {
		return l, err
	}
	l.Records = matchCustomers(l.Records, term)
	return l, nil
}

func (r *restSource) Loans(ctx context.Context, skip, limit int) (Listing[model.Loan], error) {
	d, err := r.c.Loans(ctx, backend.ListRequest{Skip: skip, Limit: limit})
	if err != nil {
		return Listing[model.Loan]{}, err
	}
	return fromDecoded(d), nil
}

func (r *restSource) Applications(ctx context.Context, skip, limit int) (Listing[model.RefinanceApplication], error) {
	d, err := r.c.RefinanceApplications(ctx, backend.ListRequest{Skip: skip, Limit: limit})
	if err != nil {
		return Listing[model.RefinanceApplication]{}, err
	}
	return fromDecoded(d), nil
}

// Products lists the products on offer; the backend only returns active ones.
func (r *restSource) Products(ctx context.Context) (Listing[model.RefinanceProduct], error) {
	d, err := r.c.Products(ctx)
	if err != nil {
		return Listing[model.RefinanceProduct]{}, err
	}
	return fromDecoded(d), nil
}

type postgrestSource struct {
	c PostgRESTClient
}

// NewPostgRESTSource reads listings from PostgREST tables.
func NewPostgRESTSource(c PostgRESTClient) Source { return &postgrestSource{c: c} }

func (p *postgrestSource) Name() string { return "postgrest" }

// Summary counts rows through the Content-Range totals of one-row reads.
func (p *postgrestSource) Summary(ctx context.Context) (model.DashboardSummary, error) {
	one := postgrest.NewQuery().Limit(1)
	var sum model.DashboardSummary

	customers, err := p.c.Customers(ctx, one)
	if err != nil {
		return sum, err
	}
	loans, err := p.c.Loans(ctx, one)
	if err != nil {
		return sum, err
	}
	apps, err := p.c.RefinanceApplications(ctx, one)
	if err != nil {
		return sum, err
	}
	products, err := p.c.ActiveProducts(ctx)
	if err != nil {
		return sum, err
	}

	sum.CustomerCount = count(customers.Total, len(customers.Records))
	sum.LoanCount = count(loans.Total, len(loans.Records))
	sum.RefinanceCount = count(apps.Total, len(apps.Records))
	sum.ProductCount = count(products.Total, len(products.Records))
	sum.TotalAssets = float64(sum.LoanCount) * assetsPerLoan
	return sum, nil
}

func count(total, n int) int {
	if total < 0 {
		return n
	}
	return total
}

func (p *postgrestSource) Customers(ctx context.Context, skip, limit int) (Listing[model.Customer], error) {
	pg, err := p.c.Customers(ctx, postgrest.NewQuery().Order("created_at", true).Limit(limit).Offset(skip))
	if err != nil {
		return Listing[model.Customer]{}, err
	}
	return fromPage(pg), nil
}

func (p *postgrestSource) SearchCustomers(ctx context.Context, term string, limit int) (Listing[model.Customer], error) {
	pg, err := p.c.SearchCustomers(ctx, term)
	if err != nil {
		return Listing[model.Customer]{}, err
	}
	l := fromPage(pg)
	if limit > 0 && len(l.Records) > limit {
		l.Records = l.Records[:limit]
	}
	return l, nil
}

func (p *postgrestSource) Loans(ctx context.Context, skip, limit int) (Listing[model.Loan], error) {
	pg, err := p.c.Loans(ctx, postgrest.NewQuery().Order("id", false).Limit(limit).Offset(skip))
	if err != nil {
		return Listing[model.Loan]{}, err
	}
	return fromPage(pg), nil
}

func (p *postgrestSource) Applications(ctx context.Context, skip, limit int) (Listing[model.RefinanceApplication], error) {
	pg, err := p.c.RefinanceApplications(ctx, postgrest.NewQuery().Order("application_date", true).Limit(limit).Offset(skip))
	if err != nil {
		return Listing[model.RefinanceApplication]{}, err
	}
	return fromPage(pg), nil
}

func (p *postgrestSource) Products(ctx context.Context) (Listing[model.RefinanceProduct], error) {
	pg, err := p.c.ActiveProducts(ctx)
	if err != nil {
		return Listing[model.RefinanceProduct]{}, err
	}
	return fromPage(pg), nil
}

// matchCustomers keeps customers whose name, customer id or phone contains
// term, ignoring case.
func matchCustomers(cs []model.Customer, term string) []model.Customer {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return cs
	}
	out := make([]model.Customer, 0, len(cs))
	for _, c := range cs {
		if strings.Contains(strings.ToLower(c.Name), term) ||
			strings.Contains(strings.ToLower(c.CustomerID), term) ||
			strings.Contains(c.Phone, term) {
			out = append(out, c)
		}
	}
	return out
}

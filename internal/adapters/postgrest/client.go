// Package postgrest is a read-only client for the PostgREST view of the loan
// database: table listings, filters and embedded relations.
package postgrest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/retention/internal/adapters/schema"
	"github.com/okian/retention/internal/domain/model"
	"github.com/okian/retention/pkg/errs"
	"github.com/okian/retention/pkg/logger"
	"github.com/okian/retention/pkg/metrics"
)

const (
	defaultTimeout = 10 * time.Second
	maxErrorBody   = 4096
	source         = "postgrest"
)

// Table names.
const (
	TableCustomers             = "customers"
	TableLoans                 = "loans"
	TableRefinanceApplications = "refinance_applications"
	TableProducts              = "refinance_products"
	TableDocuments             = "documents"
	TableApplicationLogs       = "application_logs"
)

// Client reads tables from a PostgREST endpoint.
type Client struct {
	base *url.URL
	http *http.Client
	log  logger.Logger
}

// New creates a client for baseURL, e.g. "http://localhost:8090/postgrest".
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errs.NewKind("postgrest.New", ErrBaseURL)
	}
	c := &Client{
		base: u,
		http: &http.Client{Timeout: defaultTimeout},
		log:  logger.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Page is one validated listing. Total is the full row count reported by
// PostgREST, or -1 when the server did not send one.
type Page[T any] struct {
	schema.Decoded[T]
	Total int `json:"total"`
}

// Customers lists customers.
func (c *Client) Customers(ctx context.Context, q Query) (Page[model.Customer], error) {
	return list[model.Customer](ctx, c, TableCustomers, schema.Customers, q)
}

// SearchCustomers matches name, customer id or phone case-insensitively.
func (c *Client) SearchCustomers(ctx context.Context, term string) (Page[model.Customer], error) {
	q := NewQuery().Or(ILike("name", term), ILike("customer_id", term), ILike("phone", term))
	return c.Customers(ctx, q)
}

// Loans lists loans.
func (c *Client) Loans(ctx context.Context, q Query) (Page[model.Loan], error) {
	return list[model.Loan](ctx, c, TableLoans, schema.Loans, q)
}

// RefinanceApplications lists refinance applications.
func (c *Client) RefinanceApplications(ctx context.Context, q Query) (Page[model.RefinanceApplication], error) {
	return list[model.RefinanceApplication](ctx, c, TableRefinanceApplications, schema.RefinanceApplications, q)
}

// Application fetches one refinance application by row id.
func (c *Client) Application(ctx context.Context, id int64) (model.RefinanceApplication, error) {
	return first[model.RefinanceApplication](ctx, c, TableRefinanceApplications, schema.RefinanceApplications, NewQuery().Eq("id", id))
}

// Products lists refinance products.
func (c *Client) Products(ctx context.Context, q Query) (Page[model.RefinanceProduct], error) {
	return list[model.RefinanceProduct](ctx, c, TableProducts, schema.Products, q)
}

// ActiveProducts lists products that are on offer.
func (c *Client) ActiveProducts(ctx context.Context) (Page[model.RefinanceProduct], error) {
	return c.Products(ctx, NewQuery().Eq("is_active", true))
}

// DocumentsByApplication lists documents attached to an application.
func (c *Client) DocumentsByApplication(ctx context.Context, applicationID int64) (Page[model.Document], error) {
	q := NewQuery().Eq("application_id", applicationID).Order("upload_date", true)
	return list[model.Document](ctx, c, TableDocuments, schema.Documents, q)
}

// LogsByApplication lists an application's audit entries, newest first.
func (c *Client) LogsByApplication(ctx context.Context, applicationID int64) (Page[model.ApplicationLog], error) {
	q := NewQuery().Eq("application_id", applicationID).Order("performed_at", true)
	return list[model.ApplicationLog](ctx, c, TableApplicationLogs, schema.ApplicationLogs, q)
}

// CustomerWithLoans fetches a customer with its loans embedded.
func (c *Client) CustomerWithLoans(ctx context.Context, customerID string) (model.CustomerWithLoans, error) {
	q := NewQuery().Eq("customer_id", customerID).Select("*,loans(*)")
	return first[model.CustomerWithLoans](ctx, c, TableCustomers, schema.Customers, q)
}

// CustomerWithApplications fetches a customer with its applications embedded.
func (c *Client) CustomerWithApplications(ctx context.Context, customerID string) (model.CustomerWithApplications, error) {
	q := NewQuery().Eq("customer_id", customerID).Select("*,refinance_applications(*)")
	return first[model.CustomerWithApplications](ctx, c, TableCustomers, schema.Customers, q)
}

func list[T any](ctx context.Context, c *Client, table string, r schema.Resource, q Query) (Page[T], error) {
	body, total, err := c.get(ctx, table, q)
	if err != nil {
		return Page[T]{}, err
	}
	out, err := schema.DecodeList[T](r, body)
	if err != nil {
		metrics.RecordUpstreamError(source, table, "decode")
		return Page[T]{}, errs.WrapKind("postgrest."+table, ErrDecode, err)
	}
	if n := len(out.Rejected); n > 0 {
		metrics.RecordSchemaRejections(table, n)
		c.log.Warn(ctx, "rows rejected by schema",
			logger.String("table", table),
			logger.Int("rejected", n),
			logger.Any("first", out.Rejected[0]),
		)
	}
	return Page[T]{Decoded: out, Total: total}, nil
}

func first[T any](ctx context.Context, c *Client, table string, r schema.Resource, q Query) (T, error) {
	var zero T
	p, err := list[T](ctx, c, table, r, q.Limit(1))
	if err != nil {
		return zero, err
	}
	if len(p.Records) == 0 {
		return zero, errs.NewKind("postgrest."+table, ErrNotFound)
	}
	return p.Records[0], nil
}

// get performs a GET on table and returns the body and the total row count
// from Content-Range (-1 if absent).
func (c *Client) get(ctx context.Context, table string, q Query) ([]byte, int, error) {
	op := "postgrest." + table
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + "/" + table
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, -1, errs.WrapKind(op, ErrTransport, err)
	}
	reqID := logger.RequestID(ctx)
	if reqID == "" {
		reqID = uuid.NewString()
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Prefer", "count=exact")
	req.Header.Set("X-Request-ID", reqID)

	start := time.Now()
	resp, err := c.http.Do(req)
	elapsed := float64(time.Since(start).Microseconds()) / 1000
	if err != nil {
		metrics.RecordUpstreamRequest(source, table, false, elapsed)
		metrics.RecordUpstreamError(source, table, "transport")
		c.log.Error(ctx, "postgrest request failed", logger.String("url", u.String()), logger.Error(err))
		return nil, -1, errs.WrapKind(op, ErrTransport, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Table: table, StatusCode: resp.StatusCode}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		_ = json.Unmarshal(raw, apiErr)
		metrics.RecordUpstreamRequest(source, table, false, elapsed)
		metrics.RecordUpstreamError(source, table, "status")
		c.log.Warn(ctx, "postgrest returned error status",
			logger.String("url", u.String()),
			logger.Int("status", resp.StatusCode),
			logger.String("message", apiErr.Summary()),
		)
		return nil, -1, errs.Wrap(op, apiErr)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.RecordUpstreamRequest(source, table, false, elapsed)
		metrics.RecordUpstreamError(source, table, "read")
		return nil, -1, errs.WrapKind(op, ErrTransport, err)
	}
	metrics.RecordUpstreamRequest(source, table, true, elapsed)
	return body, parseTotal(resp.Header.Get("Content-Range")), nil
}

// parseTotal reads the total from a Content-Range like "0-49/1234" or "*/0".
func parseTotal(h string) int {
	i := strings.LastIndexByte(h, '/')
	if i < 0 {
		return -1
	}
	n, err := strconv.Atoi(h[i+1:])
	if err != nil {
		return -1
	}
	return n
}

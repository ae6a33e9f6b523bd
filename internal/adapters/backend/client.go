// Package backend is a read-only client for the loan/refinance backend REST API.
// Every list response is schema-validated item by item.
package backend

import (
	"context"
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
	defaultLimit   = 100
	maxErrorBody   = 512
	requestIDKey   = "X-Request-ID"
)

// Client fetches resources from the backend API rooted at base.
type Client struct {
	base   *url.URL
	http   *http.Client
	log    logger.Logger
	source string
}

// New creates a client for baseURL, e.g. "http://localhost:8000".
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errs.NewKind("backend.New", ErrBaseURL)
	}
	c := &Client{
		base:   u,
		http:   &http.Client{Timeout: defaultTimeout},
		log:    logger.NewNop(),
		source: "rest",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ListRequest pages a list endpoint with skip/limit.
type ListRequest struct {
	Skip  int
	Limit int
}

func (r ListRequest) query() url.Values {
	q := url.Values{}
	limit := r.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	skip := r.Skip
	if skip < 0 {
		skip = 0
	}
	q.Set("skip", strconv.Itoa(skip))
	q.Set("limit", strconv.Itoa(limit))
	return q
}

// Dashboard fetches the headline counters.
func (c *Client) Dashboard(ctx context.Context) (model.DashboardSummary, error) {
	body, err := c.get(ctx, "dashboard", "/api/dashboard", nil)
	if err != nil {
		return model.DashboardSummary{}, err
	}
	s, err := schema.DecodeOne[model.DashboardSummary](schema.Dashboard, body)
	if err != nil {
		return model.DashboardSummary{}, errs.WrapKind("backend.Dashboard", ErrDecode, err)
	}
	return s, nil
}

// Customers lists customers.
func (c *Client) Customers(ctx context.Context, req ListRequest) (schema.Decoded[model.Customer], error) {
	return list[model.Customer](ctx, c, schema.Customers, "customers", "/api/customers", req.query())
}

// Loans lists loans.
func (c *Client) Loans(ctx context.Context, req ListRequest) (schema.Decoded[model.Loan], error) {
	return list[model.Loan](ctx, c, schema.Loans, "loans", "/api/loans", req.query())
}

// RefinanceApplications lists refinance applications.
func (c *Client) RefinanceApplications(ctx context.Context, req ListRequest) (schema.Decoded[model.RefinanceApplication], error) {
	return list[model.RefinanceApplication](ctx, c, schema.RefinanceApplications, "refinance_applications", "/api/refinance-applications", req.query())
}

// Products lists refinance products.
func (c *Client) Products(ctx context.Context) (schema.Decoded[model.RefinanceProduct], error) {
	return list[model.RefinanceProduct](ctx, c, schema.Products, "products", "/api/products", nil)
}

// Predictions fetches the full churn-prediction feed.
func (c *Client) Predictions(ctx context.Context) (schema.Decoded[model.Prediction], error) {
	return list[model.Prediction](ctx, c, schema.Predictions, "ml_dashboard", "/api/ml_dashboard", nil)
}

func list[T any](ctx context.Context, c *Client, r schema.Resource, name, path string, q url.Values) (schema.Decoded[T], error) {
	body, err := c.get(ctx, name, path, q)
	if err != nil {
		return schema.Decoded[T]{}, err
	}
	out, err := schema.DecodeList[T](r, body)
	if err != nil {
		metrics.RecordUpstreamError(c.source, name, "decode")
		return schema.Decoded[T]{}, errs.WrapKind("backend."+name, ErrDecode, err)
	}
	if n := len(out.Rejected); n > 0 {
		metrics.RecordSchemaRejections(name, n)
		c.log.Warn(ctx, "records rejected by schema",
			logger.String("resource", name),
			logger.Int("rejected", n),
			logger.Int("accepted", len(out.Records)),
			logger.Any("first", out.Rejected[0]),
		)
	}
	return out, nil
}

// get performs a GET and returns the body of a 2xx response.
func (c *Client) get(ctx context.Context, name, path string, q url.Values) ([]byte, error) {
	op := "backend." + name
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	if q != nil {
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errs.WrapKind(op, ErrTransport, err)
	}
	reqID := logger.RequestID(ctx)
	if reqID == "" {
		reqID = uuid.NewString()
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIDKey, reqID)

	start := time.Now()
	resp, err := c.http.Do(req)
	elapsed := float64(time.Since(start).Microseconds()) / 1000
	if err != nil {
		metrics.RecordUpstreamRequest(c.source, name, false, elapsed)
		metrics.RecordUpstreamError(c.source, name, "transport")
		c.log.Error(ctx, "backend request failed", logger.String("url", u.String()), logger.Error(err))
		return nil, errs.WrapKind(op, ErrTransport, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		metrics.RecordUpstreamRequest(c.source, name, false, elapsed)
		metrics.RecordUpstreamError(c.source, name, "status")
		c.log.Warn(ctx, "backend returned error status",
			logger.String("url", u.String()),
			logger.Int("status", resp.StatusCode),
		)
		return nil, errs.Wrap(op, &StatusError{Resource: name, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(snippet))})
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.RecordUpstreamRequest(c.source, name, false, elapsed)
		metrics.RecordUpstreamError(c.source, name, "read")
		return nil, errs.WrapKind(op, ErrTransport, err)
	}
	metrics.RecordUpstreamRequest(c.source, name, true, elapsed)
	c.log.Debug(ctx, "backend response",
		logger.String("url", u.String()),
		logger.Int("bytes", len(body)),
		logger.Float64("latency_ms", elapsed),
	)
	return body, nil
}

package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	service "github.com/okian/retention/internal/app"
	"github.com/okian/retention/internal/domain/filter"
	"github.com/okian/retention/internal/domain/ordering"
	"github.com/okian/retention/pkg/errs"
)

// parsePage reads the page parameter. Missing means page 1.
func parsePage(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("page"))
	if raw == "" {
		return 1, nil
	}
	p, err := strconv.Atoi(raw)
	if err != nil || p < 1 {
		return 0, errs.WrapKind("api.parsePage", ErrBadRequest, fmt.Errorf("invalid page %q", raw))
	}
	return p, nil
}

// parseQuery reads q, risk, age, credit, sort and page. Unknown sort keys
// are passed through and keep the input order.
func parseQuery(r *http.Request) (service.Query, error) {
	v := r.URL.Query()
	q := service.DefaultQuery()

	c, err := filter.Normalize(filter.Criteria{
		Search: strings.TrimSpace(v.Get("q")),
		Risk:   v.Get("risk"),
		Age:    v.Get("age"),
		Credit: v.Get("credit"),
	})
	if err != nil {
		return q, errs.WrapKind("api.parseQuery", ErrBadRequest, err)
	}
	q.Criteria = c

	if raw := strings.TrimSpace(v.Get("sort")); raw != "" {
		q.Sort, _ = ordering.ParseKey(raw)
	}

	page, err := parsePage(r)
	if err != nil {
		return q, err
	}
	q.Page = page
	return q, nil
}

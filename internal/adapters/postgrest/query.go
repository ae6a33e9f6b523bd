package postgrest

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Query builds PostgREST query parameters. The zero value selects every row.
type Query struct {
	params url.Values
}

// NewQuery returns an empty query.
func NewQuery() Query {
	return Query{params: url.Values{}}
}

func (q Query) with(key, value string) Query {
	next := url.Values{}
	for k, v := range q.params {
		next[k] = append([]string(nil), v...)
	}
	next.Add(key, value)
	return Query{params: next}
}

// Eq filters col = value.
func (q Query) Eq(col string, value any) Query {
	return q.with(col, fmt.Sprintf("eq.%v", value))
}

// Select sets the projection, e.g. "*,loans(*)".
func (q Query) Select(expr string) Query {
	return q.with("select", expr)
}

// Order sorts by col.
func (q Query) Order(col string, desc bool) Query {
	dir := "asc"
	if desc {
		dir = "desc"
	}
	return q.with("order", col+"."+dir)
}

// Limit caps the number of rows.
func (q Query) Limit(n int) Query {
	return q.with("limit", strconv.Itoa(n))
}

// Offset skips n rows.
func (q Query) Offset(n int) Query {
	return q.with("offset", strconv.Itoa(n))
}

// Or matches rows satisfying any of conds, e.g. ILike("name", "kim").
func (q Query) Or(conds ...string) Query {
	return q.with("or", "("+strings.Join(conds, ",")+")")
}

// ILike is a case-insensitive contains condition for use inside Or.
func ILike(col, term string) string {
	return col + ".ilike.*" + sanitize(term) + "*"
}

// sanitize drops characters that would break the or=(...) grammar.
func sanitize(term string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ',', '(', ')', '*':
			return -1
		}
		return r
	}, strings.TrimSpace(term))
}

// Encode renders the query string.
func (q Query) Encode() string {
	if q.params == nil {
		return ""
	}
	return q.params.Encode()
}

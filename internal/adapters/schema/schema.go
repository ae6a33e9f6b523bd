// Package schema validates upstream JSON payloads item by item against
// embedded JSON Schemas before decoding them into domain models.
package schema

import (
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/okian/retention/pkg/errs"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// Resource names a payload kind with its own schema.
type Resource string

// Known resources.
const (
	Predictions           Resource = "prediction"
	Customers             Resource = "customer"
	Loans                 Resource = "loan"
	RefinanceApplications Resource = "refinance_application"
	Products              Resource = "product"
	Documents             Resource = "document"
	ApplicationLogs       Resource = "application_log"
	Dashboard             Resource = "dashboard"
)

// Rejection describes one list item that failed validation.
type Rejection struct {
	Index   int      `json:"index"`
	Reasons []string `json:"reasons"`
}

// Decoded is the result of a validated list decode. Valid items are kept in
// order; invalid ones are reported instead of failing the whole payload.
type Decoded[T any] struct {
	Records  []T         `json:"records"`
	Rejected []Rejection `json:"rejected,omitempty"`
}

var (
	mu       sync.Mutex
	compiled = map[Resource]*gojsonschema.Schema{}
)

func load(r Resource) (*gojsonschema.Schema, error) {
	mu.Lock()
	defer mu.Unlock()
	if s, ok := compiled[r]; ok {
		return s, nil
	}
	raw, err := schemaFS.ReadFile("schemas/" + string(r) + ".json")
	if err != nil {
		return nil, errs.WrapKind("schema.load", ErrUnknownResource, err)
	}
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, errs.Wrap("schema.load", err)
	}
	compiled[r] = s
	return s, nil
}

// Check validates a single JSON document against the schema of r and returns
// the violation messages, if any.
func Check(r Resource, doc []byte) ([]string, error) {
	s, err := load(r)
	if err != nil {
		return nil, err
	}
	res, err := s.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return nil, errs.WrapKind("schema.Check", ErrMalformed, err)
	}
	if res.Valid() {
		return nil, nil
	}
	reasons := make([]string, 0, len(res.Errors()))
	for _, desc := range res.Errors() {
		reasons = append(reasons, desc.String())
	}
	return reasons, nil
}

// DecodeList validates each element of a JSON array and decodes the valid ones.
// A body that is not a JSON array is an error.
func DecodeList[T any](r Resource, body []byte) (Decoded[T], error) {
	const op = "schema.DecodeList"
	var out Decoded[T]

	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		return out, errs.WrapKind(op, ErrMalformed, err)
	}

	out.Records = make([]T, 0, len(items))
	for i, raw := range items {
		reasons, err := Check(r, raw)
		if err != nil {
			return Decoded[T]{}, errs.Wrap(op, err)
		}
		if len(reasons) > 0 {
			out.Rejected = append(out.Rejected, Rejection{Index: i, Reasons: reasons})
			continue
		}
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			out.Rejected = append(out.Rejected, Rejection{Index: i, Reasons: []string{err.Error()}})
			continue
		}
		out.Records = append(out.Records, v)
	}
	return out, nil
}

// DecodeOne validates and decodes a single JSON object.
func DecodeOne[T any](r Resource, body []byte) (T, error) {
	const op = "schema.DecodeOne"
	var v T

	reasons, err := Check(r, body)
	if err != nil {
		return v, errs.Wrap(op, err)
	}
	if len(reasons) > 0 {
		return v, errs.WrapKind(op, ErrInvalid, fmt.Errorf("%s: %v", r, reasons))
	}
	if err := json.Unmarshal(body, &v); err != nil {
		return v, errs.WrapKind(op, ErrMalformed, err)
	}
	return v, nil
}

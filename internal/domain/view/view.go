// Package view models the prediction dashboard as an immutable state value
// and a pure reducer. Derive turns a state into what a page renders.
package view

import (
	"github.com/okian/retention/internal/domain/filter"
	"github.com/okian/retention/internal/domain/model"
	"github.com/okian/retention/internal/domain/ordering"
	"github.com/okian/retention/internal/domain/pagination"
	"github.com/okian/retention/internal/domain/risk"
	"github.com/okian/retention/internal/domain/stats"
)

// DefaultPageSize is used when a state is created with a non-positive size.
const DefaultPageSize = 20

// Status is the load lifecycle of a view.
type Status string

// Load statuses.
const (
	Idle    Status = "idle"
	Loading Status = "loading"
	Ready   Status = "ready"
	Failed  Status = "failed"
)

// State is the whole dashboard state. Treat it as a value: Reduce returns a
// new State and never mutates its input.
type State struct {
	Status   Status             `json:"status"`
	Records  []model.Prediction `json:"-"`
	Err      string             `json:"error,omitempty"`
	LoadID   string             `json:"load_id,omitempty"`
	Criteria filter.Criteria    `json:"criteria"`
	Sort     ordering.Key       `json:"sort"`
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
}

// New returns an idle state with match-all criteria, risk ordering and page 1.
func New(pageSize int) State {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return State{
		Status:   Idle,
		Criteria: filter.Default(),
		Sort:     ordering.ByRisk,
		Page:     1,
		PageSize: pageSize,
	}
}

// Action is an event applied by Reduce.
type Action interface {
	action()
}

// LoadStarted marks the start of fetch ID.
type LoadStarted struct{ ID string }

// LoadSucceeded replaces the collection with the result of fetch ID.
type LoadSucceeded struct {
	ID      string
	Records []model.Prediction
}

// LoadFailed records a failed fetch. The previous collection stays visible.
type LoadFailed struct {
	ID      string
	Message string
}

// SearchChanged sets the search text.
type SearchChanged struct{ Term string }

// RiskFilterChanged sets the risk tier filter.
type RiskFilterChanged struct{ Risk string }

// AgeFilterChanged sets the age bucket filter.
type AgeFilterChanged struct{ Age string }

// CreditFilterChanged sets the credit grade prefix filter.
type CreditFilterChanged struct{ Credit string }

// SortChanged sets the sort key.
type SortChanged struct{ Key ordering.Key }

// PageChanged moves to another page. Out-of-range pages are ignored.
type PageChanged struct{ Page int }

func (LoadStarted) action()         {}
func (LoadSucceeded) action()       {}
func (LoadFailed) action()          {}
func (SearchChanged) action()       {}
func (RiskFilterChanged) action()   {}
func (AgeFilterChanged) action()    {}
func (CreditFilterChanged) action() {}
func (SortChanged) action()         {}
func (PageChanged) action()         {}

// Reduce applies a to s and returns the resulting state.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case LoadStarted:
		s.Status = Loading
		s.LoadID = a.ID
	case LoadSucceeded:
		s.Status = Ready
		s.LoadID = a.ID
		s.Err = ""
		s.Records = append([]model.Prediction(nil), a.Records...)
		if !pagination.Valid(s.Page, s.TotalPages()) {
			s.Page = 1
		}
	case LoadFailed:
		s.Status = Failed
		s.LoadID = a.ID
		s.Err = a.Message
	case SearchChanged:
		s.Criteria.Search = a.Term
		s.Page = 1
	case RiskFilterChanged:
		s.Criteria.Risk = a.Risk
		s.Page = 1
	case AgeFilterChanged:
		s.Criteria.Age = a.Age
		s.Page = 1
	case CreditFilterChanged:
		s.Criteria.Credit = a.Credit
		s.Page = 1
	case SortChanged:
		s.Sort = a.Key
		s.Page = 1
	case PageChanged:
		if pagination.Valid(a.Page, s.TotalPages()) {
			s.Page = a.Page
		}
	}
	return s
}

// ReduceAll folds actions over s in order.
func ReduceAll(s State, actions ...Action) State {
	for _, a := range actions {
		s = Reduce(s, a)
	}
	return s
}

// TotalPages is the page count of the filtered collection.
func (s State) TotalPages() int {
	return pagination.TotalPages(len(filter.Apply(s.Records, s.Criteria)), s.PageSize)
}

// Row is a display row: the record plus its derived tier.
type Row struct {
	model.Prediction
	Risk        risk.Level `json:"risk"`
	RiskLabel   string     `json:"risk_label"`
	StatusLabel string     `json:"status_label"`
}

// Render is everything a dashboard page shows for one state.
type Render struct {
	Status   Status            `json:"status"`
	Error    string            `json:"error,omitempty"`
	LoadID   string            `json:"load_id,omitempty"`
	Criteria filter.Criteria   `json:"criteria"`
	Sort     ordering.Key      `json:"sort"`
	Rows     []Row             `json:"rows"`
	Matched  int               `json:"matched"`
	Stats    stats.Aggregate   `json:"stats"`
	Window   pagination.Window `json:"pagination"`
}

// Churn status labels.
const (
	ChurnedLabel  = "이탈"
	RetainedLabel = "유지"
)

// StatusLabel is the churn status label for p.
func StatusLabel(p model.Prediction) string {
	if p.Delinquent() {
		return ChurnedLabel
	}
	return RetainedLabel
}

// NewRow classifies p for display.
func NewRow(p model.Prediction) Row {
	l := risk.Classify(p)
	return Row{Prediction: p, Risk: l, RiskLabel: l.Label(), StatusLabel: StatusLabel(p)}
}

// Visible returns the filtered and sorted collection without paging. Exports
// use it.
func Visible(s State) []model.Prediction {
	return ordering.Sort(filter.Apply(s.Records, s.Criteria), s.Sort)
}

// Derive classifies, filters, sorts and pages the collection. Statistics
// cover the full unfiltered collection.
func Derive(s State) Render {
	visible := Visible(s)
	total := pagination.TotalPages(len(visible), s.PageSize)
	current := s.Page
	if !pagination.Valid(current, total) {
		current = 1
	}

	pageRecords := pagination.Slice(visible, current, s.PageSize)
	rows := make([]Row, 0, len(pageRecords))
	for _, p := range pageRecords {
		rows = append(rows, NewRow(p))
	}

	return Render{
		Status:   s.Status,
		Error:    s.Err,
		LoadID:   s.LoadID,
		Criteria: s.Criteria,
		Sort:     s.Sort,
		Rows:     rows,
		Matched:  len(visible),
		Stats:    stats.Build(s.Records),
		Window:   pagination.Build(current, total),
	}
}

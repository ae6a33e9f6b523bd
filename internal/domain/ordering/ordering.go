// Package ordering sorts prediction collections for display.
package ordering

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/okian/retention/internal/domain/model"
	"github.com/okian/retention/internal/domain/risk"
)

// Key selects the sort order.
type Key string

// Sort keys.
const (
	ByRisk   Key = "risk"
	ByAge    Key = "age"
	ByCredit Key = "credit"
	ByAmount Key = "amount"
)

// Keys lists the supported keys.
var Keys = []Key{ByRisk, ByAge, ByCredit, ByAmount}

// ParseKey returns the key for s and whether it is known.
func ParseKey(s string) (Key, bool) {
	k := Key(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Keys {
		if k == known {
			return k, true
		}
	}
	return k, false
}

// Sort returns a stably sorted copy of ps:
//
//	risk   - high to low severity
//	age    - oldest first
//	credit - ascending by Korean collation
//	amount - largest loan first
//
// Unknown keys return the copy in input order. ps is never modified.
func Sort(ps []model.Prediction, key Key) []model.Prediction {
	out := make([]model.Prediction, len(ps))
	copy(out, ps)

	var less func(a, b model.Prediction) bool
	switch key {
	case ByRisk:
		less = func(a, b model.Prediction) bool {
			return risk.Weight(risk.Classify(a)) > risk.Weight(risk.Classify(b))
		}
	case ByAge:
		less = func(a, b model.Prediction) bool { return a.Age > b.Age }
	case ByCredit:
		// collators keep internal buffers; one per call
		col := collate.New(language.Korean)
		less = func(a, b model.Prediction) bool {
			return col.CompareString(a.CreditGrade, b.CreditGrade) < 0
		}
	case ByAmount:
		less = func(a, b model.Prediction) bool { return a.LoanAmount > b.LoanAmount }
	default:
		return out
	}

	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

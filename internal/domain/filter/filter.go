// Package filter narrows a prediction collection by search text, risk tier,
// age bucket and credit grade.
package filter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/okian/retention/internal/domain/model"
	"github.com/okian/retention/internal/domain/risk"
)

// All matches every value of a dimension.
const All = "all"

// AgeGroup is a coarse age bucket.
type AgeGroup string

// Age buckets.
const (
	Young  AgeGroup = "young"
	Middle AgeGroup = "middle"
	Senior AgeGroup = "senior"
)

const (
	middleFrom = 35
	seniorFrom = 55
)

// AgeGroupOf buckets an age: under 35 young, 35 to 54 middle, 55 and up senior.
func AgeGroupOf(age int) AgeGroup {
	switch {
	case age < middleFrom:
		return Young
	case age < seniorFrom:
		return Middle
	default:
		return Senior
	}
}

// Criteria is the active filter set. Dimensions are AND-combined and an empty
// or "all" value disables that dimension.
type Criteria struct {
	Search string `json:"search"`
	Risk   string `json:"risk"`
	Age    string `json:"age"`
	Credit string `json:"credit"`
}

// ErrInvalidCriteria is returned by Normalize for an unknown risk tier or
// age bucket.
var ErrInvalidCriteria = errors.New("invalid filter criteria")

// Default returns criteria that match everything.
func Default() Criteria {
	return Criteria{Risk: All, Age: All, Credit: All}
}

// Normalize lowercases the risk and age dimensions, maps empty dimensions to
// All and rejects values no record could match. The search term is kept as
// given.
func Normalize(c Criteria) (Criteria, error) {
	c.Risk = strings.ToLower(dimension(c.Risk))
	c.Age = strings.ToLower(dimension(c.Age))
	c.Credit = dimension(c.Credit)

	if c.Risk != All {
		if _, err := risk.ParseLevel(c.Risk); err != nil {
			return c, fmt.Errorf("%w: risk %q", ErrInvalidCriteria, c.Risk)
		}
	}
	switch AgeGroup(c.Age) {
	case Young, Middle, Senior:
	default:
		if c.Age != All {
			return c, fmt.Errorf("%w: age group %q", ErrInvalidCriteria, c.Age)
		}
	}
	return c, nil
}

func dimension(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return All
	}
	return raw
}

func active(v string) bool { return v != "" && v != All }

// Match reports whether p satisfies every dimension of c.
func Match(p model.Prediction, c Criteria) bool {
	if c.Search != "" {
		term := strings.ToLower(c.Search)
		if !strings.Contains(strings.ToLower(p.CustomerID), term) &&
			!strings.Contains(strings.ToLower(p.IncomeLevel), term) {
			return false
		}
	}
	if active(c.Risk) && string(risk.Classify(p)) != c.Risk {
		return false
	}
	if active(c.Age) && string(AgeGroupOf(p.Age)) != c.Age {
		return false
	}
	if active(c.Credit) && !strings.HasPrefix(p.CreditGrade, c.Credit) {
		return false
	}
	return true
}

// Apply returns the records of ps matching c in input order. ps is not
// modified.
func Apply(ps []model.Prediction, c Criteria) []model.Prediction {
	out := make([]model.Prediction, 0, len(ps))
	for _, p := range ps {
		if Match(p, c) {
			out = append(out, p)
		}
	}
	return out
}

// Package risk maps a prediction record's credit and delinquency signals to a
// risk tier.
package risk

import (
	"fmt"
	"strings"

	"github.com/okian/retention/internal/domain/model"
)

// Level is a derived risk tier. It is never stored.
type Level string

// Risk tiers.
const (
	Low    Level = "low"
	Medium Level = "medium"
	High   Level = "high"
)

// Levels lists every tier from most to least severe.
var Levels = []Level{High, Medium, Low}

// Scoring policy constants. These are fixed, not configurable.
const (
	weightLate3M   = 3
	weightLate6M   = 2
	weightLate12M  = 1
	lateDivisor    = 10.0
	weightUtil     = 0.3
	weightDTI      = 0.3
	weightLateness = 0.4

	lowThreshold    = 0.7
	mediumThreshold = 0.4
)

// DelinquencyScore folds the late-payment windows into one number; recent
// lateness weighs more.
func DelinquencyScore(p model.Prediction) float64 {
	late := p.LatePayments3M*weightLate3M + p.LatePayments6M*weightLate6M + p.LatePayments12M*weightLate12M
	return float64(late) / lateDivisor
}

// CreditScore is 1 minus the weighted utilization, debt ratio and
// delinquency. Higher is healthier.
func CreditScore(p model.Prediction) float64 {
	return 1 - (p.CreditUtilization*weightUtil + p.DebtToIncomeRatio*weightDTI + DelinquencyScore(p)*weightLateness)
}

// Classify returns the tier for p. A set delinquency flag is always High.
func Classify(p model.Prediction) Level {
	if p.Delinquent() {
		return High
	}
	score := CreditScore(p)
	switch {
	case score > lowThreshold:
		return Low
	case score > mediumThreshold:
		return Medium
	default:
		return High
	}
}

// Weight is the ordinal severity used for sorting: high=3, medium=2, low=1.
func Weight(l Level) int {
	switch l {
	case High:
		return 3
	case Medium:
		return 2
	case Low:
		return 1
	default:
		return 0
	}
}

// ParseLevel accepts low, medium or high in any case.
func ParseLevel(s string) (Level, error) {
	switch Level(strings.ToLower(strings.TrimSpace(s))) {
	case Low:
		return Low, nil
	case Medium:
		return Medium, nil
	case High:
		return High, nil
	}
	return "", fmt.Errorf("unknown risk level %q", s)
}

// Label is the Korean display label used on pages and in exports.
func (l Level) Label() string {
	switch l {
	case High:
		return "고위험"
	case Medium:
		return "중위험"
	case Low:
		return "저위험"
	}
	return string(l)
}

// Description is a short Korean explanation of the tier.
func (l Level) Description() string {
	switch l {
	case High:
		return "이탈 가능성이 높음"
	case Medium:
		return "주의가 필요함"
	case Low:
		return "안정적인 고객"
	}
	return ""
}

// FromLabel reverses Label.
func FromLabel(label string) (Level, bool) {
	for _, l := range Levels {
		if l.Label() == label {
			return l, true
		}
	}
	return "", false
}

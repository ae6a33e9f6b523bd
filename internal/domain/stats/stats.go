// Package stats computes headline figures over a full prediction collection.
package stats

import (
	"github.com/okian/retention/internal/domain/model"
	"github.com/okian/retention/internal/domain/risk"
)

// Placeholder churn probabilities. These are not model output; the feed does
// not carry a real probability yet.
const (
	placeholderChurnDelinquent = 0.8
	placeholderChurnCurrent    = 0.2
)

// Aggregate holds the summary figures. All values are zero for an empty
// collection.
type Aggregate struct {
	TotalPredictions     int     `json:"total_predictions"`
	HighRiskCount        int     `json:"high_risk_count"`
	MediumRiskCount      int     `json:"medium_risk_count"`
	LowRiskCount         int     `json:"low_risk_count"`
	HighRiskPercent      float64 `json:"high_risk_percent"`
	MediumRiskPercent    float64 `json:"medium_risk_percent"`
	LowRiskPercent       float64 `json:"low_risk_percent"`
	AvgChurnProbability  float64 `json:"avg_churn_probability"`
	AvgAge               float64 `json:"avg_age"`
	AvgCreditUtilization float64 `json:"avg_credit_utilization"`
	AvgDebtToIncomeRatio float64 `json:"avg_debt_to_income_ratio"`
	DelinquencyRate      float64 `json:"delinquency_rate"`
}

// Count returns the number of records in tier l.
func (a Aggregate) Count(l risk.Level) int {
	switch l {
	case risk.High:
		return a.HighRiskCount
	case risk.Medium:
		return a.MediumRiskCount
	case risk.Low:
		return a.LowRiskCount
	}
	return 0
}

// Build computes the aggregate over ps.
func Build(ps []model.Prediction) Aggregate {
	var a Aggregate
	total := len(ps)
	if total == 0 {
		return a
	}

	var sumAge, sumUtil, sumDTI, sumChurn float64
	var delinquent int
	for _, p := range ps {
		switch risk.Classify(p) {
		case risk.High:
			a.HighRiskCount++
		case risk.Medium:
			a.MediumRiskCount++
		case risk.Low:
			a.LowRiskCount++
		}
		sumAge += float64(p.Age)
		sumUtil += p.CreditUtilization
		sumDTI += p.DebtToIncomeRatio
		if p.Delinquent() {
			delinquent++
			sumChurn += placeholderChurnDelinquent
		} else {
			sumChurn += placeholderChurnCurrent
		}
	}

	n := float64(total)
	a.TotalPredictions = total
	a.HighRiskPercent = float64(a.HighRiskCount) / n * 100
	a.MediumRiskPercent = float64(a.MediumRiskCount) / n * 100
	a.LowRiskPercent = float64(a.LowRiskCount) / n * 100
	a.AvgAge = sumAge / n
	a.AvgCreditUtilization = sumUtil / n
	a.AvgDebtToIncomeRatio = sumDTI / n
	a.AvgChurnProbability = sumChurn / n
	a.DelinquencyRate = float64(delinquent) / n
	return a
}

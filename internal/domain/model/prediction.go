// Package model contains domain models passed between layers.
package model

// Prediction is one row of the churn-prediction feed: a customer's credit
// and delinquency profile joined with their loan. Records are immutable once
// fetched and replaced wholesale on refresh.
type Prediction struct {
	ID                    int64   `json:"id"`
	CustomerID            string  `json:"customer_id"`
	Age                   int     `json:"age"`
	IncomeLevel           string  `json:"income_level"`
	CreditGrade           string  `json:"credit_grade"`
	LoanAmount            float64 `json:"loan_amount"`
	InterestRate          float64 `json:"interest_rate"`
	LoanTerm              int     `json:"loan_term"`
	MonthlyPayment        float64 `json:"monthly_payment"`
	PaymentHistoryMonths  int     `json:"payment_history_months"`
	LatePayments3M        int     `json:"late_payments_3m"`
	LatePayments6M        int     `json:"late_payments_6m"`
	LatePayments12M       int     `json:"late_payments_12m"`
	CreditUtilization     float64 `json:"credit_utilization"`
	DebtToIncomeRatio     float64 `json:"debt_to_income_ratio"`
	EmploymentLengthYears int     `json:"employment_length_years"`
	NumberOfAccounts      int     `json:"number_of_accounts"`
	InquiriesLast6M       int     `json:"inquiries_last_6m"`
	EverDelinquent        int     `json:"everdelinquent"`
	CreatedAt             string  `json:"created_at"`
}

// Delinquent reports whether the ever-delinquent flag is set.
func (p Prediction) Delinquent() bool { return p.EverDelinquent == 1 }

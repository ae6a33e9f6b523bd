package model

// LoanRow is a loan joined with its owning customer for the loan book view.
type LoanRow struct {
	ID              int64   `json:"id"`
	CustomerID      string  `json:"customer_id"`
	Name            string  `json:"name"`
	Phone           string  `json:"phone"`
	Email           string  `json:"email"`
	LoanID          int64   `json:"loan_id"`
	LoanType        string  `json:"loan_type"`
	LoanAmount      float64 `json:"loan_amount"`
	InterestRate    float64 `json:"interest_rate"`
	LoanTerm        int     `json:"loan_term"`
	MonthlyPayment  float64 `json:"monthly_payment"`
	Status          string  `json:"status"`
	ApplicationDate string  `json:"application_date"`
}

// LoanStats summarizes one page of the loan book.
type LoanStats struct {
	TotalCustomers int            `json:"total_customers"`
	TotalLoans     int            `json:"total_loans"`
	AvgLoanAmount  float64        `json:"avg_loan_amount"`
	StatusStats    map[string]int `json:"status_stats"`
	LoanTypeStats  map[string]int `json:"loan_type_stats"`
}

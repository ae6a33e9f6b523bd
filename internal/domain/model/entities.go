package model

// Customer is a row of the customer list.
type Customer struct {
	ID         int64  `json:"id"`
	CustomerID string `json:"customer_id"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Email      string `json:"email,omitempty"`
	BirthDate  string `json:"birth_date,omitempty"`
	Address    string `json:"address,omitempty"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at,omitempty"`
}

// Loan is a row of the loan list.
type Loan struct {
	ID              int64   `json:"id"`
	CustomerID      int64   `json:"customer_id"`
	LoanNumber      string  `json:"loan_number"`
	LoanType        string  `json:"loan_type"`
	LoanAmount      float64 `json:"loan_amount"`
	InterestRate    float64 `json:"interest_rate"`
	RemainingAmount float64 `json:"remaining_amount"`
	MonthlyPayment  float64 `json:"monthly_payment"`
	LoanTerm        int     `json:"loan_term,omitempty"`
	Status          string  `json:"status,omitempty"`
	LoanStartDate   string  `json:"loan_start_date,omitempty"`
	LoanEndDate     string  `json:"loan_end_date,omitempty"`
	BankName        string  `json:"bank_name,omitempty"`
	IsActive        bool    `json:"is_active"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at,omitempty"`
}

// RefinanceApplication is a customer's request to replace a loan.
type RefinanceApplication struct {
	ID                    int64   `json:"id"`
	ApplicationNumber     string  `json:"application_number"`
	CustomerID            int64   `json:"customer_id"`
	OriginalLoanID        int64   `json:"original_loan_id"`
	RequestedAmount       float64 `json:"requested_amount"`
	RequestedInterestRate float64 `json:"requested_interest_rate,omitempty"`
	ApplicationStatus     string  `json:"application_status"`
	ApplicationDate       string  `json:"application_date"`
	ApprovalDate          string  `json:"approval_date,omitempty"`
	RejectionReason       string  `json:"rejection_reason,omitempty"`
	CreatedAt             string  `json:"created_at"`
	UpdatedAt             string  `json:"updated_at,omitempty"`
}

// RefinanceProduct is an offered refinance product.
type RefinanceProduct struct {
	ID                  int64   `json:"id"`
	ProductName         string  `json:"product_name"`
	ProductCode         string  `json:"product_code"`
	MinInterestRate     float64 `json:"min_interest_rate"`
	MaxInterestRate     float64 `json:"max_interest_rate"`
	MinLoanAmount       float64 `json:"min_loan_amount"`
	MaxLoanAmount       float64 `json:"max_loan_amount"`
	LoanTermMin         int     `json:"loan_term_min"`
	LoanTermMax         int     `json:"loan_term_max"`
	EligibilityCriteria string  `json:"eligibility_criteria,omitempty"`
	IsActive            bool    `json:"is_active"`
	CreatedAt           string  `json:"created_at"`
}

// Document is a file attached to a refinance application.
type Document struct {
	ID            int64  `json:"id"`
	ApplicationID int64  `json:"application_id"`
	DocumentType  string `json:"document_type"`
	FileName      string `json:"file_name"`
	FilePath      string `json:"file_path"`
	FileSize      int64  `json:"file_size,omitempty"`
	UploadDate    string `json:"upload_date"`
}

// ApplicationLog is an audit entry for a refinance application.
type ApplicationLog struct {
	ID            int64  `json:"id"`
	ApplicationID int64  `json:"application_id"`
	Action        string `json:"action"`
	Description   string `json:"description,omitempty"`
	PerformedBy   string `json:"performed_by,omitempty"`
	PerformedAt   string `json:"performed_at"`
}

// DashboardSummary is the backend's headline counters.
type DashboardSummary struct {
	CustomerCount  int     `json:"customer_count"`
	LoanCount      int     `json:"loan_count"`
	RefinanceCount int     `json:"refinance_count"`
	ProductCount   int     `json:"product_count"`
	TotalAssets    float64 `json:"total_assets"`
}

// CustomerWithLoans is a customer embedded with its loans (PostgREST
// select=*,loans(*)).
type CustomerWithLoans struct {
	Customer
	Loans []Loan `json:"loans"`
}

// CustomerWithApplications is a customer embedded with its refinance
// applications.
type CustomerWithApplications struct {
	Customer
	Applications []RefinanceApplication `json:"refinance_applications"`
}

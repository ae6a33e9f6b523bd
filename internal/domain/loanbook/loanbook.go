// Package loanbook joins loans with their customers for the loan book page
// and summarizes a page of it.
package loanbook

import (
	"fmt"
	"strings"

	"github.com/okian/retention/internal/domain/model"
)

// Fallbacks for loans whose fields or owner are missing.
const (
	DefaultLoanType = "개인신용대출"
	DefaultStatus   = "상환중"
	DefaultLoanTerm = 12
)

// Tracked statuses and loan types.
const (
	StatusRepaying   = "상환중"
	StatusCompleted  = "완료"
	StatusDelinquent = "연체"

	TypePersonal   = "개인신용대출"
	TypeCollateral = "담보대출"
	TypeOther      = "기타"
)

// Join builds one row per loan, filling owner fields from customers matched by
// row id. Loans without a known owner get placeholder names.
func Join(loans []model.Loan, customers []model.Customer) []model.LoanRow {
	byID := make(map[int64]model.Customer, len(customers))
	for _, c := range customers {
		byID[c.ID] = c
	}

	rows := make([]model.LoanRow, 0, len(loans))
	for _, l := range loans {
		r := model.LoanRow{
			ID:              l.ID,
			CustomerID:      fmt.Sprintf("CUST%d", l.CustomerID),
			Name:            fmt.Sprintf("고객%d", l.CustomerID),
			LoanID:          l.ID,
			LoanType:        l.LoanType,
			LoanAmount:      l.LoanAmount,
			InterestRate:    l.InterestRate,
			LoanTerm:        l.LoanTerm,
			MonthlyPayment:  l.MonthlyPayment,
			Status:          l.Status,
			ApplicationDate: l.CreatedAt,
		}
		if c, ok := byID[l.CustomerID]; ok {
			if c.CustomerID != "" {
				r.CustomerID = c.CustomerID
			}
			if c.Name != "" {
				r.Name = c.Name
			}
			r.Phone = c.Phone
			r.Email = c.Email
		}
		if r.LoanType == "" {
			r.LoanType = DefaultLoanType
		}
		if r.Status == "" {
			r.Status = DefaultStatus
		}
		if r.LoanTerm == 0 {
			r.LoanTerm = DefaultLoanTerm
		}
		rows = append(rows, r)
	}
	return rows
}

// Summarize computes the loan book figures for one page of loans.
func Summarize(loans []model.Loan, totalCustomers int) model.LoanStats {
	s := model.LoanStats{
		TotalCustomers: totalCustomers,
		TotalLoans:     len(loans),
		StatusStats: map[string]int{
			StatusRepaying:   0,
			StatusCompleted:  0,
			StatusDelinquent: 0,
		},
		LoanTypeStats: map[string]int{
			TypePersonal:   0,
			TypeCollateral: 0,
			TypeOther:      0,
		},
	}
	if len(loans) == 0 {
		return s
	}

	var sum float64
	for _, l := range loans {
		sum += l.LoanAmount
		if _, tracked := s.StatusStats[l.Status]; tracked {
			s.StatusStats[l.Status]++
		}
		switch l.LoanType {
		case TypePersonal, TypeCollateral:
			s.LoanTypeStats[l.LoanType]++
		default:
			s.LoanTypeStats[TypeOther]++
		}
	}
	s.AvgLoanAmount = sum / float64(len(loans))
	return s
}

// Search keeps rows whose name, customer id, loan type or status contains
// term, ignoring case. An empty term keeps everything.
func Search(rows []model.LoanRow, term string) []model.LoanRow {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return rows
	}
	out := make([]model.LoanRow, 0, len(rows))
	for _, r := range rows {
		for _, field := range []string{r.Name, r.CustomerID, r.LoanType, r.Status} {
			if strings.Contains(strings.ToLower(field), term) {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

// Package export writes prediction collections as CSV downloads and reads
// them back.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/okian/retention/internal/domain/model"
	"github.com/okian/retention/internal/domain/risk"
	"github.com/okian/retention/internal/domain/view"
	"github.com/okian/retention/pkg/errs"
)

// ContentType is the media type of the download.
const ContentType = "text/csv; charset=utf-8"

// Header is the fixed column order.
var Header = []string{
	"고객ID", "나이", "소득수준", "신용등급", "대출금액", "이자율", "대출기간",
	"월상환금", "상환이력(개월)", "연체횟수(3개월)", "연체횟수(6개월)", "연체횟수(12개월)",
	"신용이용률", "부채비율", "근무연수", "계좌수", "신용조회(6개월)", "이탈여부", "위험도",
}

// Sentinel error kinds for this package.
var (
	ErrHeader = errors.New("unexpected csv header")
	ErrRow    = errors.New("malformed csv row")
)

// Filename returns "<prefix>_YYYY-MM-DD.csv" for the UTC date of t.
func Filename(prefix string, t time.Time) string {
	return fmt.Sprintf("%s_%s.csv", prefix, t.UTC().Format("2006-01-02"))
}

func num(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

func record(p model.Prediction) []string {
	return []string{
		p.CustomerID,
		strconv.Itoa(p.Age),
		p.IncomeLevel,
		p.CreditGrade,
		num(p.LoanAmount),
		num(p.InterestRate),
		strconv.Itoa(p.LoanTerm),
		num(p.MonthlyPayment),
		strconv.Itoa(p.PaymentHistoryMonths),
		strconv.Itoa(p.LatePayments3M),
		strconv.Itoa(p.LatePayments6M),
		strconv.Itoa(p.LatePayments12M),
		num(p.CreditUtilization),
		num(p.DebtToIncomeRatio),
		strconv.Itoa(p.EmploymentLengthYears),
		strconv.Itoa(p.NumberOfAccounts),
		strconv.Itoa(p.InquiriesLast6M),
		view.StatusLabel(p),
		risk.Classify(p).Label(),
	}
}

// Write emits the header and one row per record in the given order. It
// returns the number of data rows written.
func Write(w io.Writer, ps []model.Prediction) (int, error) {
	const op = "export.Write"
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return 0, errs.Wrap(op, err)
	}
	for i, p := range ps {
		if err := cw.Write(record(p)); err != nil {
			return i, errs.Wrap(op, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return len(ps), errs.Wrap(op, err)
	}
	return len(ps), nil
}

// Row is a parsed CSV line: the record plus the labels written with it.
type Row struct {
	model.Prediction
	StatusLabel string
	Risk        risk.Level
}

// Parse reads a file produced by Write. Rows are returned in file order.
func Parse(r io.Reader) ([]Row, error) {
	const op = "export.Parse"
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)

	head, err := cr.Read()
	if err != nil {
		return nil, errs.WrapKind(op, ErrHeader, err)
	}
	for i := range Header {
		if head[i] != Header[i] {
			return nil, errs.WrapKind(op, ErrHeader, fmt.Errorf("column %d is %q, want %q", i, head[i], Header[i]))
		}
	}

	var rows []Row
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errs.WrapKind(op, ErrRow, err)
		}
		row, err := parseRecord(rec)
		if err != nil {
			return nil, errs.WrapKind(op, ErrRow, fmt.Errorf("line %d: %w", line, err))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

type fieldParser struct {
	rec []string
	err error
}

func (f *fieldParser) atoi(i int) int {
	if f.err != nil {
		return 0
	}
	n, err := strconv.Atoi(f.rec[i])
	if err != nil {
		f.err = fmt.Errorf("%s: %w", Header[i], err)
	}
	return n
}

func (f *fieldParser) atof(i int) float64 {
	if f.err != nil {
		return 0
	}
	v, err := strconv.ParseFloat(f.rec[i], 64)
	if err != nil {
		f.err = fmt.Errorf("%s: %w", Header[i], err)
	}
	return v
}

func parseRecord(rec []string) (Row, error) {
	f := &fieldParser{rec: rec}
	p := model.Prediction{
		CustomerID:            rec[0],
		Age:                   f.atoi(1),
		IncomeLevel:           rec[2],
		CreditGrade:           rec[3],
		LoanAmount:            f.atof(4),
		InterestRate:          f.atof(5),
		LoanTerm:              f.atoi(6),
		MonthlyPayment:        f.atof(7),
		PaymentHistoryMonths:  f.atoi(8),
		LatePayments3M:        f.atoi(9),
		LatePayments6M:        f.atoi(10),
		LatePayments12M:       f.atoi(11),
		CreditUtilization:     f.atof(12),
		DebtToIncomeRatio:     f.atof(13),
		EmploymentLengthYears: f.atoi(14),
		NumberOfAccounts:      f.atoi(15),
		InquiriesLast6M:       f.atoi(16),
	}
	if f.err != nil {
		return Row{}, f.err
	}

	switch rec[17] {
	case view.ChurnedLabel:
		p.EverDelinquent = 1
	case view.RetainedLabel:
	default:
		return Row{}, fmt.Errorf("%s: unknown status %q", Header[17], rec[17])
	}
	level, ok := risk.FromLabel(rec[18])
	if !ok {
		return Row{}, fmt.Errorf("%s: unknown risk label %q", Header[18], rec[18])
	}
	return Row{Prediction: p, StatusLabel: rec[17], Risk: level}, nil
}

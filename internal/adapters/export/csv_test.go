package export_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/okian/retention/internal/adapters/export"
	"github.com/okian/retention/internal/domain/model"
	"github.com/okian/retention/internal/domain/risk"
	. "github.com/smartystreets/goconvey/convey"
)

func sample() []model.Prediction {
	return []model.Prediction{
		{
			ID: 9, CustomerID: "CUST001", Age: 34, IncomeLevel: "중간, 소득", CreditGrade: "A1",
			LoanAmount: 15000000, InterestRate: 4.5, LoanTerm: 36, MonthlyPayment: 450000.5,
			PaymentHistoryMonths: 24, LatePayments12M: 1, CreditUtilization: 0.25, DebtToIncomeRatio: 0.3,
			EmploymentLengthYears: 5, NumberOfAccounts: 3, InquiriesLast6M: 1,
		},
		{
			ID: 10, CustomerID: "CUST002", Age: 58, IncomeLevel: "고소득", CreditGrade: "C2",
			LoanAmount: 5000000, EverDelinquent: 1,
		},
	}
}

func TestWrite(t *testing.T) {
	Convey("Given records to export", t, func() {
		var buf bytes.Buffer
		n, err := export.Write(&buf, sample())
		lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")

		Convey("Then the fixed header comes first", func() {
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 2)
			So(len(export.Header), ShouldEqual, 19)
			So(lines[0], ShouldEqual, strings.Join(export.Header, ","))
		})

		Convey("Then each record gets one row with labels", func() {
			So(len(lines), ShouldEqual, 3)
			So(lines[1], ShouldStartWith, `CUST001,34,"중간, 소득",A1,15000000,4.5,36,450000.5,`)
			So(lines[1], ShouldEndWith, ",유지,저위험")
			So(lines[2], ShouldEndWith, ",이탈,고위험")
		})
	})

	Convey("Given an empty collection", t, func() {
		var buf bytes.Buffer
		n, err := export.Write(&buf, nil)

		Convey("Then only the header is written", func() {
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 0)
			So(strings.Count(buf.String(), "\n"), ShouldEqual, 1)
		})
	})
}

func TestParse(t *testing.T) {
	Convey("Given an exported file", t, func() {
		var buf bytes.Buffer
		_, err := export.Write(&buf, sample())
		So(err, ShouldBeNil)

		rows, err := export.Parse(&buf)

		Convey("Then rows read back to the same records and labels", func() {
			So(err, ShouldBeNil)
			So(len(rows), ShouldEqual, 2)
			want := sample()
			for i := range want {
				want[i].ID = 0
				So(rows[i].Prediction, ShouldResemble, want[i])
			}
			So(rows[0].Risk, ShouldEqual, risk.Low)
			So(rows[1].Risk, ShouldEqual, risk.High)
			So(rows[1].StatusLabel, ShouldEqual, "이탈")
		})
	})

	Convey("Given a file with a foreign header", t, func() {
		_, err := export.Parse(strings.NewReader(strings.Repeat("x,", 18) + "x\n"))

		Convey("Then ErrHeader is returned", func() {
			So(errors.Is(err, export.ErrHeader), ShouldBeTrue)
		})
	})

	Convey("Given a row with a bad number", t, func() {
		var buf bytes.Buffer
		_, _ = export.Write(&buf, sample()[:1])
		broken := strings.Replace(buf.String(), ",34,", ",old,", 1)

		_, err := export.Parse(strings.NewReader(broken))

		Convey("Then ErrRow is returned", func() {
			So(errors.Is(err, export.ErrRow), ShouldBeTrue)
		})
	})
}

func TestFilename(t *testing.T) {
	Convey("Given a timestamp", t, func() {
		ts := time.Date(2025, 3, 9, 23, 0, 0, 0, time.UTC)
		So(export.Filename("ml_dashboard", ts), ShouldEqual, "ml_dashboard_2025-03-09.csv")
	})
}

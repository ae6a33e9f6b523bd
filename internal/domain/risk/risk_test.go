package risk_test

import (
	"testing"

	"github.com/okian/retention/internal/domain/model"
	"github.com/okian/retention/internal/domain/risk"
	. "github.com/smartystreets/goconvey/convey"
)

func TestClassify(t *testing.T) {
	Convey("Given prediction records", t, func() {
		Convey("When the delinquency flag is set", func() {
			p := model.Prediction{EverDelinquent: 1}

			Convey("Then the record is high risk regardless of other fields", func() {
				So(risk.Classify(p), ShouldEqual, risk.High)
			})

			Convey("And saturated utilization and debt ratio stay high", func() {
				p.CreditUtilization = 1
				p.DebtToIncomeRatio = 1
				So(risk.CreditScore(p), ShouldAlmostEqual, 0.4)
				So(risk.Classify(p), ShouldEqual, risk.High)
			})
		})

		Convey("When utilization, debt and lateness are all zero", func() {
			p := model.Prediction{}

			Convey("Then the credit score is 1 and the record is low risk", func() {
				So(risk.CreditScore(p), ShouldEqual, 1.0)
				So(risk.Classify(p), ShouldEqual, risk.Low)
			})
		})

		Convey("When utilization and debt ratio are moderate", func() {
			// 1 - (0.5*0.3 + 0.5*0.3 + 0.2*0.4) = 0.62
			p := model.Prediction{CreditUtilization: 0.5, DebtToIncomeRatio: 0.5, LatePayments3M: 0, LatePayments6M: 1}

			Convey("Then the record is medium risk", func() {
				So(risk.DelinquencyScore(p), ShouldAlmostEqual, 0.2)
				So(risk.CreditScore(p), ShouldAlmostEqual, 0.62)
				So(risk.Classify(p), ShouldEqual, risk.Medium)
			})
		})

		Convey("When the profile is poor", func() {
			p := model.Prediction{CreditUtilization: 0.9, DebtToIncomeRatio: 0.9, LatePayments3M: 2}

			Convey("Then the record is high risk", func() {
				So(risk.Classify(p), ShouldEqual, risk.High)
			})
		})

		Convey("When the credit score straddles the low threshold", func() {
			above := model.Prediction{CreditUtilization: 0.99}
			below := model.Prediction{CreditUtilization: 1.01}

			Convey("Then only the strictly greater score is low risk", func() {
				So(risk.Classify(above), ShouldEqual, risk.Low)
				So(risk.Classify(below), ShouldEqual, risk.Medium)
			})
		})
	})
}

func TestCreditScoreMonotonic(t *testing.T) {
	Convey("Given a base record", t, func() {
		base := model.Prediction{CreditUtilization: 0.2, DebtToIncomeRatio: 0.3, LatePayments12M: 1}

		Convey("Then raising any input strictly lowers the score", func() {
			s := risk.CreditScore(base)
			for _, mod := range []func(*model.Prediction){
				func(p *model.Prediction) { p.CreditUtilization += 0.1 },
				func(p *model.Prediction) { p.DebtToIncomeRatio += 0.1 },
				func(p *model.Prediction) { p.LatePayments3M++ },
				func(p *model.Prediction) { p.LatePayments6M++ },
				func(p *model.Prediction) { p.LatePayments12M++ },
			} {
				p := base
				mod(&p)
				So(risk.CreditScore(p), ShouldBeLessThan, s)
				So(risk.Weight(risk.Classify(p)), ShouldBeGreaterThanOrEqualTo, risk.Weight(risk.Classify(base)))
			}
		})
	})
}

func TestLevelHelpers(t *testing.T) {
	Convey("Given the risk tiers", t, func() {
		Convey("Then weights order high above medium above low", func() {
			So(risk.Weight(risk.High), ShouldEqual, 3)
			So(risk.Weight(risk.Medium), ShouldEqual, 2)
			So(risk.Weight(risk.Low), ShouldEqual, 1)
			So(risk.Weight(risk.Level("other")), ShouldEqual, 0)
		})

		Convey("Then parse accepts any case and rejects unknown input", func() {
			l, err := risk.ParseLevel(" HIGH ")
			So(err, ShouldBeNil)
			So(l, ShouldEqual, risk.High)

			_, err = risk.ParseLevel("severe")
			So(err, ShouldNotBeNil)
		})

		Convey("Then labels round trip", func() {
			for _, l := range risk.Levels {
				back, ok := risk.FromLabel(l.Label())
				So(ok, ShouldBeTrue)
				So(back, ShouldEqual, l)
				So(l.Description(), ShouldNotBeEmpty)
			}
			So(risk.High.Label(), ShouldEqual, "고위험")
			_, ok := risk.FromLabel("없음")
			So(ok, ShouldBeFalse)
		})
	})
}

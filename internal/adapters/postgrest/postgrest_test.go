package postgrest_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/okian/retention/internal/adapters/postgrest"
	. "github.com/smartystreets/goconvey/convey"
)

func TestQuery(t *testing.T) {
	Convey("Given a query builder", t, func() {
		q := postgrest.NewQuery().
			Eq("customer_id", "CUST001").
			Select("*,loans(*)").
			Order("performed_at", true).
			Limit(50).
			Offset(100)

		vals, err := url.ParseQuery(q.Encode())

		Convey("Then every operator is rendered", func() {
			So(err, ShouldBeNil)
			So(vals.Get("customer_id"), ShouldEqual, "eq.CUST001")
			So(vals.Get("select"), ShouldEqual, "*,loans(*)")
			So(vals.Get("order"), ShouldEqual, "performed_at.desc")
			So(vals.Get("limit"), ShouldEqual, "50")
			So(vals.Get("offset"), ShouldEqual, "100")
		})

		Convey("Then builders do not share state", func() {
			base := postgrest.NewQuery().Limit(1)
			_ = base.Offset(5)
			vals, _ := url.ParseQuery(base.Encode())
			So(vals.Get("offset"), ShouldBeEmpty)
		})

		Convey("Then search terms cannot break the or grammar", func() {
			So(postgrest.ILike("name", " kim,(x)* "), ShouldEqual, "name.ilike.*kimx*")
		})

		Convey("Then the zero query encodes to nothing", func() {
			So(postgrest.Query{}.Encode(), ShouldBeEmpty)
		})
	})
}

func TestClient(t *testing.T) {
	Convey("Given a PostgREST server", t, func() {
		var got *http.Request
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = r
			switch r.URL.Path {
			case "/postgrest/customers":
				if r.URL.Query().Get("customer_id") == "eq.NONE" {
					_, _ = w.Write([]byte(`[]`))
					return
				}
				w.Header().Set("Content-Range", "0-0/37")
				_, _ = w.Write([]byte(`[{"id": 7, "customer_id": "CUST007", "name": "이영희", "phone": "010-1234",
					"loans": [{"id": 1, "customer_id": 7, "loan_amount": 5000000, "loan_type": "담보대출"}]}]`))
			case "/postgrest/refinance_applications":
				_, _ = w.Write([]byte(`[{"id": 3, "application_number": "REF-3", "customer_id": 7, "original_loan_id": 1,
					"requested_amount": 3000000, "application_status": "pending", "application_date": "2024-01-02"}]`))
			case "/postgrest/documents":
				_, _ = w.Write([]byte(`[{"id": 9, "application_id": 3, "document_type": "소득증명", "file_name": "a.pdf",
					"file_path": "/d/a.pdf", "upload_date": "2024-01-03"}]`))
			case "/postgrest/application_logs":
				_, _ = w.Write([]byte(`[{"id": 1, "application_id": 3, "action": "created"}, {"id": 2, "action": "x"}]`))
			default:
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"code": "PGRST100", "message": "", "hint": "check the filter"}`))
			}
		}))
		defer srv.Close()

		c, err := postgrest.New(srv.URL + "/postgrest")
		So(err, ShouldBeNil)
		ctx := context.Background()

		Convey("When fetching a customer with loans", func() {
			cw, err := c.CustomerWithLoans(ctx, "CUST007")

			Convey("Then the relation is embedded", func() {
				So(err, ShouldBeNil)
				So(got.URL.Query().Get("select"), ShouldEqual, "*,loans(*)")
				So(got.URL.Query().Get("limit"), ShouldEqual, "1")
				So(got.Header.Get("Prefer"), ShouldEqual, "count=exact")
				So(cw.Name, ShouldEqual, "이영희")
				So(len(cw.Loans), ShouldEqual, 1)
				So(cw.Loans[0].LoanType, ShouldEqual, "담보대출")
			})
		})

		Convey("When listing customers", func() {
			p, err := c.SearchCustomers(ctx, "kim")

			Convey("Then the total comes from Content-Range", func() {
				So(err, ShouldBeNil)
				So(p.Total, ShouldEqual, 37)
				So(got.URL.Query().Get("or"), ShouldEqual, "(name.ilike.*kim*,customer_id.ilike.*kim*,phone.ilike.*kim*)")
			})
		})

		Convey("When no row matches", func() {
			_, err := c.CustomerWithLoans(ctx, "NONE")

			Convey("Then ErrNotFound is returned", func() {
				So(errors.Is(err, postgrest.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When fetching an application by id", func() {
			a, err := c.Application(ctx, 3)

			Convey("Then one row is requested by id", func() {
				So(err, ShouldBeNil)
				So(got.URL.Query().Get("id"), ShouldEqual, "eq.3")
				So(got.URL.Query().Get("limit"), ShouldEqual, "1")
				So(a.ApplicationNumber, ShouldEqual, "REF-3")
			})
		})

		Convey("When listing documents for an application", func() {
			p, err := c.DocumentsByApplication(ctx, 3)

			Convey("Then they are filtered by application and newest first", func() {
				So(err, ShouldBeNil)
				So(got.URL.Path, ShouldEqual, "/postgrest/documents")
				So(got.URL.Query().Get("application_id"), ShouldEqual, "eq.3")
				So(got.URL.Query().Get("order"), ShouldEqual, "upload_date.desc")
				So(len(p.Records), ShouldEqual, 1)
				So(p.Records[0].FileName, ShouldEqual, "a.pdf")
			})
		})

		Convey("When listing logs for an application", func() {
			p, err := c.LogsByApplication(ctx, 3)

			Convey("Then they are ordered newest first and bad rows rejected", func() {
				So(err, ShouldBeNil)
				So(got.URL.Query().Get("order"), ShouldEqual, "performed_at.desc")
				So(got.URL.Query().Get("application_id"), ShouldEqual, "eq.3")
				So(len(p.Records), ShouldEqual, 1)
				So(len(p.Rejected), ShouldEqual, 1)
				So(p.Total, ShouldEqual, -1)
			})
		})

		Convey("When PostgREST rejects the request", func() {
			_, err := c.ActiveProducts(ctx)

			Convey("Then the hint is surfaced", func() {
				So(errors.Is(err, postgrest.ErrStatus), ShouldBeTrue)
				var apiErr *postgrest.APIError
				So(errors.As(err, &apiErr), ShouldBeTrue)
				So(apiErr.Summary(), ShouldEqual, "check the filter")
				So(apiErr.StatusCode, ShouldEqual, http.StatusBadRequest)
				So(got.URL.Query().Get("is_active"), ShouldEqual, "eq.true")
			})
		})
	})

	Convey("Given an APIError without detail", t, func() {
		e := &postgrest.APIError{Table: "loans", StatusCode: 500}

		Convey("Then the default message is used", func() {
			So(e.Summary(), ShouldEqual, "PostgREST API 오류가 발생했습니다.")
		})
	})
}

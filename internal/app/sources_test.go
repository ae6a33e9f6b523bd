package service_test

import (
	"context"
	"strings"
	"testing"

	"github.com/okian/retention/internal/adapters/backend"
	"github.com/okian/retention/internal/adapters/postgrest"
	"github.com/okian/retention/internal/adapters/schema"
	service "github.com/okian/retention/internal/app"
	"github.com/okian/retention/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeREST struct {
	customers []model.Customer
	lastReq   backend.ListRequest
}

func (f *fakeREST) Dashboard(context.Context) (model.DashboardSummary, error) {
	return model.DashboardSummary{CustomerCount: len(f.customers)}, nil
}

func (f *fakeREST) Customers(_ context.Context, req backend.ListRequest) (schema.Decoded[model.Customer], error) {
	f.lastReq = req
	return schema.Decoded[model.Customer]{
		Records:  f.customers,
		Rejected: []schema.Rejection{{Index: 9}},
	}, nil
}

func (f *fakeREST) Loans(_ context.Context, req backend.ListRequest) (schema.Decoded[model.Loan], error) {
	f.lastReq = req
	return schema.Decoded[model.Loan]{}, nil
}

func (f *fakeREST) RefinanceApplications(context.Context, backend.ListRequest) (schema.Decoded[model.RefinanceApplication], error) {
	return schema.Decoded[model.RefinanceApplication]{}, nil
}

func (f *fakeREST) Products(context.Context) (schema.Decoded[model.RefinanceProduct], error) {
	return schema.Decoded[model.RefinanceProduct]{
		Records: []model.RefinanceProduct{{ID: 1, ProductName: "저금리 전환", IsActive: true}},
	}, nil
}

type fakePostgREST struct {
	queries        []string
	activeProducts int
}

func (f *fakePostgREST) record(q postgrest.Query) { f.queries = append(f.queries, q.Encode()) }

func (f *fakePostgREST) Customers(_ context.Context, q postgrest.Query) (postgrest.Page[model.Customer], error) {
	f.record(q)
	return postgrest.Page[model.Customer]{Decoded: schema.Decoded[model.Customer]{Records: []model.Customer{{ID: 1}}}, Total: 42}, nil
}

func (f *fakePostgREST) SearchCustomers(_ context.Context, term string) (postgrest.Page[model.Customer], error) {
	cs := []model.Customer{{Name: term + "1"}, {Name: term + "2"}, {Name: term + "3"}}
	return postgrest.Page[model.Customer]{Decoded: schema.Decoded[model.Customer]{Records: cs}, Total: 3}, nil
}

func (f *fakePostgREST) Loans(_ context.Context, q postgrest.Query) (postgrest.Page[model.Loan], error) {
	f.record(q)
	return postgrest.Page[model.Loan]{Decoded: schema.Decoded[model.Loan]{Records: []model.Loan{{ID: 1}}}, Total: 7}, nil
}

func (f *fakePostgREST) RefinanceApplications(_ context.Context, q postgrest.Query) (postgrest.Page[model.RefinanceApplication], error) {
	f.record(q)
	return postgrest.Page[model.RefinanceApplication]{Total: 3}, nil
}

func (f *fakePostgREST) ActiveProducts(context.Context) (postgrest.Page[model.RefinanceProduct], error) {
	f.activeProducts++
	// No Content-Range: the count falls back to the rows returned.
	return postgrest.Page[model.RefinanceProduct]{
		Decoded: schema.Decoded[model.RefinanceProduct]{Records: []model.RefinanceProduct{{ID: 1, IsActive: true}}},
		Total:   -1,
	}, nil
}

func TestRESTSource(t *testing.T) {
	Convey("Given a REST source", t, func() {
		c := &fakeREST{customers: []model.Customer{
			{CustomerID: "CUST001", Name: "Kim", Phone: "010-1111"},
			{CustomerID: "CUST002", Name: "Lee", Phone: "010-2222"},
		}}
		src := service.NewRESTSource(c)
		ctx := context.Background()

		Convey("When listing loans", func() {
			l, err := src.Loans(ctx, 50, 25)

			Convey("Then skip and limit are passed through and no total is known", func() {
				So(err, ShouldBeNil)
				So(c.lastReq, ShouldResemble, backend.ListRequest{Skip: 50, Limit: 25})
				So(l.Total, ShouldEqual, -1)
			})
		})

		Convey("When listing products", func() {
			l, err := src.Products(ctx)

			Convey("Then the backend list is passed through", func() {
				So(err, ShouldBeNil)
				So(len(l.Records), ShouldEqual, 1)
				So(l.Records[0].ProductName, ShouldEqual, "저금리 전환")
			})
		})

		Convey("When searching customers", func() {
			l, err := src.SearchCustomers(ctx, "kim", 100)

			Convey("Then matching happens locally and ignores case", func() {
				So(err, ShouldBeNil)
				So(len(l.Records), ShouldEqual, 1)
				So(l.Records[0].CustomerID, ShouldEqual, "CUST001")
				So(l.Rejected, ShouldEqual, 1)
			})

			Convey("And phone numbers match too", func() {
				l, _ := src.SearchCustomers(ctx, "2222", 100)
				So(len(l.Records), ShouldEqual, 1)
				So(l.Records[0].Name, ShouldEqual, "Lee")
			})
		})
	})
}

func TestPostgRESTSource(t *testing.T) {
	Convey("Given a PostgREST source", t, func() {
		c := &fakePostgREST{}
		src := service.NewPostgRESTSource(c)
		ctx := context.Background()

		Convey("When building the summary", func() {
			sum, err := src.Summary(ctx)

			Convey("Then counts come from totals and assets follow the loan count", func() {
				So(err, ShouldBeNil)
				So(sum.CustomerCount, ShouldEqual, 42)
				So(sum.LoanCount, ShouldEqual, 7)
				So(sum.RefinanceCount, ShouldEqual, 3)
				So(sum.ProductCount, ShouldEqual, 1)
				So(sum.TotalAssets, ShouldEqual, 7*50_000_000)
			})

			Convey("And only active products are counted", func() {
				So(c.activeProducts, ShouldEqual, 1)
				for _, q := range c.queries {
					So(q, ShouldContainSubstring, "limit=1")
				}
			})
		})

		Convey("When listing a loans page", func() {
			l, err := src.Loans(ctx, 100, 50)

			Convey("Then offset and limit are encoded", func() {
				So(err, ShouldBeNil)
				So(l.Total, ShouldEqual, 7)
				q := c.queries[0]
				So(strings.Contains(q, "offset=100"), ShouldBeTrue)
				So(strings.Contains(q, "limit=50"), ShouldBeTrue)
			})
		})

		Convey("When listing products", func() {
			l, err := src.Products(ctx)

			Convey("Then the active products are returned", func() {
				So(err, ShouldBeNil)
				So(c.activeProducts, ShouldEqual, 1)
				So(len(l.Records), ShouldEqual, 1)
				So(l.Total, ShouldEqual, -1)
			})
		})

		Convey("When searching with a limit", func() {
			l, err := src.SearchCustomers(ctx, "kim", 2)

			Convey("Then results are capped", func() {
				So(err, ShouldBeNil)
				So(len(l.Records), ShouldEqual, 2)
			})
		})
	})
}

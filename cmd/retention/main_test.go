package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/retention/internal/adapters/export"
	"github.com/okian/retention/internal/config"
	"github.com/okian/retention/internal/domain/filter"
	"github.com/okian/retention/internal/domain/model"
	"github.com/okian/retention/pkg/logger"
)

const feed = `[
  {"id": 1, "customer_id": "CUST001", "age": 30, "income_level": "중", "credit_grade": "A", "loan_amount": 1000,
   "late_payments_3m": 0, "late_payments_6m": 0, "late_payments_12m": 0,
   "credit_utilization": 0.1, "debt_to_income_ratio": 0.1, "everdelinquent": 0},
  {"id": 2, "customer_id": "CUST002", "age": 60, "income_level": "하", "credit_grade": "C", "loan_amount": 5000,
   "late_payments_3m": 2, "late_payments_6m": 1, "late_payments_12m": 0,
   "credit_utilization": 0.9, "debt_to_income_ratio": 0.8, "everdelinquent": 1}
]`

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func isolateEnv(t *testing.T) {
	t.Setenv("RETENTION_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("RETENTION_CONFIG", "")
}

func TestVersionCommand(t *testing.T) {
	convey.Convey("Given the root command", t, func() {
		root := newRootCmd()

		convey.Convey("Then serve, export and version are registered", func() {
			names := []string{}
			for _, c := range root.Commands() {
				names = append(names, c.Name())
			}
			convey.So(names, convey.ShouldContain, "serve")
			convey.So(names, convey.ShouldContain, "export")
			convey.So(names, convey.ShouldContain, "version")
		})

		convey.Convey("When running version", func() {
			var out bytes.Buffer
			root.SetOut(&out)
			root.SetArgs([]string{"version"})
			err := root.Execute()

			convey.Convey("Then it prints the build version", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out.String(), convey.ShouldEqual, "retention dev\n")
			})
		})
	})
}

func TestExportCommand(t *testing.T) {
	convey.Convey("Given a backend serving predictions", t, func() {
		isolateEnv(t)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/ml_dashboard" {
				http.NotFound(w, r)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(feed))
		}))
		defer srv.Close()
		t.Setenv("RETENTION_API_BASE_URL", srv.URL)

		convey.Convey("When exporting high risk rows to a file", func() {
			path := filepath.Join(t.TempDir(), "out.csv")
			var out bytes.Buffer
			root := newRootCmd()
			root.SetOut(&out)
			root.SetArgs([]string{"export", "--risk", "high", "--out", path})
			err := root.ExecuteContext(context.Background())

			convey.Convey("Then only matching rows are written", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out.String(), convey.ShouldContainSubstring, "wrote 1 rows")

				f, err := os.Open(path)
				convey.So(err, convey.ShouldBeNil)
				defer func() { _ = f.Close() }()
				rows, err := export.Parse(f)
				convey.So(err, convey.ShouldBeNil)
				convey.So(len(rows), convey.ShouldEqual, 1)
				convey.So(rows[0].CustomerID, convey.ShouldEqual, "CUST002")
			})
		})

		convey.Convey("When exporting to stdout", func() {
			var out bytes.Buffer
			root := newRootCmd()
			root.SetOut(&out)
			root.SetArgs([]string{"export", "--out", "-", "--sort", "amount"})
			err := root.ExecuteContext(context.Background())

			convey.Convey("Then the CSV is printed in the requested order", func() {
				convey.So(err, convey.ShouldBeNil)
				rows, err := export.Parse(&out)
				convey.So(err, convey.ShouldBeNil)
				convey.So(len(rows), convey.ShouldEqual, 2)
				convey.So(rows[0].CustomerID, convey.ShouldEqual, "CUST002")
			})
		})

		convey.Convey("When the risk flag is upper case", func() {
			var out bytes.Buffer
			root := newRootCmd()
			root.SetOut(&out)
			root.SetArgs([]string{"export", "--risk", "HIGH", "--out", "-"})
			err := root.ExecuteContext(context.Background())

			convey.Convey("Then it filters like its lower case form", func() {
				convey.So(err, convey.ShouldBeNil)
				rows, err := export.Parse(&out)
				convey.So(err, convey.ShouldBeNil)
				convey.So(len(rows), convey.ShouldEqual, 1)
				convey.So(rows[0].CustomerID, convey.ShouldEqual, "CUST002")
			})
		})

		convey.Convey("When the risk flag is invalid", func() {
			root := newRootCmd()
			root.SetArgs([]string{"export", "--risk", "extreme", "--out", "-"})
			err := root.ExecuteContext(context.Background())

			convey.Convey("Then the command fails before fetching", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})

	convey.Convey("Given a backend that is down", t, func() {
		isolateEnv(t)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()
		t.Setenv("RETENTION_API_BASE_URL", srv.URL)

		convey.Convey("Then export reports the failure", func() {
			root := newRootCmd()
			root.SetArgs([]string{"export", "--out", "-"})
			convey.So(root.ExecuteContext(context.Background()), convey.ShouldNotBeNil)
		})
	})
}

func TestNewService(t *testing.T) {
	convey.Convey("Given the rest data source without a PostgREST url", t, func() {
		cfg := config.New()
		cfg.PostgRESTURL = ""

		convey.Convey("Then listings use REST and detail pages are off", func() {
			svc, err := newService(cfg, logger.NewNop())
			convey.So(err, convey.ShouldBeNil)
			convey.So(svc.GetStats()["source"], convey.ShouldEqual, "rest")
			convey.So(svc.GetStats()["details"], convey.ShouldBeFalse)
		})
	})

	convey.Convey("Given a config selecting PostgREST", t, func() {
		cfg := config.New()
		cfg.DataSource = config.SourcePostgREST

		convey.Convey("Then the service reads listings from PostgREST", func() {
			svc, err := newService(cfg, logger.NewNop())
			convey.So(err, convey.ShouldBeNil)
			convey.So(svc.GetStats()["source"], convey.ShouldEqual, "postgrest")
		})

		convey.Convey("And detail pages are enabled", func() {
			svc, err := newService(cfg, logger.NewNop())
			convey.So(err, convey.ShouldBeNil)
			convey.So(svc.GetStats()["details"], convey.ShouldBeTrue)
		})

		convey.Convey("And an invalid PostgREST URL is rejected", func() {
			cfg.PostgRESTURL = "not a url"
			_, err := newService(cfg, logger.NewNop())
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestExportFlags(t *testing.T) {
	convey.Convey("Given export flags", t, func() {
		convey.Convey("When risk and age are mixed case", func() {
			q, err := exportFlags{risk: "HIGH", age: " Senior ", credit: "all", sort: "amount"}.query()

			convey.Convey("Then they are normalized and still match", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(q.Criteria.Risk, convey.ShouldEqual, "high")
				convey.So(q.Criteria.Age, convey.ShouldEqual, "senior")
				p := model.Prediction{CustomerID: "CUST002", Age: 60, EverDelinquent: 1}
				convey.So(filter.Match(p, q.Criteria), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the age group is unknown", func() {
			_, err := exportFlags{risk: "all", age: "elderly"}.query()

			convey.Convey("Then the flags are rejected", func() {
				convey.So(errors.Is(err, filter.ErrInvalidCriteria), convey.ShouldBeTrue)
			})
		})
	})
}

type failingCloser struct{ err error }

func (c failingCloser) Close() error { return c.err }

func TestCloseWritten(t *testing.T) {
	convey.Convey("Given a file whose close fails", t, func() {
		closeErr := errors.New("disk full")
		c := failingCloser{err: closeErr}

		convey.Convey("Then a successful write reports the close error", func() {
			convey.So(errors.Is(closeWritten(c, nil), closeErr), convey.ShouldBeTrue)
		})

		convey.Convey("Then a failed write keeps its own error", func() {
			writeErr := errors.New("short write")
			convey.So(closeWritten(c, writeErr), convey.ShouldEqual, writeErr)
		})
	})

	convey.Convey("Given a file that closes cleanly", t, func() {
		convey.So(closeWritten(failingCloser{}, nil), convey.ShouldBeNil)
	})
}

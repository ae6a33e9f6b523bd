package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/retention/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.APIBaseURL, convey.ShouldEqual, "http://localhost:8000")
			convey.So(cfg.PostgRESTURL, convey.ShouldEqual, "http://localhost:8090/postgrest")
			convey.So(cfg.DataSource, convey.ShouldEqual, config.SourceREST)
			convey.So(cfg.PageSize, convey.ShouldEqual, 20)
			convey.So(cfg.FetchLimit, convey.ShouldEqual, 100)
			convey.So(cfg.LoanPageSize, convey.ShouldEqual, 50)
			convey.So(cfg.RequestTimeout(), convey.ShouldEqual, 10*time.Second)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs with a single bad field", t, func() {
		cases := map[string]func(*config.Config){
			"empty api url":      func(c *config.Config) { c.APIBaseURL = "" },
			"relative api url":   func(c *config.Config) { c.APIBaseURL = "localhost" },
			"zero page size":     func(c *config.Config) { c.PageSize = 0 },
			"zero loan page":     func(c *config.Config) { c.LoanPageSize = 0 },
			"zero fetch limit":   func(c *config.Config) { c.FetchLimit = 0 },
			"zero timeout":       func(c *config.Config) { c.RequestTimeoutMS = 0 },
			"unknown datasource": func(c *config.Config) { c.DataSource = "graphql" },
			"postgrest without url": func(c *config.Config) {
				c.DataSource = config.SourcePostgREST
				c.PostgRESTURL = ""
			},
		}

		for name, mutate := range cases {
			cfg := config.New()
			mutate(cfg)

			convey.Convey("Then "+name+" is rejected as invalid config", func() {
				err := cfg.Validate()
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}
	})

	convey.Convey("Given the rest data source without a PostgREST url", t, func() {
		cfg := config.New()
		cfg.DataSource = config.SourceREST
		cfg.PostgRESTURL = ""

		convey.Convey("Then the config is valid", func() {
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers .env, an optional YAML file and RETENTION_ env vars on top.
// - External errors must be wrapped via this package's error kinds.
package config

import (
	"time"
)

// Data sources for the loan book and overview.
const (
	SourceREST      = "rest"
	SourcePostgREST = "postgrest"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// APIBaseURL is the backend REST API root.
	APIBaseURL string `koanf:"api_base_url"`

	// PostgRESTURL is the PostgREST root used for the loan book.
	PostgRESTURL string `koanf:"postgrest_url"`

	// DataSource picks where customer and loan lists come from: rest or postgrest.
	DataSource string `koanf:"data_source"`

	// RequestTimeoutMS bounds every upstream call.
	RequestTimeoutMS int `koanf:"request_timeout_ms"`

	// ShutdownTimeoutMS bounds graceful HTTP shutdown.
	ShutdownTimeoutMS int `koanf:"shutdown_timeout_ms"`

	// PageSize is the number of rows per dashboard page.
	PageSize int `koanf:"page_size"`

	// FetchLimit is the limit sent with list requests (?limit=).
	FetchLimit int `koanf:"fetch_limit"`

	// LoanPageSize is the page size of the loan book.
	LoanPageSize int `koanf:"loan_page_size"`

	// ExportPrefix names CSV downloads: <prefix>_YYYY-MM-DD.csv.
	ExportPrefix string `koanf:"export_prefix"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		Addr:              ":9080",
		APIBaseURL:        "http://localhost:8000",
		PostgRESTURL:      "http://localhost:8090/postgrest",
		DataSource:        SourceREST,
		RequestTimeoutMS:  10_000,
		ShutdownTimeoutMS: 10_000,
		PageSize:          20,
		FetchLimit:        100,
		LoanPageSize:      50,
		ExportPrefix:      "ml_dashboard",
	}
}

// RequestTimeout returns RequestTimeoutMS as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}

// ShutdownTimeout returns ShutdownTimeoutMS as a duration.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutMS) * time.Millisecond
}

package main

import (
	"context"

	"github.com/okian/retention/internal/adapters/backend"
	"github.com/okian/retention/internal/adapters/postgrest"
	service "github.com/okian/retention/internal/app"
	"github.com/okian/retention/internal/config"
	"github.com/okian/retention/pkg/errs"
	"github.com/okian/retention/pkg/logger"
)

const (
	envConfigFile = "RETENTION_CONFIG"
	envLogLevel   = "RETENTION_LOG_LEVEL"
)

// loadConfig loads configuration and applies the log level.
func loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}
	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return cfg, nil
}

// newService builds the upstream clients selected by cfg and the service
// on top of them.
func newService(cfg *config.Config, log logger.Logger) (*service.Service, error) {
	rest, err := backend.New(cfg.APIBaseURL,
		backend.WithTimeout(cfg.RequestTimeout()),
		backend.WithLogger(log.Named("backend")),
		backend.WithSource(config.SourceREST),
	)
	if err != nil {
		return nil, errs.Wrap("main.newService", err)
	}

	opts := []service.Option{
		service.WithLogger(log.Named("service")),
		service.WithPageSize(cfg.PageSize),
		service.WithFetchLimit(cfg.FetchLimit),
		service.WithLoanPageSize(cfg.LoanPageSize),
	}

	// Detail pages always read PostgREST; listings follow data_source.
	var src service.Source = service.NewRESTSource(rest)
	if cfg.PostgRESTURL != "" {
		pg, err := postgrest.New(cfg.PostgRESTURL,
			postgrest.WithTimeout(cfg.RequestTimeout()),
			postgrest.WithLogger(log.Named("postgrest")),
		)
		if err != nil {
			return nil, errs.Wrap("main.newService", err)
		}
		opts = append(opts, service.WithDetails(pg))
		if cfg.DataSource == config.SourcePostgREST {
			src = service.NewPostgRESTSource(pg)
		}
	}

	return service.New(rest, src, opts...), nil
}

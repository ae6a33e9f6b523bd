package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/retention/pkg/errs"
)

// Environment keys read directly by the loader.
const (
	envPrefix  = "RETENTION_"
	envConfig  = "RETENTION_CONFIG"
	envDotFile = "RETENTION_ENV_FILE"
	defaultEnv = ".env"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if RETENTION_CONFIG is set
//  3. env (prefix RETENTION_), including values from a .env file that do not
//     override variables already set in the process
func Load(_ context.Context) (*Config, error) {
	const op = "config.Load"

	base := New()

	if err := loadDotEnv(); err != nil {
		return nil, errs.WrapKind(op, ErrLoadConfig, err)
	}

	k := koanf.New(".")

	if path := os.Getenv(envConfig); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errs.WrapKind(op, ErrLoadConfig, err)
		}
	}

	// RETENTION_API_BASE_URL -> api_base_url (flat keys, underscores kept)
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, errs.WrapKind(op, ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, errs.WrapKind(op, ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, errs.Wrap(op, err)
	}
	return &cfg, nil
}

func loadDotEnv() error {
	path := os.Getenv(envDotFile)
	if path == "" {
		path = defaultEnv
	}
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Validate checks the fields the service cannot start without.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.APIBaseURL == "":
		return fmt.Errorf("%w: api_base_url must not be empty", ErrInvalidConfig)
	case c.PageSize <= 0:
		return fmt.Errorf("%w: page_size must be positive", ErrInvalidConfig)
	case c.LoanPageSize <= 0:
		return fmt.Errorf("%w: loan_page_size must be positive", ErrInvalidConfig)
	case c.FetchLimit <= 0:
		return fmt.Errorf("%w: fetch_limit must be positive", ErrInvalidConfig)
	case c.RequestTimeoutMS <= 0:
		return fmt.Errorf("%w: request_timeout_ms must be positive", ErrInvalidConfig)
	case c.DataSource != SourceREST && c.DataSource != SourcePostgREST:
		return fmt.Errorf("%w: data_source must be %q or %q", ErrInvalidConfig, SourceREST, SourcePostgREST)
	case c.DataSource == SourcePostgREST && c.PostgRESTURL == "":
		return fmt.Errorf("%w: postgrest_url is required when data_source is %q", ErrInvalidConfig, SourcePostgREST)
	}
	for name, raw := range map[string]string{"api_base_url": c.APIBaseURL, "postgrest_url": c.PostgRESTURL} {
		if raw == "" {
			continue
		}
		if u, err := url.Parse(raw); err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%w: %s %q is not an absolute URL", ErrInvalidConfig, name, raw)
		}
	}
	return nil
}

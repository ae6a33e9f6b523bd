package config

import "errors"

var (
	// ErrInvalidConfig marks a loaded config the service cannot run with.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrLoadConfig marks a failure reading the .env file, the YAML file or
	// the environment.
	ErrLoadConfig = errors.New("load config failed")
)

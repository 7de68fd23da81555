package config

import "errors"

// Errors returned by Load and Validate.
var (
	// ErrLoadConfig wraps failures reading the .env file, the YAML file or
	// the environment.
	ErrLoadConfig = errors.New("load config failed")
	// ErrInvalidConfig marks values the service cannot start with.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrPartialCredentials is returned when only one of backend_email and
	// backend_password is set.
	ErrPartialCredentials = errors.New("backend credentials need both email and password")
)

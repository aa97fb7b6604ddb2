package config

import "errors"

// Errors returned while loading a gridbalancer configuration.
var (
	ErrConfigNotFound    = errors.New("configuration file not found")
	ErrInvalidFormat     = errors.New("malformed configuration")
	ErrUnsupportedFormat = errors.New("unsupported configuration format")
	ErrValidationFailed  = errors.New("configuration validation failed")

	// ErrMissingEnvVar is returned in strict mode for a ${VAR} that is unset.
	ErrMissingEnvVar = errors.New("required environment variable not set")
)

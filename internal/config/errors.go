package config

import "errors"

// Validation errors returned by Config.Validate.
var (
	// ErrNoSeed is returned when no seed URL was given.
	ErrNoSeed = errors.New("no seed URL specified")

	// ErrInvalidWorkers is returned when the worker count is below one.
	ErrInvalidWorkers = errors.New("invalid worker count: must be at least 1")

	// ErrInvalidTimeout is returned when the request timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidDelay is returned when the politeness delay is negative.
	// Use 0 to disable the delay.
	ErrInvalidDelay = errors.New("invalid delay: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the body limit is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrConflictingReportFormats is returned when both --json and --markdown are set.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrConflictingProxies is returned when both --socks and --tor are set.
	ErrConflictingProxies = errors.New("conflicting proxies: --socks and --tor cannot be used together")
)

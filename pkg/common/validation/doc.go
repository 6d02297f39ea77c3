// Package validation provides common validation utilities for configuration
// parameters across the threadpool library.
//
// The helpers return *errors.ValidationError values so constructors such as
// workerpool.New and config.Config.Validate report rejected settings the same
// way, and callers can test for them with errors.IsValidationError or
// errors.Is(err, errors.ErrInvalidConfiguration).
package validation

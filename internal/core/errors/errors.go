// Package errors provides centralized error definitions for the application.
// Errors are organized by domain to avoid duplication and provide consistent naming.
//
// Naming conventions:
//   - Exported errors (Err*): Use for errors that callers need to check with errors.Is
//   - All sentinel errors should be defined as variables, not inline errors.New calls
//   - Use fmt.Errorf with %w to wrap sentinel errors with context
package errors

import "errors"

// Data loading and integrity errors.
var (
	// ErrMissingResource indicates a required dataset, bot-label, or split file is absent.
	ErrMissingResource = errors.New("missing resource")

	// ErrDataIntegrity indicates loaded data violates an integrity invariant,
	// such as a duplicate user id across datasets or an unexpected corpus size.
	ErrDataIntegrity = errors.New("data integrity violation")
)

// Validation errors.
var (
	// ErrInvalidArgument indicates a locally validated argument is out of range or malformed.
	ErrInvalidArgument = errors.New("invalid argument")
)

// Remote job errors.
var (
	// ErrJobFailed indicates a fine-tuning job reached a terminal non-success status
	// or succeeded without producing a model identifier.
	ErrJobFailed = errors.New("fine-tuning job failed")

	// ErrPollTimeout indicates polling a remote job exceeded the configured maximum wait.
	ErrPollTimeout = errors.New("timed out waiting for job")
)

// Run file errors.
var (
	// ErrEmptyRunFile indicates a run file contains no content.
	ErrEmptyRunFile = errors.New("run file is empty")

	// ErrNoDatasetsDeclared indicates the run file's first line did not declare any dataset ids.
	ErrNoDatasetsDeclared = errors.New("no datasets declared in run file")

	// ErrNoGroundTruth indicates no ground-truth users could be loaded for a run check.
	ErrNoGroundTruth = errors.New("no ground-truth users loaded")
)

// Is is a convenience wrapper around errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is a convenience wrapper around errors.As.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

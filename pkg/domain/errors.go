package domain

import (
	"errors"
	"fmt"
)

// NotFoundError reports that an identifier is absent from its registry. It is
// the only failure mode for by-ID lookups; absent IDs never panic or no-op.
type NotFoundError struct {
	Entity EntityType
	ID     string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// InvalidArgumentError reports malformed or missing caller input, detected
// before any state mutation.
type InvalidArgumentError struct {
	Field  string
	Reason string
}

func (e InvalidArgumentError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid argument: %s", e.Reason)
	}
	return fmt.Sprintf("invalid argument %s: %s", e.Field, e.Reason)
}

// InternalError wraps an unexpected failure from an injected backend. The
// cause is surfaced as-is, never swallowed.
type InternalError struct {
	Op  string
	Err error
}

func (e InternalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e InternalError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf NotFoundError
	return errors.As(err, &nf)
}

// IsInvalidArgument reports whether err is (or wraps) an InvalidArgumentError.
func IsInvalidArgument(err error) bool {
	var ia InvalidArgumentError
	return errors.As(err, &ia)
}

// Internalf wraps err with an operation label for backend failures.
func Internalf(op string, err error) error {
	return InternalError{Op: op, Err: err}
}

package extensions

import (
	"errors"
	"fmt"
)

// SpecializationError is returned when a (generic id, args) pair cannot be
// resolved to a concrete type or libfunc.
//
// Specialization errors abort compilation: the first one is reported and
// no partial registry is produced.
type SpecializationError struct {
	// Code identifies the error category.
	Code SpecializationErrorCode

	// ID is the generic type or libfunc id being specialized.
	ID string

	// Message is a human-readable description.
	Message string
}

// SpecializationErrorCode categorizes specialization errors.
type SpecializationErrorCode string

const (
	// ErrCodeUnsupportedGenericArg indicates wrong arity, wrong argument
	// kind, or an argument value the family rejects (e.g. a zero divisor).
	ErrCodeUnsupportedGenericArg SpecializationErrorCode = "UNSUPPORTED_GENERIC_ARG"

	// ErrCodeUnknownID indicates the generic id is not in the catalog.
	ErrCodeUnknownID SpecializationErrorCode = "UNKNOWN_ID"

	// ErrCodeMissingFunction indicates a user@f argument names a function
	// the program does not define.
	ErrCodeMissingFunction SpecializationErrorCode = "MISSING_FUNCTION"
)

// Error implements the error interface.
func (e *SpecializationError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s: %s (id=%s)", e.Code, e.Message, e.ID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsUnsupportedGenericArg returns true if err is an unsupported generic arg error.
// Uses errors.As to handle wrapped errors.
func IsUnsupportedGenericArg(err error) bool {
	return hasCode(err, ErrCodeUnsupportedGenericArg)
}

// IsUnknownID returns true if err is an unknown id error.
func IsUnknownID(err error) bool {
	return hasCode(err, ErrCodeUnknownID)
}

// IsMissingFunction returns true if err reports an unresolved user function.
func IsMissingFunction(err error) bool {
	return hasCode(err, ErrCodeMissingFunction)
}

func hasCode(err error, code SpecializationErrorCode) bool {
	var se *SpecializationError
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}

func unsupported(format string, args ...any) *SpecializationError {
	return &SpecializationError{
		Code:    ErrCodeUnsupportedGenericArg,
		Message: fmt.Sprintf(format, args...),
	}
}

func unknownID(id string) *SpecializationError {
	return &SpecializationError{
		Code:    ErrCodeUnknownID,
		ID:      id,
		Message: "no such generic id in catalog",
	}
}

func missingFunction(fn string) *SpecializationError {
	return &SpecializationError{
		Code:    ErrCodeMissingFunction,
		Message: fmt.Sprintf("function %q is not defined in the program", fn),
	}
}

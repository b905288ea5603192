package simulation

import (
	"errors"
	"fmt"

	"github.com/roach88/sierra/internal/ir"
)

// SimulationError is returned by Interpreter.Run.
//
// Every error raised while executing a statement carries that statement's
// index; entry errors (unknown function, argument count) carry NoStatement.
type SimulationError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Function is the function executing when the error occurred.
	Function ir.FunctionID

	// Statement is the offending statement, or NoStatement.
	Statement ir.StatementIdx

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// NoStatement marks errors not attributable to a statement.
const NoStatement ir.StatementIdx = -1

// ErrorCode categorizes simulation errors.
type ErrorCode string

const (
	ErrCodeArgumentCountMismatch        ErrorCode = "ARGUMENT_COUNT_MISMATCH"
	ErrCodeMissingFunction              ErrorCode = "MISSING_FUNCTION"
	ErrCodeStatementOutOfBounds         ErrorCode = "STATEMENT_OUT_OF_BOUNDS"
	ErrCodeEditState                    ErrorCode = "EDIT_STATE"
	ErrCodeMemoryLayoutMismatch         ErrorCode = "MEMORY_LAYOUT_MISMATCH"
	ErrCodeWrongNumberOfArgs            ErrorCode = "WRONG_NUMBER_OF_ARGS"
	ErrCodeFunctionDidNotConsumeAllArgs ErrorCode = "FUNCTION_DID_NOT_CONSUME_ALL_ARGS"
	ErrCodeSpecialization               ErrorCode = "SPECIALIZATION"
	ErrCodeStepsExceeded                ErrorCode = "STEPS_EXCEEDED"
	ErrCodeCallDepthExceeded            ErrorCode = "CALL_DEPTH_EXCEEDED"
)

// Error implements the error interface.
func (e *SimulationError) Error() string {
	msg := e.Message
	if e.Err != nil {
		if msg == "" {
			msg = e.Err.Error()
		} else {
			msg = msg + ": " + e.Err.Error()
		}
	}
	if e.Statement != NoStatement {
		return fmt.Sprintf("%s: %s (function=%s, statement=%s)", e.Code, msg, e.Function, e.Statement)
	}
	if e.Function != "" {
		return fmt.Sprintf("%s: %s (function=%s)", e.Code, msg, e.Function)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

// Unwrap returns the underlying cause.
func (e *SimulationError) Unwrap() error { return e.Err }

// HasCode reports whether err is a SimulationError with the given code.
// Uses errors.As to handle wrapped errors.
func HasCode(err error, code ErrorCode) bool {
	var se *SimulationError
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}

// IsEditStateError returns true for missing or overridden variables.
func IsEditStateError(err error) bool {
	return HasCode(err, ErrCodeEditState)
}

// IsStepsExceeded returns true if the run hit the step quota.
func IsStepsExceeded(err error) bool {
	return HasCode(err, ErrCodeStepsExceeded)
}

// IsCallDepthExceeded returns true if the run nested function calls
// deeper than the configured limit.
func IsCallDepthExceeded(err error) bool {
	return HasCode(err, ErrCodeCallDepthExceeded)
}

// StatementOf returns the statement an error is attributed to.
func StatementOf(err error) (ir.StatementIdx, bool) {
	var se *SimulationError
	if errors.As(err, &se) && se.Statement != NoStatement {
		return se.Statement, true
	}
	return NoStatement, false
}

// libfuncError is raised by a libfunc simulation; the interpreter attaches
// the function and statement.
type libfuncError struct {
	code    ErrorCode
	message string
}

func (e *libfuncError) Error() string { return e.message }

func memoryLayoutMismatch(format string, args ...any) error {
	return &libfuncError{code: ErrCodeMemoryLayoutMismatch, message: fmt.Sprintf(format, args...)}
}

func wrongNumberOfArgs(want, got int) error {
	return &libfuncError{code: ErrCodeWrongNumberOfArgs, message: fmt.Sprintf("expected %d arguments, got %d", want, got)}
}

func callDepthExceeded(limit int) error {
	return &libfuncError{code: ErrCodeCallDepthExceeded, message: fmt.Sprintf("call depth exceeds %d", limit)}
}

package apchange

import (
	"errors"
	"fmt"

	"github.com/roach88/sierra/internal/ir"
)

// AnalysisError is returned by Calculate.
type AnalysisError struct {
	Code      ErrorCode
	Function  ir.FunctionID
	Statement ir.StatementIdx
	Err       error
}

// ErrorCode categorizes analysis errors.
type ErrorCode string

const (
	ErrCodeSpecialization       ErrorCode = "SPECIALIZATION"
	ErrCodeBranchCountMismatch  ErrorCode = "BRANCH_COUNT_MISMATCH"
	ErrCodeStatementOutOfBounds ErrorCode = "STATEMENT_OUT_OF_BOUNDS"
	ErrCodeUnknownLabel         ErrorCode = "UNKNOWN_LABEL"
)

func (e *AnalysisError) Error() string {
	if e.Function != "" {
		return fmt.Sprintf("%s: %v (function=%s, statement=%s)", e.Code, e.Err, e.Function, e.Statement)
	}
	return fmt.Sprintf("%s: %v (statement=%s)", e.Code, e.Err, e.Statement)
}

func (e *AnalysisError) Unwrap() error { return e.Err }

// HasCode reports whether err is an AnalysisError with the given code.
func HasCode(err error, code ErrorCode) bool {
	var ae *AnalysisError
	if errors.As(err, &ae) {
		return ae.Code == code
	}
	return false
}

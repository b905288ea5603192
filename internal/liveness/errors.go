package liveness

import (
	"fmt"

	"github.com/roach88/sierra/internal/ir"
)

// Error reports a statement whose successors cannot be resolved.
type Error struct {
	Code      ErrorCode
	Statement ir.StatementIdx
	Message   string
}

// ErrorCode categorizes liveness errors.
type ErrorCode string

const (
	ErrCodeUnknownLabel         ErrorCode = "UNKNOWN_LABEL"
	ErrCodeStatementOutOfBounds ErrorCode = "STATEMENT_OUT_OF_BOUNDS"
	ErrCodeInvalidStatement     ErrorCode = "INVALID_STATEMENT"
)

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s (statement=%s)", e.Code, e.Message, e.Statement)
}

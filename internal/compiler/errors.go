package compiler

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// CompileError reports a program that cannot be read into the IR, with the
// CUE position of the offending value when one is known.
type CompileError struct {
	Field   string // "functions.fib.entry", "statements[3].target", or the CUE path
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError turns the first error of a CUE error list into a
// CompileError positioned at its source. Further errors are counted in
// the message.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	list := errors.Errors(err)
	if len(list) == 0 {
		return err
	}
	first := list[0]

	field := "cue"
	if path := first.Path(); len(path) > 0 {
		field = strings.Join(path, ".")
	}
	format, args := first.Msg()
	msg := fmt.Sprintf(format, args...)
	if len(list) > 1 {
		msg = fmt.Sprintf("%s (and %d more error(s))", msg, len(list)-1)
	}

	pos := first.Position()
	if positions := errors.Positions(first); len(positions) > 0 {
		pos = positions[0]
	}
	if !pos.IsValid() {
		return fmt.Errorf("%s: %s", field, msg)
	}
	return &CompileError{Field: field, Message: msg, Pos: pos}
}

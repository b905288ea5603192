package compiler

import (
	"fmt"

	"github.com/roach88/sierra/internal/extensions"
	"github.com/roach88/sierra/internal/ir"
)

// Validation error codes (E100-E199)
const (
	ErrProgramStructure = "E100" // structural rule from ir.Program.Validate
	ErrUnknownID        = "E101" // generic type or libfunc id not in the catalog
	ErrUnsupportedArgs  = "E102" // generic args rejected by specialization
	ErrMissingFunction  = "E103" // user@f argument names no function
	ErrArity            = "E104" // inputs, branches or results disagree with the signature
	ErrSpecialization   = "E105" // any other specialization failure
)

// ValidationError represents a program validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a compiled program against the catalog.
// Returns all errors found (does not fail-fast), structural errors first.
//
// Unlike extensions.ProgramRegistry.SpecializeProgram, which stops at the
// first failure, every signature type and every invocation is checked.
func Validate(c *extensions.Catalog, p *ir.Program) []ValidationError {
	var errs []ValidationError
	for _, e := range p.Validate() {
		errs = append(errs, ValidationError{Field: e.Field, Message: e.Message, Code: ErrProgramStructure})
	}

	registry, err := extensions.NewProgramRegistry(c, p)
	if err != nil {
		// Duplicate function ids; already reported above.
		return errs
	}

	for i, f := range p.Funcs {
		for j, prm := range f.Params {
			if _, err := registry.Type(prm.Ty); err != nil {
				errs = append(errs, specializationError(fmt.Sprintf("funcs[%d].params[%d].type", i, j), err))
			}
		}
		for j, ret := range f.RetTypes {
			if _, err := registry.Type(ret); err != nil {
				errs = append(errs, specializationError(fmt.Sprintf("funcs[%d].returns[%d]", i, j), err))
			}
		}
	}

	for i, s := range p.Statements {
		if s.Kind != ir.StmtInvocation || s.Invocation == nil {
			continue
		}
		field := fmt.Sprintf("statements[%d]", i)
		lf, err := registry.Invocation(s.Invocation)
		if err != nil {
			errs = append(errs, specializationError(field, err))
			continue
		}
		if err := extensions.CheckArity(s.Invocation, lf.Signature()); err != nil {
			errs = append(errs, ValidationError{Field: field, Message: err.Error(), Code: ErrArity})
		}
	}

	return errs
}

func specializationError(field string, err error) ValidationError {
	code := ErrSpecialization
	switch {
	case extensions.IsUnknownID(err):
		code = ErrUnknownID
	case extensions.IsUnsupportedGenericArg(err):
		code = ErrUnsupportedArgs
	case extensions.IsMissingFunction(err):
		code = ErrMissingFunction
	}
	return ValidationError{Field: field, Message: err.Error(), Code: code}
}

// SpecializeAll runs Validate and, when it passes, returns a registry with
// every specialization of the program memoized.
func SpecializeAll(c *extensions.Catalog, p *ir.Program) (*extensions.ProgramRegistry, []ValidationError) {
	if errs := Validate(c, p); len(errs) > 0 {
		return nil, errs
	}
	registry, err := extensions.NewProgramRegistry(c, p)
	if err == nil {
		err = registry.SpecializeProgram()
	}
	if err != nil {
		return nil, []ValidationError{specializationError("program", err)}
	}
	return registry, nil
}

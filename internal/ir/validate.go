package ir

import "fmt"

// ValidationError represents a structural problem with field path and message.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the program's structural rules.
// Returns all errors (not fail-fast) so a loader can report them together.
// Type-level checks belong to specialization, not here.
func (p *Program) Validate() []ValidationError {
	var errs []ValidationError
	n := len(p.Statements)

	seenFuncs := make(map[FunctionID]bool)
	for i, f := range p.Funcs {
		field := fmt.Sprintf("funcs[%d]", i)
		if f.ID == "" {
			errs = append(errs, ValidationError{Field: field + ".id", Message: "function id is required"})
		}
		if seenFuncs[f.ID] {
			errs = append(errs, ValidationError{Field: field + ".id", Message: fmt.Sprintf("duplicate function id: %q", f.ID)})
		}
		seenFuncs[f.ID] = true

		if f.Entry < 0 || int(f.Entry) >= n {
			errs = append(errs, ValidationError{Field: field + ".entry", Message: fmt.Sprintf("entry %s out of bounds (%d statements)", f.Entry, n)})
		}

		seenParams := make(map[VarID]bool)
		for j, prm := range f.Params {
			if seenParams[prm.ID] {
				errs = append(errs, ValidationError{Field: fmt.Sprintf("%s.params[%d]", field, j), Message: fmt.Sprintf("duplicate parameter: %q", prm.ID)})
			}
			seenParams[prm.ID] = true
		}
	}

	labels := make(map[LabelID]bool)
	for i, s := range p.Statements {
		if s.Kind != StmtLabel {
			continue
		}
		if labels[s.Label] {
			errs = append(errs, ValidationError{Field: fmt.Sprintf("statements[%d]", i), Message: fmt.Sprintf("duplicate label: %q", s.Label)})
		}
		labels[s.Label] = true
	}

	for i, s := range p.Statements {
		field := fmt.Sprintf("statements[%d]", i)
		switch s.Kind {
		case StmtReturn, StmtLabel:
		case StmtInvocation:
			if s.Invocation == nil {
				errs = append(errs, ValidationError{Field: field, Message: "invocation body is missing"})
				continue
			}
			if s.Invocation.LibFunc == "" {
				errs = append(errs, ValidationError{Field: field + ".libfunc", Message: "libfunc id is required"})
			}
			if len(s.Invocation.Branches) == 0 {
				errs = append(errs, ValidationError{Field: field + ".branches", Message: "at least one branch is required"})
			}
			for j, b := range s.Invocation.Branches {
				bf := fmt.Sprintf("%s.branches[%d]", field, j)
				switch b.Target.Kind {
				case TargetFallthrough:
					if i+1 >= n {
						errs = append(errs, ValidationError{Field: bf, Message: "fallthrough past the last statement"})
					}
				case TargetLabel:
					if !labels[b.Target.Label] {
						errs = append(errs, ValidationError{Field: bf, Message: fmt.Sprintf("unknown label: %q", b.Target.Label)})
					}
				case TargetStatement:
					if b.Target.Statement < 0 || int(b.Target.Statement) >= n {
						errs = append(errs, ValidationError{Field: bf, Message: fmt.Sprintf("target %s out of bounds", b.Target.Statement)})
					}
				}
			}
		default:
			errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf("invalid statement kind %d", s.Kind)})
		}
	}

	return errs
}

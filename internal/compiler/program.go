package compiler

import (
	"fmt"

	"cuelang.org/go/cue"

	"github.com/roach88/sierra/internal/ir"
)

// CompileProgram parses a CUE value into an ir.Program.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The value must have this shape:
//
//	functions: {
//		fib: {
//			params: [{id: "a", type: "felt"}, {id: "n", type: "felt"}]
//			returns: ["felt"]
//			entry: "FIB" // label or statement index
//		}
//	}
//	statements: [
//		{label: "FIB"},
//		{invoke: "felt_jump_nz", inputs: ["n"], branches: [{}, {target: "BODY", results: ["n_nz"]}]},
//		{invoke: "felt_const", args: [5], results: ["x"]},
//		{return: ["a"]},
//	]
//
// Functions keep declaration order. A type is a generic id ("felt") or a
// struct {type: "NonZero", args: [...]}. A generic arg is an integer, a
// type, or {func: "name"}. A branch without target falls through; an
// invocation without branches has a single fallthrough branch binding
// results.
func CompileProgram(v cue.Value) (*ir.Program, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	p := &ir.Program{Statements: []ir.Statement{}}

	stmtsVal := lookup(v, "statements")
	if !stmtsVal.Exists() {
		return nil, &CompileError{
			Field:   "statements",
			Message: "statements is required",
			Pos:     v.Pos(),
		}
	}
	iter, err := stmtsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for i := 0; iter.Next(); i++ {
		s, err := compileStatement(iter.Value(), fmt.Sprintf("statements[%d]", i))
		if err != nil {
			return nil, err
		}
		p.Statements = append(p.Statements, s)
	}

	funcsVal := lookup(v, "functions")
	if !funcsVal.Exists() {
		return nil, &CompileError{
			Field:   "functions",
			Message: "functions is required",
			Pos:     v.Pos(),
		}
	}
	labels := ir.NewLabelMap(p.Statements)
	fiter, err := funcsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for fiter.Next() {
		f, err := compileFunction(fiter.Label(), fiter.Value(), labels)
		if err != nil {
			return nil, err
		}
		p.Funcs = append(p.Funcs, f)
	}

	return p, nil
}

func lookup(v cue.Value, name string) cue.Value {
	return v.LookupPath(cue.MakePath(cue.Str(name)))
}

func compileFunction(name string, v cue.Value, labels *ir.LabelMap) (ir.Function, error) {
	field := "functions." + name
	f := ir.Function{ID: ir.FunctionID(name)}

	if paramsVal := lookup(v, "params"); paramsVal.Exists() {
		iter, err := paramsVal.List()
		if err != nil {
			return f, formatCUEError(err)
		}
		for i := 0; iter.Next(); i++ {
			pfield := fmt.Sprintf("%s.params[%d]", field, i)
			idVal := lookup(iter.Value(), "id")
			if !idVal.Exists() {
				return f, &CompileError{Field: pfield + ".id", Message: "parameter id is required", Pos: iter.Value().Pos()}
			}
			id, err := idVal.String()
			if err != nil {
				return f, formatCUEError(err)
			}
			tyVal := lookup(iter.Value(), "type")
			if !tyVal.Exists() {
				return f, &CompileError{Field: pfield + ".type", Message: "parameter type is required", Pos: iter.Value().Pos()}
			}
			ty, err := compileType(tyVal, pfield+".type")
			if err != nil {
				return f, err
			}
			f.Params = append(f.Params, ir.Param{ID: ir.VarID(id), Ty: ty})
		}
	}

	if retsVal := lookup(v, "returns"); retsVal.Exists() {
		iter, err := retsVal.List()
		if err != nil {
			return f, formatCUEError(err)
		}
		for i := 0; iter.Next(); i++ {
			ty, err := compileType(iter.Value(), fmt.Sprintf("%s.returns[%d]", field, i))
			if err != nil {
				return f, err
			}
			f.RetTypes = append(f.RetTypes, ty)
		}
	}

	entryVal := lookup(v, "entry")
	if !entryVal.Exists() {
		return f, &CompileError{Field: field + ".entry", Message: "entry is required", Pos: v.Pos()}
	}
	switch entryVal.IncompleteKind() {
	case cue.StringKind:
		name, err := entryVal.String()
		if err != nil {
			return f, formatCUEError(err)
		}
		idx, ok := labels.Lookup(ir.LabelID(name))
		if !ok {
			return f, &CompileError{Field: field + ".entry", Message: fmt.Sprintf("unknown label %q", name), Pos: entryVal.Pos()}
		}
		f.Entry = idx
	case cue.IntKind:
		n, err := entryVal.Int64()
		if err != nil {
			return f, formatCUEError(err)
		}
		f.Entry = ir.StatementIdx(n)
	default:
		return f, &CompileError{Field: field + ".entry", Message: "entry must be a label or a statement index", Pos: entryVal.Pos()}
	}

	return f, nil
}

func compileStatement(v cue.Value, field string) (ir.Statement, error) {
	if labelVal := lookup(v, "label"); labelVal.Exists() {
		name, err := labelVal.String()
		if err != nil {
			return ir.Statement{}, formatCUEError(err)
		}
		return ir.Label(ir.LabelID(name)), nil
	}

	if retVal := lookup(v, "return"); retVal.Exists() {
		vars, err := compileVars(retVal)
		if err != nil {
			return ir.Statement{}, err
		}
		return ir.Return(vars...), nil
	}

	invokeVal := lookup(v, "invoke")
	if !invokeVal.Exists() {
		return ir.Statement{}, &CompileError{
			Field:   field,
			Message: "statement must be one of invoke, return or label",
			Pos:     v.Pos(),
		}
	}
	libfunc, err := invokeVal.String()
	if err != nil {
		return ir.Statement{}, formatCUEError(err)
	}

	var args []ir.GenericArg
	if argsVal := lookup(v, "args"); argsVal.Exists() {
		args, err = compileGenericArgs(argsVal, field+".args")
		if err != nil {
			return ir.Statement{}, err
		}
	}

	var inputs []ir.VarID
	if inputsVal := lookup(v, "inputs"); inputsVal.Exists() {
		if inputs, err = compileVars(inputsVal); err != nil {
			return ir.Statement{}, err
		}
	}

	branchesVal := lookup(v, "branches")
	if !branchesVal.Exists() {
		var results []ir.VarID
		if resultsVal := lookup(v, "results"); resultsVal.Exists() {
			if results, err = compileVars(resultsVal); err != nil {
				return ir.Statement{}, err
			}
		}
		return ir.Invoke(ir.GenericLibFuncID(libfunc), args, inputs, ir.Branch(ir.Fallthrough(), results...)), nil
	}

	var branches []ir.BranchInfo
	iter, err := branchesVal.List()
	if err != nil {
		return ir.Statement{}, formatCUEError(err)
	}
	for i := 0; iter.Next(); i++ {
		b, err := compileBranch(iter.Value(), fmt.Sprintf("%s.branches[%d]", field, i))
		if err != nil {
			return ir.Statement{}, err
		}
		branches = append(branches, b)
	}
	return ir.Invoke(ir.GenericLibFuncID(libfunc), args, inputs, branches...), nil
}

func compileBranch(v cue.Value, field string) (ir.BranchInfo, error) {
	target := ir.Fallthrough()
	if targetVal := lookup(v, "target"); targetVal.Exists() {
		switch targetVal.IncompleteKind() {
		case cue.StringKind:
			name, err := targetVal.String()
			if err != nil {
				return ir.BranchInfo{}, formatCUEError(err)
			}
			if name != "fallthrough" {
				target = ir.ToLabel(ir.LabelID(name))
			}
		case cue.IntKind:
			n, err := targetVal.Int64()
			if err != nil {
				return ir.BranchInfo{}, formatCUEError(err)
			}
			target = ir.ToStatement(ir.StatementIdx(n))
		default:
			return ir.BranchInfo{}, &CompileError{
				Field:   field + ".target",
				Message: "target must be a label, a statement index or \"fallthrough\"",
				Pos:     targetVal.Pos(),
			}
		}
	}

	var results []ir.VarID
	if resultsVal := lookup(v, "results"); resultsVal.Exists() {
		var err error
		if results, err = compileVars(resultsVal); err != nil {
			return ir.BranchInfo{}, err
		}
	}
	return ir.Branch(target, results...), nil
}

func compileVars(v cue.Value) ([]ir.VarID, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	vars := []ir.VarID{}
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		vars = append(vars, ir.VarID(s))
	}
	return vars, nil
}

// compileType reads "felt" or {type: "NonZero", args: [...]}.
func compileType(v cue.Value, field string) (ir.TypeRef, error) {
	switch v.IncompleteKind() {
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return ir.TypeRef{}, formatCUEError(err)
		}
		return ir.T(ir.GenericTypeID(s)), nil
	case cue.StructKind:
		genericVal := lookup(v, "type")
		if !genericVal.Exists() {
			return ir.TypeRef{}, &CompileError{Field: field, Message: "type struct requires a type field", Pos: v.Pos()}
		}
		generic, err := genericVal.String()
		if err != nil {
			return ir.TypeRef{}, formatCUEError(err)
		}
		var args []ir.GenericArg
		if argsVal := lookup(v, "args"); argsVal.Exists() {
			if args, err = compileGenericArgs(argsVal, field+".args"); err != nil {
				return ir.TypeRef{}, err
			}
		}
		return ir.T(ir.GenericTypeID(generic), args...), nil
	default:
		return ir.TypeRef{}, &CompileError{Field: field, Message: "type must be a string or a struct", Pos: v.Pos()}
	}
}

func compileGenericArgs(v cue.Value, field string) ([]ir.GenericArg, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var args []ir.GenericArg
	for i := 0; iter.Next(); i++ {
		a, err := compileGenericArg(iter.Value(), fmt.Sprintf("%s[%d]", field, i))
		if err != nil {
			return nil, err
		}
		args = append(args, a)
	}
	return args, nil
}

func compileGenericArg(v cue.Value, field string) (ir.GenericArg, error) {
	switch v.IncompleteKind() {
	case cue.IntKind:
		n, err := v.Int(nil)
		if err != nil {
			return ir.GenericArg{}, formatCUEError(err)
		}
		return ir.ValueArg(n), nil
	case cue.StructKind:
		if fnVal := lookup(v, "func"); fnVal.Exists() {
			name, err := fnVal.String()
			if err != nil {
				return ir.GenericArg{}, formatCUEError(err)
			}
			return ir.UserFuncArg(ir.FunctionID(name)), nil
		}
		fallthrough
	case cue.StringKind:
		ty, err := compileType(v, field)
		if err != nil {
			return ir.GenericArg{}, err
		}
		return ir.TypeArg(ty), nil
	case cue.FloatKind, cue.NumberKind:
		return ir.GenericArg{}, &CompileError{
			Field:   field,
			Message: "float generic args are forbidden, use int instead",
			Pos:     v.Pos(),
		}
	default:
		return ir.GenericArg{}, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("unsupported generic arg kind: %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
}

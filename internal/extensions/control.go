package extensions

import "github.com/roach88/sierra/internal/ir"

// UnwrapNonZero strips the NonZero wrapper from a value.
type UnwrapNonZero struct {
	libFuncBase
	Ty *ConcreteType
}

func (lf *UnwrapNonZero) Accept(v LibFuncVisitor) { v.VisitUnwrapNonZero(lf) }

// FunctionCall calls a user function of the program.
type FunctionCall struct {
	libFuncBase
	Function *ir.Function
}

func (lf *FunctionCall) Accept(v LibFuncVisitor) { v.VisitFunctionCall(lf) }

// Jump unconditionally jumps to its single branch target.
type Jump struct {
	libFuncBase
}

func (lf *Jump) Accept(v LibFuncVisitor) { v.VisitJump(lf) }

// RevokeApTracking makes ap unknown from this point on.
type RevokeApTracking struct {
	libFuncBase
}

func (lf *RevokeApTracking) Accept(v LibFuncVisitor) { v.VisitRevokeApTracking(lf) }

// BranchAlign equalizes ap across the branches of a preceding libfunc.
type BranchAlign struct {
	libFuncBase
}

func (lf *BranchAlign) Accept(v LibFuncVisitor) { v.VisitBranchAlign(lf) }

func registerNonZero(c *Catalog) {
	c.RegisterLibFunc("unwrap_nz", func(ctx SpecializationContext, args []ir.GenericArg) (ConcreteLibFunc, error) {
		ty, err := singleTypeArg(ctx, args)
		if err != nil {
			return nil, err
		}
		nz, err := wrapType(ctx, NonZeroTypeID, ty)
		if err != nil {
			return nil, err
		}
		sig := nonBranch([]ParamSignature{anyRefParam(nz)}, []OutputVarInfo{output(ty, SameAsParam(0))}, KnownApChange(true))
		return &UnwrapNonZero{libFuncBase: withSignature(sig), Ty: ty}, nil
	})
}

func registerControl(c *Catalog) {
	c.RegisterLibFunc("function_call", specializeFunctionCall)
	c.RegisterLibFunc("jump", func(_ SpecializationContext, args []ir.GenericArg) (ConcreteLibFunc, error) {
		if err := noArgs(args); err != nil {
			return nil, err
		}
		sig := &LibFuncSignature{Branches: []BranchSignature{branch(KnownApChange(true))}}
		return &Jump{withSignature(sig)}, nil
	})
	c.RegisterLibFunc("revoke_ap_tracking", func(_ SpecializationContext, args []ir.GenericArg) (ConcreteLibFunc, error) {
		if err := noArgs(args); err != nil {
			return nil, err
		}
		return &RevokeApTracking{withSignature(nonBranch(nil, nil, NotImplementedApChange()))}, nil
	})
	c.RegisterLibFunc("branch_align", func(_ SpecializationContext, args []ir.GenericArg) (ConcreteLibFunc, error) {
		if err := noArgs(args); err != nil {
			return nil, err
		}
		return &BranchAlign{withSignature(nonBranch(nil, nil, KnownApChange(false)))}, nil
	})
}

func specializeFunctionCall(ctx SpecializationContext, args []ir.GenericArg) (ConcreteLibFunc, error) {
	if len(args) != 1 || args[0].Kind != ir.ArgUserFunc {
		return nil, unsupported("expected a single user function argument")
	}
	fn, ok := ctx.Function(args[0].Func)
	if !ok {
		return nil, missingFunction(string(args[0].Func))
	}

	params := make([]ParamSignature, len(fn.Params))
	for i, p := range fn.Params {
		ty, err := ctx.Type(p.Ty)
		if err != nil {
			return nil, err
		}
		params[i] = param(ty)
	}
	outs := make([]OutputVarInfo, len(fn.RetTypes))
	for i, ref := range fn.RetTypes {
		ty, err := ctx.Type(ref)
		if err != nil {
			return nil, err
		}
		outs[i] = output(ty, NewTempVar(i))
	}
	sig := nonBranch(params, outs, NotImplementedApChange())
	return &FunctionCall{libFuncBase: withSignature(sig), Function: fn}, nil
}

package extensions

import "github.com/roach88/sierra/internal/ir"

// Pedersen hashes two felts using the Pedersen builtin.
type Pedersen struct {
	libFuncBase
}

func (lf *Pedersen) Accept(v LibFuncVisitor) { v.VisitPedersen(lf) }

func registerPedersen(c *Catalog) {
	c.RegisterLibFunc("pedersen", func(ctx SpecializationContext, args []ir.GenericArg) (ConcreteLibFunc, error) {
		if err := noArgs(args); err != nil {
			return nil, err
		}
		builtin, err := coreType(ctx, PedersenTypeID)
		if err != nil {
			return nil, err
		}
		felt, err := coreType(ctx, FeltTypeID)
		if err != nil {
			return nil, err
		}
		sig := nonBranch(
			[]ParamSignature{param(builtin), param(felt), param(felt)},
			[]OutputVarInfo{output(builtin, DeferredAddConstRef(0)), output(felt, NewTempVarAnySlot())},
			KnownApChange(true))
		return &Pedersen{withSignature(sig)}, nil
	})
}

package extensions

import "github.com/roach88/sierra/internal/ir"

// ArrayNew creates an empty array.
type ArrayNew struct {
	libFuncBase
	Ty *ConcreteType
}

func (lf *ArrayNew) Accept(v LibFuncVisitor) { v.VisitArrayNew(lf) }

// ArrayAppend appends an element and returns the grown array.
type ArrayAppend struct {
	libFuncBase
	Ty *ConcreteType
}

func (lf *ArrayAppend) Accept(v LibFuncVisitor) { v.VisitArrayAppend(lf) }

// ArrayAt reads the element at a uint128 index. Branch 0 (fallthrough) is
// taken when the index is in range, branch 1 otherwise.
type ArrayAt struct {
	libFuncBase
	Ty *ConcreteType
}

func (lf *ArrayAt) Accept(v LibFuncVisitor) { v.VisitArrayAt(lf) }

// ArrayLen returns the array and its length.
type ArrayLen struct {
	libFuncBase
	Ty *ConcreteType
}

func (lf *ArrayLen) Accept(v LibFuncVisitor) { v.VisitArrayLen(lf) }

func registerArray(c *Catalog) {
	c.RegisterLibFunc("array_new", func(ctx SpecializationContext, args []ir.GenericArg) (ConcreteLibFunc, error) {
		ty, arr, err := typeAndWrapper(ctx, args, ArrayTypeID)
		if err != nil {
			return nil, err
		}
		sig := nonBranch(nil, []OutputVarInfo{output(arr, NewTempVarAnySlot())}, KnownApChange(false))
		return &ArrayNew{libFuncBase: withSignature(sig), Ty: ty}, nil
	})
	c.RegisterLibFunc("array_append", func(ctx SpecializationContext, args []ir.GenericArg) (ConcreteLibFunc, error) {
		ty, arr, err := typeAndWrapper(ctx, args, ArrayTypeID)
		if err != nil {
			return nil, err
		}
		sig := nonBranch(
			[]ParamSignature{param(arr), param(ty)},
			[]OutputVarInfo{output(arr, DeferredGenericRef())},
			KnownApChange(true))
		return &ArrayAppend{libFuncBase: withSignature(sig), Ty: ty}, nil
	})
	c.RegisterLibFunc("array_at", func(ctx SpecializationContext, args []ir.GenericArg) (ConcreteLibFunc, error) {
		ty, arr, err := typeAndWrapper(ctx, args, ArrayTypeID)
		if err != nil {
			return nil, err
		}
		u, rc, err := uint128AndRangeCheck(ctx)
		if err != nil {
			return nil, err
		}
		sig := &LibFuncSignature{
			Params: []ParamSignature{param(rc), param(arr), param(u)},
			Branches: []BranchSignature{
				branch(KnownApChange(false),
					output(rc, DeferredAddConstRef(0)),
					output(arr, SameAsParam(1)),
					output(ty, NewTempVarAnySlot())),
				branch(KnownApChange(false),
					output(rc, DeferredAddConstRef(0)),
					output(arr, SameAsParam(1))),
			},
			Fallthrough: fallthroughAt(0),
		}
		return &ArrayAt{libFuncBase: withSignature(sig), Ty: ty}, nil
	})
	c.RegisterLibFunc("array_len", func(ctx SpecializationContext, args []ir.GenericArg) (ConcreteLibFunc, error) {
		ty, arr, err := typeAndWrapper(ctx, args, ArrayTypeID)
		if err != nil {
			return nil, err
		}
		u, err := coreType(ctx, Uint128TypeID)
		if err != nil {
			return nil, err
		}
		sig := nonBranch(
			[]ParamSignature{param(arr)},
			[]OutputVarInfo{output(arr, SameAsParam(0)), output(u, DeferredGenericRef())},
			KnownApChange(true))
		return &ArrayLen{libFuncBase: withSignature(sig), Ty: ty}, nil
	})
}

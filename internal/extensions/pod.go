package extensions

import "github.com/roach88/sierra/internal/ir"

// Dup duplicates a value of a duplicatable type.
type Dup struct {
	libFuncBase
	Ty *ConcreteType
}

func (lf *Dup) Accept(v LibFuncVisitor) { v.VisitDup(lf) }

// Drop discards a value of a droppable type.
type Drop struct {
	libFuncBase
	Ty *ConcreteType
}

func (lf *Drop) Accept(v LibFuncVisitor) { v.VisitDrop(lf) }

func registerPod(c *Catalog) {
	c.RegisterLibFunc("dup", func(ctx SpecializationContext, args []ir.GenericArg) (ConcreteLibFunc, error) {
		ty, err := singleTypeArg(ctx, args)
		if err != nil {
			return nil, err
		}
		return newPod(ty, true)
	})
	c.RegisterLibFunc("drop", func(ctx SpecializationContext, args []ir.GenericArg) (ConcreteLibFunc, error) {
		ty, err := singleTypeArg(ctx, args)
		if err != nil {
			return nil, err
		}
		return newPod(ty, false)
	})
}

// podForType builds the argument-free dup/ignore libfuncs of a family,
// e.g. felt_dup and felt_ignore.
func podForType(id ir.GenericTypeID, duplicate bool) LibFuncConstructor {
	return func(ctx SpecializationContext, args []ir.GenericArg) (ConcreteLibFunc, error) {
		if err := noArgs(args); err != nil {
			return nil, err
		}
		ty, err := coreType(ctx, id)
		if err != nil {
			return nil, err
		}
		return newPod(ty, duplicate)
	}
}

func newPod(ty *ConcreteType, duplicate bool) (ConcreteLibFunc, error) {
	if duplicate {
		if !ty.Info.Duplicatable {
			return nil, unsupported("type %s is not duplicatable", ty.ID())
		}
		sig := nonBranch(
			[]ParamSignature{anyRefParam(ty)},
			[]OutputVarInfo{output(ty, SameAsParam(0)), output(ty, SameAsParam(0))},
			KnownApChange(true))
		return &Dup{libFuncBase: withSignature(sig), Ty: ty}, nil
	}
	if !ty.Info.Droppable {
		return nil, unsupported("type %s is not droppable", ty.ID())
	}
	sig := nonBranch([]ParamSignature{anyRefParam(ty)}, nil, KnownApChange(true))
	return &Drop{libFuncBase: withSignature(sig), Ty: ty}, nil
}

package extensions

import "github.com/roach88/sierra/internal/ir"

// IntoBox moves a value to the heap and returns a Box pointing at it.
type IntoBox struct {
	libFuncBase
	Ty *ConcreteType
}

func (lf *IntoBox) Accept(v LibFuncVisitor) { v.VisitIntoBox(lf) }

// Unbox reads a boxed value back.
type Unbox struct {
	libFuncBase
	Ty *ConcreteType
}

func (lf *Unbox) Accept(v LibFuncVisitor) { v.VisitUnbox(lf) }

func registerBox(c *Catalog) {
	c.RegisterLibFunc("into_box", func(ctx SpecializationContext, args []ir.GenericArg) (ConcreteLibFunc, error) {
		ty, box, err := typeAndWrapper(ctx, args, BoxTypeID)
		if err != nil {
			return nil, err
		}
		sig := nonBranch([]ParamSignature{param(ty)}, []OutputVarInfo{output(box, NewTempVar(0))}, KnownApChange(true))
		return &IntoBox{libFuncBase: withSignature(sig), Ty: ty}, nil
	})
	c.RegisterLibFunc("unbox", func(ctx SpecializationContext, args []ir.GenericArg) (ConcreteLibFunc, error) {
		ty, box, err := typeAndWrapper(ctx, args, BoxTypeID)
		if err != nil {
			return nil, err
		}
		sig := nonBranch([]ParamSignature{param(box)}, []OutputVarInfo{output(ty, DeferredGenericRef())}, KnownApChange(true))
		return &Unbox{libFuncBase: withSignature(sig), Ty: ty}, nil
	})
}

// typeAndWrapper resolves the single type argument T and wrapper<T>.
func typeAndWrapper(ctx SpecializationContext, args []ir.GenericArg, wrapper ir.GenericTypeID) (ty, wrapped *ConcreteType, err error) {
	if ty, err = singleTypeArg(ctx, args); err != nil {
		return nil, nil, err
	}
	if wrapped, err = wrapType(ctx, wrapper, ty); err != nil {
		return nil, nil, err
	}
	return ty, wrapped, nil
}

package extensions

import "github.com/roach88/sierra/internal/ir"

// StoreTemp materializes a value as a new temporary.
type StoreTemp struct {
	libFuncBase
	Ty *ConcreteType
}

func (lf *StoreTemp) Accept(v LibFuncVisitor) { v.VisitStoreTemp(lf) }

// AlignTemps advances ap by the size of Ty without producing a value, so
// that branches merging at one point leave ap at the same offset.
type AlignTemps struct {
	libFuncBase
	Ty *ConcreteType
}

func (lf *AlignTemps) Accept(v LibFuncVisitor) { v.VisitAlignTemps(lf) }

// StoreLocal writes a value into a slot reserved by alloc_local.
type StoreLocal struct {
	libFuncBase
	Ty *ConcreteType
}

func (lf *StoreLocal) Accept(v LibFuncVisitor) { v.VisitStoreLocal(lf) }

// FinalizeLocals reserves the frame's local slots.
type FinalizeLocals struct {
	libFuncBase
}

func (lf *FinalizeLocals) Accept(v LibFuncVisitor) { v.VisitFinalizeLocals(lf) }

// AllocLocal reserves an uninitialized local slot for a value of type Ty.
type AllocLocal struct {
	libFuncBase
	Ty *ConcreteType
}

func (lf *AllocLocal) Accept(v LibFuncVisitor) { v.VisitAllocLocal(lf) }

// Rename rebinds a value to a new variable.
type Rename struct {
	libFuncBase
	Ty *ConcreteType
}

func (lf *Rename) Accept(v LibFuncVisitor) { v.VisitRename(lf) }

func registerMem(c *Catalog) {
	c.RegisterLibFunc("store_temp", storableTypeLibFunc(func(ty *ConcreteType) ConcreteLibFunc {
		sig := nonBranch([]ParamSignature{anyRefParam(ty)}, []OutputVarInfo{output(ty, NewTempVar(0))}, KnownApChange(true))
		return &StoreTemp{libFuncBase: withSignature(sig), Ty: ty}
	}))
	c.RegisterLibFunc("align_temps", storableTypeLibFunc(func(ty *ConcreteType) ConcreteLibFunc {
		sig := nonBranch(nil, nil, KnownApChange(false))
		return &AlignTemps{libFuncBase: withSignature(sig), Ty: ty}
	}))
	c.RegisterLibFunc("rename", func(ctx SpecializationContext, args []ir.GenericArg) (ConcreteLibFunc, error) {
		ty, err := singleTypeArg(ctx, args)
		if err != nil {
			return nil, err
		}
		sig := nonBranch([]ParamSignature{anyRefParam(ty)}, []OutputVarInfo{output(ty, SameAsParam(0))}, KnownApChange(true))
		return &Rename{libFuncBase: withSignature(sig), Ty: ty}, nil
	})
	c.RegisterLibFunc("finalize_locals", func(_ SpecializationContext, args []ir.GenericArg) (ConcreteLibFunc, error) {
		if err := noArgs(args); err != nil {
			return nil, err
		}
		return &FinalizeLocals{withSignature(nonBranch(nil, nil, KnownApChange(false)))}, nil
	})
	c.RegisterLibFunc("alloc_local", func(ctx SpecializationContext, args []ir.GenericArg) (ConcreteLibFunc, error) {
		ty, err := singleTypeArg(ctx, args)
		if err != nil {
			return nil, err
		}
		slot, err := wrapType(ctx, UninitializedTypeID, ty)
		if err != nil {
			return nil, err
		}
		sig := nonBranch(nil, []OutputVarInfo{output(slot, NewTempVarAnySlot())}, KnownApChange(true))
		return &AllocLocal{libFuncBase: withSignature(sig), Ty: ty}, nil
	})
	c.RegisterLibFunc("store_local", func(ctx SpecializationContext, args []ir.GenericArg) (ConcreteLibFunc, error) {
		ty, err := singleTypeArg(ctx, args)
		if err != nil {
			return nil, err
		}
		slot, err := wrapType(ctx, UninitializedTypeID, ty)
		if err != nil {
			return nil, err
		}
		sig := nonBranch(
			[]ParamSignature{param(slot), anyRefParam(ty)},
			[]OutputVarInfo{output(ty, SameAsParam(0))},
			KnownApChange(true))
		return &StoreLocal{libFuncBase: withSignature(sig), Ty: ty}, nil
	})
}

func storableTypeLibFunc(build func(ty *ConcreteType) ConcreteLibFunc) LibFuncConstructor {
	return func(ctx SpecializationContext, args []ir.GenericArg) (ConcreteLibFunc, error) {
		ty, err := singleTypeArg(ctx, args)
		if err != nil {
			return nil, err
		}
		if !ty.Info.Storable {
			return nil, unsupported("type %s is not storable", ty.ID())
		}
		return build(ty), nil
	}
}

package extensions

import "github.com/roach88/sierra/internal/ir"

// DictFeltToNew creates an empty felt-keyed dictionary.
type DictFeltToNew struct {
	libFuncBase
	Ty *ConcreteType
}

func (lf *DictFeltToNew) Accept(v LibFuncVisitor) { v.VisitDictFeltToNew(lf) }

// DictFeltToRead reads the value at a key. Absent keys read as zero.
type DictFeltToRead struct {
	libFuncBase
	Ty *ConcreteType
}

func (lf *DictFeltToRead) Accept(v LibFuncVisitor) { v.VisitDictFeltToRead(lf) }

// DictFeltToWrite writes the value at a key.
type DictFeltToWrite struct {
	libFuncBase
	Ty *ConcreteType
}

func (lf *DictFeltToWrite) Accept(v LibFuncVisitor) { v.VisitDictFeltToWrite(lf) }

// DictFeltToSquash finalizes a dictionary into its squashed form.
type DictFeltToSquash struct {
	libFuncBase
	Ty *ConcreteType
}

func (lf *DictFeltToSquash) Accept(v LibFuncVisitor) { v.VisitDictFeltToSquash(lf) }

func registerDict(c *Catalog) {
	c.RegisterLibFunc("dict_felt_to_new", func(ctx SpecializationContext, args []ir.GenericArg) (ConcreteLibFunc, error) {
		ty, dict, err := typeAndWrapper(ctx, args, DictFeltToTypeID)
		if err != nil {
			return nil, err
		}
		sig := nonBranch(nil, []OutputVarInfo{output(dict, NewTempVar(0))}, KnownApChange(false))
		return &DictFeltToNew{libFuncBase: withSignature(sig), Ty: ty}, nil
	})
	c.RegisterLibFunc("dict_felt_to_read", func(ctx SpecializationContext, args []ir.GenericArg) (ConcreteLibFunc, error) {
		ty, dict, err := typeAndWrapper(ctx, args, DictFeltToTypeID)
		if err != nil {
			return nil, err
		}
		felt, err := coreType(ctx, FeltTypeID)
		if err != nil {
			return nil, err
		}
		sig := nonBranch(
			[]ParamSignature{param(dict), param(felt)},
			[]OutputVarInfo{output(dict, NewTempVar(0)), output(ty, NewTempVarAnySlot())},
			KnownApChange(false))
		return &DictFeltToRead{libFuncBase: withSignature(sig), Ty: ty}, nil
	})
	c.RegisterLibFunc("dict_felt_to_write", func(ctx SpecializationContext, args []ir.GenericArg) (ConcreteLibFunc, error) {
		ty, dict, err := typeAndWrapper(ctx, args, DictFeltToTypeID)
		if err != nil {
			return nil, err
		}
		felt, err := coreType(ctx, FeltTypeID)
		if err != nil {
			return nil, err
		}
		sig := nonBranch(
			[]ParamSignature{param(dict), param(felt), param(ty)},
			[]OutputVarInfo{output(dict, NewTempVar(0))},
			KnownApChange(false))
		return &DictFeltToWrite{libFuncBase: withSignature(sig), Ty: ty}, nil
	})
	c.RegisterLibFunc("dict_felt_to_squash", func(ctx SpecializationContext, args []ir.GenericArg) (ConcreteLibFunc, error) {
		ty, dict, err := typeAndWrapper(ctx, args, DictFeltToTypeID)
		if err != nil {
			return nil, err
		}
		squashed, err := wrapType(ctx, SquashedDictFeltToTypeID, ty)
		if err != nil {
			return nil, err
		}
		rc, err := coreType(ctx, RangeCheckTypeID)
		if err != nil {
			return nil, err
		}
		sig := nonBranch(
			[]ParamSignature{param(rc), param(dict)},
			[]OutputVarInfo{output(rc, DeferredAddConstRef(0)), output(squashed, NewTempVarAnySlot())},
			NotImplementedApChange())
		return &DictFeltToSquash{libFuncBase: withSignature(sig), Ty: ty}, nil
	})
}

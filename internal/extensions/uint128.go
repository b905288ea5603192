package extensions

import (
	"math/big"

	"github.com/holiman/uint256"

	"github.com/roach88/sierra/internal/ir"
)

// IntOperator is a uint128 arithmetic operator.
type IntOperator int

const (
	OverflowingAdd IntOperator = iota + 1
	OverflowingSub
	OverflowingMul
	DivMod
)

func (op IntOperator) String() string {
	switch op {
	case OverflowingAdd:
		return "overflow_add"
	case OverflowingSub:
		return "overflow_sub"
	case OverflowingMul:
		return "overflow_mul"
	case DivMod:
		return "safe_divmod"
	default:
		return "invalid"
	}
}

// Uint128Operation is a range-checked uint128 operation, binary or with a
// constant right operand when Const is non-nil.
//
// The overflowing operators have two branches: 0 (fallthrough) when the
// result fits, 1 on overflow with the wrapped result. DivMod has a single
// branch producing quotient and remainder.
type Uint128Operation struct {
	libFuncBase
	Op    IntOperator
	Const *uint256.Int
}

func (lf *Uint128Operation) Accept(v LibFuncVisitor) { v.VisitUint128Operation(lf) }

// CompareOperator is a uint128 comparison.
type CompareOperator int

const (
	LessThan CompareOperator = iota + 1
	LessThanOrEqual
)

// Uint128Compare takes branch 0 when the comparison holds, 1 otherwise.
type Uint128Compare struct {
	libFuncBase
	Op CompareOperator
}

func (lf *Uint128Compare) Accept(v LibFuncVisitor) { v.VisitUint128Compare(lf) }

// Uint128Const produces a constant uint128.
type Uint128Const struct {
	libFuncBase
	C *uint256.Int
}

func (lf *Uint128Const) Accept(v LibFuncVisitor) { v.VisitUint128Const(lf) }

// Uint128FromFelt converts a felt to a uint128 on branch 0, or splits it
// into (high, low) uint128 halves on branch 1 when it does not fit.
type Uint128FromFelt struct {
	libFuncBase
}

func (lf *Uint128FromFelt) Accept(v LibFuncVisitor) { v.VisitUint128FromFelt(lf) }

// Uint128ToFelt converts a uint128 to a felt.
type Uint128ToFelt struct {
	libFuncBase
}

func (lf *Uint128ToFelt) Accept(v LibFuncVisitor) { v.VisitUint128ToFelt(lf) }

// Uint128JumpNotZero falls through on zero and jumps with a
// NonZero<uint128> otherwise.
type Uint128JumpNotZero struct {
	libFuncBase
}

func (lf *Uint128JumpNotZero) Accept(v LibFuncVisitor) { v.VisitUint128JumpNotZero(lf) }

func registerUint128(c *Catalog) {
	c.RegisterLibFunc("uint128_overflow_add", uint128Operation(OverflowingAdd))
	c.RegisterLibFunc("uint128_overflow_sub", uint128Operation(OverflowingSub))
	c.RegisterLibFunc("uint128_overflow_mul", uint128Operation(OverflowingMul))
	c.RegisterLibFunc("uint128_safe_divmod", uint128Operation(DivMod))
	c.RegisterLibFunc("uint128_lt", uint128Compare(LessThan))
	c.RegisterLibFunc("uint128_le", uint128Compare(LessThanOrEqual))
	c.RegisterLibFunc("uint128_const", specializeUint128Const)
	c.RegisterLibFunc("uint128s_from_felt", specializeUint128FromFelt)
	c.RegisterLibFunc("uint128_to_felt", specializeUint128ToFelt)
	c.RegisterLibFunc("uint128_jump_nz", jumpNotZero(Uint128TypeID, func(sig *LibFuncSignature) ConcreteLibFunc {
		return &Uint128JumpNotZero{withSignature(sig)}
	}))
}

// uint128Value converts a generic value argument to a uint128 constant.
func uint128Value(v *big.Int) (*uint256.Int, error) {
	if v.Sign() < 0 || v.BitLen() > 128 {
		return nil, unsupported("value %s does not fit in uint128", v)
	}
	u, overflow := uint256.FromBig(v)
	if overflow {
		return nil, unsupported("value %s does not fit in uint128", v)
	}
	return u, nil
}

func uint128AndRangeCheck(r TypeResolver) (u, rc *ConcreteType, err error) {
	if u, err = coreType(r, Uint128TypeID); err != nil {
		return nil, nil, err
	}
	if rc, err = coreType(r, RangeCheckTypeID); err != nil {
		return nil, nil, err
	}
	return u, rc, nil
}

func uint128Operation(op IntOperator) LibFuncConstructor {
	return func(ctx SpecializationContext, args []ir.GenericArg) (ConcreteLibFunc, error) {
		u, rc, err := uint128AndRangeCheck(ctx)
		if err != nil {
			return nil, err
		}

		var (
			params []ParamSignature
			c      *uint256.Int
		)
		switch len(args) {
		case 0:
			rhs := u
			if op == DivMod {
				if rhs, err = wrapType(ctx, NonZeroTypeID, u); err != nil {
					return nil, err
				}
			}
			params = []ParamSignature{param(rc), param(u), param(rhs)}
		case 1:
			v, err := singleValueArg(args)
			if err != nil {
				return nil, err
			}
			if c, err = uint128Value(v); err != nil {
				return nil, err
			}
			if op == DivMod && c.IsZero() {
				return nil, unsupported("uint128 divmod by constant zero")
			}
			params = []ParamSignature{param(rc), param(u)}
		default:
			return nil, unsupported("expected at most one value argument, got %d", len(args))
		}

		var sig *LibFuncSignature
		if op == DivMod {
			sig = nonBranch(params, []OutputVarInfo{
				output(rc, DeferredAddConstRef(0)),
				output(u, NewTempVarAnySlot()),
				output(u, NewTempVarAnySlot()),
			}, KnownApChange(false))
		} else {
			ap := KnownApChange(false)
			if c != nil {
				ap = NotImplementedApChange()
			}
			sig = &LibFuncSignature{
				Params: params,
				Branches: []BranchSignature{
					branch(ap, output(rc, DeferredAddConstRef(0)), output(u, DeferredGenericRef())),
					branch(ap, output(rc, DeferredAddConstRef(0)), output(u, DeferredGenericRef())),
				},
				Fallthrough: fallthroughAt(0),
			}
		}
		return &Uint128Operation{libFuncBase: withSignature(sig), Op: op, Const: c}, nil
	}
}

func uint128Compare(op CompareOperator) LibFuncConstructor {
	return func(ctx SpecializationContext, args []ir.GenericArg) (ConcreteLibFunc, error) {
		if err := noArgs(args); err != nil {
			return nil, err
		}
		u, rc, err := uint128AndRangeCheck(ctx)
		if err != nil {
			return nil, err
		}
		sig := &LibFuncSignature{
			Params: []ParamSignature{param(rc), param(u), param(u)},
			Branches: []BranchSignature{
				branch(KnownApChange(false), output(rc, DeferredAddConstRef(0))),
				branch(KnownApChange(false), output(rc, DeferredAddConstRef(0))),
			},
			Fallthrough: fallthroughAt(0),
		}
		return &Uint128Compare{libFuncBase: withSignature(sig), Op: op}, nil
	}
}

func specializeUint128Const(ctx SpecializationContext, args []ir.GenericArg) (ConcreteLibFunc, error) {
	v, err := singleValueArg(args)
	if err != nil {
		return nil, err
	}
	c, err := uint128Value(v)
	if err != nil {
		return nil, err
	}
	u, err := coreType(ctx, Uint128TypeID)
	if err != nil {
		return nil, err
	}
	sig := nonBranch(nil, []OutputVarInfo{output(u, DeferredConstRef())}, KnownApChange(true))
	return &Uint128Const{libFuncBase: withSignature(sig), C: c}, nil
}

func specializeUint128FromFelt(ctx SpecializationContext, args []ir.GenericArg) (ConcreteLibFunc, error) {
	if err := noArgs(args); err != nil {
		return nil, err
	}
	u, rc, err := uint128AndRangeCheck(ctx)
	if err != nil {
		return nil, err
	}
	felt, err := coreType(ctx, FeltTypeID)
	if err != nil {
		return nil, err
	}
	sig := &LibFuncSignature{
		Params: []ParamSignature{param(rc), constParam(felt)},
		Branches: []BranchSignature{
			branch(KnownApChange(false), output(rc, DeferredAddConstRef(0)), output(u, SameAsParam(1))),
			branch(KnownApChange(false),
				output(rc, DeferredAddConstRef(0)),
				output(u, NewTempVarAnySlot()),
				output(u, NewTempVarAnySlot())),
		},
		Fallthrough: fallthroughAt(0),
	}
	return &Uint128FromFelt{withSignature(sig)}, nil
}

func specializeUint128ToFelt(ctx SpecializationContext, args []ir.GenericArg) (ConcreteLibFunc, error) {
	if err := noArgs(args); err != nil {
		return nil, err
	}
	u, err := coreType(ctx, Uint128TypeID)
	if err != nil {
		return nil, err
	}
	felt, err := coreType(ctx, FeltTypeID)
	if err != nil {
		return nil, err
	}
	sig := nonBranch([]ParamSignature{param(u)}, []OutputVarInfo{output(felt, SameAsParam(0))}, KnownApChange(true))
	return &Uint128ToFelt{withSignature(sig)}, nil
}

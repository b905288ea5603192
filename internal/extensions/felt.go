package extensions

import (
	"math/big"

	"github.com/roach88/sierra/internal/ir"
)

// FeltOperator is a felt arithmetic operator.
type FeltOperator int

const (
	FeltAdd FeltOperator = iota + 1
	FeltSub
	FeltMul
	FeltDiv
	// FeltMod always yields 0: field division is exact.
	FeltMod
)

func (op FeltOperator) String() string {
	switch op {
	case FeltAdd:
		return "add"
	case FeltSub:
		return "sub"
	case FeltMul:
		return "mul"
	case FeltDiv:
		return "div"
	case FeltMod:
		return "mod"
	default:
		return "invalid"
	}
}

func (op FeltOperator) divisionLike() bool {
	return op == FeltDiv || op == FeltMod
}

// FeltOperation is a binary felt operation, or an operation against a
// constant operand when Const is non-nil.
type FeltOperation struct {
	libFuncBase
	Op    FeltOperator
	Const *big.Int
}

func (lf *FeltOperation) Accept(v LibFuncVisitor) { v.VisitFeltOperation(lf) }

// FeltConst produces a constant felt.
type FeltConst struct {
	libFuncBase
	C *big.Int
}

func (lf *FeltConst) Accept(v LibFuncVisitor) { v.VisitFeltConst(lf) }

// FeltJumpNotZero falls through on zero and jumps with a NonZero<felt>
// otherwise.
type FeltJumpNotZero struct {
	libFuncBase
}

func (lf *FeltJumpNotZero) Accept(v LibFuncVisitor) { v.VisitFeltJumpNotZero(lf) }

func registerFelt(c *Catalog) {
	ops := map[ir.GenericLibFuncID]FeltOperator{
		"felt_add": FeltAdd,
		"felt_sub": FeltSub,
		"felt_mul": FeltMul,
		"felt_div": FeltDiv,
		"felt_mod": FeltMod,
	}
	for id, op := range ops {
		c.RegisterLibFunc(id, feltOperation(op))
	}
	c.RegisterLibFunc("felt_const", specializeFeltConst)
	c.RegisterLibFunc("felt_jump_nz", jumpNotZero(FeltTypeID, func(sig *LibFuncSignature) ConcreteLibFunc {
		return &FeltJumpNotZero{withSignature(sig)}
	}))
	c.RegisterLibFunc("felt_dup", podForType(FeltTypeID, true))
	c.RegisterLibFunc("felt_ignore", podForType(FeltTypeID, false))
}

func feltOperation(op FeltOperator) LibFuncConstructor {
	return func(ctx SpecializationContext, args []ir.GenericArg) (ConcreteLibFunc, error) {
		felt, err := coreType(ctx, FeltTypeID)
		if err != nil {
			return nil, err
		}
		out := []OutputVarInfo{output(felt, DeferredGenericRef())}

		switch len(args) {
		case 0:
			rhs := felt
			if op.divisionLike() {
				if rhs, err = wrapType(ctx, NonZeroTypeID, felt); err != nil {
					return nil, err
				}
			}
			sig := nonBranch([]ParamSignature{param(felt), constParam(rhs)}, out, KnownApChange(true))
			return &FeltOperation{libFuncBase: withSignature(sig), Op: op}, nil
		case 1:
			c, err := singleValueArg(args)
			if err != nil {
				return nil, err
			}
			if op.divisionLike() && c.Sign() == 0 {
				return nil, unsupported("felt %s by constant zero", op)
			}
			sig := nonBranch([]ParamSignature{param(felt)}, out, KnownApChange(true))
			return &FeltOperation{libFuncBase: withSignature(sig), Op: op, Const: new(big.Int).Set(c)}, nil
		default:
			return nil, unsupported("expected at most one value argument, got %d", len(args))
		}
	}
}

func specializeFeltConst(ctx SpecializationContext, args []ir.GenericArg) (ConcreteLibFunc, error) {
	c, err := singleValueArg(args)
	if err != nil {
		return nil, err
	}
	felt, err := coreType(ctx, FeltTypeID)
	if err != nil {
		return nil, err
	}
	sig := nonBranch(nil, []OutputVarInfo{output(felt, DeferredConstRef())}, KnownApChange(true))
	return &FeltConst{libFuncBase: withSignature(sig), C: new(big.Int).Set(c)}, nil
}

// jumpNotZero builds the shared conditional-branch signature: branch 0
// (fallthrough) is taken on zero with no outputs, branch 1 carries the
// value as NonZero<T>.
func jumpNotZero(ty ir.GenericTypeID, build func(*LibFuncSignature) ConcreteLibFunc) LibFuncConstructor {
	return func(ctx SpecializationContext, args []ir.GenericArg) (ConcreteLibFunc, error) {
		if err := noArgs(args); err != nil {
			return nil, err
		}
		t, err := coreType(ctx, ty)
		if err != nil {
			return nil, err
		}
		nz, err := wrapType(ctx, NonZeroTypeID, t)
		if err != nil {
			return nil, err
		}
		sig := &LibFuncSignature{
			Params: []ParamSignature{param(t)},
			Branches: []BranchSignature{
				branch(KnownApChange(false)),
				branch(KnownApChange(false), output(nz, SameAsParam(0))),
			},
			Fallthrough: fallthroughAt(0),
		}
		return build(sig), nil
	}
}

package extensions

import "github.com/roach88/sierra/internal/ir"

// LibFuncSignature is the calling convention of a concrete libfunc.
type LibFuncSignature struct {
	Params   []ParamSignature
	Branches []BranchSignature

	// Fallthrough is the index of the branch that continues at the next
	// statement, or nil when every branch jumps.
	Fallthrough *int
}

// FallthroughBranch returns the fallthrough branch index, if any.
func (s *LibFuncSignature) FallthroughBranch() (int, bool) {
	if s.Fallthrough == nil {
		return 0, false
	}
	return *s.Fallthrough, true
}

// ParamSignature describes one input and which reference kinds it accepts.
type ParamSignature struct {
	Ty            ir.ConcreteTypeID
	AllowDeferred bool
	AllowAddConst bool
	AllowConst    bool
}

// BranchSignature describes the outputs of one branch.
type BranchSignature struct {
	Vars     []OutputVarInfo
	ApChange SierraApChange
}

// OutputVarInfo describes one output variable.
type OutputVarInfo struct {
	Ty  ir.ConcreteTypeID
	Ref OutputVarReferenceInfo
}

// RefKind tags the OutputVarReferenceInfo variant.
type RefKind int

const (
	// RefNewTempVar is a fresh temporary on the stack.
	RefNewTempVar RefKind = iota + 1
	// RefDeferred is an expression not yet materialized in memory.
	RefDeferred
	// RefSameAsParam shares storage with an input parameter.
	RefSameAsParam
)

// DeferredKind refines RefDeferred.
type DeferredKind int

const (
	DeferredConst DeferredKind = iota + 1
	DeferredAddConst
	DeferredGeneric
)

// OutputVarReferenceInfo says where an output value lives.
//
// TempIdx is the temporary's stack slot (-1 when unspecified) for
// RefNewTempVar. ParamIdx is meaningful for RefSameAsParam and for
// DeferredAddConst.
type OutputVarReferenceInfo struct {
	Kind     RefKind
	TempIdx  int
	Deferred DeferredKind
	ParamIdx int
}

// NewTempVar places the output in temporary slot idx.
func NewTempVar(idx int) OutputVarReferenceInfo {
	return OutputVarReferenceInfo{Kind: RefNewTempVar, TempIdx: idx}
}

// NewTempVarAnySlot places the output in an unspecified temporary slot.
func NewTempVarAnySlot() OutputVarReferenceInfo {
	return NewTempVar(-1)
}

// DeferredConstRef is a deferred constant.
func DeferredConstRef() OutputVarReferenceInfo {
	return OutputVarReferenceInfo{Kind: RefDeferred, Deferred: DeferredConst}
}

// DeferredAddConstRef is param + constant.
func DeferredAddConstRef(param int) OutputVarReferenceInfo {
	return OutputVarReferenceInfo{Kind: RefDeferred, Deferred: DeferredAddConst, ParamIdx: param}
}

// DeferredGenericRef is an arbitrary deferred expression.
func DeferredGenericRef() OutputVarReferenceInfo {
	return OutputVarReferenceInfo{Kind: RefDeferred, Deferred: DeferredGeneric}
}

// SameAsParam shares storage with parameter param.
func SameAsParam(param int) OutputVarReferenceInfo {
	return OutputVarReferenceInfo{Kind: RefSameAsParam, ParamIdx: param}
}

// SierraApChange is the provisional ap-change hint attached to a branch at
// specialization time. It only reflects local knowledge; the apchange
// package computes the authoritative value.
type SierraApChange struct {
	Implemented bool
	NewVarsOnly bool
}

// KnownApChange marks the branch's ap change as locally known.
func KnownApChange(newVarsOnly bool) SierraApChange {
	return SierraApChange{Implemented: true, NewVarsOnly: newVarsOnly}
}

// NotImplementedApChange marks the branch's ap change as not locally known.
func NotImplementedApChange() SierraApChange {
	return SierraApChange{}
}

func (a SierraApChange) String() string {
	switch {
	case !a.Implemented:
		return "NotImplemented"
	case a.NewVarsOnly:
		return "Known(new_vars_only)"
	default:
		return "Known"
	}
}

func param(ty *ConcreteType) ParamSignature {
	return ParamSignature{Ty: ty.ID()}
}

func constParam(ty *ConcreteType) ParamSignature {
	return ParamSignature{Ty: ty.ID(), AllowConst: true}
}

// anyRefParam accepts deferred, add-const and const references.
func anyRefParam(ty *ConcreteType) ParamSignature {
	return ParamSignature{Ty: ty.ID(), AllowDeferred: true, AllowAddConst: true, AllowConst: true}
}

func output(ty *ConcreteType, ref OutputVarReferenceInfo) OutputVarInfo {
	return OutputVarInfo{Ty: ty.ID(), Ref: ref}
}

func branch(ap SierraApChange, vars ...OutputVarInfo) BranchSignature {
	return BranchSignature{Vars: vars, ApChange: ap}
}

func fallthroughAt(idx int) *int {
	return &idx
}

// nonBranch builds the signature of a libfunc with a single fallthrough branch.
func nonBranch(params []ParamSignature, vars []OutputVarInfo, ap SierraApChange) *LibFuncSignature {
	return &LibFuncSignature{
		Params:      params,
		Branches:    []BranchSignature{branch(ap, vars...)},
		Fallthrough: fallthroughAt(0),
	}
}

package extensions

import "github.com/roach88/sierra/internal/ir"

// ConcreteLibFunc is one libfunc specialization.
//
// The set of implementations is closed: every variant lives in this
// package and dispatches through LibFuncVisitor, so adding a variant
// without teaching every visitor about it fails to compile.
type ConcreteLibFunc interface {
	// ID returns the derived concrete id, e.g. "felt_add<3>".
	ID() ir.ConcreteLibFuncID

	// Signature returns the calling convention.
	Signature() *LibFuncSignature

	// Accept calls the visitor method matching the variant.
	Accept(v LibFuncVisitor)

	base() *libFuncBase
}

// LibFuncVisitor has one method per concrete libfunc variant.
type LibFuncVisitor interface {
	// felt
	VisitFeltOperation(lf *FeltOperation)
	VisitFeltConst(lf *FeltConst)
	VisitFeltJumpNotZero(lf *FeltJumpNotZero)

	// uint128
	VisitUint128Operation(lf *Uint128Operation)
	VisitUint128Compare(lf *Uint128Compare)
	VisitUint128Const(lf *Uint128Const)
	VisitUint128FromFelt(lf *Uint128FromFelt)
	VisitUint128ToFelt(lf *Uint128ToFelt)
	VisitUint128JumpNotZero(lf *Uint128JumpNotZero)

	// pod
	VisitDup(lf *Dup)
	VisitDrop(lf *Drop)

	// NonZero
	VisitUnwrapNonZero(lf *UnwrapNonZero)

	// memory
	VisitStoreTemp(lf *StoreTemp)
	VisitAlignTemps(lf *AlignTemps)
	VisitStoreLocal(lf *StoreLocal)
	VisitFinalizeLocals(lf *FinalizeLocals)
	VisitAllocLocal(lf *AllocLocal)
	VisitRename(lf *Rename)

	// control
	VisitFunctionCall(lf *FunctionCall)
	VisitJump(lf *Jump)
	VisitRevokeApTracking(lf *RevokeApTracking)
	VisitBranchAlign(lf *BranchAlign)

	// Box
	VisitIntoBox(lf *IntoBox)
	VisitUnbox(lf *Unbox)

	// Array
	VisitArrayNew(lf *ArrayNew)
	VisitArrayAppend(lf *ArrayAppend)
	VisitArrayAt(lf *ArrayAt)
	VisitArrayLen(lf *ArrayLen)

	// DictFeltTo
	VisitDictFeltToNew(lf *DictFeltToNew)
	VisitDictFeltToRead(lf *DictFeltToRead)
	VisitDictFeltToWrite(lf *DictFeltToWrite)
	VisitDictFeltToSquash(lf *DictFeltToSquash)

	// hashing
	VisitPedersen(lf *Pedersen)

	// Enum
	VisitEnumInit(lf *EnumInit)
	VisitEnumMatch(lf *EnumMatch)

	// Struct
	VisitStructConstruct(lf *StructConstruct)
	VisitStructDeconstruct(lf *StructDeconstruct)
}

// libFuncBase carries what every variant shares.
type libFuncBase struct {
	id  ir.ConcreteLibFuncID
	sig *LibFuncSignature
}

func (b *libFuncBase) ID() ir.ConcreteLibFuncID     { return b.id }
func (b *libFuncBase) Signature() *LibFuncSignature { return b.sig }
func (b *libFuncBase) base() *libFuncBase           { return b }

func withSignature(sig *LibFuncSignature) libFuncBase {
	return libFuncBase{sig: sig}
}

// LibFuncConstructor specializes one generic libfunc family.
type LibFuncConstructor func(ctx SpecializationContext, args []ir.GenericArg) (ConcreteLibFunc, error)

// SpecializationContext is what libfunc constructors may consult: type
// specialization and the program's function table.
type SpecializationContext interface {
	TypeResolver

	// Function looks up a user function by id.
	Function(id ir.FunctionID) (*ir.Function, bool)
}

package apchange

import "github.com/roach88/sierra/internal/extensions"

// CoreLibFuncApChange returns one ApChange per branch of lf.
//
// Function calls are left as FunctionCall entries; Calculate resolves
// them against the callee summaries.
func CoreLibFuncApChange(lf extensions.ConcreteLibFunc) []ApChange {
	t := &coreTable{lf: lf}
	lf.Accept(t)
	return t.out
}

// coreTable holds the ap change of every core libfunc. Implementing
// LibFuncVisitor makes a libfunc variant without an entry a compile error.
type coreTable struct {
	lf  extensions.ConcreteLibFunc
	out []ApChange
}

var _ extensions.LibFuncVisitor = (*coreTable)(nil)

func (t *coreTable) known(ns ...int) {
	t.out = make([]ApChange, len(ns))
	for i, n := range ns {
		t.out[i] = Known(n)
	}
}

func (t *coreTable) set(changes ...ApChange) {
	t.out = changes
}

// unknown marks every branch of the libfunc as Unknown.
func (t *coreTable) unknown() {
	t.out = make([]ApChange, len(t.lf.Signature().Branches))
	for i := range t.out {
		t.out[i] = Unknown()
	}
}

func (t *coreTable) VisitFeltOperation(*extensions.FeltOperation)     { t.known(0) }
func (t *coreTable) VisitFeltConst(*extensions.FeltConst)             { t.known(0) }
func (t *coreTable) VisitFeltJumpNotZero(*extensions.FeltJumpNotZero) { t.known(0, 0) }

func (t *coreTable) VisitUint128Operation(lf *extensions.Uint128Operation) {
	if lf.Const != nil {
		t.unknown()
		return
	}
	switch lf.Op {
	case extensions.OverflowingAdd, extensions.OverflowingSub:
		t.known(2, 3)
	case extensions.OverflowingMul:
		t.unknown()
	case extensions.DivMod:
		t.known(5)
	}
}

func (t *coreTable) VisitUint128Compare(lf *extensions.Uint128Compare) {
	switch lf.Op {
	case extensions.LessThan:
		t.known(2, 3)
	case extensions.LessThanOrEqual:
		t.known(3, 2)
	}
}

func (t *coreTable) VisitUint128Const(*extensions.Uint128Const)             { t.known(0) }
func (t *coreTable) VisitUint128FromFelt(*extensions.Uint128FromFelt)       { t.known(1, 6) }
func (t *coreTable) VisitUint128ToFelt(*extensions.Uint128ToFelt)           { t.known(0) }
func (t *coreTable) VisitUint128JumpNotZero(*extensions.Uint128JumpNotZero) { t.known(0, 0) }

func (t *coreTable) VisitDup(*extensions.Dup)                     { t.known(0) }
func (t *coreTable) VisitDrop(*extensions.Drop)                   { t.known(0) }
func (t *coreTable) VisitUnwrapNonZero(*extensions.UnwrapNonZero) { t.known(0) }

func (t *coreTable) VisitStoreTemp(lf *extensions.StoreTemp)   { t.set(KnownByTypeSize(lf.Ty)) }
func (t *coreTable) VisitAlignTemps(lf *extensions.AlignTemps) { t.set(KnownByTypeSize(lf.Ty)) }
func (t *coreTable) VisitStoreLocal(*extensions.StoreLocal)    { t.known(0) }
func (t *coreTable) VisitFinalizeLocals(*extensions.FinalizeLocals) {
	t.set(FinalizeLocals())
}
func (t *coreTable) VisitAllocLocal(*extensions.AllocLocal) { t.known(0) }
func (t *coreTable) VisitRename(*extensions.Rename)         { t.known(0) }

func (t *coreTable) VisitFunctionCall(lf *extensions.FunctionCall) {
	t.set(FunctionCall(lf.Function.ID))
}
func (t *coreTable) VisitJump(*extensions.Jump)                         { t.known(0) }
func (t *coreTable) VisitRevokeApTracking(*extensions.RevokeApTracking) { t.set(Unknown()) }
func (t *coreTable) VisitBranchAlign(*extensions.BranchAlign)           { t.known(0) }

func (t *coreTable) VisitIntoBox(*extensions.IntoBox) { t.known(0) }
func (t *coreTable) VisitUnbox(*extensions.Unbox)     { t.known(0) }

func (t *coreTable) VisitArrayNew(*extensions.ArrayNew)       { t.known(1) }
func (t *coreTable) VisitArrayAppend(*extensions.ArrayAppend) { t.known(0) }
func (t *coreTable) VisitArrayAt(*extensions.ArrayAt)         { t.known(5, 3) }
func (t *coreTable) VisitArrayLen(*extensions.ArrayLen)       { t.known(0) }

func (t *coreTable) VisitDictFeltToNew(*extensions.DictFeltToNew)       { t.known(1) }
func (t *coreTable) VisitDictFeltToRead(*extensions.DictFeltToRead)     { t.known(1) }
func (t *coreTable) VisitDictFeltToWrite(*extensions.DictFeltToWrite)   { t.known(1) }
func (t *coreTable) VisitDictFeltToSquash(*extensions.DictFeltToSquash) { t.set(Unknown()) }

func (t *coreTable) VisitPedersen(*extensions.Pedersen) { t.known(0) }

func (t *coreTable) VisitEnumInit(*extensions.EnumInit) { t.known(0) }
func (t *coreTable) VisitEnumMatch(lf *extensions.EnumMatch) {
	t.out = make([]ApChange, len(lf.Ty.Members))
	for i := range t.out {
		t.out[i] = Known(0)
	}
}

func (t *coreTable) VisitStructConstruct(*extensions.StructConstruct)     { t.known(0) }
func (t *coreTable) VisitStructDeconstruct(*extensions.StructDeconstruct) { t.known(0) }

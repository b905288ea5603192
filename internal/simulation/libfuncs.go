package simulation

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/stark-curve/fp"
	pedersenhash "github.com/consensys/gnark-crypto/ecc/stark-curve/pedersen-hash"
	"github.com/holiman/uint256"

	"github.com/roach88/sierra/internal/extensions"
)

var (
	mask128    = new(uint256.Int).Sub(new(uint256.Int).Lsh(uint256.NewInt(1), 128), uint256.NewInt(1))
	bigMask128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))
)

// simulator evaluates one libfunc invocation: it validates the memory
// layout of its inputs and produces the outputs of the branch it selects.
type simulator struct {
	run    *run
	depth  int
	inputs [][]MemCell

	outputs [][]MemCell
	branch  int
	err     error
}

var _ extensions.LibFuncVisitor = (*simulator)(nil)

// simulate runs lf on inputs and returns the outputs and the chosen branch.
func (r *run) simulate(lf extensions.ConcreteLibFunc, inputs [][]MemCell, depth int) ([][]MemCell, int, error) {
	s := &simulator{run: r, depth: depth, inputs: inputs}
	lf.Accept(s)
	if s.err != nil {
		return nil, 0, s.err
	}
	return s.outputs, s.branch, nil
}

func (s *simulator) done(branch int, outputs ...[]MemCell) {
	s.branch = branch
	s.outputs = outputs
}

// expect checks the argument count.
func (s *simulator) expect(n int) bool {
	if len(s.inputs) != n {
		s.err = wrongNumberOfArgs(n, len(s.inputs))
		return false
	}
	return true
}

func (s *simulator) cell(i int) (MemCell, bool) {
	if len(s.inputs[i]) != 1 {
		s.err = memoryLayoutMismatch("argument %d: expected 1 cell, got %d", i, len(s.inputs[i]))
		return MemCell{}, false
	}
	return s.inputs[i][0], true
}

func (s *simulator) value(i int, ty *extensions.ConcreteType) ([]MemCell, bool) {
	if len(s.inputs[i]) != ty.Size() {
		s.err = memoryLayoutMismatch("argument %d: %s takes %d cells, got %d", i, ty.ID(), ty.Size(), len(s.inputs[i]))
		return nil, false
	}
	return s.inputs[i], true
}

func (s *simulator) u128(i int) (*uint256.Int, bool) {
	c, ok := s.cell(i)
	if !ok {
		return nil, false
	}
	u, ok := c.uint128()
	if !ok {
		s.err = memoryLayoutMismatch("argument %d: %s is not a uint128", i, c)
		return nil, false
	}
	return u, true
}

func (s *simulator) handle(i int) (MemCell, bool) {
	return s.cell(i)
}

func (s *simulator) VisitFeltOperation(lf *extensions.FeltOperation) {
	want := 2
	if lf.Const != nil {
		want = 1
	}
	if !s.expect(want) {
		return
	}
	a, ok := s.cell(0)
	if !ok {
		return
	}
	var b fp.Element
	if lf.Const != nil {
		b.SetBigInt(lf.Const)
	} else {
		c, ok := s.cell(1)
		if !ok {
			return
		}
		b = c.v
	}

	var r MemCell
	switch lf.Op {
	case extensions.FeltAdd:
		r.v.Add(&a.v, &b)
	case extensions.FeltSub:
		r.v.Sub(&a.v, &b)
	case extensions.FeltMul:
		r.v.Mul(&a.v, &b)
	case extensions.FeltDiv:
		if b.IsZero() {
			s.err = memoryLayoutMismatch("felt division by zero")
			return
		}
		var inv fp.Element
		inv.Inverse(&b)
		r.v.Mul(&a.v, &inv)
	case extensions.FeltMod:
		// Field division is exact: the remainder is always zero.
	}
	s.done(0, []MemCell{r})
}

func (s *simulator) VisitFeltConst(lf *extensions.FeltConst) {
	if s.expect(0) {
		s.done(0, []MemCell{CellFromBig(lf.C)})
	}
}

func (s *simulator) VisitFeltJumpNotZero(*extensions.FeltJumpNotZero) {
	s.jumpNotZero()
}

func (s *simulator) VisitUint128JumpNotZero(*extensions.Uint128JumpNotZero) {
	s.jumpNotZero()
}

func (s *simulator) jumpNotZero() {
	if !s.expect(1) {
		return
	}
	c, ok := s.cell(0)
	if !ok {
		return
	}
	if c.IsZero() {
		s.done(0)
		return
	}
	s.done(1, []MemCell{c})
}

func (s *simulator) VisitUint128Operation(lf *extensions.Uint128Operation) {
	want := 3
	if lf.Const != nil {
		want = 2
	}
	if !s.expect(want) {
		return
	}
	rc := s.inputs[0]
	a, ok := s.u128(1)
	if !ok {
		return
	}
	b := lf.Const
	if b == nil {
		if b, ok = s.u128(2); !ok {
			return
		}
	}

	var (
		r        = new(uint256.Int)
		overflow bool
	)
	switch lf.Op {
	case extensions.OverflowingAdd:
		r.Add(a, b)
		overflow = r.Gt(mask128)
	case extensions.OverflowingSub:
		overflow = a.Lt(b)
		r.Sub(a, b)
	case extensions.OverflowingMul:
		r.Mul(a, b)
		overflow = r.Gt(mask128)
	case extensions.DivMod:
		if b.IsZero() {
			s.err = memoryLayoutMismatch("uint128 division by zero")
			return
		}
		q := new(uint256.Int).Div(a, b)
		m := new(uint256.Int).Mod(a, b)
		s.done(0, rc, []MemCell{cellFromUint256(q)}, []MemCell{cellFromUint256(m)})
		return
	}
	r.And(r, mask128)
	branch := 0
	if overflow {
		branch = 1
	}
	s.done(branch, rc, []MemCell{cellFromUint256(r)})
}

func (s *simulator) VisitUint128Compare(lf *extensions.Uint128Compare) {
	if !s.expect(3) {
		return
	}
	a, ok := s.u128(1)
	if !ok {
		return
	}
	b, ok := s.u128(2)
	if !ok {
		return
	}
	holds := a.Lt(b)
	if lf.Op == extensions.LessThanOrEqual {
		holds = !b.Lt(a)
	}
	branch := 1
	if holds {
		branch = 0
	}
	s.done(branch, s.inputs[0])
}

func (s *simulator) VisitUint128Const(lf *extensions.Uint128Const) {
	if s.expect(0) {
		s.done(0, []MemCell{cellFromUint256(lf.C)})
	}
}

func (s *simulator) VisitUint128FromFelt(*extensions.Uint128FromFelt) {
	if !s.expect(2) {
		return
	}
	c, ok := s.cell(1)
	if !ok {
		return
	}
	n := c.Big()
	if n.BitLen() <= 128 {
		s.done(0, s.inputs[0], []MemCell{c})
		return
	}
	high := new(big.Int).Rsh(n, 128)
	low := new(big.Int).And(n, bigMask128)
	s.done(1, s.inputs[0], []MemCell{CellFromBig(high)}, []MemCell{CellFromBig(low)})
}

func (s *simulator) VisitUint128ToFelt(*extensions.Uint128ToFelt) {
	if !s.expect(1) {
		return
	}
	if _, ok := s.u128(0); ok {
		s.done(0, s.inputs[0])
	}
}

func (s *simulator) VisitDup(lf *extensions.Dup) {
	if !s.expect(1) {
		return
	}
	if v, ok := s.value(0, lf.Ty); ok {
		s.done(0, v, copyValue(v))
	}
}

func (s *simulator) VisitDrop(lf *extensions.Drop) {
	if !s.expect(1) {
		return
	}
	if _, ok := s.value(0, lf.Ty); ok {
		s.done(0)
	}
}

func (s *simulator) VisitUnwrapNonZero(lf *extensions.UnwrapNonZero) {
	s.identity(lf.Ty)
}

func (s *simulator) VisitStoreTemp(lf *extensions.StoreTemp) {
	s.identity(lf.Ty)
}

func (s *simulator) VisitRename(lf *extensions.Rename) {
	s.identity(lf.Ty)
}

func (s *simulator) identity(ty *extensions.ConcreteType) {
	if !s.expect(1) {
		return
	}
	if v, ok := s.value(0, ty); ok {
		s.done(0, v)
	}
}

func (s *simulator) VisitAlignTemps(*extensions.AlignTemps) {
	if s.expect(0) {
		s.done(0)
	}
}

func (s *simulator) VisitStoreLocal(lf *extensions.StoreLocal) {
	if !s.expect(2) {
		return
	}
	if len(s.inputs[0]) != 0 {
		s.err = memoryLayoutMismatch("argument 0: uninitialized local must be empty, got %d cells", len(s.inputs[0]))
		return
	}
	if v, ok := s.value(1, lf.Ty); ok {
		s.done(0, v)
	}
}

func (s *simulator) VisitFinalizeLocals(*extensions.FinalizeLocals) {
	if s.expect(0) {
		s.done(0)
	}
}

func (s *simulator) VisitAllocLocal(*extensions.AllocLocal) {
	if s.expect(0) {
		s.done(0, []MemCell{})
	}
}

func (s *simulator) VisitFunctionCall(lf *extensions.FunctionCall) {
	if !s.expect(len(lf.Function.Params)) {
		return
	}
	if limit := s.run.in.maxCallDepth; limit > 0 && s.depth+1 > limit {
		s.err = callDepthExceeded(limit)
		return
	}
	outputs, err := s.run.call(lf.Function, s.inputs, s.depth+1)
	if err != nil {
		s.err = err
		return
	}
	s.done(0, outputs...)
}

func (s *simulator) VisitJump(*extensions.Jump) {
	if s.expect(0) {
		s.done(0)
	}
}

func (s *simulator) VisitRevokeApTracking(*extensions.RevokeApTracking) {
	if s.expect(0) {
		s.done(0)
	}
}

func (s *simulator) VisitBranchAlign(*extensions.BranchAlign) {
	if s.expect(0) {
		s.done(0)
	}
}

func (s *simulator) VisitIntoBox(lf *extensions.IntoBox) {
	if !s.expect(1) {
		return
	}
	if v, ok := s.value(0, lf.Ty); ok {
		s.done(0, []MemCell{s.run.memory.newBox(v)})
	}
}

func (s *simulator) VisitUnbox(*extensions.Unbox) {
	if !s.expect(1) {
		return
	}
	h, ok := s.handle(0)
	if !ok {
		return
	}
	v, ok := s.run.memory.box(h)
	if !ok {
		s.err = memoryLayoutMismatch("argument 0: %s is not a box", h)
		return
	}
	s.done(0, v)
}

// array decodes an Array value into its segment, handle index and length.
func (s *simulator) array(i int, elem *extensions.ConcreteType) ([]MemCell, int, int, bool) {
	if len(s.inputs[i]) != 2 {
		s.err = memoryLayoutMismatch("argument %d: array takes 2 cells, got %d", i, len(s.inputs[i]))
		return nil, 0, 0, false
	}
	seg, idx, ok := s.run.memory.segment(s.inputs[i][0])
	if !ok {
		s.err = memoryLayoutMismatch("argument %d: %s is not an array segment", i, s.inputs[i][0])
		return nil, 0, 0, false
	}
	n, ok := s.inputs[i][1].handle()
	if !ok || n*elem.Size() != len(seg) {
		s.err = memoryLayoutMismatch("argument %d: array length %s does not match its segment", i, s.inputs[i][1])
		return nil, 0, 0, false
	}
	return seg, idx, n, true
}

func (s *simulator) VisitArrayNew(*extensions.ArrayNew) {
	if s.expect(0) {
		s.done(0, []MemCell{s.run.memory.newSegment(), Cell(0)})
	}
}

func (s *simulator) VisitArrayAppend(lf *extensions.ArrayAppend) {
	if !s.expect(2) {
		return
	}
	seg, idx, n, ok := s.array(0, lf.Ty)
	if !ok {
		return
	}
	v, ok := s.value(1, lf.Ty)
	if !ok {
		return
	}
	s.run.memory.segments[idx] = append(seg, v...)
	s.done(0, []MemCell{s.inputs[0][0], CellFromUint64(uint64(n + 1))})
}

func (s *simulator) VisitArrayAt(lf *extensions.ArrayAt) {
	if !s.expect(3) {
		return
	}
	seg, _, n, ok := s.array(1, lf.Ty)
	if !ok {
		return
	}
	i, ok := s.u128(2)
	if !ok {
		return
	}
	if !i.IsUint64() || i.Uint64() >= uint64(n) {
		s.done(1, s.inputs[0], s.inputs[1])
		return
	}
	size := lf.Ty.Size()
	at := int(i.Uint64()) * size
	s.done(0, s.inputs[0], s.inputs[1], copyValue(seg[at:at+size]))
}

func (s *simulator) VisitArrayLen(lf *extensions.ArrayLen) {
	if !s.expect(1) {
		return
	}
	if _, _, n, ok := s.array(0, lf.Ty); ok {
		s.done(0, s.inputs[0], []MemCell{CellFromUint64(uint64(n))})
	}
}

func (s *simulator) dict(i int) (*dict, bool) {
	h, ok := s.handle(i)
	if !ok {
		return nil, false
	}
	d, ok := s.run.memory.dict(h)
	if !ok {
		s.err = memoryLayoutMismatch("argument %d: %s is not a live dictionary", i, h)
		return nil, false
	}
	return d, true
}

func (s *simulator) VisitDictFeltToNew(*extensions.DictFeltToNew) {
	if s.expect(0) {
		s.done(0, []MemCell{s.run.memory.newDict()})
	}
}

func (s *simulator) VisitDictFeltToRead(lf *extensions.DictFeltToRead) {
	if !s.expect(2) {
		return
	}
	d, ok := s.dict(0)
	if !ok {
		return
	}
	key, ok := s.cell(1)
	if !ok {
		return
	}
	v, found := d.entries[key.v]
	if !found {
		v = make([]MemCell, lf.Ty.Size())
	}
	s.done(0, s.inputs[0], copyValue(v))
}

func (s *simulator) VisitDictFeltToWrite(lf *extensions.DictFeltToWrite) {
	if !s.expect(3) {
		return
	}
	d, ok := s.dict(0)
	if !ok {
		return
	}
	key, ok := s.cell(1)
	if !ok {
		return
	}
	v, ok := s.value(2, lf.Ty)
	if !ok {
		return
	}
	d.entries[key.v] = copyValue(v)
	s.done(0, s.inputs[0])
}

func (s *simulator) VisitDictFeltToSquash(*extensions.DictFeltToSquash) {
	if !s.expect(2) {
		return
	}
	h, ok := s.handle(1)
	if !ok {
		return
	}
	squashed, ok := s.run.memory.squash(h)
	if !ok {
		s.err = memoryLayoutMismatch("argument 1: %s is not a live dictionary", h)
		return
	}
	s.done(0, s.inputs[0], []MemCell{squashed})
}

func (s *simulator) VisitPedersen(*extensions.Pedersen) {
	if !s.expect(3) {
		return
	}
	a, ok := s.cell(1)
	if !ok {
		return
	}
	b, ok := s.cell(2)
	if !ok {
		return
	}
	var h MemCell
	h.v = pedersenhash.Pedersen(&a.v, &b.v)
	s.done(0, s.inputs[0], []MemCell{h})
}

func (s *simulator) VisitEnumInit(lf *extensions.EnumInit) {
	if !s.expect(1) {
		return
	}
	v, ok := s.value(0, lf.Ty.Members[lf.Index])
	if !ok {
		return
	}
	out := make([]MemCell, lf.Ty.Size())
	out[0] = Cell(int64(lf.Index))
	copy(out[1:], v)
	s.done(0, out)
}

func (s *simulator) VisitEnumMatch(lf *extensions.EnumMatch) {
	if !s.expect(1) {
		return
	}
	v, ok := s.value(0, lf.Ty)
	if !ok {
		return
	}
	idx := v[0].Big()
	if !idx.IsInt64() || idx.Int64() >= int64(len(lf.Ty.Members)) {
		s.err = memoryLayoutMismatch("argument 0: %s is not a variant of %s", v[0], lf.Ty.ID())
		return
	}
	variant := int(idx.Int64())
	s.done(variant, copyValue(v[1:1+lf.Ty.Members[variant].Size()]))
}

func (s *simulator) VisitStructConstruct(lf *extensions.StructConstruct) {
	if !s.expect(len(lf.Ty.Members)) {
		return
	}
	out := make([]MemCell, 0, lf.Ty.Size())
	for i, m := range lf.Ty.Members {
		v, ok := s.value(i, m)
		if !ok {
			return
		}
		out = append(out, v...)
	}
	s.done(0, out)
}

func (s *simulator) VisitStructDeconstruct(lf *extensions.StructDeconstruct) {
	if !s.expect(1) {
		return
	}
	v, ok := s.value(0, lf.Ty)
	if !ok {
		return
	}
	outputs := make([][]MemCell, len(lf.Ty.Members))
	for i, m := range lf.Ty.Members {
		outputs[i] = copyValue(v[:m.Size()])
		v = v[m.Size():]
	}
	s.done(0, outputs...)
}

package simulation

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sierra/internal/extensions"
	"github.com/roach88/sierra/internal/ir"
)

type harness struct {
	t       *testing.T
	catalog *extensions.Catalog
	run     *run
}

func newHarness(t *testing.T) *harness {
	return &harness{
		t:       t,
		catalog: extensions.NewCoreCatalog(),
		run:     &run{memory: newMemory(), quota: NewQuotaEnforcer(0)},
	}
}

func (h *harness) simulate(id ir.GenericLibFuncID, args []ir.GenericArg, inputs ...[]MemCell) ([][]MemCell, int, error) {
	h.t.Helper()
	lf, err := h.catalog.SpecializeLibFunc(nil, id, args)
	require.NoError(h.t, err)
	return h.run.simulate(lf, inputs, 0)
}

func (h *harness) ok(id ir.GenericLibFuncID, args []ir.GenericArg, inputs ...[]MemCell) ([]string, int) {
	h.t.Helper()
	out, branch, err := h.simulate(id, args, inputs...)
	require.NoError(h.t, err)
	return values(h.t, out), branch
}

func one(n int64) []MemCell { return []MemCell{Cell(n)} }

func TestFeltArithmetic(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		id     ir.GenericLibFuncID
		args   []ir.GenericArg
		inputs [][]MemCell
		want   string
	}{
		{"felt_add", nil, [][]MemCell{one(2), one(3)}, "5"},
		{"felt_sub", nil, [][]MemCell{one(2), one(3)}, new(big.Int).Sub(starkPrime(), big.NewInt(1)).String()},
		{"felt_mul", nil, [][]MemCell{one(6), one(7)}, "42"},
		{"felt_div", nil, [][]MemCell{one(42), one(7)}, "6"},
		{"felt_mod", nil, [][]MemCell{one(42), one(5)}, "0"},
		{"felt_add", []ir.GenericArg{ir.IntArg(10)}, [][]MemCell{one(5)}, "15"},
		{"felt_mul", []ir.GenericArg{ir.IntArg(-1)}, [][]MemCell{one(1)}, new(big.Int).Sub(starkPrime(), big.NewInt(1)).String()},
		{"felt_div", []ir.GenericArg{ir.IntArg(3)}, [][]MemCell{one(12)}, "4"},
		{"felt_const", []ir.GenericArg{ir.IntArg(99)}, nil, "99"},
	}
	for _, tt := range tests {
		t.Run(string(ir.LibFuncLongID(tt.id, tt.args)), func(t *testing.T) {
			out, branch := h.ok(tt.id, tt.args, tt.inputs...)
			assert.Equal(t, 0, branch)
			assert.Equal(t, []string{tt.want}, out)
		})
	}
}

func TestFeltDivisionIsInverseOfMultiplication(t *testing.T) {
	h := newHarness(t)

	q, _ := h.ok("felt_div", nil, one(1), one(3))
	back, _ := h.ok("felt_mul", []ir.GenericArg{ir.IntArg(3)}, []MemCell{mustParse(t, q[0])})
	assert.Equal(t, []string{"1"}, back)
}

func TestJumpNotZero(t *testing.T) {
	h := newHarness(t)

	out, branch := h.ok("felt_jump_nz", nil, one(0))
	assert.Equal(t, 0, branch)
	assert.Empty(t, out)

	out, branch = h.ok("felt_jump_nz", nil, one(3))
	assert.Equal(t, 1, branch)
	assert.Equal(t, []string{"3"}, out)

	_, branch = h.ok("uint128_jump_nz", nil, one(0))
	assert.Equal(t, 0, branch)
}

func TestUint128Operations(t *testing.T) {
	h := newHarness(t)
	max := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))
	maxCell := []MemCell{CellFromBig(max)}

	out, branch := h.ok("uint128_overflow_add", nil, one(7), one(2), one(3))
	assert.Equal(t, 0, branch)
	assert.Equal(t, []string{"7", "5"}, out)

	out, branch = h.ok("uint128_overflow_add", nil, one(7), maxCell, one(2))
	assert.Equal(t, 1, branch)
	assert.Equal(t, []string{"7", "1"}, out)

	out, branch = h.ok("uint128_overflow_sub", nil, one(7), one(2), one(3))
	assert.Equal(t, 1, branch)
	assert.Equal(t, []string{"7", max.String()}, out)

	out, branch = h.ok("uint128_overflow_sub", []ir.GenericArg{ir.IntArg(2)}, one(7), one(5))
	assert.Equal(t, 0, branch)
	assert.Equal(t, []string{"7", "3"}, out)

	out, branch = h.ok("uint128_overflow_mul", nil, one(7), maxCell, one(2))
	assert.Equal(t, 1, branch)
	assert.Equal(t, []string{"7", new(big.Int).Sub(max, big.NewInt(1)).String()}, out)

	out, branch = h.ok("uint128_safe_divmod", nil, one(7), one(17), one(5))
	assert.Equal(t, 0, branch)
	assert.Equal(t, []string{"7", "3", "2"}, out)

	out, _ = h.ok("uint128_safe_divmod", []ir.GenericArg{ir.IntArg(4)}, one(7), one(17))
	assert.Equal(t, []string{"7", "4", "1"}, out)
}

func TestUint128Comparisons(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		id         ir.GenericLibFuncID
		a, b       int64
		wantBranch int
	}{
		{"uint128_lt", 1, 2, 0},
		{"uint128_lt", 2, 2, 1},
		{"uint128_lt", 3, 2, 1},
		{"uint128_le", 1, 2, 0},
		{"uint128_le", 2, 2, 0},
		{"uint128_le", 3, 2, 1},
	}
	for _, tt := range tests {
		_, branch := h.ok(tt.id, nil, one(0), one(tt.a), one(tt.b))
		assert.Equal(t, tt.wantBranch, branch, "%s(%d, %d)", tt.id, tt.a, tt.b)
	}
}

func TestUint128FromFelt(t *testing.T) {
	h := newHarness(t)

	out, branch := h.ok("uint128s_from_felt", nil, one(0), one(12))
	assert.Equal(t, 0, branch)
	assert.Equal(t, []string{"0", "12"}, out)

	// 3 * 2^128 + 5 splits into (3, 5).
	n := new(big.Int).Add(new(big.Int).Lsh(big.NewInt(3), 128), big.NewInt(5))
	out, branch = h.ok("uint128s_from_felt", nil, one(0), []MemCell{CellFromBig(n)})
	assert.Equal(t, 1, branch)
	assert.Equal(t, []string{"0", "3", "5"}, out)
}

func TestUint128RejectsOversizedCells(t *testing.T) {
	h := newHarness(t)
	wide := []MemCell{CellFromBig(new(big.Int).Lsh(big.NewInt(1), 130))}

	_, _, err := h.simulate("uint128_to_felt", nil, wide)
	require.Error(t, err)
	var lerr *libfuncError
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, ErrCodeMemoryLayoutMismatch, lerr.code)
}

func TestWrongNumberOfArgs(t *testing.T) {
	h := newHarness(t)

	_, _, err := h.simulate("felt_add", nil, one(1))
	require.Error(t, err)
	var lerr *libfuncError
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, ErrCodeWrongNumberOfArgs, lerr.code)
}

func TestPodAndMem(t *testing.T) {
	h := newHarness(t)

	out, _ := h.ok("dup", []ir.GenericArg{feltArg}, one(4))
	assert.Equal(t, []string{"4", "4"}, out)

	out, _ = h.ok("drop", []ir.GenericArg{uint128Arg}, one(4))
	assert.Empty(t, out)

	out, _ = h.ok("store_temp", []ir.GenericArg{feltArg}, one(4))
	assert.Equal(t, []string{"4"}, out)

	slot, _, err := h.simulate("alloc_local", []ir.GenericArg{feltArg})
	require.NoError(t, err)
	require.Len(t, slot, 1)
	assert.Empty(t, slot[0])

	out, _ = h.ok("store_local", []ir.GenericArg{feltArg}, slot[0], one(8))
	assert.Equal(t, []string{"8"}, out)

	out, _ = h.ok("finalize_locals", nil)
	assert.Empty(t, out)
}

func TestBox(t *testing.T) {
	h := newHarness(t)

	boxed, _, err := h.simulate("into_box", []ir.GenericArg{feltArg}, one(11))
	require.NoError(t, err)
	require.Len(t, boxed, 1)

	out, _ := h.ok("unbox", []ir.GenericArg{feltArg}, boxed[0])
	assert.Equal(t, []string{"11"}, out)
}

func TestArray(t *testing.T) {
	h := newHarness(t)
	args := []ir.GenericArg{feltArg}

	res, _, err := h.simulate("array_new", args)
	require.NoError(t, err)
	arr := res[0]

	for _, v := range []int64{10, 20, 30} {
		res, _, err = h.simulate("array_append", args, arr, one(v))
		require.NoError(t, err)
		arr = res[0]
	}

	out, _ := h.ok("array_len", args, arr)
	assert.Equal(t, "3", out[1])

	res, branch, err := h.simulate("array_at", args, one(0), arr, one(1))
	require.NoError(t, err)
	assert.Equal(t, 0, branch)
	assert.Equal(t, "20", FormatValue(res[2]))

	res, branch, err = h.simulate("array_at", args, one(0), arr, one(3))
	require.NoError(t, err)
	assert.Equal(t, 1, branch)
	assert.Len(t, res, 2)
}

func TestDictFeltTo(t *testing.T) {
	h := newHarness(t)
	args := []ir.GenericArg{feltArg}

	res, _, err := h.simulate("dict_felt_to_new", args)
	require.NoError(t, err)
	d := res[0]

	out, _ := h.ok("dict_felt_to_read", args, d, one(1))
	assert.Equal(t, "0", out[1])

	_, _, err = h.simulate("dict_felt_to_write", args, d, one(1), one(77))
	require.NoError(t, err)

	out, _ = h.ok("dict_felt_to_read", args, d, one(1))
	assert.Equal(t, "77", out[1])

	res, _, err = h.simulate("dict_felt_to_squash", args, one(0), d)
	require.NoError(t, err)
	require.Len(t, res, 2)

	// A squashed dictionary is no longer writable.
	_, _, err = h.simulate("dict_felt_to_write", args, d, one(1), one(1))
	assert.Error(t, err)
}

func TestPedersen(t *testing.T) {
	h := newHarness(t)

	a, _ := h.ok("pedersen", nil, one(0), one(1), one(2))
	b, _ := h.ok("pedersen", nil, one(0), one(1), one(2))
	c, _ := h.ok("pedersen", nil, one(0), one(2), one(1))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a[1], c[1])
	assert.Equal(t, "0", a[0])
}

func starkPrime() *big.Int {
	p := new(big.Int).Lsh(big.NewInt(1), 251)
	p.Add(p, new(big.Int).Lsh(big.NewInt(17), 192))
	return p.Add(p, big.NewInt(1))
}

func mustParse(t *testing.T, s string) MemCell {
	t.Helper()
	c, ok := ParseCell(s)
	require.True(t, ok, "parse %q", s)
	return c
}

func TestEnumLibFuncs(t *testing.T) {
	h := newHarness(t)
	pair := ir.T(extensions.StructTypeID, feltArg, feltArg)
	feltOrUint128 := ir.TypeArg(ir.T(extensions.EnumTypeID, feltArg, uint128Arg))
	feltOrPair := ir.TypeArg(ir.T(extensions.EnumTypeID, feltArg, ir.TypeArg(pair)))

	out, branch := h.ok("enum_init", []ir.GenericArg{feltOrUint128, ir.IntArg(1)}, one(7))
	assert.Equal(t, 0, branch)
	assert.Equal(t, []string{"1 7"}, out)

	// Smaller variants are padded to the largest.
	out, _ = h.ok("enum_init", []ir.GenericArg{feltOrPair, ir.IntArg(0)}, one(5))
	assert.Equal(t, []string{"0 5 0"}, out)

	out, branch = h.ok("enum_match", []ir.GenericArg{feltOrUint128}, []MemCell{Cell(1), Cell(7)})
	assert.Equal(t, 1, branch)
	assert.Equal(t, []string{"7"}, out)

	out, branch = h.ok("enum_match", []ir.GenericArg{feltOrPair}, []MemCell{Cell(0), Cell(5), Cell(0)})
	assert.Equal(t, 0, branch)
	assert.Equal(t, []string{"5"}, out)

	out, branch = h.ok("enum_match", []ir.GenericArg{feltOrPair}, []MemCell{Cell(1), Cell(5), Cell(6)})
	assert.Equal(t, 1, branch)
	assert.Equal(t, []string{"5 6"}, out)
}

func TestEnumLayoutErrors(t *testing.T) {
	h := newHarness(t)
	feltOrUint128 := ir.TypeArg(ir.T(extensions.EnumTypeID, feltArg, uint128Arg))

	_, _, err := h.simulate("enum_match", []ir.GenericArg{feltOrUint128}, []MemCell{Cell(2), Cell(7)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a variant")

	_, _, err = h.simulate("enum_match", []ir.GenericArg{feltOrUint128}, one(1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "takes 2 cells, got 1")

	_, _, err = h.simulate("enum_init", []ir.GenericArg{feltOrUint128, ir.IntArg(0)}, []MemCell{Cell(1), Cell(2)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "takes 1 cells, got 2")
}

func TestStructLibFuncs(t *testing.T) {
	h := newHarness(t)
	mixed := ir.TypeArg(ir.T(extensions.StructTypeID, feltArg, uint128Arg))

	out, _ := h.ok("struct_construct", []ir.GenericArg{mixed}, one(1), one(2))
	assert.Equal(t, []string{"1 2"}, out)

	out, _ = h.ok("struct_deconstruct", []ir.GenericArg{mixed}, []MemCell{Cell(1), Cell(2)})
	assert.Equal(t, []string{"1", "2"}, out)

	_, _, err := h.simulate("struct_construct", []ir.GenericArg{mixed}, one(1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 2 arguments, got 1")

	unit := ir.TypeArg(ir.T(extensions.StructTypeID))
	out, _ = h.ok("struct_construct", []ir.GenericArg{unit})
	assert.Equal(t, []string{""}, out)
}

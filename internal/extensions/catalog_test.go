package extensions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sierra/internal/ir"
)

var (
	felt    = ir.T(FeltTypeID)
	uint128 = ir.T(Uint128TypeID)

	feltOrUint128 = ir.T(EnumTypeID, ir.TypeArg(felt), ir.TypeArg(uint128))
	feltPair      = ir.T(StructTypeID, ir.TypeArg(felt), ir.TypeArg(felt))
)

func TestConstDivisorZeroIsUnsupported(t *testing.T) {
	c := NewCoreCatalog()

	for _, id := range []ir.GenericLibFuncID{"felt_div", "felt_mod", "uint128_safe_divmod"} {
		t.Run(string(id), func(t *testing.T) {
			_, err := c.SpecializeLibFunc(nil, id, []ir.GenericArg{ir.IntArg(0)})
			require.Error(t, err)
			assert.True(t, IsUnsupportedGenericArg(err))

			var se *SpecializationError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, string(id), se.ID)
		})
	}
}

func TestNonZeroConstDivisor(t *testing.T) {
	c := NewCoreCatalog()

	lf, err := c.SpecializeLibFunc(nil, "felt_div", []ir.GenericArg{ir.IntArg(7)})
	require.NoError(t, err)

	op, ok := lf.(*FeltOperation)
	require.True(t, ok)
	assert.Equal(t, FeltDiv, op.Op)
	assert.Equal(t, int64(7), op.Const.Int64())
	assert.Equal(t, ir.ConcreteLibFuncID("felt_div<7>"), lf.ID())
	assert.Len(t, lf.Signature().Params, 1)
}

func TestBinaryDivisionTakesNonZero(t *testing.T) {
	c := NewCoreCatalog()

	lf, err := c.SpecializeLibFunc(nil, "felt_div", nil)
	require.NoError(t, err)
	params := lf.Signature().Params
	require.Len(t, params, 2)
	assert.Equal(t, ir.ConcreteTypeID("felt"), params[0].Ty)
	assert.Equal(t, ir.ConcreteTypeID("NonZero<felt>"), params[1].Ty)
	assert.True(t, params[1].AllowConst)

	lf, err = c.SpecializeLibFunc(nil, "uint128_safe_divmod", nil)
	require.NoError(t, err)
	params = lf.Signature().Params
	require.Len(t, params, 3)
	assert.Equal(t, ir.ConcreteTypeID("RangeCheck"), params[0].Ty)
	assert.Equal(t, ir.ConcreteTypeID("NonZero<uint128>"), params[2].Ty)
}

func TestUnknownID(t *testing.T) {
	c := NewCoreCatalog()

	_, err := c.SpecializeLibFunc(nil, "felt_pow", nil)
	assert.True(t, IsUnknownID(err))

	_, err = c.SpecializeType("float", nil)
	assert.True(t, IsUnknownID(err))

	// An unknown type nested inside a known family is still UnknownID.
	_, err = c.SpecializeType(NonZeroTypeID, []ir.GenericArg{ir.TypeArg(ir.T("float"))})
	assert.True(t, IsUnknownID(err))
}

func TestWrongArgumentShape(t *testing.T) {
	c := NewCoreCatalog()

	tests := []struct {
		name string
		id   ir.GenericLibFuncID
		args []ir.GenericArg
	}{
		{"const without value", "felt_const", nil},
		{"const with type", "felt_const", []ir.GenericArg{ir.TypeArg(felt)}},
		{"add with two values", "felt_add", []ir.GenericArg{ir.IntArg(1), ir.IntArg(2)}},
		{"jump_nz with args", "felt_jump_nz", []ir.GenericArg{ir.IntArg(1)}},
		{"lt with args", "uint128_lt", []ir.GenericArg{ir.IntArg(1)}},
		{"uint128 const too large", "uint128_const", []ir.GenericArg{ir.ValueArg(pow2(128))}},
		{"uint128 const negative", "uint128_const", []ir.GenericArg{ir.IntArg(-1)}},
		{"store_temp with value", "store_temp", []ir.GenericArg{ir.IntArg(1)}},
		{"dup of non-duplicatable", "dup", []ir.GenericArg{ir.TypeArg(ir.T(RangeCheckTypeID))}},
		{"drop of non-droppable", "drop", []ir.GenericArg{ir.TypeArg(ir.T(DictFeltToTypeID, ir.TypeArg(felt)))}},
		{"function_call with type", "function_call", []ir.GenericArg{ir.TypeArg(felt)}},
		{"store_temp of uninitialized", "store_temp", []ir.GenericArg{ir.TypeArg(ir.T(UninitializedTypeID, ir.TypeArg(felt)))}},
		{"enum_init without index", "enum_init", []ir.GenericArg{ir.TypeArg(feltOrUint128)}},
		{"enum_init index out of range", "enum_init", []ir.GenericArg{ir.TypeArg(feltOrUint128), ir.IntArg(2)}},
		{"enum_init negative index", "enum_init", []ir.GenericArg{ir.TypeArg(feltOrUint128), ir.IntArg(-1)}},
		{"enum_match of struct", "enum_match", []ir.GenericArg{ir.TypeArg(feltPair)}},
		{"struct_construct of felt", "struct_construct", []ir.GenericArg{ir.TypeArg(felt)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.SpecializeLibFunc(nil, tt.id, tt.args)
			require.Error(t, err)
			assert.True(t, IsUnsupportedGenericArg(err), "got %v", err)
		})
	}
}

func TestTypeInfo(t *testing.T) {
	c := NewCoreCatalog()

	tests := []struct {
		ref  ir.TypeRef
		want TypeInfo
	}{
		{felt, TypeInfo{LongID: "felt", Storable: true, Droppable: true, Duplicatable: true, Size: 1}},
		{uint128, TypeInfo{LongID: "uint128", Storable: true, Droppable: true, Duplicatable: true, Size: 1}},
		{ir.T(RangeCheckTypeID), TypeInfo{LongID: "RangeCheck", Storable: true, Size: 1}},
		{ir.T(NonZeroTypeID, ir.TypeArg(felt)), TypeInfo{LongID: "NonZero<felt>", Storable: true, Droppable: true, Duplicatable: true, Size: 1}},
		{ir.T(ArrayTypeID, ir.TypeArg(felt)), TypeInfo{LongID: "Array<felt>", Storable: true, Droppable: true, Size: 2}},
		{ir.T(BoxTypeID, ir.TypeArg(uint128)), TypeInfo{LongID: "Box<uint128>", Storable: true, Droppable: true, Duplicatable: true, Size: 1}},
		{ir.T(DictFeltToTypeID, ir.TypeArg(felt)), TypeInfo{LongID: "DictFeltTo<felt>", Storable: true, Size: 1}},
		{ir.T(SquashedDictFeltToTypeID, ir.TypeArg(felt)), TypeInfo{LongID: "SquashedDictFeltTo<felt>", Storable: true, Droppable: true, Size: 1}},
		{ir.T(UninitializedTypeID, ir.TypeArg(felt)), TypeInfo{LongID: "Uninitialized<felt>", Droppable: true}},
		{feltOrUint128, TypeInfo{LongID: "Enum<felt, uint128>", Storable: true, Droppable: true, Duplicatable: true, Size: 2}},
		{ir.T(EnumTypeID, ir.TypeArg(feltPair), ir.TypeArg(felt)), TypeInfo{LongID: "Enum<Struct<felt, felt>, felt>", Storable: true, Droppable: true, Duplicatable: true, Size: 3}},
		{feltPair, TypeInfo{LongID: "Struct<felt, felt>", Storable: true, Droppable: true, Duplicatable: true, Size: 2}},
		{ir.T(StructTypeID), TypeInfo{LongID: "Struct", Storable: true, Droppable: true, Duplicatable: true}},
		{ir.T(StructTypeID, ir.TypeArg(felt), ir.TypeArg(ir.T(RangeCheckTypeID))), TypeInfo{LongID: "Struct<felt, RangeCheck>", Storable: true, Size: 2}},
	}
	for _, tt := range tests {
		t.Run(string(tt.ref.ID()), func(t *testing.T) {
			ty, err := c.SpecializeType(tt.ref.Generic, tt.ref.Args)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ty.Info)
		})
	}
}

func TestSpecializationIsDeterministic(t *testing.T) {
	c := NewCoreCatalog()

	for _, id := range c.LibFuncIDs() {
		args := sampleArgs(id)
		t.Run(string(id), func(t *testing.T) {
			a, err := c.SpecializeLibFunc(nil, id, args)
			if id == "function_call" {
				assert.True(t, IsMissingFunction(err))
				return
			}
			require.NoError(t, err)
			b, err := c.SpecializeLibFunc(nil, id, args)
			require.NoError(t, err)

			assert.Equal(t, a.ID(), b.ID())
			assert.Equal(t, a.Signature(), b.Signature())
			assert.IsType(t, a, b)
		})
	}
}

func TestUint128OverflowSignature(t *testing.T) {
	c := NewCoreCatalog()

	lf, err := c.SpecializeLibFunc(nil, "uint128_overflow_add", nil)
	require.NoError(t, err)
	sig := lf.Signature()
	require.Len(t, sig.Branches, 2)
	ft, ok := sig.FallthroughBranch()
	require.True(t, ok)
	assert.Equal(t, 0, ft)
	for _, b := range sig.Branches {
		require.Len(t, b.Vars, 2)
		assert.Equal(t, DeferredAddConstRef(0), b.Vars[0].Ref)
		assert.Equal(t, KnownApChange(false), b.ApChange)
	}

	lf, err = c.SpecializeLibFunc(nil, "uint128_overflow_add", []ir.GenericArg{ir.IntArg(5)})
	require.NoError(t, err)
	assert.Equal(t, ir.ConcreteLibFuncID("uint128_overflow_add<5>"), lf.ID())
	assert.Equal(t, NotImplementedApChange(), lf.Signature().Branches[0].ApChange)
}

func TestJumpHasNoFallthrough(t *testing.T) {
	c := NewCoreCatalog()

	lf, err := c.SpecializeLibFunc(nil, "jump", nil)
	require.NoError(t, err)
	_, ok := lf.Signature().FallthroughBranch()
	assert.False(t, ok)
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	c := NewCoreCatalog()
	assert.Panics(t, func() {
		c.RegisterLibFunc("felt_add", specializeFeltConst)
	})
	assert.Panics(t, func() {
		c.RegisterType(FeltTypeID, scalarType(TypeFelt, true, true))
	})
}

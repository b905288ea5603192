package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpecializationDigestDeterminism(t *testing.T) {
	args := []GenericArg{TypeArg(T("NonZero", TypeArg(T("felt"))))}

	d1, err := SpecializationDigest(KindLibFunc, "unwrap_nz", args)
	require.NoError(t, err)
	d2, err := SpecializationDigest(KindLibFunc, "unwrap_nz", []GenericArg{TypeArg(T("NonZero", TypeArg(T("felt"))))})
	require.NoError(t, err)

	assert.Equal(t, d1, d2)
	assert.Len(t, d1, 64, "SHA-256 hex is 64 characters")
}

func TestSpecializationDigestSeparatesInputs(t *testing.T) {
	base, err := SpecializationDigest(KindLibFunc, "felt_add", []GenericArg{IntArg(5)})
	require.NoError(t, err)

	otherValue, err := SpecializationDigest(KindLibFunc, "felt_add", []GenericArg{IntArg(6)})
	require.NoError(t, err)
	otherKind, err := SpecializationDigest(KindType, "felt_add", []GenericArg{IntArg(5)})
	require.NoError(t, err)
	noArgs, err := SpecializationDigest(KindLibFunc, "felt_add", nil)
	require.NoError(t, err)

	assert.NotEqual(t, base, otherValue)
	assert.NotEqual(t, base, otherKind)
	assert.NotEqual(t, base, noArgs)
}

func TestProgramDigest(t *testing.T) {
	p := &Program{
		Funcs: []Function{{ID: "main", Entry: 0}},
		Statements: []Statement{
			Invoke("felt_const", []GenericArg{IntArg(5)}, nil, Branch(Fallthrough(), "x")),
			Return("x"),
		},
	}
	d1 := MustProgramDigest(p)
	d2 := MustProgramDigest(p)
	assert.Equal(t, d1, d2)

	p.Statements[0].Invocation.Args = []GenericArg{IntArg(6)}
	assert.NotEqual(t, d1, MustProgramDigest(p))
}

func TestInputsDigest(t *testing.T) {
	d1, err := InputsDigest([][]string{{"1"}, {"1"}, {"7"}})
	require.NoError(t, err)
	d2, err := InputsDigest([][]string{{"1", "1"}, {"7"}})
	require.NoError(t, err)
	assert.NotEqual(t, d1, d2, "cell grouping is part of the identity")
}

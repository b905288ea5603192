package simulation

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sierra/internal/ir"
)

func TestEnvMoveSemantics(t *testing.T) {
	env := NewEnv()
	require.NoError(t, env.Put("x", []MemCell{Cell(1)}))

	err := env.Put("x", []MemCell{Cell(2)})
	var eerr *EditStateError
	require.True(t, errors.As(err, &eerr))
	assert.Equal(t, VariableOverride, eerr.Kind)
	assert.Equal(t, ir.VarID("x"), eerr.Var)

	v, err := env.Take("x")
	require.NoError(t, err)
	assert.Equal(t, "1", FormatValue(v))
	assert.Equal(t, 0, env.Len())

	_, err = env.Take("x")
	require.True(t, errors.As(err, &eerr))
	assert.Equal(t, MissingReference, eerr.Kind)
}

func TestEnvTakeAllAndPutAll(t *testing.T) {
	env := NewEnv()
	require.NoError(t, env.PutAll(ir.Vars("b", "a"), Cells(2, 1)))
	assert.Equal(t, []ir.VarID{"a", "b"}, env.Bound())

	vals, err := env.TakeAll(ir.Vars("a", "b"))
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, values(t, vals))

	assert.Error(t, env.PutAll(ir.Vars("a"), Cells(1, 2)))

	// Taking the same variable twice is a missing reference.
	require.NoError(t, env.Put("a", []MemCell{Cell(1)}))
	_, err = env.TakeAll(ir.Vars("a", "a"))
	var eerr *EditStateError
	require.ErrorAs(t, err, &eerr)
	assert.Equal(t, MissingReference, eerr.Kind)
}

func TestQuotaEnforcer(t *testing.T) {
	q := NewQuotaEnforcer(2)
	require.NoError(t, q.Check())
	require.NoError(t, q.Check())

	err := q.Check()
	var serr *StepsExceededError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, 3, serr.Steps)
	assert.Equal(t, 2, serr.Limit)

	unlimited := NewQuotaEnforcer(0)
	for range 1000 {
		require.NoError(t, unlimited.Check())
	}
	assert.Equal(t, 1000, unlimited.Current())
}

func TestMemCellReduction(t *testing.T) {
	p := starkPrime()

	assert.True(t, CellFromBig(p).IsZero())
	assert.True(t, Cell(-1).Equal(CellFromBig(new(big.Int).Sub(p, big.NewInt(1)))))
	assert.Equal(t, "1", CellFromBig(new(big.Int).Add(p, big.NewInt(1))).String())

	c, ok := ParseCell("0x10")
	require.True(t, ok)
	assert.Equal(t, "16", c.String())

	_, ok = ParseCell("ten")
	assert.False(t, ok)
}

func TestMemCellUint128Range(t *testing.T) {
	max := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

	u, ok := CellFromBig(max).uint128()
	require.True(t, ok)
	assert.Equal(t, max, u.ToBig())

	_, ok = CellFromBig(new(big.Int).Add(max, big.NewInt(1))).uint128()
	assert.False(t, ok)

	_, ok = Cell(-1).uint128()
	assert.False(t, ok)
}

func TestParseAndFormatValues(t *testing.T) {
	vs, err := ParseValues([][]string{{"1", "0x10"}, {"-1"}, {}})
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"1", "16"},
		{"3618502788666131213697322783095070105623107215331596699973092056135872020480"},
		{},
	}, FormatValues(vs))

	_, err = ParseValues([][]string{{"seven"}})
	assert.ErrorContains(t, err, `invalid number "seven"`)
}

package simulation

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/consensys/gnark-crypto/ecc/stark-curve/fp"
	"github.com/holiman/uint256"
)

// MemCell is one machine word: an element of the STARK prime field
// P = 2^251 + 17*2^192 + 1.
type MemCell struct {
	v fp.Element
}

// Cell returns the cell holding n (reduced modulo P when negative).
func Cell(n int64) MemCell {
	var c MemCell
	c.v.SetInt64(n)
	return c
}

// CellFromUint64 returns the cell holding n.
func CellFromUint64(n uint64) MemCell {
	var c MemCell
	c.v.SetUint64(n)
	return c
}

// CellFromBig returns the cell holding n modulo P.
func CellFromBig(n *big.Int) MemCell {
	var c MemCell
	c.v.SetBigInt(n)
	return c
}

// ParseCell parses a decimal (optionally negative) or 0x-prefixed hex value.
func ParseCell(s string) (MemCell, bool) {
	n, ok := new(big.Int).SetString(strings.TrimSpace(s), 0)
	if !ok {
		return MemCell{}, false
	}
	return CellFromBig(n), true
}

func cellFromUint256(u *uint256.Int) MemCell {
	return CellFromBig(u.ToBig())
}

// Big returns the canonical representative in [0, P).
func (c MemCell) Big() *big.Int {
	return c.v.BigInt(new(big.Int))
}

// IsZero reports whether the cell holds 0.
func (c MemCell) IsZero() bool {
	return c.v.IsZero()
}

// Equal reports whether two cells hold the same element.
func (c MemCell) Equal(o MemCell) bool {
	return c.v.Equal(&o.v)
}

// String renders the cell in decimal.
func (c MemCell) String() string {
	return c.Big().String()
}

// uint128 returns the cell as a uint128, or false if it does not fit.
func (c MemCell) uint128() (*uint256.Int, bool) {
	b := c.Big()
	if b.BitLen() > 128 {
		return nil, false
	}
	u, overflow := uint256.FromBig(b)
	return u, !overflow
}

// handle decodes a cell holding a memory handle (segment index).
func (c MemCell) handle() (int, bool) {
	b := c.Big()
	if !b.IsInt64() || b.Int64() > int64(^uint32(0)) {
		return 0, false
	}
	return int(b.Int64()), true
}

// Cells builds a value vector of single-cell values, one per argument.
// Convenient for felt and uint128 inputs.
func Cells(ns ...int64) [][]MemCell {
	out := make([][]MemCell, len(ns))
	for i, n := range ns {
		out[i] = []MemCell{Cell(n)}
	}
	return out
}

// FormatValue renders a value as space-separated decimal cells.
func FormatValue(v []MemCell) string {
	parts := make([]string, len(v))
	for i, c := range v {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}

// ValueStrings renders each cell of a value in decimal.
func ValueStrings(v []MemCell) []string {
	out := make([]string, len(v))
	for i, c := range v {
		out[i] = c.String()
	}
	return out
}

// ParseValues parses values given as lists of cell literals, as accepted by
// ParseCell.
func ParseValues(in [][]string) ([][]MemCell, error) {
	out := make([][]MemCell, len(in))
	for i, v := range in {
		out[i] = make([]MemCell, len(v))
		for j, s := range v {
			c, ok := ParseCell(s)
			if !ok {
				return nil, fmt.Errorf("value %d cell %d: invalid number %q", i, j, s)
			}
			out[i][j] = c
		}
	}
	return out, nil
}

// FormatValues renders every value with ValueStrings.
func FormatValues(vs [][]MemCell) [][]string {
	out := make([][]string, len(vs))
	for i, v := range vs {
		out[i] = ValueStrings(v)
	}
	return out
}

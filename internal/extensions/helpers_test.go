package extensions

import (
	"math/big"

	"github.com/roach88/sierra/internal/ir"
)

// sampleArgs returns arguments every core libfunc family accepts.
func sampleArgs(id ir.GenericLibFuncID) []ir.GenericArg {
	switch id {
	case "felt_const", "uint128_const":
		return []ir.GenericArg{ir.IntArg(5)}
	case "function_call":
		return []ir.GenericArg{ir.UserFuncArg("f")}
	case "dup", "drop", "store_temp", "align_temps", "store_local", "alloc_local", "rename",
		"unwrap_nz", "into_box", "unbox",
		"array_new", "array_append", "array_at", "array_len",
		"dict_felt_to_new", "dict_felt_to_read", "dict_felt_to_write", "dict_felt_to_squash":
		return []ir.GenericArg{ir.TypeArg(felt)}
	case "enum_init":
		return []ir.GenericArg{ir.TypeArg(feltOrUint128), ir.IntArg(0)}
	case "enum_match":
		return []ir.GenericArg{ir.TypeArg(feltOrUint128)}
	case "struct_construct", "struct_deconstruct":
		return []ir.GenericArg{ir.TypeArg(feltPair)}
	default:
		return nil
	}
}

func pow2(n uint) *big.Int {
	return new(big.Int).Lsh(big.NewInt(1), n)
}

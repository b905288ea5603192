package apchange

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sierra/internal/extensions"
	"github.com/roach88/sierra/internal/ir"
)

var (
	felt    = ir.T(extensions.FeltTypeID)
	feltArg = ir.TypeArg(felt)

	enumArg   = ir.TypeArg(ir.T(extensions.EnumTypeID, feltArg, feltArg, feltArg))
	structArg = ir.TypeArg(ir.T(extensions.StructTypeID, feltArg, feltArg))
)

func calculate(t *testing.T, p *ir.Program) *ProgramInfo {
	t.Helper()
	registry, err := extensions.NewProgramRegistry(extensions.NewCoreCatalog(), p)
	require.NoError(t, err)
	info, err := Calculate(registry)
	require.NoError(t, err)
	return info
}

func feltFunc(id ir.FunctionID, entry ir.StatementIdx) ir.Function {
	return ir.Function{
		ID:       id,
		Params:   []ir.Param{{ID: "n", Ty: felt}},
		RetTypes: []ir.TypeRef{felt},
		Entry:    entry,
	}
}

func storeTemp(in, out string) ir.Statement {
	return ir.Invoke("store_temp", []ir.GenericArg{feltArg}, ir.Vars(in), ir.Branch(ir.Fallthrough(), ir.VarID(out)))
}

func call(fn ir.FunctionID, in, out string) ir.Statement {
	return ir.Invoke("function_call", []ir.GenericArg{ir.UserFuncArg(fn)}, ir.Vars(in), ir.Branch(ir.Fallthrough(), ir.VarID(out)))
}

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
		return []ir.GenericArg{feltArg}
	case "enum_init":
		return []ir.GenericArg{enumArg, ir.IntArg(1)}
	case "enum_match":
		return []ir.GenericArg{enumArg}
	case "struct_construct", "struct_deconstruct":
		return []ir.GenericArg{structArg}
	default:
		return nil
	}
}

func TestEveryLibFuncHasOneChangePerBranch(t *testing.T) {
	catalog := extensions.NewCoreCatalog()
	registry, err := extensions.NewProgramRegistry(catalog, &ir.Program{
		Funcs:      []ir.Function{feltFunc("f", 0)},
		Statements: []ir.Statement{ir.Return("n")},
	})
	require.NoError(t, err)

	for _, id := range catalog.LibFuncIDs() {
		t.Run(string(id), func(t *testing.T) {
			lf, err := registry.LibFunc(id, sampleArgs(id))
			require.NoError(t, err)

			changes := CoreLibFuncApChange(lf)
			require.Len(t, changes, len(lf.Signature().Branches))
			for _, c := range changes {
				assert.NotZero(t, c.Kind, "%s has an unset change", lf.ID())
			}
		})
	}
}

func TestCoreTable(t *testing.T) {
	catalog := extensions.NewCoreCatalog()

	tests := []struct {
		id   ir.GenericLibFuncID
		args []ir.GenericArg
		want []string
	}{
		{"felt_add", nil, []string{"Known(0)"}},
		{"felt_jump_nz", nil, []string{"Known(0)", "Known(0)"}},
		{"uint128_overflow_add", nil, []string{"Known(2)", "Known(3)"}},
		{"uint128_overflow_sub", nil, []string{"Known(2)", "Known(3)"}},
		{"uint128_overflow_mul", nil, []string{"Unknown", "Unknown"}},
		{"uint128_overflow_add", []ir.GenericArg{ir.IntArg(1)}, []string{"Unknown", "Unknown"}},
		{"uint128_safe_divmod", nil, []string{"Known(5)"}},
		{"uint128_lt", nil, []string{"Known(2)", "Known(3)"}},
		{"uint128_le", nil, []string{"Known(3)", "Known(2)"}},
		{"uint128s_from_felt", nil, []string{"Known(1)", "Known(6)"}},
		{"store_temp", []ir.GenericArg{feltArg}, []string{"KnownByTypeSize(felt)"}},
		{"finalize_locals", nil, []string{"FinalizeLocals"}},
		{"revoke_ap_tracking", nil, []string{"Unknown"}},
		{"array_at", []ir.GenericArg{feltArg}, []string{"Known(5)", "Known(3)"}},
		{"dict_felt_to_squash", []ir.GenericArg{feltArg}, []string{"Unknown"}},
		{"pedersen", nil, []string{"Known(0)"}},
		{"enum_init", []ir.GenericArg{enumArg, ir.IntArg(2)}, []string{"Known(0)"}},
		{"enum_match", []ir.GenericArg{enumArg}, []string{"Known(0)", "Known(0)", "Known(0)"}},
		{"struct_construct", []ir.GenericArg{structArg}, []string{"Known(0)"}},
		{"struct_deconstruct", []ir.GenericArg{structArg}, []string{"Known(0)"}},
	}
	for _, tt := range tests {
		t.Run(string(ir.LibFuncLongID(tt.id, tt.args)), func(t *testing.T) {
			lf, err := catalog.SpecializeLibFunc(nil, tt.id, tt.args)
			require.NoError(t, err)

			var got []string
			for _, c := range CoreLibFuncApChange(lf) {
				got = append(got, c.String())
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFunctionCallIsResolvedFromCallee(t *testing.T) {
	p := &ir.Program{
		Funcs: []ir.Function{feltFunc("main", 0), feltFunc("inc", 3)},
		Statements: []ir.Statement{
			call("inc", "n", "y"),
			storeTemp("y", "z"),
			ir.Return("z"),

			storeTemp("n", "m"),
			ir.Return("m"),
		},
	}
	info := calculate(t, p)

	assert.Equal(t, []ApChange{FunctionCall("inc")}, info.Statement(0))

	n, ok := info.Resolved(0, 0)
	require.True(t, ok)
	assert.Equal(t, 1, n)

	n, ok = info.Resolved(1, 0)
	require.True(t, ok)
	assert.Equal(t, 1, n)

	main, _ := info.Function("main")
	assert.Equal(t, Known(2), main)

	// Callees come first.
	assert.Equal(t, [][]ir.FunctionID{{"inc"}, {"main"}}, info.Components())

	assert.Nil(t, info.Statement(2))
	_, ok = info.Resolved(2, 0)
	assert.False(t, ok)
}

// branching returns through two paths; the nonzero path stores one extra
// temporary unless align is set on the zero path.
func branching(align bool) *ir.Program {
	zero := []ir.Statement{
		ir.Invoke("felt_const", []ir.GenericArg{ir.IntArg(0)}, nil, ir.Branch(ir.Fallthrough(), "r")),
		storeTemp("r", "s"),
	}
	if align {
		zero = append(zero, ir.Invoke("align_temps", []ir.GenericArg{feltArg}, nil, ir.Branch(ir.Fallthrough())))
	}
	stmts := []ir.Statement{
		ir.Invoke("felt_jump_nz", nil, ir.Vars("n"),
			ir.Branch(ir.Fallthrough()),
			ir.Branch(ir.ToLabel("NZ"), "n_nz")),
	}
	stmts = append(stmts, zero...)
	stmts = append(stmts,
		ir.Return("s"),
		ir.Label("NZ"),
		ir.Invoke("unwrap_nz", []ir.GenericArg{feltArg}, ir.Vars("n_nz"), ir.Branch(ir.Fallthrough(), "m")),
		storeTemp("m", "m1"),
		storeTemp("m1", "m2"),
		ir.Return("m2"),
	)
	return &ir.Program{Funcs: []ir.Function{feltFunc("f", 0)}, Statements: stmts}
}

func TestDisagreeingPathsAreUnknown(t *testing.T) {
	info := calculate(t, branching(false))
	f, _ := info.Function("f")
	assert.Equal(t, Unknown(), f)

	info = calculate(t, branching(true))
	f, _ = info.Function("f")
	assert.Equal(t, Known(2), f)
}

// countdown recurses on n-1 until n is zero. extra stores one temporary
// after the recursive call.
func countdown(extra bool) *ir.Program {
	stmts := []ir.Statement{
		ir.Invoke("felt_jump_nz", nil, ir.Vars("n"),
			ir.Branch(ir.Fallthrough()),
			ir.Branch(ir.ToLabel("BODY"), "n_nz")),
		ir.Invoke("felt_const", []ir.GenericArg{ir.IntArg(0)}, nil, ir.Branch(ir.Fallthrough(), "r")),
		storeTemp("r", "s"),
		ir.Return("s"),
		ir.Label("BODY"),
		ir.Invoke("unwrap_nz", []ir.GenericArg{feltArg}, ir.Vars("n_nz"), ir.Branch(ir.Fallthrough(), "m")),
		ir.Invoke("felt_sub", []ir.GenericArg{ir.IntArg(1)}, ir.Vars("m"), ir.Branch(ir.Fallthrough(), "k")),
		call("countdown", "k", "r2"),
	}
	if extra {
		stmts = append(stmts, storeTemp("r2", "r3"), ir.Return("r3"))
	} else {
		stmts = append(stmts, ir.Return("r2"))
	}
	return &ir.Program{Funcs: []ir.Function{feltFunc("countdown", 0)}, Statements: stmts}
}

func TestRecursion(t *testing.T) {
	info := calculate(t, countdown(false))
	f, _ := info.Function("countdown")
	assert.Equal(t, Known(1), f)

	n, ok := info.Resolved(7, 0)
	require.True(t, ok)
	assert.Equal(t, 1, n)

	info = calculate(t, countdown(true))
	f, _ = info.Function("countdown")
	assert.Equal(t, Unknown(), f)
	_, ok = info.Resolved(7, 0)
	assert.False(t, ok)
}

func TestMutualRecursion(t *testing.T) {
	body := func(base int64, other ir.FunctionID, label ir.LabelID) []ir.Statement {
		return []ir.Statement{
			ir.Invoke("felt_jump_nz", nil, ir.Vars("n"),
				ir.Branch(ir.Fallthrough()),
				ir.Branch(ir.ToLabel(label), "n_nz")),
			ir.Invoke("felt_const", []ir.GenericArg{ir.IntArg(base)}, nil, ir.Branch(ir.Fallthrough(), "r")),
			storeTemp("r", "s"),
			ir.Return("s"),
			ir.Label(label),
			ir.Invoke("unwrap_nz", []ir.GenericArg{feltArg}, ir.Vars("n_nz"), ir.Branch(ir.Fallthrough(), "m")),
			ir.Invoke("felt_sub", []ir.GenericArg{ir.IntArg(1)}, ir.Vars("m"), ir.Branch(ir.Fallthrough(), "k")),
			call(other, "k", "r2"),
			ir.Return("r2"),
		}
	}
	even := body(1, "odd", "EVEN_BODY")
	odd := body(0, "even", "ODD_BODY")
	p := &ir.Program{
		Funcs:      []ir.Function{feltFunc("even", 0), feltFunc("odd", ir.StatementIdx(len(even)))},
		Statements: append(even, odd...),
	}
	info := calculate(t, p)

	require.Len(t, info.Components(), 1)
	assert.ElementsMatch(t, []ir.FunctionID{"even", "odd"}, info.Components()[0])

	for _, id := range []ir.FunctionID{"even", "odd"} {
		f, ok := info.Function(id)
		require.True(t, ok)
		assert.Equal(t, Known(1), f, id)
	}
}

// spin loops until n is zero. store keeps a temporary per iteration.
func spin(store bool) *ir.Program {
	step := ir.Invoke("rename", []ir.GenericArg{feltArg}, ir.Vars("n2"), ir.Branch(ir.Fallthrough(), "n"))
	if store {
		step = storeTemp("n2", "n")
	}
	return &ir.Program{
		Funcs: []ir.Function{feltFunc("spin", 0)},
		Statements: []ir.Statement{
			ir.Label("LOOP"),
			ir.Invoke("felt_jump_nz", nil, ir.Vars("n"),
				ir.Branch(ir.Fallthrough()),
				ir.Branch(ir.ToLabel("BODY"), "n_nz")),
			ir.Invoke("felt_const", []ir.GenericArg{ir.IntArg(0)}, nil, ir.Branch(ir.Fallthrough(), "r")),
			ir.Return("r"),
			ir.Label("BODY"),
			ir.Invoke("unwrap_nz", []ir.GenericArg{feltArg}, ir.Vars("n_nz"), ir.Branch(ir.Fallthrough(), "m")),
			ir.Invoke("felt_sub", []ir.GenericArg{ir.IntArg(1)}, ir.Vars("m"), ir.Branch(ir.Fallthrough(), "n2")),
			step,
			ir.Invoke("jump", nil, nil, ir.Branch(ir.ToLabel("LOOP"))),
		},
	}
}

func TestLoops(t *testing.T) {
	info := calculate(t, spin(false))
	f, _ := info.Function("spin")
	assert.Equal(t, Known(0), f)

	info = calculate(t, spin(true))
	f, _ = info.Function("spin")
	assert.Equal(t, Unknown(), f)
}

func TestUnknownPropagatesToCallers(t *testing.T) {
	p := &ir.Program{
		Funcs: []ir.Function{feltFunc("main", 0), feltFunc("revoke", 2)},
		Statements: []ir.Statement{
			call("revoke", "n", "y"),
			ir.Return("y"),

			ir.Invoke("revoke_ap_tracking", nil, nil, ir.Branch(ir.Fallthrough())),
			ir.Return("n"),
		},
	}
	info := calculate(t, p)

	_, ok := info.Resolved(0, 0)
	assert.False(t, ok)
	main, _ := info.Function("main")
	assert.Equal(t, Unknown(), main)
}

func TestFunctionThatNeverReturnsIsUnknown(t *testing.T) {
	p := &ir.Program{
		Funcs: []ir.Function{feltFunc("forever", 0)},
		Statements: []ir.Statement{
			call("forever", "n", "m"),
			ir.Return("m"),
		},
	}
	info := calculate(t, p)
	f, _ := info.Function("forever")
	assert.Equal(t, Unknown(), f)
}

func TestCalculateErrors(t *testing.T) {
	tests := []struct {
		name string
		p    *ir.Program
		code ErrorCode
		stmt ir.StatementIdx
	}{
		{
			name: "unknown libfunc",
			p: &ir.Program{
				Funcs:      []ir.Function{feltFunc("f", 0)},
				Statements: []ir.Statement{ir.Return("n"), ir.Invoke("felt_frobnicate", nil, nil)},
			},
			code: ErrCodeSpecialization,
			stmt: 1,
		},
		{
			name: "branch count",
			p: &ir.Program{
				Funcs: []ir.Function{feltFunc("f", 0)},
				Statements: []ir.Statement{
					ir.Invoke("felt_jump_nz", nil, ir.Vars("n"), ir.Branch(ir.Fallthrough())),
					ir.Return(),
				},
			},
			code: ErrCodeBranchCountMismatch,
			stmt: 0,
		},
		{
			name: "unknown label",
			p: &ir.Program{
				Funcs: []ir.Function{feltFunc("f", 0)},
				Statements: []ir.Statement{
					ir.Invoke("jump", nil, nil, ir.Branch(ir.ToLabel("NOWHERE"))),
				},
			},
			code: ErrCodeUnknownLabel,
			stmt: 0,
		},
		{
			name: "falls off the end",
			p: &ir.Program{
				Funcs:      []ir.Function{feltFunc("f", 0)},
				Statements: []ir.Statement{storeTemp("n", "m")},
			},
			code: ErrCodeStatementOutOfBounds,
			stmt: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry, err := extensions.NewProgramRegistry(extensions.NewCoreCatalog(), tt.p)
			require.NoError(t, err)

			_, err = Calculate(registry)
			require.Error(t, err)
			assert.True(t, HasCode(err, tt.code), "got %v", err)

			var aerr *AnalysisError
			require.ErrorAs(t, err, &aerr)
			assert.Equal(t, tt.stmt, aerr.Statement)
		})
	}
}

package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// loopProgram counts n down to zero using a backward label jump.
func loopProgram() *Program {
	return &Program{
		Funcs: []Function{{
			ID:     "countdown",
			Params: []Param{{ID: "n", Ty: T("felt")}},
			Entry:  0,
		}},
		Statements: []Statement{
			Label("LOOP"),
			Invoke("felt_jump_nz", nil, Vars("n"),
				Branch(Fallthrough()),
				Branch(ToLabel("BODY"), "n_nz")),
			Invoke("felt_const", []GenericArg{IntArg(0)}, nil, Branch(Fallthrough(), "zero")),
			Return("zero"),
			Label("BODY"),
			Invoke("unwrap_nz", []GenericArg{TypeArg(T("felt"))}, Vars("n_nz"), Branch(Fallthrough(), "m")),
			Invoke("felt_sub", []GenericArg{IntArg(1)}, Vars("m"), Branch(Fallthrough(), "n")),
			Invoke("jump", nil, nil, Branch(ToLabel("LOOP"))),
		},
	}
}

func TestLabelMapNext(t *testing.T) {
	p := loopProgram()
	labels := NewLabelMap(p.Statements)

	assert.Equal(t, StatementIdx(2), labels.Next(1, Fallthrough()))
	assert.Equal(t, StatementIdx(4), labels.Next(1, ToLabel("BODY")))
	assert.Equal(t, StatementIdx(0), labels.Next(7, ToLabel("LOOP")))
	assert.Equal(t, StatementIdx(3), labels.Next(7, ToStatement(3)))
}

func TestLabelMapPanicsOnUnknownLabel(t *testing.T) {
	labels := NewLabelMap(loopProgram().Statements)
	assert.Panics(t, func() {
		labels.Next(0, ToLabel("MISSING"))
	})
}

func TestLowerStripsLabels(t *testing.T) {
	lowered, err := Lower(loopProgram())
	require.NoError(t, err)

	require.Len(t, lowered.Statements, 6)
	for _, s := range lowered.Statements {
		assert.NotEqual(t, StmtLabel, s.Kind)
	}
	assert.Equal(t, StatementIdx(0), lowered.Funcs[0].Entry)

	// felt_jump_nz: fallthrough -> felt_const (1), BODY -> unwrap_nz (3).
	jnz := lowered.Statements[0].Invocation
	assert.Equal(t, ToStatement(1), jnz.Branches[0].Target)
	assert.Equal(t, ToStatement(3), jnz.Branches[1].Target)

	// jump LOOP -> felt_jump_nz (0).
	jump := lowered.Statements[5].Invocation
	assert.Equal(t, ToStatement(0), jump.Branches[0].Target)
}

func TestLowerUnknownLabel(t *testing.T) {
	p := &Program{
		Statements: []Statement{
			Invoke("jump", nil, nil, Branch(ToLabel("NOWHERE"))),
		},
	}
	_, err := Lower(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NOWHERE")
}

func TestValidateCollectsAllErrors(t *testing.T) {
	p := &Program{
		Funcs: []Function{
			{ID: "f", Entry: 0, Params: []Param{{ID: "a"}, {ID: "a"}}},
			{ID: "f", Entry: 9},
		},
		Statements: []Statement{
			Label("L"),
			Label("L"),
			Invoke("jump", nil, nil, Branch(ToLabel("MISSING"))),
			Invoke("felt_dup", nil, Vars("x")),
			Invoke("felt_ignore", nil, Vars("x"), Branch(Fallthrough())),
		},
	}

	errs := p.Validate()
	messages := make([]string, len(errs))
	for i, e := range errs {
		messages[i] = e.Error()
	}

	assert.Len(t, errs, 7)
	assert.Contains(t, messages, `funcs[0].params[1]: duplicate parameter: "a"`)
	assert.Contains(t, messages, `funcs[1].id: duplicate function id: "f"`)
	assert.Contains(t, messages, "funcs[1].entry: entry #9 out of bounds (5 statements)")
	assert.Contains(t, messages, `statements[1]: duplicate label: "L"`)
	assert.Contains(t, messages, `statements[2].branches[0]: unknown label: "MISSING"`)
	assert.Contains(t, messages, "statements[3].branches: at least one branch is required")
	assert.Contains(t, messages, "statements[4].branches[0]: fallthrough past the last statement")
}

func TestValidateAcceptsWellFormedProgram(t *testing.T) {
	assert.Empty(t, loopProgram().Validate())
}

func TestStatementString(t *testing.T) {
	p := loopProgram()
	assert.Equal(t, "LOOP:", p.Statements[0].String())
	assert.Equal(t, "felt_jump_nz(n) { fallthrough() BODY(n_nz) };", p.Statements[1].String())
	assert.Equal(t, "felt_const<0>() -> (zero);", p.Statements[2].String())
	assert.Equal(t, "return(zero);", p.Statements[3].String())
	assert.Equal(t, "unwrap_nz<felt>(n_nz) -> (m);", p.Statements[5].String())
}

func TestTypeRefID(t *testing.T) {
	felt := T("felt")
	assert.Equal(t, ConcreteTypeID("felt"), felt.ID())
	assert.Equal(t, ConcreteTypeID("Array<NonZero<felt>>"), T("Array", TypeArg(T("NonZero", TypeArg(felt)))).ID())
	assert.Equal(t, ConcreteLibFuncID("function_call<user@fib>"), LibFuncLongID("function_call", []GenericArg{UserFuncArg("fib")}))
	assert.True(t, IntArg(3).Equal(IntArg(3)))
	assert.False(t, IntArg(3).Equal(TypeArg(felt)))
}

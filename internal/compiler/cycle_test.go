package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sierra/internal/ir"
)

func call(fn ir.FunctionID, results ...string) ir.Statement {
	return ir.Invoke("function_call", []ir.GenericArg{ir.UserFuncArg(fn)}, nil, ir.Branch(ir.Fallthrough(), ir.Vars(results...)...))
}

func TestAnalyzeRecursion_Empty(t *testing.T) {
	warnings := AnalyzeRecursion(&ir.Program{})
	assert.Empty(t, warnings)
}

func TestAnalyzeRecursion_DAG(t *testing.T) {
	p := &ir.Program{
		Funcs: []ir.Function{{ID: "main", Entry: 0}, {ID: "leaf", Entry: 2}},
		Statements: []ir.Statement{
			call("leaf"),
			ir.Return(),
			ir.Return(),
		},
	}
	assert.Empty(t, AnalyzeRecursion(p), "DAG should produce no warnings")
}

func TestAnalyzeRecursion_SelfLoop(t *testing.T) {
	p := &ir.Program{
		Funcs: []ir.Function{{ID: "forever", Entry: 0}},
		Statements: []ir.Statement{
			call("forever"),
			ir.Return(),
		},
	}

	warnings := AnalyzeRecursion(p)
	require.Len(t, warnings, 1)
	assert.Equal(t, []string{"forever", "forever"}, warnings[0].Path)
	assert.Equal(t, "info", warnings[0].Level)
	assert.Contains(t, warnings[0].Message, "Recursive function")
}

func TestAnalyzeRecursion_Mutual(t *testing.T) {
	p, err := LoadProgram("../../testdata/programs/calls.cue")
	require.NoError(t, err)

	warnings := AnalyzeRecursion(p)
	require.Len(t, warnings, 1)
	assert.Equal(t, "warning", warnings[0].Level)
	assert.ElementsMatch(t, []string{"even", "odd"}, warnings[0].Path[:2])
	assert.Equal(t, warnings[0].Path[0], warnings[0].Path[2])
	assert.Contains(t, warnings[0].Message, "→")
}

func TestCallGraph_OnlyReachableStatements(t *testing.T) {
	p := &ir.Program{
		Funcs: []ir.Function{{ID: "f", Entry: 0}, {ID: "g", Entry: 3}},
		Statements: []ir.Statement{
			ir.Invoke("jump", nil, nil, ir.Branch(ir.ToLabel("END"))),
			call("g"), // dead
			ir.Label("END"),
			ir.Return(),
		},
	}

	graph := CallGraph(p)
	assert.Empty(t, graph["f"])
	assert.Empty(t, graph["g"])
}

func TestCallGraph_SkipsUnresolvedTargets(t *testing.T) {
	p := &ir.Program{
		Funcs: []ir.Function{{ID: "f", Entry: 0}},
		Statements: []ir.Statement{
			call("g"),
			ir.Invoke("jump", nil, nil, ir.Branch(ir.ToLabel("NOWHERE"))),
		},
	}

	graph := CallGraph(p)
	assert.Equal(t, []ir.FunctionID{"g"}, graph["f"])
	assert.Empty(t, AnalyzeRecursion(p))
}

func TestReconstructCyclePath(t *testing.T) {
	graph := map[ir.FunctionID][]ir.FunctionID{
		"a": {"b"},
		"b": {"c"},
		"c": {"a"},
	}
	path := reconstructCyclePath([]ir.FunctionID{"a", "b", "c"}, graph)
	assert.Equal(t, []string{"a", "b", "c", "a"}, path)
	assert.Empty(t, reconstructCyclePath(nil, graph))
}

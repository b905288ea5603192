package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStronglyConnected(t *testing.T) {
	funcs := []Function{{ID: "main"}, {ID: "even"}, {ID: "odd"}, {ID: "leaf"}}
	graph := map[FunctionID][]FunctionID{
		"main": {"even", "leaf"},
		"even": {"odd"},
		"odd":  {"even", "leaf"},
	}

	sccs := StronglyConnected(funcs, graph)
	assert.Equal(t, [][]FunctionID{{"leaf"}, {"odd", "even"}, {"main"}}, sccs)
}

func TestStronglyConnectedVisitsIsolatedFunctions(t *testing.T) {
	funcs := []Function{{ID: "a"}, {ID: "b"}}
	sccs := StronglyConnected(funcs, map[FunctionID][]FunctionID{})
	assert.Equal(t, [][]FunctionID{{"a"}, {"b"}}, sccs)
}

func TestHasSelfLoop(t *testing.T) {
	graph := map[FunctionID][]FunctionID{"f": {"g", "f"}, "g": {}}
	assert.True(t, HasSelfLoop("f", graph))
	assert.False(t, HasSelfLoop("g", graph))
}

package simulation

import (
	"fmt"
	"strings"

	"github.com/roach88/sierra/internal/ir"
)

// TraceEvent records one executed invocation.
type TraceEvent struct {
	Depth     int
	Function  ir.FunctionID
	Statement ir.StatementIdx
	LibFunc   ir.ConcreteLibFuncID
	Branch    int
}

// Trace collects the invocations of a run in execution order.
// A nil *Trace records nothing. Steps is the number of statements the run
// executed, including labels and returns, and is set even when it failed.
type Trace struct {
	Events []TraceEvent
	Steps  int
}

func (t *Trace) record(e TraceEvent) {
	if t == nil {
		return
	}
	t.Events = append(t.Events, e)
}

// String renders one line per event, indented by call depth.
func (t *Trace) String() string {
	var b strings.Builder
	for _, e := range t.Events {
		fmt.Fprintf(&b, "%s%s %s %s -> %d\n", strings.Repeat("  ", e.Depth), e.Function, e.Statement, e.LibFunc, e.Branch)
	}
	return b.String()
}

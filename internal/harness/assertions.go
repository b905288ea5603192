package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/sierra/internal/apchange"
	"github.com/roach88/sierra/internal/extensions"
	"github.com/roach88/sierra/internal/ir"
	"github.com/roach88/sierra/internal/liveness"
	"github.com/roach88/sierra/internal/store"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context, nil for analyses
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for i, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] run %d %s%s %d %s -> %d\n",
				i+1, event.Run, strings.Repeat("  ", event.Depth),
				event.Function, event.Statement, event.LibFunc, event.Branch)
		}
	}

	return buf.String()
}

// assertTraceContains checks if the trace contains an invocation of the
// libfunc, optionally restricted to one function.
func assertTraceContains(trace []TraceEvent, assertion Assertion) error {
	for _, event := range trace {
		if event.LibFunc != assertion.LibFunc {
			continue
		}
		if assertion.Function == "" || event.Function == assertion.Function {
			return nil
		}
	}

	expected := "libfunc " + assertion.LibFunc
	if assertion.Function != "" {
		expected += " in function " + assertion.Function
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: expected,
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks if libfuncs first appear in the specified order.
// Invocations don't need to be consecutive (intervening invocations are allowed).
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	// 1-indexed first positions; zero means absent
	positions := make(map[string]int)
	for i, event := range trace {
		if positions[event.LibFunc] == 0 {
			positions[event.LibFunc] = i + 1
		}
	}

	for _, lf := range assertion.LibFuncs {
		if positions[lf] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all libfuncs present: %v", assertion.LibFuncs),
				Actual:   fmt.Sprintf("missing libfunc: %s", lf),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(assertion.LibFuncs); i++ {
		prev := assertion.LibFuncs[i-1]
		curr := assertion.LibFuncs[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("libfuncs in order: %v", assertion.LibFuncs),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}

	return nil
}

// assertTraceCount checks if the libfunc appears exactly the specified number of times.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if event.LibFunc == assertion.LibFunc {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", assertion.Count, assertion.LibFunc),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}

	return nil
}

// assertApChange checks the analyzed ap change of a function.
func assertApChange(actx *AssertionContext, assertion Assertion) error {
	info, err := actx.apChanges()
	if err != nil {
		return fmt.Errorf("ap_change: %w", err)
	}

	got, ok := info.Function(ir.FunctionID(assertion.Function))
	if !ok {
		return &AssertionError{
			Type:     AssertApChange,
			Expected: fmt.Sprintf("%s for function %s", assertion.Expect, assertion.Function),
			Actual:   "function not found",
		}
	}
	if got.String() != assertion.Expect {
		return &AssertionError{
			Type:     AssertApChange,
			Expected: fmt.Sprintf("%s for function %s", assertion.Expect, assertion.Function),
			Actual:   got.String(),
		}
	}
	return nil
}

// assertRequiredVars checks the variables required before a statement.
func assertRequiredVars(actx *AssertionContext, assertion Assertion) error {
	required, err := actx.requiredVars()
	if err != nil {
		return fmt.Errorf("required_vars: %w", err)
	}

	idx := *assertion.Statement
	if idx < 0 || idx >= len(required) {
		return &AssertionError{
			Type:     AssertRequiredVars,
			Expected: fmt.Sprintf("statement %d", idx),
			Actual:   fmt.Sprintf("program has %d statements", len(required)),
		}
	}

	ids := make([]ir.VarID, len(assertion.Vars))
	for i, v := range assertion.Vars {
		ids[i] = ir.VarID(v)
	}
	want := liveness.NewVarSet(ids...)
	if !required[idx].Equal(want) {
		return &AssertionError{
			Type:     AssertRequiredVars,
			Expected: fmt.Sprintf("%s at statement %d", want, idx),
			Actual:   required[idx].String(),
		}
	}
	return nil
}

// assertRecordedRuns checks the number of runs of a function in the run log.
func assertRecordedRuns(ctx context.Context, actx *AssertionContext, assertion Assertion) error {
	runs, err := actx.Store.ListRuns(ctx, store.RunFilter{
		ProgramDigest: actx.ProgramDigest,
		Function:      assertion.Function,
	})
	if err != nil {
		return fmt.Errorf("recorded_runs: %w", err)
	}
	if len(runs) != assertion.Count {
		return &AssertionError{
			Type:     AssertRecordedRuns,
			Expected: fmt.Sprintf("%d runs of %s", assertion.Count, assertion.Function),
			Actual:   fmt.Sprintf("%d runs", len(runs)),
		}
	}
	return nil
}

// AssertionContext provides context for evaluating assertions.
// Analysis results are computed on first use.
type AssertionContext struct {
	Ctx           context.Context
	Store         *store.Store
	Registry      *extensions.ProgramRegistry
	ProgramDigest string

	info     *apchange.ProgramInfo
	required []*liveness.VarSet
}

func (a *AssertionContext) apChanges() (*apchange.ProgramInfo, error) {
	if a.info != nil {
		return a.info, nil
	}
	if a.Registry == nil {
		return nil, fmt.Errorf("requires a specialized program")
	}
	info, err := apchange.Calculate(a.Registry)
	if err != nil {
		return nil, err
	}
	a.info = info
	return info, nil
}

func (a *AssertionContext) requiredVars() ([]*liveness.VarSet, error) {
	if a.required != nil {
		return a.required, nil
	}
	if a.Registry == nil {
		return nil, fmt.Errorf("requires a specialized program")
	}
	required, err := liveness.RequiredVars(a.Registry.Program().Statements)
	if err != nil {
		return nil, err
	}
	a.required = required
	return required, nil
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
// Trace assertions need only the result; the others need actx.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertApChange:
			if actx == nil {
				err = fmt.Errorf("assertion[%d]: ap_change requires a program context", i)
			} else {
				err = assertApChange(actx, assertion)
			}
		case AssertRequiredVars:
			if actx == nil || assertion.Statement == nil {
				err = fmt.Errorf("assertion[%d]: required_vars requires a program context and a statement", i)
			} else {
				err = assertRequiredVars(actx, assertion)
			}
		case AssertRecordedRuns:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: recorded_runs requires database context", i)
			} else {
				ctx := actx.Ctx
				if ctx == nil {
					ctx = context.Background()
				}
				err = assertRecordedRuns(ctx, actx, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}

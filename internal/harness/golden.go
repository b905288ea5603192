package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/sierra/internal/ir"
	"github.com/roach88/sierra/internal/simulation"
)

// TraceSnapshot captures the runs and the trace of a scenario execution.
// All fields use canonical JSON serialization for deterministic comparison.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Runs         []RunResult  `json:"runs"`
	Trace        []TraceEvent `json:"trace"`
}

// toCanonicalMap converts a TraceSnapshot to a map[string]any for canonical JSON serialization.
// This is required because ir.MarshalCanonical only handles primitives,
// slices of them and maps.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	runList := make([]any, len(s.Runs))
	for i, run := range s.Runs {
		runMap := map[string]any{
			"run_id":   run.RunID,
			"function": run.Function,
			"inputs":   valueList(run.Inputs),
			"steps":    run.Steps,
		}
		if run.Failed() {
			runMap["error_code"] = run.ErrorCode
			if run.Statement != int(simulation.NoStatement) {
				runMap["statement"] = run.Statement
			}
		} else {
			runMap["outputs"] = valueList(run.Outputs)
		}
		runList[i] = runMap
	}

	traceList := make([]any, len(s.Trace))
	for i, event := range s.Trace {
		traceList[i] = map[string]any{
			"run":       event.Run,
			"depth":     event.Depth,
			"function":  event.Function,
			"statement": event.Statement,
			"libfunc":   event.LibFunc,
			"branch":    event.Branch,
		}
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"runs":          runList,
		"trace":         traceList,
	}
}

func valueList(vs [][]string) []any {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = v
	}
	return out
}

// Snapshot serializes a result as canonical JSON.
func Snapshot(scenarioName string, result *Result) ([]byte, error) {
	snapshot := TraceSnapshot{
		ScenarioName: scenarioName,
		Runs:         result.Runs,
		Trace:        result.Trace,
	}
	return ir.MarshalCanonical(snapshot.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares the given result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}

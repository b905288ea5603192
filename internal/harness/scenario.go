package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario.
// A scenario loads one program, runs a flow of function invocations
// against it and asserts on the resulting trace, the run log and the
// static analyses of the program.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Program is the path to a .cue program file or directory.
	// Relative paths are resolved against the scenario file location.
	Program string `yaml:"program"`

	// MaxSteps bounds every run. Zero means unlimited.
	MaxSteps int `yaml:"max_steps,omitempty"`

	// Flow contains the invocations, in order.
	Flow []FlowStep `yaml:"flow"`

	// Assertions validate the trace, the run log and the analyses.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// FlowStep invokes one function and optionally validates the outcome.
type FlowStep struct {
	// Invoke is the function id.
	Invoke string `yaml:"invoke"`

	// Inputs are the argument values, one per parameter.
	Inputs []Value `yaml:"inputs"`

	// Expect specifies the expected outcome.
	// If nil, no validation is performed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected outcome of a run: either its
// outputs or the code of the simulation error it fails with.
type ExpectClause struct {
	// Outputs are the expected return values, compared cell by cell after
	// normalization into the field, so "-1" matches P-1.
	Outputs []Value `yaml:"outputs,omitempty"`

	// Error is the expected simulation error code (e.g. "STEPS_EXCEEDED").
	Error string `yaml:"error,omitempty"`

	// Statement is the statement the error is expected at.
	Statement *int `yaml:"statement,omitempty"`
}

// Value is one input or output value as a list of decimal or hex cells.
// A YAML scalar is shorthand for a single cell.
type Value []string

// UnmarshalYAML accepts a scalar or a sequence of scalars.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*v = Value{node.Value}
	case yaml.SequenceNode:
		cells := make(Value, 0, len(node.Content))
		for _, c := range node.Content {
			if c.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: value cells must be scalars", c.Line)
			}
			cells = append(cells, c.Value)
		}
		*v = cells
	default:
		return fmt.Errorf("line %d: value must be a scalar or a sequence", node.Line)
	}
	return nil
}

func cellStrings(vs []Value) [][]string {
	out := make([][]string, len(vs))
	for i, v := range vs {
		out[i] = []string(v)
	}
	return out
}

// Assertion validates the trace, the run log or an analysis result.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_contains": a libfunc appears in the trace
	// - "trace_order": libfuncs first appear in this order
	// - "trace_count": a libfunc appears exactly Count times
	// - "ap_change": the ap change of Function is Expect
	// - "required_vars": the variables required at Statement are Vars
	// - "recorded_runs": the run log holds Count runs of Function
	Type string `yaml:"type"`

	// LibFunc is a concrete libfunc id, e.g. "felt_const<4>"
	// (used by trace_contains, trace_count).
	LibFunc string `yaml:"libfunc,omitempty"`

	// Function restricts trace_contains to one function; names the
	// function for ap_change and recorded_runs.
	Function string `yaml:"function,omitempty"`

	// Count is the expected number of occurrences (trace_count, recorded_runs).
	Count int `yaml:"count,omitempty"`

	// LibFuncs is the expected libfunc order (used by trace_order).
	LibFuncs []string `yaml:"libfuncs,omitempty"`

	// Expect is the expected ap change, "Known(n)" or "Unknown".
	Expect string `yaml:"expect,omitempty"`

	// Statement is the statement index (used by required_vars).
	Statement *int `yaml:"statement,omitempty"`

	// Vars is the expected variable set, in any order (used by required_vars).
	Vars []string `yaml:"vars,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertApChange      = "ap_change"
	AssertRequiredVars  = "required_vars"
	AssertRecordedRuns  = "recorded_runs"
)

// LoadScenario reads and parses a scenario YAML file, resolving the
// program path relative to the scenario file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving the program path relative to the provided base path.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Program != "" && !filepath.IsAbs(scenario.Program) && basePath != "" {
		scenario.Program = filepath.Join(basePath, scenario.Program)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Program == "" {
		return fmt.Errorf("program is required")
	}
	if _, err := os.Stat(s.Program); os.IsNotExist(err) {
		return fmt.Errorf("program not found: %s", s.Program)
	}

	if s.MaxSteps < 0 {
		return fmt.Errorf("max_steps must be non-negative")
	}

	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	for i, step := range s.Flow {
		if step.Invoke == "" {
			return fmt.Errorf("flow[%d]: invoke is required", i)
		}
		if step.Expect == nil {
			continue
		}
		if step.Expect.Outputs != nil && step.Expect.Error != "" {
			return fmt.Errorf("flow[%d].expect: outputs and error are mutually exclusive", i)
		}
		if step.Expect.Outputs == nil && step.Expect.Error == "" {
			return fmt.Errorf("flow[%d].expect: outputs or error is required", i)
		}
		if step.Expect.Statement != nil && step.Expect.Error == "" {
			return fmt.Errorf("flow[%d].expect: statement requires error", i)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.LibFunc == "" {
			return fmt.Errorf("assertions[%d]: libfunc is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.LibFuncs) == 0 {
			return fmt.Errorf("assertions[%d]: libfuncs list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.LibFunc == "" {
			return fmt.Errorf("assertions[%d]: libfunc is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertApChange:
		if a.Function == "" {
			return fmt.Errorf("assertions[%d]: function is required for ap_change", index)
		}
		if a.Expect == "" {
			return fmt.Errorf("assertions[%d]: expect is required for ap_change", index)
		}
	case AssertRequiredVars:
		if a.Statement == nil {
			return fmt.Errorf("assertions[%d]: statement is required for required_vars", index)
		}
	case AssertRecordedRuns:
		if a.Function == "" {
			return fmt.Errorf("assertions[%d]: function is required for recorded_runs", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for recorded_runs", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

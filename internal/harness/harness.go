package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/sierra/internal/compiler"
	"github.com/roach88/sierra/internal/extensions"
	"github.com/roach88/sierra/internal/ir"
	"github.com/roach88/sierra/internal/simulation"
	"github.com/roach88/sierra/internal/store"
	"github.com/roach88/sierra/internal/testutil"
)

// Harness is the test execution engine.
// It executes flow steps against one specialized program and records
// every run in the store.
type Harness struct {
	store    *store.Store
	registry *extensions.ProgramRegistry
	digest   string
	maxSteps int
	logger   *slog.Logger
}

// Option configures scenario execution.
type Option func(*Harness)

// WithLogger sets the logger. Logs are discarded by default.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Harness) {
		h.logger = logger
	}
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs against a fresh in-memory run log whose run ids are
// sequential, so results are reproducible.
//
// Execution flow:
// 1. Load, validate and specialize the program
// 2. Store the program
// 3. Execute flow steps, recording each run and checking its expect clause
// 4. Evaluate assertions
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	ids := testutil.NewSequentialIDs("run")
	st, err := store.Open(":memory:", store.WithIDGenerator(ids.Next))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	return RunWithStore(context.Background(), scenario, st, opts...)
}

// RunWithStore executes a test scenario, recording runs in st.
//
// An error is returned only when the scenario cannot be executed at all
// (the program fails to load or validate, or the store fails). Failed
// expectations and assertions are reported in the result.
func RunWithStore(ctx context.Context, scenario *Scenario, st *store.Store, opts ...Option) (*Result, error) {
	h := &Harness{
		store:    st,
		maxSteps: scenario.MaxSteps,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}

	program, err := compiler.LoadProgram(scenario.Program)
	if err != nil {
		return nil, fmt.Errorf("failed to load program: %w", err)
	}
	registry, verrs := compiler.SpecializeAll(extensions.NewCoreCatalog(), program)
	if len(verrs) > 0 {
		msgs := make([]string, len(verrs))
		for i, e := range verrs {
			msgs[i] = e.Error()
		}
		return nil, fmt.Errorf("invalid program %s:\n  %s", scenario.Program, strings.Join(msgs, "\n  "))
	}
	h.registry = registry

	digest, err := st.WriteProgram(ctx, program)
	if err != nil {
		return nil, fmt.Errorf("failed to store program: %w", err)
	}
	h.digest = digest

	result := NewResult()
	for i, step := range scenario.Flow {
		if err := h.executeStep(ctx, i, step, result); err != nil {
			return nil, fmt.Errorf("flow step %d: %w", i, err)
		}
	}

	actx := &AssertionContext{
		Ctx:           ctx,
		Store:         st,
		Registry:      registry,
		ProgramDigest: digest,
	}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	return result, nil
}

// executeStep runs one flow step, records it and validates its expect
// clause. Only store failures are returned; everything else lands in
// result.
func (h *Harness) executeStep(ctx context.Context, i int, step FlowStep, result *Result) error {
	inputs, err := simulation.ParseValues(cellStrings(step.Inputs))
	if err != nil {
		result.AddError(fmt.Sprintf("flow[%d]: %v", i, err))
		return nil
	}

	trace := &simulation.Trace{}
	in := simulation.New(h.registry,
		simulation.WithMaxSteps(h.maxSteps),
		simulation.WithTrace(trace),
		simulation.WithLogger(h.logger),
	)
	outputs, runErr := in.Run(ir.FunctionID(step.Invoke), inputs)

	run := RunResult{
		Function:  step.Invoke,
		Inputs:    simulation.FormatValues(inputs),
		Statement: int(simulation.NoStatement),
		Steps:     trace.Steps,
	}
	record := &store.Run{
		ProgramDigest: h.digest,
		Function:      step.Invoke,
		Inputs:        run.Inputs,
		Steps:         int64(trace.Steps),
	}
	if runErr != nil {
		var se *simulation.SimulationError
		if !errors.As(runErr, &se) {
			return runErr
		}
		run.ErrorCode = string(se.Code)
		run.Statement = int(se.Statement)
		record.ErrorCode = run.ErrorCode
		record.ErrorMessage = runErr.Error()
	} else {
		run.Outputs = simulation.FormatValues(outputs)
		record.Outputs = run.Outputs
	}

	if err := h.store.RecordRun(ctx, record); err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	run.RunID = record.ID

	for _, e := range trace.Events {
		result.Trace = append(result.Trace, TraceEvent{
			Run:       i,
			Depth:     e.Depth,
			Function:  string(e.Function),
			Statement: int(e.Statement),
			LibFunc:   string(e.LibFunc),
			Branch:    e.Branch,
		})
	}
	result.Runs = append(result.Runs, run)

	for _, msg := range checkExpect(i, step.Expect, &run) {
		result.AddError(msg)
	}

	h.logger.Info("flow step completed",
		"step", i,
		"function", step.Invoke,
		"run_id", run.RunID,
		"steps", run.Steps,
		"error_code", run.ErrorCode,
	)
	return nil
}

// checkExpect compares a run against its expect clause.
func checkExpect(i int, expect *ExpectClause, run *RunResult) []string {
	if expect == nil {
		return nil
	}

	if expect.Error != "" {
		if run.ErrorCode != expect.Error {
			return []string{fmt.Sprintf("flow[%d]: expected error %s, got %s", i, expect.Error, describeOutcome(run))}
		}
		if expect.Statement != nil && *expect.Statement != run.Statement {
			return []string{fmt.Sprintf("flow[%d]: expected error at statement %d, got %d", i, *expect.Statement, run.Statement)}
		}
		return nil
	}

	if run.Failed() {
		return []string{fmt.Sprintf("flow[%d]: expected outputs, got %s", i, describeOutcome(run))}
	}

	parsed, err := simulation.ParseValues(cellStrings(expect.Outputs))
	if err != nil {
		return []string{fmt.Sprintf("flow[%d].expect: %v", i, err)}
	}
	want := simulation.FormatValues(parsed)
	if !equalValues(want, run.Outputs) {
		return []string{fmt.Sprintf("flow[%d]: expected outputs %v, got %v", i, want, run.Outputs)}
	}
	return nil
}

func describeOutcome(run *RunResult) string {
	if run.Failed() {
		return "error " + run.ErrorCode
	}
	return fmt.Sprintf("outputs %v", run.Outputs)
}

func equalValues(a, b [][]string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if len(a[i]) != len(b[i]) {
			return false
		}
		for j := range a[i] {
			if a[i][j] != b[i][j] {
				return false
			}
		}
	}
	return true
}

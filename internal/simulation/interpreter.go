package simulation

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/sierra/internal/extensions"
	"github.com/roach88/sierra/internal/ir"
)

// Interpreter executes functions of one program.
//
// It is a pure reference oracle: identical program and inputs always give
// identical outputs or identical errors. Heap objects (arrays, boxes,
// dictionaries) live for the duration of one Run.
type Interpreter struct {
	registry *extensions.ProgramRegistry
	program  *ir.Program
	labels   *ir.LabelMap

	maxSteps     int
	maxCallDepth int
	logger       *slog.Logger
	trace        *Trace
}

// DefaultMaxCallDepth bounds function_call nesting unless overridden.
// Each nested call uses Go stack, so unbounded recursion would crash the
// process instead of failing the run.
const DefaultMaxCallDepth = 10_000

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithMaxSteps bounds the number of statements one Run may execute,
// counting nested calls. 0 (the default) is unlimited.
func WithMaxSteps(maxSteps int) Option {
	return func(in *Interpreter) {
		in.maxSteps = maxSteps
	}
}

// WithMaxCallDepth bounds how deeply function_call may nest.
// 0 disables the check. Default: DefaultMaxCallDepth.
func WithMaxCallDepth(depth int) Option {
	return func(in *Interpreter) {
		in.maxCallDepth = depth
	}
}

// WithLogger sets the logger used for per-step debug output.
// Default: discard.
func WithLogger(logger *slog.Logger) Option {
	return func(in *Interpreter) {
		in.logger = logger
	}
}

// WithTrace records every executed invocation into t.
func WithTrace(t *Trace) Option {
	return func(in *Interpreter) {
		in.trace = t
	}
}

// New creates an interpreter over the registry's program.
func New(registry *extensions.ProgramRegistry, opts ...Option) *Interpreter {
	in := &Interpreter{
		registry: registry,
		program:  registry.Program(),
		labels:   ir.NewLabelMap(registry.Program().Statements),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),

		maxCallDepth: DefaultMaxCallDepth,
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Run executes function fn with the given input values using the core
// catalog. Options apply as for New; recursion is bounded by
// DefaultMaxCallDepth unless WithMaxCallDepth says otherwise.
func Run(program *ir.Program, fn ir.FunctionID, inputs [][]MemCell, opts ...Option) ([][]MemCell, error) {
	registry, err := extensions.NewProgramRegistry(extensions.NewCoreCatalog(), program)
	if err != nil {
		return nil, err
	}
	return New(registry, opts...).Run(fn, inputs)
}

// Run executes function fn with the given input values and returns the
// values of its Return statement.
func (in *Interpreter) Run(fn ir.FunctionID, inputs [][]MemCell) ([][]MemCell, error) {
	f, ok := in.registry.Function(fn)
	if !ok {
		return nil, &SimulationError{
			Code:      ErrCodeMissingFunction,
			Function:  fn,
			Statement: NoStatement,
			Message:   "function not found",
		}
	}
	r := &run{
		in:     in,
		memory: newMemory(),
		quota:  NewQuotaEnforcer(in.maxSteps),
	}
	outputs, err := r.call(f, inputs, 0)
	if in.trace != nil {
		in.trace.Steps = r.quota.Current()
	}
	if err != nil {
		in.logger.Debug("run failed", "function", fn, "steps", r.quota.Current(), "error", err)
		return nil, err
	}
	in.logger.Debug("run finished", "function", fn, "steps", r.quota.Current())
	return outputs, nil
}

// run is the state shared by one Run and all its nested calls.
type run struct {
	in     *Interpreter
	memory *Memory
	quota  *QuotaEnforcer
}

func (r *run) call(f *ir.Function, inputs [][]MemCell, depth int) ([][]MemCell, error) {
	if len(inputs) != len(f.Params) {
		return nil, &SimulationError{
			Code:      ErrCodeArgumentCountMismatch,
			Function:  f.ID,
			Statement: NoStatement,
			Message:   fmt.Sprintf("expected %d arguments, got %d", len(f.Params), len(inputs)),
		}
	}

	env := NewEnv()
	for i, p := range f.Params {
		if err := env.Put(p.ID, inputs[i]); err != nil {
			return nil, &SimulationError{Code: ErrCodeEditState, Function: f.ID, Statement: NoStatement, Err: err}
		}
	}

	fail := func(code ErrorCode, idx ir.StatementIdx, err error) error {
		return &SimulationError{Code: code, Function: f.ID, Statement: idx, Err: err}
	}

	idx := f.Entry
	for {
		stmt, ok := r.in.program.Statement(idx)
		if !ok {
			return nil, &SimulationError{
				Code:      ErrCodeStatementOutOfBounds,
				Function:  f.ID,
				Statement: idx,
				Message:   fmt.Sprintf("program has %d statements", len(r.in.program.Statements)),
			}
		}
		if err := r.quota.Check(); err != nil {
			return nil, fail(ErrCodeStepsExceeded, idx, err)
		}

		switch stmt.Kind {
		case ir.StmtLabel:
			idx = idx.Next()

		case ir.StmtReturn:
			outputs, err := env.TakeAll(stmt.Vars)
			if err != nil {
				return nil, fail(ErrCodeEditState, idx, err)
			}
			if env.Len() != 0 {
				return nil, &SimulationError{
					Code:      ErrCodeFunctionDidNotConsumeAllArgs,
					Function:  f.ID,
					Statement: idx,
					Message:   fmt.Sprintf("variables left at return: %v", env.Bound()),
				}
			}
			return outputs, nil

		case ir.StmtInvocation:
			inv := stmt.Invocation
			args, err := env.TakeAll(inv.Inputs)
			if err != nil {
				return nil, fail(ErrCodeEditState, idx, err)
			}
			lf, err := r.in.registry.Invocation(inv)
			if err != nil {
				return nil, fail(ErrCodeSpecialization, idx, err)
			}

			outputs, branch, err := r.simulate(lf, args, depth)
			if err != nil {
				// Errors from nested calls are already attributed.
				var serr *SimulationError
				if errors.As(err, &serr) {
					return nil, err
				}
				code := ErrCodeMemoryLayoutMismatch
				var lerr *libfuncError
				if errors.As(err, &lerr) {
					code = lerr.code
				}
				return nil, &SimulationError{Code: code, Function: f.ID, Statement: idx, Message: string(lf.ID()), Err: err}
			}
			if branch >= len(inv.Branches) {
				return nil, fail(ErrCodeWrongNumberOfArgs, idx,
					fmt.Errorf("%s selected branch %d, invocation lists %d", lf.ID(), branch, len(inv.Branches)))
			}
			info := inv.Branches[branch]
			if len(info.Results) != len(outputs) {
				return nil, fail(ErrCodeWrongNumberOfArgs, idx,
					fmt.Errorf("%s branch %d produced %d values, invocation binds %d", lf.ID(), branch, len(outputs), len(info.Results)))
			}
			if err := env.PutAll(info.Results, outputs); err != nil {
				return nil, fail(ErrCodeEditState, idx, err)
			}

			r.in.logger.Debug("step",
				"function", f.ID,
				"statement", idx,
				"libfunc", lf.ID(),
				"branch", branch,
				"depth", depth)
			r.in.trace.record(TraceEvent{
				Depth:     depth,
				Function:  f.ID,
				Statement: idx,
				LibFunc:   lf.ID(),
				Branch:    branch,
			})

			idx = r.in.labels.Next(idx, info.Target)

		default:
			return nil, &SimulationError{
				Code:      ErrCodeStatementOutOfBounds,
				Function:  f.ID,
				Statement: idx,
				Message:   fmt.Sprintf("invalid statement kind %d", stmt.Kind),
			}
		}
	}
}

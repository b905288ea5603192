package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/sierra/internal/ir"
	"github.com/roach88/sierra/internal/simulation"
	"github.com/roach88/sierra/internal/store"
)

// DefaultMaxSteps bounds runs started from the CLI.
const DefaultMaxSteps = 1_000_000

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Function string
	MaxSteps int
	Database string // optional run log
	Trace    bool

	// NewRunID allows overriding run ids (for testing).
	// If nil, the store default (UUIDv7) is used.
	NewRunID func() string
}

// RunOutput is the result of a run.
type RunOutput struct {
	Function string     `json:"function"`
	Inputs   [][]string `json:"inputs"`
	Outputs  [][]string `json:"outputs"`
	Steps    int        `json:"steps"`
	Trace    []string   `json:"trace,omitempty"`
	RunID    string     `json:"run_id,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <program> [value...]",
		Short: "Run a function in the interpreter",
		Long: `Run one function of a Sierra program in the reference interpreter.

Each value argument is one function argument. Cells are decimal or
0x-prefixed hex, negative numbers denote field elements below zero, and
multi-cell values separate cells with commas.

With --db the run is recorded in a SQLite run log, creating it if needed.

Exit codes:
  0 - The function returned
  1 - The run failed with a simulation error
  2 - Command error (invalid program, bad value, database error)

Examples:
  sierra run fib.cue --function fib 1 1 7
  sierra run fib.cue -f fib 1 1 100000 --max-steps 1000
  sierra run calls.cue -f main --db ./runs.db --trace`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFunction(opts, args[0], args[1:], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Function, "function", "f", "", "function to run (required)")
	_ = cmd.MarkFlagRequired("function")
	cmd.Flags().IntVar(&opts.MaxSteps, "max-steps", DefaultMaxSteps, "maximum executed statements, 0 for unlimited")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the run in this SQLite run log")
	cmd.Flags().BoolVar(&opts.Trace, "trace", false, "include the invocation trace")

	return cmd
}

// ParseValueArgs parses command-line values: one argument per value,
// cells separated by commas.
func ParseValueArgs(args []string) ([][]simulation.MemCell, error) {
	cells := make([][]string, len(args))
	for i, a := range args {
		if a == "" {
			cells[i] = []string{}
			continue
		}
		cells[i] = strings.Split(a, ",")
	}
	return simulation.ParseValues(cells)
}

func runFunction(opts *RunOptions, path string, valueArgs []string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	if opts.MaxSteps < 0 {
		return formatter.Fail(ExitCommandError, ErrCodeInput, "--max-steps must be non-negative", nil)
	}

	p, registry, err := SpecializeProgram(path)
	if err != nil {
		return outputLoadError(formatter, err)
	}

	inputs, err := ParseValueArgs(valueArgs)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeInput, err.Error(), nil)
	}

	trace := &simulation.Trace{}
	in := simulation.New(registry,
		simulation.WithMaxSteps(opts.MaxSteps),
		simulation.WithLogger(logger),
		simulation.WithTrace(trace),
	)
	logger.Debug("running", "function", opts.Function, "inputs", len(inputs), "max_steps", opts.MaxSteps)
	outputs, runErr := in.Run(ir.FunctionID(opts.Function), inputs)

	var simErr *simulation.SimulationError
	if runErr != nil && !errors.As(runErr, &simErr) {
		return WrapExitError(ExitCommandError, "run failed", runErr)
	}

	out := RunOutput{
		Function: opts.Function,
		Inputs:   simulation.FormatValues(inputs),
		Outputs:  simulation.FormatValues(outputs),
		Steps:    trace.Steps,
	}
	if opts.Trace {
		out.Trace = formatTrace(trace)
	}

	if opts.Database != "" {
		runID, err := recordRun(ctx, opts, p, &out, simErr)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeDatabase, err.Error(), nil)
		}
		out.RunID = runID
		logger.Info("run recorded", "run_id", runID, "db", opts.Database)
	}

	if simErr != nil {
		return outputRunFailure(formatter, &out, simErr)
	}
	return outputRunSuccess(formatter, &out)
}

func formatTrace(trace *simulation.Trace) []string {
	lines := make([]string, len(trace.Events))
	for i, e := range trace.Events {
		lines[i] = fmt.Sprintf("%s%s %s %s -> %d", strings.Repeat("  ", e.Depth), e.Function, e.Statement, e.LibFunc, e.Branch)
	}
	return lines
}

// recordRun stores the program and the run in the run log.
func recordRun(ctx context.Context, opts *RunOptions, p *ir.Program, out *RunOutput, simErr *simulation.SimulationError) (string, error) {
	var storeOpts []store.Option
	if opts.NewRunID != nil {
		storeOpts = append(storeOpts, store.WithIDGenerator(opts.NewRunID))
	}
	st, err := store.Open(opts.Database, storeOpts...)
	if err != nil {
		return "", fmt.Errorf("failed to open database: %w", err)
	}
	defer st.Close()

	digest, err := st.WriteProgram(ctx, p)
	if err != nil {
		return "", err
	}
	run := &store.Run{
		ProgramDigest: digest,
		Function:      out.Function,
		Inputs:        out.Inputs,
		Steps:         int64(out.Steps),
	}
	if simErr != nil {
		run.ErrorCode = string(simErr.Code)
		run.ErrorMessage = simErr.Error()
	} else {
		run.Outputs = out.Outputs
	}
	if err := st.RecordRun(ctx, run); err != nil {
		return "", err
	}
	return run.ID, nil
}

func outputRunSuccess(formatter *OutputFormatter, out *RunOutput) error {
	if formatter.Format == "json" {
		return formatter.Encode(CLIResponse{Status: "ok", Data: out, RunID: out.RunID})
	}

	w := formatter.Writer
	printTrace(formatter, out.Trace)
	values := make([]string, len(out.Outputs))
	for i, v := range out.Outputs {
		values[i] = "[" + strings.Join(v, " ") + "]"
	}
	fmt.Fprintf(w, "✓ %s returned %s in %d step(s)\n", out.Function, strings.Join(values, " "), out.Steps)
	if out.RunID != "" {
		fmt.Fprintf(w, "Run: %s\n", out.RunID)
	}
	return nil
}

func outputRunFailure(formatter *OutputFormatter, out *RunOutput, simErr *simulation.SimulationError) error {
	details := map[string]any{
		"function": string(simErr.Function),
		"steps":    out.Steps,
	}
	if simErr.Statement != simulation.NoStatement {
		details["statement"] = int(simErr.Statement)
	}

	if formatter.Format == "json" {
		err := formatter.Encode(CLIResponse{
			Status: "error",
			Data:   out,
			Error:  &CLIError{Code: string(simErr.Code), Message: simErr.Error(), Details: details},
			RunID:  out.RunID,
		})
		if err != nil {
			return err
		}
	} else {
		printTrace(formatter, out.Trace)
		fmt.Fprintf(formatter.Writer, "✗ %s failed after %d step(s)\n", out.Function, out.Steps)
		fmt.Fprintf(formatter.Writer, "  %s\n", simErr.Error())
		if out.RunID != "" {
			fmt.Fprintf(formatter.Writer, "Run: %s\n", out.RunID)
		}
	}
	return WrapExitError(ExitFailure, "run failed", simErr)
}

func printTrace(formatter *OutputFormatter, trace []string) {
	if len(trace) == 0 {
		return
	}
	fmt.Fprintln(formatter.Writer, "Trace:")
	for _, line := range trace {
		fmt.Fprintf(formatter.Writer, "  %s\n", line)
	}
	fmt.Fprintln(formatter.Writer)
}

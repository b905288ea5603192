package cli

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/sierra/internal/extensions"
	"github.com/roach88/sierra/internal/ir"
	"github.com/roach88/sierra/internal/simulation"
	"github.com/roach88/sierra/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	Function string // optional - replay one function only
}

// ReplayRunResult holds the replay result for a single recorded run.
type ReplayRunResult struct {
	RunID         string     `json:"run_id"`
	Function      string     `json:"function"`
	Inputs        [][]string `json:"inputs"`
	Expected      string     `json:"expected"`
	Actual        string     `json:"actual"`
	Steps         int64      `json:"steps"`
	Deterministic bool       `json:"deterministic"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	ProgramDigest    string            `json:"program_digest"`
	Runs             []ReplayRunResult `json:"runs"`
	TotalRuns        int               `json:"total_runs"`
	AllDeterministic bool              `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay <program>",
		Short: "Re-execute recorded runs and verify determinism",
		Long: `Re-execute every run recorded for a program and compare the results.

The program is identified by its digest, so only runs recorded against the
exact same program are replayed. Each run is executed again with its recorded
inputs and a step quota matching the recorded step count. Outputs, error
codes and step counts must all match.

Exit codes:
  0 - All runs reproduced
  1 - Determinism verification failed (differences detected)
  2 - Command error (invalid program, database not found, etc.)

Examples:
  sierra replay fib.cue --db ./runs.db
  sierra replay calls.cue --db ./runs.db --function main
  sierra replay fib.cue --db ./runs.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Function, "function", "", "replay runs of this function only")

	return cmd
}

func runReplay(opts *ReplayOptions, path string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	p, registry, err := SpecializeProgram(path)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	digest, err := ir.ProgramDigest(p)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to digest program", err)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	runs, err := st.ListRuns(ctx, store.RunFilter{ProgramDigest: digest, Function: opts.Function})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}
	// Oldest first.
	slices.Reverse(runs)

	result := ReplayResult{
		ProgramDigest:    digest,
		Runs:             make([]ReplayRunResult, 0, len(runs)),
		TotalRuns:        len(runs),
		AllDeterministic: true,
	}
	for _, run := range runs {
		rr, err := replayRun(registry, run)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay run %s", run.ID), err)
		}
		logger.Debug("replayed", "run_id", run.ID, "deterministic", rr.Deterministic)
		result.Runs = append(result.Runs, rr)
		if !rr.Deterministic {
			result.AllDeterministic = false
		}
	}

	if opts.Format == "json" {
		return outputReplayJSON(formatter, result)
	}
	return outputReplayText(formatter, result)
}

// replayLimit returns the step quota that reproduces a recorded run.
// A run that exceeded its quota executed limit+1 statements.
func replayLimit(run *store.Run) int {
	if run.ErrorCode == string(simulation.ErrCodeStepsExceeded) {
		return int(run.Steps) - 1
	}
	return int(run.Steps)
}

// replayRun executes a recorded run again and compares the outcome.
func replayRun(registry *extensions.ProgramRegistry, run *store.Run) (ReplayRunResult, error) {
	inputs, err := simulation.ParseValues(run.Inputs)
	if err != nil {
		return ReplayRunResult{}, fmt.Errorf("recorded inputs: %w", err)
	}

	trace := &simulation.Trace{}
	in := simulation.New(registry, simulation.WithMaxSteps(replayLimit(run)), simulation.WithTrace(trace))
	outputs, runErr := in.Run(ir.FunctionID(run.Function), inputs)

	var simErr *simulation.SimulationError
	if runErr != nil && !errors.As(runErr, &simErr) {
		return ReplayRunResult{}, runErr
	}

	actual := describeOutcome(simulation.FormatValues(outputs), "")
	if simErr != nil {
		actual = describeOutcome(nil, string(simErr.Code))
	}
	expected := describeOutcome(run.Outputs, run.ErrorCode)

	return ReplayRunResult{
		RunID:         run.ID,
		Function:      run.Function,
		Inputs:        run.Inputs,
		Expected:      expected,
		Actual:        actual,
		Steps:         run.Steps,
		Deterministic: expected == actual && int64(trace.Steps) == run.Steps,
	}, nil
}

func describeOutcome(outputs [][]string, errorCode string) string {
	if errorCode != "" {
		return "error " + errorCode
	}
	return fmt.Sprintf("%v", outputs)
}

// outputReplayJSON outputs the replay result as JSON.
func outputReplayJSON(formatter *OutputFormatter, result ReplayResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
	}

	if !result.AllDeterministic {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_DETERMINISM",
			Message: "determinism verification failed",
		}
	}

	if err := formatter.Encode(response); err != nil {
		return err
	}

	if !result.AllDeterministic {
		// Determinism failure = exit code 1
		return NewExitError(ExitFailure, "determinism verification failed")
	}
	return nil
}

// outputReplayText outputs the replay result as text.
func outputReplayText(formatter *OutputFormatter, result ReplayResult) error {
	w := formatter.Writer

	if result.TotalRuns == 0 {
		fmt.Fprintln(w, "No runs recorded for this program.")
		return nil
	}

	fmt.Fprintf(w, "Replay Summary: %d run(s)\n", result.TotalRuns)
	fmt.Fprintln(w)

	for _, run := range result.Runs {
		status := "✓"
		if !run.Deterministic {
			status = "✗"
		}
		fmt.Fprintf(w, "%s %s %s%v\n", status, run.RunID, run.Function, run.Inputs)
		if formatter.Verbose || !run.Deterministic {
			fmt.Fprintf(w, "  Expected: %s\n", run.Expected)
			fmt.Fprintf(w, "  Actual:   %s\n", run.Actual)
		}
	}
	fmt.Fprintln(w)

	if result.AllDeterministic {
		fmt.Fprintln(w, "✓ All runs verified deterministic")
		return nil
	}

	fmt.Fprintln(w, "✗ Determinism verification failed")
	// Determinism failure = exit code 1
	return NewExitError(ExitFailure, "determinism verification failed")
}

package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/sierra/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Function string
	Program  string // program digest
	Limit    int
}

// HistoryEntry is one recorded run as shown by the history command.
type HistoryEntry struct {
	RunID         string     `json:"run_id"`
	Seq           int64      `json:"seq"`
	ProgramDigest string     `json:"program_digest"`
	Function      string     `json:"function"`
	Inputs        [][]string `json:"inputs"`
	Outputs       [][]string `json:"outputs,omitempty"`
	ErrorCode     string     `json:"error_code,omitempty"`
	Steps         int64      `json:"steps"`
	CoreVersion   string     `json:"core_version"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs",
		Long: `List runs recorded in a SQLite run log, newest first.

Examples:
  sierra history --db ./runs.db
  sierra history --db ./runs.db --function fib --limit 10
  sierra history --db ./runs.db --program <digest> --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Function, "function", "", "only runs of this function")
	cmd.Flags().StringVar(&opts.Program, "program", "", "only runs of the program with this digest")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of runs, 0 for all")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd)

	if opts.Limit < 0 {
		return formatter.Fail(ExitCommandError, ErrCodeInput, "--limit must be non-negative", nil)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, err.Error(), nil)
	}
	defer st.Close()

	runs, err := st.ListRuns(ctx, store.RunFilter{
		ProgramDigest: opts.Program,
		Function:      opts.Function,
		Limit:         opts.Limit,
	})
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, err.Error(), nil)
	}

	entries := make([]HistoryEntry, len(runs))
	for i, r := range runs {
		entries[i] = HistoryEntry{
			RunID:         r.ID,
			Seq:           r.Seq,
			ProgramDigest: r.ProgramDigest,
			Function:      r.Function,
			Inputs:        r.Inputs,
			Outputs:       r.Outputs,
			ErrorCode:     r.ErrorCode,
			Steps:         r.Steps,
			CoreVersion:   r.CoreVersion,
		}
	}

	if formatter.Format == "json" {
		return formatter.Success(entries)
	}

	w := formatter.Writer
	if len(entries) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(w, "%d %s %s %s(%s) -> %s [%d step(s)]\n",
			e.Seq, e.RunID, shortDigest(e.ProgramDigest), e.Function, joinValues(e.Inputs), describeEntry(e), e.Steps)
	}
	return nil
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}

func joinValues(values [][]string) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strings.Join(v, ",")
	}
	return strings.Join(parts, " ")
}

func describeEntry(e HistoryEntry) string {
	if e.ErrorCode != "" {
		return e.ErrorCode
	}
	return "[" + joinValues(e.Outputs) + "]"
}

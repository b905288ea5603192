package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/sierra/internal/apchange"
	"github.com/roach88/sierra/internal/ir"
	"github.com/roach88/sierra/internal/liveness"
)

// AnalyzeOptions holds flags for the analyze command.
type AnalyzeOptions struct {
	*RootOptions
	Statements bool // per-statement detail in text output
}

// AnalysisResult holds the static analyses of a program.
type AnalysisResult struct {
	Functions  []FunctionAnalysis  `json:"functions"`
	Components [][]string          `json:"components"`
	Statements []StatementAnalysis `json:"statements"`
}

// FunctionAnalysis is the net ap change of one function.
type FunctionAnalysis struct {
	ID       string `json:"id"`
	ApChange string `json:"ap_change"`
}

// StatementAnalysis holds the per-branch ap changes of a statement and the
// variables required before it.
type StatementAnalysis struct {
	Index     int      `json:"index"`
	Text      string   `json:"text"`
	ApChanges []string `json:"ap_changes,omitempty"`
	Required  []string `json:"required"`
}

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AnalyzeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "analyze <program>",
		Short: "Report ap changes and required variables",
		Long: `Run the static analyses over a valid program.

For every function, reports the net ap change from entry to return:
Known(n) when every path agrees, Unknown otherwise. Functions are solved
callees first, one strongly connected component of the call graph at a
time. For every statement, reports the per-branch ap changes and the
variables that must be bound before it executes.

Examples:
  sierra analyze fib.cue
  sierra analyze calls.cue --statements
  sierra analyze calls.cue --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Statements, "statements", false, "print per-statement results")

	return cmd
}

func runAnalyze(opts *AnalyzeOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	p, registry, err := SpecializeProgram(path)
	if err != nil {
		return outputLoadError(formatter, err)
	}

	info, err := apchange.Calculate(registry, apchange.WithLogger(logger))
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeGeneric, fmt.Sprintf("ap change analysis: %v", err), nil)
	}
	required, err := liveness.RequiredVars(p.Statements)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeGeneric, fmt.Sprintf("liveness analysis: %v", err), nil)
	}

	result := buildAnalysis(p, info, required)
	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	return outputAnalysisText(formatter, result, opts.Statements)
}

func buildAnalysis(p *ir.Program, info *apchange.ProgramInfo, required []*liveness.VarSet) *AnalysisResult {
	result := &AnalysisResult{
		Functions:  make([]FunctionAnalysis, 0, len(p.Funcs)),
		Components: [][]string{},
		Statements: make([]StatementAnalysis, len(p.Statements)),
	}

	for _, f := range p.Funcs {
		a, _ := info.Function(f.ID)
		result.Functions = append(result.Functions, FunctionAnalysis{ID: string(f.ID), ApChange: a.String()})
	}

	for _, scc := range info.Components() {
		ids := make([]string, len(scc))
		for i, id := range scc {
			ids[i] = string(id)
		}
		result.Components = append(result.Components, ids)
	}

	for i, s := range p.Statements {
		sa := StatementAnalysis{Index: i, Text: s.String(), Required: []string{}}
		for _, c := range info.Statement(ir.StatementIdx(i)) {
			sa.ApChanges = append(sa.ApChanges, c.String())
		}
		for _, v := range required[i].Vars() {
			sa.Required = append(sa.Required, string(v))
		}
		result.Statements[i] = sa
	}
	return result
}

func outputAnalysisText(formatter *OutputFormatter, result *AnalysisResult, statements bool) error {
	w := formatter.Writer

	fmt.Fprintln(w, "Functions:")
	for _, f := range result.Functions {
		fmt.Fprintf(w, "  %s: %s\n", f.ID, f.ApChange)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Call graph components (callees first):")
	for _, c := range result.Components {
		fmt.Fprintf(w, "  [%s]\n", strings.Join(c, ", "))
	}

	if !statements {
		return nil
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Statements:")
	for _, s := range result.Statements {
		line := fmt.Sprintf("  %3d  %-40s requires {%s}", s.Index, s.Text, strings.Join(s.Required, ", "))
		if len(s.ApChanges) > 0 {
			line += "  ap " + strings.Join(s.ApChanges, " | ")
		}
		fmt.Fprintln(w, line)
	}
	return nil
}

package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/sierra/internal/ir"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
	Lower  bool   // drop labels and resolve targets to statement indices
}

// CompilationResult describes a compiled program.
type CompilationResult struct {
	Digest     string            `json:"digest"`
	IRVersion  string            `json:"ir_version"`
	Functions  []FunctionSummary `json:"functions"`
	Statements int               `json:"statements"`
	Text       string            `json:"text"`
}

// FunctionSummary is one row of the function table.
type FunctionSummary struct {
	ID      string   `json:"id"`
	Params  []string `json:"params"`
	Returns []string `json:"returns"`
	Entry   int      `json:"entry"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <program>",
		Short: "Compile a CUE program to Sierra text",
		Long: `Compile a Sierra program written in CUE and print it in Sierra text form
together with its content digest.

The program is a .cue file or a directory holding one CUE package.
Compilation checks shape only; use validate to check it against the
libfunc catalog.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write program text to this file")
	cmd.Flags().BoolVar(&opts.Lower, "lower", false, "drop labels and resolve branch targets to statement indices")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	p, err := LoadProgram(path)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	formatter.VerboseLog("Loaded %d function(s), %d statement(s) from %s", len(p.Funcs), len(p.Statements), path)

	if opts.Lower {
		if p, err = ir.Lower(p); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeLoadFailed, err.Error(), nil)
		}
	}

	digest, err := ir.ProgramDigest(p)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, fmt.Sprintf("computing digest: %v", err), nil)
	}

	result := &CompilationResult{
		Digest:     digest,
		IRVersion:  ir.IRVersion,
		Functions:  summarizeFunctions(p),
		Statements: len(p.Statements),
		Text:       p.String(),
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, []byte(result.Text), 0o644); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
		}
	}

	return outputCompileSuccess(formatter, result, opts.Output)
}

func summarizeFunctions(p *ir.Program) []FunctionSummary {
	out := make([]FunctionSummary, len(p.Funcs))
	for i, f := range p.Funcs {
		s := FunctionSummary{
			ID:      string(f.ID),
			Params:  make([]string, len(f.Params)),
			Returns: make([]string, len(f.RetTypes)),
			Entry:   int(f.Entry),
		}
		for j, prm := range f.Params {
			s.Params[j] = fmt.Sprintf("%s: %s", prm.ID, prm.Ty)
		}
		for j, ret := range f.RetTypes {
			s.Returns[j] = ret.String()
		}
		out[i] = s
	}
	return out
}

// outputCompileSuccess outputs successful compilation results.
func outputCompileSuccess(formatter *OutputFormatter, result *CompilationResult, outputFile string) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Compiled %d function(s), %d statement(s)\n", len(result.Functions), result.Statements)
	fmt.Fprintf(w, "Digest: %s\n\n", result.Digest)

	if outputFile != "" {
		fmt.Fprintf(w, "Wrote program text to %s\n", outputFile)
		return nil
	}
	fmt.Fprint(w, result.Text)
	return nil
}

// outputLoadError outputs a load failure; these are command-level errors (exit code 2).
func outputLoadError(formatter *OutputFormatter, err error) error {
	code, message := loadErrorCode(err)
	var details any
	var loadErr *LoadError
	if errors.As(err, &loadErr) && loadErr.Pos.IsValid() {
		details = map[string]any{
			"file":   loadErr.Pos.Filename(),
			"line":   loadErr.Pos.Line(),
			"column": loadErr.Pos.Column(),
		}
		if formatter.Format != "json" {
			fmt.Fprintf(formatter.Writer, "%s:%d:%d\n", loadErr.Pos.Filename(), loadErr.Pos.Line(), loadErr.Pos.Column())
		}
	}
	return formatter.Fail(ExitCommandError, code, message, details)
}

package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProgram(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "program.cue")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func decodeResponse(t *testing.T, out string, data any) CLIResponse {
	t.Helper()
	var raw struct {
		CLIResponse
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &raw), out)
	if data != nil {
		require.NoError(t, json.Unmarshal(raw.Data, data))
	}
	return raw.CLIResponse
}

func TestCompileText(t *testing.T) {
	out, err := execute(t, "compile", filepath.Join(programDir, "fib.cue"))
	require.NoError(t, err)

	assert.Contains(t, out, "✓ Compiled 1 function(s), 12 statement(s)")
	assert.Contains(t, out, "Digest: ")
	assert.Contains(t, out, "LOOP:\n")
	assert.Contains(t, out, "fib@0(a: felt, b: felt, n: felt) -> (felt);")
}

func TestCompileJSON(t *testing.T) {
	out, err := execute(t, "--format", "json", "compile", filepath.Join(programDir, "calls.cue"))
	require.NoError(t, err)

	var result CompilationResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.Len(t, result.Digest, 64)
	assert.Equal(t, "1", result.IRVersion)
	assert.Equal(t, 26, result.Statements)

	ids := make([]string, len(result.Functions))
	for i, f := range result.Functions {
		ids[i] = f.ID
	}
	assert.Equal(t, []string{"double", "main", "even", "odd"}, ids)
	assert.Equal(t, 0, result.Functions[0].Entry)
}

func TestCompileDigestIsStable(t *testing.T) {
	path := filepath.Join(programDir, "fib.cue")
	var first, second CompilationResult

	out, err := execute(t, "--format", "json", "compile", path)
	require.NoError(t, err)
	decodeResponse(t, out, &first)

	out, err = execute(t, "--format", "json", "compile", path)
	require.NoError(t, err)
	decodeResponse(t, out, &second)

	assert.Equal(t, first.Digest, second.Digest)
}

func TestCompileLower(t *testing.T) {
	out, err := execute(t, "--format", "json", "compile", "--lower", filepath.Join(programDir, "fib.cue"))
	require.NoError(t, err)

	var result CompilationResult
	decodeResponse(t, out, &result)
	assert.Equal(t, 10, result.Statements)
	assert.NotContains(t, result.Text, "LOOP:")
}

func TestCompileOutputFile(t *testing.T) {
	target := filepath.Join(t.TempDir(), "fib.sierra")
	out, err := execute(t, "compile", filepath.Join(programDir, "fib.cue"), "-o", target)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote program text to "+target)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(data), "return(a);")
}

func TestCompileMissingProgram(t *testing.T) {
	out, err := execute(t, "--format", "json", "compile", "/nonexistent/program.cue")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	resp := decodeResponse(t, out, nil)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
}

func TestCompileEmptyDirectory(t *testing.T) {
	_, err := execute(t, "compile", t.TempDir())
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeNoFiles)
}

func TestCompileShapeErrorHasPosition(t *testing.T) {
	path := writeProgram(t, `
functions: f: {returns: ["felt"]}
statements: [{return: []}]
`)
	out, err := execute(t, "compile", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E004]")
	assert.Contains(t, out, "functions.f.entry: entry is required")
}

func TestCompileDoesNotSpecialize(t *testing.T) {
	path := writeProgram(t, `
functions: f: {entry: 0, returns: ["felt"]}
statements: [
	{invoke: "no_such_libfunc", results: ["x"]},
	{return: ["x"]},
]
`)
	out, err := execute(t, "compile", path)
	require.NoError(t, err)
	assert.Contains(t, out, "no_such_libfunc() -> (x);")
}

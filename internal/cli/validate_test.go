package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const unknownLibfuncProgram = `
functions: f: {entry: 0, returns: ["felt"]}
statements: [
	{invoke: "no_such_libfunc", results: ["x"]},
	{return: ["x"]},
]
`

func TestValidateValidProgram(t *testing.T) {
	out, err := execute(t, "validate", filepath.Join(programDir, "fib.cue"))
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Program valid")
	assert.NotContains(t, out, "warning")
}

func TestValidateReportsRecursion(t *testing.T) {
	out, err := execute(t, "validate", filepath.Join(programDir, "calls.cue"))
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Program valid")
	assert.Contains(t, out, "warning: Mutually recursive functions:")
}

func TestValidateRecursionJSON(t *testing.T) {
	out, err := execute(t, "--format", "json", "validate", filepath.Join(programDir, "calls.cue"))
	require.NoError(t, err)

	var result ValidationResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, result.Valid)
	require.Len(t, result.Warnings, 1)
	assert.ElementsMatch(t, []string{"even", "odd"}, result.Warnings[0].Path[:2])
	assert.Equal(t, result.Warnings[0].Path[0], result.Warnings[0].Path[2])
}

func TestValidateUnknownLibfunc(t *testing.T) {
	path := writeProgram(t, unknownLibfuncProgram)

	out, err := execute(t, "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, "  E101 statements[0]: ")
}

func TestValidateReportsAllErrors(t *testing.T) {
	path := writeProgram(t, `
functions: f: {
	params: [{id: "a", type: "felt"}]
	returns: ["felt"]
	entry: 0
}
statements: [
	{invoke: "felt_add", inputs: ["a"], results: ["x"]},
	{invoke: "no_such_libfunc", results: ["y"]},
	{return: ["x"]},
]
`)

	out, err := execute(t, "--format", "json", "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var result ValidationResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "error", resp.Status)
	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 2)
	assert.Equal(t, "E104", result.Errors[0].Code)
	assert.Equal(t, "statements[0]", result.Errors[0].Field)
	assert.Equal(t, "E101", result.Errors[1].Code)
	assert.Equal(t, "E104", resp.Error.Code)
}

func TestValidateStructuralError(t *testing.T) {
	path := writeProgram(t, `
functions: f: {entry: 7, returns: []}
statements: [{return: []}]
`)

	out, err := execute(t, "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "E100")
}

func TestValidateMissingProgram(t *testing.T) {
	_, err := execute(t, "validate", "/nonexistent/program.cue")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

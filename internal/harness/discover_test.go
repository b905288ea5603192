package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindScenarios(t *testing.T) {
	files, err := FindScenarios(scenarioDir)
	require.NoError(t, err)

	names := make([]string, len(files))
	for i, f := range files {
		names[i] = filepath.Base(f)
	}
	assert.Equal(t, []string{"call_double.yaml", "felt_fib.yaml", "parity.yaml", "uint128_fib.yaml"}, names)

	_, err = FindScenarios(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestLoadScenarios(t *testing.T) {
	all, err := LoadScenarios(scenarioDir)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	one, err := LoadScenarios(filepath.Join(scenarioDir, "parity.yaml"))
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, "parity", one[0].Name)

	bad := writeScenario(t, "name: broken\n")
	_, err = LoadScenarios(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), bad)
}

package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const passingScenario = `name: short_unlock
sequence: [3, 1]
steps:
  - digit: 3
  - digit: 1
    expect: { unlocked: true, status: 0x3E }
assertions:
  - type: final_state
    expect: { outcome: unlocked }
`

const failingScenario = `name: wrong_expectation
sequence: [3, 1]
steps:
  - digit: 3
  - digit: 2
    expect: { unlocked: true }
`

func executeTest(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := NewTestCommand(&RootOptions{Format: format})
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func writeScenarioFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestTest_ScenarioSuitePasses(t *testing.T) {
	out, err := executeTest(t, "text", scenariosDir)
	require.NoError(t, err, out)

	assert.Contains(t, out, "✓ unlock_in_order")
	assert.Contains(t, out, "✓ vault_from_cue")
	assert.Contains(t, out, "Test Summary: 9 passed, 0 failed, 9 total")
	assert.Contains(t, out, "✓ All scenarios passed")
	assert.NotContains(t, out, "no golden file")
}

func TestTest_Filter(t *testing.T) {
	out, err := executeTest(t, "json", scenariosDir, "--filter", "reset_*")
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 2, resp.Data.Total)
	for _, s := range resp.Data.Scenarios {
		assert.True(t, s.Pass, s.Name)
		assert.Equal(t, goldenMatch, s.Golden, s.Name)
	}
}

func TestTest_MissingGoldenStillPasses(t *testing.T) {
	dir := t.TempDir()
	writeScenarioFile(t, dir, "short_unlock.yaml", passingScenario)

	out, err := executeTest(t, "text", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ short_unlock (no golden file)")
}

func TestTest_UpdateThenMatch(t *testing.T) {
	dir := t.TempDir()
	writeScenarioFile(t, dir, "short_unlock.yaml", passingScenario)

	out, err := executeTest(t, "text", dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ short_unlock (golden updated)")
	assert.FileExists(t, filepath.Join(dir, "golden", "short_unlock.golden"))

	out, err = executeTest(t, "text", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ short_unlock\n")
}

func TestTest_GoldenMismatch(t *testing.T) {
	dir := t.TempDir()
	writeScenarioFile(t, dir, "short_unlock.yaml", passingScenario)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "golden"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "golden", "short_unlock.golden"), []byte("{}"), 0644))

	out, err := executeTest(t, "text", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ short_unlock")
	assert.Contains(t, out, "does not match golden file")
}

func TestTest_FailingScenario(t *testing.T) {
	dir := t.TempDir()
	writeScenarioFile(t, dir, "wrong_expectation.yaml", failingScenario)
	writeScenarioFile(t, dir, "short_unlock.yaml", passingScenario)

	out, err := executeTest(t, "json", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
		Error  *CLIError  `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_TEST_FAILED", resp.Error.Code)
	assert.Equal(t, 1, resp.Data.Passed)
	assert.Equal(t, 1, resp.Data.Failed)
}

func TestTest_UnloadableScenario(t *testing.T) {
	dir := t.TempDir()
	writeScenarioFile(t, dir, "broken.yaml", "name: broken\nsequence: [1]\nsteps: [{digit: 99}]\n")

	out, err := executeTest(t, "text", dir)
	require.Error(t, err)
	assert.Contains(t, out, "✗ broken.yaml")
	assert.Contains(t, out, "failed to load scenario")
}

func TestTest_NoScenarios(t *testing.T) {
	out, err := executeTest(t, "text", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestTest_NonExistentDir(t *testing.T) {
	_, err := executeTest(t, "text", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

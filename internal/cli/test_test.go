package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sortedScenario = `name: sorted
description: Single ordering key
fields: none
cases:
  - name: one key
    query:
      order:
        - {field: A}
    expect:
      jql: 'order by A'
`

const brokenScenario = `name: broken
description: Expects the wrong direction
fields: none
cases:
  - name: one key
    query:
      order:
        - {field: A}
    expect:
      jql: 'order by A desc'
`

// scenarioDir writes each scenario into a fresh directory.
func scenarioDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestTest_HarnessTestdata(t *testing.T) {
	out, err := execute(t, nil, "test", filepath.Join("..", "harness", "testdata"))
	require.NoError(t, err, out)

	assert.Contains(t, out, "✓ default-fields")
	assert.Contains(t, out, "✓ legacy-ordering (2 cases)")
	assert.Contains(t, out, "3 passed, 0 failed, 3 total")
}

func TestTest_Failure(t *testing.T) {
	dir := scenarioDir(t, map[string]string{
		"sorted.yaml": sortedScenario,
		"broken.yaml": brokenScenario,
	})

	out, err := execute(t, nil, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✓ sorted (1 cases)")
	assert.Contains(t, out, "✗ broken")
	assert.Contains(t, out, `one key: jql: expected "order by A desc", got "order by A"`)
	assert.Contains(t, out, "1 passed, 1 failed, 2 total")
}

func TestTest_UpdateGolden(t *testing.T) {
	dir := scenarioDir(t, map[string]string{"sorted.yaml": sortedScenario})
	golden := filepath.Join(dir, "golden", "sorted.golden")

	out, err := execute(t, nil, "test", dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ sorted (1 cases) golden updated")

	data, err := os.ReadFile(golden)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"jql": "order by A"`)

	out, err = execute(t, nil, "test", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")

	require.NoError(t, os.WriteFile(golden, []byte("{}\n"), 0o644))
	out, err = execute(t, nil, "test", dir)
	require.Error(t, err)
	assert.Contains(t, out, "golden file mismatch")
}

func TestTest_UpdateSkipsFailingScenario(t *testing.T) {
	dir := scenarioDir(t, map[string]string{"broken.yaml": brokenScenario})

	_, err := execute(t, nil, "test", dir, "--update")
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "golden", "broken.golden"))
}

func TestTest_Filter(t *testing.T) {
	dir := scenarioDir(t, map[string]string{
		"sorted.yaml": sortedScenario,
		"broken.yaml": brokenScenario,
	})

	out, err := execute(t, nil, "test", dir, "--filter", "sort*")
	require.NoError(t, err)
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")
	assert.NotContains(t, out, "broken")
}

func TestTest_NoScenarios(t *testing.T) {
	out, err := execute(t, nil, "test", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "No scenarios found.\n", out)
}

func TestTest_MissingDirectory(t *testing.T) {
	out, err := execute(t, nil, "test", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E006]: scenarios directory not found")
}

func TestTest_InvalidScenario(t *testing.T) {
	dir := scenarioDir(t, map[string]string{"empty.yaml": "name: empty\ndescription: no cases\n"})

	out, err := execute(t, nil, "test", dir)
	require.Error(t, err)
	assert.Contains(t, out, "✗ empty.yaml")
	assert.Contains(t, out, "failed to load scenario")
}

func TestTest_JSON(t *testing.T) {
	dir := scenarioDir(t, map[string]string{
		"sorted.yaml": sortedScenario,
		"broken.yaml": brokenScenario,
	})

	out, err := execute(t, nil, "--format", "json", "test", dir)
	require.Error(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
		Error  *CLIError  `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeTestFailed, resp.Error.Code)
	assert.Equal(t, 2, resp.Data.Total)
	assert.Equal(t, 1, resp.Data.Failed)

	// Walk order is lexical, so broken comes first.
	require.Len(t, resp.Data.Scenarios, 2)
	assert.Equal(t, "broken", resp.Data.Scenarios[0].Name)
	assert.False(t, resp.Data.Scenarios[0].Pass)
	assert.NotEmpty(t, resp.Data.Scenarios[0].Errors)
	assert.Equal(t, ScenarioResult{Name: "sorted", Pass: true, Cases: 1}, resp.Data.Scenarios[1])
}

package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/jiraq/internal/store"
	"github.com/roach88/jiraq/internal/testutil"
)

func TestFilter_Lifecycle(t *testing.T) {
	db := filepath.Join(t.TempDir(), "filters.db")
	path := writeFile(t, "q.yaml", openBugsYAML)

	out, err := execute(t, nil, "--db", db, "filter", "save", "triage", path)
	require.NoError(t, err)
	assert.Equal(t, "saved triage: "+openBugsJQL+" (limit 2)\n", out)

	out, err = execute(t, nil, "--db", db, "filter", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "triage")
	assert.Contains(t, out, openBugsJQL)

	out, err = execute(t, nil, "--db", db, "--format", "json", "filter", "show", "triage")
	require.NoError(t, err)
	var resp struct {
		Data store.Filter `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "triage", resp.Data.Name)
	assert.Equal(t, "Unresolved bugs, most urgent first", resp.Data.Description)
	assert.Equal(t, openBugsJQL, resp.Data.Translation().JQL())
	assert.Equal(t, 2, resp.Data.Limit)
	assert.Equal(t, path+"#open-bugs", resp.Data.Source)

	tracker := &testutil.FakeTracker{Issues: testutil.NewIssues(5)}
	out, err = execute(t, &RootOptions{Backend: tracker}, "--db", db, "filter", "run", "triage")
	require.NoError(t, err)
	assert.Contains(t, out, "DEMO-2")
	assert.NotContains(t, out, "DEMO-3")
	require.Len(t, tracker.Requests(), 1)
	assert.Equal(t, openBugsJQL, tracker.Requests()[0].JQL)

	out, err = execute(t, nil, "--db", db, "filter", "delete", "triage")
	require.NoError(t, err)
	assert.Equal(t, "deleted triage\n", out)

	out, err = execute(t, nil, "--db", db, "filter", "show", "triage")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E006]: filter not found")
}

func TestFilter_SaveReplaces(t *testing.T) {
	db := filepath.Join(t.TempDir(), "filters.db")
	path := writeFile(t, "q.yaml", twoQueriesYAML)

	_, err := execute(t, nil, "--db", db, "filter", "save", "mine", path, "--doc", "open-bugs")
	require.NoError(t, err)
	_, err = execute(t, nil, "--db", db, "filter", "save", "mine", path, "--doc", "crashes", "--description", "crash reports")
	require.NoError(t, err)

	out, err := execute(t, nil, "--db", db, "--format", "json", "filter", "list")
	require.NoError(t, err)
	var resp struct {
		Data []store.Filter `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "crash reports", resp.Data[0].Description)
	assert.Equal(t, `Summary ~ "crash"`, resp.Data[0].Query)
	assert.Zero(t, resp.Data[0].Limit)
}

func TestFilter_ListEmpty(t *testing.T) {
	db := filepath.Join(t.TempDir(), "filters.db")

	out, err := execute(t, nil, "--db", db, "filter", "list")
	require.NoError(t, err)
	assert.Equal(t, "No saved filters.\n", out)
}

func TestFilter_SaveUntranslatable(t *testing.T) {
	db := filepath.Join(t.TempDir(), "filters.db")
	path := writeFile(t, "q.yaml", "name: bad\nwhere:\n  not: {field: Type, value: Bug}\n")

	out, err := execute(t, nil, "--db", db, "filter", "save", "bad", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E002]")

	out, err = execute(t, nil, "--db", db, "filter", "list")
	require.NoError(t, err)
	assert.Equal(t, "No saved filters.\n", out)
}

func TestFilter_DeleteMissing(t *testing.T) {
	db := filepath.Join(t.TempDir(), "filters.db")

	out, err := execute(t, nil, "--db", db, "filter", "delete", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "E006")
}

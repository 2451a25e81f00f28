package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoQueriesYAML = openBugsYAML + `---
name: crashes
where: {field: Summary, value: crash}
order:
  - {field: Priority}
  - {field: Created, desc: true}
`

func TestTranslate_Text(t *testing.T) {
	path := writeFile(t, "q.yaml", twoQueriesYAML)

	out, err := execute(t, nil, "translate", path)
	require.NoError(t, err)

	assert.Equal(t, `open-bugs
  jql:   `+openBugsJQL+`
  limit: 2

crashes
  jql:   Summary ~ "crash" order by Priority, Created desc
`, out)
}

func TestTranslate_JSON(t *testing.T) {
	path := writeFile(t, "q.yaml", twoQueriesYAML)

	out, err := execute(t, nil, "--format", "json", "translate", path, "--name", "open-bugs")
	require.NoError(t, err)

	var resp struct {
		Status string            `json:"status"`
		Data   []TranslatedQuery `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data, 1)

	q := resp.Data[0]
	assert.Equal(t, "open-bugs", q.Name)
	assert.Equal(t, openBugsJQL, q.JQL)
	assert.Equal(t, `(issuetype = "Bug" and Resolution is null)`, q.Query)
	assert.Equal(t, " order by Priority desc", q.OrderBy)
	assert.Equal(t, 2, q.Limit)
}

func TestTranslate_LegacyOrdering(t *testing.T) {
	path := writeFile(t, "q.yaml", twoQueriesYAML)

	out, err := execute(t, nil, "--legacy-ordering", "translate", path, "--name", "crashes")
	require.NoError(t, err)
	assert.Contains(t, out, `Summary ~ "crash" order by Created desc, Priority`)
}

func TestTranslate_FieldsFile(t *testing.T) {
	fields := writeFile(t, "fields.yaml", "fields:\n  Summary: {contains: false}\n")
	path := writeFile(t, "q.yaml", twoQueriesYAML)

	out, err := execute(t, nil, "--fields", fields, "translate", path, "--name", "crashes")
	require.NoError(t, err)
	assert.Contains(t, out, `Summary = "crash"`)
}

func TestTranslate_Errors(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		args     []string
		wantExit int
		wantOut  string
	}{
		{
			name:     "negation",
			content:  "name: not-bug\nwhere:\n  not: {field: Type, value: Bug}\n",
			wantExit: ExitFailure,
			wantOut:  "Error [E002]: cannot translate not-bug",
		},
		{
			name:     "zero limit",
			content:  "name: none\nlimit: 0\n",
			wantExit: ExitFailure,
			wantOut:  "Error [E002]",
		},
		{
			name:     "unknown document",
			content:  openBugsYAML,
			args:     []string{"--name", "nope"},
			wantExit: ExitCommandError,
			wantOut:  "Error [E006]",
		},
		{
			name:     "malformed document",
			content:  "name: bad\nwhere: {field: Type, colour: red}\n",
			wantExit: ExitCommandError,
			wantOut:  "Error [E001]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "q.yaml", tt.content)

			out, err := execute(t, nil, append([]string{"translate", path}, tt.args...)...)
			require.Error(t, err)
			assert.Equal(t, tt.wantExit, GetExitCode(err))
			assert.Contains(t, out, tt.wantOut)
		})
	}
}

func TestTranslate_MissingFile(t *testing.T) {
	out, err := execute(t, nil, "--format", "json", "translate", "/nonexistent/q.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeLoad, resp.Error.Code)
}

package issue

import "github.com/roach88/jiraq/internal/jql"

// Properties lists the filterable Issue properties in declaration order.
var Properties = []string{
	"Key", "Summary", "Description", "Environment", "Type", "Status",
	"Priority", "Resolution", "Project", "Assignee", "Reporter", "Labels",
	"Components", "FixVersions", "AffectsVersions", "Votes", "Created",
	"Updated", "DueDate", "ResolutionDate",
}

var overrides = map[string]jql.FieldMeta{
	"Summary":         {Contains: true},
	"Description":     {Contains: true},
	"Environment":     {Contains: true},
	"Type":            {RemoteName: "issuetype"},
	"FixVersions":     {RemoteName: "FixVersion"},
	"AffectsVersions": {RemoteName: "AffectedVersion"},
	"Components":      {RemoteName: "component"},
	"DueDate":         {RemoteName: "duedate"},
	"ResolutionDate":  {RemoteName: "resolutiondate"},
}

// DefaultFields returns the registration table for Issue properties.
// Free-text properties use contains mode; multi-valued properties such as
// Labels and Components keep exact-match equality. Every call returns a new
// table.
func DefaultFields() *jql.FieldTable {
	table := jql.NewFieldTable()
	for _, p := range Properties {
		table.Register(p, overrides[p])
	}
	return table
}

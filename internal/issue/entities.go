package issue

// Named entities of the issue tracker. Each implements
// queryir.Comparable so it can be compared against a field directly:
// Field("Priority").Eq(Priority{Name: "Major"}) renders priority = "Major".

// Priority is an issue priority.
type Priority struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name"`
	IconURL string `json:"iconUrl,omitempty"`
}

func (p Priority) JQLValue() any { return p.Name }

// Status is a workflow status.
type Status struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

func (s Status) JQLValue() any { return s.Name }

// IssueType is an issue type such as Bug or Story.
type IssueType struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Subtask     bool   `json:"subtask,omitempty"`
}

func (t IssueType) JQLValue() any { return t.Name }

// Resolution is an issue resolution.
type Resolution struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

func (r Resolution) JQLValue() any { return r.Name }

// Project is compared by key.
type Project struct {
	ID   string `json:"id,omitempty"`
	Key  string `json:"key"`
	Name string `json:"name,omitempty"`
}

func (p Project) JQLValue() any { return p.Key }

// Version is a project version.
type Version struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name"`
	Released bool   `json:"released,omitempty"`
	Archived bool   `json:"archived,omitempty"`
}

func (v Version) JQLValue() any { return v.Name }

// Component is a project component.
type Component struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

func (c Component) JQLValue() any { return c.Name }

// User is compared by user name.
type User struct {
	Name         string `json:"name"`
	Key          string `json:"key,omitempty"`
	DisplayName  string `json:"displayName,omitempty"`
	EmailAddress string `json:"emailAddress,omitempty"`
	Active       bool   `json:"active,omitempty"`
}

func (u User) JQLValue() any { return u.Name }

// CustomFieldDef describes a custom field as listed by the field endpoint.
type CustomFieldDef struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Custom bool   `json:"custom"`
}

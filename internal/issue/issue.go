// Package issue holds the typed data model of the remote issue tracker and
// the default field registration table for Issue properties.
package issue

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Issue is one issue as returned by the search endpoint.
type Issue struct {
	ID     string `json:"id"`
	Key    string `json:"key"`
	Self   string `json:"self,omitempty"`
	Fields Fields `json:"fields"`
}

// Fields are the issue's properties. Property names match the identifiers
// registered in DefaultFields.
type Fields struct {
	Summary         string      `json:"summary"`
	Description     string      `json:"description,omitempty"`
	Environment     string      `json:"environment,omitempty"`
	Type            IssueType   `json:"issuetype"`
	Status          Status      `json:"status"`
	Priority        *Priority   `json:"priority,omitempty"`
	Resolution      *Resolution `json:"resolution,omitempty"`
	Project         Project     `json:"project"`
	Assignee        *User       `json:"assignee,omitempty"`
	Reporter        *User       `json:"reporter,omitempty"`
	Labels          []string    `json:"labels,omitempty"`
	Components      []Component `json:"components,omitempty"`
	FixVersions     []Version   `json:"fixVersions,omitempty"`
	AffectsVersions []Version   `json:"versions,omitempty"`
	Votes           *Votes      `json:"votes,omitempty"`
	Created         Time        `json:"created"`
	Updated         Time        `json:"updated"`
	DueDate         *Date       `json:"duedate,omitempty"`
	ResolutionDate  *Time       `json:"resolutiondate,omitempty"`

	// Custom holds customfield_NNNNN values keyed by field id, undecoded.
	Custom map[string]json.RawMessage `json:"-"`
}

// UnmarshalJSON decodes the declared properties and collects every
// customfield_ entry into Custom.
func (f *Fields) UnmarshalJSON(data []byte) error {
	type plain Fields
	if err := json.Unmarshal(data, (*plain)(f)); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for k, v := range raw {
		if !strings.HasPrefix(k, "customfield_") || string(v) == "null" {
			continue
		}
		if f.Custom == nil {
			f.Custom = make(map[string]json.RawMessage)
		}
		f.Custom[k] = v
	}
	return nil
}

// CustomField decodes the custom field with the given id into v.
// It reports false when the issue carries no value for id.
func (f *Fields) CustomField(id string, v any) (bool, error) {
	raw, ok := f.Custom[id]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return true, fmt.Errorf("custom field %s: %w", id, err)
	}
	return true, nil
}

// Votes is the vote summary of an issue.
type Votes struct {
	Votes    int  `json:"votes"`
	HasVoted bool `json:"hasVoted"`
}

// Timestamp layout used by the REST API.
const (
	TimeLayout = "2006-01-02T15:04:05.000-0700"
	DateLayout = "2006-01-02"
)

// Time is a timestamp in the REST API's layout.
type Time struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Time) UnmarshalJSON(data []byte) error {
	s, ok, err := unquoteTime(data)
	if err != nil || !ok {
		return err
	}
	parsed, err := time.Parse(TimeLayout, s)
	if err != nil {
		// Some servers emit RFC 3339.
		parsed, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return fmt.Errorf("parse time %q: %w", s, err)
		}
	}
	t.Time = parsed
	return nil
}

// MarshalJSON implements json.Marshaler.
func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(TimeLayout))
}

// JQLValue returns the timestamp so it renders with the date-only pattern.
func (t Time) JQLValue() any { return t.Time }

// Date is a calendar date without time of day.
type Date struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(data []byte) error {
	s, ok, err := unquoteTime(data)
	if err != nil || !ok {
		return err
	}
	parsed, err := time.Parse(DateLayout, s)
	if err != nil {
		return fmt.Errorf("parse date %q: %w", s, err)
	}
	d.Time = parsed
	return nil
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(DateLayout))
}

// JQLValue returns the date as a time.Time.
func (d Date) JQLValue() any { return d.Time }

func unquoteTime(data []byte) (string, bool, error) {
	if string(data) == "null" {
		return "", false, nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return "", false, err
	}
	return s, s != "", nil
}

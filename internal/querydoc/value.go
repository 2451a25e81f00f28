package querydoc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/roach88/jiraq/internal/queryir"
)

// Value is a comparison value in a query document.
//
// Scalars decode to their natural Go type (string, int, bool or nil).
// Fractional numbers decode to decimal.Decimal so their digits reach the
// query text unchanged. A single-key mapping selects a typed value:
//
//	{date: [2010, 1, 1]}                  calendar date, folded by queryir.Date
//	{datetime: "2010-01-01T13:45:00Z"}    queryir.LiteralDateTime
//	{func: membersOf, args: [jira-dev]}   queryir.Function
//	{match: "exact text"}                 queryir.LiteralMatch
type Value struct {
	V any
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode && node.ShortTag() == "!!float" {
		if d, err := decimal.NewFromString(node.Value); err == nil {
			v.V = d
			return nil
		}
	}
	var raw any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	out, err := fromGeneric(raw)
	if err != nil {
		return err
	}
	v.V = out
	return nil
}

// UnmarshalJSON implements json.Unmarshaler. Integral numbers decode to
// int64, others to decimal.Decimal.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	out, err := fromGeneric(raw)
	if err != nil {
		return err
	}
	v.V = out
	return nil
}

func fromGeneric(raw any) (any, error) {
	switch x := raw.(type) {
	case json.Number:
		return number(x)
	case []any:
		return nil, loadErr(ErrCodeValue, "", "lists are not comparison values")
	case map[string]any:
		return typedValue(x)
	default:
		return x, nil
	}
}

func number(n json.Number) (any, error) {
	if i, err := n.Int64(); err == nil {
		return i, nil
	}
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return nil, loadErr(ErrCodeValue, "", "invalid number %q", n.String())
	}
	return d, nil
}

func typedValue(m map[string]any) (any, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	switch {
	case has(m, "date") && len(m) == 1:
		parts, ok := m["date"].([]any)
		if !ok || len(parts) != 3 {
			return nil, loadErr(ErrCodeValue, "", "date must be [year, month, day]")
		}
		for i, p := range parts {
			if n, ok := p.(json.Number); ok {
				v, err := number(n)
				if err != nil {
					return nil, err
				}
				parts[i] = v
			}
			if d, ok := parts[i].(decimal.Decimal); ok && d.IsInteger() {
				parts[i] = d.IntPart()
			}
		}
		return queryir.Date(parts[0], parts[1], parts[2]), nil

	case has(m, "datetime") && len(m) == 1:
		s, ok := m["datetime"].(string)
		if !ok {
			return nil, loadErr(ErrCodeValue, "", "datetime must be a string")
		}
		t, err := parseDateTime(s)
		if err != nil {
			return nil, err
		}
		return queryir.DateTime(t), nil

	case has(m, "func") && (len(m) == 1 || len(m) == 2 && has(m, "args")):
		name, ok := m["func"].(string)
		if !ok || name == "" {
			return nil, loadErr(ErrCodeValue, "", "func must be a function name")
		}
		var args []string
		if raw, ok := m["args"]; ok {
			list, ok := raw.([]any)
			if !ok {
				return nil, loadErr(ErrCodeValue, "", "args must be a list")
			}
			for _, a := range list {
				args = append(args, fmt.Sprint(a))
			}
		}
		return queryir.Func(name, args...), nil

	case has(m, "match") && len(m) == 1:
		s, ok := m["match"].(string)
		if !ok {
			return nil, loadErr(ErrCodeValue, "", "match must be a string")
		}
		return queryir.Match(s), nil
	}

	return nil, loadErr(ErrCodeValue, "", "unknown value form {%s}", strings.Join(keys, ", "))
}

func has(m map[string]any, key string) bool {
	_, ok := m[key]
	return ok
}

var dateTimeLayouts = []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02T15:04"}

func parseDateTime(s string) (time.Time, error) {
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, loadErr(ErrCodeValue, "", "datetime %q: want RFC 3339 or 2006-01-02 15:04", s)
}

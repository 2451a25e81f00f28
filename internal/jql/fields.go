package jql

import (
	"sort"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// FieldMeta is the registration for one filterable property.
type FieldMeta struct {
	// RemoteName is the field name understood by the server. Empty means
	// the property's own identifier.
	RemoteName string `json:"name,omitempty" yaml:"name,omitempty"`

	// Contains makes == and != render as the contains operators ~ and !~.
	Contains bool `json:"contains,omitempty" yaml:"contains,omitempty"`
}

// FieldTable maps logical field identifiers to their registrations.
//
// A table is built once at startup and handed to NewTranslator; the
// translator only reads it. Identifiers are NFC-normalized, and lookups
// fall back to a case-folded match so "fixversions" finds "FixVersions".
// A nil *FieldTable is valid and resolves every field to its defaults.
type FieldTable struct {
	entries map[string]FieldMeta
	folded  map[string]string // case-folded id → registered id
}

// NewFieldTable creates an empty table.
func NewFieldTable() *FieldTable {
	return &FieldTable{
		entries: make(map[string]FieldMeta),
		folded:  make(map[string]string),
	}
}

// Register adds or replaces the registration for id and returns the table
// for chaining.
func (t *FieldTable) Register(id string, meta FieldMeta) *FieldTable {
	id = norm.NFC.String(id)
	t.entries[id] = meta
	t.folded[foldKey(id)] = id
	return t
}

// Lookup returns the explicit registration for id, if any.
func (t *FieldTable) Lookup(id string) (FieldMeta, bool) {
	if t == nil {
		return FieldMeta{}, false
	}
	id = norm.NFC.String(id)
	if meta, ok := t.entries[id]; ok {
		return meta, true
	}
	if registered, ok := t.folded[foldKey(id)]; ok {
		return t.entries[registered], true
	}
	return FieldMeta{}, false
}

// Resolve returns the effective registration for id: the explicit one with
// defaults filled in, or {RemoteName: id, Contains: false}.
func (t *FieldTable) Resolve(id string) FieldMeta {
	meta, ok := t.Lookup(id)
	if !ok {
		return FieldMeta{RemoteName: id}
	}
	if meta.RemoteName == "" {
		meta.RemoteName = id
	}
	return meta
}

// Merge returns a new table holding t's registrations overridden by other's.
func (t *FieldTable) Merge(other *FieldTable) *FieldTable {
	out := NewFieldTable()
	for _, src := range []*FieldTable{t, other} {
		if src == nil {
			continue
		}
		for id, meta := range src.entries {
			out.Register(id, meta)
		}
	}
	return out
}

// IDs returns the registered identifiers in sorted order.
func (t *FieldTable) IDs() []string {
	if t == nil {
		return nil
	}
	ids := make([]string, 0, len(t.entries))
	for id := range t.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of registrations.
func (t *FieldTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// foldKey builds the case-insensitive lookup key. A Caser is stateful, so
// a fresh one is used per call.
func foldKey(id string) string {
	return cases.Fold().String(id)
}

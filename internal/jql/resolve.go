package jql

import "github.com/roach88/jiraq/internal/queryir"

// resolvedField is a field access resolved to its rendered remote name and
// equality mode.
type resolvedField struct {
	name     string // rendered, quoted when needed
	contains bool
	custom   bool
}

// resolve maps a field-access node to its remote name and equality mode.
//
// Declared properties go through the field table. Custom fields accessed by
// literal name are always quoted and always compared with contains
// semantics; the table is not consulted for them.
func (w *walker) resolve(e queryir.Expr) (resolvedField, error) {
	switch f := e.(type) {
	case *queryir.FieldRef:
		meta := w.fields.Resolve(f.Name)
		return resolvedField{
			name:     fieldName(meta.RemoteName),
			contains: meta.Contains,
		}, nil
	case *queryir.CustomFieldRef:
		return resolvedField{
			name:     quote(f.Name),
			contains: true,
			custom:   true,
		}, nil
	default:
		return resolvedField{}, invalidTarget(e)
	}
}

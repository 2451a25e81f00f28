// Package querydoc reads query documents and field tables from YAML, JSON
// and CUE files and lowers them into queryir trees.
//
// A query document:
//
//	name: open-bugs
//	where:
//	  all:
//	    - {field: Type, op: "==", value: Bug}
//	    - {field: Resolution, op: "==", value: null}
//	    - {field: Created, op: ">=", value: {date: [2024, 1, 1]}}
//	order:
//	  - {field: Priority, desc: true}
//	  - {field: Created}
//	limit: 25
package querydoc

import (
	"fmt"

	"github.com/roach88/jiraq/internal/queryir"
)

// Document is one named query.
type Document struct {
	Name        string     `yaml:"name" json:"name"`
	Description string     `yaml:"description,omitempty" json:"description,omitempty"`
	Where       *Predicate `yaml:"where,omitempty" json:"where,omitempty"`
	Order       []OrderKey `yaml:"order,omitempty" json:"order,omitempty"`
	Limit       *int       `yaml:"limit,omitempty" json:"limit,omitempty"`
}

// Predicate is one node of a document's filter. Exactly one of All, Any,
// Not or a comparison (Field or Custom with Op and Value) is set.
type Predicate struct {
	All []Predicate `yaml:"all,omitempty" json:"all,omitempty"`
	Any []Predicate `yaml:"any,omitempty" json:"any,omitempty"`
	Not *Predicate  `yaml:"not,omitempty" json:"not,omitempty"`

	Field  string `yaml:"field,omitempty" json:"field,omitempty"`
	Custom string `yaml:"custom,omitempty" json:"custom,omitempty"`

	// Op defaults to "==".
	Op string `yaml:"op,omitempty" json:"op,omitempty"`

	// Value is the comparison value; absent or null compares against null.
	Value Value `yaml:"value,omitempty" json:"value,omitempty"`
}

// OrderKey is one ordering key. The first key of a document is the primary
// ordering; the rest are secondary keys in the order listed.
type OrderKey struct {
	Field  string `yaml:"field,omitempty" json:"field,omitempty"`
	Custom string `yaml:"custom,omitempty" json:"custom,omitempty"`
	Desc   bool   `yaml:"desc,omitempty" json:"desc,omitempty"`
}

// Lower converts the document into a queryir directive chain.
func (d *Document) Lower() (queryir.Node, error) {
	b := queryir.Issues()

	if d.Where != nil {
		pred, err := d.Where.lower("where")
		if err != nil {
			return nil, err
		}
		b = b.Where(pred)
	}

	for i, k := range d.Order {
		key, err := fieldExpr(ErrCodeOrder, k.Field, k.Custom, fmt.Sprintf("order[%d]", i))
		if err != nil {
			return nil, err
		}
		switch {
		case i == 0 && k.Desc:
			b = b.OrderByDescending(key)
		case i == 0:
			b = b.OrderBy(key)
		case k.Desc:
			b = b.ThenByDescending(key)
		default:
			b = b.ThenBy(key)
		}
	}

	if d.Limit != nil {
		b = b.Take(*d.Limit)
	}
	return b.Build(), nil
}

// Lower converts the predicate into a queryir predicate.
func (p *Predicate) Lower() (queryir.Node, error) {
	return p.lower("where")
}

func (p *Predicate) lower(path string) (queryir.Node, error) {
	forms := 0
	for _, set := range []bool{p.All != nil, p.Any != nil, p.Not != nil, p.Field != "" || p.Custom != ""} {
		if set {
			forms++
		}
	}
	if forms != 1 {
		return nil, loadErr(ErrCodePredicate, path, "exactly one of all, any, not, field or custom must be set")
	}

	switch {
	case p.All != nil:
		children, err := lowerList(p.All, path+".all")
		if err != nil {
			return nil, err
		}
		return queryir.All(children...), nil
	case p.Any != nil:
		children, err := lowerList(p.Any, path+".any")
		if err != nil {
			return nil, err
		}
		return queryir.Any(children...), nil
	case p.Not != nil:
		inner, err := p.Not.lower(path + ".not")
		if err != nil {
			return nil, err
		}
		return queryir.Negate(inner), nil
	}

	left, err := fieldExpr(ErrCodePredicate, p.Field, p.Custom, path)
	if err != nil {
		return nil, err
	}
	op := queryir.OpEq
	if p.Op != "" {
		if op, err = queryir.ParseOp(p.Op); err != nil {
			return nil, loadErr(ErrCodePredicate, path+".op", "%v", err)
		}
	}
	return queryir.CompareWith(op, left, p.Value.V), nil
}

func lowerList(preds []Predicate, path string) ([]queryir.Node, error) {
	if len(preds) == 0 {
		return nil, loadErr(ErrCodePredicate, path, "must not be empty")
	}
	out := make([]queryir.Node, len(preds))
	for i := range preds {
		n, err := preds[i].lower(fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

func fieldExpr(code, field, custom, path string) (queryir.Expr, error) {
	switch {
	case field != "" && custom != "":
		return nil, loadErr(code, path, "field and custom are mutually exclusive")
	case field != "":
		return queryir.Field(field), nil
	case custom != "":
		return queryir.CustomField(custom), nil
	default:
		return nil, loadErr(code, path, "field or custom is required")
	}
}

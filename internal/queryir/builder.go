package queryir

// Field references a declared issue property by its logical name.
func Field(name string) *FieldRef {
	return &FieldRef{Name: name}
}

// CustomField references a field by literal name through the indexed
// accessor. Custom fields are always compared with contains semantics.
func CustomField(name string) *CustomFieldRef {
	return &CustomFieldRef{Name: name}
}

func compare(op Op, left Expr, value any) *Compare {
	return &Compare{Op: op, Left: left, Right: Lit(value)}
}

// Eq builds f == value.
func (f *FieldRef) Eq(value any) *Compare { return compare(OpEq, f, value) }

// Ne builds f != value.
func (f *FieldRef) Ne(value any) *Compare { return compare(OpNe, f, value) }

// Gt builds f > value.
func (f *FieldRef) Gt(value any) *Compare { return compare(OpGt, f, value) }

// Lt builds f < value.
func (f *FieldRef) Lt(value any) *Compare { return compare(OpLt, f, value) }

// Ge builds f >= value.
func (f *FieldRef) Ge(value any) *Compare { return compare(OpGe, f, value) }

// Le builds f <= value.
func (f *FieldRef) Le(value any) *Compare { return compare(OpLe, f, value) }

func (f *CustomFieldRef) Eq(value any) *Compare { return compare(OpEq, f, value) }
func (f *CustomFieldRef) Ne(value any) *Compare { return compare(OpNe, f, value) }
func (f *CustomFieldRef) Gt(value any) *Compare { return compare(OpGt, f, value) }
func (f *CustomFieldRef) Lt(value any) *Compare { return compare(OpLt, f, value) }
func (f *CustomFieldRef) Ge(value any) *Compare { return compare(OpGe, f, value) }
func (f *CustomFieldRef) Le(value any) *Compare { return compare(OpLe, f, value) }

// CompareWith builds an arbitrary comparison. Unlike the field methods it
// accepts any left-hand expression, so it can produce trees a translator
// will reject.
func CompareWith(op Op, left Expr, value any) *Compare {
	return compare(op, left, value)
}

// All folds predicates into a left-nested And chain.
// It returns nil for no predicates and the predicate itself for one.
func All(preds ...Node) Node {
	return chain(preds, func(l, r Node) Node { return &And{Left: l, Right: r} })
}

// Any folds predicates into a left-nested Or chain.
// It returns nil for no predicates and the predicate itself for one.
func Any(preds ...Node) Node {
	return chain(preds, func(l, r Node) Node { return &Or{Left: l, Right: r} })
}

func chain(preds []Node, join func(l, r Node) Node) Node {
	var out Node
	for _, p := range preds {
		if out == nil {
			out = p
			continue
		}
		out = join(out, p)
	}
	return out
}

// Negate builds a Not predicate.
func Negate(p Node) *Not {
	return &Not{Operand: p}
}

// Builder chains query directives onto a Source.
// Builders are immutable: every method returns a new Builder.
type Builder struct {
	node Node
}

// Issues starts a query over all issues.
func Issues() *Builder {
	return &Builder{node: &Source{}}
}

// Where restricts the query to issues matching pred.
func (b *Builder) Where(pred Node) *Builder {
	return &Builder{node: &Where{Source: b.node, Predicate: pred}}
}

// OrderBy starts an ascending ordering on key.
func (b *Builder) OrderBy(key Expr) *Builder {
	return &Builder{node: &OrderBy{Source: b.node, Key: key}}
}

// OrderByDescending starts a descending ordering on key.
func (b *Builder) OrderByDescending(key Expr) *Builder {
	return &Builder{node: &OrderBy{Source: b.node, Key: key, Descending: true}}
}

// ThenBy adds an ascending secondary ordering on key.
func (b *Builder) ThenBy(key Expr) *Builder {
	return &Builder{node: &OrderBy{Source: b.node, Key: key, Secondary: true}}
}

// ThenByDescending adds a descending secondary ordering on key.
func (b *Builder) ThenByDescending(key Expr) *Builder {
	return &Builder{node: &OrderBy{Source: b.node, Key: key, Descending: true, Secondary: true}}
}

// Take limits the number of results to n.
func (b *Builder) Take(n int) *Builder {
	return b.TakeExpr(&Const{Value: n})
}

// TakeExpr limits the number of results to the value of a closed expression.
func (b *Builder) TakeExpr(count Expr) *Builder {
	return &Builder{node: &Limit{Source: b.node, Count: count}}
}

// Build returns the built query tree.
func (b *Builder) Build() Node {
	return b.node
}

package jql

import (
	"fmt"
	"strings"

	"github.com/roach88/jiraq/internal/queryir"
)

// Translation is the result of translating one query tree.
type Translation struct {
	// Query is the JQL filter text; empty when the filter is trivial.
	Query string `json:"query"`

	// OrderBy is the ordering clause including its leading " order by "
	// prefix, or empty when no ordering was requested.
	OrderBy string `json:"order_by,omitempty"`

	// Limit is the requested maximum result count; 0 means unset.
	Limit int `json:"limit,omitempty"`
}

// HasLimit reports whether a limiting directive was captured.
func (t Translation) HasLimit() bool {
	return t.Limit > 0
}

// JQL returns the complete query string sent to the server: the filter
// followed by the ordering clause.
func (t Translation) JQL() string {
	return strings.TrimSpace(t.Query + t.OrderBy)
}

// String implements fmt.Stringer.
func (t Translation) String() string {
	if t.HasLimit() {
		return fmt.Sprintf("%s (limit %d)", t.JQL(), t.Limit)
	}
	return t.JQL()
}

// Translator converts queryir trees into JQL.
//
// A Translator holds only read-only configuration and is safe for
// concurrent use. Every call to Translate starts from fresh state.
type Translator struct {
	fields          *FieldTable
	legacySecondary bool
}

// Option configures a Translator.
type Option func(*Translator)

// WithLegacySecondaryOrdering restores the historical ThenBy rendering in
// which every secondary key is inserted ahead of the keys already present:
// OrderBy(A).ThenBy(B).ThenBy(C) renders " order by C, B, A" instead of
// " order by A, B, C".
func WithLegacySecondaryOrdering() Option {
	return func(t *Translator) {
		t.legacySecondary = true
	}
}

// NewTranslator creates a Translator resolving field names through fields.
// fields may be nil, in which case every field uses its own identifier and
// exact-match equality.
func NewTranslator(fields *FieldTable, opts ...Option) *Translator {
	t := &Translator{fields: fields}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Fields returns the table the translator resolves field names with.
func (t *Translator) Fields() *FieldTable {
	return t.fields
}

// Translate folds n and renders it as JQL.
//
// n is either a directive chain rooted at a queryir.Source or a bare
// predicate. Errors from constructor evaluation during folding are
// returned unmodified; every other failure is a *TranslateError. On error
// the returned Translation is always empty.
func (t *Translator) Translate(n queryir.Node) (Translation, error) {
	folded, err := queryir.Fold(n)
	if err != nil {
		return Translation{}, err
	}

	w := &walker{
		fields: t.fields,
		acc:    accumulator{legacySecondary: t.legacySecondary},
	}
	if err := w.directives(folded); err != nil {
		return Translation{}, err
	}
	if err := w.predicate(queryir.All(w.wheres...)); err != nil {
		return Translation{}, err
	}

	return Translation{
		Query:   w.out.String(),
		OrderBy: w.acc.clause(),
		Limit:   w.acc.limit,
	}, nil
}

// walker holds the state of one translation.
type walker struct {
	fields *FieldTable
	acc    accumulator
	wheres []queryir.Node
	out    strings.Builder
}

// directives walks the directive chain from the Source outwards, so
// directives are applied in the order the caller chained them. Ordering
// and limiting directives only update the accumulator; Where predicates are
// collected and rendered afterwards as one conjunction.
func (w *walker) directives(n queryir.Node) error {
	switch x := n.(type) {
	case nil, *queryir.Source:
		return nil
	case *queryir.Where:
		if err := w.directives(x.Source); err != nil {
			return err
		}
		if x.Predicate != nil {
			w.wheres = append(w.wheres, x.Predicate)
		}
		return nil
	case *queryir.OrderBy:
		if err := w.directives(x.Source); err != nil {
			return err
		}
		f, err := w.resolve(x.Key)
		if err != nil {
			return err
		}
		w.acc.order(f.name, x.Descending, x.Secondary)
		return nil
	case *queryir.Limit:
		if err := w.directives(x.Source); err != nil {
			return err
		}
		c, ok := x.Count.(*queryir.Const)
		if !ok {
			return unsupported(x.Count, "limit count must be a constant")
		}
		return w.acc.take(c.Value)
	default:
		// A bare predicate with no directives.
		w.wheres = append(w.wheres, n)
		return nil
	}
}

// predicate renders a predicate tree into the output.
func (w *walker) predicate(n queryir.Node) error {
	switch x := n.(type) {
	case nil:
		return nil
	case *queryir.Compare:
		return w.compare(x)
	case *queryir.And:
		return w.junction(x.Left, "and", x.Right)
	case *queryir.Or:
		return w.junction(x.Left, "or", x.Right)
	default:
		return unsupported(n, "unsupported construct in filter")
	}
}

func (w *walker) junction(left queryir.Node, op string, right queryir.Node) error {
	if left == nil || right == nil {
		return unsupported(nil, "%s requires two operands", op)
	}
	w.out.WriteString("(")
	if err := w.predicate(left); err != nil {
		return err
	}
	w.out.WriteString(" " + op + " ")
	if err := w.predicate(right); err != nil {
		return err
	}
	w.out.WriteString(")")
	return nil
}

var relationalOps = map[queryir.Op]string{
	queryir.OpGt: ">",
	queryir.OpLt: "<",
	queryir.OpGe: ">=",
	queryir.OpLe: "<=",
}

func (w *walker) compare(c *queryir.Compare) error {
	f, err := w.resolve(c.Left)
	if err != nil {
		return err
	}
	k, ok := c.Right.(*queryir.Const)
	if !ok {
		return unsupported(c.Right, "comparison value must be a closed expression")
	}

	if c.Op.IsEquality() {
		return w.equality(f, c.Op == queryir.OpNe, k.Value)
	}

	op, ok := relationalOps[c.Op]
	if !ok {
		return unsupported(c, "unknown operator %s", c.Op)
	}
	switch v := unwrap(k.Value); v {
	case nil, "":
		return unsupported(c, "%s cannot compare against null or empty", op)
	}
	lit, err := FormatLiteral(k.Value)
	if err != nil {
		return unsupported(k.Value, "%v", err)
	}
	w.out.WriteString(f.name + " " + op + " " + lit)
	return nil
}

// equality renders == and != following the field's equality mode.
func (w *walker) equality(f resolvedField, negate bool, value any) error {
	switch unwrap(value) {
	case nil:
		w.out.WriteString(f.name + pick(negate, " is not null", " is null"))
		return nil
	case "":
		w.out.WriteString(f.name + pick(negate, " is not empty", " is empty"))
		return nil
	}

	_, literal := value.(queryir.LiteralMatch)
	op := pick(negate, "!=", "=")
	if f.custom || (f.contains && !literal) {
		op = pick(negate, "!~", "~")
	}

	lit, err := FormatLiteral(value)
	if err != nil {
		return unsupported(value, "%v", err)
	}
	w.out.WriteString(f.name + " " + op + " " + lit)
	return nil
}

func pick(cond bool, yes, no string) string {
	if cond {
		return yes
	}
	return no
}

package queryir

import "fmt"

// Node is any node of a query expression tree.
//
// This is a sealed interface - only types in this package implement it.
type Node interface {
	queryNode() // Marker method - seals interface to this package
}

// Expr is a node that can occupy a value position in a comparison:
// a field access, a constant, or a constructor call.
//
// This is a sealed interface - only types in this package implement it.
type Expr interface {
	Node
	exprNode()
}

// Op is a comparison operator.
type Op int

const (
	OpEq Op = iota // ==
	OpNe           // !=
	OpGt           // >
	OpLt           // <
	OpGe           // >=
	OpLe           // <=
)

var opSymbols = map[Op]string{
	OpEq: "==",
	OpNe: "!=",
	OpGt: ">",
	OpLt: "<",
	OpGe: ">=",
	OpLe: "<=",
}

// String returns the Go-style symbol for the operator.
func (o Op) String() string {
	if s, ok := opSymbols[o]; ok {
		return s
	}
	return fmt.Sprintf("Op(%d)", int(o))
}

// IsEquality reports whether the operator is == or !=.
func (o Op) IsEquality() bool {
	return o == OpEq || o == OpNe
}

// ParseOp parses a comparison operator symbol or its short name.
// Accepted forms: "==" "=" "eq", "!=" "ne", ">" "gt", "<" "lt", ">=" "ge", "<=" "le".
func ParseOp(s string) (Op, error) {
	switch s {
	case "==", "=", "eq":
		return OpEq, nil
	case "!=", "ne":
		return OpNe, nil
	case ">", "gt":
		return OpGt, nil
	case "<", "lt":
		return OpLt, nil
	case ">=", "ge":
		return OpGe, nil
	case "<=", "le":
		return OpLe, nil
	default:
		return 0, fmt.Errorf("unknown comparison operator %q", s)
	}
}

// Source is the root of every query: the set of all issues visible to the
// caller. Directives are chained onto it.
type Source struct{}

func (*Source) queryNode() {}

// Where restricts Source to the issues matching Predicate.
// A nil Predicate matches everything. Several Where directives in one
// chain are conjoined.
type Where struct {
	Source    Node
	Predicate Node
}

func (*Where) queryNode() {}

// OrderBy sorts the results of Source by Key.
//
// Secondary marks a tie-breaker added after an initial ordering
// (ThenBy / ThenByDescending on the builder).
type OrderBy struct {
	Source     Node
	Key        Expr
	Descending bool
	Secondary  bool
}

func (*OrderBy) queryNode() {}

// Limit caps the number of results of Source. Count must fold to a
// positive integer.
type Limit struct {
	Source Node
	Count  Expr
}

func (*Limit) queryNode() {}

// Compare is a binary comparison between a field access (Left) and a
// closed value expression (Right).
type Compare struct {
	Op    Op
	Left  Expr
	Right Expr
}

func (*Compare) queryNode() {}

// And is the conjunction of two predicates.
type And struct {
	Left  Node
	Right Node
}

func (*And) queryNode() {}

// Or is the disjunction of two predicates.
type Or struct {
	Left  Node
	Right Node
}

func (*Or) queryNode() {}

// Not negates a predicate. Query documents can produce it; JQL backends
// are free to reject it.
type Not struct {
	Operand Node
}

func (*Not) queryNode() {}

// FieldRef is a declared issue property, identified by its logical name
// (e.g. "Summary", "FixVersions").
type FieldRef struct {
	Name string
}

func (*FieldRef) queryNode() {}
func (*FieldRef) exprNode()  {}

// CustomFieldRef is an indexed access keyed by a literal field name, such
// as a server-side custom field ("Story Points").
type CustomFieldRef struct {
	Name string
}

func (*CustomFieldRef) queryNode() {}
func (*CustomFieldRef) exprNode()  {}

// Const holds an already computed value.
type Const struct {
	Value any
}

func (*Const) queryNode() {}
func (*Const) exprNode()  {}

// CallFunc evaluates a constructor call from its evaluated arguments.
type CallFunc func(args ...any) (any, error)

// Call is a constructor-style expression, e.g. building a calendar date from
// year/month/day literals. Calls with closed arguments are evaluated by Fold.
type Call struct {
	Name string
	Fn   CallFunc
	Args []Expr
}

func (*Call) queryNode() {}
func (*Call) exprNode()  {}

package queryir

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Comparable is implemented by named entity wrappers (priorities, statuses,
// projects, ...) that can be compared directly against a field.
// JQLValue returns the plain value the entity is compared by, typically
// its name or key.
type Comparable interface {
	JQLValue() any
}

// LiteralMatch forces exact-match equality (= / !=) for a field that is
// otherwise compared with contains semantics.
type LiteralMatch struct {
	Value string
}

// Match wraps s so that equality renders as an exact match.
func Match(s string) LiteralMatch {
	return LiteralMatch{Value: s}
}

// LiteralDateTime is a timestamp compared with minute precision instead of
// the date-only pattern used for plain time.Time values.
type LiteralDateTime struct {
	Time time.Time
}

// DateTime wraps t so that it renders with its time of day.
func DateTime(t time.Time) LiteralDateTime {
	return LiteralDateTime{Time: t}
}

// Function is a server-side JQL function used as a comparison value,
// e.g. currentUser() or membersOf("jira-users").
type Function struct {
	Name string
	Args []string
}

// Func builds a Function value.
func Func(name string, args ...string) Function {
	return Function{Name: name, Args: args}
}

// String renders the function call, quoting each argument.
func (f Function) String() string {
	quoted := make([]string, len(f.Args))
	for i, a := range f.Args {
		quoted[i] = fmt.Sprintf("%q", a)
	}
	return f.Name + "(" + strings.Join(quoted, ", ") + ")"
}

// Date returns a closed constructor expression for the calendar date
// year-month-day in UTC. Fold evaluates it to a time.Time.
func Date(year, month, day any) *Call {
	return NewCall("date", evalDate, Lit(year), Lit(month), Lit(day))
}

// NewCall builds a Call. Arguments that are not Expr are wrapped in Const.
func NewCall(name string, fn CallFunc, args ...any) *Call {
	exprs := make([]Expr, len(args))
	for i, a := range args {
		exprs[i] = Lit(a)
	}
	return &Call{Name: name, Fn: fn, Args: exprs}
}

// Lit wraps v in a Const unless it already is an Expr.
func Lit(v any) Expr {
	if e, ok := v.(Expr); ok {
		return e
	}
	return &Const{Value: v}
}

func evalDate(args ...any) (any, error) {
	if len(args) != 3 {
		return nil, fmt.Errorf("date: want 3 arguments, got %d", len(args))
	}
	parts := make([]int, 3)
	for i, a := range args {
		n, err := ToInt(a)
		if err != nil {
			return nil, fmt.Errorf("date: argument %d: %w", i+1, err)
		}
		parts[i] = n
	}
	if parts[1] < 1 || parts[1] > 12 {
		return nil, fmt.Errorf("date: month %d out of range", parts[1])
	}
	return time.Date(parts[0], time.Month(parts[1]), parts[2], 0, 0, 0, 0, time.UTC), nil
}

// ToInt converts integral numeric values to int. Floats are accepted when
// they hold an integral value, which is how YAML and JSON decoders may
// surface whole numbers. Values outside the range of int are rejected.
func ToInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int8:
		return int(n), nil
	case int16:
		return int(n), nil
	case int32:
		return int(n), nil
	case int64:
		if n < math.MinInt || n > math.MaxInt {
			return 0, outOfRange(v)
		}
		return int(n), nil
	case uint:
		if n > math.MaxInt {
			return 0, outOfRange(v)
		}
		return int(n), nil
	case uint8:
		return int(n), nil
	case uint16:
		return int(n), nil
	case uint32:
		if uint64(n) > math.MaxInt {
			return 0, outOfRange(v)
		}
		return int(n), nil
	case uint64:
		if n > math.MaxInt {
			return 0, outOfRange(v)
		}
		return int(n), nil
	case float32:
		return floatToInt(float64(n), v)
	case float64:
		return floatToInt(n, v)
	}
	return 0, fmt.Errorf("%v (%T) is not an integer", v, v)
}

func floatToInt(f float64, v any) (int, error) {
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%v (%T) is not an integer", v, v)
	}
	// float64(math.MaxInt) rounds up to 2^63 on 64-bit targets.
	if f < math.MinInt || f >= -math.MinInt {
		return 0, outOfRange(v)
	}
	return int(f), nil
}

func outOfRange(v any) error {
	return fmt.Errorf("%v (%T) is out of range for int", v, v)
}

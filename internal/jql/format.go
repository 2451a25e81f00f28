package jql

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/jiraq/internal/queryir"
)

// Layouts for date literals. Plain time.Time values always drop the time
// of day; queryir.LiteralDateTime keeps hours and minutes.
const (
	DateLayout     = "2006/01/02"
	DateTimeLayout = "2006/01/02 15:04"
)

// FormatLiteral renders a folded constant in JQL literal syntax:
//
//	string                     "quoted" (NFC-normalized, \ and " escaped)
//	time.Time                  "2006/01/02"
//	queryir.LiteralDateTime    "2006/01/02 15:04"
//	queryir.LiteralMatch       "quoted"
//	queryir.Function           name("arg", ...) unquoted
//	queryir.Comparable         its JQLValue(), quoted only if textual
//	decimal.Decimal            exact digits, trailing zeros kept
//	numbers, bools             default textual form, unquoted
//
// nil and nil pointers have no literal form; null comparisons are rendered
// by the caller as "is null" / "is not null".
func FormatLiteral(v any) (string, error) {
	if isNilPointer(v) {
		return "", fmt.Errorf("null has no literal form")
	}
	switch val := v.(type) {
	case nil:
		return "", fmt.Errorf("null has no literal form")
	case string:
		return quote(val), nil
	case queryir.LiteralMatch:
		return quote(val.Value), nil
	case queryir.LiteralDateTime:
		return quote(val.Time.Format(DateTimeLayout)), nil
	case time.Time:
		return quote(val.Format(DateLayout)), nil
	case *time.Time:
		return quote(val.Format(DateLayout)), nil
	case queryir.Function:
		return val.String(), nil
	case queryir.Comparable:
		return FormatLiteral(val.JQLValue())
	case decimal.Decimal:
		if exp := val.Exponent(); exp < 0 {
			return val.StringFixed(-exp), nil
		}
		return val.String(), nil
	case bool:
		return strconv.FormatBool(val), nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", val), nil
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32), nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case fmt.Stringer:
		return val.String(), nil
	default:
		return fmt.Sprint(val), nil
	}
}

var literalEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func quote(s string) string {
	return `"` + literalEscaper.Replace(norm.NFC.String(s)) + `"`
}

// fieldName renders a remote field name, quoting it when it contains
// whitespace or characters outside a bare JQL identifier.
func fieldName(name string) string {
	if isBareIdentifier(name) {
		return name
	}
	return quote(name)
}

func isBareIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r == '_', r == '.', r == '[', r == ']':
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		default:
			return false
		}
	}
	return true
}

// unwrap resolves entity wrappers so that null and empty checks see the
// value they compare by. Nil pointers, such as an issue field the server
// left out, unwrap to nil.
func unwrap(v any) any {
	if isNilPointer(v) {
		return nil
	}
	if c, ok := v.(queryir.Comparable); ok {
		return unwrap(c.JQLValue())
	}
	return v
}

func isNilPointer(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

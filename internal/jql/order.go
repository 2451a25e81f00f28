package jql

import (
	"strings"

	"github.com/roach88/jiraq/internal/queryir"
)

const (
	orderByPrefix  = " order by "
	descendingMark = " desc"
)

// accumulator collects ordering and limiting directives seen during one
// translation. It is created per call and discarded on return.
type accumulator struct {
	// legacySecondary selects the historical ThenBy behavior where each
	// secondary key is inserted right after the prefix, ahead of the keys
	// already present.
	legacySecondary bool

	keys  []string // rendered keys, e.g. `Priority desc`
	limit int      // 0 = unset
}

// order records one ordering directive.
//
// A primary directive (re)starts the clause. A secondary directive appends
// its key, or with legacySecondary prepends it. A secondary directive with
// no clause yet starts one.
func (a *accumulator) order(key string, descending, secondary bool) {
	if descending {
		key += descendingMark
	}
	switch {
	case !secondary || len(a.keys) == 0:
		a.keys = []string{key}
	case a.legacySecondary:
		a.keys = append([]string{key}, a.keys...)
	default:
		a.keys = append(a.keys, key)
	}
}

// take records a limiting directive; a later one overwrites an earlier one.
func (a *accumulator) take(count any) error {
	n, err := queryir.ToInt(count)
	if err != nil {
		return &TranslateError{Code: ErrCodeInvalidLimit, Message: err.Error()}
	}
	if n <= 0 {
		return &TranslateError{Code: ErrCodeInvalidLimit, Message: "limit must be a positive integer"}
	}
	a.limit = n
	return nil
}

// clause renders the order-by clause, or "" when no ordering was seen.
func (a *accumulator) clause() string {
	if len(a.keys) == 0 {
		return ""
	}
	return orderByPrefix + strings.Join(a.keys, ", ")
}

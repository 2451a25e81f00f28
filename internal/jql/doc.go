// Package jql translates queryir trees into JQL, the filter language of the
// remote issue tracker.
//
// A translation runs in two passes. queryir.Fold first reduces every closed
// sub-expression to a constant. The walker then visits the directive chain
// in call order: Where predicates are collected and rendered as one
// parenthesized conjunction, while OrderBy and Limit directives only update
// side-channel state that ends up in Translation.OrderBy and
// Translation.Limit.
//
// Comparison rendering:
//
//	field == nil        field is null
//	field != nil        field is not null
//	field == ""         field is empty
//	field != ""         field is not empty
//	field == v          field = "v"    (field ~ "v" in contains mode)
//	field != v          field != "v"   (field !~ "v" in contains mode)
//	field > v           field > v      (also <, >=, <=)
//	a && b              (a and b)
//	a || b              (a or b)
//
// Field names and contains mode come from a FieldTable. Custom fields
// accessed by literal name are always quoted and always use contains mode.
//
// Any other node shape fails with a *TranslateError and no partial output.
package jql

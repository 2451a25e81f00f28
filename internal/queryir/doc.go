// Package queryir provides the query expression tree that callers build to
// filter, sort and limit issues on the remote tracker.
//
// The tree is the abstraction boundary between query-building front ends
// (the combinator API in this package, YAML and CUE query documents) and the
// JQL translator:
//
//	[builder / query documents] → [queryir tree] → [jql.Translator] → JQL text
//
// SEALED INTERFACES:
//
// Node and Expr are sealed interfaces using the marker method pattern, so
// only types in this package can be part of a tree. Backends switch over the
// concrete pointer types:
//
//	switch n := node.(type) {
//	case *Compare:
//	    // field <op> value
//	case *And, *Or:
//	    // boolean composition
//	case *Where, *OrderBy, *Limit:
//	    // directives chained onto a Source
//	}
//
// Node shapes:
//   - Source: the root of every query (all issues visible to the caller)
//   - Where, OrderBy, Limit: directives chained onto a source
//   - Compare, And, Or, Not: predicates
//   - Field, CustomField, Const, Call: value-position expressions
//
// CLOSED EXPRESSIONS:
//
// An expression is closed when it does not reference the issue being
// filtered, i.e. it contains no Field or CustomField. Fold reduces every
// closed sub-tree to a single Const, evaluating Call constructors such as
// Date along the way. Translators only ever see folded trees.
//
// Example:
//
//	q := queryir.Issues().
//		Where(queryir.All(
//			queryir.Field("Project").Eq("DEMO"),
//			queryir.Field("Created").Ge(queryir.Date(2010, 1, 1)),
//		)).
//		OrderByDescending(queryir.Field("Priority")).
//		Take(10)
//
// Trees are immutable once built; every builder method returns a new node
// and never modifies its receiver.
package queryir

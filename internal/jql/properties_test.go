package jql

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	q "github.com/roach88/jiraq/internal/queryir"
)

var (
	genField = rapid.StringMatching(`[A-Z][a-z]{1,8}`)
	genWord  = rapid.StringMatching(`[a-z][a-z ]{0,11}`)
	genOp    = rapid.SampledFrom([]q.Op{q.OpEq, q.OpNe, q.OpGt, q.OpLt, q.OpGe, q.OpLe})
)

func TestProperty_TranslationIsIdempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 5).Draw(t, "n")
		preds := make([]q.Node, n)
		for i := range preds {
			preds[i] = q.CompareWith(genOp.Draw(t, "op"), q.Field(genField.Draw(t, "field")), genWord.Draw(t, "value"))
		}
		node := q.Issues().Where(q.All(preds...)).OrderBy(q.Field(genField.Draw(t, "key"))).Build()

		tr := NewTranslator(NewFieldTable().Register("Summary", FieldMeta{Contains: true}))
		first, err := tr.Translate(node)
		require.NoError(t, err)
		second, err := tr.Translate(node)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}

func TestProperty_ContainsModeNeverRendersExactEquality(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		field := genField.Draw(t, "field")
		value := genWord.Draw(t, "value")
		negate := rapid.Bool().Draw(t, "negate")

		tr := NewTranslator(NewFieldTable().Register(field, FieldMeta{Contains: true}))
		pred := q.Field(field).Eq(value)
		want := field + " ~ " + quote(value)
		if negate {
			pred = q.Field(field).Ne(value)
			want = field + " !~ " + quote(value)
		}

		out, err := tr.Translate(pred)
		require.NoError(t, err)
		assert.Equal(t, want, out.Query)
	})
}

func TestProperty_CustomFieldsAlwaysQuotedAndContains(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		name := rapid.StringMatching(`[A-Z][a-z]{1,6}( [A-Z][a-z]{1,6})?`).Draw(t, "name")
		value := genWord.Draw(t, "value")

		out, err := NewTranslator(nil).Translate(q.CustomField(name).Eq(value))
		require.NoError(t, err)
		assert.Equal(t, `"`+name+`" ~ `+quote(value), out.Query)
	})
}

func TestProperty_ConjunctionsAreFullyParenthesized(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(2, 6).Draw(t, "n")
		preds := make([]q.Node, n)
		for i := range preds {
			preds[i] = q.Field(genField.Draw(t, "field")).Eq(rapid.IntRange(0, 100).Draw(t, "value"))
		}
		join := q.All
		word := " and "
		if rapid.Bool().Draw(t, "or") {
			join = q.Any
			word = " or "
		}

		out, err := NewTranslator(nil).Translate(join(preds...))
		require.NoError(t, err)
		assert.Equal(t, n-1, strings.Count(out.Query, "("))
		assert.Equal(t, n-1, strings.Count(out.Query, ")"))
		assert.Equal(t, n-1, strings.Count(out.Query, word))
		assert.True(t, strings.HasPrefix(out.Query, "("))
		assert.True(t, strings.HasSuffix(out.Query, ")"))
	})
}

func TestProperty_LimitCapturedExactly(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		counts := rapid.SliceOfN(rapid.IntRange(1, 100000), 1, 4).Draw(t, "counts")
		b := q.Issues()
		for _, c := range counts {
			b = b.Take(c)
		}

		out, err := NewTranslator(nil).Translate(b.Build())
		require.NoError(t, err)
		assert.Equal(t, counts[len(counts)-1], out.Limit)
		assert.Empty(t, out.Query)
	})
}

func TestProperty_SecondaryOrderingFollowsCallOrder(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		keys := rapid.SliceOfN(genField, 1, 5).Draw(t, "keys")
		b := q.Issues().OrderBy(q.Field(keys[0]))
		for _, k := range keys[1:] {
			b = b.ThenBy(q.Field(k))
		}

		out, err := NewTranslator(nil).Translate(b.Build())
		require.NoError(t, err)
		assert.Equal(t, " order by "+strings.Join(keys, ", "), out.OrderBy)

		legacy, err := NewTranslator(nil, WithLegacySecondaryOrdering()).Translate(b.Build())
		require.NoError(t, err)
		reversed := append([]string{}, keys[1:]...)
		for i, j := 0, len(reversed)-1; i < j; i, j = i+1, j-1 {
			reversed[i], reversed[j] = reversed[j], reversed[i]
		}
		assert.Equal(t, " order by "+strings.Join(append(reversed, keys[0]), ", "), legacy.OrderBy)
	})
}

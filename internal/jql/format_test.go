package jql

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	q "github.com/roach88/jiraq/internal/queryir"
)

type stringer struct{}

func (stringer) String() string { return "custom" }

func TestFormatLiteral(t *testing.T) {
	noon := time.Date(2021, 12, 24, 12, 30, 0, 0, time.UTC)

	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"string", "hello", `"hello"`},
		{"empty string", "", `""`},
		{"escapes", `a"b\c`, `"a\"b\\c"`},
		{"nfc normalization", "cafe\u0301", "\"caf\u00e9\""},
		{"literal match", q.Match("exact"), `"exact"`},
		{"date", noon, `"2021/12/24"`},
		{"date pointer", &noon, `"2021/12/24"`},
		{"date time", q.DateTime(noon), `"2021/12/24 12:30"`},
		{"function", q.Func("startOfDay", "-1d"), `startOfDay("-1d")`},
		{"function no args", q.Func("currentUser"), `currentUser()`},
		{"textual wrapper", named{"Blocker"}, `"Blocker"`},
		{"numeric wrapper", numeric{7}, `7`},
		{"int", 42, `42`},
		{"int64", int64(-3), `-3`},
		{"uint8", uint8(9), `9`},
		{"float", 2.5, `2.5`},
		{"float32", float32(0.25), `0.25`},
		{"whole float", 3.0, `3`},
		{"decimal", decimal.NewFromInt(100), `100`},
		{"decimal trailing zeros", decimal.RequireFromString("1.10"), `1.10`},
		{"decimal long fraction", decimal.RequireFromString("0.1000000000000000055511151231257827"), `0.1000000000000000055511151231257827`},
		{"decimal exponent", decimal.RequireFromString("2e3"), `2000`},
		{"bool", false, `false`},
		{"stringer", stringer{}, `custom`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatLiteral(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

type numeric struct{ n int }

func (v numeric) JQLValue() any { return v.n }

func TestFormatLiteral_Null(t *testing.T) {
	_, err := FormatLiteral(nil)
	assert.Error(t, err)

	var missing *time.Time
	_, err = FormatLiteral(missing)
	assert.Error(t, err)

	_, err = FormatLiteral((*named)(nil))
	assert.Error(t, err)
}

func TestFieldName(t *testing.T) {
	assert.Equal(t, "status", fieldName("status"))
	assert.Equal(t, "cf[10010]", fieldName("cf[10010]"))
	assert.Equal(t, `"Epic Link"`, fieldName("Epic Link"))
	assert.Equal(t, `"Story-Points"`, fieldName("Story-Points"))
	assert.Equal(t, `""`, fieldName(""))
}

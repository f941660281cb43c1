package preprocess

import (
	"reflect"
	"testing"
)

func TestEvalArg(t *testing.T) {
	tests := []struct {
		raw  string
		want any
	}{
		{"42", int64(42)},
		{"-7", int64(-7)},
		{"3.14", 3.14},
		{"-2.5", -2.5},
		{"true", true},
		{"false", false},
		{"null", nil},
		{"NULL", nil},
		{"'hello'", "hello"},
		{"'it''s'", "it's"},
		{"[1, 2, 3]", []any{int64(1), int64(2), int64(3)}},
	}

	for _, tt := range tests {
		got := EvalArg(tt.raw)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("EvalArg(%q) = %#v, want %#v", tt.raw, got, tt.want)
		}
	}
}

func TestEvalArgRejectsCodeExecution(t *testing.T) {
	tests := []string{
		"some_identifier",
		"foo()",
		"1 + 1",
		"a.b",
	}
	for _, raw := range tests {
		got := EvalArg(raw)
		if got != raw {
			t.Errorf("EvalArg(%q) = %#v, want the raw string unchanged (rejected as unsafe)", raw, got)
		}
	}
}

package preprocess

import (
	"reflect"
	"strings"
	"testing"
)

func TestLocateCallArgs(t *testing.T) {
	sql := "SELECT * FROM query_wrapper(5, limit => 10)"
	start := strings.Index(sql, "query_wrapper")

	call := FunctionCall{Name: "query_wrapper", NamedRaw: map[string]string{}, Start: start}
	located, ok := locateCallArgs(sql, call)
	if !ok {
		t.Fatal("locateCallArgs returned ok=false")
	}

	wantEnd := len(sql)
	if located.End != wantEnd {
		t.Errorf("End = %d, want %d", located.End, wantEnd)
	}
	if len(located.PositionalRaw) != 1 || located.PositionalRaw[0] != "5" {
		t.Errorf("PositionalRaw = %#v, want [\"5\"]", located.PositionalRaw)
	}
	if located.NamedRaw["limit"] != "10" {
		t.Errorf("NamedRaw[limit] = %q, want \"10\"", located.NamedRaw["limit"])
	}
}

func TestLocateCallArgsNestedParens(t *testing.T) {
	sql := "SELECT * FROM f(g(1, 2), 'a, b')"
	start := strings.Index(sql, "f(")
	call := FunctionCall{Name: "f", NamedRaw: map[string]string{}, Start: start}

	located, ok := locateCallArgs(sql, call)
	if !ok {
		t.Fatal("locateCallArgs returned ok=false")
	}
	want := []string{"g(1, 2)", "'a, b'"}
	if !reflect.DeepEqual(located.PositionalRaw, want) {
		t.Errorf("PositionalRaw = %#v, want %#v", located.PositionalRaw, want)
	}
}

func TestApplyRewrites(t *testing.T) {
	sql := "SELECT * FROM foo(1) JOIN bar(2) ON true"
	rewrites := []rewriteSpan{
		{Start: strings.Index(sql, "foo(1)"), End: strings.Index(sql, "foo(1)") + len("foo(1)"), Replacement: "_udtf_foo_aaaa"},
		{Start: strings.Index(sql, "bar(2)"), End: strings.Index(sql, "bar(2)") + len("bar(2)"), Replacement: "_udtf_bar_bbbb"},
	}
	got := applyRewrites(sql, rewrites)
	want := "SELECT * FROM _udtf_foo_aaaa JOIN _udtf_bar_bbbb ON true"
	if got != want {
		t.Errorf("applyRewrites = %q, want %q", got, want)
	}
}

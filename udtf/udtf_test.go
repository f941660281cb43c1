package udtf

import (
	"context"
	"errors"
	"testing"
)

func TestCheckArity(t *testing.T) {
	fixed := Registration{Name: "two_args", MinArity: 2, MaxArity: 2}
	if err := fixed.CheckArity(2); err != nil {
		t.Errorf("2 args should satisfy MinArity=2 MaxArity=2: %v", err)
	}
	if err := fixed.CheckArity(1); err == nil {
		t.Error("1 arg should fail MinArity=2")
	}
	if err := fixed.CheckArity(3); err == nil {
		t.Error("3 args should fail MaxArity=2")
	}

	variadic := Registration{Name: "variadic", MinArity: 1, MaxArity: -1}
	if err := variadic.CheckArity(1); err != nil {
		t.Errorf("1 arg should satisfy variadic MinArity=1: %v", err)
	}
	if err := variadic.CheckArity(100); err != nil {
		t.Errorf("variadic MaxArity=-1 should accept any count: %v", err)
	}
	if err := variadic.CheckArity(0); err == nil {
		t.Error("0 args should fail MinArity=1")
	}
}

func TestRegistryLookupAndUnregister(t *testing.T) {
	r := New()
	if r.Len() != 0 {
		t.Fatalf("new registry should be empty, got Len=%d", r.Len())
	}

	fn := func(ctx context.Context, args Args) (Streamable, error) { return nil, nil }
	r.Register(Registration{Name: "f", Fn: fn, MinArity: 0, MaxArity: -1})

	if r.Len() != 1 {
		t.Errorf("Len after register = %d, want 1", r.Len())
	}
	reg, ok := r.Lookup("f")
	if !ok {
		t.Fatal("Lookup(f) should find the registration")
	}
	if reg.Name != "f" {
		t.Errorf("looked up registration has wrong name: %q", reg.Name)
	}

	r.Unregister("f")
	if _, ok := r.Lookup("f"); ok {
		t.Error("Lookup(f) should fail after Unregister")
	}
	if r.Len() != 0 {
		t.Errorf("Len after unregister = %d, want 0", r.Len())
	}
}

func TestRegistryReplace(t *testing.T) {
	r := New()
	errFirst := errors.New("first")
	errSecond := errors.New("second")

	r.Register(Registration{Name: "f", Fn: func(ctx context.Context, args Args) (Streamable, error) {
		return nil, errFirst
	}})
	r.Register(Registration{Name: "f", Fn: func(ctx context.Context, args Args) (Streamable, error) {
		return nil, errSecond
	}})

	reg, ok := r.Lookup("f")
	if !ok {
		t.Fatal("Lookup(f) should find the replaced registration")
	}
	_, err := reg.Fn(context.Background(), Args{})
	if !errors.Is(err, errSecond) {
		t.Errorf("registering the same name twice should replace, got error %v, want %v", err, errSecond)
	}
}

func TestUnregisterMissingIsNotError(t *testing.T) {
	r := New()
	r.Unregister("nope") // must not panic
}

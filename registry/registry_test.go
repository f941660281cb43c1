package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/arrowbridge/hostbridge/errs"
	"github.com/arrowbridge/hostbridge/filter"
	"github.com/arrowbridge/hostbridge/holder"
	"github.com/arrowbridge/hostbridge/stats"
)

// stubHolder is a minimal holder.Holder for registry tests.
type stubHolder struct {
	closed int
}

func (h *stubHolder) Schema() *arrow.Schema { return arrow.NewSchema(nil, nil) }
func (h *stubHolder) NumRows() (int64, bool) { return 0, true }
func (h *stubHolder) ColumnNames() []string  { return nil }
func (h *stubHolder) ProduceFiltered(context.Context, holder.Projection, filter.Set) (array.RecordReader, error) {
	return nil, nil
}
func (h *stubHolder) ComputeStatistics(stats.Spec) ([]stats.ColumnStats, error) { return nil, nil }
func (h *stubHolder) Close() error {
	h.closed++
	return nil
}

func TestRegisterCollisionWithoutReplace(t *testing.T) {
	r := New(nil, nil, nil)
	ctx := context.Background()

	if err := r.Register(ctx, "t", &stubHolder{}, false); err != nil {
		t.Fatalf("first register: %v", err)
	}
	err := r.Register(ctx, "t", &stubHolder{}, false)
	if !errors.Is(err, errs.NameInUse) {
		t.Fatalf("expected NameInUse, got %v", err)
	}
}

func TestRegisterReplaceClosesOldEntry(t *testing.T) {
	r := New(nil, nil, nil)
	ctx := context.Background()

	first := &stubHolder{}
	second := &stubHolder{}

	if err := r.Register(ctx, "t", first, false); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := r.Register(ctx, "t", second, true); err != nil {
		t.Fatalf("replace register: %v", err)
	}

	if first.closed != 1 {
		t.Errorf("old holder closed %d times, want 1", first.closed)
	}
	got, ok := r.Lookup("t")
	if !ok || got != second {
		t.Errorf("lookup after replace did not return the new holder")
	}
}

func TestUnregisterIsIdempotent(t *testing.T) {
	r := New(nil, nil, nil)
	ctx := context.Background()

	h := &stubHolder{}
	if err := r.Register(ctx, "t", h, false); err != nil {
		t.Fatalf("register: %v", err)
	}
	r.Unregister(ctx, "t")
	r.Unregister(ctx, "t") // second call must be a no-op, not a panic

	if h.closed != 1 {
		t.Errorf("holder closed %d times, want exactly 1", h.closed)
	}
	if r.Exists("t") {
		t.Error("entry should no longer exist after unregister")
	}
}

func TestUnregisterMissIsNotError(t *testing.T) {
	r := New(nil, nil, nil)
	r.Unregister(context.Background(), "nope") // must not panic
}

package scan

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

type stubLookup map[string]holder.Holder

func (l stubLookup) Lookup(name string) (holder.Holder, bool) {
	h, ok := l[name]
	return h, ok
}

type stubHolder struct {
	schema *arrow.Schema
	panics bool
}

func (h *stubHolder) Schema() *arrow.Schema { return h.schema }
func (h *stubHolder) NumRows() (int64, bool) { return 0, true }
func (h *stubHolder) ColumnNames() []string  { return nil }
func (h *stubHolder) ProduceFiltered(ctx context.Context, proj holder.Projection, filters filter.Set) (array.RecordReader, error) {
	if h.panics {
		panic("boom")
	}
	return array.NewRecordReader(h.schema, nil)
}
func (h *stubHolder) ComputeStatistics(stats.Spec) ([]stats.ColumnStats, error) { return nil, nil }
func (h *stubHolder) Close() error                                             { return nil }

func noopTranslator(h holder.Holder) filter.Translator { return filter.ArrowTranslator{} }

func TestScanUnknownSource(t *testing.T) {
	a := New(stubLookup{}, noopTranslator, nil)
	_, err := a.Scan(context.Background(), "missing", holder.AllColumns(), nil)
	if !errors.Is(err, errs.UnknownScanSource) {
		t.Fatalf("expected UnknownScanSource, got %v", err)
	}
}

func TestScanProducesStream(t *testing.T) {
	schema := arrow.NewSchema([]arrow.Field{{Name: "a", Type: arrow.PrimitiveTypes.Int64}}, nil)
	h := &stubHolder{schema: schema}
	a := New(stubLookup{"t": h}, noopTranslator, nil)

	result, err := a.Scan(context.Background(), "t", holder.AllColumns(), nil)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	defer result.Stream.Release()
	if result.Stream.Schema().NumFields() != 1 {
		t.Errorf("unexpected stream schema: %v", result.Stream.Schema())
	}
}

func TestScanRecoversFromPanic(t *testing.T) {
	schema := arrow.NewSchema([]arrow.Field{{Name: "a", Type: arrow.PrimitiveTypes.Int64}}, nil)
	h := &stubHolder{schema: schema, panics: true}
	a := New(stubLookup{"t": h}, noopTranslator, nil)

	_, err := a.Scan(context.Background(), "t", holder.AllColumns(), nil)
	if err == nil {
		t.Fatal("expected an error recovered from the holder's panic, got nil")
	}
}

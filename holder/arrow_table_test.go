package holder

import (
	"context"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/arrowbridge/hostbridge/filter"
)

func buildTable(t *testing.T) (*ArrowTableHolder, *arrow.Schema) {
	t.Helper()
	mem := memory.DefaultAllocator
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64},
		{Name: "name", Type: arrow.BinaryTypes.String},
	}, nil)

	idBld := array.NewInt64Builder(mem)
	nameBld := array.NewStringBuilder(mem)
	for i, n := range []string{"a", "b", "c"} {
		idBld.Append(int64(i + 1))
		nameBld.Append(n)
	}
	idArr := idBld.NewArray()
	nameArr := nameBld.NewArray()
	rec := array.NewRecord(schema, []arrow.Array{idArr, nameArr}, 3)

	return NewArrowTableHolder(mem, schema, []arrow.Record{rec}), schema
}

func TestArrowTableHolderSchemaProbe(t *testing.T) {
	h, schema := buildTable(t)
	defer h.Close()

	reader, err := h.ProduceFiltered(context.Background(), Columns(nil), filter.Set{})
	if err != nil {
		t.Fatalf("ProduceFiltered: %v", err)
	}
	defer reader.Release()

	if reader.Schema().NumFields() != 0 {
		t.Errorf("schema probe should return an empty schema, got %d fields", reader.Schema().NumFields())
	}
	_ = schema
}

func TestArrowTableHolderProjection(t *testing.T) {
	h, _ := buildTable(t)
	defer h.Close()

	reader, err := h.ProduceFiltered(context.Background(), Columns([]string{"name"}), nil)
	if err != nil {
		t.Fatalf("ProduceFiltered: %v", err)
	}
	defer reader.Release()

	if reader.Schema().NumFields() != 1 || reader.Schema().Field(0).Name != "name" {
		t.Fatalf("unexpected projected schema: %v", reader.Schema())
	}

	var total int64
	for reader.Next() {
		rec := reader.Record()
		total += rec.NumRows()
	}
	if total != 3 {
		t.Errorf("total rows = %d, want 3", total)
	}
}

func TestArrowTableHolderReusable(t *testing.T) {
	h, _ := buildTable(t)
	defer h.Close()
	if !h.Reusable() {
		t.Error("ArrowTableHolder must be Reusable")
	}
}

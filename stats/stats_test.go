package stats

import (
	"math"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

func buildIntRecord(t *testing.T, name string, values []int64, valid []bool) (arrow.Record, *arrow.Schema) {
	t.Helper()
	mem := memory.DefaultAllocator
	schema := arrow.NewSchema([]arrow.Field{{Name: name, Type: arrow.PrimitiveTypes.Int64, Nullable: true}}, nil)
	bld := array.NewInt64Builder(mem)
	defer bld.Release()
	for i, v := range values {
		if valid != nil && !valid[i] {
			bld.AppendNull()
			continue
		}
		bld.Append(v)
	}
	arr := bld.NewArray()
	defer arr.Release()
	rec := array.NewRecord(schema, []arrow.Array{arr}, int64(len(values)))
	return rec, schema
}

func buildFloatRecord(t *testing.T, name string, values []float64) (arrow.Record, *arrow.Schema) {
	t.Helper()
	mem := memory.DefaultAllocator
	schema := arrow.NewSchema([]arrow.Field{{Name: name, Type: arrow.PrimitiveTypes.Float64, Nullable: true}}, nil)
	bld := array.NewFloat64Builder(mem)
	defer bld.Release()
	for _, v := range values {
		bld.Append(v)
	}
	arr := bld.NewArray()
	defer arr.Release()
	rec := array.NewRecord(schema, []arrow.Array{arr}, int64(len(values)))
	return rec, schema
}

func TestExtractIntStats(t *testing.T) {
	rec, schema := buildIntRecord(t, "a", []int64{1, 2, 3}, nil)
	defer rec.Release()

	out, err := Extract([]arrow.Record{rec}, schema, AllColumns())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 column stats, got %d", len(out))
	}
	cs := out[0]
	if cs.TypeTag != "int" || cs.MinInt != 1 || cs.MaxInt != 3 || cs.NullCount != 0 || cs.NumRows != 3 {
		t.Errorf("unexpected stats: %+v", cs)
	}
}

func TestExtractSkipsNaNColumn(t *testing.T) {
	rec, schema := buildFloatRecord(t, "a", []float64{1.0, math.NaN(), 3.0})
	defer rec.Release()

	out, err := Extract([]arrow.Record{rec}, schema, AllColumns())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected NaN column to be omitted entirely, got %+v", out)
	}
}

func TestExtractNullCount(t *testing.T) {
	rec, schema := buildIntRecord(t, "a", []int64{1, 0, 3}, []bool{true, false, true})
	defer rec.Release()

	out, err := Extract([]arrow.Record{rec}, schema, AllColumns())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 column stats, got %d", len(out))
	}
	if out[0].NullCount != 1 {
		t.Errorf("NullCount = %d, want 1", out[0].NullCount)
	}
}

func TestResolveColumnsByRegex(t *testing.T) {
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "user_id", Type: arrow.PrimitiveTypes.Int64},
		{Name: "user_name", Type: arrow.BinaryTypes.String},
		{Name: "amount", Type: arrow.PrimitiveTypes.Float64},
	}, nil)

	idxs, err := ResolveColumns(ByRegex("^user_"), schema)
	if err != nil {
		t.Fatalf("ResolveColumns: %v", err)
	}
	if len(idxs) != 2 || idxs[0] != 0 || idxs[1] != 1 {
		t.Errorf("ResolveColumns(regex) = %v, want [0 1]", idxs)
	}
}

func TestResolveColumnsByNamesMissing(t *testing.T) {
	schema := arrow.NewSchema([]arrow.Field{{Name: "a", Type: arrow.PrimitiveTypes.Int64}}, nil)
	if _, err := ResolveColumns(ByNames([]string{"missing"}), schema); err == nil {
		t.Error("expected error for missing column name")
	}
}

package frame

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

func buildFrame(t *testing.T) *DataFrame {
	t.Helper()
	mem := memory.DefaultAllocator
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "age", Type: arrow.PrimitiveTypes.Int64},
		{Name: "name", Type: arrow.BinaryTypes.String},
	}, nil)

	ageBld := array.NewInt64Builder(mem)
	nameBld := array.NewStringBuilder(mem)
	ages := []int64{18, 25, 40}
	names := []string{"x", "y", "z"}
	for i := range ages {
		ageBld.Append(ages[i])
		nameBld.Append(names[i])
	}
	ageArr := ageBld.NewArray()
	nameArr := nameBld.NewArray()
	rec := array.NewRecord(schema, []arrow.Array{ageArr, nameArr}, 3)

	return New(mem, schema, []arrow.Record{rec})
}

func TestDataFrameSelect(t *testing.T) {
	df := buildFrame(t)
	defer df.Release()

	out, err := df.Select([]string{"name"})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	defer out.Release()

	if out.Schema().NumFields() != 1 || out.Schema().Field(0).Name != "name" {
		t.Fatalf("unexpected schema after Select: %v", out.Schema())
	}
	if out.NumRows() != 3 {
		t.Errorf("NumRows = %d, want 3", out.NumRows())
	}
}

func TestDataFrameSelectUnknownColumn(t *testing.T) {
	df := buildFrame(t)
	defer df.Release()

	if _, err := df.Select([]string{"nope"}); err == nil {
		t.Error("Select with an unknown column should error")
	}
}

func TestDataFrameFilter(t *testing.T) {
	df := buildFrame(t)
	defer df.Release()

	out, err := df.Filter(Col("age").Ge(Lit(int64(25))))
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	defer out.Release()

	if out.NumRows() != 2 {
		t.Errorf("NumRows after filter = %d, want 2", out.NumRows())
	}
}

func TestLazyFrameCollectAppliesOpsInOrder(t *testing.T) {
	lf := NewLazy(func() (*DataFrame, error) { return buildFrame(t), nil })
	plan := lf.Filter(Col("age").Gt(Lit(int64(18)))).Select([]string{"age"})

	if !plan.HasFilter() {
		t.Fatal("plan should report HasFilter=true")
	}

	out, err := plan.Collect()
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	defer out.Release()

	if out.Schema().NumFields() != 1 || out.Schema().Field(0).Name != "age" {
		t.Fatalf("unexpected schema after Collect: %v", out.Schema())
	}
	if out.NumRows() != 2 {
		t.Errorf("NumRows after Collect = %d, want 2", out.NumRows())
	}
}

func TestLazyFrameNoFilterReportsFalse(t *testing.T) {
	lf := NewLazy(func() (*DataFrame, error) { return buildFrame(t), nil })
	plan := lf.Select([]string{"age"})
	if plan.HasFilter() {
		t.Error("plan with no Filter step should report HasFilter=false")
	}
}

func TestLazyFrameChainDoesNotMutateOriginal(t *testing.T) {
	lf := NewLazy(func() (*DataFrame, error) { return buildFrame(t), nil })
	base := lf.Select([]string{"age"})
	_ = base.Filter(Col("age").Gt(Lit(int64(0))))

	if base.HasFilter() {
		t.Error("appending a step via chaining must not mutate the original LazyFrame")
	}
}

package frame

import (
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

// floatAt extracts a float64 view of a numeric array element, used only by
// the NaN-comparison path.
func floatAt(col arrow.Array, i int) (float64, bool) {
	switch a := col.(type) {
	case *array.Float64:
		return a.Value(i), true
	case *array.Float32:
		return float64(a.Value(i)), true
	default:
		return 0, false
	}
}

// compareAt compares the array element at i against a coerced Go literal
// using op, dispatching on the array's concrete type.
func compareAt(col arrow.Array, i int, op CompareOp, lit any) bool {
	switch a := col.(type) {
	case *array.Int64:
		return compareOrdered(a.Value(i), toInt64(lit), op)
	case *array.Int32:
		return compareOrdered(int64(a.Value(i)), toInt64(lit), op)
	case *array.Uint64:
		return compareOrdered(int64(a.Value(i)), toInt64(lit), op)
	case *array.Float64:
		return compareOrdered(a.Value(i), toFloat64(lit), op)
	case *array.Float32:
		return compareOrdered(float64(a.Value(i)), toFloat64(lit), op)
	case *array.String:
		return compareOrdered(a.Value(i), toString(lit), op)
	case *array.Boolean:
		lb, _ := lit.(bool)
		return compareOrdered(boolToInt(a.Value(i)), boolToInt(lb), op)
	case *array.Date32:
		return compareOrdered(int32(a.Value(i)), int32(toInt64(lit)), op)
	case *array.Timestamp:
		return compareOrdered(int64(a.Value(i)), timestampLiteral(lit), op)
	default:
		return false
	}
}

func compareOrdered[T int64 | int32 | float64 | string](v, lit T, op CompareOp) bool {
	switch op {
	case OpEq:
		return v == lit
	case OpNe:
		return v != lit
	case OpLt:
		return v < lit
	case OpLe:
		return v <= lit
	case OpGt:
		return v > lit
	case OpGe:
		return v >= lit
	default:
		return false
	}
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case float64:
		return int64(n)
	case arrow.Date32:
		return int64(n)
	default:
		return 0
	}
}

func toFloat64(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	default:
		return 0
	}
}

func toString(v any) string {
	s, _ := v.(string)
	return s
}

func timestampLiteral(v any) int64 {
	switch n := v.(type) {
	case arrow.Timestamp:
		return int64(n)
	case int64:
		return n
	case time.Time:
		return n.UnixMicro()
	default:
		return 0
	}
}

// appendAt appends the value of arr at row index i onto bld, preserving
// nulls. Unsupported builder/array type combinations are appended as null
// rather than erroring, since this feeds row-filtering (Filter), not
// schema validation.
func appendAt(bld array.Builder, arr arrow.Array, i int) error {
	if arr.IsNull(i) {
		bld.AppendNull()
		return nil
	}
	switch a := arr.(type) {
	case *array.Int64:
		bld.(*array.Int64Builder).Append(a.Value(i))
	case *array.Int32:
		bld.(*array.Int32Builder).Append(a.Value(i))
	case *array.Uint64:
		bld.(*array.Uint64Builder).Append(a.Value(i))
	case *array.Float64:
		bld.(*array.Float64Builder).Append(a.Value(i))
	case *array.Float32:
		bld.(*array.Float32Builder).Append(a.Value(i))
	case *array.String:
		bld.(*array.StringBuilder).Append(a.Value(i))
	case *array.Boolean:
		bld.(*array.BooleanBuilder).Append(a.Value(i))
	case *array.Date32:
		bld.(*array.Date32Builder).Append(a.Value(i))
	case *array.Timestamp:
		bld.(*array.TimestampBuilder).Append(a.Value(i))
	default:
		bld.AppendNull()
	}
	return nil
}

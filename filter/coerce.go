package filter

import (
	"fmt"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
)

// Coerce converts a Scalar's wire-shape value into the Go representation
// matching colType, per the §4.3 coercion table. It is the single place
// both translators call before building a native predicate, so the table
// can't drift between them.
func Coerce(s Scalar, colType arrow.DataType) (any, error) {
	switch t := colType.(type) {
	case *arrow.Date32Type, *arrow.Date64Type:
		days, ok := asInt64(s.Value)
		if !ok {
			return nil, fmt.Errorf("filter: expected integer day count for date column, got %T", s.Value)
		}
		return arrow.Date32(days), nil

	case *arrow.TimestampType:
		micros, ok := asInt64(s.Value)
		if !ok {
			return nil, fmt.Errorf("filter: expected integer microsecond count for timestamp column, got %T", s.Value)
		}
		loc := time.UTC
		if t.TimeZone != "" {
			if l, err := time.LoadLocation(t.TimeZone); err == nil {
				loc = l
			}
		}
		ts := time.UnixMicro(micros).In(loc)
		return arrow.TimestampFromTime(ts, arrow.Microsecond)

	case *arrow.Int8Type, *arrow.Int16Type, *arrow.Int32Type, *arrow.Int64Type,
		*arrow.Uint8Type, *arrow.Uint16Type, *arrow.Uint32Type, *arrow.Uint64Type,
		*arrow.Float32Type, *arrow.Float64Type:
		switch v := s.Value.(type) {
		case int64, float64, int, float32:
			return v, nil
		default:
			return nil, fmt.Errorf("filter: expected numeric literal for numeric column, got %T", s.Value)
		}

	case *arrow.StringType, *arrow.LargeStringType:
		str, ok := s.Value.(string)
		if !ok {
			return nil, fmt.Errorf("filter: expected string literal for string column, got %T", s.Value)
		}
		return str, nil

	default:
		return nil, fmt.Errorf("filter: unsupported column type %s for comparison", colType)
	}
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	default:
		return 0, false
	}
}

// IsSupportedColumnType reports whether colType is eligible for predicate
// pushdown at all. View-encoded strings/binaries, decimals, binaries and
// nested list/map/struct types are excluded per §4.3 "Unsupported types".
// A struct column reached via StructExtract is not checked through this
// function directly — see columnTypeSupported in arrow.go, which recurses
// into the named child's type before applying this check there.
func IsSupportedColumnType(colType arrow.DataType) bool {
	switch colType.(type) {
	case *arrow.StringViewType, *arrow.BinaryViewType,
		*arrow.Decimal32Type, *arrow.Decimal64Type, *arrow.Decimal128Type, *arrow.Decimal256Type,
		*arrow.BinaryType, *arrow.LargeBinaryType, *arrow.FixedSizeBinaryType,
		*arrow.ListType, *arrow.LargeListType, *arrow.FixedSizeListType,
		*arrow.MapType, *arrow.StructType:
		return false
	default:
		return true
	}
}

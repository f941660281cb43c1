// Package stats implements StatisticsExtractor: optional per-column
// min/max/null-count statistics computed over a holder's chunks for the
// engine's optimizer, aggregated across chunks and skipped entirely for
// any column that contains NaN.
package stats

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"sync"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

// SpecKind tags which columns a Spec selects.
type SpecKind int

const (
	// None disables statistics entirely.
	None SpecKind = iota
	// All selects every column.
	All
	// Numeric selects integer, floating, date and timestamp columns.
	Numeric
	// Regex selects columns whose name matches Pattern.
	Regex
	// List selects exactly Names, erroring if any name is absent.
	List
)

// Spec describes which columns to compute statistics for, per §4.4.
type Spec struct {
	Kind    SpecKind
	Pattern string
	Names   []string
}

// NoStatistics is the "absent" spec.
func NoStatistics() Spec { return Spec{Kind: None} }

// AllColumns selects every column.
func AllColumns() Spec { return Spec{Kind: All} }

// NumericColumns selects int/float/date/timestamp columns.
func NumericColumns() Spec { return Spec{Kind: Numeric} }

// ByRegex selects columns whose name matches pattern.
func ByRegex(pattern string) Spec { return Spec{Kind: Regex, Pattern: pattern} }

// ByNames selects exactly these columns.
func ByNames(names []string) Spec { return Spec{Kind: List, Names: names} }

// ColumnStats is the per-column statistics tuple from §3. Which of
// MinInt/MaxInt, MinDouble/MaxDouble, and MinStr/MaxStr/MaxStrLen are
// populated is indicated by TypeTag.
type ColumnStats struct {
	ColumnIndex int
	TypeTag     string // "int", "float", "str", "null"
	NullCount   int64
	NumRows     int64

	MinInt, MaxInt       int64
	MinDouble, MaxDouble float64
	MaxStrLen            int
	MinStr, MaxStr       string
}

var globallyEnabled = sync.OnceValue(func() bool {
	v := os.Getenv("STATISTICS_ENABLED")
	if v == "" {
		return true
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return true
	}
	return b
})

// GloballyEnabled reports the STATISTICS_ENABLED environment gate (§6).
func GloballyEnabled() bool { return globallyEnabled() }

// ResolveColumns maps a Spec against schema into concrete column indices,
// per §4.4's spec variants.
func ResolveColumns(spec Spec, schema *arrow.Schema) ([]int, error) {
	switch spec.Kind {
	case None:
		return nil, nil
	case All:
		idx := make([]int, schema.NumFields())
		for i := range idx {
			idx[i] = i
		}
		return idx, nil
	case Numeric:
		var idx []int
		for i := 0; i < schema.NumFields(); i++ {
			if isNumericType(schema.Field(i).Type) {
				idx = append(idx, i)
			}
		}
		return idx, nil
	case Regex:
		re, err := regexp.Compile(spec.Pattern)
		if err != nil {
			return nil, fmt.Errorf("stats: invalid statistics regex %q: %w", spec.Pattern, err)
		}
		var idx []int
		for i := 0; i < schema.NumFields(); i++ {
			if re.MatchString(schema.Field(i).Name) {
				idx = append(idx, i)
			}
		}
		return idx, nil
	case List:
		byName := make(map[string]int, schema.NumFields())
		for i := 0; i < schema.NumFields(); i++ {
			byName[schema.Field(i).Name] = i
		}
		idx := make([]int, 0, len(spec.Names))
		for _, name := range spec.Names {
			i, ok := byName[name]
			if !ok {
				return nil, fmt.Errorf("stats: column %q not found", name)
			}
			idx = append(idx, i)
		}
		return idx, nil
	default:
		return nil, fmt.Errorf("stats: unknown spec kind %d", spec.Kind)
	}
}

func isNumericType(t arrow.DataType) bool {
	switch t.(type) {
	case *arrow.Int8Type, *arrow.Int16Type, *arrow.Int32Type, *arrow.Int64Type,
		*arrow.Uint8Type, *arrow.Uint16Type, *arrow.Uint32Type, *arrow.Uint64Type,
		*arrow.Float32Type, *arrow.Float64Type,
		*arrow.Date32Type, *arrow.Date64Type, *arrow.TimestampType:
		return true
	default:
		return false
	}
}

func isViewType(t arrow.DataType) bool {
	switch t.(type) {
	case *arrow.StringViewType, *arrow.BinaryViewType:
		return true
	default:
		return false
	}
}

// Extract computes statistics for the columns spec selects, aggregating
// across every chunk in chunks. An empty frame (zero chunks, or chunks
// summing to zero rows) returns an empty result, per §4.4.
func Extract(chunks []arrow.Record, schema *arrow.Schema, spec Spec) ([]ColumnStats, error) {
	if !GloballyEnabled() {
		return nil, nil
	}
	indices, err := ResolveColumns(spec, schema)
	if err != nil {
		return nil, err
	}
	if len(indices) == 0 {
		return nil, nil
	}

	var totalRows int64
	for _, c := range chunks {
		totalRows += c.NumRows()
	}
	if totalRows == 0 {
		return nil, nil
	}

	out := make([]ColumnStats, 0, len(indices))
	for _, idx := range indices {
		field := schema.Field(idx)
		if isViewType(field.Type) {
			continue // view-encoded types are omitted entirely
		}
		cs, ok, err := columnStats(idx, field.Type, chunks, totalRows)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, cs)
		}
	}
	return out, nil
}

func columnStats(idx int, dt arrow.DataType, chunks []arrow.Record, totalRows int64) (ColumnStats, bool, error) {
	agg := newAggregator(dt)
	var nullCount int64

	for _, chunk := range chunks {
		col := chunk.Column(idx)
		for i := 0; i < col.Len(); i++ {
			if col.IsNull(i) {
				nullCount++
				continue
			}
			if !agg.observe(col, i) {
				// NaN observed on a floating column: skip this column
				// entirely per §4.4.
				return ColumnStats{}, false, nil
			}
		}
	}

	cs := ColumnStats{ColumnIndex: idx, NullCount: nullCount, NumRows: totalRows}
	if nullCount == totalRows {
		cs.TypeTag = "null"
		return cs, true, nil
	}
	if !agg.any() {
		cs.TypeTag = "null"
		return cs, true, nil
	}

	switch a := agg.(type) {
	case *intAggregator:
		cs.TypeTag = "int"
		cs.MinInt, cs.MaxInt = a.min, a.max
	case *floatAggregator:
		cs.TypeTag = "float"
		cs.MinDouble, cs.MaxDouble = a.min, a.max
	case *stringAggregator:
		cs.TypeTag = "str"
		cs.MinStr, cs.MaxStr, cs.MaxStrLen = a.min, a.max, a.maxLen
	default:
		return ColumnStats{}, false, nil
	}
	return cs, true, nil
}

// aggregator accumulates min/max across all chunks for one column.
// observe returns false to signal "abort, NaN seen" for floating columns.
type aggregator interface {
	observe(col arrow.Array, i int) bool
	any() bool
}

func newAggregator(dt arrow.DataType) aggregator {
	switch dt.(type) {
	case *arrow.Int8Type, *arrow.Int16Type, *arrow.Int32Type, *arrow.Int64Type,
		*arrow.Uint8Type, *arrow.Uint16Type, *arrow.Uint32Type, *arrow.Uint64Type,
		*arrow.Date32Type, *arrow.Date64Type, *arrow.TimestampType:
		return &intAggregator{}
	case *arrow.Float32Type, *arrow.Float64Type:
		return &floatAggregator{}
	case *arrow.StringType, *arrow.LargeStringType:
		return &stringAggregator{}
	default:
		return &unsupportedAggregator{}
	}
}

type intAggregator struct {
	set      bool
	min, max int64
}

func (a *intAggregator) observe(col arrow.Array, i int) bool {
	v := intValueAt(col, i)
	if !a.set {
		a.min, a.max, a.set = v, v, true
		return true
	}
	if v < a.min {
		a.min = v
	}
	if v > a.max {
		a.max = v
	}
	return true
}
func (a *intAggregator) any() bool { return a.set }

type floatAggregator struct {
	set      bool
	min, max float64
}

func (a *floatAggregator) observe(col arrow.Array, i int) bool {
	v, isNaN := floatValueAt(col, i)
	if isNaN {
		return false
	}
	if !a.set {
		a.min, a.max, a.set = v, v, true
		return true
	}
	if v < a.min {
		a.min = v
	}
	if v > a.max {
		a.max = v
	}
	return true
}
func (a *floatAggregator) any() bool { return a.set }

type stringAggregator struct {
	set            bool
	min, max       string
	maxLen         int
}

func (a *stringAggregator) observe(col arrow.Array, i int) bool {
	s := stringValueAt(col, i)
	if len(s) > a.maxLen {
		a.maxLen = len(s)
	}
	if !a.set {
		a.min, a.max, a.set = s, s, true
		return true
	}
	if s < a.min {
		a.min = s
	}
	if s > a.max {
		a.max = s
	}
	return true
}
func (a *stringAggregator) any() bool { return a.set }

type unsupportedAggregator struct{}

func (unsupportedAggregator) observe(arrow.Array, int) bool { return true }
func (unsupportedAggregator) any() bool                     { return false }

func intValueAt(col arrow.Array, i int) int64 {
	switch a := col.(type) {
	case *array.Int8:
		return int64(a.Value(i))
	case *array.Int16:
		return int64(a.Value(i))
	case *array.Int32:
		return int64(a.Value(i))
	case *array.Int64:
		return a.Value(i)
	case *array.Uint8:
		return int64(a.Value(i))
	case *array.Uint16:
		return int64(a.Value(i))
	case *array.Uint32:
		return int64(a.Value(i))
	case *array.Uint64:
		return int64(a.Value(i))
	case *array.Date32:
		return int64(a.Value(i))
	case *array.Date64:
		return int64(a.Value(i))
	case *array.Timestamp:
		return int64(a.Value(i))
	default:
		return 0
	}
}

func floatValueAt(col arrow.Array, i int) (v float64, isNaN bool) {
	switch a := col.(type) {
	case *array.Float32:
		f := a.Value(i)
		return float64(f), isNaNFloat32(f)
	case *array.Float64:
		f := a.Value(i)
		return f, isNaNFloat64(f)
	default:
		return 0, false
	}
}

func stringValueAt(col arrow.Array, i int) string {
	switch a := col.(type) {
	case *array.String:
		return a.Value(i)
	case *array.LargeString:
		return a.Value(i)
	default:
		return ""
	}
}

func isNaNFloat32(f float32) bool { return f != f }
func isNaNFloat64(f float64) bool { return f != f }

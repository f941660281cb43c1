package filter

import (
	"context"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/compute"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// ArrowTranslator evaluates filter nodes against in-memory arrow.Record
// chunks using arrow-go's compute function registry ("equal", "greater",
// "is_null", ...) for leaf comparisons, combined into a single boolean
// selection mask. This arrow-go version has no public dataset-scanner
// expression DSL to build a deferred predicate against, so pushdown here
// means evaluating eagerly per chunk rather than compiling a reusable
// expression tree; see DESIGN.md.
type ArrowTranslator struct {
	Mem memory.Allocator
}

func (t ArrowTranslator) allocator() memory.Allocator {
	if t.Mem != nil {
		return t.Mem
	}
	return memory.DefaultAllocator
}

// Partition splits tree into filters that can be pushed into Evaluate and
// filters that must be left for the engine, based only on column type and
// node shape (no data access).
func (t ArrowTranslator) Partition(tree Set, schema *arrow.Schema) (pushed, residual Set) {
	pushed, residual = make(Set), make(Set)
	for idx, node := range tree {
		if idx < 0 || idx >= schema.NumFields() {
			continue // unknown column index: silently dropped, engine re-applies
		}
		colType := schema.Field(idx).Type
		if !columnTypeSupported(node, colType) || !supportsNode(node) {
			residual[idx] = node
			continue
		}
		pushed[idx] = node
	}
	return pushed, residual
}

// columnTypeSupported checks type eligibility for node against colType. A
// StructExtract is the one case where the column's own type (a struct,
// otherwise always unsupported per IsSupportedColumnType) doesn't gate the
// node: it recurses into the named child field's type instead, matching
// supportsNode's recursion into StructExtract.Child.
func columnTypeSupported(node Node, colType arrow.DataType) bool {
	se, ok := node.(StructExtract)
	if !ok {
		return IsSupportedColumnType(colType)
	}
	st, ok := colType.(*arrow.StructType)
	if !ok || se.ChildIndex < 0 || se.ChildIndex >= st.NumFields() {
		return false
	}
	return columnTypeSupported(se.Child, st.Field(se.ChildIndex).Type)
}

func supportsNode(n Node) bool {
	switch v := n.(type) {
	case ConstantComparison, IsNull, IsNotNull, Dynamic:
		return true
	case Optional:
		return true
	case In:
		return len(v.Values) > 0
	case And:
		for _, c := range v.Children {
			if !supportsNode(c) {
				return false
			}
		}
		return true
	case Or:
		for _, c := range v.Children {
			if !supportsNode(c) {
				return false
			}
		}
		return true
	case StructExtract:
		return supportsNode(v.Child)
	default:
		return false
	}
}

// Evaluate computes a boolean selection mask (one entry per row of rec)
// honoring every node in pushed, combined with AND. Nodes that fail to
// evaluate against the actual data (e.g. a coercion error) are dropped from
// the mask and returned in residual instead of aborting the scan, matching
// §4.1 ("native predicate translation failure -> drop that filter").
func (t ArrowTranslator) Evaluate(ctx context.Context, rec arrow.Record, pushed Set) (mask *array.Boolean, residual Set, err error) {
	n := int(rec.NumRows())
	bld := array.NewBooleanBuilder(t.allocator())
	defer bld.Release()
	for i := 0; i < n; i++ {
		bld.Append(true)
	}
	acc := bld.NewBooleanArray()
	residual = make(Set)

	for idx, node := range pushed {
		col := rec.Column(idx)
		nodeMask, evalErr := t.evalNode(ctx, col, node)
		if evalErr != nil {
			residual[idx] = node
			continue
		}
		combined := andBoolArrays(t.allocator(), acc, nodeMask)
		acc.Release()
		nodeMask.Release()
		acc = combined
	}
	return acc, residual, nil
}

func (t ArrowTranslator) evalNode(ctx context.Context, col arrow.Array, node Node) (*array.Boolean, error) {
	switch v := node.(type) {
	case ConstantComparison:
		return t.evalComparison(ctx, col, v)
	case IsNull:
		return boolArrayFrom(t.allocator(), col, func(i int) bool { return col.IsNull(i) }), nil
	case IsNotNull:
		return boolArrayFrom(t.allocator(), col, func(i int) bool { return col.IsValid(i) }), nil
	case Dynamic, Optional:
		return allTrueArray(t.allocator(), col.Len()), nil
	case And:
		return t.evalConjunction(ctx, col, v.Children, true)
	case Or:
		return t.evalConjunction(ctx, col, v.Children, false)
	case In:
		return t.evalIn(ctx, col, v)
	case StructExtract:
		child, ok := col.(*array.Struct)
		if !ok || v.ChildIndex < 0 || v.ChildIndex >= child.NumField() {
			return nil, fmt.Errorf("filter: StructExtract on non-struct or out-of-range field")
		}
		return t.evalNode(ctx, child.Field(v.ChildIndex), v.Child)
	default:
		return nil, fmt.Errorf("filter: unsupported node %T", node)
	}
}

func (t ArrowTranslator) evalConjunction(ctx context.Context, col arrow.Array, children []Node, isAnd bool) (*array.Boolean, error) {
	if len(children) == 0 {
		return allBoolArray(t.allocator(), col.Len(), isAnd), nil
	}
	var acc *array.Boolean
	for _, c := range children {
		m, err := t.evalNode(ctx, col, c)
		if err != nil {
			return nil, err
		}
		if acc == nil {
			acc = m
			continue
		}
		var combined *array.Boolean
		if isAnd {
			combined = andBoolArrays(t.allocator(), acc, m)
		} else {
			combined = orBoolArrays(t.allocator(), acc, m)
		}
		acc.Release()
		m.Release()
		acc = combined
	}
	return acc, nil
}

func (t ArrowTranslator) evalIn(ctx context.Context, col arrow.Array, in In) (*array.Boolean, error) {
	var acc *array.Boolean
	for _, v := range in.Values {
		m, err := t.evalComparison(ctx, col, ConstantComparison{Op: EQ, Value: v})
		if err != nil {
			return nil, err
		}
		if acc == nil {
			acc = m
			continue
		}
		combined := orBoolArrays(t.allocator(), acc, m)
		acc.Release()
		m.Release()
		acc = combined
	}
	if acc == nil {
		return allTrueArray(t.allocator(), col.Len()), nil
	}
	return acc, nil
}

// evalComparison dispatches to arrow-go's compute function registry for
// the scalar comparison, special-casing NaN literals per the six-outcome
// table in §4.3 (the registry's own float comparison follows IEEE-754,
// which treats NaN comparisons as always-false — not what the engine
// wants).
func (t ArrowTranslator) evalComparison(ctx context.Context, col arrow.Array, cmp ConstantComparison) (*array.Boolean, error) {
	if IsNaNLiteral(cmp.Value) {
		return t.evalNaNComparison(col, cmp.Op)
	}

	coerced, err := Coerce(cmp.Value, col.DataType())
	if err != nil {
		return nil, err
	}
	scalar, err := scalarDatum(col.DataType(), coerced)
	if err != nil {
		return nil, err
	}

	funcName, ok := computeFuncName(cmp.Op)
	if !ok {
		return nil, fmt.Errorf("filter: unsupported comparison op %s", cmp.Op)
	}

	lhs := compute.NewDatum(col)
	defer lhs.Release()
	rhs := compute.NewDatum(scalar)
	defer rhs.Release()

	result, err := compute.CallFunction(ctx, funcName, nil, lhs, rhs)
	if err != nil {
		return nil, fmt.Errorf("filter: compute %s failed: %w", funcName, err)
	}
	defer result.Release()

	arrDatum, ok := result.(*compute.ArrayDatum)
	if !ok {
		return nil, fmt.Errorf("filter: compute %s returned unexpected datum %T", funcName, result)
	}
	boolArr, ok := arrDatum.MakeArray().(*array.Boolean)
	if !ok {
		return nil, fmt.Errorf("filter: compute %s did not produce a boolean array", funcName)
	}
	return boolArr, nil
}

func (t ArrowTranslator) evalNaNComparison(col arrow.Array, op Op) (*array.Boolean, error) {
	getFloat := func(i int) (float64, bool) {
		switch a := col.(type) {
		case *array.Float64:
			return a.Value(i), true
		case *array.Float32:
			return float64(a.Value(i)), true
		default:
			return 0, false
		}
	}
	return boolArrayFrom(t.allocator(), col, func(i int) bool {
		if col.IsNull(i) {
			return false
		}
		v, ok := getFloat(i)
		if !ok {
			return false
		}
		return CompareAgainstNaN(op, v)
	}), nil
}

func computeFuncName(op Op) (string, bool) {
	switch op {
	case EQ:
		return "equal", true
	case NE:
		return "not_equal", true
	case LT:
		return "less", true
	case LE:
		return "less_equal", true
	case GT:
		return "greater", true
	case GE:
		return "greater_equal", true
	default:
		return "", false
	}
}

func scalarDatum(dt arrow.DataType, v any) (arrow.Scalar, error) {
	switch dt.(type) {
	case *arrow.Int64Type:
		n, _ := toInt64(v)
		return arrow.NewInt64Scalar(n), nil
	case *arrow.Int32Type:
		n, _ := toInt64(v)
		return arrow.NewInt32Scalar(int32(n)), nil
	case *arrow.Float64Type:
		f, _ := toFloat64(v)
		return arrow.NewFloat64Scalar(f), nil
	case *arrow.Float32Type:
		f, _ := toFloat64(v)
		return arrow.NewFloat32Scalar(float32(f)), nil
	case *arrow.StringType:
		s, _ := v.(string)
		return arrow.NewStringScalar(s), nil
	case *arrow.Date32Type:
		d, _ := v.(arrow.Date32)
		return arrow.NewDate32Scalar(d), nil
	case *arrow.TimestampType:
		ts, _ := v.(arrow.Timestamp)
		return arrow.NewTimestampScalar(ts, dt), nil
	default:
		return nil, fmt.Errorf("filter: cannot build scalar datum for %s", dt)
	}
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

func boolArrayFrom(mem memory.Allocator, col arrow.Array, pred func(i int) bool) *array.Boolean {
	bld := array.NewBooleanBuilder(mem)
	defer bld.Release()
	for i := 0; i < col.Len(); i++ {
		bld.Append(pred(i))
	}
	return bld.NewBooleanArray()
}

func allTrueArray(mem memory.Allocator, n int) *array.Boolean {
	return allBoolArray(mem, n, true)
}

func allBoolArray(mem memory.Allocator, n int, v bool) *array.Boolean {
	bld := array.NewBooleanBuilder(mem)
	defer bld.Release()
	for i := 0; i < n; i++ {
		bld.Append(v)
	}
	return bld.NewBooleanArray()
}

func andBoolArrays(mem memory.Allocator, a, b *array.Boolean) *array.Boolean {
	bld := array.NewBooleanBuilder(mem)
	defer bld.Release()
	for i := 0; i < a.Len(); i++ {
		bld.Append(a.Value(i) && b.Value(i))
	}
	return bld.NewBooleanArray()
}

func orBoolArrays(mem memory.Allocator, a, b *array.Boolean) *array.Boolean {
	bld := array.NewBooleanBuilder(mem)
	defer bld.Release()
	for i := 0; i < a.Len(); i++ {
		bld.Append(a.Value(i) || b.Value(i))
	}
	return bld.NewBooleanArray()
}

package frame

import (
	"fmt"
	"math"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Evaluate computes a boolean selection mask for rec under expr. expr must
// be boolean-shaped (comparison, IsNull/IsNotNull, In, And/Or, or a
// constant); evaluating a bare Col or Lit node is an error.
func Evaluate(expr *Expr, rec arrow.Record) (*array.Boolean, error) {
	mem := memory.DefaultAllocator
	switch expr.kind {
	case KindConst:
		return allBool(mem, int(rec.NumRows()), expr.constVal), nil
	case KindIsNull, KindIsNotNull:
		col, err := resolveColumn(rec, expr.operand)
		if err != nil {
			return nil, err
		}
		want := expr.kind == KindIsNull
		return boolFrom(mem, col.Len(), func(i int) bool { return col.IsNull(i) == want }), nil
	case KindComparison:
		return evalComparison(mem, rec, expr)
	case KindIn:
		return evalIn(mem, rec, expr)
	case KindAnd:
		return evalConjunction(mem, rec, expr.children, true)
	case KindOr:
		return evalConjunction(mem, rec, expr.children, false)
	default:
		return nil, fmt.Errorf("frame: expression of kind %d is not boolean-valued", expr.kind)
	}
}

func evalConjunction(mem memory.Allocator, rec arrow.Record, children []*Expr, isAnd bool) (*array.Boolean, error) {
	if len(children) == 0 {
		return allBool(mem, int(rec.NumRows()), isAnd), nil
	}
	var acc *array.Boolean
	for _, c := range children {
		m, err := Evaluate(c, rec)
		if err != nil {
			return nil, err
		}
		if acc == nil {
			acc = m
			continue
		}
		combined := boolFrom(mem, acc.Len(), func(i int) bool {
			if isAnd {
				return acc.Value(i) && m.Value(i)
			}
			return acc.Value(i) || m.Value(i)
		})
		acc.Release()
		m.Release()
		acc = combined
	}
	return acc, nil
}

func evalIn(mem memory.Allocator, rec arrow.Record, expr *Expr) (*array.Boolean, error) {
	if len(expr.options) == 0 {
		return allBool(mem, int(rec.NumRows()), true), nil
	}
	var acc *array.Boolean
	for _, opt := range expr.options {
		m, err := evalComparison(mem, rec, expr.operand.cmp(OpEq, opt))
		if err != nil {
			return nil, err
		}
		if acc == nil {
			acc = m
			continue
		}
		combined := boolFrom(mem, acc.Len(), func(i int) bool { return acc.Value(i) || m.Value(i) })
		acc.Release()
		m.Release()
		acc = combined
	}
	return acc, nil
}

func evalComparison(mem memory.Allocator, rec arrow.Record, expr *Expr) (*array.Boolean, error) {
	col, err := resolveColumn(rec, expr.operand)
	if err != nil {
		return nil, err
	}
	if expr.rhs == nil || expr.rhs.kind != KindLiteral {
		return nil, fmt.Errorf("frame: comparison right-hand side must be a literal")
	}
	lit := expr.rhs.value

	if f, ok := lit.(float64); ok && math.IsNaN(f) {
		return boolFrom(mem, col.Len(), func(i int) bool {
			if col.IsNull(i) {
				return false
			}
			v, ok := floatAt(col, i)
			if !ok {
				return false
			}
			return nanCompare(expr.op, v)
		}), nil
	}

	return boolFrom(mem, col.Len(), func(i int) bool {
		if col.IsNull(i) {
			return false
		}
		return compareAt(col, i, expr.op, lit)
	}), nil
}

func nanCompare(op CompareOp, v float64) bool {
	isNaN := math.IsNaN(v)
	switch op {
	case OpEq:
		return isNaN
	case OpNe:
		return !isNaN
	case OpGt:
		return false
	case OpGe:
		return isNaN
	case OpLt:
		return !isNaN
	case OpLe:
		return true
	default:
		return false
	}
}

func resolveColumn(rec arrow.Record, e *Expr) (arrow.Array, error) {
	if e == nil || e.kind != KindColumn {
		return nil, fmt.Errorf("frame: expected a column reference")
	}
	indices := rec.Schema().FieldIndices(e.name)
	if len(indices) == 0 {
		return nil, fmt.Errorf("frame: unknown column %q", e.name)
	}
	return rec.Column(indices[0]), nil
}

func allBool(mem memory.Allocator, n int, v bool) *array.Boolean {
	return boolFrom(mem, n, func(int) bool { return v })
}

func boolFrom(mem memory.Allocator, n int, pred func(i int) bool) *array.Boolean {
	bld := array.NewBooleanBuilder(mem)
	defer bld.Release()
	for i := 0; i < n; i++ {
		bld.Append(pred(i))
	}
	return bld.NewBooleanArray()
}

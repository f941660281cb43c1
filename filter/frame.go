package filter

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/arrowbridge/hostbridge/frame"
)

// FrameTranslator builds a frame.Expr predicate from a filter tree, for the
// PolarsEagerHolder/PolarsLazyHolder variants. Unlike ArrowTranslator it
// doesn't evaluate anything itself; it hands the built expression to
// frame.DataFrame.Filter / frame.LazyFrame.Filter.
type FrameTranslator struct{}

// Partition splits tree as ArrowTranslator.Partition does, so scan.Adapter
// can treat both translators through the same interface, with one
// difference: a struct column is never eligible here, so a StructExtract
// filter always goes to residual.
func (FrameTranslator) Partition(tree Set, schema *arrow.Schema) (pushed, residual Set) {
	pushed, residual = make(Set), make(Set)
	for idx, node := range tree {
		if idx < 0 || idx >= schema.NumFields() {
			continue
		}
		colType := schema.Field(idx).Type
		if !IsSupportedColumnType(colType) || !supportsNode(node) {
			residual[idx] = node
			continue
		}
		pushed[idx] = node
	}
	return pushed, residual
}

// Translate builds a single combined predicate (AND of every translatable
// column filter) plus the residual Set the engine must still apply. schema
// supplies column types for the coercion table and the unsupported-type
// check.
func (FrameTranslator) Translate(tree Set, schema *arrow.Schema) (pushed *frame.Expr, residual Set) {
	residual = make(Set)
	var combined *frame.Expr

	for idx, node := range tree {
		if idx < 0 || idx >= schema.NumFields() {
			continue
		}
		colName := schema.Field(idx).Name
		colType := schema.Field(idx).Type
		if !IsSupportedColumnType(colType) {
			residual[idx] = node
			continue
		}
		expr, err := nodeToExpr(frame.Col(colName), node, colType)
		if err != nil {
			residual[idx] = node
			continue
		}
		if combined == nil {
			combined = expr
		} else {
			combined = frame.And(combined, expr)
		}
	}

	if combined == nil {
		combined = frame.ConstBool(true)
	}
	return combined, residual
}

func nodeToExpr(col *frame.Expr, node Node, colType arrow.DataType) (*frame.Expr, error) {
	switch v := node.(type) {
	case ConstantComparison:
		return comparisonExpr(col, v, colType)
	case IsNull:
		return col.IsNull(), nil
	case IsNotNull:
		return col.IsNotNull(), nil
	case Dynamic:
		return frame.ConstBool(true), nil
	case Optional:
		return frame.ConstBool(true), nil
	case And:
		children, err := mapChildren(col, v.Children, colType)
		if err != nil {
			return nil, err
		}
		return frame.And(children...), nil
	case Or:
		children, err := mapChildren(col, v.Children, colType)
		if err != nil {
			return nil, err
		}
		return frame.Or(children...), nil
	case In:
		if len(v.Values) == 0 {
			return nil, fmt.Errorf("filter: empty In list")
		}
		opts := make([]*frame.Expr, 0, len(v.Values))
		for _, val := range v.Values {
			coerced, err := Coerce(val, colType)
			if err != nil {
				return nil, err
			}
			opts = append(opts, frame.Lit(coerced))
		}
		return col.In(opts...), nil
	case StructExtract:
		return nil, fmt.Errorf("filter: StructExtract is not supported by the frame translator")
	default:
		return nil, fmt.Errorf("filter: unsupported node %T", node)
	}
}

func mapChildren(col *frame.Expr, nodes []Node, colType arrow.DataType) ([]*frame.Expr, error) {
	out := make([]*frame.Expr, 0, len(nodes))
	for _, n := range nodes {
		e, err := nodeToExpr(col, n, colType)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func comparisonExpr(col *frame.Expr, cmp ConstantComparison, colType arrow.DataType) (*frame.Expr, error) {
	op, err := frameOp(cmp.Op)
	if err != nil {
		return nil, err
	}
	if IsNaNLiteral(cmp.Value) {
		return frameComparisonByOp(col, op, frame.Lit(cmp.Value.Value)), nil
	}
	coerced, err := Coerce(cmp.Value, colType)
	if err != nil {
		return nil, err
	}
	return frameComparisonByOp(col, op, frame.Lit(coerced)), nil
}

func frameComparisonByOp(col *frame.Expr, op frame.CompareOp, lit *frame.Expr) *frame.Expr {
	switch op {
	case frame.OpEq:
		return col.Eq(lit)
	case frame.OpNe:
		return col.Ne(lit)
	case frame.OpLt:
		return col.Lt(lit)
	case frame.OpLe:
		return col.Le(lit)
	case frame.OpGt:
		return col.Gt(lit)
	default:
		return col.Ge(lit)
	}
}

func frameOp(op Op) (frame.CompareOp, error) {
	switch op {
	case EQ:
		return frame.OpEq, nil
	case NE:
		return frame.OpNe, nil
	case LT:
		return frame.OpLt, nil
	case LE:
		return frame.OpLe, nil
	case GT:
		return frame.OpGt, nil
	case GE:
		return frame.OpGe, nil
	default:
		return 0, fmt.Errorf("filter: unknown op %v", op)
	}
}

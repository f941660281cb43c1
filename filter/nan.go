package filter

import "math"

// CompareAgainstNaN implements the six-outcome table from §4.3: comparing a
// floating-point column against a NaN literal. v is the column value (NaN
// or not); the return value is whether the row satisfies the comparison.
// ArrowTranslator routes NaN comparisons through this function; the frame
// translator's expressions are evaluated by frame/eval.go's nanCompare,
// which carries the same six outcomes (package frame cannot import
// filter). Both follow the engine's "NaN greater than all" convention.
func CompareAgainstNaN(op Op, v float64) bool {
	vIsNaN := math.IsNaN(v)
	switch op {
	case EQ:
		return vIsNaN
	case NE:
		return !vIsNaN
	case GT:
		return false
	case GE:
		return vIsNaN
	case LT:
		return !vIsNaN
	case LE:
		return true
	default:
		return false
	}
}

// IsNaNLiteral reports whether a Scalar's value is a float64 NaN, so
// translators can route comparisons through CompareAgainstNaN instead of
// the library's native (and often IEEE-754-correct-but-wrong-for-us)
// comparison kernels.
func IsNaNLiteral(s Scalar) bool {
	f, ok := s.Value.(float64)
	return ok && math.IsNaN(f)
}

package scan

import (
	"github.com/arrowbridge/hostbridge/filter"
	"github.com/arrowbridge/hostbridge/holder"
)

// DefaultTranslatorFor picks ArrowTranslator for the Arrow-native holder
// variants and FrameTranslator for the frame-backed ones, by concrete type.
// A holder from outside this module that implements neither shape falls
// back to ArrowTranslator, since partitioning against an unsupported node
// is already safe (it demotes to residual rather than rejecting the node).
func DefaultTranslatorFor(h holder.Holder) filter.Translator {
	switch h.(type) {
	case *holder.PolarsEagerHolder, *holder.PolarsLazyHolder:
		return filter.FrameTranslator{}
	default:
		return filter.ArrowTranslator{}
	}
}

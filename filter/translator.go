package filter

import "github.com/apache/arrow-go/v18/arrow"

// Translator partitions a filter tree into the subset a DataHolder variant
// can push down natively and the subset that must be left for the engine
// to apply itself. Both ArrowTranslator and FrameTranslator implement it;
// scan.Adapter depends only on this interface, never on a concrete
// variant.
type Translator interface {
	Partition(tree Set, schema *arrow.Schema) (pushed, residual Set)
}

var (
	_ Translator = ArrowTranslator{}
	_ Translator = FrameTranslator{}
)

package preprocess

import (
	"context"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/arrowbridge/hostbridge/filter"
	"github.com/arrowbridge/hostbridge/holder"
)

// ArrowCapable is the capability a replacement-scan binding must expose to
// be adopted: anything that can answer a schema and produce a filtered
// Arrow stream. holder.Holder satisfies this structurally, so any holder
// value (or a caller's own Arrow-backed type with the same two methods)
// qualifies without extra wiring.
type ArrowCapable interface {
	Schema() *arrow.Schema
	ProduceFiltered(ctx context.Context, proj holder.Projection, filters filter.Set) (array.RecordReader, error)
}

// Binding is one name->value pair in a lexical scope frame.
type Binding struct {
	Name  string
	Value any
}

// Scope is the caller's lexical scope chain, innermost frame first. Go has
// no runtime frame introspection, so embedders build this explicitly
// (e.g. from local variables they want visible to replacement scan) rather
// than it being derived automatically — this is the Go-idiomatic
// resolution of §9 open question (b): lexical-only, by construction.
type Scope []Binding

// Resolve walks frames outward (scope is already ordered innermost-first)
// looking for the first binding named name. ok is false if no binding with
// that name exists at all. capable is false if a binding was found but
// doesn't implement ArrowCapable — the caller should warn and leave the
// name unresolved rather than adopt it.
func (s Scope) Resolve(name string) (value ArrowCapable, found, capable bool) {
	for _, b := range s {
		if b.Name != name {
			continue
		}
		if ac, ok := b.Value.(ArrowCapable); ok {
			return ac, true, true
		}
		return nil, true, false
	}
	return nil, false, false
}

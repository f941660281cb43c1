package holder

import (
	"context"
	"sync"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/arrowbridge/hostbridge/errs"
	"github.com/arrowbridge/hostbridge/filter"
	"github.com/arrowbridge/hostbridge/stats"
)

// ScanSource produces one Arrow stream for an ArrowLazyHolder. It receives
// the already-translated pushdown: proj and the pushed subset of filters.
type ScanSource func(ctx context.Context, proj Projection, pushed filter.Set) (array.RecordReader, error)

// ArrowLazyHolder wraps a lazy scanner abstraction ("ArrowLazy" in the §9
// tagged-enum design) whose cardinality is unknown and which may be
// single-use: once its stream has been consumed, a second ProduceFiltered
// call fails with errs.StreamAlreadyConsumed. Filter translation happens
// upstream (scan.Adapter); ArrowLazyHolder just hands the pushed set to the
// underlying source, since the source owns its own predicate evaluation
// strategy (e.g. an engine-native scanner it wraps).
type ArrowLazyHolder struct {
	schema    *arrow.Schema
	source    ScanSource
	singleUse bool

	mu       sync.Mutex
	consumed bool
}

// NewArrowLazyHolder builds a lazy holder. If singleUse is true, a second
// ProduceFiltered call returns errs.StreamAlreadyConsumed.
func NewArrowLazyHolder(schema *arrow.Schema, source ScanSource, singleUse bool) *ArrowLazyHolder {
	return &ArrowLazyHolder{schema: schema, source: source, singleUse: singleUse}
}

func (h *ArrowLazyHolder) Schema() *arrow.Schema { return h.schema }

func (h *ArrowLazyHolder) NumRows() (int64, bool) { return 0, false }

func (h *ArrowLazyHolder) ColumnNames() []string {
	names := make([]string, h.schema.NumFields())
	for i := range names {
		names[i] = h.schema.Field(i).Name
	}
	return names
}

func (h *ArrowLazyHolder) Reusable() bool { return !h.singleUse }

func (h *ArrowLazyHolder) ProduceFiltered(ctx context.Context, proj Projection, filters filter.Set) (array.RecordReader, error) {
	h.mu.Lock()
	if h.singleUse {
		if h.consumed {
			h.mu.Unlock()
			return nil, errs.StreamAlreadyConsumed
		}
		h.consumed = true
	}
	h.mu.Unlock()

	outSchema := ProjectSchema(h.schema, proj)
	if proj.isEmpty() && len(filters) == 0 {
		return array.NewRecordReader(outSchema, nil)
	}
	return h.source(ctx, proj, filters)
}

// ComputeStatistics always returns nil for lazy holders: materializing the
// source just to compute statistics would contradict the point of staying
// lazy, and cardinality may be unbounded.
func (h *ArrowLazyHolder) ComputeStatistics(stats.Spec) ([]stats.ColumnStats, error) {
	return nil, nil
}

func (h *ArrowLazyHolder) Close() error { return nil }

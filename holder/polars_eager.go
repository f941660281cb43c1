package holder

import (
	"context"
	"sync"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/arrowbridge/hostbridge/filter"
	"github.com/arrowbridge/hostbridge/frame"
	"github.com/arrowbridge/hostbridge/stats"
)

// PolarsEagerHolder wraps an eager frame.DataFrame. Reusable: Filter builds
// a new DataFrame each call rather than mutating the shared one.
type PolarsEagerHolder struct {
	translator filter.FrameTranslator

	mu sync.RWMutex
	df *frame.DataFrame
}

// NewPolarsEagerHolder takes ownership of df.
func NewPolarsEagerHolder(df *frame.DataFrame) *PolarsEagerHolder {
	return &PolarsEagerHolder{df: df}
}

func (h *PolarsEagerHolder) Schema() *arrow.Schema { return h.df.Schema() }

func (h *PolarsEagerHolder) NumRows() (int64, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.df.NumRows(), true
}

func (h *PolarsEagerHolder) ColumnNames() []string {
	schema := h.df.Schema()
	names := make([]string, schema.NumFields())
	for i := range names {
		names[i] = schema.Field(i).Name
	}
	return names
}

func (h *PolarsEagerHolder) Reusable() bool { return true }

func (h *PolarsEagerHolder) ProduceFiltered(ctx context.Context, proj Projection, filters filter.Set) (array.RecordReader, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	schema := h.df.Schema()
	outSchema := ProjectSchema(schema, proj)
	if proj.isEmpty() && len(filters) == 0 {
		return array.NewRecordReader(outSchema, nil)
	}

	result := h.df
	retained := false
	if len(filters) > 0 {
		expr, _ := h.translator.Translate(filters, schema)
		filtered, err := h.df.Filter(expr)
		if err != nil {
			return nil, err
		}
		result = filtered
		retained = true
	}

	if !proj.All {
		projected, err := result.Select(proj.Names)
		if retained {
			result.Release()
		}
		if err != nil {
			return nil, err
		}
		result = projected
		retained = true
	}

	reader, err := result.ToRecordReader()
	if retained {
		result.Release()
	}
	return reader, err
}

func (h *PolarsEagerHolder) ComputeStatistics(spec stats.Spec) ([]stats.ColumnStats, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return stats.Extract(h.df.Chunks(), h.df.Schema(), spec)
}

func (h *PolarsEagerHolder) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.df != nil {
		h.df.Release()
		h.df = nil
	}
	return nil
}

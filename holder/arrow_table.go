package holder

import (
	"context"
	"fmt"
	"sync"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/arrowbridge/hostbridge/filter"
	"github.com/arrowbridge/hostbridge/stats"
)

// ArrowTableHolder wraps an in-memory arrow.Record set ("ArrowTable" in the
// §9 tagged-enum design). It is reusable: multiple concurrent scans are
// permitted.
//
// Grounded on the canonical ArrowHolder behavior (produce_filtered /
// statistics rules) this module was modeled on.
type ArrowTableHolder struct {
	mem        memory.Allocator
	schema     *arrow.Schema
	chunks     []arrow.Record
	translator filter.ArrowTranslator

	mu sync.RWMutex
}

// NewArrowTableHolder builds a reusable holder over chunks, all of which
// must share schema. Ownership of chunks passes to the holder.
func NewArrowTableHolder(mem memory.Allocator, schema *arrow.Schema, chunks []arrow.Record) *ArrowTableHolder {
	if mem == nil {
		mem = memory.DefaultAllocator
	}
	return &ArrowTableHolder{mem: mem, schema: schema, chunks: chunks, translator: filter.ArrowTranslator{Mem: mem}}
}

func (h *ArrowTableHolder) Schema() *arrow.Schema { return h.schema }

func (h *ArrowTableHolder) NumRows() (int64, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var n int64
	for _, c := range h.chunks {
		n += c.NumRows()
	}
	return n, true
}

func (h *ArrowTableHolder) ColumnNames() []string {
	names := make([]string, h.schema.NumFields())
	for i := range names {
		names[i] = h.schema.Field(i).Name
	}
	return names
}

func (h *ArrowTableHolder) Reusable() bool { return true }

// ProduceFiltered evaluates filters against each chunk and projects the
// surviving rows, per §4.1's Arrow-variant pushdown rule.
func (h *ArrowTableHolder) ProduceFiltered(ctx context.Context, proj Projection, filters filter.Set) (array.RecordReader, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	outSchema := ProjectSchema(h.schema, proj)
	if proj.isEmpty() && len(filters) == 0 {
		return array.NewRecordReader(outSchema, nil)
	}

	var out []arrow.Record
	for _, chunk := range h.chunks {
		filtered := chunk
		retain := false
		if len(filters) > 0 {
			mask, _, err := h.translator.Evaluate(ctx, chunk, filters)
			if err != nil {
				return nil, fmt.Errorf("holder: filter evaluation failed: %w", err)
			}
			sel, err := selectRows(h.mem, chunk, mask)
			mask.Release()
			if err != nil {
				return nil, err
			}
			filtered = sel
			retain = true
		}

		projected, err := projectRecord(h.mem, filtered, outSchema, proj)
		if retain {
			filtered.Release()
		}
		if err != nil {
			return nil, err
		}
		out = append(out, projected)
	}

	return array.NewRecordReader(outSchema, out)
}

func (h *ArrowTableHolder) ComputeStatistics(spec stats.Spec) ([]stats.ColumnStats, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return stats.Extract(h.chunks, h.schema, spec)
}

func (h *ArrowTableHolder) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.chunks {
		c.Release()
	}
	h.chunks = nil
	return nil
}

func selectRows(mem memory.Allocator, rec arrow.Record, mask *array.Boolean) (arrow.Record, error) {
	n := mask.Len()
	builders := make([]array.Builder, rec.NumCols())
	for i := range builders {
		builders[i] = array.NewBuilder(mem, rec.Column(i).DataType())
	}
	defer func() {
		for _, b := range builders {
			b.Release()
		}
	}()

	var kept int64
	for row := 0; row < n; row++ {
		if mask.IsNull(row) || !mask.Value(row) {
			continue
		}
		kept++
		for c := 0; c < int(rec.NumCols()); c++ {
			appendSelected(builders[c], rec.Column(c), row)
		}
	}
	cols := make([]arrow.Array, len(builders))
	for i, b := range builders {
		cols[i] = b.NewArray()
	}
	return array.NewRecord(rec.Schema(), cols, kept), nil
}

func appendSelected(bld array.Builder, col arrow.Array, i int) {
	if col.IsNull(i) {
		bld.AppendNull()
		return
	}
	switch a := col.(type) {
	case *array.Int64:
		bld.(*array.Int64Builder).Append(a.Value(i))
	case *array.Int32:
		bld.(*array.Int32Builder).Append(a.Value(i))
	case *array.Float64:
		bld.(*array.Float64Builder).Append(a.Value(i))
	case *array.Float32:
		bld.(*array.Float32Builder).Append(a.Value(i))
	case *array.String:
		bld.(*array.StringBuilder).Append(a.Value(i))
	case *array.Boolean:
		bld.(*array.BooleanBuilder).Append(a.Value(i))
	case *array.Date32:
		bld.(*array.Date32Builder).Append(a.Value(i))
	case *array.Timestamp:
		bld.(*array.TimestampBuilder).Append(a.Value(i))
	default:
		bld.AppendNull()
	}
}

func projectRecord(mem memory.Allocator, rec arrow.Record, outSchema *arrow.Schema, proj Projection) (arrow.Record, error) {
	if proj.All {
		rec.Retain()
		return rec, nil
	}
	cols := make([]arrow.Array, outSchema.NumFields())
	for i := 0; i < outSchema.NumFields(); i++ {
		name := outSchema.Field(i).Name
		idxs := rec.Schema().FieldIndices(name)
		if len(idxs) == 0 {
			return nil, fmt.Errorf("holder: projected column %q missing from chunk", name)
		}
		cols[i] = rec.Column(idxs[0])
	}
	return array.NewRecord(outSchema, cols, rec.NumRows()), nil
}

// Package frame is a small, pure-Go columnar dataframe engine: an eager
// DataFrame plus a lazy operation-stack wrapper, both backed by arrow.Record
// chunks, with a chainable expression builder (Col/Lit/comparison methods)
// in the spirit of a Polars-style API.
//
// No real CGO binding to an actual Polars/Rust dataframe library is
// fetchable as a Go module; this package keeps that idiom's builder shape
// (Col("age").Gt(Lit(30)), method-chained Select/Filter/Collect) while
// executing entirely against arrow-go arrays, which is a real, already
// wired dependency. See DESIGN.md.
package frame

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// DataFrame is an eager, reusable, in-memory columnar table split into one
// or more arrow.Record chunks sharing a single schema.
type DataFrame struct {
	mem    memory.Allocator
	schema *arrow.Schema
	chunks []arrow.Record
}

// New builds a DataFrame over schema from pre-built chunks. Ownership of
// chunks (their Arrow reference counts) passes to the DataFrame; Release
// drops them.
func New(mem memory.Allocator, schema *arrow.Schema, chunks []arrow.Record) *DataFrame {
	if mem == nil {
		mem = memory.DefaultAllocator
	}
	return &DataFrame{mem: mem, schema: schema, chunks: chunks}
}

func (df *DataFrame) Schema() *arrow.Schema { return df.schema }

func (df *DataFrame) NumRows() int64 {
	var n int64
	for _, c := range df.chunks {
		n += c.NumRows()
	}
	return n
}

func (df *DataFrame) Chunks() []arrow.Record { return df.chunks }

// Retain bumps the reference count of every chunk so the DataFrame can be
// shared by multiple readers (PolarsEagerHolder's reusability contract).
func (df *DataFrame) Retain() {
	for _, c := range df.chunks {
		c.Retain()
	}
}

func (df *DataFrame) Release() {
	for _, c := range df.chunks {
		c.Release()
	}
}

// Select projects df down to columns, preserving their requested order. An
// empty columns slice means "all columns" and returns df unchanged.
func (df *DataFrame) Select(columns []string) (*DataFrame, error) {
	if len(columns) == 0 {
		df.Retain()
		return df, nil
	}

	idx := make(map[string]int, df.schema.NumFields())
	for i := 0; i < df.schema.NumFields(); i++ {
		idx[df.schema.Field(i).Name] = i
	}

	fields := make([]arrow.Field, 0, len(columns))
	positions := make([]int, 0, len(columns))
	for _, name := range columns {
		i, ok := idx[name]
		if !ok {
			return nil, fmt.Errorf("frame: unknown column %q", name)
		}
		fields = append(fields, df.schema.Field(i))
		positions = append(positions, i)
	}
	meta := df.schema.Metadata()
	newSchema := arrow.NewSchema(fields, &meta)

	out := make([]arrow.Record, 0, len(df.chunks))
	for _, chunk := range df.chunks {
		cols := make([]arrow.Array, len(positions))
		for i, p := range positions {
			cols[i] = chunk.Column(p)
		}
		out = append(out, array.NewRecord(newSchema, cols, chunk.NumRows()))
	}
	return New(df.mem, newSchema, out), nil
}

// Filter evaluates expr against every chunk and returns a DataFrame
// containing only the matching rows.
func (df *DataFrame) Filter(expr *Expr) (*DataFrame, error) {
	out := make([]arrow.Record, 0, len(df.chunks))
	for _, chunk := range df.chunks {
		mask, err := Evaluate(expr, chunk)
		if err != nil {
			return nil, err
		}
		selected, err := applyMask(df.mem, chunk, mask)
		mask.Release()
		if err != nil {
			return nil, err
		}
		out = append(out, selected)
	}
	return New(df.mem, df.schema, out), nil
}

// ToRecordReader exposes df as a one-shot array.RecordReader, the shape
// DataHolder.ProduceFiltered must return.
func (df *DataFrame) ToRecordReader() (array.RecordReader, error) {
	df.Retain()
	return array.NewRecordReader(df.schema, df.chunks)
}

func applyMask(mem memory.Allocator, rec arrow.Record, mask *array.Boolean) (arrow.Record, error) {
	n := mask.Len()
	builders := make([]array.Builder, rec.NumCols())
	for i := range builders {
		builders[i] = array.NewBuilder(mem, rec.Column(i).DataType())
		defer builders[i].Release()
	}
	var kept int64
	for row := 0; row < n; row++ {
		if mask.IsNull(row) || !mask.Value(row) {
			continue
		}
		kept++
		for c := 0; c < int(rec.NumCols()); c++ {
			if err := appendAt(builders[c], rec.Column(c), row); err != nil {
				return nil, err
			}
		}
	}
	cols := make([]arrow.Array, len(builders))
	for i, b := range builders {
		cols[i] = b.NewArray()
	}
	return array.NewRecord(rec.Schema(), cols, kept), nil
}

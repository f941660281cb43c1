// Package holder implements DataHolder: the uniform handle a registered
// scan source presents to the engine, regardless of whether the underlying
// frame is an Arrow table, an eager dataframe, or a lazy computation plan.
package holder

import (
	"context"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/arrowbridge/hostbridge/filter"
	"github.com/arrowbridge/hostbridge/stats"
)

// Projection selects which columns ProduceFiltered should return.
type Projection struct {
	// All, when true, means every column (projected_columns == "all" in
	// the wire contract). Names is ignored in that case.
	All   bool
	Names []string
}

// AllColumns is the "all" projection.
func AllColumns() Projection { return Projection{All: true} }

// Columns builds a named-column projection. An empty or nil names slice
// is the engine's schema-probe convention (see ProduceFiltered contract).
func Columns(names []string) Projection { return Projection{Names: names} }

func (p Projection) isEmpty() bool { return !p.All && len(p.Names) == 0 }

// Holder is the DataHolder contract from the data model: schema/cardinality
// introspection plus filtered, projected scan production and optional
// statistics. Schema() must report the exact schema of every stream
// ProduceFiltered returns (for the requested projection).
type Holder interface {
	// Schema returns the holder's full schema. Stable for the holder's
	// lifetime.
	Schema() *arrow.Schema

	// NumRows returns the exact row count, or ok=false if the source is
	// lazy and the count isn't known without materializing it.
	NumRows() (n int64, ok bool)

	// ColumnNames returns column names in schema order; their positions
	// are the indices used as filter.Set keys.
	ColumnNames() []string

	// ProduceFiltered returns a stream over the projected, filtered rows.
	// filters is already the "pushed" subset a Translator approved; an
	// implementation is still entitled to fail an individual node with
	// UnsupportedFilter internally (never exposed here — see
	// filter.Translator.Partition, which is meant to prevent that).
	//
	// Per §4.1: when proj selects zero columns and filters is empty, the
	// returned stream must have an empty schema (schema probe).
	ProduceFiltered(ctx context.Context, proj Projection, filters filter.Set) (array.RecordReader, error)

	// ComputeStatistics computes per-column statistics per spec, or
	// returns (nil, nil) if spec selects no columns.
	ComputeStatistics(spec stats.Spec) ([]stats.ColumnStats, error)

	// Close releases the holder's resources. Idempotent.
	Close() error
}

// Reusable is implemented by every holder variant in this package. It
// reports true when ProduceFiltered may be called concurrently and
// repeatedly (ArrowTableHolder, PolarsEagerHolder, PolarsLazyHolder, and
// an ArrowLazyHolder not built as single-use) and false for an
// ArrowLazyHolder built as single-use, whose second
// ProduceFiltered call fails with errs.StreamAlreadyConsumed.
type Reusable interface {
	Reusable() bool
}

package frame

import "fmt"

// LazyFrame defers Select/Filter operations until Collect executes them
// against the underlying source. Each Collect re-runs the whole plan; the
// one-shot-cache behavior PolarsLazyHolder needs on top of this (reuse a
// prior Collect when no filter was applied) is a holder-level concern, not
// this package's — LazyFrame stays a plain, repeatable pipeline.
type LazyFrame struct {
	source func() (*DataFrame, error)
	ops    []operation
}

type opKind int

const (
	opSelect opKind = iota
	opFilter
)

type operation struct {
	kind    opKind
	columns []string
	expr    *Expr
}

// NewLazy wraps source (typically a closure returning a snapshot of an
// eager DataFrame) as the root of a lazy plan.
func NewLazy(source func() (*DataFrame, error)) *LazyFrame {
	return &LazyFrame{source: source}
}

// Select appends a projection step and returns a new LazyFrame (the
// receiver's plan is not mutated, matching the builder idiom of chained
// calls returning fresh values).
func (lf *LazyFrame) Select(columns []string) *LazyFrame {
	return lf.with(operation{kind: opSelect, columns: columns})
}

// Filter appends a filter step.
func (lf *LazyFrame) Filter(expr *Expr) *LazyFrame {
	return lf.with(operation{kind: opFilter, expr: expr})
}

// HasFilter reports whether any Filter step is queued, used by
// PolarsLazyHolder to decide whether a prior collected result may be
// reused (filter-free plans may reuse; filtered ones must re-collect).
func (lf *LazyFrame) HasFilter() bool {
	for _, op := range lf.ops {
		if op.kind == opFilter {
			return true
		}
	}
	return false
}

func (lf *LazyFrame) with(op operation) *LazyFrame {
	ops := make([]operation, len(lf.ops), len(lf.ops)+1)
	copy(ops, lf.ops)
	ops = append(ops, op)
	return &LazyFrame{source: lf.source, ops: ops}
}

// Collect materializes the plan into an eager DataFrame.
func (lf *LazyFrame) Collect() (*DataFrame, error) {
	df, err := lf.source()
	if err != nil {
		return nil, fmt.Errorf("frame: lazy source failed: %w", err)
	}
	for _, op := range lf.ops {
		switch op.kind {
		case opSelect:
			df, err = df.Select(op.columns)
		case opFilter:
			df, err = df.Filter(op.expr)
		}
		if err != nil {
			return nil, err
		}
	}
	return df, nil
}

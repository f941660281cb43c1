package engine

import (
	"context"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/arrowbridge/hostbridge/frame"
	"github.com/arrowbridge/hostbridge/holder"
	"github.com/arrowbridge/hostbridge/stats"
)

// Source is a tagged union selecting which holder.Holder variant Register
// builds: exactly one field beyond Schema should be set. The variant set
// is closed and small, matching the tagged-enum dispatch this core favors
// over a deep holder hierarchy.
type Source struct {
	// Schema is required for the Scan and Lazy variants. Chunks can infer
	// it from the first record, and Eager uses the DataFrame's own schema.
	Schema *arrow.Schema

	// Chunks builds a reusable, in-memory ArrowTableHolder.
	Chunks []arrow.Record

	// Scan builds a single scan-callback ArrowLazyHolder. SingleUse
	// controls whether a second ProduceFiltered call is rejected.
	Scan      holder.ScanSource
	SingleUse bool

	// Eager wraps an already-collected frame.DataFrame.
	Eager *frame.DataFrame

	// Lazy wraps a deferred frame.LazyFrame, collected on each filtered
	// scan and cached on its first filter-free scan.
	Lazy *frame.LazyFrame
}

// build constructs the concrete holder.Holder the Source describes, or
// ok=false when the Source doesn't identify a recognized variant —
// Connection.Register turns that into UnsupportedRegistrationInput's
// "return false rather than raising" behavior.
func (s Source) build(mem memory.Allocator) (holder.Holder, bool) {
	switch {
	case s.Chunks != nil:
		schema := s.Schema
		if schema == nil && len(s.Chunks) > 0 {
			schema = s.Chunks[0].Schema()
		}
		if schema == nil {
			return nil, false
		}
		return holder.NewArrowTableHolder(mem, schema, s.Chunks), true
	case s.Scan != nil:
		if s.Schema == nil {
			return nil, false
		}
		return holder.NewArrowLazyHolder(s.Schema, s.Scan, s.SingleUse), true
	case s.Eager != nil:
		return holder.NewPolarsEagerHolder(s.Eager), true
	case s.Lazy != nil:
		if s.Schema == nil {
			return nil, false
		}
		return holder.NewPolarsLazyHolder(s.Schema, s.Lazy), true
	default:
		return nil, false
	}
}

// Register builds a DataHolder from source and registers it under name.
// spec selects the statistics computed immediately and returned to the
// caller for seeding the engine's own cardinality estimates; a nil spec
// falls back to the connection's DefaultStatistics, matching the "register
// omits it" clause of the configuration contract. ok is false, with no
// error, when source doesn't identify a recognized variant — the caller
// may fall back to another registration path. replace follows the
// HolderRegistry replace algorithm.
func (c *Connection) Register(ctx context.Context, name string, source Source, spec *stats.Spec, replace bool) (ok bool, computed []stats.ColumnStats, err error) {
	h, built := source.build(memory.DefaultAllocator)
	if !built {
		return false, nil, nil
	}

	effective := c.config.DefaultStatistics
	if spec != nil {
		effective = *spec
	}
	if effective.Kind != stats.None {
		computed, err = h.ComputeStatistics(effective)
		if err != nil {
			_ = h.Close()
			return false, nil, fmt.Errorf("engine: statistics for %q: %w", name, err)
		}
	}

	initLock.Lock()
	err = c.registry.Register(ctx, name, h, replace)
	initLock.Unlock()
	if err != nil {
		return false, nil, fmt.Errorf("engine: register %q: %w", name, err)
	}
	return true, computed, nil
}

// Unregister removes name, closing its holder resources. A miss is not an
// error. Registration mutations that can reach the engine's own catalog
// are serialized process-wide under initLock, matching Register.
func (c *Connection) Unregister(ctx context.Context, name string) {
	initLock.Lock()
	defer initLock.Unlock()
	c.registry.Unregister(ctx, name)
}

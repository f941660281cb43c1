// Package scan implements the ScanAdapter: the bridge the engine calls into
// on every row-producing scan of a registered name, translating the
// engine's filter tree against the target holder's capabilities before
// asking it to produce a stream.
package scan

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/arrowbridge/hostbridge/errs"
	"github.com/arrowbridge/hostbridge/filter"
	"github.com/arrowbridge/hostbridge/holder"
	"github.com/arrowbridge/hostbridge/internal/recovery"
	"github.com/arrowbridge/hostbridge/registry"
)

// Lookup is the subset of *registry.Registry the adapter needs, so it can
// be exercised against a stand-in in tests without a full registry.
type Lookup interface {
	Lookup(name string) (holder.Holder, bool)
}

// TranslatorFor picks the filter.Translator appropriate for a given holder.
// Callers select it by holder variant (ArrowTranslator for Arrow-native
// holders, FrameTranslator for frame-backed ones); Adapter itself stays
// variant-agnostic and takes the decision as an input.
type TranslatorFor func(h holder.Holder) filter.Translator

// Adapter implements §4.5: resolve the registered holder, partition the
// engine's filter tree into pushed/residual, ask the holder to produce the
// filtered+projected stream, and hand the residual back to the caller to
// apply itself.
type Adapter struct {
	Registry   Lookup
	Translator TranslatorFor
	Logger     *slog.Logger
}

// New builds an Adapter. logger may be nil.
func New(reg Lookup, translatorFor TranslatorFor, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{Registry: reg, Translator: translatorFor, Logger: logger}
}

// Result is what Scan hands back to the engine: the row stream to consume
// plus whatever filter predicates the holder could not apply itself, which
// the engine must evaluate again over the returned rows.
type Result struct {
	Stream   array.RecordReader
	Residual filter.Set
}

// Scan looks up name, partitions filters against its schema, and produces
// the filtered, projected stream. Panics inside the holder's ProduceFiltered
// are converted to errors so one misbehaving scan source can't take down
// the connection.
func (a *Adapter) Scan(ctx context.Context, name string, proj holder.Projection, filters filter.Set) (Result, error) {
	h, ok := a.Registry.Lookup(name)
	if !ok {
		return Result{}, fmt.Errorf("scan: %q: %w", name, errs.UnknownScanSource)
	}

	translator := a.Translator(h)
	pushed, residual := translator.Partition(filters, h.Schema())

	stream, err := recovery.RecoverToValue(a.Logger, "ProduceFiltered", func() (array.RecordReader, error) {
		return h.ProduceFiltered(ctx, proj, pushed)
	})
	if err != nil {
		return Result{}, fmt.Errorf("scan: %q: %w", name, err)
	}

	return Result{Stream: stream, Residual: residual}, nil
}

var _ Lookup = (*registry.Registry)(nil)

package preprocess

import (
	"github.com/arrowbridge/hostbridge/holder"
	"github.com/arrowbridge/hostbridge/stats"
)

// scopeHolder adapts a replacement-scan scope binding (anything satisfying
// ArrowCapable) up to the full holder.Holder contract the registry expects.
// ProduceFiltered is inherited directly from the embedded ArrowCapable. The
// caller owns the bound value's lifetime, so Close is a no-op here —
// registering the binding must never take ownership away from the scope
// that produced it.
type scopeHolder struct {
	ArrowCapable
}

func (h scopeHolder) NumRows() (int64, bool) { return 0, false }

func (h scopeHolder) ColumnNames() []string {
	fields := h.Schema().Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names
}

func (h scopeHolder) ComputeStatistics(spec stats.Spec) ([]stats.ColumnStats, error) {
	return nil, nil
}

func (h scopeHolder) Close() error { return nil }

var _ holder.Holder = scopeHolder{}

package engine

import (
	"fmt"

	"github.com/arrowbridge/hostbridge/errs"
	"github.com/arrowbridge/hostbridge/stats"
)

// OutputFormat selects how Execute materializes its result stream.
type OutputFormat int

const (
	// OutputArrowStream returns the engine's stream unmodified, batch by
	// batch, as it's produced.
	OutputArrowStream OutputFormat = iota
	// OutputArrowTable drains the stream fully and returns a reader over
	// the buffered record batches, so the caller sees a fixed-size result
	// with no further blocking per batch.
	OutputArrowTable
	// OutputArrowCapsule marks the result for hand-off through the Arrow C
	// Data interface; in-process this core behaves identically to
	// OutputArrowStream, since there's no wire boundary to capsule-wrap.
	OutputArrowCapsule
)

func (f OutputFormat) String() string {
	switch f {
	case OutputArrowStream:
		return "arrow_stream"
	case OutputArrowTable:
		return "arrow_table"
	case OutputArrowCapsule:
		return "arrow_capsule"
	default:
		return "unknown"
	}
}

func (f OutputFormat) valid() bool {
	switch f {
	case OutputArrowStream, OutputArrowTable, OutputArrowCapsule:
		return true
	default:
		return false
	}
}

// Config mirrors the configuration knobs a connection accepts: database
// location, engine-forwarded settings, replacement-scan gating, default
// statistics behavior, result materialization, and the SQL run on every new
// connection.
type Config struct {
	// Database is a file path. Empty means in-memory.
	Database string
	// ReadOnly opens the engine without write capability. Incompatible
	// with an in-memory database.
	ReadOnly bool
	// EngineConfig is forwarded to the embedded engine verbatim (threads,
	// memory_limit, and so on).
	EngineConfig map[string]string
	// EnableReplacementScan turns on lexical-scope name resolution in the
	// preprocessor.
	EnableReplacementScan bool
	// DefaultStatistics is used by Register when a call omits its own
	// statistics spec.
	DefaultStatistics stats.Spec
	// OutputFormat is Execute's default materialization mode.
	OutputFormat OutputFormat
	// InitSQL runs once on every new connection. Empty uses defaultInitSQL.
	InitSQL string
}

// Validate checks the configuration for the conflicts named in the
// configuration contract: an in-memory read-only database, and an
// unrecognized output format.
func (c Config) Validate() error {
	if c.ReadOnly && c.Database == "" {
		return fmt.Errorf("engine: %w", errs.ReadOnlyMemoryNotAllowed)
	}
	if !c.OutputFormat.valid() {
		return fmt.Errorf("engine: %w", errs.InvalidOutputType)
	}
	return nil
}

// defaultInitSQL sets the Arrow output behavior this core assumes
// throughout: canonical (non string-view) output and insertion-order
// preservation, so scan results are deterministic for replace-visibility
// and ordering tests.
func defaultInitSQL() string {
	return "SET produce_arrow_string_view=false; SET arrow_output_list_view=false; SET preserve_insertion_order=true;"
}

package engine

import (
	"context"

	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/arrowbridge/hostbridge/preprocess"
	"github.com/arrowbridge/hostbridge/registry"
)

// ScanFunctionRegistrar is the engine hook used to create and destroy a
// scan function's factory handle in the embedded engine's catalog. Defined
// in package registry to avoid an import cycle; this is a type alias so
// callers can spell it as engine.ScanFunctionRegistrar.
type ScanFunctionRegistrar = registry.ScanFunctionRegistrar

// Parser is the engine hook that turns SQL text into a walkable parse tree
// for the preprocessor. Defined in package preprocess for the same reason.
type Parser = preprocess.Parser

// Parameters carries positional or named bind parameters for Execute.
type Parameters struct {
	Positional []any
	Named      map[string]any
}

// QueryExecutor is the engine hook Connection drives to run a statement,
// probe for a base table's existence during replacement-scan resolution,
// and apply the connection's init SQL. It structurally satisfies
// preprocess.TableExistenceChecker, so a QueryExecutor can be passed
// directly wherever that's needed.
type QueryExecutor interface {
	Execute(ctx context.Context, sql string, params Parameters) (array.RecordReader, error)
	TableExists(ctx context.Context, name string) (bool, error)
	RunInit(ctx context.Context, sql string) error
}

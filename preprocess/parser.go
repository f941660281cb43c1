package preprocess

import (
	"context"
	"encoding/json"
	"fmt"

	pg_query "github.com/pganalyze/pg_query_go/v5"
)

// Parser is the engine's Parser hook (§2): serialize a SQL string to an
// AST the core can walk. The default implementation below uses
// pg_query_go's Postgres-grammar parser as an approximation of the
// embedded engine's own grammar — close enough for the structural
// information the Preprocessor needs (base table references, function
// calls); a deliberate approximation.
type Parser interface {
	Parse(ctx context.Context, sql string) (ast map[string]any, err error)
}

// PgQueryParser implements Parser using github.com/pganalyze/pg_query_go.
type PgQueryParser struct{}

func (PgQueryParser) Parse(ctx context.Context, sql string) (map[string]any, error) {
	raw, err := pg_query.ParseToJSON(sql)
	if err != nil {
		return nil, fmt.Errorf("preprocess: parse failed: %w", err)
	}
	var tree map[string]any
	if err := json.Unmarshal([]byte(raw), &tree); err != nil {
		return nil, fmt.Errorf("preprocess: decode parse tree: %w", err)
	}
	return tree, nil
}

// TableExistenceChecker is the slice of the engine's Query hook the
// Preprocessor needs for replacement-scan resolution: "ask the engine
// which tables already exist" (§4.6 step 3).
type TableExistenceChecker interface {
	TableExists(ctx context.Context, name string) (bool, error)
}

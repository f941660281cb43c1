// Package duckdbengine implements engine.QueryExecutor, engine.Parser and
// engine.ScanFunctionRegistrar against github.com/duckdb/duckdb-go/v2, the
// concrete embedded engine this core targets.
package duckdbengine

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/duckdb/duckdb-go/v2"

	"github.com/arrowbridge/hostbridge/engine"
	"github.com/arrowbridge/hostbridge/scan"
)

// Engine owns a single DuckDB connection and connector, providing the
// engine.QueryExecutor and engine.ScanFunctionRegistrar hooks an
// engine.Connection is opened with.
type Engine struct {
	connector *duckdb.Connector
	db        *sql.DB
	conn      *sql.Conn

	scanner *scan.Adapter
}

// Open creates a DuckDB connector and pulls a single dedicated connection
// from it, matching the teacher's database/sql usage pattern
// (`_ "github.com/duckdb/duckdb-go/v2"`, `sql.Open("duckdb", dsn)`), but
// going through duckdb.NewConnector directly so forwarded config settings
// apply before any query runs.
func Open(ctx context.Context, path string, config map[string]string) (*Engine, error) {
	connector, err := duckdb.NewConnector(path, func(execer driver.ExecerContext) error {
		for k, v := range config {
			stmt := fmt.Sprintf("SET %s=%s", k, quoteLiteral(v))
			if _, err := execer.ExecContext(ctx, stmt, nil); err != nil {
				return fmt.Errorf("duckdbengine: set %s: %w", k, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("duckdbengine: open connector: %w", err)
	}

	db := sql.OpenDB(connector)
	conn, err := db.Conn(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("duckdbengine: acquire connection: %w", err)
	}

	return &Engine{connector: connector, db: db, conn: conn}, nil
}

func quoteLiteral(v string) string {
	return "'" + strings.ReplaceAll(v, "'", "''") + "'"
}

// BindConnection lets the engine.Connection built on top of this Engine
// hand back its own ScanAdapter, so table-UDF callbacks registered via
// RegisterScan route into it. Call once, right after engine.Open.
func (e *Engine) BindConnection(conn *engine.Connection) {
	e.scanner = conn.Scanner()
}

// RunInit executes sqlText once, for the connection's init SQL.
func (e *Engine) RunInit(ctx context.Context, sqlText string) error {
	_, err := e.conn.ExecContext(ctx, sqlText)
	return err
}

// TableExists probes information_schema for a base table or view visible
// to the current connection.
func (e *Engine) TableExists(ctx context.Context, name string) (bool, error) {
	row := e.conn.QueryRowContext(ctx,
		`SELECT count(*) FROM information_schema.tables WHERE table_name = ?`, name)
	var count int
	if err := row.Scan(&count); err != nil {
		return false, fmt.Errorf("duckdbengine: table_exists %q: %w", name, err)
	}
	return count > 0, nil
}

// Close releases the connection, the underlying *sql.DB, and the
// connector, in that order.
func (e *Engine) Close() error {
	if err := e.conn.Close(); err != nil {
		return err
	}
	if err := e.db.Close(); err != nil {
		return err
	}
	return e.connector.Close()
}

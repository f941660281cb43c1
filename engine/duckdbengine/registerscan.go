package duckdbengine

import (
	"context"
	"fmt"
	"sync"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/duckdb/duckdb-go/v2"

	"github.com/arrowbridge/hostbridge/holder"
	"github.com/arrowbridge/hostbridge/registry"
	"github.com/arrowbridge/hostbridge/scan"
)

// RegisterScan and DestroyScan implement engine.ScanFunctionRegistrar
// against duckdb-go/v2's table-UDF registration facility
// (duckdb.RegisterTableUDF / duckdb.RowTableFunction). DuckDB's C API has
// no symmetric "unregister a table function" call, so DestroyScan can only
// mark the handle inert on this side — the function name stays bound in
// the catalog for the lifetime of the connector, consistent with how the
// teacher's own factory-handle destruction is scoped to the Airport
// catalog rather than to DuckDB's extension registry.
//
// RegisterScan's bound callback routes through Engine.scanner
// (engine.Connection.Scanner()), so every row DuckDB pulls from the
// function is produced by the same ScanAdapter the rest of this core uses.
// On this path the scan always requests every column with no filters
// (see scanTableSource.Init): DuckDB's projection and filters are not
// pushed into the holder, and DuckDB applies them itself over the rows.
func (e *Engine) RegisterScan(ctx context.Context, name string, h holder.Holder) (registry.FactoryHandle, error) {
	if e.scanner == nil {
		return nil, fmt.Errorf("duckdbengine: register scan %q: engine not bound to a connection (call BindConnection first)", name)
	}

	fn := &scanTableFunction{
		engine: e,
		name:   name,
		holder: h,
	}
	if err := duckdb.RegisterTableUDF(e.connector, name, fn); err != nil {
		return nil, fmt.Errorf("duckdbengine: register scan %q: %w", name, err)
	}
	return &scanHandle{name: name}, nil
}

func (e *Engine) DestroyScan(ctx context.Context, handle registry.FactoryHandle) error {
	h, ok := handle.(*scanHandle)
	if !ok {
		return fmt.Errorf("duckdbengine: destroy scan: unrecognized handle type %T", handle)
	}
	h.mu.Lock()
	h.destroyed = true
	h.mu.Unlock()
	return nil
}

type scanHandle struct {
	name      string
	mu        sync.Mutex
	destroyed bool
}

// scanTableFunction adapts a registered holder into duckdb-go/v2's
// RowTableFunction contract: Bind resolves the holder's schema, Init opens
// one ScanAdapter-backed reader for the lifetime of one table-function
// call, and FillRow drains it batch by batch.
type scanTableFunction struct {
	engine *Engine
	name   string
	holder holder.Holder
}

func (fn *scanTableFunction) Config() duckdb.TableFunctionConfig {
	return duckdb.TableFunctionConfig{}
}

func (fn *scanTableFunction) BindArguments(named map[string]duckdb.TypeInfo, args []duckdb.TypeInfo) (duckdb.RowTableSource, error) {
	schema := fn.holder.Schema()
	return &scanTableSource{fn: fn, schema: schema}, nil
}

type scanTableSource struct {
	fn     *scanTableFunction
	schema *arrow.Schema

	result scan.Result
	cur    arrow.Record
	curRow int
}

func (s *scanTableSource) ColumnInfos() []duckdb.ColumnInfo {
	infos := make([]duckdb.ColumnInfo, len(s.schema.Fields()))
	for i, f := range s.schema.Fields() {
		infos[i] = duckdb.ColumnInfo{Name: f.Name}
	}
	return infos
}

func (s *scanTableSource) Init() duckdb.TableSourceInitData {
	result, err := s.fn.engine.scanner.Scan(context.Background(), s.fn.name, holder.AllColumns(), nil)
	if err != nil {
		return duckdb.TableSourceInitData{}
	}
	s.result = result
	return duckdb.TableSourceInitData{}
}

// FillRow pulls one row at a time from the current Arrow record, advancing
// to the next record in the stream once the current one is exhausted.
// Returns false once the stream is drained, signaling end-of-scan to
// DuckDB.
func (s *scanTableSource) FillRow(row duckdb.Row) (bool, error) {
	for s.cur == nil || s.curRow >= int(s.cur.NumRows()) {
		if s.result.Stream == nil || !s.result.Stream.Next() {
			if s.result.Stream != nil {
				return false, s.result.Stream.Err()
			}
			return false, nil
		}
		s.cur = s.result.Stream.Record()
		s.curRow = 0
	}

	for col := 0; col < len(s.schema.Fields()); col++ {
		if err := duckdb.SetRowValue(row, col, s.cur.Column(col), s.curRow); err != nil {
			return false, err
		}
	}
	s.curRow++
	return true, nil
}

func (s *scanTableSource) Cardinality() *duckdb.CardinalityInfo {
	n, ok := s.fn.holder.NumRows()
	if !ok {
		return nil
	}
	return &duckdb.CardinalityInfo{Cardinality: uint64(n), Exact: true}
}

package duckdbengine

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/arrowbridge/hostbridge/engine"
)

// Execute runs sqlText with the given parameters and buffers the full
// result into a single Arrow record, matching this core's QueryExecutor
// contract. duckdb-go/v2 exposes its own zero-copy Arrow extraction path
// for bulk export (`duckdb.NewArrowFromConn`-style APIs); this module
// instead builds records from database/sql's generic driver.Value rows so
// Execute works uniformly regardless of which duckdb-go release is linked
// in, at the cost of one extra copy per result set.
func (e *Engine) Execute(ctx context.Context, sqlText string, params engine.Parameters) (array.RecordReader, error) {
	args := queryArgs(params)
	rows, err := e.conn.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, fmt.Errorf("duckdbengine: execute: %w", err)
	}
	defer rows.Close()

	schema, err := inferSchema(rows)
	if err != nil {
		return nil, err
	}

	mem := memory.DefaultAllocator
	builders := make([]array.Builder, len(schema.Fields()))
	for i, f := range schema.Fields() {
		builders[i] = array.NewBuilder(mem, f.Type)
		defer builders[i].Release()
	}

	dest := make([]any, len(builders))
	for i := range dest {
		dest[i] = new(any)
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("duckdbengine: scan row: %w", err)
		}
		for i, b := range builders {
			appendValue(b, *(dest[i].(*any)))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("duckdbengine: row iteration: %w", err)
	}

	cols := make([]arrow.Array, len(builders))
	for i, b := range builders {
		cols[i] = b.NewArray()
		defer cols[i].Release()
	}
	rec := array.NewRecord(schema, cols, -1)
	defer rec.Release()
	return array.NewRecordReader(schema, []arrow.Record{rec})
}

func queryArgs(params engine.Parameters) []any {
	if len(params.Named) > 0 {
		args := make([]any, 0, len(params.Named))
		for name, v := range params.Named {
			args = append(args, sql.Named(name, v))
		}
		return args
	}
	args := make([]any, len(params.Positional))
	copy(args, params.Positional)
	return args
}

// inferSchema maps database/sql's reported column types to an Arrow
// schema, defaulting unrecognized SQL types to Utf8 — the Arrow side can
// always represent a value's string form even when the driver doesn't
// expose a precise native Go type for it.
func inferSchema(rows *sql.Rows) (*arrow.Schema, error) {
	cols, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("duckdbengine: column types: %w", err)
	}
	fields := make([]arrow.Field, len(cols))
	for i, c := range cols {
		nullable, _ := c.Nullable()
		fields[i] = arrow.Field{Name: c.Name(), Type: arrowTypeFor(c), Nullable: nullable}
	}
	return arrow.NewSchema(fields, nil), nil
}

var timeReflectType = reflect.TypeOf(time.Time{})

func arrowTypeFor(c *sql.ColumnType) arrow.DataType {
	scanType := c.ScanType()
	if scanType == nil {
		return arrow.BinaryTypes.String
	}
	if scanType == timeReflectType {
		return arrow.FixedWidthTypes.Timestamp_us
	}
	switch scanType.Kind() {
	case reflect.Int64, reflect.Int32, reflect.Int16, reflect.Int8, reflect.Int:
		return arrow.PrimitiveTypes.Int64
	case reflect.Uint64, reflect.Uint32, reflect.Uint16, reflect.Uint8, reflect.Uint:
		return arrow.PrimitiveTypes.Uint64
	case reflect.Float64, reflect.Float32:
		return arrow.PrimitiveTypes.Float64
	case reflect.Bool:
		return arrow.FixedWidthTypes.Boolean
	default:
		return arrow.BinaryTypes.String
	}
}

// appendValue appends v (the *any dereferenced from Rows.Scan, so its
// dynamic type is whatever the driver chose) to b, coercing numeric and
// time values; a Utf8 column takes any value's fmt.Sprint form. A value
// whose runtime type doesn't match its column's non-string Arrow builder
// is appended as null rather than panicking, since the exact driver.Value
// shapes duckdb-go/v2 returns for every DuckDB logical type aren't
// independently verifiable here.
func appendValue(b array.Builder, v any) {
	if v == nil {
		b.AppendNull()
		return
	}
	switch bld := b.(type) {
	case *array.Int64Builder:
		if n, ok := asInt64(v); ok {
			bld.Append(n)
			return
		}
	case *array.Uint64Builder:
		if n, ok := asInt64(v); ok {
			bld.Append(uint64(n))
			return
		}
	case *array.Float64Builder:
		if f, ok := asFloat64(v); ok {
			bld.Append(f)
			return
		}
	case *array.BooleanBuilder:
		if bv, ok := v.(bool); ok {
			bld.Append(bv)
			return
		}
	case *array.TimestampBuilder:
		if t, ok := v.(time.Time); ok {
			bld.Append(arrow.Timestamp(t.UnixMicro()))
			return
		}
	case *array.StringBuilder:
		bld.Append(fmt.Sprint(v))
		return
	}
	b.AppendNull()
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case int:
		return int64(n), true
	default:
		return 0, false
	}
}

func asFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	default:
		return 0, false
	}
}

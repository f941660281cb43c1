// Package engine implements ConnectionCore: the per-session handle that
// owns the holder registry, the UDTF registry, the preprocessor, and the
// three hooks an embedded SQL engine must supply (ScanFunctionRegistrar,
// Parser, QueryExecutor).
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/arrowbridge/hostbridge/errs"
	"github.com/arrowbridge/hostbridge/holder"
	"github.com/arrowbridge/hostbridge/preprocess"
	"github.com/arrowbridge/hostbridge/registry"
	"github.com/arrowbridge/hostbridge/scan"
	"github.com/arrowbridge/hostbridge/udtf"
)

// executingKey tags a context with the Connection currently running
// Execute on it, so a scan callback that re-enters Execute on the same
// connection (e.g. a lazy ScanSource that queries its own parent
// connection) is caught before it blocks forever on queryLock, which is a
// plain non-reentrant sync.Mutex.
type executingKey struct{}

// initLock serializes engine-handle creation/teardown and registry
// mutations that touch the embedded engine's catalog, across every open
// Connection in the process — the embedded engine's own C API documents
// init/teardown as not thread-safe.
var initLock sync.Mutex

// Connection is ConnectionCore.
type Connection struct {
	config Config
	engine QueryExecutor
	parser Parser

	registry *registry.Registry
	udtfs    *udtf.Registry
	preproc  *preprocess.Preprocessor
	scanner  *scan.Adapter
	logger   *slog.Logger

	alive     *struct{} // weak-reference anchor for registry.Entry back-refs
	queryLock sync.Mutex
}

// Open constructs the engine handle and applies init SQL. registrar and
// parser may be nil: registrar nil means scan sources are tracked but
// never mirrored into an engine catalog (useful for core-only tests);
// parser nil defaults to preprocess.PgQueryParser.
func Open(ctx context.Context, cfg Config, eng QueryExecutor, registrar ScanFunctionRegistrar, parser Parser, logger *slog.Logger) (*Connection, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	if parser == nil {
		parser = preprocess.PgQueryParser{}
	}

	initLock.Lock()
	defer initLock.Unlock()

	conn := &Connection{
		config: cfg,
		engine: eng,
		parser: parser,
		udtfs:  udtf.New(),
		logger: logger,
		alive:  new(struct{}),
	}
	conn.registry = registry.New(registrar, logger, conn.alive)
	conn.preproc = preprocess.New(parser, eng, conn.udtfs, preprocess.Config{
		EnableReplacementScan: cfg.EnableReplacementScan,
	}, logger)
	conn.scanner = scan.New(conn.registry, scan.DefaultTranslatorFor, logger)

	initSQL := cfg.InitSQL
	if initSQL == "" {
		initSQL = defaultInitSQL()
	}
	if err := eng.RunInit(ctx, initSQL); err != nil {
		return nil, fmt.Errorf("engine: init: %w", err)
	}
	return conn, nil
}

// Scanner exposes the connection's ScanAdapter so an engine binding's
// table-function callback can route into it when the embedded engine asks
// to scan a registered name.
func (c *Connection) Scanner() *scan.Adapter { return c.scanner }

// UDTFs exposes the connection's UDTF registry for direct registration by
// embedders (engine.Connection itself has no RegisterUDTF convenience —
// callers register through udtf.Registry.Register).
func (c *Connection) UDTFs() *udtf.Registry { return c.udtfs }

// Execute runs the preprocessor over sql, registers the resulting bindings
// (merged with extraData, which takes precedence on name collision) for the
// duration of the query, invokes the engine, and unregisters them again —
// all under the connection's query lock, so at most one query is in flight
// per connection at a time.
func (c *Connection) Execute(ctx context.Context, sql string, params Parameters, format OutputFormat, scope preprocess.Scope, extraData map[string]holder.Holder) (array.RecordReader, error) {
	if active, ok := ctx.Value(executingKey{}).(*Connection); ok && active == c {
		return nil, fmt.Errorf("engine: %q: %w", sql, errs.DeadlockDetected)
	}

	c.queryLock.Lock()
	defer c.queryLock.Unlock()
	ctx = context.WithValue(ctx, executingKey{}, c)

	rewritten, bindings, err := c.preproc.Preprocess(ctx, sql, scope, c)
	if err != nil {
		return nil, fmt.Errorf("engine: preprocess: %w", err)
	}

	merged := mergeBindings(bindings, extraData)
	registered := make([]string, 0, len(merged))
	initLock.Lock()
	for name, h := range merged {
		if err := c.registry.Register(ctx, name, h, true); err != nil {
			initLock.Unlock()
			c.unregisterAll(ctx, registered)
			return nil, fmt.Errorf("engine: register %q: %w", name, err)
		}
		registered = append(registered, name)
	}
	initLock.Unlock()
	defer c.unregisterAll(ctx, registered)

	stream, err := c.engine.Execute(ctx, rewritten, params)
	if err != nil {
		return nil, fmt.Errorf("engine: execute: %w", err)
	}

	if format == OutputArrowTable {
		return materialize(stream)
	}
	return stream, nil
}

// unregisterAll mutates the registry, which can reach the engine's own
// catalog (registry.ScanFunctionRegistrar.DestroyScan) — serialized
// process-wide under initLock, same as Register/Unregister.
func (c *Connection) unregisterAll(ctx context.Context, names []string) {
	initLock.Lock()
	defer initLock.Unlock()
	for _, name := range names {
		c.registry.Unregister(ctx, name)
	}
}

func mergeBindings(preprocessed, extra map[string]holder.Holder) map[string]holder.Holder {
	out := make(map[string]holder.Holder, len(preprocessed)+len(extra))
	for name, h := range preprocessed {
		out[name] = h
	}
	for name, h := range extra {
		out[name] = h
	}
	return out
}

// materialize drains stream into buffered records and returns a reader
// over them, so OutputArrowTable callers see a fixed-size result with no
// further per-batch blocking.
func materialize(stream array.RecordReader) (array.RecordReader, error) {
	defer stream.Release()

	var records []arrow.Record
	for stream.Next() {
		rec := stream.Record()
		rec.Retain()
		records = append(records, rec)
	}
	if err := stream.Err(); err != nil {
		for _, rec := range records {
			rec.Release()
		}
		return nil, err
	}

	return array.NewRecordReader(stream.Schema(), records)
}

// Cursor returns a new Connection sharing the underlying engine handle,
// registry-backing catalog, and UDTF registry, but with its own query lock
// and preprocessor state — independent query state over a shared engine,
// per the configuration contract's cursor() description.
func (c *Connection) Cursor() *Connection {
	cursor := &Connection{
		config:   c.config,
		engine:   c.engine,
		parser:   c.parser,
		registry: c.registry,
		udtfs:    c.udtfs,
		scanner:  c.scanner,
		logger:   c.logger,
		alive:    c.alive,
	}
	cursor.preproc = preprocess.New(c.parser, c.engine, c.udtfs, preprocess.Config{
		EnableReplacementScan: c.config.EnableReplacementScan,
	}, c.logger)
	return cursor
}

// Close tears down the registry first, then nothing else: the engine
// handle itself is owned by whichever engine binding constructed the
// QueryExecutor passed to Open, and is closed by that binding.
func (c *Connection) Close(ctx context.Context) {
	initLock.Lock()
	defer initLock.Unlock()
	c.registry.CloseAll(ctx)
}

// Commit is a no-op: this core implements no transaction semantics of its
// own (§9 design note (c)), so commit without an active transaction is
// silently ignored per the error-handling contract.
func (c *Connection) Commit(ctx context.Context) error { return nil }

// Rollback is a no-op for the same reason as Commit.
func (c *Connection) Rollback(ctx context.Context) error { return nil }

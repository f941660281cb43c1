// Package preprocess rewrites an incoming SQL statement before the engine
// ever parses it for execution: resolving replacement-scan table references
// against a caller-supplied lexical scope, and materializing UDTF calls
// into transient holder bindings spliced back into the query text.
package preprocess

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"github.com/arrowbridge/hostbridge/errs"
	"github.com/arrowbridge/hostbridge/holder"
	"github.com/arrowbridge/hostbridge/internal/recovery"
	"github.com/arrowbridge/hostbridge/udtf"
)

// Config toggles the preprocessing steps a Preprocessor performs.
type Config struct {
	// EnableReplacementScan gates the scope-resolution step. UDTF
	// resolution is independent of this flag and runs whenever UDTFs are
	// registered.
	EnableReplacementScan bool
}

// Preprocessor ties together a SQL parser, the engine's table-existence
// hook, and the UDTF registry to implement the rewrite pipeline.
type Preprocessor struct {
	Parser Parser
	Tables TableExistenceChecker
	UDTFs  *udtf.Registry
	Config Config
	Logger *slog.Logger
}

// New builds a Preprocessor. logger may be nil, in which case slog.Default
// is used.
func New(parser Parser, tables TableExistenceChecker, udtfs *udtf.Registry, cfg Config, logger *slog.Logger) *Preprocessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Preprocessor{Parser: parser, Tables: tables, UDTFs: udtfs, Config: cfg, Logger: logger}
}

// Preprocess rewrites sql, returning the (possibly unchanged) statement to
// actually execute and the transient or resolved holder bindings the engine
// must register before running it. conn is passed through to any UDTF
// registered with WantsConn.
//
// When neither replacement scan nor any UDTF is in play, Preprocess returns
// sql unchanged without invoking the parser at all.
func (pp *Preprocessor) Preprocess(ctx context.Context, sql string, scope Scope, conn any) (string, map[string]holder.Holder, error) {
	if !pp.Config.EnableReplacementScan && (pp.UDTFs == nil || pp.UDTFs.Len() == 0) {
		return sql, nil, nil
	}

	tree, err := pp.Parser.Parse(ctx, sql)
	if err != nil {
		pp.Logger.Warn("preprocess: parse failed, running query unchanged", "error", err)
		return sql, nil, nil
	}

	walked := walkTree(tree)
	bindings := make(map[string]holder.Holder)

	if pp.Config.EnableReplacementScan {
		pp.resolveReplacementScan(ctx, walked.ReferencedTables, scope, bindings)
	}

	rewrites, err := pp.resolveUDTFs(ctx, sql, walked.FunctionCalls, conn, bindings)
	if err != nil {
		return sql, nil, err
	}

	rewritten := sql
	if len(rewrites) > 0 {
		rewritten = applyRewrites(sql, rewrites)
	}
	if len(bindings) == 0 {
		return rewritten, nil, nil
	}
	return rewritten, bindings, nil
}

// resolveReplacementScan implements §4.6 step 3: for every base-table name
// the query references that doesn't already exist in the engine, look it up
// in scope and adopt it as a binding if it's Arrow-capable. Table names are
// visited in sorted order purely so rewrite behavior is deterministic
// across runs with the same query and scope.
func (pp *Preprocessor) resolveReplacementScan(ctx context.Context, tables map[string]bool, scope Scope, bindings map[string]holder.Holder) {
	names := make([]string, 0, len(tables))
	for name := range tables {
		if name != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		exists, err := pp.Tables.TableExists(ctx, name)
		if err != nil {
			pp.Logger.Warn("preprocess: table existence check failed", "table", name, "error", err)
			continue
		}
		if exists {
			continue
		}

		value, found, capable := scope.Resolve(name)
		if !found {
			continue
		}
		if !capable {
			pp.Logger.Warn("preprocess: scope binding is not Arrow-capable, leaving unresolved", "name", name)
			continue
		}
		bindings[name] = scopeHolder{value}
	}
}

// resolveUDTFs implements §4.6 step 4: for each function call whose name is
// registered as a UDTF, locate and evaluate its arguments, invoke it, bind
// the resulting stream under a fresh transient name, and queue a rewrite
// replacing the call's source text with that name.
func (pp *Preprocessor) resolveUDTFs(ctx context.Context, sql string, calls []FunctionCall, conn any, bindings map[string]holder.Holder) ([]rewriteSpan, error) {
	if pp.UDTFs == nil || pp.UDTFs.Len() == 0 || len(calls) == 0 {
		return nil, nil
	}

	var rewrites []rewriteSpan
	for _, call := range calls {
		reg, ok := pp.UDTFs.Lookup(call.Name)
		if !ok {
			continue
		}

		located, ok := locateCallArgs(sql, call)
		if !ok {
			pp.Logger.Warn("preprocess: could not locate argument list for table function", "name", call.Name)
			continue
		}

		if err := reg.CheckArity(len(located.PositionalRaw)); err != nil {
			return nil, fmt.Errorf("preprocess: %w", err)
		}

		args := udtf.Args{
			Positional: make([]any, len(located.PositionalRaw)),
			Named:      make(map[string]any, len(located.NamedRaw)),
		}
		for i, raw := range located.PositionalRaw {
			args.Positional[i] = EvalArg(raw)
		}
		for name, raw := range located.NamedRaw {
			args.Named[name] = EvalArg(raw)
		}
		if reg.WantsConn {
			args.Conn = conn
		}

		stream, err := pp.invoke(ctx, reg, args)
		if err != nil {
			return nil, fmt.Errorf("preprocess: %s: %w", call.Name, err)
		}

		transient := transientName(call.Name)
		bindings[transient] = stream
		rewrites = append(rewrites, rewriteSpan{
			Start:       located.Start,
			End:         located.End,
			Replacement: transient,
		})
	}
	return rewrites, nil
}

// invoke runs a UDTF's callable under panic recovery and validates its
// return value implements holder.Holder (see udtf.Streamable).
func (pp *Preprocessor) invoke(ctx context.Context, reg udtf.Registration, args udtf.Args) (holder.Holder, error) {
	stream, err := recovery.RecoverToValue(pp.Logger, "udtf "+reg.Name, func() (udtf.Streamable, error) {
		return reg.Fn(ctx, args)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.UdtfExecutionFailed, err)
	}
	if stream == nil {
		return nil, errs.UdtfBadReturnType
	}
	return stream, nil
}

// transientName builds the "_udtf_<name>_<hex>" naming convention so two
// calls to the same table function in one statement never collide.
func transientName(funcName string) string {
	id := uuid.New()
	return fmt.Sprintf("_udtf_%s_%s", funcName, id.String()[:8])
}

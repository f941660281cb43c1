package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/arrowbridge/hostbridge/errs"
)

// fakeExecutor is a minimal QueryExecutor stand-in: it records every SQL
// string it was asked to run and returns a fixed empty stream.
type fakeExecutor struct {
	schema   *arrow.Schema
	executed []string
	tables   map[string]bool
	initRuns []string
}

func (f *fakeExecutor) Execute(ctx context.Context, sql string, params Parameters) (array.RecordReader, error) {
	f.executed = append(f.executed, sql)
	return array.NewRecordReader(f.schema, nil)
}

func (f *fakeExecutor) TableExists(ctx context.Context, name string) (bool, error) {
	return f.tables[name], nil
}

func (f *fakeExecutor) RunInit(ctx context.Context, sql string) error {
	f.initRuns = append(f.initRuns, sql)
	return nil
}

// fakeParser treats the whole SQL string as opaque: no table refs, no
// function calls. Enough for exercising Open/Execute plumbing without
// depending on pg_query_go in a unit test.
type fakeParser struct{}

func (fakeParser) Parse(ctx context.Context, sql string) (map[string]any, error) {
	return map[string]any{}, nil
}

func newTestConnection(t *testing.T) (*Connection, *fakeExecutor) {
	t.Helper()
	schema := arrow.NewSchema([]arrow.Field{{Name: "a", Type: arrow.PrimitiveTypes.Int64}}, nil)
	exec := &fakeExecutor{schema: schema, tables: map[string]bool{}}

	conn, err := Open(context.Background(), Config{Database: "test.db"}, exec, nil, fakeParser{}, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return conn, exec
}

func TestOpenRunsInitSQL(t *testing.T) {
	_, exec := newTestConnection(t)
	if len(exec.initRuns) != 1 {
		t.Fatalf("expected exactly one RunInit call, got %d", len(exec.initRuns))
	}
}

func TestOpenRejectsInvalidConfig(t *testing.T) {
	exec := &fakeExecutor{tables: map[string]bool{}}
	_, err := Open(context.Background(), Config{ReadOnly: true, Database: ""}, exec, nil, fakeParser{}, nil)
	if err == nil {
		t.Fatal("expected Open to reject a read-only in-memory database")
	}
}

func TestExecutePassesRewrittenSQLThrough(t *testing.T) {
	conn, exec := newTestConnection(t)

	sql := "SELECT 1"
	_, err := conn.Execute(context.Background(), sql, Parameters{}, OutputArrowStream, nil, nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(exec.executed) != 1 || exec.executed[0] != sql {
		t.Errorf("executed = %v, want [%q]", exec.executed, sql)
	}
}

func TestExecuteMaterializesWhenOutputArrowTable(t *testing.T) {
	conn, _ := newTestConnection(t)

	reader, err := conn.Execute(context.Background(), "SELECT 1", Parameters{}, OutputArrowTable, nil, nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	defer reader.Release()
	if reader.Next() {
		t.Error("expected an empty materialized reader")
	}
}

func TestCursorIsIndependentOfParent(t *testing.T) {
	conn, _ := newTestConnection(t)
	cursor := conn.Cursor()

	if cursor == conn {
		t.Fatal("Cursor must return a distinct Connection value")
	}
	if cursor.registry != conn.registry {
		t.Error("Cursor should share the parent's registry")
	}
	if cursor.preproc == conn.preproc {
		t.Error("Cursor must have its own preprocessor state")
	}
}

// reentrantExecutor's Execute calls straight back into conn.Execute on the
// same Connection and context, simulating a ScanAdapter callback (a lazy
// holder whose scan source queries its own parent connection) re-entering
// the query path it was invoked from.
type reentrantExecutor struct {
	schema *arrow.Schema
	conn   *Connection
}

func (r *reentrantExecutor) Execute(ctx context.Context, sql string, params Parameters) (array.RecordReader, error) {
	return r.conn.Execute(ctx, "SELECT 1", Parameters{}, OutputArrowStream, nil, nil)
}

func (r *reentrantExecutor) TableExists(ctx context.Context, name string) (bool, error) {
	return false, nil
}

func (r *reentrantExecutor) RunInit(ctx context.Context, sql string) error { return nil }

func TestExecuteDetectsReentrantCall(t *testing.T) {
	schema := arrow.NewSchema([]arrow.Field{{Name: "a", Type: arrow.PrimitiveTypes.Int64}}, nil)
	exec := &reentrantExecutor{schema: schema}
	conn, err := Open(context.Background(), Config{Database: "test.db"}, exec, nil, fakeParser{}, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	exec.conn = conn

	_, err = conn.Execute(context.Background(), "SELECT 1", Parameters{}, OutputArrowStream, nil, nil)
	if !errors.Is(err, errs.DeadlockDetected) {
		t.Fatalf("Execute: got %v, want errs.DeadlockDetected", err)
	}
}

func TestCommitAndRollbackAreNoops(t *testing.T) {
	conn, _ := newTestConnection(t)
	if err := conn.Commit(context.Background()); err != nil {
		t.Errorf("Commit: %v", err)
	}
	if err := conn.Rollback(context.Background()); err != nil {
		t.Errorf("Rollback: %v", err)
	}
}

// Package registry implements HolderRegistry: the name->holder map a
// connection uses to track registered scan sources, enforcing replace
// semantics and idempotent close.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"weak"

	"github.com/arrowbridge/hostbridge/errs"
	"github.com/arrowbridge/hostbridge/holder"
	"github.com/arrowbridge/hostbridge/internal/recovery"
)

// FactoryHandle is an engine-returned opaque handle identifying a scan
// source registered with the engine's catalog.
type FactoryHandle any

// ScanFunctionRegistrar is the engine hook used to create and destroy
// factory handles when a holder is registered or torn down. Defined here
// (the consumer) rather than in package engine, so registry has no import
// cycle back to its owner; engine.ScanFunctionRegistrar is a type alias
// for this interface.
type ScanFunctionRegistrar interface {
	RegisterScan(ctx context.Context, name string, h holder.Holder) (FactoryHandle, error)
	DestroyScan(ctx context.Context, handle FactoryHandle) error
}

// Entry is a live registration: the tuple (name, holder, factory_handle,
// close_flag) from §3, plus the per-entry close lock that guarantees
// idempotent destruction.
type Entry struct {
	Name    string
	Holder  holder.Holder
	Handle  FactoryHandle

	closeOnce sync.Once
	registrar ScanFunctionRegistrar
	logger    *slog.Logger
	owner     weak.Pointer[struct{}]
}

// Close destroys the entry's engine-side factory handle and releases its
// holder. Idempotent: a second call is a no-op. Close failures are logged
// at warn level, never returned — per §7, "close is best-effort in
// destructors".
//
// Before invoking the engine's destructor, Close checks the entry's weak
// back-reference to the owning connection (§3, §9 "weak back-references").
// If the connection is already gone, the engine handle has already been
// torn down with it and destruction here would operate on a dangling
// factory handle, so it's skipped.
func (e *Entry) Close(ctx context.Context) {
	e.closeOnce.Do(func() {
		ownerGone := e.owner != (weak.Pointer[struct{}]{}) && e.owner.Value() == nil
		if e.registrar != nil && !ownerGone {
			recovery.Recover(e.logger, "DestroyScan", func() {
				if err := e.registrar.DestroyScan(ctx, e.Handle); err != nil {
					e.logger.Warn("destroy scan failed", "name", e.Name, "error", err)
				}
			})
		}
		recovery.Recover(e.logger, "Holder.Close", func() {
			if err := e.Holder.Close(); err != nil {
				e.logger.Warn("holder close failed", "name", e.Name, "error", err)
			}
		})
	})
}

// Registry is the connection-scoped name->Entry map. All methods are
// synchronous; callers serialize mutation with the process-wide engine
// init lock per §5 (Registry itself only adds the per-registry mutex that
// protects its own map).
type Registry struct {
	mu        sync.RWMutex
	entries   map[string]*Entry
	registrar ScanFunctionRegistrar
	logger    *slog.Logger
	owner     weak.Pointer[struct{}]
}

// New builds an empty registry. registrar may be nil for tests that don't
// need real engine-side factory handles. ownerAlive is a pointer the
// caller keeps alive for exactly as long as the owning connection is open
// (typically a private *struct{} field on the connection); New takes a
// weak reference to it so registrations never resurrect a dropped
// connection.
func New(registrar ScanFunctionRegistrar, logger *slog.Logger, ownerAlive *struct{}) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	var owner weak.Pointer[struct{}]
	if ownerAlive != nil {
		owner = weak.Make(ownerAlive)
	}
	return &Registry{entries: make(map[string]*Entry), registrar: registrar, logger: logger, owner: owner}
}

// Register implements the §4.2 replace algorithm. On replace=false and a
// name collision, fails with errs.NameInUse. On replace=true, the old
// entry's factory handle stays live until the new one is inserted, then
// the old entry is closed — so any concurrent scan always sees a
// consistent source.
func (r *Registry) Register(ctx context.Context, name string, h holder.Holder, replace bool) error {
	r.mu.Lock()
	old, exists := r.entries[name]
	if exists && !replace {
		r.mu.Unlock()
		return fmt.Errorf("registry: %q: %w", name, errs.NameInUse)
	}

	var handle FactoryHandle
	var err error
	if r.registrar != nil {
		handle, err = r.registrar.RegisterScan(ctx, name, h)
		if err != nil {
			r.mu.Unlock()
			return fmt.Errorf("registry: register scan %q: %w", name, err)
		}
	}

	entry := &Entry{Name: name, Holder: h, Handle: handle, registrar: r.registrar, logger: r.logger, owner: r.owner}
	r.entries[name] = entry
	r.mu.Unlock()

	if exists {
		old.Close(ctx) // defer destruction until the new entry is visible
	}
	return nil
}

// Unregister removes name, idempotently closing its holder resources. A
// miss is not an error.
func (r *Registry) Unregister(ctx context.Context, name string) {
	r.mu.Lock()
	entry, ok := r.entries[name]
	if ok {
		delete(r.entries, name)
	}
	r.mu.Unlock()
	if ok {
		entry.Close(ctx)
	}
}

// Lookup returns the holder registered under name, or ok=false.
func (r *Registry) Lookup(name string) (holder.Holder, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[name]
	if !ok {
		return nil, false
	}
	return entry.Holder, true
}

// Exists reports whether name currently has a live registration.
func (r *Registry) Exists(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[name]
	return ok
}

// CloseAll tears down every entry, for connection shutdown.
func (r *Registry) CloseAll(ctx context.Context) {
	r.mu.Lock()
	entries := make([]*Entry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	r.entries = make(map[string]*Entry)
	r.mu.Unlock()

	for _, e := range entries {
		e.Close(ctx)
	}
}

// Package udtf implements the UDTF (user-defined table function) registry:
// host-language callables that appear as relations in SQL, resolved and
// invoked by package preprocess.
package udtf

import (
	"context"
	"fmt"
	"sync"

	"github.com/arrowbridge/hostbridge/holder"
)

// Args carries the arguments a UDTF call received, already resolved from
// SQL literals by package preprocess's safe literal evaluator. Conn is set
// only when the function was registered with WantsConn — Go's static
// signatures have no equivalent to inspecting whether "the final declared
// parameter is named conn", so that introspection is replaced with an
// explicit registration flag.
type Args struct {
	Positional []any
	Named      map[string]any
	Conn       any // *engine.Connection, injected when WantsConn is set
}

// Func is a UDTF callable. It must return a value implementing
// holder.Holder (via Streamable, below) or an error.
type Func func(ctx context.Context, args Args) (Streamable, error)

// Streamable is satisfied by anything a UDTF may return: an object
// exposing an Arrow stream capability. holder.Holder already has this
// shape, so any holder variant qualifies directly.
type Streamable = holder.Holder

// Registration is a UDTF's entry in the registry: (name, callable, arity
// introspection) from §3.
type Registration struct {
	Name      string
	Fn        Func
	MinArity  int
	MaxArity  int // -1 for variadic
	WantsConn bool
}

// Registry maps UDTF name to Registration.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]Registration
}

// New builds an empty UDTF registry.
func New() *Registry {
	return &Registry{funcs: make(map[string]Registration)}
}

// Register adds or replaces a UDTF registration.
func (r *Registry) Register(reg Registration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[reg.Name] = reg
}

// Unregister removes a UDTF registration, if present.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.funcs, name)
}

// Lookup returns the registration for name, or ok=false.
func (r *Registry) Lookup(name string) (Registration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.funcs[name]
	return reg, ok
}

// Len reports how many UDTFs are registered, used by preprocess's fast
// path ("no UDTFs are registered").
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.funcs)
}

// CheckArity validates the argument count against a registration's arity
// introspection.
func (reg Registration) CheckArity(n int) error {
	if n < reg.MinArity {
		return fmt.Errorf("udtf %s: expected at least %d arguments, got %d", reg.Name, reg.MinArity, n)
	}
	if reg.MaxArity >= 0 && n > reg.MaxArity {
		return fmt.Errorf("udtf %s: expected at most %d arguments, got %d", reg.Name, reg.MaxArity, n)
	}
	return nil
}

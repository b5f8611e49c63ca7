package job

import (
	"context"
	"fmt"
	"sync"
)

// Function is the shape every registered callable must have: positional
// args and keyword args resolved by the Reference Walker, returning a raw
// value the response normaliser will interpret. ctx carries the ambient
// current-job slot (see Current) and, if the job's config requests it, the
// store handle.
type Function func(ctx context.Context, args []any, kwargs map[string]any) (any, error)

// CallableNotFoundError is returned when a (module, function) pair cannot
// be bound at run time (spec §7).
type CallableNotFoundError struct {
	Module, Function string
}

func (e *CallableNotFoundError) Error() string {
	return fmt.Sprintf("job: callable %s.%s not found in registry", e.Module, e.Function)
}

// registry replaces module-import-by-name with a process-global map,
// following the same Register/New shape as the teacher's
// command/encoding.GobEncoder: a RWMutex-guarded map of factories/functions
// keyed by name, so lookups fail loudly and the zero value is never
// silently accepted.
var (
	registryMu sync.RWMutex
	registry   = make(map[string]Function)
)

func key(module, function string) string { return module + "." + function }

// Register binds fn under (module, function) in the process-global
// registry, so it can be resolved by name at run time (spec §9,
// "Reflection-based callable lookup"). Registering under an existing key
// replaces the previous binding, mirroring re-registration semantics used
// for hot-reloadable job definitions.
func Register(module, function string, fn Function) {
	if fn == nil {
		panic("job: nil function registered")
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[key(module, function)] = fn
}

// Lookup resolves a registered callable, or fails with
// CallableNotFoundError so construction- or run-time callers can report it
// the same way.
func Lookup(module, function string) (Function, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	fn, ok := registry[key(module, function)]
	if !ok {
		return nil, &CallableNotFoundError{Module: module, Function: function}
	}
	return fn, nil
}

// Registered reports whether (module, function) has a bound callable,
// without the cost of constructing the CallableNotFoundError.
func Registered(module, function string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[key(module, function)]
	return ok
}

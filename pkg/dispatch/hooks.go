package dispatch

import (
	"fmt"
	"sync"
)

// HookHandler is a single contributor's handler for one (operationId,
// hookPointId). It receives a frozen snapshot of the stage input and
// returns a partial result, or nil/zero for "no contribution" — a missing
// field and an explicit nil/empty result are normalized identically.
type HookHandler func(input any) (any, error)

// hookKey identifies one hook point within one operation.
type hookKey struct {
	operationID string
	hookPointID string
}

// HookRegistry stores hook contributions keyed by (operationId, hookPointId)
// in insertion order. Contributions are registered only at composition
// time — never mutated during a dispatch.
type HookRegistry struct {
	mu       sync.RWMutex
	handlers map[hookKey][]HookHandler
}

// NewHookRegistry returns an empty registry.
func NewHookRegistry() *HookRegistry {
	return &HookRegistry{handlers: make(map[hookKey][]HookHandler)}
}

// Register appends handler to the ordered sequence for (operationID,
// hookPointID). Order is load order.
func (r *HookRegistry) Register(operationID, hookPointID string, handler HookHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := hookKey{operationID, hookPointID}
	r.handlers[k] = append(r.handlers[k], handler)
}

// Resolve returns a view closed over the registry's current hook lists for
// operationID. Later registrations against operationID are not observed by
// a ResolvedHooks obtained before them.
func (r *HookRegistry) Resolve(operationID string) *ResolvedHooks {
	r.mu.RLock()
	defer r.mu.RUnlock()

	// Snapshot every hookPointID registered under this operation so Collect
	// never races a concurrent Register call.
	points := make(map[string][]HookHandler)
	for k, v := range r.handlers {
		if k.operationID != operationID {
			continue
		}
		snap := make([]HookHandler, len(v))
		copy(snap, v)
		points[k.hookPointID] = snap
	}
	return &ResolvedHooks{operationID: operationID, points: points}
}

// CollectResult is the accumulated outcome of one Collect call: every
// contributor that produced a result, in handler order, and every error a
// contributor raised, in handler order. Neither list short-circuits the
// other — a handler that errors does not prevent the next handler from
// running.
type CollectResult struct {
	Results []any
	Errors  []error
}

// ResolvedHooks is a snapshot of one operation's hook registrations,
// suitable for Collect calls throughout a single dispatch.
type ResolvedHooks struct {
	operationID string
	points      map[string][]HookHandler
}

// Collect invokes every handler registered at hookPointID, in registration
// order, passing each a shallow-frozen clone of input so contributors
// cannot mutate caller state. It never aborts on a handler error: the error
// is coerced and appended to Errors, and the next handler still runs.
func (h *ResolvedHooks) Collect(hookPointID string, input any) CollectResult {
	handlers := h.points[hookPointID]
	if len(handlers) == 0 {
		return CollectResult{}
	}

	var out CollectResult
	for _, handler := range handlers {
		frozen := freeze(input)
		result, err := invoke(handler, frozen)
		if err != nil {
			out.Errors = append(out.Errors, err)
			continue
		}
		if isEmpty(result) {
			continue
		}
		out.Results = append(out.Results, result)
	}
	return out
}

// invoke calls handler and returns its result and error unchanged. A panic
// inside handler is recovered and coerced into an error via its string
// form, so it is collected like any other handler error.
func invoke(handler HookHandler, input any) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("hook handler panicked: %v", r)
		}
	}()
	return handler(input)
}

// isEmpty reports whether a handler's result counts as "no contribution":
// nil, or an empty map — both are normalized to the same thing.
func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	if m, ok := v.(map[string]any); ok {
		return len(m) == 0
	}
	return false
}

// freeze returns a shallow clone of input. A map[string]any input is copied
// at the top level and returned as a FrozenMap, so a handler writing to its
// own copy never affects the caller's input or sibling handlers. Non-map
// inputs are passed through:
// Go values are copied by assignment already (structs, including those
// embedded in an interface, are copied on passing unless pointers), so the
// only mutation hazard is a shared map or slice field, which callers should
// avoid placing in hook input structs.
func freeze(input any) any {
	if m, ok := input.(map[string]any); ok {
		clone := make(map[string]any, len(m))
		for k, v := range m {
			clone[k] = v
		}
		return FrozenMap(clone)
	}
	return input
}

// FrozenMap is the shallow clone of a map[string]any hook input that each
// handler receives. Its Set method panics; direct index assignment is not
// prevented by the type, and such a write changes only that handler's own
// clone.
type FrozenMap map[string]any

// Set always panics — FrozenMap is read-only from the handler's side.
func (FrozenMap) Set(string, any) {
	panic("dispatch: hook input is frozen; handlers may not mutate it")
}

// Get reads a key, mirroring normal map access.
func (f FrozenMap) Get(key string) (any, bool) {
	v, ok := f[key]
	return v, ok
}

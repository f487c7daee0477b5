package dispatch

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/corebench/workspacectl/pkg/errkind"
	"github.com/corebench/workspacectl/pkg/logging"
)

// EventHandler subscribes to one domain event type.
type EventHandler func(Event)

// Dispatcher is the control plane's single point of dispatch: interceptors
// → operation → hook points / nested dispatch → buffered event broadcast.
// Multiple Dispatch calls may be in flight concurrently; all shared state
// here is protected by mu and mutated only at composition or teardown time
// except the idempotency interceptor's own in-flight set, which has its
// own locking (see idempotency.go).
type Dispatcher struct {
	mu            sync.RWMutex
	operations    map[string]Operation
	interceptors  []Interceptor
	subscribers   map[string][]EventHandler
	hookRegistry  *HookRegistry
}

// NewDispatcher returns a Dispatcher backed by registry for hook
// resolution. Passing nil creates a fresh, empty HookRegistry.
func NewDispatcher(registry *HookRegistry) *Dispatcher {
	if registry == nil {
		registry = NewHookRegistry()
	}
	return &Dispatcher{
		operations:   make(map[string]Operation),
		subscribers:  make(map[string][]EventHandler),
		hookRegistry: registry,
	}
}

// HookRegistry returns the dispatcher's hook registry, so modules and tests
// can register contributions against it directly.
func (d *Dispatcher) HookRegistry() *HookRegistry { return d.hookRegistry }

// RegisterOperation binds op to its own ID as intent type. A second,
// distinct registration for the same ID is a programming error — operation
// registration collisions are always a bug, never a runtime condition to
// recover from.
func (d *Dispatcher) RegisterOperation(op Operation) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if existing, ok := d.operations[op.ID()]; ok {
		// An operation whose type is not comparable (e.g. OperationFunc) cannot
		// be checked for identity, so it always counts as distinct.
		if !reflect.TypeOf(op).Comparable() || existing != op {
			return errkind.Programmingf("dispatcher", "operation %q already registered", op.ID())
		}
	}
	d.operations[op.ID()] = op
	return nil
}

// AddInterceptor inserts i in Order() order, keeping insertion order among
// ties (a stable sort, re-run on every insert — the interceptor list only
// changes at composition time so this is not on the dispatch hot path).
func (d *Dispatcher) AddInterceptor(i Interceptor) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.interceptors = append(d.interceptors, i)
	sort.SliceStable(d.interceptors, func(a, b int) bool {
		return d.interceptors[a].Order() < d.interceptors[b].Order()
	})
}

// Subscribe registers handler for eventType in registration order and
// returns an unsubscribe function.
func (d *Dispatcher) Subscribe(eventType string, handler EventHandler) func() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.subscribers[eventType] = append(d.subscribers[eventType], handler)
	idx := len(d.subscribers[eventType]) - 1

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		handlers := d.subscribers[eventType]
		if idx >= len(handlers) || handlers[idx] == nil {
			return
		}
		handlers[idx] = nil // preserve indices of other unsubscribe closures
	}
}

// Dispatch runs the full pipeline for intent: interceptors' Before in
// order, the bound operation's Execute, then — only on success — the
// buffered events in emission order followed by interceptors' After.
//
// A nil, nil return means an interceptor cancelled the dispatch; the
// operation never ran and no events were emitted.
func (d *Dispatcher) Dispatch(intent Intent, causation []string) (any, error) {
	d.mu.RLock()
	interceptors := append([]Interceptor{}, d.interceptors...)
	op, ok := d.operations[intent.Type]
	registry := d.hookRegistry
	d.mu.RUnlock()

	cur := intent
	for _, ic := range interceptors {
		next, err := ic.Before(cur)
		if err != nil {
			return nil, err
		}
		if next == nil {
			logging.Debug("dispatch cancelled by interceptor", "intent", cur.Type, "interceptor", ic.ID())
			return nil, nil
		}
		cur = *next
	}

	if !ok {
		return nil, errkind.Programmingf("dispatcher", "no operation registered for intent %q", cur.Type)
	}

	var events []Event
	octx := &OperationContext{
		Intent:     cur,
		Hooks:      registry.Resolve(op.ID()),
		Causation:  causation,
		dispatcher: d,
		events:     &events,
	}

	result, err := op.Execute(octx)
	if err != nil {
		return nil, err
	}

	// Interceptors that need to act between a successful Execute and event
	// publication (e.g. the idempotency interceptor clearing a key with no
	// resetOn configured) implement postExecuteAware.
	for _, ic := range interceptors {
		if pe, ok := ic.(postExecuteAware); ok {
			pe.postExecute(cur, result)
		}
	}

	d.publish(events)

	for _, ic := range interceptors {
		if err := ic.After(result); err != nil {
			logging.Warn("interceptor after-hook failed", "interceptor", ic.ID(), "error", err)
		}
	}

	return result, nil
}

// publish broadcasts each buffered event, in order, to every subscriber of
// its type. Subscriber panics/errors are isolated — one failing subscriber
// never affects another or poisons the dispatch that emitted the event.
func (d *Dispatcher) publish(events []Event) {
	for _, ev := range events {
		d.mu.RLock()
		handlers := append([]EventHandler{}, d.subscribers[ev.Type]...)
		d.mu.RUnlock()

		for _, h := range handlers {
			if h == nil {
				continue
			}
			d.invokeSubscriber(ev, h)
		}
	}
}

func (d *Dispatcher) invokeSubscriber(ev Event, h EventHandler) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("event subscriber panicked", "event", ev.Type, "panic", fmt.Sprint(r))
		}
	}()
	h(ev)
}

package dispatch

import "github.com/corebench/workspacectl/pkg/logging"

// HookContribution binds a handler to one (operationID, hookPointID) pair,
// as supplied by a Module.
type HookContribution struct {
	OperationID string
	HookPointID string
	Handler     HookHandler
}

// EventSubscription binds a handler to one domain event type, as supplied
// by a Module.
type EventSubscription struct {
	EventType string
	Handler   EventHandler
}

// Module is an independent bundle of hook contributions, event
// subscriptions, and interceptors. Modules never reach into each other;
// they only ever see the Dispatcher and HookRegistry passed to
// WireModules.
type Module struct {
	Name          string
	Hooks         []HookContribution
	Events        []EventSubscription
	Interceptors  []Interceptor
	Dispose       func()
}

// WireModules installs every module's hooks, interceptors, and event
// subscriptions, in order, and returns a teardown closure. Teardown
// unsubscribes every event handler, then calls each module's Dispose in
// reverse registration order, logging (never panicking on) individual
// failures.
func WireModules(modules []Module, registry *HookRegistry, d *Dispatcher) func() {
	var unsubs []func()

	for _, m := range modules {
		for _, h := range m.Hooks {
			registry.Register(h.OperationID, h.HookPointID, h.Handler)
		}
		for _, i := range m.Interceptors {
			d.AddInterceptor(i)
		}
		for _, e := range m.Events {
			unsubs = append(unsubs, d.Subscribe(e.EventType, e.Handler))
		}
	}

	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
		for i := len(modules) - 1; i >= 0; i-- {
			m := modules[i]
			if m.Dispose == nil {
				continue
			}
			disposeSafely(m.Name, m.Dispose)
		}
	}
}

func disposeSafely(name string, dispose func()) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("module dispose panicked", "module", name, "panic", r)
		}
	}()
	dispose()
}

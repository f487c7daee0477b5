// Package api implements the API Registry and IPC Event Bridge: named
// methods mapped to intents, and a re-broadcast of dispatcher domain
// events onto the UI-bound transport.
package api

import (
	"context"
	"fmt"

	"github.com/corebench/workspacectl/pkg/logging"
	"github.com/corebench/workspacectl/pkg/ports"
)

// Handler answers one registered method call.
type Handler func(ctx context.Context, payload any) (any, error)

// Method is one named entry in the registry.
type Method struct {
	Name    string
	Handler Handler
	// IPC, if set, is the inbound channel name that invokes Handler.
	IPC string
}

// Registry exposes named methods to the UI transport, optionally wiring
// each to an inbound IPC channel. Registrations made before a Dispose call
// are torn down together.
type Registry struct {
	transport ports.UITransport
	methods   map[string]Method
	unsubs    []func()
}

func NewRegistry(transport ports.UITransport) *Registry {
	return &Registry{
		transport: transport,
		methods:   make(map[string]Method),
	}
}

// Register adds m to the registry. If m.IPC is set, inbound requests on
// that channel are routed to m.Handler. A handler error on that route is
// logged as a warning; the transport's On callback has no return value, so
// neither the result nor the error is sent back to the sender.
func (r *Registry) Register(m Method) error {
	if _, exists := r.methods[m.Name]; exists {
		return fmt.Errorf("api: method %q already registered", m.Name)
	}
	r.methods[m.Name] = m

	if m.IPC != "" && r.transport != nil {
		unsub := r.transport.On(m.IPC, func(payload any) {
			if _, err := m.Handler(context.Background(), payload); err != nil {
				logging.Warn("api method failed", "method", m.Name, "channel", m.IPC, "error", err)
			}
		})
		r.unsubs = append(r.unsubs, unsub)
	}
	return nil
}

// Call invokes a registered method directly (used by in-process callers
// that do not go through IPC, e.g. tests and the composition root's own
// wiring).
func (r *Registry) Call(ctx context.Context, name string, payload any) (any, error) {
	m, ok := r.methods[name]
	if !ok {
		return nil, fmt.Errorf("api: unknown method %q", name)
	}
	return m.Handler(ctx, payload)
}

// Dispose tears down every IPC route this registry installed.
func (r *Registry) Dispose() {
	for _, unsub := range r.unsubs {
		unsub()
	}
	r.unsubs = nil
}

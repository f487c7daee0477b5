// Package fakes provides in-memory implementations of pkg/ports interfaces
// for tests and the demo composition — concrete real-world adapters are out
// of scope; these are test doubles, not the real thing.
package fakes

import (
	"context"
	"sync"

	"github.com/corebench/workspacectl/pkg/ports"
)

// Sent is one message recorded by a Transport's Send call.
type Sent struct {
	Channel string
	Payload any
}

// Transport is an in-memory ports.UITransport: Send is recorded, On
// registers in-process handlers, and Invoke calls whichever handler is
// registered for a channel.
type Transport struct {
	mu       sync.Mutex
	handlers map[string][]func(any)
	sent     []Sent
}

func NewTransport() *Transport {
	return &Transport{handlers: make(map[string][]func(any))}
}

func (t *Transport) Invoke(ctx context.Context, channel string, payload any) (any, error) {
	t.mu.Lock()
	handlers := append([]func(any){}, t.handlers[channel]...)
	t.mu.Unlock()
	for _, h := range handlers {
		h(payload)
	}
	return nil, nil
}

func (t *Transport) On(channel string, handler func(payload any)) func() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handlers[channel] = append(t.handlers[channel], handler)
	idx := len(t.handlers[channel]) - 1
	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		handlers := t.handlers[channel]
		if idx < len(handlers) {
			handlers[idx] = nil
		}
	}
}

func (t *Transport) Send(channel string, payload any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sent = append(t.sent, Sent{Channel: channel, Payload: payload})
}

// Fire invokes every handler registered for channel with payload — used by
// tests to simulate an inbound IPC message.
func (t *Transport) Fire(channel string, payload any) {
	t.mu.Lock()
	handlers := append([]func(any){}, t.handlers[channel]...)
	t.mu.Unlock()
	for _, h := range handlers {
		if h != nil {
			h(payload)
		}
	}
}

// Sent returns every message recorded so far, in order.
func (t *Transport) Sent() []Sent {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Sent{}, t.sent...)
}

var _ ports.UITransport = (*Transport)(nil)

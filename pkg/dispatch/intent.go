// Package dispatch implements the control plane's intent/operation/hook
// dispatcher: immutable intents routed to one operation per intent type,
// elaborated through ordered hook points, and terminated by buffered
// domain event emission.
//
// A branded-intent-with-phantom-result pattern is expressed here as a
// type-erased envelope (Intent) plus a generic Dispatch helper that
// recovers the static result type at the call site — never by relying on
// structural subtyping of payload fields.
package dispatch

import "fmt"

// Intent is an immutable typed message describing a desired action. Type is
// a namespaced tag ("project:open", "workspace:delete", ...); Payload is
// opaque to the dispatcher — operations validate its shape themselves.
type Intent struct {
	Type    string
	Payload any
}

// Event is a fire-and-forget domain event broadcast to subscribers after an
// operation returns successfully.
type Event struct {
	Type    string
	Payload any
}

// Operation is the orchestrator bound to exactly one intent type. Id is
// used as the key when looking up that operation's hook contributions.
type Operation interface {
	ID() string
	Execute(octx *OperationContext) (any, error)
}

// OperationFunc adapts a plain function to Operation for simple operations
// that need no method receiver state.
type OperationFunc struct {
	Id string
	Fn func(octx *OperationContext) (any, error)
}

func (f OperationFunc) ID() string { return f.Id }

func (f OperationFunc) Execute(octx *OperationContext) (any, error) { return f.Fn(octx) }

// Dispatch is a typed convenience wrapper over Dispatcher.Dispatch for
// callers that know the expected result type R. It returns the zero value
// of R and false if the dispatch was cancelled by an interceptor.
func Dispatch[R any](d *Dispatcher, intent Intent, causation []string) (R, bool, error) {
	var zero R
	res, err := d.Dispatch(intent, causation)
	if err != nil {
		return zero, false, err
	}
	if res == nil {
		return zero, false, nil
	}
	typed, ok := res.(R)
	if !ok {
		return zero, false, fmt.Errorf("dispatch %s: result type mismatch: got %T", intent.Type, res)
	}
	return typed, true, nil
}

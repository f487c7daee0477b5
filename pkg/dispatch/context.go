package dispatch

// OperationContext is built fresh for every dispatch and is not observable
// after Dispatch returns.
type OperationContext struct {
	Intent    Intent
	Hooks     *ResolvedHooks
	Causation []string

	dispatcher *Dispatcher
	events     *[]Event
}

// Dispatch recurses into the dispatcher with a causation chain extended by
// the current intent's type. Events emitted by the nested dispatch are
// published at its own completion — before this call returns — so they
// are observable by subscribers before any event this operation emits
// afterward.
func (c *OperationContext) Dispatch(intent Intent) (any, error) {
	nestedCausation := append(append([]string{}, c.Causation...), c.Intent.Type)
	return c.dispatcher.Dispatch(intent, nestedCausation)
}

// Emit appends event to this dispatch's pending-event buffer. Buffered
// events are published only after Execute returns successfully; a thrown
// operation emits none of its own buffered events.
func (c *OperationContext) Emit(event Event) {
	*c.events = append(*c.events, event)
}

// EmitImmediate publishes event to subscribers synchronously, bypassing the
// pending-event buffer and its success gate. This exists for the handful of
// operations that must notify subscribers even on the path that is about to
// throw — setup:error is the one named case. Most operations should use
// Emit; reach for this only when failure itself must be observable.
func (c *OperationContext) EmitImmediate(event Event) {
	c.dispatcher.publish([]Event{event})
}

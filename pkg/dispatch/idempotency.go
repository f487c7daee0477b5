package dispatch

import "sync"

// IdempotencyRule governs suppression for one intent type.
type IdempotencyRule struct {
	IntentType string
	// GetKey derives the per-payload suppression key. Nil means "one
	// in-flight intent of this type at a time" (empty-string key).
	GetKey func(payload any) string
	// ResetOn, if non-empty, is the event type that clears the in-flight
	// key instead of clearing it immediately on operation completion.
	ResetOn string
	// IsForced, if it returns true for an intent, still marks the key
	// in-flight but never suppresses — used by force-mode deletion to
	// bypass concurrent-duplicate suppression.
	IsForced func(intent Intent) bool
}

// IdempotencyInterceptor suppresses concurrent duplicate intents per
// (intentType, key). It is itself the only interceptor
// that carries mutable shared state beyond composition time; that state
// (inFlight) is guarded by its own mutex so it is safe even though the
// dispatcher may invoke Before/After from multiple concurrent Dispatch
// calls.
type IdempotencyInterceptor struct {
	BaseInterceptor

	id    string
	order int
	rules map[string]IdempotencyRule

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewIdempotencyInterceptor builds an interceptor governing the given
// rules, keyed by intent type.
func NewIdempotencyInterceptor(id string, order int, rules []IdempotencyRule) *IdempotencyInterceptor {
	byType := make(map[string]IdempotencyRule, len(rules))
	for _, r := range rules {
		byType[r.IntentType] = r
	}
	return &IdempotencyInterceptor{
		id:       id,
		order:    order,
		rules:    byType,
		inFlight: make(map[string]struct{}),
	}
}

func (i *IdempotencyInterceptor) ID() string { return i.id }
func (i *IdempotencyInterceptor) Order() int { return i.order }

func (i *IdempotencyInterceptor) key(rule IdempotencyRule, payload any) string {
	if rule.GetKey == nil {
		return ""
	}
	return rule.GetKey(payload)
}

func (i *IdempotencyInterceptor) flightKey(intentType, key string) string {
	return intentType + "\x00" + key
}

// Before suppresses a duplicate dispatch by returning (nil, nil) — the
// dispatcher treats that as cancellation — unless the rule marks the
// intent forced.
func (i *IdempotencyInterceptor) Before(intent Intent) (*Intent, error) {
	rule, governed := i.rules[intent.Type]
	if !governed {
		return &intent, nil
	}

	key := i.key(rule, intent.Payload)
	flightKey := i.flightKey(intent.Type, key)
	forced := rule.IsForced != nil && rule.IsForced(intent)

	i.mu.Lock()
	_, inFlight := i.inFlight[flightKey]
	i.inFlight[flightKey] = struct{}{}
	i.mu.Unlock()

	if inFlight && !forced {
		return nil, nil
	}
	return &intent, nil
}

// postExecute clears the in-flight key immediately once Execute resolves
// successfully, when the governing rule has no ResetOn configured. This
// runs before event publication (see dispatcher.go), so it clears before
// any subscriber of the operation's own events reacts — operations that
// permit re-entry on completion clear their key before subscribers react.
func (i *IdempotencyInterceptor) postExecute(intent Intent, _ any) {
	rule, governed := i.rules[intent.Type]
	if !governed || rule.ResetOn != "" {
		return
	}
	key := i.key(rule, intent.Payload)
	i.mu.Lock()
	delete(i.inFlight, i.flightKey(intent.Type, key))
	i.mu.Unlock()
}

// HandleEvent clears the in-flight key for any rule whose ResetOn matches
// event.Type, deriving the key from the event payload via the same GetKey
// function the originating intent used. Register this as an event
// subscriber on every ResetOn type the interceptor's rules use.
func (i *IdempotencyInterceptor) HandleEvent(event Event) {
	for _, rule := range i.rules {
		if rule.ResetOn == "" || rule.ResetOn != event.Type {
			continue
		}
		key := i.key(rule, event.Payload)
		i.mu.Lock()
		delete(i.inFlight, i.flightKey(rule.IntentType, key))
		i.mu.Unlock()
	}
}

// IsInFlight reports whether (intentType, key) is currently suppressed —
// exposed for tests.
func (i *IdempotencyInterceptor) IsInFlight(intentType, key string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	_, ok := i.inFlight[i.flightKey(intentType, key)]
	return ok
}

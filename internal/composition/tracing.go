package composition

import (
	"github.com/corebench/workspacectl/pkg/dispatch"
	"github.com/corebench/workspacectl/pkg/tracing"
)

// wireTracing subscribes recorder to every domain event the bridge and
// modules might emit, returning an unsubscribe closure. Only events are
// recorded: nothing in the composition root calls RecordIntent or
// RecordHookPoint.
func wireTracing(d *dispatch.Dispatcher, recorder *tracing.Recorder) func() {
	eventTypes := []string{
		"project:opened", "project:closed",
		"workspace:created", "workspace:deleted", "workspace:switched",
		"workspace:metadata-changed", "agent:restarted", "setup:error",
		"workspace:mcp-attached",
	}
	var unsubs []func()
	for _, et := range eventTypes {
		eventType := et
		unsubs = append(unsubs, d.Subscribe(eventType, func(dispatch.Event) {
			recorder.RecordEvent(eventType)
		}))
	}
	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}

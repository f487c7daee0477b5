package api

import (
	"github.com/corebench/workspacectl/pkg/dispatch"
	"github.com/corebench/workspacectl/pkg/ports"
)

// Reserved IPC channels — bridge-owned, their names are contract.
const (
	ChanShowStarting       = "api:lifecycle:show-starting"
	ChanShowSetup          = "api:lifecycle:show-setup"
	ChanShowAgentSelection = "api:lifecycle:show-agent-selection"
	ChanShowMainView       = "api:lifecycle:show-main-view"
	ChanSetupProgress      = "api:lifecycle:setup-progress"
	ChanSetupError         = "api:lifecycle:setup-error"
	ChanRetry              = "api:lifecycle:retry"

	ChanWorkspaceCreated         = "api:workspace:created"
	ChanWorkspaceRemoved         = "api:workspace:removed"
	ChanWorkspaceMetadataChanged = "api:workspace:metadata-changed"
	ChanWorkspaceSwitched        = "api:workspace:switched"
	ChanAgentRestarted           = "api:agent:restarted"
	ChanProjectOpened            = "api:project:opened"
	ChanProjectClosed            = "api:project:closed"
)

// domainToChannel maps each high-level domain event, broadcast verbatim,
// onto its UI channel.
var domainToChannel = map[string]string{
	"project:opened":             ChanProjectOpened,
	"project:closed":             ChanProjectClosed,
	"workspace:created":          ChanWorkspaceCreated,
	"workspace:deleted":          ChanWorkspaceRemoved,
	"workspace:metadata-changed": ChanWorkspaceMetadataChanged,
	"agent:restarted":            ChanAgentRestarted,
	"workspace:switched":         ChanWorkspaceSwitched,
}

// EventBridge subscribes to the dispatcher's domain events and translates
// them into UI-bound messages. It is never the source of truth for an
// event — it only relays what the dispatcher already decided to emit.
type EventBridge struct {
	transport ports.UITransport
	unsubs    []func()
}

func NewEventBridge(transport ports.UITransport) *EventBridge {
	return &EventBridge{transport: transport}
}

// Wire subscribes the bridge to d and returns a teardown function.
func (b *EventBridge) Wire(d *dispatch.Dispatcher) func() {
	for eventType, channel := range domainToChannel {
		ch := channel
		unsub := d.Subscribe(eventType, func(ev dispatch.Event) {
			b.transport.Send(ch, ev.Payload)
		})
		b.unsubs = append(b.unsubs, unsub)
	}

	b.unsubs = append(b.unsubs, d.Subscribe("setup:error", func(ev dispatch.Event) {
		b.transport.Send(ChanSetupError, ev.Payload)
	}))

	return b.dispose
}

func (b *EventBridge) dispose() {
	for _, unsub := range b.unsubs {
		unsub()
	}
	b.unsubs = nil
}

// ShowStarting, ShowSetup, ShowAgentSelection, ShowMainView,
// SetupProgress, and Retry send directly on their reserved channel rather
// than being derived from a domain event subscription — the bridge exposes
// thin wrappers so callers never hardcode the channel name. No operation in
// this repository calls them.
func (b *EventBridge) ShowStarting()       { b.transport.Send(ChanShowStarting, nil) }
func (b *EventBridge) ShowSetup()          { b.transport.Send(ChanShowSetup, nil) }
func (b *EventBridge) ShowAgentSelection() { b.transport.Send(ChanShowAgentSelection, nil) }
func (b *EventBridge) ShowMainView()       { b.transport.Send(ChanShowMainView, nil) }
func (b *EventBridge) SetupProgress(payload any) {
	b.transport.Send(ChanSetupProgress, payload)
}
func (b *EventBridge) Retry(payload any) { b.transport.Send(ChanRetry, payload) }

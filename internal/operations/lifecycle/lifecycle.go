// Package lifecycle implements the app:start and app:shutdown operations:
// the outer orchestrator that decides whether app:setup is needed,
// re-dispatches it across a retry cycle on failure, and tears resources
// down on shutdown.
package lifecycle

import (
	"context"

	"github.com/corebench/workspacectl/internal/operations/setup"
	"github.com/corebench/workspacectl/pkg/dispatch"
	"github.com/corebench/workspacectl/pkg/retry"
)

const (
	IntentStart    = "app:start"
	IntentShutdown = "app:shutdown"
)

const (
	HookCheck    = "check"
	HookShutdown = "shutdown"
)

// RetrySlotKey is the fixed retry-slot key app:start waits on; there is
// only ever one in-flight startup sequence per process, unlike deletion's
// per-workspace slots. Exported so the composition root's inbound retry
// routing can target this slot without guessing the key.
const RetrySlotKey = "app:start"

// StartPayload is the app:start intent payload.
type StartPayload struct {
	Ctx context.Context
}

// StartOperation implements app:start.
type StartOperation struct {
	Slots *retry.Slots
}

func NewStartOperation(slots *retry.Slots) *StartOperation {
	return &StartOperation{Slots: slots}
}

func (op *StartOperation) ID() string { return IntentStart }

func (op *StartOperation) Execute(octx *dispatch.OperationContext) (any, error) {
	payload, _ := octx.Intent.Payload.(StartPayload)
	ctx := payload.Ctx
	if ctx == nil {
		ctx = context.Background()
	}

	checkOut := octx.Hooks.Collect(HookCheck, map[string]any{})
	var needs setup.Payload
	for _, r := range checkOut.Results {
		if p, ok := r.(setup.Payload); ok {
			needs = p
			break
		}
	}

	needsSetup := needs.NeedsAgentSelection || needs.NeedsBinaryDownload || needs.NeedsExtensions
	if !needsSetup {
		return nil, nil
	}

	for {
		_, err := octx.Dispatch(dispatch.Intent{Type: setup.IntentType, Payload: needs})
		if err == nil {
			return nil, nil
		}

		choice, waitErr := op.Slots.WaitForRetryChoice(ctx, RetrySlotKey)
		if waitErr != nil {
			return nil, waitErr
		}
		if choice == retry.Dismiss {
			return nil, err
		}
		// retry.Retry: loop back and re-dispatch app:setup.
	}
}

// ShutdownOperation implements app:shutdown.
type ShutdownOperation struct{}

func NewShutdownOperation() *ShutdownOperation { return &ShutdownOperation{} }

func (op *ShutdownOperation) ID() string { return IntentShutdown }

func (op *ShutdownOperation) Execute(octx *dispatch.OperationContext) (any, error) {
	octx.Hooks.Collect(HookShutdown, map[string]any{})
	return nil, nil
}

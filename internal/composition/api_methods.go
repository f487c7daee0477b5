package composition

import (
	"context"
	"fmt"

	"github.com/corebench/workspacectl/internal/operations/agentctl"
	"github.com/corebench/workspacectl/internal/operations/deletion"
	"github.com/corebench/workspacectl/internal/operations/lifecycle"
	"github.com/corebench/workspacectl/internal/operations/project"
	"github.com/corebench/workspacectl/internal/operations/workspace"
	"github.com/corebench/workspacectl/pkg/api"
	"github.com/corebench/workspacectl/pkg/dispatch"
	"github.com/corebench/workspacectl/pkg/errkind"
	"github.com/corebench/workspacectl/pkg/retry"
)

// RetryPayload is the api:lifecycle:retry inbound payload. Scope selects
// which retry slot the signal targets: "setup" resumes a failed app:setup
// retry cycle (internal/operations/lifecycle's app:start); "delete" resumes
// an AWAITING_USER workspace deletion keyed by WorkspacePath. Dismiss
// signals permanent cancellation instead of a retry attempt.
type RetryPayload struct {
	Scope         string
	WorkspacePath string
	Dismiss       bool
}

// wireAPIMethods registers one api.Method per named intent, each a thin
// payload-cast wrapper around d.Dispatch, plus the lifecycle.retry method
// that routes the reserved api:lifecycle:retry inbound channel onto the
// deletion and startup retry slots.
func wireAPIMethods(r *api.Registry, d *dispatch.Dispatcher, deletionSlots, startSlots *retry.Slots) {
	register := func(name, intentType string, cast func(any) (any, error)) {
		_ = r.Register(api.Method{
			Name: name,
			Handler: func(ctx context.Context, payload any) (any, error) {
				typed, err := cast(payload)
				if err != nil {
					return nil, err
				}
				return d.Dispatch(dispatch.Intent{Type: intentType, Payload: typed}, nil)
			},
		})
	}

	register("project.open", project.IntentOpen, castTo[project.OpenPayload])
	register("project.close", project.IntentClose, castTo[project.ClosePayload])
	register("workspace.create", workspace.IntentCreate, castTo[workspace.CreatePayload])
	register("workspace.open", workspace.IntentOpen, castTo[workspace.CreatePayload])
	register("workspace.delete", deletion.IntentType, castTo[deletion.Payload])
	register("workspace.switch", workspace.IntentSwitch, castTo[workspace.SwitchPayload])
	register("workspace.getMetadata", workspace.IntentGetMetadata, castTo[workspace.GetMetadataPayload])
	register("workspace.setMetadata", workspace.IntentSetMetadata, castTo[workspace.SetMetadataPayload])
	register("workspace.getStatus", workspace.IntentGetStatus, castTo[workspace.GetStatusPayload])
	register("workspace.list", workspace.IntentList, castTo[workspace.ListPayload])
	register("agent.restart", agentctl.IntentRestart, castTo[agentctl.RestartPayload])
	register("agent.getSession", agentctl.IntentGetSession, castTo[agentctl.GetSessionPayload])

	_ = r.Register(api.Method{
		Name: "lifecycle.retry",
		IPC:  api.ChanRetry,
		Handler: func(ctx context.Context, payload any) (any, error) {
			p, ok := payload.(RetryPayload)
			if !ok {
				return nil, fmt.Errorf("api: lifecycle.retry payload has unexpected type %T", payload)
			}

			var slots *retry.Slots
			var key string
			switch p.Scope {
			case "setup":
				slots = startSlots
				key = lifecycle.RetrySlotKey
			case "delete":
				slots = deletionSlots
				key = p.WorkspacePath
			default:
				return nil, fmt.Errorf("api: lifecycle.retry unknown scope %q", p.Scope)
			}

			if p.Dismiss {
				slots.SignalDismiss(key)
			} else {
				slots.SignalRetry(key)
			}
			return nil, nil
		},
	})
}

// castTo type-asserts payload to T, producing a Programmingf-style error on
// mismatch rather than panicking — an IPC caller sending the wrong shape is
// a caller bug, not a dispatcher-internal one.
func castTo[T any](payload any) (any, error) {
	typed, ok := payload.(T)
	if !ok {
		var zero T
		return nil, errkind.Programmingf("api", "payload has unexpected type %T, want %T", payload, zero)
	}
	return typed, nil
}

// Package agentctl implements the agent:restart and agent:get-session
// operations, fronting the agent server manager collaborator through the
// hook protocol.
package agentctl

import (
	"github.com/corebench/workspacectl/pkg/dispatch"
	"github.com/corebench/workspacectl/pkg/errkind"
)

const (
	IntentRestart    = "agent:restart"
	IntentGetSession = "agent:get-session"
)

const (
	HookRestart    = "restart"
	HookGetSession = "get-session"
)

// RestartPayload is the agent:restart intent payload.
type RestartPayload struct {
	WorkspacePath string
}

// RestartedEventPayload is the agent:restarted event payload.
type RestartedEventPayload struct {
	WorkspacePath string
	Port          int
}

// RestartOperation implements agent:restart.
type RestartOperation struct{}

func NewRestartOperation() *RestartOperation { return &RestartOperation{} }

func (op *RestartOperation) ID() string { return IntentRestart }

func (op *RestartOperation) Execute(octx *dispatch.OperationContext) (any, error) {
	payload, ok := octx.Intent.Payload.(RestartPayload)
	if !ok || payload.WorkspacePath == "" {
		return nil, errkind.Validationf(IntentRestart, "workspacePath is required")
	}

	out := octx.Hooks.Collect(HookRestart, map[string]any{"workspacePath": payload.WorkspacePath})
	if len(out.Errors) > 0 {
		return nil, errkind.Collaboratorf(IntentRestart, "restart server failed: %v", out.Errors[0])
	}

	var port int
	for _, r := range out.Results {
		if p, ok := r.(int); ok {
			port = p
			break
		}
	}
	if port == 0 {
		return nil, errkind.Collaboratorf(IntentRestart, "no contributor returned a server port")
	}

	octx.Emit(dispatch.Event{Type: "agent:restarted", Payload: RestartedEventPayload{
		WorkspacePath: payload.WorkspacePath, Port: port,
	}})
	return port, nil
}

// GetSessionPayload is the agent:get-session intent payload.
type GetSessionPayload struct {
	ProjectID     string
	WorkspaceName string
}

// Session is the typed result of agent:get-session, or nil when no server
// is running for the workspace.
type Session struct {
	Port      int
	SessionID string
}

// GetSessionOperation implements agent:get-session.
type GetSessionOperation struct{}

func NewGetSessionOperation() *GetSessionOperation { return &GetSessionOperation{} }

func (op *GetSessionOperation) ID() string { return IntentGetSession }

func (op *GetSessionOperation) Execute(octx *dispatch.OperationContext) (any, error) {
	payload, ok := octx.Intent.Payload.(GetSessionPayload)
	if !ok || payload.ProjectID == "" || payload.WorkspaceName == "" {
		return nil, errkind.Validationf(IntentGetSession, "projectId and workspaceName are required")
	}

	out := octx.Hooks.Collect(HookGetSession, map[string]any{
		"projectId": payload.ProjectID, "workspaceName": payload.WorkspaceName,
	})
	for _, r := range out.Results {
		if s, ok := r.(Session); ok {
			return s, nil
		}
	}
	return nil, nil
}

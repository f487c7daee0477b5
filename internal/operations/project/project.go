// Package project implements the project:open and project:close
// operations — registering and unregistering a repository with the
// worktree provider and broadcasting project:opened / project:closed.
package project

import (
	"github.com/corebench/workspacectl/pkg/dispatch"
	"github.com/corebench/workspacectl/pkg/errkind"
	"github.com/corebench/workspacectl/pkg/ids"
)

const (
	IntentOpen  = "project:open"
	IntentClose = "project:close"
)

const (
	HookRegister   = "register"
	HookValidate   = "validate"
	HookUnregister = "unregister"
)

// OpenPayload is the project:open intent payload. Exactly one of Path or
// Git is expected to be populated; Path wins if both are set.
type OpenPayload struct {
	Path string
	Git  string
}

// Project is the typed result of project:open.
type Project struct {
	ProjectID string
	Path      string
}

// OpenedEventPayload is the project:opened event payload.
type OpenedEventPayload struct {
	ProjectID string
	Path      string
}

// OpenOperation implements project:open.
type OpenOperation struct{}

func NewOpenOperation() *OpenOperation { return &OpenOperation{} }

func (op *OpenOperation) ID() string { return IntentOpen }

func (op *OpenOperation) Execute(octx *dispatch.OperationContext) (any, error) {
	payload, ok := octx.Intent.Payload.(OpenPayload)
	if !ok {
		return nil, errkind.Programmingf(IntentOpen, "payload has unexpected type %T", octx.Intent.Payload)
	}
	path := payload.Path
	if path == "" {
		path = payload.Git
	}
	if path == "" {
		return nil, errkind.Validationf(IntentOpen, "path or git is required")
	}

	validateOut := octx.Hooks.Collect(HookValidate, map[string]any{"path": path})
	if len(validateOut.Errors) > 0 {
		return nil, errkind.Collaboratorf(IntentOpen, "repository validation failed: %v", validateOut.Errors[0])
	}

	projectID := ids.ProjectId(path)
	registerOut := octx.Hooks.Collect(HookRegister, map[string]any{"projectId": projectID, "path": path})
	if len(registerOut.Errors) > 0 {
		return nil, errkind.Collaboratorf(IntentOpen, "register project failed: %v", registerOut.Errors[0])
	}

	octx.Emit(dispatch.Event{Type: "project:opened", Payload: OpenedEventPayload{ProjectID: projectID, Path: path}})
	return Project{ProjectID: projectID, Path: path}, nil
}

// ClosePayload is the project:close intent payload.
type ClosePayload struct {
	ProjectID       string
	RemoveLocalRepo bool
}

// ClosedEventPayload is the project:closed event payload.
type ClosedEventPayload struct {
	ProjectID string
}

// CloseOperation implements project:close. It also emits workspace:switched
// with a null path — the second of two call sites that emit this trailing
// event (the other being the deletion pipeline); both are kept.
type CloseOperation struct{}

func NewCloseOperation() *CloseOperation { return &CloseOperation{} }

func (op *CloseOperation) ID() string { return IntentClose }

func (op *CloseOperation) Execute(octx *dispatch.OperationContext) (any, error) {
	payload, ok := octx.Intent.Payload.(ClosePayload)
	if !ok {
		return nil, errkind.Programmingf(IntentClose, "payload has unexpected type %T", octx.Intent.Payload)
	}
	if payload.ProjectID == "" {
		return nil, errkind.Validationf(IntentClose, "projectId is required")
	}

	out := octx.Hooks.Collect(HookUnregister, map[string]any{
		"projectId": payload.ProjectID, "removeLocalRepo": payload.RemoveLocalRepo,
	})
	if len(out.Errors) > 0 {
		return nil, errkind.Collaboratorf(IntentClose, "unregister project failed: %v", out.Errors[0])
	}

	octx.Emit(dispatch.Event{Type: "workspace:switched", Payload: nil})
	octx.Emit(dispatch.Event{Type: "project:closed", Payload: ClosedEventPayload{ProjectID: payload.ProjectID}})
	return nil, nil
}

// Package workspace implements the workspace:create, workspace:open,
// workspace:switch, workspace:get-metadata, workspace:set-metadata,
// workspace:get-status, and workspace:list operations — representative
// orchestrators over the hook protocol.
package workspace

import (
	"github.com/corebench/workspacectl/pkg/dispatch"
	"github.com/corebench/workspacectl/pkg/errkind"
)

const (
	IntentCreate      = "workspace:create"
	IntentOpen        = "workspace:open"
	IntentSwitch      = "workspace:switch"
	IntentGetMetadata = "workspace:get-metadata"
	IntentSetMetadata = "workspace:set-metadata"
	IntentGetStatus   = "workspace:get-status"
	IntentList        = "workspace:list"
)

const (
	HookEnsure      = "ensure"
	HookSwitch      = "switch"
	HookGetMetadata = "get-metadata"
	HookSetMetadata = "set-metadata"
	HookGetStatus   = "get-status"
	HookList        = "list"
)

// CreatePayload is the workspace:create / workspace:open intent payload.
type CreatePayload struct {
	ProjectID     string
	WorkspaceName string
}

// Workspace is the typed result of workspace:create / workspace:open.
type Workspace struct {
	ProjectID     string
	WorkspaceName string
	WorkspacePath string
}

// CreatedEventPayload is the workspace:created event payload.
type CreatedEventPayload struct {
	ProjectID     string
	WorkspaceName string
	WorkspacePath string
}

// CreateOperation handles both workspace:create and workspace:open — both
// resolve to "ensure the worktree exists, return its path", differing only
// in whether a workspace:created event is meaningful (open is silent).
type CreateOperation struct {
	id          string
	emitCreated bool
}

func NewCreateOperation() *CreateOperation {
	return &CreateOperation{id: IntentCreate, emitCreated: true}
}

func NewOpenOperation() *CreateOperation {
	return &CreateOperation{id: IntentOpen, emitCreated: false}
}

func (op *CreateOperation) ID() string { return op.id }

func (op *CreateOperation) Execute(octx *dispatch.OperationContext) (any, error) {
	payload, ok := octx.Intent.Payload.(CreatePayload)
	if !ok {
		return nil, errkind.Programmingf(op.id, "payload has unexpected type %T", octx.Intent.Payload)
	}
	if payload.ProjectID == "" || payload.WorkspaceName == "" {
		return nil, errkind.Validationf(op.id, "projectId and workspaceName are required")
	}

	out := octx.Hooks.Collect(HookEnsure, map[string]any{
		"projectId": payload.ProjectID, "workspaceName": payload.WorkspaceName,
	})
	var workspacePath string
	for _, r := range out.Results {
		if s, ok := r.(string); ok && s != "" {
			workspacePath = s
			break
		}
	}
	if workspacePath == "" {
		if len(out.Errors) > 0 {
			return nil, errkind.Collaboratorf(op.id, "ensure workspace failed: %v", out.Errors[0])
		}
		return nil, errkind.Validationf(op.id, "no contributor resolved a workspace path")
	}

	if op.emitCreated {
		octx.Emit(dispatch.Event{Type: "workspace:created", Payload: CreatedEventPayload{
			ProjectID: payload.ProjectID, WorkspaceName: payload.WorkspaceName, WorkspacePath: workspacePath,
		}})
	}

	return Workspace{ProjectID: payload.ProjectID, WorkspaceName: payload.WorkspaceName, WorkspacePath: workspacePath}, nil
}

// SwitchPayload is the workspace:switch intent payload. Exactly one of
// (ProjectID, WorkspaceName) or (Auto, CurrentPath) is populated, matching
// the two distinct call shapes this intent is dispatched with.
type SwitchPayload struct {
	ProjectID     string
	WorkspaceName string

	Auto        bool
	CurrentPath string

	Focus bool
}

// SwitchedEventPayload is the workspace:switched event payload. It is
// emitted with a null payload from more than one call site; callers
// distinguish by absence of fields.
type SwitchedEventPayload struct {
	WorkspacePath string
}

// SwitchOperation implements workspace:switch.
type SwitchOperation struct{}

func NewSwitchOperation() *SwitchOperation { return &SwitchOperation{} }

func (op *SwitchOperation) ID() string { return IntentSwitch }

func (op *SwitchOperation) Execute(octx *dispatch.OperationContext) (any, error) {
	payload, ok := octx.Intent.Payload.(SwitchPayload)
	if !ok {
		return nil, errkind.Programmingf(IntentSwitch, "payload has unexpected type %T", octx.Intent.Payload)
	}

	out := octx.Hooks.Collect(HookSwitch, map[string]any{
		"projectId": payload.ProjectID, "workspaceName": payload.WorkspaceName,
		"auto": payload.Auto, "currentPath": payload.CurrentPath, "focus": payload.Focus,
	})
	if len(out.Errors) > 0 && !payload.Auto {
		return nil, errkind.Collaboratorf(IntentSwitch, "switch failed: %v", out.Errors[0])
	}

	octx.Emit(dispatch.Event{Type: "workspace:switched", Payload: SwitchedEventPayload{WorkspacePath: payload.CurrentPath}})
	return nil, nil
}

// MetadataChangedEventPayload is the workspace:metadata-changed event
// payload.
type MetadataChangedEventPayload struct {
	WorkspacePath string
	Key           string
}

// GetMetadataPayload is the workspace:get-metadata intent payload.
type GetMetadataPayload struct {
	WorkspacePath string
}

// GetMetadataOperation implements workspace:get-metadata.
type GetMetadataOperation struct{}

func NewGetMetadataOperation() *GetMetadataOperation { return &GetMetadataOperation{} }

func (op *GetMetadataOperation) ID() string { return IntentGetMetadata }

func (op *GetMetadataOperation) Execute(octx *dispatch.OperationContext) (any, error) {
	payload, ok := octx.Intent.Payload.(GetMetadataPayload)
	if !ok || payload.WorkspacePath == "" {
		return nil, errkind.Validationf(IntentGetMetadata, "workspacePath is required")
	}
	workspacePath := payload.WorkspacePath
	out := octx.Hooks.Collect(HookGetMetadata, map[string]any{"workspacePath": workspacePath})
	merged := make(map[string]string)
	for _, r := range out.Results {
		if m, ok := r.(map[string]string); ok {
			for k, v := range m {
				merged[k] = v
			}
		}
	}
	return merged, nil
}

// SetMetadataPayload is the workspace:set-metadata intent payload. A nil
// Value clears the key.
type SetMetadataPayload struct {
	WorkspacePath string
	Key           string
	Value         *string
}

// SetMetadataOperation implements workspace:set-metadata.
type SetMetadataOperation struct{}

func NewSetMetadataOperation() *SetMetadataOperation { return &SetMetadataOperation{} }

func (op *SetMetadataOperation) ID() string { return IntentSetMetadata }

func (op *SetMetadataOperation) Execute(octx *dispatch.OperationContext) (any, error) {
	payload, ok := octx.Intent.Payload.(SetMetadataPayload)
	if !ok {
		return nil, errkind.Programmingf(IntentSetMetadata, "payload has unexpected type %T", octx.Intent.Payload)
	}
	if payload.WorkspacePath == "" || payload.Key == "" {
		return nil, errkind.Validationf(IntentSetMetadata, "workspacePath and key are required")
	}

	out := octx.Hooks.Collect(HookSetMetadata, map[string]any{
		"workspacePath": payload.WorkspacePath, "key": payload.Key, "value": payload.Value,
	})
	if len(out.Errors) > 0 {
		return nil, errkind.Collaboratorf(IntentSetMetadata, "set metadata failed: %v", out.Errors[0])
	}

	octx.Emit(dispatch.Event{Type: "workspace:metadata-changed", Payload: MetadataChangedEventPayload{
		WorkspacePath: payload.WorkspacePath, Key: payload.Key,
	}})
	return nil, nil
}

// Info describes one workspace known to the worktree provider.
type Info struct {
	Path   string
	Branch string
}

// ListPayload is the workspace:list intent payload.
type ListPayload struct {
	ProjectID string
}

// ListOperation implements workspace:list.
type ListOperation struct{}

func NewListOperation() *ListOperation { return &ListOperation{} }

func (op *ListOperation) ID() string { return IntentList }

func (op *ListOperation) Execute(octx *dispatch.OperationContext) (any, error) {
	payload, ok := octx.Intent.Payload.(ListPayload)
	if !ok || payload.ProjectID == "" {
		return nil, errkind.Validationf(IntentList, "projectId is required")
	}
	out := octx.Hooks.Collect(HookList, map[string]any{"projectId": payload.ProjectID})
	if len(out.Errors) > 0 {
		return nil, errkind.Collaboratorf(IntentList, "list workspaces failed: %v", out.Errors[0])
	}
	for _, r := range out.Results {
		if infos, ok := r.([]Info); ok {
			return infos, nil
		}
	}
	return []Info{}, nil
}

// Status is the typed result of workspace:get-status.
type Status struct {
	IsDirty bool
	Agent   string
}

// GetStatusPayload is the workspace:get-status intent payload.
type GetStatusPayload struct {
	WorkspacePath string
}

// GetStatusOperation implements workspace:get-status.
type GetStatusOperation struct{}

func NewGetStatusOperation() *GetStatusOperation { return &GetStatusOperation{} }

func (op *GetStatusOperation) ID() string { return IntentGetStatus }

func (op *GetStatusOperation) Execute(octx *dispatch.OperationContext) (any, error) {
	payload, ok := octx.Intent.Payload.(GetStatusPayload)
	if !ok || payload.WorkspacePath == "" {
		return nil, errkind.Validationf(IntentGetStatus, "workspacePath is required")
	}
	workspacePath := payload.WorkspacePath
	out := octx.Hooks.Collect(HookGetStatus, map[string]any{"workspacePath": workspacePath})

	// More than one contributor may answer HookGetStatus (a dirty check and
	// an agent-running check are independent concerns) — merge rather than
	// take the first, or the second contributor's fields are silently lost.
	var status Status
	for _, r := range out.Results {
		s, ok := r.(Status)
		if !ok {
			continue
		}
		if s.IsDirty {
			status.IsDirty = true
		}
		if s.Agent != "" {
			status.Agent = s.Agent
		}
	}
	return status, nil
}

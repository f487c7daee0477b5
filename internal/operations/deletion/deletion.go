// Package deletion implements the workspace deletion pipeline: teardown of
// runtime resources, OS process unblocking, worktree removal, and a
// user-gated retry loop when the filesystem reports the target locked.
package deletion

import (
	"context"
	"fmt"

	"github.com/corebench/workspacectl/internal/operations/workspace"
	"github.com/corebench/workspacectl/pkg/dispatch"
	"github.com/corebench/workspacectl/pkg/errkind"
	"github.com/corebench/workspacectl/pkg/logging"
	"github.com/corebench/workspacectl/pkg/retry"
)

const IntentType = "workspace:delete"

const (
	HookResolveProject  = "resolve-project"
	HookResolveWorkspace = "resolve-workspace"
	HookShutdown        = "shutdown"
	HookRelease         = "release"
	HookDelete          = "delete"
	HookDetect          = "detect"
	HookFlush           = "flush"
)

// Payload is the workspace:delete intent payload.
type Payload struct {
	ProjectID      string
	WorkspaceName  string
	KeepBranch     bool
	Force          bool
	RemoveWorktree bool
	SkipSwitch     bool
	WorkspacePath  string
	ProjectPath    string

	// OnProgress, if set, observes DeletionProgress snapshots as the
	// pipeline advances. Optional.
	OnProgress ProgressCallback

	// Ctx bounds the user-gated retry wait. Defaults to
	// context.Background() when zero.
	Ctx context.Context
}

// Result is the workspace:delete operation's typed result — fire-and-forget
// from the UI's perspective; real progress streams via OnProgress.
type Result struct {
	Started bool
}

// ShutdownResult is the shape a shutdown hook contributor returns.
type ShutdownResult struct {
	WasActive bool
	Error     string
}

// DeletedEventPayload is the workspace:deleted event payload.
type DeletedEventPayload struct {
	ProjectID     string
	WorkspaceName string
	WorkspacePath string
	ProjectPath   string
}

// Operation implements dispatch.Operation for workspace:delete.
type Operation struct {
	States *StateTracker
	Slots  *retry.Slots
}

func NewOperation(states *StateTracker, slots *retry.Slots) *Operation {
	return &Operation{States: states, Slots: slots}
}

func (op *Operation) ID() string { return IntentType }

func (op *Operation) Execute(octx *dispatch.OperationContext) (any, error) {
	payload, ok := octx.Intent.Payload.(Payload)
	if !ok {
		return nil, errkind.Programmingf(IntentType, "payload has unexpected type %T", octx.Intent.Payload)
	}
	ctx := payload.Ctx
	if ctx == nil {
		ctx = context.Background()
	}

	// 1. Resolve.
	projectPath, err := op.resolveProjectPath(octx, payload)
	if err != nil {
		return nil, err
	}
	workspacePath, err := op.resolveWorkspacePath(octx, payload, projectPath)
	if err != nil {
		return nil, err
	}

	progress := newProgress(workspacePath)
	op.States.transition(workspacePath, StateShuttingDown)

	// 2. Shutdown.
	emit(payload.OnProgress, progress)
	wasActive, shutdownHasErrors := op.runShutdown(octx, workspacePath, projectPath, &progress)
	emit(payload.OnProgress, progress)

	if wasActive && !payload.SkipSwitch {
		_, _ = octx.Dispatch(dispatch.Intent{
			Type: workspace.IntentSwitch,
			Payload: workspace.SwitchPayload{
				Auto:        true,
				CurrentPath: workspacePath,
				Focus:       true,
			},
		})
	}

	if shutdownHasErrors && !payload.Force {
		progress.HasErrors = true
		emit(payload.OnProgress, progress)
		op.States.clear(workspacePath)
		return Result{Started: true}, nil
	}

	// 3. Short-circuit on runtime-only teardown.
	if !payload.RemoveWorktree {
		op.States.transition(workspacePath, StateSkipWorktree)
		progress.set(RowCleanupWorkspace, StageDone)
		emit(payload.OnProgress, progress)
		op.States.transition(workspacePath, StateDoneOK)
		op.States.clear(workspacePath)
		octx.Emit(dispatch.Event{Type: "workspace:deleted", Payload: DeletedEventPayload{
			ProjectID: payload.ProjectID, WorkspaceName: payload.WorkspaceName,
			WorkspacePath: workspacePath, ProjectPath: projectPath,
		}})
		return Result{Started: true}, nil
	}

	deletedEmitted := false

	defer func() {
		if payload.Force && !deletedEmitted {
			octx.Emit(dispatch.Event{Type: "workspace:deleted", Payload: DeletedEventPayload{
				ProjectID: payload.ProjectID, WorkspaceName: payload.WorkspaceName,
				WorkspacePath: workspacePath, ProjectPath: projectPath,
			}})
		}
		op.States.clear(workspacePath)
	}()

	// 4. Release.
	op.States.transition(workspacePath, StateReleasing)
	progress.set(RowKillTerminals, StageInProgress)
	emit(payload.OnProgress, progress)
	releaseOut := octx.Hooks.Collect(HookRelease, map[string]any{"workspacePath": workspacePath})
	logCollectErrors("release", releaseOut)
	progress.set(RowKillTerminals, StageDone)
	emit(payload.OnProgress, progress)

	// 5. Delete.
	op.States.transition(workspacePath, StateDeleting)
	progress.set(RowCleanupWorkspace, StageInProgress)
	emit(payload.OnProgress, progress)
	deleteOut := octx.Hooks.Collect(HookDelete, map[string]any{
		"workspacePath": workspacePath, "projectPath": projectPath, "keepBranch": payload.KeepBranch,
	})
	logCollectErrors("delete", deleteOut)

	if len(deleteOut.Errors) == 0 {
		progress.set(RowCleanupWorkspace, StageDone)
		emit(payload.OnProgress, progress)
		op.States.transition(workspacePath, StateDoneOK)
		if !payload.Force {
			octx.Emit(dispatch.Event{Type: "workspace:deleted", Payload: DeletedEventPayload{
				ProjectID: payload.ProjectID, WorkspaceName: payload.WorkspaceName,
				WorkspacePath: workspacePath, ProjectPath: projectPath,
			}})
			deletedEmitted = true
		}
		return Result{Started: true}, nil
	}

	// 6. Retry loop — only when force is false.
	if payload.Force {
		progress.HasErrors = true
		emit(payload.OnProgress, progress)
		return Result{Started: true}, nil
	}

	for {
		op.States.transition(workspacePath, StateDeleting)
		progress.set(RowDetectingBlockers, StageInProgress)
		emit(payload.OnProgress, progress)
		detectOut := octx.Hooks.Collect(HookDetect, map[string]any{"workspacePath": workspacePath})
		blockers := mergePIDs(detectOut.Results)
		progress.BlockingProcesses = blockers
		progress.set(RowDetectingBlockers, StageDone)
		emit(payload.OnProgress, progress)

		op.States.transition(workspacePath, StateAwaitingUser)
		choice, waitErr := op.Slots.WaitForRetryChoice(ctx, workspacePath)
		if waitErr != nil || choice == retry.Dismiss {
			op.States.transition(workspacePath, StateDoneErr)
			progress.HasErrors = true
			emit(payload.OnProgress, progress)
			return Result{Started: true}, nil
		}

		op.States.transition(workspacePath, StateFlushing)
		progress.set(RowKillingBlockers, StageInProgress)
		emit(payload.OnProgress, progress)
		flushOut := octx.Hooks.Collect(HookFlush, map[string]any{"workspacePath": workspacePath, "pids": blockers})
		logCollectErrors("flush", flushOut)
		progress.set(RowKillingBlockers, StageDone)
		emit(payload.OnProgress, progress)

		op.States.transition(workspacePath, StateDeleting)
		progress.set(RowCleanupWorkspace, StageInProgress)
		emit(payload.OnProgress, progress)
		retryDeleteOut := octx.Hooks.Collect(HookDelete, map[string]any{
			"workspacePath": workspacePath, "projectPath": projectPath, "keepBranch": payload.KeepBranch,
		})
		logCollectErrors("delete", retryDeleteOut)

		if len(retryDeleteOut.Errors) == 0 {
			progress.set(RowCleanupWorkspace, StageDone)
			progress.HasErrors = false
			emit(payload.OnProgress, progress)
			op.States.transition(workspacePath, StateDoneOK)
			octx.Emit(dispatch.Event{Type: "workspace:deleted", Payload: DeletedEventPayload{
				ProjectID: payload.ProjectID, WorkspaceName: payload.WorkspaceName,
				WorkspacePath: workspacePath, ProjectPath: projectPath,
			}})
			deletedEmitted = true
			return Result{Started: true}, nil
		}
		progress.set(RowCleanupWorkspace, StageError)
		emit(payload.OnProgress, progress)
		// loop back to detect
	}
}

func (op *Operation) resolveProjectPath(octx *dispatch.OperationContext, payload Payload) (string, error) {
	out := octx.Hooks.Collect(HookResolveProject, map[string]any{"projectId": payload.ProjectID})
	for _, r := range out.Results {
		if s, ok := r.(string); ok && s != "" {
			return s, nil
		}
	}
	if payload.ProjectPath != "" {
		return payload.ProjectPath, nil
	}
	return "", errkind.Validationf(IntentType, "unable to resolve project path for project %q", payload.ProjectID)
}

func (op *Operation) resolveWorkspacePath(octx *dispatch.OperationContext, payload Payload, projectPath string) (string, error) {
	out := octx.Hooks.Collect(HookResolveWorkspace, map[string]any{
		"projectId": payload.ProjectID, "workspaceName": payload.WorkspaceName, "projectPath": projectPath,
	})
	for _, r := range out.Results {
		if s, ok := r.(string); ok && s != "" {
			return s, nil
		}
	}
	if payload.WorkspacePath != "" {
		return payload.WorkspacePath, nil
	}
	return "", errkind.Validationf(IntentType, "unable to resolve workspace path for workspace %q", payload.WorkspaceName)
}

func (op *Operation) runShutdown(octx *dispatch.OperationContext, workspacePath, projectPath string, progress *DeletionProgress) (wasActive bool, hasErrors bool) {
	progress.set(RowStopServer, StageInProgress)
	progress.set(RowCleanupVSCode, StageInProgress)
	out := octx.Hooks.Collect(HookShutdown, map[string]any{"workspacePath": workspacePath, "projectPath": projectPath})
	for _, r := range out.Results {
		sr, ok := r.(ShutdownResult)
		if !ok {
			continue
		}
		if sr.WasActive {
			wasActive = true
		}
		if sr.Error != "" {
			hasErrors = true
		}
	}
	if len(out.Errors) > 0 {
		hasErrors = true
		logCollectErrors("shutdown", out)
	}
	progress.set(RowStopServer, StageDone)
	progress.set(RowCleanupVSCode, StageDone)
	return wasActive, hasErrors
}

func mergePIDs(results []any) []int {
	seen := make(map[int]struct{})
	var out []int
	for _, r := range results {
		pids, ok := r.([]int)
		if !ok {
			continue
		}
		for _, pid := range pids {
			if _, dup := seen[pid]; dup {
				continue
			}
			seen[pid] = struct{}{}
			out = append(out, pid)
		}
	}
	return out
}

func logCollectErrors(stage string, out dispatch.CollectResult) {
	for _, err := range out.Errors {
		logging.Warn(fmt.Sprintf("deletion stage %s: hook error", stage), "error", err)
	}
}

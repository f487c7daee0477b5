package composition

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/corebench/workspacectl/internal/operations/agentctl"
	"github.com/corebench/workspacectl/internal/operations/deletion"
	"github.com/corebench/workspacectl/internal/operations/lifecycle"
	"github.com/corebench/workspacectl/internal/operations/project"
	"github.com/corebench/workspacectl/internal/operations/setup"
	"github.com/corebench/workspacectl/internal/operations/workspace"
	"github.com/corebench/workspacectl/pkg/dispatch"
	"github.com/corebench/workspacectl/pkg/ports"
)

// buildCollaboratorModules returns one dispatch.Module per collaborator
// port, each contributing the hook handlers that front it. This is the
// only place ports.* methods are called from — every operation package
// only ever sees the hook protocol.
func buildCollaboratorModules(c Collaborators) []dispatch.Module {
	return []dispatch.Module{
		worktreeModule(c.Worktree),
		processModule(c.Processes, c.Agents),
		setupModule(c.Binaries),
		agentModule(c.Agents),
	}
}

func worktreeModule(wt ports.WorktreeProvider) dispatch.Module {
	var mu sync.Mutex
	pathByProjectID := make(map[string]string)

	return dispatch.Module{
		Name: "worktree",
		Hooks: []dispatch.HookContribution{
			{OperationID: project.IntentOpen, HookPointID: project.HookValidate, Handler: func(input any) (any, error) {
				path := stringField(input, "path")
				return nil, wt.ValidateRepository(context.Background(), path)
			}},
			{OperationID: project.IntentOpen, HookPointID: project.HookRegister, Handler: func(input any) (any, error) {
				projectID := stringField(input, "projectId")
				path := stringField(input, "path")
				if err := wt.RegisterProject(context.Background(), path); err != nil {
					return nil, err
				}
				mu.Lock()
				pathByProjectID[projectID] = path
				mu.Unlock()
				return nil, nil
			}},
			{OperationID: project.IntentClose, HookPointID: project.HookUnregister, Handler: func(input any) (any, error) {
				projectID := stringField(input, "projectId")
				mu.Lock()
				path, known := pathByProjectID[projectID]
				delete(pathByProjectID, projectID)
				mu.Unlock()
				if !known {
					return nil, nil
				}
				return nil, wt.UnregisterProject(context.Background(), path)
			}},
			{OperationID: workspace.IntentCreate, HookPointID: workspace.HookEnsure, Handler: func(input any) (any, error) {
				return ensureWorkspace(wt, &mu, pathByProjectID, input)
			}},
			{OperationID: workspace.IntentOpen, HookPointID: workspace.HookEnsure, Handler: func(input any) (any, error) {
				return ensureWorkspace(wt, &mu, pathByProjectID, input)
			}},
			{OperationID: workspace.IntentGetMetadata, HookPointID: workspace.HookGetMetadata, Handler: func(input any) (any, error) {
				path := stringField(input, "workspacePath")
				meta, err := wt.GetMetadata(context.Background(), path)
				if err != nil {
					return nil, err
				}
				return map[string]string(meta), nil
			}},
			{OperationID: workspace.IntentSetMetadata, HookPointID: workspace.HookSetMetadata, Handler: func(input any) (any, error) {
				path := stringField(input, "workspacePath")
				key := stringField(input, "key")
				var value *string
				if v, ok := fieldValue(input, "value").(*string); ok {
					value = v
				}
				return nil, wt.SetMetadata(context.Background(), path, key, value)
			}},
			{OperationID: deletion.IntentType, HookPointID: deletion.HookDelete, Handler: func(input any) (any, error) {
				path := stringField(input, "workspacePath")
				keepBranch, _ := fieldValue(input, "keepBranch").(bool)
				return nil, wt.RemoveWorkspace(context.Background(), path, keepBranch)
			}},
			{OperationID: workspace.IntentGetStatus, HookPointID: workspace.HookGetStatus, Handler: func(input any) (any, error) {
				path := stringField(input, "workspacePath")
				dirty, err := wt.IsDirty(context.Background(), path)
				if err != nil {
					return nil, err
				}
				return workspace.Status{IsDirty: dirty}, nil
			}},
			{OperationID: workspace.IntentList, HookPointID: workspace.HookList, Handler: func(input any) (any, error) {
				projectID := stringField(input, "projectId")
				mu.Lock()
				projectPath, known := pathByProjectID[projectID]
				mu.Unlock()
				if !known {
					return []workspace.Info{}, nil
				}
				infos, err := wt.ListWorktrees(context.Background(), projectPath)
				if err != nil {
					return nil, err
				}
				out := make([]workspace.Info, len(infos))
				for i, wi := range infos {
					out[i] = workspace.Info{Path: wi.Path, Branch: wi.Branch}
				}
				return out, nil
			}},
		},
	}
}

func ensureWorkspace(wt ports.WorktreeProvider, mu *sync.Mutex, pathByProjectID map[string]string, input any) (any, error) {
	projectID := stringField(input, "projectId")
	workspaceName := stringField(input, "workspaceName")

	mu.Lock()
	projectPath, known := pathByProjectID[projectID]
	mu.Unlock()
	if !known {
		return nil, errors.New("composition: unknown projectId " + projectID)
	}
	return wt.EnsureWorkspaceRegistered(context.Background(), projectPath, workspaceName)
}

func processModule(pm ports.ProcessManager, agents ports.AgentServerManager) dispatch.Module {
	return dispatch.Module{
		Name: "processes",
		Hooks: []dispatch.HookContribution{
			{OperationID: deletion.IntentType, HookPointID: deletion.HookShutdown, Handler: func(input any) (any, error) {
				path := stringField(input, "workspacePath")
				if err := agents.StopServer(context.Background(), path); err != nil {
					return deletion.ShutdownResult{WasActive: true, Error: err.Error()}, nil
				}
				return deletion.ShutdownResult{WasActive: true}, nil
			}},
			{OperationID: deletion.IntentType, HookPointID: deletion.HookRelease, Handler: func(input any) (any, error) {
				path := stringField(input, "workspacePath")
				pids, err := pm.DetectByCwd(context.Background(), path)
				if err != nil {
					return nil, err
				}
				if len(pids) == 0 {
					return nil, nil
				}
				return nil, pm.KillProcesses(context.Background(), pids)
			}},
			{OperationID: deletion.IntentType, HookPointID: deletion.HookDetect, Handler: func(input any) (any, error) {
				path := stringField(input, "workspacePath")
				return pm.DetectBlockers(context.Background(), path)
			}},
			{OperationID: deletion.IntentType, HookPointID: deletion.HookFlush, Handler: func(input any) (any, error) {
				pids := intSliceField(input, "pids")
				return nil, pm.KillProcesses(context.Background(), pids)
			}},
		},
	}
}

func setupModule(bem ports.BinaryExtensionManager) dispatch.Module {
	return dispatch.Module{
		Name: "setup",
		Hooks: []dispatch.HookContribution{
			{OperationID: lifecycle.IntentStart, HookPointID: lifecycle.HookCheck, Handler: func(input any) (any, error) {
				preflight, err := bem.Preflight(context.Background())
				if err != nil {
					return nil, err
				}
				return setup.Payload{
					NeedsBinaryDownload: preflight.NeedsDownload,
					MissingExtensions:   preflight.MissingExtensions,
					OutdatedExtensions:  preflight.OutdatedExtensions,
					NeedsExtensions:     len(preflight.MissingExtensions) > 0 || len(preflight.OutdatedExtensions) > 0,
				}, nil
			}},
			{OperationID: setup.IntentType, HookPointID: setup.HookShowUI, Handler: noop},
			{OperationID: setup.IntentType, HookPointID: setup.HookHideUI, Handler: noop},
			{OperationID: setup.IntentType, HookPointID: setup.HookBinary, Handler: func(input any) (any, error) {
				onProgress := progressFuncField(input, "onProgress")
				return nil, bem.DownloadBinary(context.Background(), func(row string, pct int) {
					if onProgress != nil {
						onProgress(pct)
					}
				})
			}},
			{OperationID: setup.IntentType, HookPointID: setup.HookExtensions, Handler: func(input any) (any, error) {
				extensions := append([]string{}, stringSliceField(input, "missingExtensions")...)
				extensions = append(extensions, stringSliceField(input, "outdatedExtensions")...)
				onProgress := progressFuncField(input, "onProgress")
				return nil, bem.Install(context.Background(), extensions, func(row string, pct int) {
					if onProgress != nil {
						onProgress(pct)
					}
				})
			}},
		},
	}
}

func agentModule(agents ports.AgentServerManager) dispatch.Module {
	return dispatch.Module{
		Name: "agents",
		Hooks: []dispatch.HookContribution{
			{OperationID: agentctl.IntentRestart, HookPointID: agentctl.HookRestart, Handler: func(input any) (any, error) {
				path := stringField(input, "workspacePath")
				handle, err := agents.RestartServer(context.Background(), path)
				if err != nil {
					return nil, err
				}
				return handle.Port, nil
			}},
			{OperationID: workspace.IntentSwitch, HookPointID: workspace.HookSwitch, Handler: func(input any) (any, error) {
				path := stringField(input, "currentPath")
				if path == "" {
					return nil, nil
				}
				_, err := agents.StartServer(context.Background(), path)
				return nil, err
			}},
			{OperationID: workspace.IntentGetStatus, HookPointID: workspace.HookGetStatus, Handler: func(input any) (any, error) {
				path := stringField(input, "workspacePath")
				handle, running, err := agents.IsRunning(context.Background(), path)
				if err != nil {
					return nil, err
				}
				if !running {
					return workspace.Status{}, nil
				}
				return workspace.Status{Agent: strconv.Itoa(handle.Port)}, nil
			}},
		},
	}
}

func noop(any) (any, error) { return nil, nil }

func fieldValue(input any, key string) any {
	switch m := input.(type) {
	case dispatch.FrozenMap:
		return m[key]
	case map[string]any:
		return m[key]
	default:
		return nil
	}
}

func stringField(input any, key string) string {
	s, _ := fieldValue(input, key).(string)
	return s
}

func stringSliceField(input any, key string) []string {
	s, _ := fieldValue(input, key).([]string)
	return s
}

func intSliceField(input any, key string) []int {
	s, _ := fieldValue(input, key).([]int)
	return s
}

func progressFuncField(input any, key string) func(int) {
	f, _ := fieldValue(input, key).(func(int))
	return f
}

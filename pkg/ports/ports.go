// Package ports declares the collaborator interfaces the control plane
// consumes through hook handlers — a port & adapter boundary. The core
// never calls these directly — only hook contributions registered by
// modules do — so only the interfaces live here; concrete adapters (a real
// git worktree provider, a real OS process scanner, ...) are out of scope.
package ports

import "context"

// WorktreeMetadata is the flat string map the worktree provider persists
// alongside a workspace.
type WorktreeMetadata map[string]string

// WorktreeInfo describes one registered worktree.
type WorktreeInfo struct {
	Path   string
	Branch string
}

// WorktreeProvider is the Git worktree collaborator: registering projects,
// ensuring workspaces exist, and removing them on disk.
type WorktreeProvider interface {
	RegisterProject(ctx context.Context, projectPath string) error
	UnregisterProject(ctx context.Context, projectPath string) error
	EnsureWorkspaceRegistered(ctx context.Context, projectPath, workspaceName string) (workspacePath string, err error)
	RemoveWorkspace(ctx context.Context, workspacePath string, keepBranch bool) error
	SetMetadata(ctx context.Context, workspacePath, key string, value *string) error
	GetMetadata(ctx context.Context, workspacePath string) (WorktreeMetadata, error)
	ListWorktrees(ctx context.Context, projectPath string) ([]WorktreeInfo, error)
	ValidateRepository(ctx context.Context, path string) error
	// IsDirty reports whether workspacePath has uncommitted changes.
	IsDirty(ctx context.Context, workspacePath string) (bool, error)
}

// Filesystem is the minimal file collaborator the core's hooks rely on.
type Filesystem interface {
	Mkdir(path string) error
	WriteFile(path string, data []byte) error
	ReadFile(path string) ([]byte, error)
	Remove(path string) error
}

// ProcessManager scans and terminates OS processes blocking a workspace
// directory from being removed.
type ProcessManager interface {
	// DetectBlockers inspects open file handles (not just CWD) under path
	// and returns the full list of blocking PIDs.
	DetectBlockers(ctx context.Context, path string) ([]int, error)
	// DetectByCwd is the cheaper CWD-scoped scan used by the release stage.
	DetectByCwd(ctx context.Context, path string) ([]int, error)
	KillProcesses(ctx context.Context, pids []int) error
}

// PreflightResult reports what a binary/extension manager needs to do
// before setup can proceed.
type PreflightResult struct {
	Success           bool
	NeedsDownload     bool
	MissingExtensions []string
	OutdatedExtensions []string
}

// ProgressFunc reports a 0-100 percentage for one named row of work.
type ProgressFunc func(row string, percent int)

// BinaryExtensionManager downloads the agent binary and manages editor
// extensions as part of the setup pipeline.
type BinaryExtensionManager interface {
	Preflight(ctx context.Context) (PreflightResult, error)
	DownloadBinary(ctx context.Context, onProgress ProgressFunc) error
	Install(ctx context.Context, list []string, onProgress ProgressFunc) error
}

// ServerHandle is what RestartServer returns on success.
type ServerHandle struct {
	Port int
}

// AgentServerManager starts, stops, and restarts the per-workspace agent
// server process.
type AgentServerManager interface {
	StartServer(ctx context.Context, workspacePath string) (ServerHandle, error)
	StopServer(ctx context.Context, workspacePath string) error
	RestartServer(ctx context.Context, workspacePath string) (ServerHandle, error)
	OnServerStarted(handler func(workspacePath string, handle ServerHandle)) (unsubscribe func())
	OnServerStopped(handler func(workspacePath string)) (unsubscribe func())
	// IsRunning reports whether a server is currently running for
	// workspacePath, and its handle if so.
	IsRunning(ctx context.Context, workspacePath string) (handle ServerHandle, running bool, err error)
}

// UITransport is the opaque request/response + event channel to the
// renderer.
type UITransport interface {
	Invoke(ctx context.Context, channel string, payload any) (any, error)
	On(channel string, handler func(payload any)) (unsubscribe func())
	Send(channel string, payload any)
}

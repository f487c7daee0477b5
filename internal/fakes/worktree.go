package fakes

import (
	"context"
	"fmt"
	"sync"

	"github.com/corebench/workspacectl/pkg/ids"
	"github.com/corebench/workspacectl/pkg/ports"
)

// WorktreeProvider is an in-memory ports.WorktreeProvider — workspaces live
// in a map keyed by path, nothing touches the real filesystem or git.
type WorktreeProvider struct {
	mu         sync.Mutex
	projects   map[string]bool
	workspaces map[string]ports.WorktreeMetadata
	dirty      map[string]bool
}

func NewWorktreeProvider() *WorktreeProvider {
	return &WorktreeProvider{
		projects:   make(map[string]bool),
		workspaces: make(map[string]ports.WorktreeMetadata),
		dirty:      make(map[string]bool),
	}
}

func (w *WorktreeProvider) RegisterProject(ctx context.Context, projectPath string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.projects[projectPath] = true
	return nil
}

func (w *WorktreeProvider) UnregisterProject(ctx context.Context, projectPath string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.projects, projectPath)
	return nil
}

func (w *WorktreeProvider) EnsureWorkspaceRegistered(ctx context.Context, projectPath, workspaceName string) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	workspacePath := fmt.Sprintf("%s/.worktrees/%s", projectPath, workspaceName)
	if _, ok := w.workspaces[workspacePath]; !ok {
		w.workspaces[workspacePath] = ports.WorktreeMetadata{}
	}
	return workspacePath, nil
}

func (w *WorktreeProvider) RemoveWorkspace(ctx context.Context, workspacePath string, keepBranch bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.workspaces, workspacePath)
	return nil
}

func (w *WorktreeProvider) SetMetadata(ctx context.Context, workspacePath, key string, value *string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	meta, ok := w.workspaces[workspacePath]
	if !ok {
		meta = ports.WorktreeMetadata{}
		w.workspaces[workspacePath] = meta
	}
	if value == nil {
		delete(meta, key)
		return nil
	}
	meta[key] = *value
	return nil
}

func (w *WorktreeProvider) GetMetadata(ctx context.Context, workspacePath string) (ports.WorktreeMetadata, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	meta, ok := w.workspaces[workspacePath]
	if !ok {
		return ports.WorktreeMetadata{}, nil
	}
	out := make(ports.WorktreeMetadata, len(meta))
	for k, v := range meta {
		out[k] = v
	}
	return out, nil
}

func (w *WorktreeProvider) ListWorktrees(ctx context.Context, projectPath string) ([]ports.WorktreeInfo, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []ports.WorktreeInfo
	prefix := projectPath + "/.worktrees/"
	for path := range w.workspaces {
		if len(path) > len(prefix) && path[:len(prefix)] == prefix {
			out = append(out, ports.WorktreeInfo{Path: path, Branch: ids.WorkspaceName(path)})
		}
	}
	return out, nil
}

func (w *WorktreeProvider) ValidateRepository(ctx context.Context, path string) error {
	return nil
}

func (w *WorktreeProvider) IsDirty(ctx context.Context, workspacePath string) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dirty[workspacePath], nil
}

// KnownProject reports whether path is currently registered — a test
// observation helper, not part of ports.WorktreeProvider.
func (w *WorktreeProvider) KnownProject(path string) (registered, known bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	registered, known = w.projects[path]
	return registered, known
}

// SetDirty arms the dirty flag IsDirty reports for workspacePath — a test
// setup helper, not part of ports.WorktreeProvider.
func (w *WorktreeProvider) SetDirty(workspacePath string, dirty bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.dirty[workspacePath] = dirty
}

var _ ports.WorktreeProvider = (*WorktreeProvider)(nil)

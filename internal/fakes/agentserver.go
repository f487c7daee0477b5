package fakes

import (
	"context"
	"sync"

	"github.com/corebench/workspacectl/pkg/ports"
)

// AgentServerManager is an in-memory ports.AgentServerManager: ports are
// handed out sequentially starting from basePort+1.
type AgentServerManager struct {
	mu           sync.Mutex
	basePort     int
	running      map[string]int
	startedSubs  []func(string, ports.ServerHandle)
	stoppedSubs  []func(string)
}

func NewAgentServerManager() *AgentServerManager {
	return &AgentServerManager{basePort: 4800, running: make(map[string]int)}
}

func (a *AgentServerManager) StartServer(ctx context.Context, workspacePath string) (ports.ServerHandle, error) {
	a.mu.Lock()
	a.basePort++
	handle := ports.ServerHandle{Port: a.basePort}
	a.running[workspacePath] = handle.Port
	subs := append([]func(string, ports.ServerHandle){}, a.startedSubs...)
	a.mu.Unlock()
	for _, sub := range subs {
		sub(workspacePath, handle)
	}
	return handle, nil
}

func (a *AgentServerManager) StopServer(ctx context.Context, workspacePath string) error {
	a.mu.Lock()
	delete(a.running, workspacePath)
	subs := append([]func(string){}, a.stoppedSubs...)
	a.mu.Unlock()
	for _, sub := range subs {
		sub(workspacePath)
	}
	return nil
}

func (a *AgentServerManager) RestartServer(ctx context.Context, workspacePath string) (ports.ServerHandle, error) {
	if err := a.StopServer(ctx, workspacePath); err != nil {
		return ports.ServerHandle{}, err
	}
	return a.StartServer(ctx, workspacePath)
}

func (a *AgentServerManager) IsRunning(ctx context.Context, workspacePath string) (ports.ServerHandle, bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	port, ok := a.running[workspacePath]
	if !ok {
		return ports.ServerHandle{}, false, nil
	}
	return ports.ServerHandle{Port: port}, true, nil
}

func (a *AgentServerManager) OnServerStarted(handler func(workspacePath string, handle ports.ServerHandle)) func() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.startedSubs = append(a.startedSubs, handler)
	idx := len(a.startedSubs) - 1
	return func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		a.startedSubs[idx] = nil
	}
}

func (a *AgentServerManager) OnServerStopped(handler func(workspacePath string)) func() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stoppedSubs = append(a.stoppedSubs, handler)
	idx := len(a.stoppedSubs) - 1
	return func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		a.stoppedSubs[idx] = nil
	}
}

var _ ports.AgentServerManager = (*AgentServerManager)(nil)

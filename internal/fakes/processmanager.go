package fakes

import (
	"context"
	"sync"

	"github.com/corebench/workspacectl/pkg/ports"
)

// ProcessManager is an in-memory ports.ProcessManager — tests pre-arm the
// blocker list per path and observe which PIDs get "killed".
type ProcessManager struct {
	mu       sync.Mutex
	blockers map[string][]int
	killed   []int
}

func NewProcessManager() *ProcessManager {
	return &ProcessManager{blockers: make(map[string][]int)}
}

// SetBlockers pre-arms the PIDs DetectBlockers/DetectByCwd return for path.
func (p *ProcessManager) SetBlockers(path string, pids []int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.blockers[path] = pids
}

func (p *ProcessManager) DetectBlockers(ctx context.Context, path string) ([]int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]int{}, p.blockers[path]...), nil
}

func (p *ProcessManager) DetectByCwd(ctx context.Context, path string) ([]int, error) {
	return p.DetectBlockers(ctx, path)
}

func (p *ProcessManager) KillProcesses(ctx context.Context, pids []int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.killed = append(p.killed, pids...)
	for path, blocked := range p.blockers {
		p.blockers[path] = subtract(blocked, pids)
	}
	return nil
}

// Killed returns every PID ever passed to KillProcesses, in order.
func (p *ProcessManager) Killed() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]int{}, p.killed...)
}

func subtract(from, remove []int) []int {
	removeSet := make(map[int]bool, len(remove))
	for _, v := range remove {
		removeSet[v] = true
	}
	var out []int
	for _, v := range from {
		if !removeSet[v] {
			out = append(out, v)
		}
	}
	return out
}

var _ ports.ProcessManager = (*ProcessManager)(nil)

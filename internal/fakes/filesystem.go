package fakes

import (
	"fmt"
	"sync"

	"github.com/corebench/workspacectl/pkg/ports"
)

// Filesystem is an in-memory ports.Filesystem keyed by path — no real I/O.
type Filesystem struct {
	mu    sync.Mutex
	files map[string][]byte
}

func NewFilesystem() *Filesystem {
	return &Filesystem{files: make(map[string][]byte)}
}

func (f *Filesystem) Mkdir(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.files[path]; !ok {
		f.files[path] = nil
	}
	return nil
}

func (f *Filesystem) WriteFile(path string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[path] = append([]byte{}, data...)
	return nil
}

func (f *Filesystem) ReadFile(path string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.files[path]
	if !ok {
		return nil, fmt.Errorf("fakes: no such file %q", path)
	}
	return append([]byte{}, data...), nil
}

func (f *Filesystem) Remove(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.files, path)
	return nil
}

var _ ports.Filesystem = (*Filesystem)(nil)

package fakes

import (
	"context"

	"github.com/corebench/workspacectl/pkg/ports"
)

// BinaryExtensionManager is an in-memory ports.BinaryExtensionManager.
// Preflight result and failures are pre-armed by tests; DownloadBinary and
// Install report a few synthetic progress ticks before returning.
type BinaryExtensionManager struct {
	PreflightResult ports.PreflightResult
	PreflightErr    error
	DownloadErr     error
	InstallErr      error
}

func NewBinaryExtensionManager() *BinaryExtensionManager {
	return &BinaryExtensionManager{}
}

func (b *BinaryExtensionManager) Preflight(ctx context.Context) (ports.PreflightResult, error) {
	return b.PreflightResult, b.PreflightErr
}

func (b *BinaryExtensionManager) DownloadBinary(ctx context.Context, onProgress ports.ProgressFunc) error {
	if b.DownloadErr != nil {
		return b.DownloadErr
	}
	for _, pct := range []int{0, 50, 100} {
		if onProgress != nil {
			onProgress("binary", pct)
		}
	}
	return nil
}

func (b *BinaryExtensionManager) Install(ctx context.Context, list []string, onProgress ports.ProgressFunc) error {
	if b.InstallErr != nil {
		return b.InstallErr
	}
	for _, pct := range []int{0, 50, 100} {
		if onProgress != nil {
			onProgress("extensions", pct)
		}
	}
	return nil
}

var _ ports.BinaryExtensionManager = (*BinaryExtensionManager)(nil)

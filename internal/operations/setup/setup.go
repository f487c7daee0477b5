// Package setup implements the app:setup operation: a linear pipeline with
// conditional stages that interleaves background work (binary downloads,
// extension installs) with synchronous UI handoffs.
package setup

import (
	"time"

	"github.com/corebench/workspacectl/pkg/dispatch"
)

const IntentType = "app:setup"

const (
	HookShowUI        = "show-ui"
	HookAgentSelection = "agent-selection"
	HookSaveAgent     = "save-agent"
	HookBinary        = "binary"
	HookExtensions    = "extensions"
	HookHideUI        = "hide-ui"
)

// ProgressFunc reports a throttled percentage update for one named row of
// background work ("binary", "extensions").
type ProgressFunc func(row string, percent int)

// Payload is the app:setup intent payload, carrying the preflight results
// computed by app:start's own check hooks.
type Payload struct {
	NeedsAgentSelection bool
	ConfiguredAgent     string
	MissingBinaries     []string
	NeedsBinaryDownload bool
	MissingExtensions   []string
	OutdatedExtensions  []string
	NeedsExtensions     bool

	ProgressThrottle time.Duration
	OnProgress       ProgressFunc
}

// ErrorEventPayload is the setup:error event payload.
type ErrorEventPayload struct {
	Message string
	Code    string
}

// setupError carries the Code alongside the Go error message so Execute can
// build ErrorEventPayload without re-parsing anything.
type setupError struct {
	message string
	code    string
}

func (e *setupError) Error() string { return e.message }

// Operation implements dispatch.Operation for app:setup.
type Operation struct{}

func NewOperation() *Operation { return &Operation{} }

func (op *Operation) ID() string { return IntentType }

func (op *Operation) Execute(octx *dispatch.OperationContext) (any, error) {
	payload, _ := octx.Intent.Payload.(Payload)
	throttler := newRowThrottler(payload.ProgressThrottle)

	hookCtx := map[string]any{
		"needsAgentSelection": payload.NeedsAgentSelection,
		"configuredAgent":     payload.ConfiguredAgent,
		"missingBinaries":     payload.MissingBinaries,
		"needsBinaryDownload": payload.NeedsBinaryDownload,
		"missingExtensions":   payload.MissingExtensions,
		"outdatedExtensions":  payload.OutdatedExtensions,
		"needsExtensions":     payload.NeedsExtensions,
	}

	if err := op.collectOrFail(octx, HookShowUI, hookCtx); err != nil {
		return nil, op.fail(octx, err)
	}

	var selectedAgent string
	if payload.NeedsAgentSelection {
		out := octx.Hooks.Collect(HookAgentSelection, hookCtx)
		if len(out.Errors) > 0 {
			return nil, op.fail(octx, out.Errors[0])
		}
		for _, r := range out.Results {
			if s, ok := r.(string); ok && s != "" {
				selectedAgent = s
				break
			}
		}
		hookCtx["selectedAgent"] = selectedAgent
	}

	if selectedAgent != "" {
		if err := op.collectOrFail(octx, HookSaveAgent, hookCtx); err != nil {
			return nil, op.fail(octx, err)
		}
	}

	binaryInput := cloneWithProgress(hookCtx, func(percent int) {
		if payload.OnProgress != nil && throttler.allow(HookBinary, percent) {
			payload.OnProgress(HookBinary, percent)
		}
	})
	if err := op.collectOrFail(octx, HookBinary, binaryInput); err != nil {
		return nil, op.fail(octx, err)
	}

	extensionsInput := cloneWithProgress(hookCtx, func(percent int) {
		if payload.OnProgress != nil && throttler.allow(HookExtensions, percent) {
			payload.OnProgress(HookExtensions, percent)
		}
	})
	if err := op.collectOrFail(octx, HookExtensions, extensionsInput); err != nil {
		return nil, op.fail(octx, err)
	}

	if err := op.collectOrFail(octx, HookHideUI, hookCtx); err != nil {
		return nil, op.fail(octx, err)
	}

	return nil, nil
}

func (op *Operation) collectOrFail(octx *dispatch.OperationContext, hookPoint string, input any) error {
	out := octx.Hooks.Collect(hookPoint, input)
	if len(out.Errors) > 0 {
		return out.Errors[0]
	}
	return nil
}

// fail emits setup:error before returning err to the dispatcher: any
// stage failure emits a setup:error{message, code?} event and re-throws.
func (op *Operation) fail(octx *dispatch.OperationContext, err error) error {
	payload := ErrorEventPayload{Message: err.Error()}
	if se, ok := err.(*setupError); ok {
		payload.Code = se.code
	}
	octx.EmitImmediate(dispatch.Event{Type: "setup:error", Payload: payload})
	return err
}

func cloneWithProgress(base map[string]any, onProgress func(percent int)) map[string]any {
	out := make(map[string]any, len(base)+1)
	for k, v := range base {
		out[k] = v
	}
	out["onProgress"] = onProgress
	return out
}

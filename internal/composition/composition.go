// Package composition is the module composition root: it wires the hook
// registry, dispatcher, every operation package, the idempotency
// interceptor, the API registry, the IPC event bridge, and (optionally) the
// dispatch tracer into one running control plane, and returns a single
// teardown closure.
package composition

import (
	"context"

	"github.com/corebench/workspacectl/internal/operations/agentctl"
	"github.com/corebench/workspacectl/internal/operations/deletion"
	"github.com/corebench/workspacectl/internal/operations/lifecycle"
	"github.com/corebench/workspacectl/internal/operations/project"
	"github.com/corebench/workspacectl/internal/operations/setup"
	"github.com/corebench/workspacectl/internal/operations/workspace"
	"github.com/corebench/workspacectl/pkg/api"
	"github.com/corebench/workspacectl/pkg/config"
	"github.com/corebench/workspacectl/pkg/dispatch"
	"github.com/corebench/workspacectl/pkg/logging"
	"github.com/corebench/workspacectl/pkg/ports"
	"github.com/corebench/workspacectl/pkg/retry"
	"github.com/corebench/workspacectl/pkg/tracing"
)

// Collaborators bundles every port implementation the composition root
// wires hook contributions against. Each field is required; the caller
// supplies either real adapters or the in-memory internal/fakes.
type Collaborators struct {
	Worktree  ports.WorktreeProvider
	Files     ports.Filesystem
	Processes ports.ProcessManager
	Binaries  ports.BinaryExtensionManager
	Agents    ports.AgentServerManager
	Transport ports.UITransport
}

// Root is the fully wired control plane. Dispatch is the single entry
// point operations and the API registry dispatch through; Shutdown tears
// down every module, the API registry's IPC routes, and (if enabled) the
// tracer.
type Root struct {
	Dispatcher   *dispatch.Dispatcher
	API          *api.Registry
	EventBridge  *api.EventBridge
	DeletionSlots *retry.Slots
	StartSlots   *retry.Slots
	States       *deletion.StateTracker
	Recorder     *tracing.Recorder

	teardownModules func()
}

// Build wires every operation, hook contribution, and supporting module
// per cfg and returns the running Root. Callers are responsible for
// eventually calling Shutdown.
func Build(cfg *config.AppConfig, collab Collaborators) (*Root, error) {
	registry := dispatch.NewHookRegistry()
	d := dispatch.NewDispatcher(registry)

	var recorder *tracing.Recorder
	if cfg.Tracing.Enabled {
		r, err := tracing.NewRecorder(cfg.Tracing.Dir)
		if err != nil {
			return nil, err
		}
		recorder = r
	}

	deletionSlots := retry.NewSlots()
	startSlots := retry.NewSlots()
	states := deletion.NewStateTracker()

	ops := []dispatch.Operation{
		project.NewOpenOperation(),
		project.NewCloseOperation(),
		workspace.NewCreateOperation(),
		workspace.NewOpenOperation(),
		workspace.NewSwitchOperation(),
		workspace.NewGetMetadataOperation(),
		workspace.NewSetMetadataOperation(),
		workspace.NewGetStatusOperation(),
		workspace.NewListOperation(),
		deletion.NewOperation(states, deletionSlots),
		setup.NewOperation(),
		agentctl.NewRestartOperation(),
		agentctl.NewGetSessionOperation(),
		lifecycle.NewStartOperation(startSlots),
		lifecycle.NewShutdownOperation(),
	}
	for _, op := range ops {
		if err := d.RegisterOperation(op); err != nil {
			return nil, err
		}
	}

	idempotency := buildIdempotencyInterceptor(cfg)
	d.AddInterceptor(idempotency)
	var idempotencyUnsubs []func()
	for _, rule := range cfg.Idempotency.Rules {
		if rule.ResetOn == "" {
			continue
		}
		idempotencyUnsubs = append(idempotencyUnsubs, d.Subscribe(rule.ResetOn, idempotency.HandleEvent))
	}

	modules := buildCollaboratorModules(collab)
	teardownModules := dispatch.WireModules(modules, registry, d)

	var traceUnsub func()
	if recorder != nil {
		traceUnsub = wireTracing(d, recorder)
	}

	apiRegistry := api.NewRegistry(collab.Transport)
	wireAPIMethods(apiRegistry, d, deletionSlots, startSlots)

	bridge := api.NewEventBridge(collab.Transport)
	bridgeTeardown := bridge.Wire(d)

	root := &Root{
		Dispatcher:    d,
		API:           apiRegistry,
		EventBridge:   bridge,
		DeletionSlots: deletionSlots,
		StartSlots:    startSlots,
		States:        states,
		Recorder:      recorder,
	}

	root.teardownModules = func() {
		bridgeTeardown()
		apiRegistry.Dispose()
		for _, unsub := range idempotencyUnsubs {
			unsub()
		}
		teardownModules()
		if traceUnsub != nil {
			traceUnsub()
		}
		deletionSlots.DisposeAll()
		startSlots.DisposeAll()
	}

	return root, nil
}

// Shutdown dispatches app:shutdown through the wired pipeline, then tears
// down every module, interceptor subscription, and IPC route, finally
// finalizing the trace recorder if one is running.
func (r *Root) Shutdown(ctx context.Context) error {
	_, err := r.Dispatcher.Dispatch(dispatch.Intent{Type: lifecycle.IntentShutdown}, nil)
	r.teardownModules()
	if r.Recorder != nil {
		if _, traceErr := r.Recorder.Finalize(); traceErr != nil {
			logging.Warn("tracing: finalize failed", "error", traceErr)
		}
	}
	return err
}

func buildIdempotencyInterceptor(cfg *config.AppConfig) *dispatch.IdempotencyInterceptor {
	rules := make([]dispatch.IdempotencyRule, 0, len(cfg.Idempotency.Rules))
	for _, rc := range cfg.Idempotency.Rules {
		rules = append(rules, dispatch.IdempotencyRule{
			IntentType: rc.IntentType,
			GetKey:     idempotencyKeyFor(rc.IntentType),
			ResetOn:    rc.ResetOn,
			IsForced:   idempotencyForcedFor(rc.IntentType),
		})
	}
	return dispatch.NewIdempotencyInterceptor("idempotency", 0, rules)
}

// idempotencyKeyFor returns the per-intent-type key derivation function.
// Deletion is keyed by (projectId, workspaceName); other governed intents
// fall back to a single shared in-flight slot.
//
// This must handle both the intent payload (deletion.Payload, read on
// Before) and the reset event's payload (deletion.DeletedEventPayload,
// read on HandleEvent when workspace:deleted fires) — they carry the same
// two fields under the same names but are distinct types, and a GetKey
// that only matches one of them makes the other derive an empty key,
// clearing or checking the wrong slot.
func idempotencyKeyFor(intentType string) func(any) string {
	switch intentType {
	case deletion.IntentType:
		return func(payload any) string {
			switch p := payload.(type) {
			case deletion.Payload:
				return p.ProjectID + "\x00" + p.WorkspaceName
			case deletion.DeletedEventPayload:
				return p.ProjectID + "\x00" + p.WorkspaceName
			default:
				return ""
			}
		}
	default:
		return nil
	}
}

func idempotencyForcedFor(intentType string) func(dispatch.Intent) bool {
	switch intentType {
	case deletion.IntentType:
		return func(intent dispatch.Intent) bool {
			p, ok := intent.Payload.(deletion.Payload)
			return ok && p.Force
		}
	default:
		return nil
	}
}

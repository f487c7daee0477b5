package dispatch

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWireModules_InstallsHooksInterceptorsAndSubscriptions(t *testing.T) {
	d := newTestDispatcher()
	registry := d.HookRegistry()

	var hookRan, eventRan bool
	var interceptorOrder []string

	modules := []Module{
		{
			Name: "alpha",
			Hooks: []HookContribution{
				{OperationID: "op", HookPointID: "point", Handler: func(any) (any, error) {
					hookRan = true
					return nil, nil
				}},
			},
			Events: []EventSubscription{
				{EventType: "op:done", Handler: func(Event) { eventRan = true }},
			},
			Interceptors: []Interceptor{
				&FuncInterceptor{Id: "alpha-ic", OrderVal: 0, BeforeFn: func(intent Intent) (*Intent, error) {
					interceptorOrder = append(interceptorOrder, "alpha")
					return &intent, nil
				}},
			},
		},
	}

	teardown := WireModules(modules, registry, d)
	defer teardown()

	require.NoError(t, d.RegisterOperation(OperationFunc{
		Id: "op",
		Fn: func(octx *OperationContext) (any, error) {
			octx.Hooks.Collect("point", nil)
			octx.Emit(Event{Type: "op:done"})
			return nil, nil
		},
	}))

	_, err := d.Dispatch(Intent{Type: "op"}, nil)
	require.NoError(t, err)
	require.True(t, hookRan)
	require.True(t, eventRan)
	require.Equal(t, []string{"alpha"}, interceptorOrder)
}

func TestWireModules_TeardownUnsubscribesAndDisposesInReverseOrder(t *testing.T) {
	d := newTestDispatcher()
	registry := d.HookRegistry()

	var disposeOrder []string
	var eventCount int

	modules := []Module{
		{
			Name:    "first",
			Events:  []EventSubscription{{EventType: "x", Handler: func(Event) { eventCount++ }}},
			Dispose: func() { disposeOrder = append(disposeOrder, "first") },
		},
		{
			Name:    "second",
			Dispose: func() { disposeOrder = append(disposeOrder, "second") },
		},
	}

	teardown := WireModules(modules, registry, d)

	require.NoError(t, d.RegisterOperation(OperationFunc{
		Id: "emit",
		Fn: func(octx *OperationContext) (any, error) {
			octx.Emit(Event{Type: "x"})
			return nil, nil
		},
	}))
	_, err := d.Dispatch(Intent{Type: "emit"}, nil)
	require.NoError(t, err)
	require.Equal(t, 1, eventCount)

	teardown()

	_, err = d.Dispatch(Intent{Type: "emit"}, nil)
	require.NoError(t, err)
	require.Equal(t, 1, eventCount, "subscriptions must be gone after teardown")
	require.Equal(t, []string{"second", "first"}, disposeOrder)
}

func TestWireModules_DisposePanicDoesNotBlockOthers(t *testing.T) {
	d := newTestDispatcher()
	registry := d.HookRegistry()

	var secondDisposed bool
	modules := []Module{
		{Name: "panics", Dispose: func() { panic("boom") }},
		{Name: "fine", Dispose: func() { secondDisposed = true }},
	}

	teardown := WireModules(modules, registry, d)
	require.NotPanics(t, teardown)
	require.True(t, secondDisposed)
}

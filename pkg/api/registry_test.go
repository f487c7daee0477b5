package api

import (
	"context"
	"testing"

	"github.com/corebench/workspacectl/internal/fakes"
	"github.com/stretchr/testify/require"
)

func TestRegistry_CallInvokesRegisteredMethod(t *testing.T) {
	r := NewRegistry(fakes.NewTransport())
	require.NoError(t, r.Register(Method{
		Name: "project.open",
		Handler: func(ctx context.Context, payload any) (any, error) {
			return "opened:" + payload.(string), nil
		},
	}))

	result, err := r.Call(context.Background(), "project.open", "demo")
	require.NoError(t, err)
	require.Equal(t, "opened:demo", result)
}

func TestRegistry_DuplicateNameErrors(t *testing.T) {
	r := NewRegistry(fakes.NewTransport())
	m := Method{Name: "x", Handler: func(context.Context, any) (any, error) { return nil, nil }}
	require.NoError(t, r.Register(m))
	require.Error(t, r.Register(m))
}

func TestRegistry_IPCChannelInvokesHandler(t *testing.T) {
	transport := fakes.NewTransport()
	r := NewRegistry(transport)

	var received any
	require.NoError(t, r.Register(Method{
		Name: "workspace.delete",
		IPC:  "ipc:workspace:delete",
		Handler: func(ctx context.Context, payload any) (any, error) {
			received = payload
			return nil, nil
		},
	}))

	transport.Fire("ipc:workspace:delete", "ws-1")
	require.Equal(t, "ws-1", received)
}

func TestRegistry_DisposeTearsDownIPCRoutes(t *testing.T) {
	transport := fakes.NewTransport()
	r := NewRegistry(transport)

	var calls int
	require.NoError(t, r.Register(Method{
		Name: "x",
		IPC:  "ipc:x",
		Handler: func(context.Context, any) (any, error) {
			calls++
			return nil, nil
		},
	}))

	r.Dispose()
	transport.Fire("ipc:x", nil)
	require.Equal(t, 0, calls)
}

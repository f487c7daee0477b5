package agentctl

import (
	"errors"
	"testing"

	"github.com/corebench/workspacectl/pkg/dispatch"
	"github.com/stretchr/testify/require"
)

func TestRestartOperation_EmitsRestartedWithPort(t *testing.T) {
	d := dispatch.NewDispatcher(nil)
	require.NoError(t, d.RegisterOperation(NewRestartOperation()))
	d.HookRegistry().Register(IntentRestart, HookRestart, func(any) (any, error) { return 4821, nil })

	var restarted []RestartedEventPayload
	d.Subscribe("agent:restarted", func(ev dispatch.Event) {
		restarted = append(restarted, ev.Payload.(RestartedEventPayload))
	})

	result, err := d.Dispatch(dispatch.Intent{Type: IntentRestart, Payload: RestartPayload{WorkspacePath: "/ws/a"}}, nil)
	require.NoError(t, err)
	require.Equal(t, 4821, result)
	require.Len(t, restarted, 1)
	require.Equal(t, 4821, restarted[0].Port)
}

func TestRestartOperation_CollaboratorErrorPropagates(t *testing.T) {
	d := dispatch.NewDispatcher(nil)
	require.NoError(t, d.RegisterOperation(NewRestartOperation()))
	d.HookRegistry().Register(IntentRestart, HookRestart, func(any) (any, error) {
		return nil, errors.New("port in use")
	})

	_, err := d.Dispatch(dispatch.Intent{Type: IntentRestart, Payload: RestartPayload{WorkspacePath: "/ws/a"}}, nil)
	require.Error(t, err)
}

func TestGetSessionOperation_ReturnsContributedSession(t *testing.T) {
	d := dispatch.NewDispatcher(nil)
	require.NoError(t, d.RegisterOperation(NewGetSessionOperation()))
	d.HookRegistry().Register(IntentGetSession, HookGetSession, func(any) (any, error) {
		return Session{Port: 4821, SessionID: "sess-1"}, nil
	})

	result, err := d.Dispatch(dispatch.Intent{Type: IntentGetSession, Payload: GetSessionPayload{
		ProjectID: "P", WorkspaceName: "feature-x",
	}}, nil)
	require.NoError(t, err)
	require.Equal(t, Session{Port: 4821, SessionID: "sess-1"}, result)
}

func TestGetSessionOperation_NoContributorReturnsNil(t *testing.T) {
	d := dispatch.NewDispatcher(nil)
	require.NoError(t, d.RegisterOperation(NewGetSessionOperation()))

	result, err := d.Dispatch(dispatch.Intent{Type: IntentGetSession, Payload: GetSessionPayload{
		ProjectID: "P", WorkspaceName: "feature-x",
	}}, nil)
	require.NoError(t, err)
	require.Nil(t, result)
}

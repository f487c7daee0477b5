package dispatch

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	timeoutShort = 2 * time.Second
	tickShort    = 5 * time.Millisecond
)

func TestIdempotency_SuppressesConcurrentDuplicate(t *testing.T) {
	d := newTestDispatcher()

	release := make(chan struct{})
	var executions int
	var mu sync.Mutex

	require.NoError(t, d.RegisterOperation(OperationFunc{
		Id: "workspace:delete",
		Fn: func(*OperationContext) (any, error) {
			mu.Lock()
			executions++
			mu.Unlock()
			<-release
			return nil, nil
		},
	}))

	idem := NewIdempotencyInterceptor("idempotency", 0, []IdempotencyRule{
		{
			IntentType: "workspace:delete",
			GetKey:     func(payload any) string { return payload.(string) },
		},
	})
	d.AddInterceptor(idem)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = d.Dispatch(Intent{Type: "workspace:delete", Payload: "ws-1"}, nil)
	}()

	require.Eventually(t, func() bool {
		return idem.IsInFlight("workspace:delete", "ws-1")
	}, timeoutShort, tickShort)

	result, err := d.Dispatch(Intent{Type: "workspace:delete", Payload: "ws-1"}, nil)
	require.NoError(t, err)
	require.Nil(t, result, "duplicate in-flight dispatch is cancelled, not executed")

	close(release)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 1, executions)
}

func TestIdempotency_ForcedBypassesSuppression(t *testing.T) {
	d := newTestDispatcher()
	release := make(chan struct{})
	var executions int
	var mu sync.Mutex

	require.NoError(t, d.RegisterOperation(OperationFunc{
		Id: "workspace:delete",
		Fn: func(*OperationContext) (any, error) {
			mu.Lock()
			executions++
			n := executions
			mu.Unlock()
			if n == 1 {
				<-release
			}
			return nil, nil
		},
	}))

	idem := NewIdempotencyInterceptor("idempotency", 0, []IdempotencyRule{
		{
			IntentType: "workspace:delete",
			GetKey:     func(payload any) string { return payload.(map[string]any)["id"].(string) },
			IsForced:   func(intent Intent) bool { return intent.Payload.(map[string]any)["force"] == true },
		},
	})
	d.AddInterceptor(idem)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = d.Dispatch(Intent{Type: "workspace:delete", Payload: map[string]any{"id": "ws-1", "force": false}}, nil)
	}()

	require.Eventually(t, func() bool {
		return idem.IsInFlight("workspace:delete", "ws-1")
	}, timeoutShort, tickShort)

	_, err := d.Dispatch(Intent{Type: "workspace:delete", Payload: map[string]any{"id": "ws-1", "force": true}}, nil)
	require.NoError(t, err)

	close(release)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 2, executions, "a forced duplicate still executes despite the in-flight original")
}

func TestIdempotency_ClearsImmediatelyWhenNoResetOn(t *testing.T) {
	d := newTestDispatcher()
	require.NoError(t, d.RegisterOperation(OperationFunc{
		Id: "workspace:open",
		Fn: func(*OperationContext) (any, error) { return "opened", nil },
	}))

	idem := NewIdempotencyInterceptor("idempotency", 0, []IdempotencyRule{
		{IntentType: "workspace:open", GetKey: func(p any) string { return p.(string) }},
	})
	d.AddInterceptor(idem)

	_, err := d.Dispatch(Intent{Type: "workspace:open", Payload: "ws-1"}, nil)
	require.NoError(t, err)
	require.False(t, idem.IsInFlight("workspace:open", "ws-1"), "no resetOn means the key clears right after Execute succeeds")
}

func TestIdempotency_HoldsUntilResetOnEventWhenConfigured(t *testing.T) {
	d := newTestDispatcher()
	require.NoError(t, d.RegisterOperation(OperationFunc{
		Id: "workspace:delete",
		Fn: func(octx *OperationContext) (any, error) {
			octx.Emit(Event{Type: "workspace:deleted", Payload: "ws-1"})
			return nil, nil
		},
	}))

	idem := NewIdempotencyInterceptor("idempotency", 0, []IdempotencyRule{
		{
			IntentType: "workspace:delete",
			GetKey:     func(p any) string { return p.(string) },
			ResetOn:    "workspace:deleted",
		},
	})
	d.AddInterceptor(idem)
	d.Subscribe("workspace:deleted", idem.HandleEvent)

	_, err := d.Dispatch(Intent{Type: "workspace:delete", Payload: "ws-1"}, nil)
	require.NoError(t, err)
	require.False(t, idem.IsInFlight("workspace:delete", "ws-1"), "resetOn event subscriber clears the key on publication")
}

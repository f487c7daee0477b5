package dispatch

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestDispatcher() *Dispatcher {
	return NewDispatcher(NewHookRegistry())
}

func TestDispatcher_UnregisteredIntentIsProgrammingError(t *testing.T) {
	d := newTestDispatcher()
	_, err := d.Dispatch(Intent{Type: "nope"}, nil)
	require.Error(t, err)
}

func TestDispatcher_EventsPublishOnlyAfterSuccess(t *testing.T) {
	d := newTestDispatcher()
	var received []string
	d.Subscribe("thing:created", func(ev Event) {
		received = append(received, fmt.Sprint(ev.Payload))
	})

	require.NoError(t, d.RegisterOperation(OperationFunc{
		Id: "thing:create",
		Fn: func(octx *OperationContext) (any, error) {
			octx.Emit(Event{Type: "thing:created", Payload: "ok"})
			return "done", nil
		},
	}))

	result, err := d.Dispatch(Intent{Type: "thing:create"}, nil)
	require.NoError(t, err)
	require.Equal(t, "done", result)
	require.Equal(t, []string{"ok"}, received)
}

func TestDispatcher_FailedExecuteNeverPublishesItsEvents(t *testing.T) {
	d := newTestDispatcher()
	var received []string
	d.Subscribe("thing:created", func(ev Event) {
		received = append(received, fmt.Sprint(ev.Payload))
	})

	require.NoError(t, d.RegisterOperation(OperationFunc{
		Id: "thing:create",
		Fn: func(octx *OperationContext) (any, error) {
			octx.Emit(Event{Type: "thing:created", Payload: "ok"})
			return nil, fmt.Errorf("boom")
		},
	}))

	_, err := d.Dispatch(Intent{Type: "thing:create"}, nil)
	require.Error(t, err)
	require.Empty(t, received)
}

func TestDispatcher_InterceptorCanCancelDispatch(t *testing.T) {
	d := newTestDispatcher()
	var executed bool
	require.NoError(t, d.RegisterOperation(OperationFunc{
		Id: "thing:create",
		Fn: func(octx *OperationContext) (any, error) {
			executed = true
			return nil, nil
		},
	}))
	d.AddInterceptor(&FuncInterceptor{
		Id:       "blocker",
		OrderVal: 0,
		BeforeFn: func(Intent) (*Intent, error) { return nil, nil },
	})

	result, err := d.Dispatch(Intent{Type: "thing:create"}, nil)
	require.NoError(t, err)
	require.Nil(t, result)
	require.False(t, executed, "operation must not run once an interceptor cancels")
}

func TestDispatcher_InterceptorsRunInOrderAscending(t *testing.T) {
	d := newTestDispatcher()
	var order []string
	require.NoError(t, d.RegisterOperation(OperationFunc{
		Id: "noop",
		Fn: func(octx *OperationContext) (any, error) { return nil, nil },
	}))
	d.AddInterceptor(&FuncInterceptor{
		Id: "second", OrderVal: 10,
		BeforeFn: func(intent Intent) (*Intent, error) {
			order = append(order, "second")
			return &intent, nil
		},
	})
	d.AddInterceptor(&FuncInterceptor{
		Id: "first", OrderVal: 1,
		BeforeFn: func(intent Intent) (*Intent, error) {
			order = append(order, "first")
			return &intent, nil
		},
	})

	_, err := d.Dispatch(Intent{Type: "noop"}, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"first", "second"}, order)
}

func TestDispatcher_NestedDispatchEventsSurfaceBeforeOuter(t *testing.T) {
	d := newTestDispatcher()
	var order []string
	d.Subscribe("inner:done", func(Event) { order = append(order, "inner") })
	d.Subscribe("outer:done", func(Event) { order = append(order, "outer") })

	require.NoError(t, d.RegisterOperation(OperationFunc{
		Id: "inner:op",
		Fn: func(octx *OperationContext) (any, error) {
			octx.Emit(Event{Type: "inner:done"})
			return nil, nil
		},
	}))
	require.NoError(t, d.RegisterOperation(OperationFunc{
		Id: "outer:op",
		Fn: func(octx *OperationContext) (any, error) {
			_, err := octx.Dispatch(Intent{Type: "inner:op"})
			if err != nil {
				return nil, err
			}
			octx.Emit(Event{Type: "outer:done"})
			return nil, nil
		},
	}))

	_, err := d.Dispatch(Intent{Type: "outer:op"}, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"inner", "outer"}, order)
}

func TestDispatcher_NestedDispatchExtendsCausation(t *testing.T) {
	d := newTestDispatcher()
	var sawCausation []string

	require.NoError(t, d.RegisterOperation(OperationFunc{
		Id: "inner:op",
		Fn: func(octx *OperationContext) (any, error) {
			sawCausation = octx.Causation
			return nil, nil
		},
	}))
	require.NoError(t, d.RegisterOperation(OperationFunc{
		Id: "outer:op",
		Fn: func(octx *OperationContext) (any, error) {
			return octx.Dispatch(Intent{Type: "inner:op"})
		},
	}))

	_, err := d.Dispatch(Intent{Type: "outer:op"}, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"outer:op"}, sawCausation)
}

func TestDispatcher_SubscribeUnsubscribeStopsDelivery(t *testing.T) {
	d := newTestDispatcher()
	var count int
	unsub := d.Subscribe("x", func(Event) { count++ })

	require.NoError(t, d.RegisterOperation(OperationFunc{
		Id: "emit",
		Fn: func(octx *OperationContext) (any, error) {
			octx.Emit(Event{Type: "x"})
			return nil, nil
		},
	}))

	_, err := d.Dispatch(Intent{Type: "emit"}, nil)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	unsub()

	_, err = d.Dispatch(Intent{Type: "emit"}, nil)
	require.NoError(t, err)
	require.Equal(t, 1, count, "handler must not fire after unsubscribe")
}

func TestDispatcher_SubscriberPanicIsIsolated(t *testing.T) {
	d := newTestDispatcher()
	var secondRan bool
	d.Subscribe("x", func(Event) { panic("boom") })
	d.Subscribe("x", func(Event) { secondRan = true })

	require.NoError(t, d.RegisterOperation(OperationFunc{
		Id: "emit",
		Fn: func(octx *OperationContext) (any, error) {
			octx.Emit(Event{Type: "x"})
			return "ok", nil
		},
	}))

	result, err := d.Dispatch(Intent{Type: "emit"}, nil)
	require.NoError(t, err)
	require.Equal(t, "ok", result)
	require.True(t, secondRan, "a panicking subscriber must not block the next subscriber")
}

func TestDispatcher_DuplicateOperationRegistrationIsProgrammingError(t *testing.T) {
	d := newTestDispatcher()
	op1 := OperationFunc{Id: "x", Fn: func(*OperationContext) (any, error) { return nil, nil }}
	op2 := OperationFunc{Id: "x", Fn: func(*OperationContext) (any, error) { return nil, nil }}

	require.NoError(t, d.RegisterOperation(op1))
	require.Error(t, d.RegisterOperation(op2))
}

func TestDispatch_GenericHelper_TypedResult(t *testing.T) {
	d := newTestDispatcher()
	require.NoError(t, d.RegisterOperation(OperationFunc{
		Id: "count",
		Fn: func(*OperationContext) (any, error) { return 42, nil },
	}))

	result, ok, err := Dispatch[int](d, Intent{Type: "count"}, nil)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 42, result)
}

func TestDispatch_GenericHelper_TypeMismatchErrors(t *testing.T) {
	d := newTestDispatcher()
	require.NoError(t, d.RegisterOperation(OperationFunc{
		Id: "count",
		Fn: func(*OperationContext) (any, error) { return "not an int", nil },
	}))

	_, ok, err := Dispatch[int](d, Intent{Type: "count"}, nil)
	require.Error(t, err)
	require.False(t, ok)
}

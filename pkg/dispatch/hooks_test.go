package dispatch

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHookRegistry_CollectRunsInInsertionOrder(t *testing.T) {
	registry := NewHookRegistry()
	var order []int
	for idx := 0; idx < 5; idx++ {
		i := idx
		registry.Register("op", "point", func(any) (any, error) {
			order = append(order, i)
			return nil, nil
		})
	}

	resolved := registry.Resolve("op")
	resolved.Collect("point", nil)

	require.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestHookRegistry_CollectEmptyPointReturnsEmpty(t *testing.T) {
	registry := NewHookRegistry()
	resolved := registry.Resolve("op")
	out := resolved.Collect("missing", nil)

	require.Empty(t, out.Results)
	require.Empty(t, out.Errors)
}

func TestHookRegistry_NonAbortOnError(t *testing.T) {
	registry := NewHookRegistry()
	var ran []int
	registry.Register("op", "point", func(any) (any, error) {
		ran = append(ran, 0)
		return "first", nil
	})
	registry.Register("op", "point", func(any) (any, error) {
		ran = append(ran, 1)
		return nil, fmt.Errorf("boom")
	})
	registry.Register("op", "point", func(any) (any, error) {
		ran = append(ran, 2)
		return "third", nil
	})

	resolved := registry.Resolve("op")
	out := resolved.Collect("point", nil)

	require.Equal(t, []int{0, 1, 2}, ran, "handler 2 runs even though handler 1 threw")
	require.Len(t, out.Errors, 1)
	require.EqualError(t, out.Errors[0], "boom")
	require.Equal(t, []any{"first", "third"}, out.Results)
}

func TestResolvedHooks_FrozenInputRejectsMutation(t *testing.T) {
	registry := NewHookRegistry()
	registry.Register("op", "point", func(input any) (any, error) {
		frozen := input.(FrozenMap)
		require.Panics(t, func() {
			frozen.Set("x", "y")
		})
		return nil, nil
	})

	resolved := registry.Resolve("op")
	resolved.Collect("point", map[string]any{"workspacePath": "/tmp/a"})
}

func TestResolvedHooks_InputCloneDoesNotLeakAcrossHandlers(t *testing.T) {
	registry := NewHookRegistry()
	var seenByB any
	registry.Register("op", "point", func(input any) (any, error) {
		return nil, nil
	})
	registry.Register("op", "point", func(input any) (any, error) {
		fm := input.(FrozenMap)
		v, _ := fm.Get("workspacePath")
		seenByB = v
		return nil, nil
	})

	resolved := registry.Resolve("op")
	resolved.Collect("point", map[string]any{"workspacePath": "/tmp/ws"})

	require.Equal(t, "/tmp/ws", seenByB)
}

func TestHookRegistry_MissingAndEmptyResultAreEquivalent(t *testing.T) {
	registry := NewHookRegistry()
	registry.Register("op", "point", func(any) (any, error) { return nil, nil })
	registry.Register("op", "point", func(any) (any, error) { return map[string]any{}, nil })

	resolved := registry.Resolve("op")
	out := resolved.Collect("point", nil)

	require.Empty(t, out.Results, "nil and empty map both count as no contribution")
}

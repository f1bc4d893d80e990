package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func view(kind string, props map[string]any, children ...any) map[string]any {
	if props == nil {
		props = map[string]any{}
	}
	if children == nil {
		children = []any{}
	}
	return map[string]any{"kind": kind, "key": "", "props": props, "children": children}
}

func TestHost_AppliesPatchesInOrder(t *testing.T) {
	ctx := context.Background()
	h := memory.NewHost()

	require.NoError(t, h.Update(ctx, domain.HostCall{BoundaryID: 0, Patches: []domain.Patch{
		{Op: domain.OpMount, Value: view("page", nil, view("a", nil), view("b", nil))},
	}}))

	err := h.Update(ctx, domain.HostCall{BoundaryID: 0, Patches: []domain.Patch{
		{Op: domain.OpSet, Path: "props.title", Value: "hi"},
		{Op: domain.OpInsert, Path: "children[2]", Value: view("c", nil)},
		{Op: domain.OpMove, Path: "children[0]", From: "children[2]"},
		{Op: domain.OpRemove, Path: "children[1]"},
		{Op: domain.OpSet, Path: "children[1].props.n", Value: "x"},
	}})
	require.NoError(t, err)

	v, ok := h.View(0)
	require.True(t, ok)
	assert.Equal(t, "hi", v["props"].(map[string]any)["title"])
	children := v["children"].([]any)
	require.Len(t, children, 2)
	assert.Equal(t, "c", children[0].(map[string]any)["kind"])
	assert.Equal(t, "b", children[1].(map[string]any)["kind"])
	assert.Equal(t, "x", children[1].(map[string]any)["props"].(map[string]any)["n"])
}

func TestHost_CallIsAtomic(t *testing.T) {
	ctx := context.Background()
	h := memory.NewHost()
	require.NoError(t, h.Update(ctx, domain.HostCall{BoundaryID: 3, Patches: []domain.Patch{
		{Op: domain.OpMount, Value: view("view", map[string]any{"n": 1})},
	}}))

	err := h.Update(ctx, domain.HostCall{BoundaryID: 3, Patches: []domain.Patch{
		{Op: domain.OpSet, Path: "props.n", Value: 2},
		{Op: domain.OpRemove, Path: "children[5]"},
	}})
	require.Error(t, err)

	v, _ := h.View(3)
	assert.EqualValues(t, 1, v["props"].(map[string]any)["n"])
}

func TestHost_UnknownBoundaryAndInjectedFailure(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("rejected")
	h := memory.NewHost(memory.WithFailure(func(c domain.HostCall) error {
		if c.BoundaryID == 9 {
			return boom
		}
		return nil
	}))

	err := h.Update(ctx, domain.HostCall{BoundaryID: 1, Patches: []domain.Patch{{Op: domain.OpSet, Path: "props.x", Value: 1}}})
	assert.Error(t, err)

	err = h.Update(ctx, domain.HostCall{BoundaryID: 9, Patches: []domain.Patch{{Op: domain.OpMount, Value: view("x", nil)}}})
	assert.ErrorIs(t, err, boom)
	_, ok := h.View(9)
	assert.False(t, ok)
	assert.Len(t, h.Calls(), 2)
}

func TestHost_RemovingPageRootDropsView(t *testing.T) {
	ctx := context.Background()
	h := memory.NewHost()
	require.NoError(t, h.Update(ctx, domain.HostCall{Patches: []domain.Patch{
		{Op: domain.OpMount, Value: view("page", nil)},
		{Op: domain.OpRemove},
	}}))
	assert.Empty(t, h.Views())
}

func TestHost_RemovingStubDropsNestedViews(t *testing.T) {
	ctx := context.Background()
	h := memory.NewHost()
	stub := func(id domain.BoundaryID) map[string]any {
		return map[string]any{"kind": "boundary", "key": "", "boundary": id}
	}

	require.NoError(t, h.Update(ctx, domain.HostCall{BoundaryID: 0, Patches: []domain.Patch{
		{Op: domain.OpMount, Value: view("page", nil, stub(1), stub(3))},
	}}))
	require.NoError(t, h.Update(ctx, domain.HostCall{BoundaryID: 1, Patches: []domain.Patch{
		{Op: domain.OpMount, Value: view("boundary", nil, stub(2))},
	}}))
	require.NoError(t, h.Update(ctx, domain.HostCall{BoundaryID: 2, Patches: []domain.Patch{
		{Op: domain.OpMount, Value: view("text", nil)},
	}}))
	require.NoError(t, h.Update(ctx, domain.HostCall{BoundaryID: 3, Patches: []domain.Patch{
		{Op: domain.OpMount, Value: view("text", nil)},
	}}))
	require.Len(t, h.Views(), 4)

	require.NoError(t, h.Update(ctx, domain.HostCall{BoundaryID: 0, Patches: []domain.Patch{
		{Op: domain.OpRemove, Path: "children[0]"},
	}}))

	for _, id := range []domain.BoundaryID{1, 2} {
		_, ok := h.View(id)
		assert.False(t, ok, "view of boundary %d kept", id)
	}
	_, ok := h.View(3)
	assert.True(t, ok)
	assert.Len(t, h.Views(), 2)
}

func TestHost_MovingStubKeepsView(t *testing.T) {
	ctx := context.Background()
	h := memory.NewHost()
	stub := map[string]any{"kind": "boundary", "key": "m", "boundary": 1}

	require.NoError(t, h.Update(ctx, domain.HostCall{BoundaryID: 0, Patches: []domain.Patch{
		{Op: domain.OpMount, Value: view("page", nil, view("a", nil), stub)},
	}}))
	require.NoError(t, h.Update(ctx, domain.HostCall{BoundaryID: 1, Patches: []domain.Patch{
		{Op: domain.OpMount, Value: view("boundary", nil)},
	}}))
	require.NoError(t, h.Update(ctx, domain.HostCall{BoundaryID: 0, Patches: []domain.Patch{
		{Op: domain.OpMove, Path: "children[0]", From: "children[1]"},
	}}))

	_, ok := h.View(1)
	assert.True(t, ok)
}

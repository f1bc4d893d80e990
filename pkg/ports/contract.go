package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSnapshotStoreContract runs a suite of tests to verify that a SnapshotStore
// implementation adheres to the defined interface contract.
func RunSnapshotStoreContract(t *testing.T, store SnapshotStore) {
	ctx := context.Background()
	pageID := "contract-test-page-" + time.Now().Format("20060102150405")

	newSnapshot := func(id string) *domain.Snapshot {
		return &domain.Snapshot{
			PageID:  id,
			Version: 3,
			Tree: &domain.Node{
				Kind:  "page",
				Props: domain.Props{"title": "hello"},
				Children: []*domain.Node{
					{Kind: "text", Key: "a", Props: domain.Props{"content": "x"}},
					{Kind: domain.KindBoundary, Children: []*domain.Node{{Kind: "text"}}},
				},
			},
			Boundaries: []domain.Boundary{
				{ID: domain.PageBoundary, Cause: domain.CausePage, RootKind: "page"},
				{ID: 1, Cause: domain.CauseMarker, Root: domain.Root.Child(1), RootKind: domain.KindBoundary, Depth: 1},
			},
			UpdatedAt: time.Now().UTC().Truncate(time.Second),
		}
	}

	t.Run("Save and Load", func(t *testing.T) {
		snap := newSnapshot(pageID)

		err := store.Save(ctx, pageID, snap)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, pageID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, snap.Version, loaded.Version)
		require.NotNil(t, loaded.Tree)
		assert.Equal(t, domain.Kind("page"), loaded.Tree.Kind)
		assert.Equal(t, "hello", loaded.Tree.Props["title"])
		require.Len(t, loaded.Tree.Children, 2)
		assert.Equal(t, "a", loaded.Tree.Children[0].Key)
		require.Len(t, loaded.Boundaries, 2)
		assert.Equal(t, "children[1]", loaded.Boundaries[1].Root.String())
		assert.True(t, snap.UpdatedAt.Equal(loaded.UpdatedAt))
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+pageID)
		assert.ErrorIs(t, err, domain.ErrPageNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, pageID, newSnapshot(pageID))
		require.NoError(t, err)

		err = store.Delete(ctx, pageID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, pageID)
		assert.ErrorIs(t, err, domain.ErrPageNotFound, "Load after Delete should return ErrPageNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := pageID + "-1"
		id2 := pageID + "-2"
		_ = store.Save(ctx, id1, newSnapshot(id1))
		_ = store.Save(ctx, id2, newSnapshot(id2))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		pages, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, pages, id1)
		assert.Contains(t, pages, id2)
	})
}

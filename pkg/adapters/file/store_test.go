package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/arbor/pkg/adapters/file"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_Contract(t *testing.T) {
	ports.RunSnapshotStoreContract(t, file.New(t.TempDir()))
}

func TestFileStore_AtomicOverwrite(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "p", &domain.Snapshot{PageID: "p", Version: 1, Tree: &domain.Node{Kind: "page"}}))
	require.NoError(t, store.Save(ctx, "p", &domain.Snapshot{PageID: "p", Version: 2, Tree: &domain.Node{Kind: "page"}}))

	loaded, err := store.Load(ctx, "p")
	require.NoError(t, err)
	assert.EqualValues(t, 2, loaded.Version)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must not be left behind")
	assert.Equal(t, "p.json", entries[0].Name())
}

func TestFileStore_ListSkipsForeignFiles(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	require.NoError(t, store.Save(context.Background(), "a", &domain.Snapshot{PageID: "a"}))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), nil, 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.json"), 0o755))

	ids, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids)
}

func TestFileStore_EmptyDirAndInvalidIDs(t *testing.T) {
	store := file.New(filepath.Join(t.TempDir(), "missing"))
	ctx := context.Background()

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	for _, id := range []string{"", "..", "a/b"} {
		assert.ErrorIs(t, store.Save(ctx, id, &domain.Snapshot{}), file.ErrInvalidPageID, id)
		_, err := store.Load(ctx, id)
		assert.ErrorIs(t, err, file.ErrInvalidPageID, id)
	}
}

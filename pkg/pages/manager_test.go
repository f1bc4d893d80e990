package pages_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/dsl"
	"github.com/aretw0/arbor/pkg/pages"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type hostRecorder struct {
	mu    sync.Mutex
	hosts map[string][]*memory.Host
}

func (r *hostRecorder) factory(pageID string) ports.Host {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.hosts == nil {
		r.hosts = make(map[string][]*memory.Host)
	}
	h := memory.NewHost()
	r.hosts[pageID] = append(r.hosts[pageID], h)
	return h
}

func (r *hostRecorder) last(pageID string) *memory.Host {
	r.mu.Lock()
	defer r.mu.Unlock()
	hs := r.hosts[pageID]
	return hs[len(hs)-1]
}

func list(n int) *domain.Node {
	return dsl.List("list", n, true).Build()
}

func TestManager_CreateUpdateGet(t *testing.T) {
	ctx := context.Background()
	rec := &hostRecorder{}
	mgr := pages.NewManager(memory.NewStore(), pages.WithHostFactory(rec.factory))

	id, report, err := mgr.Create(ctx, list(3))
	require.NoError(t, err)
	require.NotEmpty(t, id)
	assert.Len(t, report.Calls, 1)

	report, err = mgr.Update(ctx, id, list(2))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Mutations)

	snap, err := mgr.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, snap.PageID)
	assert.Equal(t, uint64(2), snap.Version)
	assert.Len(t, snap.Tree.Children, 2)

	stored, err := mgr.Store().Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), stored.Version)

	ids, err := mgr.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{id}, ids)
}

func TestManager_RestoreIsFreshMount(t *testing.T) {
	ctx := context.Background()
	rec := &hostRecorder{}
	mgr := pages.NewManager(memory.NewStore(), pages.WithHostFactory(rec.factory))

	id, _, err := mgr.Create(ctx, list(3))
	require.NoError(t, err)
	mgr.Evict(id)

	_, err = mgr.Update(ctx, id, list(4))
	require.NoError(t, err)

	require.Len(t, rec.hosts[id], 2)
	h := rec.last(id)
	calls := h.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, domain.OpMount, calls[0].Patches[0].Op)

	page, ok := h.View(domain.PageBoundary)
	require.True(t, ok)
	assert.Len(t, page["children"], 4)
}

func TestManager_RestoreKeepsIssuingFreshIDs(t *testing.T) {
	ctx := context.Background()
	host := memory.NewHost()
	store := memory.NewStore()
	mgr := pages.NewManager(store, pages.WithHostFactory(func(string) ports.Host { return host }))

	marked := func(key string) *domain.Node {
		return dsl.New("page").Child(dsl.Boundary().Key(key).Child(dsl.Text(key))).Build()
	}

	id, _, err := mgr.Create(ctx, marked("a"))
	require.NoError(t, err)
	_, err = mgr.Update(ctx, id, marked("b"))
	require.NoError(t, err)

	mgr.Evict(id)
	_, err = mgr.Update(ctx, id, marked("c"))
	require.NoError(t, err)

	var mounted []domain.BoundaryID
	for _, call := range host.Calls() {
		if call.BoundaryID == domain.PageBoundary {
			continue
		}
		if call.Patches[0].Op == domain.OpMount {
			mounted = append(mounted, call.BoundaryID)
		}
	}
	// a, b, b restored, c
	assert.Equal(t, []domain.BoundaryID{1, 2, 3, 4}, mounted)

	snap, err := store.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.BoundaryID(5), snap.NextBoundary)
}

func TestManager_Delete(t *testing.T) {
	ctx := context.Background()
	rec := &hostRecorder{}
	mgr := pages.NewManager(memory.NewStore(), pages.WithHostFactory(rec.factory))

	id, _, err := mgr.Create(ctx, list(1))
	require.NoError(t, err)
	require.NoError(t, mgr.Delete(ctx, id))

	_, err = mgr.Get(ctx, id)
	assert.ErrorIs(t, err, domain.ErrPageNotFound)
	assert.Empty(t, rec.last(id).Views())
}

func TestManager_UnknownPage(t *testing.T) {
	mgr := pages.NewManager(memory.NewStore())
	_, err := mgr.Update(context.Background(), "missing", list(1))
	assert.ErrorIs(t, err, domain.ErrPageNotFound)
}

func TestManager_KeyCollisionCreatesNothing(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	mgr := pages.NewManager(store)

	bad := dsl.New("list").Child(dsl.Text("a").Key("x"), dsl.Text("b").Key("x")).Build()
	_, _, err := mgr.Create(ctx, bad)
	assert.ErrorIs(t, err, domain.ErrKeyCollision)

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestManager_HostFailureStillCommits(t *testing.T) {
	ctx := context.Background()
	failing := func(string) ports.Host {
		return ports.HostFunc(func(context.Context, domain.HostCall) error { return assert.AnError })
	}
	mgr := pages.NewManager(memory.NewStore(), pages.WithHostFactory(failing))

	id, _, err := mgr.Create(ctx, list(1))
	assert.ErrorIs(t, err, domain.ErrHostCall)
	require.NotEmpty(t, id)

	snap, err := mgr.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), snap.Version)
}

type recordingLocker struct {
	mu   sync.Mutex
	keys []string
}

func (l *recordingLocker) Lock(_ context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.keys = append(l.keys, key)
	return func(context.Context) error { return nil }, nil
}

func TestManager_DistributedLocker(t *testing.T) {
	ctx := context.Background()
	locker := &recordingLocker{}
	mgr := pages.NewManager(memory.NewStore(), pages.WithLocker(locker), pages.WithLockTTL(time.Second))

	id, _, err := mgr.Create(ctx, list(1))
	require.NoError(t, err)
	_, err = mgr.Update(ctx, id, list(2))
	require.NoError(t, err)

	assert.Equal(t, []string{"page:" + id, "page:" + id}, locker.keys)
}

func TestManager_ConcurrentUpdatesSerialize(t *testing.T) {
	ctx := context.Background()
	mgr := pages.NewManager(memory.NewStore())
	id, _, err := mgr.Create(ctx, list(1))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := mgr.Update(ctx, id, list(n%4+1))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	snap, err := mgr.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, uint64(11), snap.Version)
}

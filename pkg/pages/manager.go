package pages

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/scheduler"
	"github.com/google/uuid"
)

// DefaultLockTTL bounds how long a distributed page lock survives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// HostFactory returns the host that receives the update calls of one page.
type HostFactory func(pageID string) ports.Host

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates page access, ensuring passes of one page never overlap.
// It uses reference counting to garbage collect unused locks.
type Manager struct {
	store   ports.SnapshotStore
	newHost HostFactory
	opts    []arbor.Option

	mu      sync.Mutex
	locks   map[string]*lockEntry
	engines map[string]*arbor.Engine

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
}

var _ ports.PageService = (*Manager)(nil)

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the TTL of distributed page locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithHostFactory sets the host of each page. The default gives every page
// its own in-memory host simulator.
func WithHostFactory(f HostFactory) Option {
	return func(m *Manager) {
		m.newHost = f
	}
}

// WithEngineOptions sets options applied to every page engine. The flush mode
// is always forced to sync.
func WithEngineOptions(opts ...arbor.Option) Option {
	return func(m *Manager) {
		m.opts = append(m.opts, opts...)
	}
}

// NewManager creates a page manager persisting snapshots to store.
func NewManager(store ports.SnapshotStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		engines: make(map[string]*arbor.Engine),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
		newHost: func(string) ports.Host { return memory.NewHost() },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller must lock entry.mu and call release(pageID) after unlocking.
func (m *Manager) acquire(pageID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.locks[pageID]
	if !ok {
		entry = &lockEntry{}
		m.locks[pageID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry at zero.
func (m *Manager) release(pageID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.locks[pageID]
	if !ok {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, pageID)
	}
}

// WithLock executes fn while holding the lock of the page.
func (m *Manager) WithLock(ctx context.Context, pageID string, fn func(context.Context) error) error {
	entry := m.acquire(pageID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(pageID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, "page:"+pageID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"page_id", pageID,
					"err", err,
				)
			}
		}()
	}
	return fn(ctx)
}

func (m *Manager) newEngine(pageID string, extra ...arbor.Option) *arbor.Engine {
	opts := append([]arbor.Option{
		arbor.WithHost(m.newHost(pageID)),
		arbor.WithLogger(m.logger.With("page_id", pageID)),
	}, m.opts...)
	opts = append(opts, extra...)
	opts = append(opts, arbor.WithFlushMode(scheduler.FlushSync))
	return arbor.New(opts...)
}

func (m *Manager) resident(pageID string) *arbor.Engine {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.engines[pageID]
}

func (m *Manager) keep(pageID string, eng *arbor.Engine) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if eng == nil {
		delete(m.engines, pageID)
		return
	}
	m.engines[pageID] = eng
}

// engine returns the resident engine of the page, restoring it from its
// snapshot when needed. Caller holds the page lock.
func (m *Manager) engine(ctx context.Context, pageID string) (*arbor.Engine, error) {
	if eng := m.resident(pageID); eng != nil {
		return eng, nil
	}
	snap, err := m.store.Load(ctx, pageID)
	if err != nil {
		return nil, err
	}
	// Ids keep counting from the snapshot; the host may still hold views
	// of boundaries issued before the page was evicted.
	eng := m.newEngine(pageID, arbor.WithFirstBoundaryID(snap.NextBoundary))
	if snap.Tree != nil {
		if _, err := eng.Render(ctx, snap.Tree); err != nil && !errors.Is(err, domain.ErrHostCall) {
			return nil, fmt.Errorf("restore page %s: %w", pageID, err)
		}
		m.logger.Info("page restored", "page_id", pageID, "version", snap.Version)
	}
	m.keep(pageID, eng)
	return eng, nil
}

// save persists the committed snapshot of eng.
func (m *Manager) save(ctx context.Context, pageID string, eng *arbor.Engine) error {
	snap := eng.Snapshot()
	snap.PageID = pageID
	if err := m.store.Save(ctx, pageID, snap); err != nil {
		return fmt.Errorf("save page %s: %w", pageID, err)
	}
	return nil
}

// Create mounts tree as a new page. Host call failures still create the page;
// the joined error is returned along with the ID.
func (m *Manager) Create(ctx context.Context, tree *domain.Node) (string, *domain.PassReport, error) {
	id := uuid.NewString()
	var report *domain.PassReport
	var passErr error
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		eng := m.newEngine(id)
		report, passErr = eng.Render(ctx, tree)
		if passErr != nil && !errors.Is(passErr, domain.ErrHostCall) {
			return passErr
		}
		m.keep(id, eng)
		return m.save(ctx, id, eng)
	})
	if err != nil {
		return "", nil, err
	}
	return id, report, passErr
}

// Update runs one pass of the page against tree.
func (m *Manager) Update(ctx context.Context, pageID string, tree *domain.Node) (*domain.PassReport, error) {
	var report *domain.PassReport
	var passErr error
	err := m.WithLock(ctx, pageID, func(ctx context.Context) error {
		eng, err := m.engine(ctx, pageID)
		if err != nil {
			return err
		}
		report, passErr = eng.Render(ctx, tree)
		if passErr != nil && !errors.Is(passErr, domain.ErrHostCall) {
			return passErr
		}
		return m.save(ctx, pageID, eng)
	})
	if err != nil {
		return nil, err
	}
	return report, passErr
}

// Get returns the committed snapshot of the page.
func (m *Manager) Get(ctx context.Context, pageID string) (*domain.Snapshot, error) {
	if eng := m.resident(pageID); eng != nil {
		snap := eng.Snapshot()
		snap.PageID = pageID
		return snap, nil
	}
	return m.store.Load(ctx, pageID)
}

// Engine returns the page engine, restoring it if needed.
func (m *Manager) Engine(ctx context.Context, pageID string) (*arbor.Engine, error) {
	var eng *arbor.Engine
	err := m.WithLock(ctx, pageID, func(ctx context.Context) error {
		var err error
		eng, err = m.engine(ctx, pageID)
		return err
	})
	return eng, err
}

// Delete unmounts the page from its host and drops its snapshot.
func (m *Manager) Delete(ctx context.Context, pageID string) error {
	return m.WithLock(ctx, pageID, func(ctx context.Context) error {
		if eng := m.resident(pageID); eng != nil {
			if _, err := eng.Render(ctx, nil); err != nil {
				m.logger.Warn("unmount failed", "page_id", pageID, "err", err)
			}
			m.keep(pageID, nil)
		}
		return m.store.Delete(ctx, pageID)
	})
}

// Evict drops the resident engine of the page without touching its snapshot.
// The next access restores it with a fresh mount.
func (m *Manager) Evict(pageID string) {
	m.keep(pageID, nil)
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying snapshot store.
func (m *Manager) Store() ports.SnapshotStore {
	return m.store
}

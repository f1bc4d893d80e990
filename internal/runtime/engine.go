package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/boundary"
	"github.com/aretw0/arbor/pkg/diff"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/patchpath"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/scheduler"
	"github.com/aretw0/arbor/pkg/schema"
)

// Engine runs reconciliation passes: diff, partition, encode, batch, flush.
// Passes are single-writer; read accessors may be called concurrently.
type Engine struct {
	differ *diff.Engine
	sched  *scheduler.Scheduler
	hooks  domain.LifecycleHooks
	logger *slog.Logger

	schema    schema.Registry
	threshold int

	mu        sync.RWMutex
	part      *boundary.Partitioner
	enc       *patchpath.Encoder
	prev      *domain.Node
	committed []domain.Boundary
	version   uint64
	resync    bool
}

type config struct {
	schema     schema.Registry
	comparator diff.Comparator
	threshold  int
	firstID    domain.BoundaryID
	parallel   int
	hooks      domain.LifecycleHooks
	logger     *slog.Logger
}

// EngineOption configures the runtime Engine.
type EngineOption func(*config)

// WithSchema sets the recognized prop schema.
func WithSchema(reg schema.Registry) EngineOption {
	return func(c *config) { c.schema = reg }
}

// WithComparator replaces the shallow prop comparison.
func WithComparator(cmp diff.Comparator) EngineOption {
	return func(c *config) { c.comparator = cmp }
}

// WithThreshold sets the partitioner's local depth limit.
func WithThreshold(t int) EngineOption {
	return func(c *config) { c.threshold = t }
}

// WithFirstBoundaryID sets the first id the partitioner issues. Restored pages
// pass the next id of their snapshot so a host never sees an id twice.
func WithFirstBoundaryID(id domain.BoundaryID) EngineOption {
	return func(c *config) { c.firstID = id }
}

// WithParallelDispatch bounds concurrent host calls of one pass.
func WithParallelDispatch(n int) EngineOption {
	return func(c *config) { c.parallel = n }
}

// WithHooks registers lifecycle hooks.
func WithHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(c *config) { c.hooks = c.hooks.Merge(hooks) }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(c *config) { c.logger = logger }
}

// NewEngine creates an engine delivering to host. Nothing is mounted until the
// first pass renders a tree.
func NewEngine(host ports.Host, opts ...EngineOption) *Engine {
	c := config{threshold: boundary.DefaultThreshold, parallel: 1, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(&c)
	}
	e := &Engine{
		differ: diff.New(diff.WithSchema(c.schema), diff.WithComparator(c.comparator)),
		sched: scheduler.New(host,
			scheduler.WithLogger(c.logger),
			scheduler.WithHooks(c.hooks),
			scheduler.WithParallelDispatch(c.parallel),
		),
		hooks:     c.hooks,
		logger:    c.logger,
		schema:    c.schema,
		threshold: c.threshold,
	}
	e.part = boundary.New(e.partitionOptions(c.firstID)...)
	e.enc = patchpath.New(e.part, e.schema)
	return e
}

func (e *Engine) partitionOptions(first domain.BoundaryID) []boundary.Option {
	return []boundary.Option{
		boundary.WithThreshold(e.threshold),
		boundary.WithLogger(e.logger),
		boundary.WithFirstID(first),
	}
}

// reset drops all mounted state. The next pass mounts from scratch with ids
// continuing after the last one issued.
func (e *Engine) reset() {
	e.part = boundary.New(e.partitionOptions(e.part.NextID())...)
	e.enc = patchpath.New(e.part, e.schema)
	e.prev = nil
	e.committed = nil
}

// Render runs one complete pass against tree.
func (e *Engine) Render(ctx context.Context, tree *domain.Node) (*domain.PassReport, error) {
	pass, err := e.Begin(ctx)
	if err != nil {
		return nil, err
	}
	if err := pass.Render(tree); err != nil {
		pass.Abort()
		return nil, err
	}
	return pass.Commit(ctx)
}

// Begin opens a pass, waiting for the previous one to finish.
func (e *Engine) Begin(ctx context.Context) (*Pass, error) {
	sp, err := e.sched.Begin(ctx, e)
	if err != nil {
		return nil, err
	}
	e.mu.RLock()
	base := e.prev
	e.mu.RUnlock()

	p := &Pass{e: e, sp: sp, base: base, ctx: ctx}
	if e.hooks.OnPassStart != nil {
		e.hooks.OnPassStart(ctx, &domain.PassEvent{EventBase: p.event(domain.EventPassStart)})
	}
	e.logger.Debug("pass started", "pass", sp.ID())
	return p, nil
}

// Boundary describes a live boundary. It makes the engine a scheduler.Directory.
func (e *Engine) Boundary(id domain.BoundaryID) (domain.Boundary, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.part.Boundary(id)
}

// Boundaries returns every live boundary ordered by id.
func (e *Engine) Boundaries() []domain.Boundary {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.part.Boundaries()
}

// Snapshot returns the last committed tree with its boundaries.
func (e *Engine) Snapshot() *domain.Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return &domain.Snapshot{
		Version:      e.version,
		Tree:         e.prev,
		Boundaries:   e.committed,
		NextBoundary: e.part.NextID(),
		UpdatedAt:    time.Now(),
	}
}

// Views serializes the view of every live boundary as of the latest render.
func (e *Engine) Views() map[domain.BoundaryID]map[string]any {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.enc.Views()
}

// Remount delivers the full current view of the given boundaries, or of every
// live boundary when none is named. It is the recovery path after a failed host
// call.
func (e *Engine) Remount(ctx context.Context, ids ...domain.BoundaryID) (*domain.PassReport, error) {
	pass, err := e.Begin(ctx)
	if err != nil {
		return nil, err
	}
	e.mu.RLock()
	if len(ids) == 0 {
		for _, b := range e.part.Boundaries() {
			ids = append(ids, b.ID)
		}
	}
	var patches []domain.Patch
	for _, id := range ids {
		if !e.part.Live(id) {
			e.mu.RUnlock()
			pass.Abort()
			return nil, fmt.Errorf("remount boundary %d: %w", id, domain.ErrStaleBoundary)
		}
		patches = append(patches, domain.Patch{BoundaryID: id, Op: domain.OpMount, Value: e.enc.View(id)})
	}
	e.mu.RUnlock()
	pass.sp.Add(patches...)
	return pass.Commit(ctx)
}

// ownerOf finds the boundary of the deepest mounted node on path.
func (e *Engine) ownerOf(path domain.Path) domain.BoundaryID {
	for p := path; ; p = p.Parent() {
		if inst, err := e.part.Locate(p); err == nil {
			return inst.Boundary()
		}
		if len(p) == 0 {
			return domain.PageBoundary
		}
	}
}

func (e *Engine) enrich(err error) error {
	var kc *domain.KeyCollisionError
	if errors.As(err, &kc) {
		kc.BoundaryID = e.ownerOf(kc.Path)
	}
	return err
}

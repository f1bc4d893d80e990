package arbor

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/aretw0/arbor/internal/runtime"
	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/diff"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/scheduler"
	"github.com/aretw0/arbor/pkg/schema"
)

// Engine is the high-level entry point for the arbor library.
// It wraps the internal runtime and provides a simplified API for consumers.
type Engine struct {
	runtime     *runtime.Engine
	host        ports.Host
	mode        scheduler.FlushMode
	hooks       domain.LifecycleHooks
	logger      *slog.Logger
	runtimeOpts []runtime.EngineOption

	mu   sync.Mutex
	open *runtime.Pass
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithHost sets the host platform receiving update calls.
// Without it the engine delivers to an in-memory host simulator.
func WithHost(h ports.Host) Option {
	return func(e *Engine) {
		e.host = h
	}
}

// WithSchema sets the recognized prop schema of every node kind.
func WithSchema(reg schema.Registry) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithSchema(reg))
	}
}

// WithThreshold sets the local depth T past which implicit boundaries are created.
func WithThreshold(t int) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithThreshold(t))
	}
}

// WithComparator replaces the shallow prop comparison.
func WithComparator(cmp diff.Comparator) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithComparator(cmp))
	}
}

// WithFirstBoundaryID makes the engine issue boundary ids from id onward.
func WithFirstBoundaryID(id domain.BoundaryID) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithFirstBoundaryID(id))
	}
}

// WithParallelDispatch issues up to n host calls of a pass concurrently.
func WithParallelDispatch(n int) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithParallelDispatch(n))
	}
}

// WithFlushMode selects when Render delivers: immediately (sync) or on Flush (deferred).
func WithFlushMode(m scheduler.FlushMode) Option {
	return func(e *Engine) {
		e.mode = m
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New initializes a new arbor Engine.
func New(opts ...Option) *Engine {
	eng := &Engine{mode: scheduler.FlushSync}
	for _, opt := range opts {
		opt(eng)
	}
	if eng.host == nil {
		eng.host = memory.NewHost()
	}
	if eng.logger == nil {
		eng.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	runtimeOpts := []runtime.EngineOption{
		runtime.WithHooks(eng.hooks),
		runtime.WithLogger(eng.logger),
	}
	runtimeOpts = append(runtimeOpts, eng.runtimeOpts...)
	eng.runtime = runtime.NewEngine(eng.host, runtimeOpts...)
	return eng
}

// Render reconciles the mounted tree with tree. The first call mounts it.
//
// In sync mode the pass is flushed before Render returns. In deferred mode the
// render joins the open pass and nil is returned for the report; call Flush to
// deliver everything rendered since the last flush in one call per boundary.
func (e *Engine) Render(ctx context.Context, tree *domain.Node) (*domain.PassReport, error) {
	if e.mode != scheduler.FlushDeferred {
		return e.runtime.Render(ctx, tree)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.open == nil {
		p, err := e.runtime.Begin(ctx)
		if err != nil {
			return nil, err
		}
		e.open = p
	}
	return nil, e.open.Render(tree)
}

// Flush commits the open deferred pass. It returns a nil report when nothing
// was rendered since the last flush.
func (e *Engine) Flush(ctx context.Context) (*domain.PassReport, error) {
	e.mu.Lock()
	p := e.open
	e.open = nil
	e.mu.Unlock()
	if p == nil {
		return nil, nil
	}
	return p.Commit(ctx)
}

// Pass is an explicit reconciliation pass.
type Pass struct {
	p *runtime.Pass
}

// Begin opens an explicit pass. It blocks until the previous pass (including
// an open deferred pass) has been flushed.
func (e *Engine) Begin(ctx context.Context) (*Pass, error) {
	p, err := e.runtime.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &Pass{p: p}, nil
}

// Render queues the changes from the pass's working tree to tree.
func (p *Pass) Render(tree *domain.Node) error {
	return p.p.Render(tree)
}

// Commit delivers the pass: one host call per boundary with patches.
func (p *Pass) Commit(ctx context.Context) (*domain.PassReport, error) {
	return p.p.Commit(ctx)
}

// Abort drops the pass without delivering it.
func (p *Pass) Abort() {
	p.p.Abort()
}

// Remount re-sends the full view of the given boundaries, or of all of them.
// Use it after a *domain.HostCallError left a boundary in an unknown state.
func (e *Engine) Remount(ctx context.Context, ids ...domain.BoundaryID) (*domain.PassReport, error) {
	return e.runtime.Remount(ctx, ids...)
}

// Boundaries returns every live boundary ordered by id.
func (e *Engine) Boundaries() []domain.Boundary {
	return e.runtime.Boundaries()
}

// Snapshot returns the last committed tree and its boundaries.
func (e *Engine) Snapshot() *domain.Snapshot {
	return e.runtime.Snapshot()
}

// Views serializes the current view of every boundary, as the host should hold it.
func (e *Engine) Views() map[domain.BoundaryID]map[string]any {
	return e.runtime.Views()
}

// Host returns the host the engine delivers to.
func (e *Engine) Host() ports.Host {
	return e.host
}

// Mode returns the flush mode.
func (e *Engine) Mode() scheduler.FlushMode {
	return e.mode
}

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	mapset "github.com/deckarep/golang-set/v2"
	"golang.org/x/sync/errgroup"
)

// Directory resolves boundary ids for error context. The partitioner satisfies it.
type Directory interface {
	Boundary(id domain.BoundaryID) (domain.Boundary, bool)
}

// Scheduler owns the pass lock and the host.
type Scheduler struct {
	host     ports.Host
	logger   *slog.Logger
	hooks    domain.LifecycleHooks
	parallel int

	sem    chan struct{}
	passes atomic.Uint64
}

// Option configures the Scheduler.
type Option func(*Scheduler)

// WithLogger configures a logger for the Scheduler.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// WithHooks registers lifecycle hooks for host calls and stale drops.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(s *Scheduler) {
		s.hooks = s.hooks.Merge(hooks)
	}
}

// WithParallelDispatch issues up to n host calls of one pass concurrently.
// Boundaries are independent, so only their relative order is given up.
func WithParallelDispatch(n int) Option {
	return func(s *Scheduler) {
		s.parallel = n
	}
}

// New creates a scheduler delivering to host.
func New(host ports.Host, opts ...Option) *Scheduler {
	s := &Scheduler{
		host:     host,
		logger:   logging.NewNop(),
		parallel: 1,
		sem:      make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Begin starts a pass, waiting until no other pass is in flight.
func (s *Scheduler) Begin(ctx context.Context, dir Directory) (*Pass, error) {
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for previous pass: %w", ctx.Err())
	}
	return &Pass{
		s:     s,
		id:    s.passes.Add(1),
		dir:   dir,
		batch: domain.NewBatch(),
		stale: mapset.NewThreadUnsafeSet[domain.BoundaryID](),
	}, nil
}

// Pass collects the patches of one reconciliation pass.
type Pass struct {
	s     *Scheduler
	id    uint64
	dir   Directory
	batch *domain.Batch
	stale mapset.Set[domain.BoundaryID]
	done  bool
}

// ID returns the pass sequence number.
func (p *Pass) ID() uint64 {
	return p.id
}

// Add appends patches in emission order.
func (p *Pass) Add(patches ...domain.Patch) {
	p.batch.Add(patches...)
}

// Destroyed marks boundaries unmounted during the pass. Their patches are
// dropped at flush time.
func (p *Pass) Destroyed(ids ...domain.BoundaryID) {
	p.stale.Append(ids...)
}

// Batch exposes the accumulated batch.
func (p *Pass) Batch() *domain.Batch {
	return p.batch
}

// Abort releases the pass without delivering anything.
func (p *Pass) Abort() {
	if p.done {
		return
	}
	p.done = true
	<-p.s.sem
}

// Commit flushes the pass and releases the pass lock. Every boundary is
// attempted even when some calls fail; failures are joined into the returned
// error as *domain.HostCallError values.
func (p *Pass) Commit(ctx context.Context) (*domain.PassReport, error) {
	if p.done {
		return nil, domain.ErrPassClosed
	}
	defer p.Abort()

	report := &domain.PassReport{PassID: p.id, Patches: p.batch.Len()}
	var calls []domain.HostCall
	for _, call := range p.batch.Calls() {
		if p.stale.Contains(call.BoundaryID) {
			p.s.dropStale(ctx, p.id, call)
			report.Stale = append(report.Stale, call.BoundaryID)
			continue
		}
		calls = append(calls, call)
	}

	report.Calls = make([]domain.CallReport, len(calls))
	errs := make([]error, len(calls))
	var g errgroup.Group
	g.SetLimit(max(p.s.parallel, 1))
	for i, call := range calls {
		g.Go(func() error {
			report.Calls[i] = domain.CallReport{
				BoundaryID:  call.BoundaryID,
				Patches:     len(call.Patches),
				PayloadSize: call.PayloadSize(),
			}
			if err := p.s.deliver(ctx, p.id, call); err != nil {
				errs[i] = p.wrap(call.BoundaryID, err)
				report.Calls[i].Error = err.Error()
			}
			return nil
		})
	}
	_ = g.Wait()
	return report, errors.Join(errs...)
}

func (p *Pass) wrap(id domain.BoundaryID, err error) error {
	herr := &domain.HostCallError{BoundaryID: id, Err: err}
	if p.dir != nil {
		if b, ok := p.dir.Boundary(id); ok {
			herr.Root = b.Root
		}
	}
	return herr
}

func (s *Scheduler) deliver(ctx context.Context, passID uint64, call domain.HostCall) error {
	start := time.Now()
	err := s.host.Update(ctx, call)
	elapsed := time.Since(start)
	if err != nil {
		s.logger.Error("host update call failed", "pass", passID, "boundary", call.BoundaryID, "patches", len(call.Patches), "error", err)
	}
	if s.hooks.OnHostCall != nil {
		s.hooks.OnHostCall(ctx, &domain.HostCallEvent{
			EventBase:   domain.EventBase{Timestamp: time.Now(), Type: domain.EventHostCall, PassID: passID},
			BoundaryID:  call.BoundaryID,
			Patches:     len(call.Patches),
			PayloadSize: call.PayloadSize(),
			Duration:    elapsed,
			Err:         err,
		})
	}
	return err
}

func (s *Scheduler) dropStale(ctx context.Context, passID uint64, call domain.HostCall) {
	s.logger.Debug("dropping patches for stale boundary", "pass", passID, "boundary", call.BoundaryID, "patches", len(call.Patches))
	if s.hooks.OnStaleDrop != nil {
		s.hooks.OnStaleDrop(ctx, &domain.StaleEvent{
			EventBase:  domain.EventBase{Timestamp: time.Now(), Type: domain.EventStaleDrop, PassID: passID},
			BoundaryID: call.BoundaryID,
			Patches:    len(call.Patches),
		})
	}
}

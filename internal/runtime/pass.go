package runtime

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/scheduler"
)

// Pass is one reconciliation pass. Several renders may be coalesced into it;
// the host sees them once, on Commit.
type Pass struct {
	e    *Engine
	sp   *scheduler.Pass
	base *domain.Node
	ctx  context.Context

	renders   int
	mutations int
	created   []domain.BoundaryID
	destroyed []domain.BoundaryID
	done      bool
}

// ID returns the pass sequence number.
func (p *Pass) ID() uint64 {
	return p.sp.ID()
}

func (p *Pass) event(t domain.EventType) domain.EventBase {
	return domain.EventBase{Timestamp: time.Now(), Type: t, PassID: p.sp.ID()}
}

// Render diffs the working tree of the pass against tree and queues the
// resulting patches. On a key collision nothing is applied and the pass keeps
// its previous working tree.
func (p *Pass) Render(tree *domain.Node) error {
	if p.done {
		return domain.ErrPassClosed
	}
	e := p.e
	e.mu.Lock()
	defer e.mu.Unlock()

	muts, err := e.differ.Diff(p.base, tree)
	if err != nil {
		return e.enrich(err)
	}

	ctx := p.ctx
	for _, m := range muts {
		patches, change, err := e.enc.Encode(m)
		if err != nil {
			// The partition no longer mirrors any tree; start over on the next pass.
			e.logger.Error("encode failed, resetting mounted state", "pass", p.ID(), "mutation", m.String(), "error", err)
			e.reset()
			e.resync = true
			p.base = nil
			return fmt.Errorf("encode %s: %w", m, err)
		}
		p.sp.Add(patches...)
		for _, b := range change.Created {
			p.created = append(p.created, b.ID)
			if e.hooks.OnBoundaryCreated != nil {
				e.hooks.OnBoundaryCreated(ctx, &domain.BoundaryEvent{EventBase: p.event(domain.EventBoundaryCreated), Boundary: b})
			}
		}
		for _, b := range change.Destroyed {
			p.destroyed = append(p.destroyed, b.ID)
			p.sp.Destroyed(b.ID)
			if e.hooks.OnBoundaryDestroyed != nil {
				e.hooks.OnBoundaryDestroyed(ctx, &domain.BoundaryEvent{EventBase: p.event(domain.EventBoundaryDestroyed), Boundary: b})
			}
		}
	}
	if err := e.part.Rebind(tree); err != nil {
		e.reset()
		e.resync = true
		p.base = nil
		return err
	}

	p.base = tree
	p.renders++
	p.mutations += len(muts)
	return nil
}

// Abort drops the pass. Renders already applied stay in the engine's tree but
// their patches are never delivered, so the next pass remounts every boundary.
func (p *Pass) Abort() {
	if p.done {
		return
	}
	p.done = true
	if p.renders > 0 {
		p.e.mu.Lock()
		p.e.prev = p.base
		p.e.committed = p.e.part.Boundaries()
		p.e.resync = true
		p.e.mu.Unlock()
	}
	p.sp.Abort()
}

// Commit flushes the pass: exactly one host call per boundary with patches.
// The committed tree advances even when host calls fail; the returned error
// then joins one *domain.HostCallError per failed boundary.
func (p *Pass) Commit(ctx context.Context) (*domain.PassReport, error) {
	if p.done {
		return nil, domain.ErrPassClosed
	}
	e := p.e

	e.mu.Lock()
	if e.resync {
		p.resync()
		e.resync = false
	}
	e.prev = p.base
	e.committed = e.part.Boundaries()
	e.version++
	e.mu.Unlock()

	p.done = true
	report, err := p.sp.Commit(ctx)
	if report != nil {
		report.Renders = p.renders
		report.Mutations = p.mutations
		report.Created = p.created
		report.Destroyed = p.destroyed
	}
	if err != nil {
		e.logger.Error("pass finished with host failures", "pass", p.ID(), "error", err)
	} else {
		e.logger.Debug("pass committed", "pass", p.ID(), "renders", p.renders, "mutations", p.mutations)
	}
	if e.hooks.OnPassEnd != nil {
		ev := &domain.PassEvent{EventBase: p.event(domain.EventPassEnd), Mutations: p.mutations, Err: err}
		if report != nil {
			ev.Patches = report.Patches
			ev.Calls = len(report.Calls)
		}
		e.hooks.OnPassEnd(ctx, ev)
	}
	return report, err
}

// resync replaces the queued patches with a mount of every live boundary. The
// views already reflect every render of the pass. Caller holds e.mu.
func (p *Pass) resync() {
	batch := p.sp.Batch()
	batch.Reset()
	for _, b := range p.e.part.Boundaries() {
		batch.Add(domain.Patch{BoundaryID: b.ID, Op: domain.OpMount, Value: p.e.enc.View(b.ID)})
	}
}

package patchpath

import (
	"fmt"

	"github.com/aretw0/arbor/pkg/boundary"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/schema"
)

// Encoder turns mutations into boundary-relative patches while keeping the
// partitioner in step with the tree.
type Encoder struct {
	part   *boundary.Partitioner
	schema schema.Registry
}

// New creates an encoder over part. Serialized views only carry the props reg
// recognizes; a nil registry keeps all of them.
func New(part *boundary.Partitioner, reg schema.Registry) *Encoder {
	return &Encoder{part: part, schema: reg}
}

// Partitioner returns the partitioner the encoder maintains.
func (e *Encoder) Partitioner() *boundary.Partitioner {
	return e.part
}

// Encode rewrites m and applies it to the partitioner. Mutations must be
// encoded in emission order. The returned change lists the boundaries the
// mutation created or destroyed; every created boundary also gets a mount patch.
func (e *Encoder) Encode(m domain.Mutation) ([]domain.Patch, boundary.Change, error) {
	switch m.Kind {
	case domain.PropChanged:
		p, err := e.prop(m)
		if err != nil {
			return nil, boundary.Change{}, err
		}
		return []domain.Patch{p}, boundary.Change{}, nil
	case domain.ChildInserted:
		return e.insert(m)
	case domain.ChildRemoved, domain.ChildMoved:
		p, err := e.slotPatch(m)
		if err != nil {
			return nil, boundary.Change{}, err
		}
		change, err := e.part.Apply(m)
		if err != nil {
			return nil, boundary.Change{}, err
		}
		return []domain.Patch{p}, change, nil
	}
	return nil, boundary.Change{}, fmt.Errorf("encode: unknown mutation kind %s", m.Kind)
}

func (e *Encoder) prop(m domain.Mutation) (domain.Patch, error) {
	inst, err := e.part.Locate(m.Path)
	if err != nil {
		return domain.Patch{}, fmt.Errorf("encode %s: %w", m, err)
	}
	rel := relative(inst, m.Path)
	p := domain.Patch{BoundaryID: inst.Boundary(), Path: Join(rel, m.Prop)}
	if m.Deleted {
		p.Op = domain.OpDelete
	} else {
		p.Op = domain.OpSet
		p.Value = m.Value
	}
	return p, nil
}

// slotPatch encodes a removal or a move against the boundary of the parent that
// holds the slot. The root slot belongs to the page.
func (e *Encoder) slotPatch(m domain.Mutation) (domain.Patch, error) {
	parent, _, err := e.part.Slot(m.Path)
	if err != nil {
		return domain.Patch{}, fmt.Errorf("encode %s: %w", m, err)
	}
	if parent == nil {
		if m.Kind == domain.ChildMoved {
			return domain.Patch{}, fmt.Errorf("encode %s: the root cannot move", m)
		}
		return domain.Patch{BoundaryID: domain.PageBoundary, Op: domain.OpRemove}, nil
	}
	rel := relative(parent, m.Path)
	p := domain.Patch{BoundaryID: parent.Boundary(), Path: rel.String()}
	if m.Kind == domain.ChildRemoved {
		p.Op = domain.OpRemove
		return p, nil
	}
	p.Op = domain.OpMove
	p.From = rel.Parent().Child(m.From).String()
	return p, nil
}

func (e *Encoder) insert(m domain.Mutation) ([]domain.Patch, boundary.Change, error) {
	change, err := e.part.Apply(m)
	if err != nil {
		return nil, boundary.Change{}, fmt.Errorf("encode %s: %w", m, err)
	}
	var patches []domain.Patch
	if len(m.Path) > 0 {
		parent, idx, err := e.part.Slot(m.Path)
		if err != nil {
			return nil, boundary.Change{}, err
		}
		patches = append(patches, domain.Patch{
			BoundaryID: parent.Boundary(),
			Op:         domain.OpInsert,
			Path:       relative(parent, m.Path).String(),
			Value:      e.view(parent.Children()[idx], false),
		})
	}
	for _, b := range change.Created {
		patches = append(patches, domain.Patch{
			BoundaryID: b.ID,
			Op:         domain.OpMount,
			Value:      e.View(b.ID),
		})
	}
	return patches, change, nil
}

// relative strips the steps down to the boundary root of owner from path.
func relative(owner *boundary.Instance, path domain.Path) domain.Path {
	rel, _ := path.Rel(path[:owner.BoundaryRoot().Depth()])
	return rel
}

// View serializes the current view of boundary id: its root node with
// recognized props and every descendant down to nested boundary roots, which
// appear as stubs. It returns nil for a gone boundary or an empty page.
func (e *Encoder) View(id domain.BoundaryID) map[string]any {
	root := e.part.RootOf(id)
	if root == nil {
		return nil
	}
	return e.view(root, true)
}

func (e *Encoder) view(inst *boundary.Instance, top bool) map[string]any {
	n := inst.Node()
	if inst.IsBoundaryRoot() && !top {
		return map[string]any{
			"kind":     string(n.Kind),
			"key":      n.Key,
			"boundary": uint64(inst.Boundary()),
		}
	}
	props := make(map[string]any, len(n.Props))
	for name, v := range e.schema.Filter(n.Kind, n.Props) {
		props[name] = v
	}
	children := make([]any, len(inst.Children()))
	for i, c := range inst.Children() {
		children[i] = e.view(c, false)
	}
	return map[string]any{
		"kind":     string(n.Kind),
		"key":      n.Key,
		"props":    props,
		"children": children,
	}
}

// Views serializes every live boundary.
func (e *Encoder) Views() map[domain.BoundaryID]map[string]any {
	out := make(map[domain.BoundaryID]map[string]any)
	for _, b := range e.part.Boundaries() {
		if v := e.View(b.ID); v != nil {
			out[b.ID] = v
		}
	}
	return out
}

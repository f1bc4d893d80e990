package boundary

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/domain"
	mapset "github.com/deckarep/golang-set/v2"
)

// Change lists the boundaries a single Apply created or destroyed.
// Created boundaries are listed parents first.
type Change struct {
	Created   []domain.Boundary
	Destroyed []domain.Boundary
}

// Empty reports whether the change touched no boundary.
func (c Change) Empty() bool {
	return len(c.Created) == 0 && len(c.Destroyed) == 0
}

func (c *Change) merge(o Change) {
	c.Created = append(c.Created, o.Created...)
	c.Destroyed = append(c.Destroyed, o.Destroyed...)
}

type entry struct {
	inst   *Instance
	parent domain.BoundaryID
	cause  domain.BoundaryCause
}

// Partitioner keeps the instance tree and the boundary table of one mounted tree.
// It is not safe for concurrent use; the reconciler serializes passes.
type Partitioner struct {
	threshold int
	logger    *slog.Logger

	root    *Instance
	nextID  domain.BoundaryID
	entries map[domain.BoundaryID]*entry
	live    mapset.Set[domain.BoundaryID]
}

// Option configures the Partitioner.
type Option func(*Partitioner)

// WithThreshold sets the local depth limit T. Values below 1 keep the default.
func WithThreshold(t int) Option {
	return func(p *Partitioner) {
		if t >= 1 {
			p.threshold = t
		}
	}
}

// WithLogger configures a logger for boundary lifecycle diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Partitioner) {
		p.logger = logger
	}
}

// WithFirstID makes the partitioner issue boundary ids from id onward. It lets a
// rebuilt partition keep ids its predecessor already handed to the host. Values
// not above the page id keep the default.
func WithFirstID(id domain.BoundaryID) Option {
	return func(p *Partitioner) {
		if id > domain.PageBoundary {
			p.nextID = id
		}
	}
}

// New creates a partitioner with nothing mounted. The page boundary exists from
// the start and lives as long as the partitioner.
func New(opts ...Option) *Partitioner {
	p := &Partitioner{
		threshold: DefaultThreshold,
		logger:    logging.NewNop(),
		nextID:    domain.PageBoundary + 1,
		entries:   make(map[domain.BoundaryID]*entry),
		live:      mapset.NewThreadUnsafeSet(domain.PageBoundary),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Threshold returns the configured local depth limit.
func (p *Partitioner) Threshold() int {
	return p.threshold
}

// NextID returns the id the next created boundary will get.
func (p *Partitioner) NextID() domain.BoundaryID {
	return p.nextID
}

// Root returns the instance of the tree root, nil when nothing is mounted.
func (p *Partitioner) Root() *Instance {
	return p.root
}

// Mount mounts root as the whole tree.
func (p *Partitioner) Mount(root *domain.Node) (Change, error) {
	return p.Apply(domain.Mutation{Kind: domain.ChildInserted, Path: domain.Root, Node: root})
}

// Apply updates the instance tree for one mutation. Mutations must be applied in
// emission order.
func (p *Partitioner) Apply(m domain.Mutation) (Change, error) {
	switch m.Kind {
	case domain.PropChanged:
		_, err := p.Locate(m.Path)
		return Change{}, err
	case domain.ChildInserted:
		return p.insert(m.Path, m.Node)
	case domain.ChildRemoved:
		return p.remove(m.Path)
	case domain.ChildMoved:
		return Change{}, p.move(m.Path, m.From)
	}
	return Change{}, fmt.Errorf("unknown mutation kind %s", m.Kind)
}

// Locate returns the instance at the tree-absolute path p.
func (p *Partitioner) Locate(path domain.Path) (*Instance, error) {
	if p.root == nil {
		return nil, fmt.Errorf("locate %q: nothing mounted", path.String())
	}
	cur := p.root
	for i, s := range path {
		if s.List != domain.ChildrenList || s.Index < 0 || s.Index >= len(cur.children) {
			return nil, fmt.Errorf("locate %q: no instance at %s", path.String(), path[:i+1])
		}
		cur = cur.children[s.Index]
	}
	return cur, nil
}

// Slot resolves a child slot path into its parent instance and index.
// The root slot has a nil parent.
func (p *Partitioner) Slot(path domain.Path) (*Instance, int, error) {
	last, ok := path.Last()
	if !ok {
		return nil, 0, nil
	}
	parent, err := p.Locate(path.Parent())
	if err != nil {
		return nil, 0, err
	}
	return parent, last.Index, nil
}

func (p *Partitioner) insert(path domain.Path, n *domain.Node) (Change, error) {
	if n == nil {
		return Change{}, fmt.Errorf("insert at %q: nil node", path.String())
	}
	parent, idx, err := p.Slot(path)
	if err != nil {
		return Change{}, err
	}
	if parent == nil {
		if p.root != nil {
			return Change{}, fmt.Errorf("insert at root: tree already mounted")
		}
	} else if idx < 0 || idx > len(parent.children) {
		return Change{}, fmt.Errorf("insert at %q: index out of bounds (len %d)", path.String(), len(parent.children))
	}

	var created []domain.BoundaryID
	inst := p.mount(parent, n, &created)
	if parent == nil {
		p.root = inst
	} else {
		parent.children = append(parent.children, nil)
		copy(parent.children[idx+1:], parent.children[idx:])
		parent.children[idx] = inst
	}

	var change Change
	for _, id := range created {
		b, _ := p.Boundary(id)
		p.logger.Debug("boundary created", "boundary", id, "cause", b.Cause, "root", b.Root.String())
		change.Created = append(change.Created, b)
	}
	return change, nil
}

// mount builds the instance subtree of n. Boundary assignment happens here and
// nowhere else.
func (p *Partitioner) mount(parent *Instance, n *domain.Node, created *[]domain.BoundaryID) *Instance {
	a := classify(parent, n, p.threshold)
	inst := &Instance{node: n, parent: parent, depth: a.depth}
	var parentOwner domain.BoundaryID
	if parent != nil {
		inst.abs = parent.abs + 1
		inst.owner = parent.owner
		parentOwner = parent.owner
	}
	if a.opens() {
		inst.root = true
		if a.cause == domain.CausePage {
			inst.owner = domain.PageBoundary
		} else {
			inst.owner = p.nextID
			p.nextID++
		}
		p.entries[inst.owner] = &entry{inst: inst, parent: parentOwner, cause: a.cause}
		p.live.Add(inst.owner)
		*created = append(*created, inst.owner)
	}
	inst.children = make([]*Instance, len(n.Children))
	for i, c := range n.Children {
		inst.children[i] = p.mount(inst, c, created)
	}
	return inst
}

func (p *Partitioner) remove(path domain.Path) (Change, error) {
	parent, idx, err := p.Slot(path)
	if err != nil {
		return Change{}, err
	}
	var gone *Instance
	if parent == nil {
		if p.root == nil {
			return Change{}, fmt.Errorf("remove at root: nothing mounted")
		}
		gone = p.root
	} else {
		if idx < 0 || idx >= len(parent.children) {
			return Change{}, fmt.Errorf("remove at %q: index out of bounds (len %d)", path.String(), len(parent.children))
		}
		gone = parent.children[idx]
	}

	var change Change
	gone.walk(func(i *Instance) {
		if !i.root || i.owner == domain.PageBoundary {
			return
		}
		b, _ := p.Boundary(i.owner)
		change.Destroyed = append(change.Destroyed, b)
	})
	for _, b := range change.Destroyed {
		delete(p.entries, b.ID)
		p.live.Remove(b.ID)
		p.logger.Debug("boundary destroyed", "boundary", b.ID, "root", b.Root.String())
	}

	if parent == nil {
		p.root = nil
		delete(p.entries, domain.PageBoundary)
	} else {
		parent.children = append(parent.children[:idx], parent.children[idx+1:]...)
		gone.parent = nil
	}
	return change, nil
}

func (p *Partitioner) move(path domain.Path, from int) error {
	parent, to, err := p.Slot(path)
	if err != nil {
		return err
	}
	if parent == nil {
		return fmt.Errorf("move at root: the root has no siblings")
	}
	n := len(parent.children)
	if from < 0 || from >= n || to < 0 || to >= n {
		return fmt.Errorf("move %d -> %q: index out of bounds (len %d)", from, path.String(), n)
	}
	moved := parent.children[from]
	parent.children = append(parent.children[:from], parent.children[from+1:]...)
	parent.children = append(parent.children, nil)
	copy(parent.children[to+1:], parent.children[to:])
	parent.children[to] = moved
	return nil
}

// Rebind points every instance at the node of root at the same position. The
// instance tree must already mirror the shape of root, which holds after all
// mutations of a pass have been applied.
func (p *Partitioner) Rebind(root *domain.Node) error {
	switch {
	case root == nil && p.root == nil:
		return nil
	case root == nil || p.root == nil:
		return fmt.Errorf("rebind: mounted state mismatch")
	}
	return rebind(p.root, root, domain.Root)
}

func rebind(inst *Instance, n *domain.Node, path domain.Path) error {
	if inst.node.Kind != n.Kind || len(inst.children) != len(n.Children) {
		return fmt.Errorf("rebind: instance tree out of sync at %q", path.String())
	}
	inst.node = n
	for i, c := range n.Children {
		if err := rebind(inst.children[i], c, path.Child(i)); err != nil {
			return err
		}
	}
	return nil
}

// Live reports whether boundary id currently exists.
func (p *Partitioner) Live(id domain.BoundaryID) bool {
	return p.live.Contains(id)
}

// Boundary describes a live boundary with its current root path.
func (p *Partitioner) Boundary(id domain.BoundaryID) (domain.Boundary, bool) {
	if id == domain.PageBoundary {
		b := domain.Boundary{ID: domain.PageBoundary, Cause: domain.CausePage}
		if p.root != nil {
			b.RootKind = p.root.node.Kind
		}
		return b, true
	}
	e, ok := p.entries[id]
	if !ok {
		return domain.Boundary{}, false
	}
	return domain.Boundary{
		ID:       id,
		ParentID: e.parent,
		Cause:    e.cause,
		Root:     e.inst.Path(),
		RootKind: e.inst.node.Kind,
		Depth:    e.inst.abs,
	}, true
}

// RootOf returns the root instance of boundary id, nil when the boundary is gone
// or the page is empty.
func (p *Partitioner) RootOf(id domain.BoundaryID) *Instance {
	if id == domain.PageBoundary {
		return p.root
	}
	if e, ok := p.entries[id]; ok {
		return e.inst
	}
	return nil
}

// Boundaries returns every live boundary ordered by id.
func (p *Partitioner) Boundaries() []domain.Boundary {
	ids := p.live.ToSlice()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]domain.Boundary, 0, len(ids))
	for _, id := range ids {
		if b, ok := p.Boundary(id); ok {
			out = append(out, b)
		}
	}
	return out
}

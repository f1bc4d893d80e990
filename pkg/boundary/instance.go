package boundary

import "github.com/aretw0/arbor/pkg/domain"

// Instance is the partitioner's record of one mounted node.
// Instances are owned by the Partitioner; callers only read them.
type Instance struct {
	node     *domain.Node
	parent   *Instance
	children []*Instance
	owner    domain.BoundaryID
	root     bool
	depth    int
	abs      int
}

// Node returns the tree node the instance currently mirrors.
func (i *Instance) Node() *domain.Node { return i.node }

// Parent returns the parent instance, nil for the tree root.
func (i *Instance) Parent() *Instance { return i.parent }

// Children returns the child instances in sibling order.
func (i *Instance) Children() []*Instance { return i.children }

// Boundary returns the boundary the node belongs to. A boundary root belongs to
// the boundary it opens.
func (i *Instance) Boundary() domain.BoundaryID { return i.owner }

// IsBoundaryRoot reports whether the node opens its boundary.
func (i *Instance) IsBoundaryRoot() bool { return i.root }

// LocalDepth returns the depth below the enclosing boundary root, which counts as 1.
func (i *Instance) LocalDepth() int { return i.depth }

// Depth returns the absolute depth (tree root = 0), which is also the length of
// the node's tree-absolute path.
func (i *Instance) Depth() int { return i.abs }

// BoundaryRoot returns the instance that opens the node's boundary.
func (i *Instance) BoundaryRoot() *Instance {
	cur := i
	for !cur.root {
		cur = cur.parent
	}
	return cur
}

// Path computes the current tree-absolute path of the node.
func (i *Instance) Path() domain.Path {
	p := make(domain.Path, i.abs)
	for cur := i; cur.parent != nil; cur = cur.parent {
		p[cur.abs-1] = domain.Step{List: domain.ChildrenList, Index: cur.parent.indexOf(cur)}
	}
	return p
}

func (i *Instance) indexOf(child *Instance) int {
	for k, c := range i.children {
		if c == child {
			return k
		}
	}
	return -1
}

// walk visits the instance subtree in document order.
func (i *Instance) walk(fn func(*Instance)) {
	fn(i)
	for _, c := range i.children {
		c.walk(fn)
	}
}

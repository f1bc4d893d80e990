package domain

import (
	"sort"
	"strconv"
)

// Kind identifies a host primitive tag ("view", "text", ...) or the boundary marker.
type Kind string

// KindBoundary is the author-placed marker that opens an explicit update boundary.
const KindBoundary Kind = "boundary"

// ChildrenList is the selector of the child list of a node.
const ChildrenList = "children"

// Props maps declared prop names to values.
type Props map[string]any

// Node represents a virtual tree element.
// Nodes are treated as immutable once handed to the engine; use the With* helpers
// to derive modified copies.
type Node struct {
	Kind     Kind    `json:"kind" yaml:"kind"`
	Key      string  `json:"key,omitempty" yaml:"key,omitempty"`
	Props    Props   `json:"props,omitempty" yaml:"props,omitempty"`
	Children []*Node `json:"children,omitempty" yaml:"children,omitempty"`
}

// Identity is the matching key of a node within its sibling list.
// Author keys and positional indexes live in distinct spaces and never collide.
type Identity struct {
	Explicit bool
	Key      string
}

func (id Identity) String() string {
	if id.Explicit {
		return strconv.Quote(id.Key)
	}
	return "#" + id.Key
}

// IdentityAt returns the identity of n when it sits at index i of its sibling list.
// Nodes without an author key fall back to their position.
func (n *Node) IdentityAt(i int) Identity {
	if n.Key != "" {
		return Identity{Explicit: true, Key: n.Key}
	}
	return Identity{Key: strconv.Itoa(i)}
}

// IsBoundaryMarker reports whether n explicitly opens a boundary.
func (n *Node) IsBoundaryMarker() bool {
	return n != nil && n.Kind == KindBoundary
}

// PropNames returns the prop names of n in sorted order.
func (n *Node) PropNames() []string {
	names := make([]string, 0, len(n.Props))
	for name := range n.Props {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a shallow copy of n: the props map and the children slice are
// copied, prop values and child nodes are shared.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := &Node{Kind: n.Kind, Key: n.Key}
	if n.Props != nil {
		c.Props = make(Props, len(n.Props))
		for k, v := range n.Props {
			c.Props[k] = v
		}
	}
	if n.Children != nil {
		c.Children = make([]*Node, len(n.Children))
		copy(c.Children, n.Children)
	}
	return c
}

// Size returns the number of nodes in the subtree rooted at n.
func (n *Node) Size() int {
	if n == nil {
		return 0
	}
	size := 1
	for _, c := range n.Children {
		size += c.Size()
	}
	return size
}

// Height returns the number of levels of the subtree rooted at n.
func (n *Node) Height() int {
	if n == nil {
		return 0
	}
	h := 0
	for _, c := range n.Children {
		if ch := c.Height(); ch > h {
			h = ch
		}
	}
	return h + 1
}

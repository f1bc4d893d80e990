package domain

import "fmt"

// At returns the node addressed by p below n.
func (n *Node) At(p Path) (*Node, error) {
	cur := n
	for i, s := range p {
		if s.List != ChildrenList {
			return nil, fmt.Errorf("unknown child list %q at %s", s.List, p[:i+1])
		}
		if s.Index < 0 || s.Index >= len(cur.Children) {
			return nil, fmt.Errorf("index out of bounds %d (len %d) at %s", s.Index, len(cur.Children), p[:i+1])
		}
		cur = cur.Children[s.Index]
	}
	return cur, nil
}

// Ancestors returns the chain of nodes from n (inclusive) down to the parent of
// the node addressed by p.
func (n *Node) Ancestors(p Path) ([]*Node, error) {
	chain := make([]*Node, 0, len(p))
	cur := n
	for i := range p {
		chain = append(chain, cur)
		next, err := cur.At(p[i : i+1])
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return chain, nil
}

// Walk visits n and its descendants in document order. Returning false from fn
// skips the children of the visited node.
func (n *Node) Walk(fn func(p Path, node *Node) bool) {
	n.walk(Root, fn)
}

func (n *Node) walk(p Path, fn func(Path, *Node) bool) {
	if !fn(p, n) {
		return
	}
	for i, c := range n.Children {
		c.walk(p.Child(i), fn)
	}
}

// WithProp returns a copy of n with prop name set to v.
func (n *Node) WithProp(name string, v any) *Node {
	c := n.Clone()
	if c.Props == nil {
		c.Props = Props{}
	}
	c.Props[name] = v
	return c
}

// WithoutProp returns a copy of n without prop name.
func (n *Node) WithoutProp(name string) *Node {
	c := n.Clone()
	delete(c.Props, name)
	return c
}

// WithChildInserted returns a copy of n with child inserted at index i.
func (n *Node) WithChildInserted(i int, child *Node) (*Node, error) {
	if i < 0 || i > len(n.Children) {
		return nil, fmt.Errorf("insert index %d out of bounds (len %d)", i, len(n.Children))
	}
	c := n.Clone()
	c.Children = append(c.Children[:i], append([]*Node{child}, n.Children[i:]...)...)
	return c, nil
}

// WithChildRemoved returns a copy of n without the child at index i.
func (n *Node) WithChildRemoved(i int) (*Node, error) {
	if i < 0 || i >= len(n.Children) {
		return nil, fmt.Errorf("remove index %d out of bounds (len %d)", i, len(n.Children))
	}
	c := n.Clone()
	c.Children = append(c.Children[:i], c.Children[i+1:]...)
	return c, nil
}

// WithChildMoved returns a copy of n where the child at from is moved to index to.
// The target index is interpreted after the child has been taken out of the list.
func (n *Node) WithChildMoved(from, to int) (*Node, error) {
	if from < 0 || from >= len(n.Children) {
		return nil, fmt.Errorf("move source %d out of bounds (len %d)", from, len(n.Children))
	}
	if to < 0 || to >= len(n.Children) {
		return nil, fmt.Errorf("move target %d out of bounds (len %d)", to, len(n.Children))
	}
	c := n.Clone()
	moved := c.Children[from]
	c.Children = append(c.Children[:from], c.Children[from+1:]...)
	c.Children = append(c.Children[:to], append([]*Node{moved}, c.Children[to:]...)...)
	return c, nil
}

// Replace returns a copy of the tree rooted at n where the node at p is replaced
// by repl. Untouched subtrees are shared with n.
func (n *Node) Replace(p Path, repl *Node) (*Node, error) {
	if len(p) == 0 {
		return repl, nil
	}
	child, err := n.At(p[:1])
	if err != nil {
		return nil, err
	}
	sub, err := child.Replace(p[1:], repl)
	if err != nil {
		return nil, err
	}
	c := n.Clone()
	c.Children[p[0].Index] = sub
	return c, nil
}

// CheckKeys verifies that no sibling list under n contains duplicate author keys.
func (n *Node) CheckKeys() error {
	var err error
	n.Walk(func(p Path, node *Node) bool {
		if err != nil {
			return false
		}
		seen := make(map[string]int, len(node.Children))
		for i, c := range node.Children {
			if c.Key == "" {
				continue
			}
			if first, dup := seen[c.Key]; dup {
				err = &KeyCollisionError{Path: p, Key: c.Key, First: first, Second: i}
				return false
			}
			seen[c.Key] = i
		}
		return true
	})
	return err
}

package dsl

import (
	"fmt"

	"github.com/aretw0/arbor/pkg/domain"
)

// Chain builds a uniform tree of the given number of levels: every node has
// exactly one child of the same kind, except the deepest one. Each node carries
// a "level" prop with its absolute depth.
func Chain(kind domain.Kind, levels int) *domain.Node {
	if levels <= 0 {
		return nil
	}
	var leaf *domain.Node
	for lvl := levels - 1; lvl >= 0; lvl-- {
		n := &domain.Node{Kind: kind, Props: domain.Props{"level": lvl}}
		if leaf != nil {
			n.Children = []*domain.Node{leaf}
		}
		leaf = n
	}
	return leaf
}

// List builds a container of kind with n text children keyed "k0".."k<n-1>"
// when keyed is true, or unkeyed otherwise.
func List(kind domain.Kind, n int, keyed bool) *NodeBuilder {
	b := New(kind)
	for i := 0; i < n; i++ {
		c := Text(fmt.Sprintf("item %d", i))
		if keyed {
			c.Key(fmt.Sprintf("k%d", i))
		}
		b.Child(c)
	}
	return b
}

package diff

import (
	"fmt"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/stretchr/testify/require"
)

// apply replays mutations in emission order against prev.
func apply(t require.TestingT, prev *domain.Node, muts []domain.Mutation) *domain.Node {
	if h, ok := t.(interface{ Helper() }); ok {
		h.Helper()
	}
	cur := prev
	for _, m := range muts {
		var err error
		switch m.Kind {
		case domain.PropChanged:
			var n *domain.Node
			n, err = cur.At(m.Path)
			require.NoError(t, err, m.String())
			if m.Deleted {
				n = n.WithoutProp(m.Prop)
			} else {
				n = n.WithProp(m.Prop, m.Value)
			}
			cur, err = cur.Replace(m.Path, n)
		case domain.ChildInserted:
			if len(m.Path) == 0 {
				cur = m.Node
				continue
			}
			cur, err = edit(cur, m.Path, func(parent *domain.Node, i int) (*domain.Node, error) {
				return parent.WithChildInserted(i, m.Node)
			})
		case domain.ChildRemoved:
			if len(m.Path) == 0 {
				cur = nil
				continue
			}
			cur, err = edit(cur, m.Path, func(parent *domain.Node, i int) (*domain.Node, error) {
				return parent.WithChildRemoved(i)
			})
		case domain.ChildMoved:
			cur, err = edit(cur, m.Path, func(parent *domain.Node, i int) (*domain.Node, error) {
				return parent.WithChildMoved(m.From, i)
			})
		}
		require.NoError(t, err, m.String())
	}
	return cur
}

func edit(root *domain.Node, slot domain.Path, fn func(*domain.Node, int) (*domain.Node, error)) (*domain.Node, error) {
	parent, err := root.At(slot.Parent())
	if err != nil {
		return nil, err
	}
	last, _ := slot.Last()
	updated, err := fn(parent, last.Index)
	if err != nil {
		return nil, err
	}
	return root.Replace(slot.Parent(), updated)
}

// canon renders a tree into plain values so nil and empty props compare equal.
func canon(n *domain.Node) any {
	if n == nil {
		return nil
	}
	props := map[string]any{}
	for k, v := range n.Props {
		props[k] = fmt.Sprint(v)
	}
	children := make([]any, len(n.Children))
	for i, c := range n.Children {
		children[i] = canon(c)
	}
	return map[string]any{"kind": string(n.Kind), "key": n.Key, "props": props, "children": children}
}

func countKind(muts []domain.Mutation, k domain.MutationKind) int {
	n := 0
	for _, m := range muts {
		if m.Kind == k {
			n++
		}
	}
	return n
}

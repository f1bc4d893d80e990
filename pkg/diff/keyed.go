package diff

import (
	"github.com/aretw0/arbor/pkg/domain"
)

// indexByIdentity maps every sibling identity to its position, rejecting
// duplicate author keys.
func indexByIdentity(path domain.Path, list []*domain.Node) (map[domain.Identity]int, error) {
	idx := make(map[domain.Identity]int, len(list))
	for i, n := range list {
		id := n.IdentityAt(i)
		if first, dup := idx[id]; dup {
			return nil, &domain.KeyCollisionError{Path: path, Key: n.Key, First: first, Second: i}
		}
		idx[id] = i
	}
	return idx, nil
}

// children diffs one sibling list. It emits removals (descending old index),
// then inserts and moves (ascending new index), and returns for every new
// index the matched old index or -1.
//
// The matching is greedy by identity: walking the new list left to right, any
// matched child not already in place is moved there. Left of the cursor the
// working list is final; right of it sit the survivors not yet placed, in old
// order. A Fenwick tree over those survivors gives each one's current position
// in O(log n), so the walk never shifts the working list.
func (w *walker) children(path domain.Path, old, next []*domain.Node) ([]int, error) {
	oldIdx, err := indexByIdentity(path, old)
	if err != nil {
		return nil, err
	}
	if _, err := indexByIdentity(path, next); err != nil {
		return nil, err
	}

	pairs := make([]int, len(next))
	kept := make([]bool, len(old))
	for j, n := range next {
		pairs[j] = -1
		i, ok := oldIdx[n.IdentityAt(j)]
		if ok && old[i].Kind == n.Kind {
			pairs[j] = i
			kept[i] = true
		}
	}

	for i := len(old) - 1; i >= 0; i-- {
		if !kept[i] {
			w.out = append(w.out, domain.Mutation{Kind: domain.ChildRemoved, Path: path.Child(i)})
		}
	}

	// rank orders the survivors by old index.
	rank := make([]int, len(old))
	survivors := 0
	for i := range old {
		if kept[i] {
			rank[i] = survivors
			survivors++
		}
	}
	pending := newFenwick(survivors)

	for j, i := range pairs {
		if i < 0 {
			if err := next[j].CheckKeys(); err != nil {
				if kc, ok := err.(*domain.KeyCollisionError); ok {
					kc.Path = append(path.Child(j), kc.Path...)
				}
				return nil, err
			}
			w.out = append(w.out, domain.Mutation{Kind: domain.ChildInserted, Path: path.Child(j), Node: next[j]})
			continue
		}
		p := j + pending.prefix(rank[i])
		pending.add(rank[i], -1)
		if p == j {
			continue
		}
		w.out = append(w.out, domain.Mutation{Kind: domain.ChildMoved, Path: path.Child(j), From: p})
	}
	return pairs, nil
}

// fenwick counts the survivors still waiting to be placed.
type fenwick []int

func newFenwick(n int) fenwick {
	f := make(fenwick, n+1)
	for k := 1; k <= n; k++ {
		f[k]++
		if up := k + k&-k; up <= n {
			f[up] += f[k]
		}
	}
	return f
}

func (f fenwick) add(i, delta int) {
	for k := i + 1; k < len(f); k += k & -k {
		f[k] += delta
	}
}

// prefix sums the entries of ranks below i.
func (f fenwick) prefix(i int) int {
	sum := 0
	for k := i; k > 0; k -= k & -k {
		sum += f[k]
	}
	return sum
}

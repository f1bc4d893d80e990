package boundary

import "github.com/aretw0/arbor/pkg/domain"

// DefaultThreshold is the local depth limit used when none is configured.
const DefaultThreshold = 16

// assignment is the outcome of the boundary rules for one node.
// An empty cause means the node joins the boundary of its parent.
type assignment struct {
	cause domain.BoundaryCause
	depth int
}

func (a assignment) opens() bool {
	return a.cause != ""
}

// classify resolves the boundary rules for n mounted below parent. Local depth
// counts the nodes from the enclosing boundary root (1) down to n. The marker
// rule is checked first; the threshold rule fires when n would exceed t.
func classify(parent *Instance, n *domain.Node, t int) assignment {
	switch {
	case parent == nil:
		return assignment{cause: domain.CausePage, depth: 1}
	case n.IsBoundaryMarker():
		return assignment{cause: domain.CauseMarker, depth: 1}
	case parent.depth+1 > t:
		return assignment{cause: domain.CauseThreshold, depth: 1}
	}
	return assignment{depth: parent.depth + 1}
}

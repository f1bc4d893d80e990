package domain

// BoundaryID identifies an update boundary. Ids are assigned at creation and never reused.
type BoundaryID uint64

// PageBoundary is the implicit root boundary of every mounted tree.
const PageBoundary BoundaryID = 0

// BoundaryCause records which rule created a boundary.
type BoundaryCause string

const (
	CausePage      BoundaryCause = "page"
	CauseMarker    BoundaryCause = "marker"
	CauseThreshold BoundaryCause = "threshold"
)

// Boundary describes a live update scope.
// Root is the current tree-absolute path of the boundary root node; the relative
// path space of the boundary starts at that node.
type Boundary struct {
	ID       BoundaryID    `json:"id"`
	ParentID BoundaryID    `json:"parent_id"`
	Cause    BoundaryCause `json:"cause"`
	Root     Path          `json:"root"`
	RootKind Kind          `json:"root_kind"`
	// Depth is the absolute depth of the root node (tree root = 0).
	Depth int `json:"depth"`
}

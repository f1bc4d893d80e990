package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/arbor/pkg/domain"
)

// Overlay contains the outcome of a pass to visualize on the diagram.
type Overlay struct {
	Updated []domain.BoundaryID // boundaries that received a host call
	Created []domain.BoundaryID
}

// GenerateMermaid produces a Mermaid flowchart of the boundary hierarchy.
// It applies semantic styling:
// - Page: ((Circle))
// - Marker: [[Subroutine]]
// - Threshold: [/Parallelogram/]
// Edges point from a boundary to the boundaries nested in it, labelled with
// the root path of the nested boundary. Overlay styles are applied if provided.
func GenerateMermaid(boundaries []domain.Boundary, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, b := range boundaries {
		opener, closer := "[", "]"
		switch b.Cause {
		case domain.CausePage:
			opener, closer = "((", "))"
		case domain.CauseMarker:
			opener, closer = "[[", "]]"
		case domain.CauseThreshold:
			opener, closer = "[/", "/]"
		}
		label := fmt.Sprintf("#%d %s", b.ID, b.RootKind)
		if b.ID != domain.PageBoundary {
			label += fmt.Sprintf(" <br/> depth %d", b.Depth)
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", nodeID(b.ID), opener, label, closer)
	}

	for _, b := range boundaries {
		if b.ID == domain.PageBoundary {
			continue
		}
		root := strings.ReplaceAll(b.Root.String(), "\"", "'")
		fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", nodeID(b.ParentID), root, nodeID(b.ID))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high contrast regardless of theme.
		sb.WriteString("    classDef updated fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef created fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		created := make(map[domain.BoundaryID]bool, len(overlay.Created))
		for _, id := range overlay.Created {
			if !created[id] {
				created[id] = true
				fmt.Fprintf(&sb, "    class %s created;\n", nodeID(id))
			}
		}
		for _, id := range overlay.Updated {
			if !created[id] {
				fmt.Fprintf(&sb, "    class %s updated;\n", nodeID(id))
			}
		}
	}

	return sb.String()
}

func nodeID(id domain.BoundaryID) string {
	return fmt.Sprintf("b%d", id)
}

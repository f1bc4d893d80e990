package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/aretw0/arbor/internal/compiler"
	"github.com/aretw0/arbor/internal/presentation/graph"
	"github.com/aretw0/arbor/pkg/domain"
)

// GraphOptions configures the graph command.
type GraphOptions struct {
	Options
	Path string
	// Next, when set, is rendered over Path and the resulting pass is overlaid on the diagram.
	Next string
}

// RunGraph prints a Mermaid diagram of the boundary hierarchy of a document.
func RunGraph(ctx context.Context, w io.Writer, opts GraphOptions) error {
	m, err := mount(ctx, opts.Options, opts.Path)
	if err != nil {
		return err
	}
	if opts.Next == "" {
		_, err = fmt.Fprint(w, graph.GenerateMermaid(m.eng.Boundaries(), nil))
		return err
	}

	next, err := compiler.NewParser().ParseFile(opts.Next)
	if err != nil {
		return err
	}
	report, err := m.eng.Render(ctx, next.Tree)
	if err != nil {
		return err
	}
	overlay := &graph.Overlay{Created: report.Created}
	for _, c := range report.Calls {
		if !contains(report.Created, c.BoundaryID) {
			overlay.Updated = append(overlay.Updated, c.BoundaryID)
		}
	}
	_, err = fmt.Fprint(w, graph.GenerateMermaid(m.eng.Boundaries(), overlay))
	return err
}

func contains(ids []domain.BoundaryID, id domain.BoundaryID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

package ports

import (
	"context"

	"github.com/aretw0/arbor/pkg/domain"
)

// PageService is the page-level surface used by adapters (HTTP, MCP) that
// receive whole trees from the outside.
type PageService interface {
	// Create mounts tree as a new page and returns its ID.
	Create(ctx context.Context, tree *domain.Node) (string, *domain.PassReport, error)

	// Update runs one reconciliation pass of the page against tree.
	Update(ctx context.Context, pageID string, tree *domain.Node) (*domain.PassReport, error)

	// Get returns the committed snapshot of the page.
	Get(ctx context.Context, pageID string) (*domain.Snapshot, error)

	// Delete unmounts the page and drops its snapshot.
	Delete(ctx context.Context, pageID string) error
}

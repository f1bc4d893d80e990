package ports

import (
	"context"

	"github.com/aretw0/arbor/pkg/domain"
)

// SnapshotStore defines the interface for persisting committed page snapshots.
// A restored snapshot is mounted fresh, so boundary ids are not carried over.
type SnapshotStore interface {
	// Save persists the snapshot of a given page ID.
	Save(ctx context.Context, pageID string, snap *domain.Snapshot) error

	// Load retrieves the snapshot of a given page ID.
	// Returns domain.ErrPageNotFound if the page does not exist.
	Load(ctx context.Context, pageID string) (*domain.Snapshot, error)

	// Delete removes the snapshot of a given page ID.
	Delete(ctx context.Context, pageID string) error

	// List returns the IDs of all stored pages.
	List(ctx context.Context) ([]string, error)
}

package ports

import (
	"context"

	"github.com/aretw0/automat/pkg/domain"
)

// SnapshotStore persists serialized machine instances, so an instance can be
// stopped in one process and resumed in another.
type SnapshotStore interface {
	// Save persists the snapshot under id, replacing any previous one.
	Save(ctx context.Context, id string, snap *domain.Snapshot) error

	// Load retrieves the snapshot for id.
	// Returns domain.ErrSnapshotNotFound if there is none.
	Load(ctx context.Context, id string) (*domain.Snapshot, error)

	// Delete removes the snapshot for id. Deleting a missing id is not an error.
	Delete(ctx context.Context, id string) error

	// List returns the ids of the stored snapshots.
	List(ctx context.Context) ([]string, error)
}

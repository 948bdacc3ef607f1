package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/automat/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSnapshotStoreContract verifies that a SnapshotStore implementation
// adheres to the interface contract.
func RunSnapshotStoreContract(t *testing.T, store SnapshotStore) {
	ctx := context.Background()
	id := "contract-test-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		snap := domain.NewSnapshot(id, "coffee", map[string]string{"beans": "full", "h2o": "empty"})
		require.NoError(t, store.Save(ctx, id, snap))

		loaded, err := store.Load(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, id, loaded.ID)
		assert.Equal(t, "coffee", loaded.Machine)
		assert.Equal(t, snap.State, loaded.State)
		assert.WithinDuration(t, snap.UpdatedAt, loaded.UpdatedAt, time.Second)
	})

	t.Run("Isolation", func(t *testing.T) {
		snap := domain.NewSnapshot(id, "coffee", map[string]string{"beans": "empty"})
		require.NoError(t, store.Save(ctx, id, snap))
		snap.State["beans"] = "mutated"

		loaded, err := store.Load(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "empty", loaded.State["beans"], "stores keep their own copy")
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+id)
		assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, id, domain.NewSnapshot(id, "coffee", map[string]string{})))
		require.NoError(t, store.Delete(ctx, id))

		_, err := store.Load(ctx, id)
		assert.ErrorIs(t, err, domain.ErrSnapshotNotFound, "Load after Delete should return ErrSnapshotNotFound")
		assert.NoError(t, store.Delete(ctx, id), "deleting twice is not an error")
	})

	t.Run("List", func(t *testing.T) {
		id1, id2 := id+"-1", id+"-2"
		require.NoError(t, store.Save(ctx, id1, domain.NewSnapshot(id1, "coffee", map[string]string{})))
		require.NoError(t, store.Save(ctx, id2, domain.NewSnapshot(id2, "coffee", map[string]string{})))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStoreContract exercises the Store behavior every adapter must share.
// Adapter tests call it with a fresh, empty store.
func RunStoreContract(t *testing.T, s Store) {
	ctx := context.Background()

	t.Run("FindOne on empty collection", func(t *testing.T) {
		_, err := s.FindOne(ctx, "contract_missing", Doc{"x": 1})
		assert.ErrorIs(t, err, ErrNoDocument)
	})

	t.Run("InsertOne generates id and FindOne matches", func(t *testing.T) {
		id, err := s.InsertOne(ctx, "contract_basic", Doc{"name": "alpha", "rank": float64(2)})
		require.NoError(t, err)
		require.NotEmpty(t, id)

		doc, err := s.FindOne(ctx, "contract_basic", Doc{"name": "alpha"})
		require.NoError(t, err)
		assert.Equal(t, id, doc[IDField])
		assert.Equal(t, float64(2), doc["rank"])
	})

	t.Run("Find with sort limit projection", func(t *testing.T) {
		for i, name := range []string{"one", "two", "three"} {
			_, err := s.InsertOne(ctx, "contract_query", Doc{
				"name":    name,
				"version": float64(i + 1),
				"group":   "g",
				"secret":  "hidden",
			})
			require.NoError(t, err)
		}

		docs, err := s.Find(ctx, "contract_query", Doc{"group": "g"}, FindOptions{
			Sort:       map[string]int{"version": -1},
			Limit:      2,
			Projection: []string{"name", "version"},
		})
		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, "three", docs[0]["name"])
		assert.Equal(t, "two", docs[1]["name"])
		assert.NotContains(t, docs[0], "secret")
		assert.Contains(t, docs[0], IDField)
	})

	t.Run("UpdateOne merges fields", func(t *testing.T) {
		_, err := s.InsertOne(ctx, "contract_update", Doc{"key": "k1", "status": "open"})
		require.NoError(t, err)

		n, err := s.UpdateOne(ctx, "contract_update", Doc{"key": "k1"}, Doc{"status": "closed"}, UpdateOptions{})
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		doc, err := s.FindOne(ctx, "contract_update", Doc{"key": "k1"})
		require.NoError(t, err)
		assert.Equal(t, "closed", doc["status"])
	})

	t.Run("UpdateOne without upsert misses", func(t *testing.T) {
		n, err := s.UpdateOne(ctx, "contract_update", Doc{"key": "absent"}, Doc{"status": "x"}, UpdateOptions{})
		require.NoError(t, err)
		assert.Equal(t, 0, n)
	})

	t.Run("UpdateOne upserts with set-on-insert", func(t *testing.T) {
		n, err := s.UpdateOne(ctx, "contract_upsert", Doc{"key": "fresh"}, Doc{"status": "new"}, UpdateOptions{
			Upsert:      true,
			SetOnInsert: Doc{"created_at": "2026-01-01T00:00:00Z"},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		doc, err := s.FindOne(ctx, "contract_upsert", Doc{"key": "fresh"})
		require.NoError(t, err)
		assert.Equal(t, "new", doc["status"])
		assert.Equal(t, "2026-01-01T00:00:00Z", doc["created_at"])
		assert.NotEmpty(t, doc[IDField])
	})

	t.Run("nil filter value matches absent field", func(t *testing.T) {
		_, err := s.InsertOne(ctx, "contract_nil", Doc{"user": "u1"})
		require.NoError(t, err)

		doc, err := s.FindOne(ctx, "contract_nil", Doc{"user": "u1", "deleted_at": nil})
		require.NoError(t, err)
		assert.Equal(t, "u1", doc["user"])
	})

	t.Run("DeleteOne removes a single document", func(t *testing.T) {
		_, err := s.InsertOne(ctx, "contract_delete", Doc{"key": "gone"})
		require.NoError(t, err)

		n, err := s.DeleteOne(ctx, "contract_delete", Doc{"key": "gone"})
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		n, err = s.DeleteOne(ctx, "contract_delete", Doc{"key": "gone"})
		require.NoError(t, err)
		assert.Equal(t, 0, n)
	})

	t.Run("returned documents are isolated", func(t *testing.T) {
		_, err := s.InsertOne(ctx, "contract_isolation", Doc{"key": "iso", "value": "original"})
		require.NoError(t, err)

		doc, err := s.FindOne(ctx, "contract_isolation", Doc{"key": "iso"})
		require.NoError(t, err)
		doc["value"] = "mutated"

		again, err := s.FindOne(ctx, "contract_isolation", Doc{"key": "iso"})
		require.NoError(t, err)
		assert.Equal(t, "original", again["value"])
	})
}

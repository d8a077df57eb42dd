package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaniflow/vaniflow/internal/store"
)

func TestMemoryStore_Contract(t *testing.T) {
	store.RunStoreContract(t, store.NewMemory())
}

func TestMemoryStore_InstancesAreIsolated(t *testing.T) {
	ctx := context.Background()
	a := store.NewMemory()
	b := store.NewMemory()

	_, err := a.InsertOne(ctx, "things", store.Doc{"name": "only-in-a"})
	require.NoError(t, err)

	_, err = b.FindOne(ctx, "things", store.Doc{"name": "only-in-a"})
	assert.ErrorIs(t, err, store.ErrNoDocument)
}

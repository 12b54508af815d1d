package core_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecovault/bank-engine/core"
	"github.com/ecovault/bank-engine/store/memory"
)

func TestSeedEmptyStore(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	require.NoError(t, core.Seed(ctx, store, time.Now))

	cats, err := store.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, cats, 4)

	members, err := store.ListMembers(ctx)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, core.RoleOperator, members[0].Role)
	assert.Equal(t, core.RoleMember, members[1].Role)
}

func TestSeedIsIdempotent(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	require.NoError(t, core.Seed(ctx, store, time.Now))

	// A second run against a populated store changes nothing
	require.NoError(t, core.Seed(ctx, store, time.Now))

	cats, err := store.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, cats, 4)
	members, err := store.ListMembers(ctx)
	require.NoError(t, err)
	assert.Len(t, members, 2)
}

func TestSeedLeavesExistingDataAlone(t *testing.T) {
	// GIVEN a store that already has a catalog
	store := memory.New()
	ctx := context.Background()
	require.NoError(t, store.SaveCategory(ctx, core.WasteCategory{
		ID: "waste-custom", Name: "Custom Scrap", PricePerKg: 900,
	}))

	require.NoError(t, core.Seed(ctx, store, time.Now))

	// THEN the custom catalog is preserved, but empty collections are seeded
	cats, err := store.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, core.CategoryID("waste-custom"), cats[0].ID)

	members, err := store.ListMembers(ctx)
	require.NoError(t, err)
	assert.Len(t, members, 2)
}

package core_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecovault/bank-engine/core"
	"github.com/ecovault/bank-engine/store/memory"
)

func TestCreateCategory(t *testing.T) {
	catalog := core.NewCatalog(memory.New())
	ctx := context.Background()

	cat, err := catalog.CreateCategory(ctx, "PET Plastic Bottles", 3000, "Plastic")
	require.NoError(t, err)
	assert.NotEmpty(t, cat.ID)
	assert.Equal(t, core.Money(3000), cat.PricePerKg)

	got, err := catalog.GetCategory(ctx, cat.ID)
	require.NoError(t, err)
	assert.Equal(t, *cat, *got)
}

func TestCreateCategoryValidation(t *testing.T) {
	catalog := core.NewCatalog(memory.New())
	ctx := context.Background()

	_, err := catalog.CreateCategory(ctx, "  ", 3000, "")
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	_, err = catalog.CreateCategory(ctx, "PET", 0, "")
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	_, err = catalog.CreateCategory(ctx, "PET", -100, "")
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestUpdateCategoryPartial(t *testing.T) {
	// GIVEN an existing category
	catalog := core.NewCatalog(memory.New())
	ctx := context.Background()
	cat, err := catalog.CreateCategory(ctx, "PET Plastic Bottles", 3000, "Plastic")
	require.NoError(t, err)

	// WHEN updating only the price
	newPrice := core.Money(3500)
	updated, err := catalog.UpdateCategory(ctx, cat.ID, core.CategoryUpdate{PricePerKg: &newPrice})
	require.NoError(t, err)

	// THEN the other fields are untouched
	assert.Equal(t, core.Money(3500), updated.PricePerKg)
	assert.Equal(t, "PET Plastic Bottles", updated.Name)
	assert.Equal(t, "Plastic", updated.Group)

	// Invalid partial values are rejected without effect
	empty := ""
	_, err = catalog.UpdateCategory(ctx, cat.ID, core.CategoryUpdate{Name: &empty})
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	zero := core.Money(0)
	_, err = catalog.UpdateCategory(ctx, cat.ID, core.CategoryUpdate{PricePerKg: &zero})
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	got, err := catalog.GetCategory(ctx, cat.ID)
	require.NoError(t, err)
	assert.Equal(t, core.Money(3500), got.PricePerKg)
}

func TestDeleteCategory(t *testing.T) {
	catalog := core.NewCatalog(memory.New())
	ctx := context.Background()
	cat, err := catalog.CreateCategory(ctx, "PET Plastic Bottles", 3000, "Plastic")
	require.NoError(t, err)

	require.NoError(t, catalog.DeleteCategory(ctx, cat.ID))

	_, err = catalog.GetCategory(ctx, cat.ID)
	assert.True(t, core.IsNotFound(err))

	err = catalog.DeleteCategory(ctx, cat.ID)
	assert.True(t, core.IsNotFound(err))
}

func TestDeleteCategoryKeepsSaleHistory(t *testing.T) {
	// GIVEN a settled sale in a category
	engine, store := newTestEngine(t)
	catalog := core.NewCatalog(store)
	ctx := context.Background()
	_, err := engine.RecordDeposit(ctx, "member-1", "waste-pet", "operator-1", kg("5"))
	require.NoError(t, err)
	sale, err := engine.SellToWholesaler(ctx, "waste-pet", kg("5"), 0, "operator-1")
	require.NoError(t, err)
	_, err = engine.SetWholesalePaymentStatus(ctx, sale.ID, core.PaymentPaid)
	require.NoError(t, err)

	// WHEN the category is deleted
	require.NoError(t, catalog.DeleteCategory(ctx, "waste-pet"))

	// THEN the sale still reads fully through its snapshots
	sales, err := engine.Sales(ctx)
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, "PET Plastic Bottles", sales[0].CategoryName)
	assert.Equal(t, core.Money(16500), sales[0].TotalAmount)

	// AND bank cash is unaffected
	cash, err := engine.BankCash(ctx)
	require.NoError(t, err)
	assert.Equal(t, core.Money(16500), cash)
}

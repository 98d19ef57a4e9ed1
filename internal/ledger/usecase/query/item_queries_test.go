package query_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrewkhoh/farmstand-inventory/internal/ledger/domain"
	"github.com/andrewkhoh/farmstand-inventory/internal/ledger/repository"
	"github.com/andrewkhoh/farmstand-inventory/internal/ledger/usecase/query"
)

func TestGetItem_ByID(t *testing.T) {
	store := repository.NewMemoryStore()
	item := seedItem(t, store, "prod-1", 10, 2, 0)
	handler := query.NewGetItemHandler(store.Items())

	found, err := handler.Handle(context.Background(), query.GetItemQuery{ID: item.ID})
	require.NoError(t, err)
	assert.Equal(t, item.ID, found.ID)
	assert.Equal(t, 8, found.AvailableStock)
}

func TestGetItem_ByProductID(t *testing.T) {
	store := repository.NewMemoryStore()
	item := seedItem(t, store, "prod-1", 10, 0, 0)
	handler := query.NewGetItemHandler(store.Items())

	found, err := handler.Handle(context.Background(), query.GetItemQuery{ProductID: "prod-1"})
	require.NoError(t, err)
	assert.Equal(t, item.ID, found.ID)
}

func TestGetItem_Missing_NotFound(t *testing.T) {
	store := repository.NewMemoryStore()
	handler := query.NewGetItemHandler(store.Items())

	_, err := handler.Handle(context.Background(), query.GetItemQuery{ID: "no-such-item"})
	assert.ErrorIs(t, err, domain.ErrItemNotFound)
}

func TestGetItem_NoIdentifier_Rejected(t *testing.T) {
	store := repository.NewMemoryStore()
	handler := query.NewGetItemHandler(store.Items())

	_, err := handler.Handle(context.Background(), query.GetItemQuery{})
	assert.EqualError(t, err, "id or product_id is required")
}

func TestListItems_DefaultLimit(t *testing.T) {
	store := repository.NewMemoryStore()
	for i := 0; i < 12; i++ {
		seedItem(t, store, fmt.Sprintf("prod-%d", i), 10, 0, 0)
	}
	handler := query.NewListItemsHandler(store.Items())

	items, err := handler.Handle(context.Background(), query.ListItemsQuery{})
	require.NoError(t, err)
	assert.Len(t, items, 10)
}

func TestListItems_LowStockOnly(t *testing.T) {
	store := repository.NewMemoryStore()
	healthy := seedItem(t, store, "prod-1", 50, 0, 5)
	low := seedItem(t, store, "prod-2", 3, 0, 5)
	handler := query.NewListItemsHandler(store.Items())

	items, err := handler.Handle(context.Background(), query.ListItemsQuery{LowStockOnly: true})
	require.NoError(t, err)

	require.Len(t, items, 1)
	assert.Equal(t, low.ID, items[0].ID)
	assert.NotEqual(t, healthy.ID, items[0].ID)
}

func TestCheckAvailability_SufficientStock(t *testing.T) {
	store := repository.NewMemoryStore()
	seedItem(t, store, "prod-1", 10, 3, 0)
	handler := query.NewCheckAvailabilityHandler(store.Items())

	result, err := handler.Handle(context.Background(), query.CheckAvailabilityQuery{
		ProductID: "prod-1",
		Quantity:  7,
	})
	require.NoError(t, err)

	assert.True(t, result.Available)
	assert.Equal(t, 7, result.AvailableStock)
	assert.Equal(t, 7, result.Requested)
}

func TestCheckAvailability_ReservedStockNotSellable(t *testing.T) {
	store := repository.NewMemoryStore()
	seedItem(t, store, "prod-1", 10, 3, 0)
	handler := query.NewCheckAvailabilityHandler(store.Items())

	result, err := handler.Handle(context.Background(), query.CheckAvailabilityQuery{
		ProductID: "prod-1",
		Quantity:  8,
	})
	require.NoError(t, err)
	assert.False(t, result.Available, "reserved units cannot be promised again")
}

func TestCheckAvailability_InactiveItem_Unavailable(t *testing.T) {
	store := repository.NewMemoryStore()
	item := seedItem(t, store, "prod-1", 10, 0, 0)
	item.IsActive = false
	require.NoError(t, store.Items().Update(context.Background(), item))

	handler := query.NewCheckAvailabilityHandler(store.Items())
	result, err := handler.Handle(context.Background(), query.CheckAvailabilityQuery{
		ProductID: "prod-1",
		Quantity:  1,
	})
	require.NoError(t, err)
	assert.False(t, result.Available)
}

func TestCheckAvailability_Validation(t *testing.T) {
	store := repository.NewMemoryStore()
	handler := query.NewCheckAvailabilityHandler(store.Items())
	ctx := context.Background()

	_, err := handler.Handle(ctx, query.CheckAvailabilityQuery{Quantity: 1})
	assert.EqualError(t, err, "product_id is required")

	_, err = handler.Handle(ctx, query.CheckAvailabilityQuery{ProductID: "prod-1", Quantity: 0})
	assert.EqualError(t, err, "quantity must be positive")

	_, err = handler.Handle(ctx, query.CheckAvailabilityQuery{ProductID: "prod-1", Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrItemNotFound)
}

package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrewkhoh/farmstand-inventory/internal/ledger/domain"
	"github.com/andrewkhoh/farmstand-inventory/internal/ledger/repository"
)

func newItem(productID string, stock int) *domain.InventoryItem {
	return &domain.InventoryItem{
		ProductID:            productID,
		CurrentStock:         stock,
		IsActive:             true,
		IsVisibleToCustomers: true,
	}
}

func TestMemoryStore_CreateItem_DuplicateProductRejected(t *testing.T) {
	store := repository.NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Items().Create(ctx, newItem("prod-1", 10)))

	err := store.Items().Create(ctx, newItem("prod-1", 5))
	assert.ErrorIs(t, err, domain.ErrItemExists)
}

func TestMemoryStore_ApplyBalanceChange_StaleSnapshotRejected(t *testing.T) {
	store := repository.NewMemoryStore()
	ctx := context.Background()

	item := newItem("prod-1", 10)
	require.NoError(t, store.Items().Create(ctx, item))

	// A change computed against stock 7 must not apply to a row at stock 10.
	err := store.Items().ApplyBalanceChange(ctx, domain.BalanceChange{
		ItemID:        item.ID,
		PreviousStock: 7,
		NewStock:      4,
		UpdatedAt:     time.Now().UTC(),
	})
	assert.ErrorIs(t, err, domain.ErrConcurrentModification)

	current, err := store.Items().FindByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, current.CurrentStock, "rejected change must leave counters untouched")
}

func TestMemoryStore_ApplyBalanceChange_MatchingSnapshotApplies(t *testing.T) {
	store := repository.NewMemoryStore()
	ctx := context.Background()

	item := newItem("prod-1", 10)
	item.ReservedStock = 2
	require.NoError(t, store.Items().Create(ctx, item))

	at := time.Now().UTC()
	require.NoError(t, store.Items().ApplyBalanceChange(ctx, domain.BalanceChange{
		ItemID:        item.ID,
		PreviousStock: 10,
		NewStock:      15,
		ReservedStock: 2,
		UpdatedAt:     at,
	}))

	current, err := store.Items().FindByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 15, current.CurrentStock)
	assert.Equal(t, 2, current.ReservedStock)
	assert.Equal(t, 13, current.AvailableStock)
	assert.Equal(t, at, current.LastStockUpdate)
}

func TestMemoryStore_CreateMovement_DuplicateIdempotencyKeyRejected(t *testing.T) {
	store := repository.NewMemoryStore()
	ctx := context.Background()

	key := "order-1-item-1"
	first := &domain.StockMovement{
		InventoryItemID: "item-1",
		MovementType:    domain.MovementSale,
		QuantityChange:  -2,
		IdempotencyKey:  &key,
		PerformedAt:     time.Now().UTC(),
	}
	require.NoError(t, store.Movements().Create(ctx, first))

	replay := &domain.StockMovement{
		InventoryItemID: "item-1",
		MovementType:    domain.MovementSale,
		QuantityChange:  -2,
		IdempotencyKey:  &key,
		PerformedAt:     time.Now().UTC(),
	}
	err := store.Movements().Create(ctx, replay)

	var dup *domain.DuplicateMovementError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, key, dup.IdempotencyKey)
	assert.Equal(t, first.ID, dup.ExistingID)
}

func TestMemoryStore_RunInTx_RollsBackEveryWrite(t *testing.T) {
	store := repository.NewMemoryStore()
	ctx := context.Background()

	item := newItem("prod-1", 10)
	require.NoError(t, store.Items().Create(ctx, item))

	boom := errors.New("boom")
	err := store.Atomic().RunInTx(ctx, func(items domain.ItemRepository, movements domain.MovementRepository) error {
		if err := items.ApplyBalanceChange(ctx, domain.BalanceChange{
			ItemID:        item.ID,
			PreviousStock: 10,
			NewStock:      5,
			UpdatedAt:     time.Now().UTC(),
		}); err != nil {
			return err
		}
		if err := movements.Create(ctx, &domain.StockMovement{
			InventoryItemID: item.ID,
			MovementType:    domain.MovementSale,
			QuantityChange:  -5,
			PerformedAt:     time.Now().UTC(),
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	current, err := store.Items().FindByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, current.CurrentStock, "balance write must roll back")

	page, err := store.Movements().FindByItem(ctx, item.ID, domain.HistoryPage{IncludeSystemMovements: true})
	require.NoError(t, err)
	assert.Empty(t, page.Movements, "movement write must roll back")
}

func TestMemoryStore_RunInTx_CommitsOnSuccess(t *testing.T) {
	store := repository.NewMemoryStore()
	ctx := context.Background()

	item := newItem("prod-1", 10)
	require.NoError(t, store.Items().Create(ctx, item))

	err := store.Atomic().RunInTx(ctx, func(items domain.ItemRepository, movements domain.MovementRepository) error {
		return movements.Create(ctx, &domain.StockMovement{
			InventoryItemID: item.ID,
			MovementType:    domain.MovementRestock,
			QuantityChange:  5,
			PerformedAt:     time.Now().UTC(),
		})
	})
	require.NoError(t, err)

	page, err := store.Movements().FindByItem(ctx, item.ID, domain.HistoryPage{IncludeSystemMovements: true})
	require.NoError(t, err)
	assert.Len(t, page.Movements, 1)
}

func TestMemoryStore_Reads_SkipUndecodableRowsButCountThem(t *testing.T) {
	store := repository.NewMemoryStore()
	ctx := context.Background()

	actor := "user-1"
	store.SeedMovement(domain.StockMovement{
		InventoryItemID: "item-1",
		MovementType:    domain.MovementRestock,
		QuantityChange:  10,
		PerformedBy:     &actor,
		PerformedAt:     time.Now().UTC().Add(-2 * time.Minute),
	})
	// Row written before the movement type set was tightened.
	store.SeedMovement(domain.StockMovement{
		InventoryItemID: "item-1",
		MovementType:    domain.MovementType("correction"),
		QuantityChange:  3,
		PerformedBy:     &actor,
		PerformedAt:     time.Now().UTC().Add(-time.Minute),
	})

	page, err := store.Movements().FindByItem(ctx, "item-1", domain.HistoryPage{})
	require.NoError(t, err)

	assert.Equal(t, 2, page.RowsScanned)
	assert.Equal(t, 1, page.Skipped())
	require.Len(t, page.Movements, 1)
	assert.Equal(t, domain.MovementRestock, page.Movements[0].MovementType)
}

func TestMemoryStore_CancelledContext_SurfacesStoreError(t *testing.T) {
	store := repository.NewMemoryStore()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Items().FindByID(ctx, "item-1")
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)

	err = store.Atomic().RunInTx(ctx, func(domain.ItemRepository, domain.MovementRepository) error {
		return nil
	})
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

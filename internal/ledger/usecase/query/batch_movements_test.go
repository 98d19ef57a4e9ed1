package query_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrewkhoh/farmstand-inventory/internal/ledger/domain"
	"github.com/andrewkhoh/farmstand-inventory/internal/ledger/repository"
	"github.com/andrewkhoh/farmstand-inventory/internal/ledger/usecase/query"
)

func newBatchMovementsHandler(store *repository.MemoryStore, gate domain.PermissionGate) *query.BatchMovementsHandler {
	return query.NewBatchMovementsHandler(gate, store.Movements(), &recordingSink{})
}

func TestBatchMovements_ReturnsCommitOrder(t *testing.T) {
	store := repository.NewMemoryStore()
	base := time.Date(2026, time.April, 1, 8, 0, 0, 0, time.UTC)

	first := seedMovement(store, movementSeed{
		itemID: "item-1", movType: domain.MovementSale, quantity: -1,
		performedBy: "mgr-1", batchID: "BATCH-7", performedAt: base,
	})
	second := seedMovement(store, movementSeed{
		itemID: "item-2", movType: domain.MovementSale, quantity: -2,
		performedBy: "mgr-1", batchID: "BATCH-7", performedAt: base.Add(time.Second),
	})
	// A movement from a different batch must not leak in.
	seedMovement(store, movementSeed{
		itemID: "item-3", movType: domain.MovementSale, quantity: -3,
		performedBy: "mgr-1", batchID: "BATCH-8", performedAt: base.Add(2 * time.Second),
	})

	handler := newBatchMovementsHandler(store, allowGate{})
	page, err := handler.Handle(context.Background(), query.BatchMovementsQuery{
		BatchID:     "BATCH-7",
		RequestedBy: strPtr("auditor-1"),
	})
	require.NoError(t, err)

	require.Len(t, page.Movements, 2)
	assert.Equal(t, first.ID, page.Movements[0].ID, "batch reads oldest first")
	assert.Equal(t, second.ID, page.Movements[1].ID)
}

func TestBatchMovements_UnknownBatch_ReturnsEmptyPage(t *testing.T) {
	store := repository.NewMemoryStore()
	handler := newBatchMovementsHandler(store, allowGate{})

	page, err := handler.Handle(context.Background(), query.BatchMovementsQuery{
		BatchID:     "BATCH-MISSING",
		RequestedBy: strPtr("auditor-1"),
	})
	require.NoError(t, err)
	assert.Empty(t, page.Movements)
	assert.Equal(t, 0, page.RowsScanned)
}

func TestBatchMovements_MissingBatchID_Rejected(t *testing.T) {
	store := repository.NewMemoryStore()
	handler := newBatchMovementsHandler(store, allowGate{})

	_, err := handler.Handle(context.Background(), query.BatchMovementsQuery{
		RequestedBy: strPtr("auditor-1"),
	})
	assert.EqualError(t, err, "batch_id is required")
}

func TestBatchMovements_DeniedReader_Rejected(t *testing.T) {
	store := repository.NewMemoryStore()
	handler := newBatchMovementsHandler(store, denyGate{})

	_, err := handler.Handle(context.Background(), query.BatchMovementsQuery{
		BatchID:     "BATCH-7",
		RequestedBy: strPtr("user-1"),
	})
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)
}

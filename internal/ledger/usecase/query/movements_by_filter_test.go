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

func newFilterHandler(store *repository.MemoryStore, gate domain.PermissionGate) (*query.MovementsByFilterHandler, *recordingSink) {
	telemetry := &recordingSink{}
	return query.NewMovementsByFilterHandler(gate, store.Movements(), telemetry), telemetry
}

func seedFilterFixtures(store *repository.MemoryStore) time.Time {
	base := time.Date(2026, time.April, 1, 8, 0, 0, 0, time.UTC)

	seedMovement(store, movementSeed{
		itemID: "item-1", movType: domain.MovementSale, quantity: -2,
		performedBy: "alice", performedAt: base,
	})
	seedMovement(store, movementSeed{
		itemID: "item-1", movType: domain.MovementSale, quantity: -4,
		performedBy: "bob", performedAt: base.Add(time.Hour),
	})
	seedMovement(store, movementSeed{
		itemID: "item-2", movType: domain.MovementRestock, quantity: 10,
		performedBy: "alice", performedAt: base.Add(2 * time.Hour),
	})
	seedMovement(store, movementSeed{
		itemID: "item-2", movType: domain.MovementSale, quantity: -1,
		performedBy: "alice", performedAt: base.Add(26 * time.Hour),
	})
	return base
}

func TestMovementsByFilter_AllFiltersAreConjunctive(t *testing.T) {
	store := repository.NewMemoryStore()
	base := seedFilterFixtures(store)
	handler, _ := newFilterHandler(store, allowGate{})

	page, err := handler.Handle(context.Background(), query.MovementsByFilterQuery{
		MovementType: strPtr("sale"),
		PerformedBy:  strPtr("alice"),
		StartDate:    timePtr(base.Add(-time.Minute)),
		EndDate:      timePtr(base.Add(25 * time.Hour)),
		RequestedBy:  strPtr("auditor-1"),
	})
	require.NoError(t, err)

	// Only alice's sale inside the window survives every filter: bob's sale
	// fails the actor filter, the restock fails the type filter, and the
	// late sale falls outside the window.
	require.Len(t, page.Movements, 1)
	assert.Equal(t, -2, page.Movements[0].QuantityChange)
}

func TestMovementsByFilter_NoFilters_ReturnsEverything(t *testing.T) {
	store := repository.NewMemoryStore()
	seedFilterFixtures(store)
	handler, telemetry := newFilterHandler(store, allowGate{})

	page, err := handler.Handle(context.Background(), query.MovementsByFilterQuery{
		RequestedBy: strPtr("auditor-1"),
	})
	require.NoError(t, err)

	assert.Len(t, page.Movements, 4)
	assert.Equal(t, []string{"movements_by_filter"}, telemetry.successes)
}

func TestMovementsByFilter_ActorOnly(t *testing.T) {
	store := repository.NewMemoryStore()
	seedFilterFixtures(store)
	handler, _ := newFilterHandler(store, allowGate{})

	page, err := handler.Handle(context.Background(), query.MovementsByFilterQuery{
		PerformedBy: strPtr("bob"),
		RequestedBy: strPtr("auditor-1"),
	})
	require.NoError(t, err)

	require.Len(t, page.Movements, 1)
	assert.Equal(t, -4, page.Movements[0].QuantityChange)
}

func TestMovementsByFilter_UnknownType_Rejected(t *testing.T) {
	store := repository.NewMemoryStore()
	handler, _ := newFilterHandler(store, allowGate{})

	_, err := handler.Handle(context.Background(), query.MovementsByFilterQuery{
		MovementType: strPtr("correction"),
		RequestedBy:  strPtr("auditor-1"),
	})
	assert.ErrorIs(t, err, domain.ErrUnknownMovementType)
}

func TestMovementsByFilter_InvertedWindow_Rejected(t *testing.T) {
	store := repository.NewMemoryStore()
	handler, _ := newFilterHandler(store, allowGate{})
	base := time.Date(2026, time.April, 1, 8, 0, 0, 0, time.UTC)

	_, err := handler.Handle(context.Background(), query.MovementsByFilterQuery{
		StartDate:   timePtr(base),
		EndDate:     timePtr(base.Add(-time.Hour)),
		RequestedBy: strPtr("auditor-1"),
	})
	assert.EqualError(t, err, "end_date cannot be before start_date")
}

func TestMovementsByFilter_DeniedReader_Rejected(t *testing.T) {
	store := repository.NewMemoryStore()
	handler, _ := newFilterHandler(store, denyGate{})

	_, err := handler.Handle(context.Background(), query.MovementsByFilterQuery{
		RequestedBy: strPtr("user-1"),
	})
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)
}

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

func newAnalyticsHandler(store *repository.MemoryStore, gate domain.PermissionGate) *query.MovementAnalyticsHandler {
	return query.NewMovementAnalyticsHandler(gate, store.Movements(), &recordingSink{})
}

func TestMovementAnalytics_AggregatesPerType(t *testing.T) {
	store := repository.NewMemoryStore()
	base := time.Date(2026, time.April, 1, 8, 0, 0, 0, time.UTC)

	seedMovement(store, movementSeed{itemID: "item-1", movType: domain.MovementRestock, quantity: 10, performedBy: "a", performedAt: base})
	seedMovement(store, movementSeed{itemID: "item-1", movType: domain.MovementRestock, quantity: 20, performedBy: "a", performedAt: base.Add(time.Hour)})
	seedMovement(store, movementSeed{itemID: "item-1", movType: domain.MovementSale, quantity: -5, performedBy: "b", performedAt: base.Add(2 * time.Hour)})
	seedMovement(store, movementSeed{itemID: "item-2", movType: domain.MovementSale, quantity: -15, performedBy: "b", performedAt: base.Add(3 * time.Hour)})

	handler := newAnalyticsHandler(store, allowGate{})
	result, err := handler.Handle(context.Background(), query.MovementAnalyticsQuery{
		StartDate:   base.Add(-time.Hour),
		EndDate:     base.Add(4 * time.Hour),
		RequestedBy: strPtr("auditor-1"),
	})
	require.NoError(t, err)

	assert.Equal(t, 4, result.MovementCount)
	require.Len(t, result.Aggregates, 2)

	// Canonical movement type order puts restock before sale.
	restock := result.Aggregates[0]
	assert.Equal(t, domain.MovementRestock, restock.MovementType)
	assert.Equal(t, 30, restock.TotalQuantity)
	assert.Equal(t, 30, restock.Impact)
	assert.Equal(t, 2, restock.MovementCount)
	assert.InDelta(t, 15.0, restock.AverageQuantity, 0.0001)

	// Sales aggregate absolute volume but carry a negative net impact.
	sale := result.Aggregates[1]
	assert.Equal(t, domain.MovementSale, sale.MovementType)
	assert.Equal(t, 20, sale.TotalQuantity)
	assert.Equal(t, -20, sale.Impact)
	assert.Equal(t, 2, sale.MovementCount)
	assert.InDelta(t, 10.0, sale.AverageQuantity, 0.0001)
}

func TestMovementAnalytics_DefaultsToLastThirtyDays(t *testing.T) {
	store := repository.NewMemoryStore()
	now := time.Now().UTC()

	seedMovement(store, movementSeed{itemID: "item-1", movType: domain.MovementSale, quantity: -2, performedBy: "a", performedAt: now.Add(-time.Hour)})
	seedMovement(store, movementSeed{itemID: "item-1", movType: domain.MovementSale, quantity: -9, performedBy: "a", performedAt: now.AddDate(0, 0, -40)})

	handler := newAnalyticsHandler(store, allowGate{})
	result, err := handler.Handle(context.Background(), query.MovementAnalyticsQuery{
		RequestedBy: strPtr("auditor-1"),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.MovementCount, "movements older than the default window are excluded")
	require.Len(t, result.Aggregates, 1)
	assert.Equal(t, 2, result.Aggregates[0].TotalQuantity)
	assert.Equal(t, domain.GroupByMovementType, result.GroupBy)
}

func TestMovementAnalytics_SkippedRowsStayOutOfAggregates(t *testing.T) {
	store := repository.NewMemoryStore()
	base := time.Date(2026, time.April, 1, 8, 0, 0, 0, time.UTC)

	seedMovement(store, movementSeed{itemID: "item-1", movType: domain.MovementSale, quantity: -5, performedBy: "a", performedAt: base})
	seedMovement(store, movementSeed{itemID: "item-1", movType: domain.MovementType("correction"), quantity: 99, performedBy: "a", performedAt: base.Add(time.Hour)})

	handler := newAnalyticsHandler(store, allowGate{})
	result, err := handler.Handle(context.Background(), query.MovementAnalyticsQuery{
		StartDate:   base.Add(-time.Hour),
		EndDate:     base.Add(2 * time.Hour),
		RequestedBy: strPtr("auditor-1"),
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.RowsScanned)
	assert.Equal(t, 1, result.RowsSkipped)
	assert.Equal(t, 1, result.MovementCount)
	require.Len(t, result.Aggregates, 1)
	assert.Equal(t, 5, result.Aggregates[0].TotalQuantity)
}

func TestMovementAnalytics_InvertedWindow_Rejected(t *testing.T) {
	store := repository.NewMemoryStore()
	handler := newAnalyticsHandler(store, allowGate{})
	base := time.Date(2026, time.April, 1, 8, 0, 0, 0, time.UTC)

	_, err := handler.Handle(context.Background(), query.MovementAnalyticsQuery{
		StartDate:   base,
		EndDate:     base.Add(-time.Hour),
		RequestedBy: strPtr("auditor-1"),
	})
	assert.EqualError(t, err, "end_date cannot be before start_date")
}

func TestMovementAnalytics_UnsupportedGroupBy_Rejected(t *testing.T) {
	store := repository.NewMemoryStore()
	handler := newAnalyticsHandler(store, allowGate{})

	_, err := handler.Handle(context.Background(), query.MovementAnalyticsQuery{
		GroupBy:     "performed_by",
		RequestedBy: strPtr("auditor-1"),
	})
	assert.EqualError(t, err, `unsupported group_by "performed_by"`)
}

func TestMovementAnalytics_DeniedReader_Rejected(t *testing.T) {
	store := repository.NewMemoryStore()
	handler := newAnalyticsHandler(store, denyGate{})

	_, err := handler.Handle(context.Background(), query.MovementAnalyticsQuery{
		RequestedBy: strPtr("user-1"),
	})
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)
}

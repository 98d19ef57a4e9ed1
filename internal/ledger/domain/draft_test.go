package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrewkhoh/farmstand-inventory/internal/ledger/domain"
)

func snapshot(stock, reserved int) domain.BalanceSnapshot {
	return domain.BalanceSnapshot{
		ItemID:        "item-1",
		CurrentStock:  stock,
		ReservedStock: reserved,
	}
}

func intRef(v int) *int { return &v }

func TestBuildDraft_MatchingExpectedStock_Allowed(t *testing.T) {
	draft, err := domain.BuildDraft(snapshot(10, 0), domain.MovementProposal{
		MovementType:          domain.MovementSale,
		QuantityChange:        -2,
		ExpectedPreviousStock: intRef(10),
	})
	require.NoError(t, err)
	assert.Equal(t, 8, draft.NewStock)
}

func TestBuildDraft_Restock_ComputesNewCounters(t *testing.T) {
	draft, err := domain.BuildDraft(snapshot(10, 2), domain.MovementProposal{
		MovementType:   domain.MovementRestock,
		QuantityChange: 5,
	})
	require.NoError(t, err)

	assert.Equal(t, 15, draft.NewStock)
	assert.Equal(t, 2, draft.NewReserved)
	assert.Equal(t, 13, draft.NewAvailable)
}

func TestBuildDraft_SaleWithReservationRelease_ComputesNewCounters(t *testing.T) {
	// Shipping 3 reserved units: stock drops by 3 and the reservation is
	// released in the same movement.
	draft, err := domain.BuildDraft(snapshot(10, 3), domain.MovementProposal{
		MovementType:        domain.MovementSale,
		QuantityChange:      -3,
		ReservedStockChange: -3,
	})
	require.NoError(t, err)

	assert.Equal(t, 7, draft.NewStock)
	assert.Equal(t, 0, draft.NewReserved)
	assert.Equal(t, 7, draft.NewAvailable)
}

func TestBuildDraft_AdjustmentMovesEitherDirection(t *testing.T) {
	up, err := domain.BuildDraft(snapshot(10, 0), domain.MovementProposal{
		MovementType:   domain.MovementAdjustment,
		QuantityChange: 4,
	})
	require.NoError(t, err)
	assert.Equal(t, 14, up.NewStock)

	down, err := domain.BuildDraft(snapshot(10, 0), domain.MovementProposal{
		MovementType:   domain.MovementAdjustment,
		QuantityChange: -4,
	})
	require.NoError(t, err)
	assert.Equal(t, 6, down.NewStock)
}

func TestBuildDraft_Violations(t *testing.T) {
	tests := []struct {
		name     string
		snapshot domain.BalanceSnapshot
		proposal domain.MovementProposal
		reason   domain.ViolationReason
	}{
		{
			name:     "zero quantity",
			snapshot: snapshot(10, 0),
			proposal: domain.MovementProposal{MovementType: domain.MovementAdjustment, QuantityChange: 0},
			reason:   domain.ReasonZeroQuantity,
		},
		{
			name:     "restock with negative quantity",
			snapshot: snapshot(10, 0),
			proposal: domain.MovementProposal{MovementType: domain.MovementRestock, QuantityChange: -5},
			reason:   domain.ReasonDirectionMismatch,
		},
		{
			name:     "release with negative quantity",
			snapshot: snapshot(10, 0),
			proposal: domain.MovementProposal{MovementType: domain.MovementRelease, QuantityChange: -1},
			reason:   domain.ReasonDirectionMismatch,
		},
		{
			name:     "sale with positive quantity",
			snapshot: snapshot(10, 0),
			proposal: domain.MovementProposal{MovementType: domain.MovementSale, QuantityChange: 5},
			reason:   domain.ReasonDirectionMismatch,
		},
		{
			name:     "reservation with positive quantity",
			snapshot: snapshot(10, 0),
			proposal: domain.MovementProposal{MovementType: domain.MovementReservation, QuantityChange: 2},
			reason:   domain.ReasonDirectionMismatch,
		},
		{
			name:     "oversell",
			snapshot: snapshot(10, 0),
			proposal: domain.MovementProposal{MovementType: domain.MovementSale, QuantityChange: -11},
			reason:   domain.ReasonNegativeResultingStock,
		},
		{
			name:     "reserved driven negative",
			snapshot: snapshot(10, 2),
			proposal: domain.MovementProposal{MovementType: domain.MovementAdjustment, QuantityChange: 1, ReservedStockChange: -5},
			reason:   domain.ReasonNegativeReservedStock,
		},
		{
			name:     "available driven negative",
			snapshot: snapshot(10, 8),
			proposal: domain.MovementProposal{MovementType: domain.MovementSale, QuantityChange: -3},
			reason:   domain.ReasonNegativeAvailableStock,
		},
		{
			name:     "reserved raised past stock",
			snapshot: snapshot(10, 0),
			proposal: domain.MovementProposal{MovementType: domain.MovementAdjustment, QuantityChange: 1, ReservedStockChange: 12},
			reason:   domain.ReasonNegativeAvailableStock,
		},
		{
			name:     "stale snapshot",
			snapshot: snapshot(10, 0),
			proposal: domain.MovementProposal{MovementType: domain.MovementSale, QuantityChange: -2, ExpectedPreviousStock: intRef(8)},
			reason:   domain.ReasonStaleSnapshot,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft, err := domain.BuildDraft(tt.snapshot, tt.proposal)
			require.Error(t, err)
			assert.Nil(t, draft)

			var violation *domain.InvariantViolationError
			require.ErrorAs(t, err, &violation)
			assert.Equal(t, tt.reason, violation.Reason)
			assert.Equal(t, "item-1", violation.ItemID)
			assert.ErrorIs(t, err, domain.ErrInvariantViolation)
		})
	}
}

func TestBuildDraft_UnknownMovementType_Rejected(t *testing.T) {
	_, err := domain.BuildDraft(snapshot(10, 0), domain.MovementProposal{
		MovementType:   domain.MovementType("correction"),
		QuantityChange: 5,
	})
	assert.ErrorIs(t, err, domain.ErrUnknownMovementType)
}

func TestBuildDraft_ExactSellout_Allowed(t *testing.T) {
	draft, err := domain.BuildDraft(snapshot(10, 0), domain.MovementProposal{
		MovementType:   domain.MovementSale,
		QuantityChange: -10,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, draft.NewStock)
	assert.Equal(t, 0, draft.NewAvailable)
}

func TestMovementDraft_ToMovement_CapturesTransition(t *testing.T) {
	actor := "user-1"
	orderID := "order-9"
	batchID := "BATCH-1"
	key := "key-1"

	draft, err := domain.BuildDraft(snapshot(10, 0), domain.MovementProposal{
		MovementType:     domain.MovementSale,
		QuantityChange:   -4,
		Reason:           "checkout",
		PerformedBy:      &actor,
		ReferenceOrderID: &orderID,
		BatchID:          &batchID,
		IdempotencyKey:   &key,
	})
	require.NoError(t, err)

	at := time.Date(2026, time.May, 2, 9, 30, 0, 0, time.UTC)
	movement := draft.ToMovement("mv-1", at)

	assert.Equal(t, "mv-1", movement.ID)
	assert.Equal(t, "item-1", movement.InventoryItemID)
	assert.Equal(t, domain.MovementSale, movement.MovementType)
	assert.Equal(t, -4, movement.QuantityChange)
	assert.Equal(t, 10, movement.PreviousStock)
	assert.Equal(t, 6, movement.NewStock)
	assert.Equal(t, "checkout", movement.Reason)
	assert.Equal(t, &actor, movement.PerformedBy)
	assert.Equal(t, &orderID, movement.ReferenceOrderID)
	assert.Equal(t, &batchID, movement.BatchID)
	assert.Equal(t, &key, movement.IdempotencyKey)
	assert.Equal(t, at, movement.PerformedAt)
}

func TestMovementDraft_ToBalanceChange_GuardsOnSnapshotStock(t *testing.T) {
	draft, err := domain.BuildDraft(snapshot(10, 2), domain.MovementProposal{
		MovementType:   domain.MovementRestock,
		QuantityChange: 5,
	})
	require.NoError(t, err)

	at := time.Date(2026, time.May, 2, 9, 30, 0, 0, time.UTC)
	change := draft.ToBalanceChange(at)

	assert.Equal(t, "item-1", change.ItemID)
	assert.Equal(t, 10, change.PreviousStock)
	assert.Equal(t, 15, change.NewStock)
	assert.Equal(t, 2, change.ReservedStock)
	assert.Equal(t, at, change.UpdatedAt)
}

package command_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrewkhoh/farmstand-inventory/internal/ledger/domain"
	"github.com/andrewkhoh/farmstand-inventory/internal/ledger/repository"
	"github.com/andrewkhoh/farmstand-inventory/internal/ledger/usecase/command"
)

func newRecordHandler(store *repository.MemoryStore, gate domain.PermissionGate) (*command.RecordMovementHandler, *recordingSink, *recordingPublisher) {
	telemetry := &recordingSink{}
	events := &recordingPublisher{}
	handler := command.NewRecordMovementHandler(gate, store.Atomic(), store.Movements(), telemetry, events)
	return handler, telemetry, events
}

func TestRecordMovement_Restock_CommitsBalanceAndAudit(t *testing.T) {
	store := repository.NewMemoryStore()
	item := seedItem(t, store, "prod-1", 10, 2, 0)
	handler, telemetry, events := newRecordHandler(store, allowGate{})

	movement, err := handler.Handle(context.Background(), command.RecordMovementCommand{
		ItemID:         item.ID,
		MovementType:   "restock",
		QuantityChange: 15,
		Reason:         "weekly delivery",
		PerformedBy:    strPtr("user-1"),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, movement.ID)
	assert.Equal(t, 10, movement.PreviousStock)
	assert.Equal(t, 25, movement.NewStock)
	assert.Equal(t, "weekly delivery", movement.Reason)

	updated, err := store.Items().FindByID(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, 25, updated.CurrentStock)
	assert.Equal(t, 2, updated.ReservedStock)
	assert.Equal(t, 23, updated.AvailableStock)

	page, err := store.Movements().FindByItem(context.Background(), item.ID, domain.HistoryPage{})
	require.NoError(t, err)
	require.Len(t, page.Movements, 1)
	assert.Equal(t, movement.ID, page.Movements[0].ID)

	assert.Equal(t, []string{"record_movement"}, telemetry.successes)
	require.Len(t, events.movements, 1)
	assert.Equal(t, movement.ID, events.movements[0].ID)
	assert.Empty(t, events.lowStock)
}

func TestRecordMovement_JointReservedChange_CommitsBothCounters(t *testing.T) {
	store := repository.NewMemoryStore()
	item := seedItem(t, store, "prod-1", 10, 0, 0)
	handler, _, _ := newRecordHandler(store, allowGate{})

	_, err := handler.Handle(context.Background(), command.RecordMovementCommand{
		ItemID:              item.ID,
		MovementType:        "adjustment",
		QuantityChange:      2,
		ReservedStockChange: 3,
		PerformedBy:         strPtr("user-1"),
	})
	require.NoError(t, err)

	updated, err := store.Items().FindByID(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, 12, updated.CurrentStock)
	assert.Equal(t, 3, updated.ReservedStock)
	assert.Equal(t, 9, updated.AvailableStock)
}

func TestRecordMovement_Oversell_RejectedWithNothingWritten(t *testing.T) {
	store := repository.NewMemoryStore()
	item := seedItem(t, store, "prod-1", 10, 0, 0)
	handler, telemetry, events := newRecordHandler(store, allowGate{})

	_, err := handler.Handle(context.Background(), command.RecordMovementCommand{
		ItemID:         item.ID,
		MovementType:   "sale",
		QuantityChange: -20,
		PerformedBy:    strPtr("user-1"),
	})

	require.Error(t, err)
	var violation *domain.InvariantViolationError
	require.ErrorAs(t, err, &violation)
	assert.Equal(t, domain.ReasonNegativeResultingStock, violation.Reason)

	updated, findErr := store.Items().FindByID(context.Background(), item.ID)
	require.NoError(t, findErr)
	assert.Equal(t, 10, updated.CurrentStock, "rejected movement must not touch the balance")

	page, findErr := store.Movements().FindByItem(context.Background(), item.ID, domain.HistoryPage{IncludeSystemMovements: true})
	require.NoError(t, findErr)
	assert.Empty(t, page.Movements, "rejected movement must not reach the audit log")

	assert.Empty(t, events.movements, "rejected movement must not be announced")
	assert.Equal(t, []string{"record_movement:invariant_violation"}, telemetry.failures)
}

func TestRecordMovement_StaleExpectedStock_Rejected(t *testing.T) {
	store := repository.NewMemoryStore()
	item := seedItem(t, store, "prod-1", 10, 0, 0)
	handler, _, _ := newRecordHandler(store, allowGate{})

	// The caller read the balance at 8; someone restocked since.
	_, err := handler.Handle(context.Background(), command.RecordMovementCommand{
		ItemID:                item.ID,
		MovementType:          "sale",
		QuantityChange:        -2,
		ExpectedPreviousStock: intPtr(8),
		PerformedBy:           strPtr("user-1"),
	})

	var violation *domain.InvariantViolationError
	require.ErrorAs(t, err, &violation)
	assert.Equal(t, domain.ReasonStaleSnapshot, violation.Reason)

	updated, findErr := store.Items().FindByID(context.Background(), item.ID)
	require.NoError(t, findErr)
	assert.Equal(t, 10, updated.CurrentStock)
}

func TestRecordMovement_UnknownType_Rejected(t *testing.T) {
	store := repository.NewMemoryStore()
	item := seedItem(t, store, "prod-1", 10, 0, 0)
	handler, _, _ := newRecordHandler(store, allowGate{})

	_, err := handler.Handle(context.Background(), command.RecordMovementCommand{
		ItemID:         item.ID,
		MovementType:   "correction",
		QuantityChange: 5,
		PerformedBy:    strPtr("user-1"),
	})
	assert.ErrorIs(t, err, domain.ErrUnknownMovementType)
}

func TestRecordMovement_MissingItem_NotFound(t *testing.T) {
	store := repository.NewMemoryStore()
	handler, _, _ := newRecordHandler(store, allowGate{})

	_, err := handler.Handle(context.Background(), command.RecordMovementCommand{
		ItemID:         "no-such-item",
		MovementType:   "restock",
		QuantityChange: 5,
	})
	assert.ErrorIs(t, err, domain.ErrItemNotFound)
}

func TestRecordMovement_IdempotencyKeyReplay_ReturnsDuplicate(t *testing.T) {
	store := repository.NewMemoryStore()
	item := seedItem(t, store, "prod-1", 10, 0, 0)
	handler, _, _ := newRecordHandler(store, allowGate{})

	cmd := command.RecordMovementCommand{
		ItemID:         item.ID,
		MovementType:   "sale",
		QuantityChange: -2,
		PerformedBy:    strPtr("user-1"),
		IdempotencyKey: strPtr("order-1-item-1"),
	}

	first, err := handler.Handle(context.Background(), cmd)
	require.NoError(t, err)

	_, err = handler.Handle(context.Background(), cmd)
	var dup *domain.DuplicateMovementError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, first.ID, dup.ExistingID)

	updated, findErr := store.Items().FindByID(context.Background(), item.ID)
	require.NoError(t, findErr)
	assert.Equal(t, 8, updated.CurrentStock, "replay must not deduct twice")
}

func TestRecordMovement_DeniedActor_NothingWritten(t *testing.T) {
	store := repository.NewMemoryStore()
	item := seedItem(t, store, "prod-1", 10, 0, 0)
	handler, telemetry, _ := newRecordHandler(store, denyGate{})

	_, err := handler.Handle(context.Background(), command.RecordMovementCommand{
		ItemID:         item.ID,
		MovementType:   "restock",
		QuantityChange: 5,
		PerformedBy:    strPtr("user-1"),
	})
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)
	assert.Equal(t, []string{"record_movement:permission_denied"}, telemetry.failures)

	updated, findErr := store.Items().FindByID(context.Background(), item.ID)
	require.NoError(t, findErr)
	assert.Equal(t, 10, updated.CurrentStock)
}

func TestRecordMovement_SystemMovement_SkipsGate(t *testing.T) {
	store := repository.NewMemoryStore()
	item := seedItem(t, store, "prod-1", 10, 0, 0)
	// The gate would deny anyone, but consumer-driven movements carry no actor.
	handler, _, _ := newRecordHandler(store, denyGate{})

	movement, err := handler.Handle(context.Background(), command.RecordMovementCommand{
		ItemID:         item.ID,
		MovementType:   "sale",
		QuantityChange: -2,
	})
	require.NoError(t, err)
	assert.True(t, movement.IsSystemMovement())
}

func TestRecordMovement_GateUnavailable_FailsClosed(t *testing.T) {
	store := repository.NewMemoryStore()
	item := seedItem(t, store, "prod-1", 10, 0, 0)
	handler, telemetry, _ := newRecordHandler(store, downGate{})

	_, err := handler.Handle(context.Background(), command.RecordMovementCommand{
		ItemID:         item.ID,
		MovementType:   "restock",
		QuantityChange: 5,
		PerformedBy:    strPtr("user-1"),
	})
	assert.ErrorIs(t, err, domain.ErrPermissionUnavailable)
	assert.True(t, domain.IsRetryable(err))
	assert.Equal(t, []string{"record_movement:permission_unavailable"}, telemetry.failures)
}

func TestRecordMovement_BelowThreshold_AnnouncesLowStock(t *testing.T) {
	store := repository.NewMemoryStore()
	item := seedItem(t, store, "prod-1", 12, 0, 10)
	handler, _, events := newRecordHandler(store, allowGate{})

	_, err := handler.Handle(context.Background(), command.RecordMovementCommand{
		ItemID:         item.ID,
		MovementType:   "sale",
		QuantityChange: -5,
		PerformedBy:    strPtr("user-1"),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{item.ID}, events.lowStock)
}

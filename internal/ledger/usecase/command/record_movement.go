package command

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/andrewkhoh/farmstand-inventory/internal/ledger/domain"
)

// RecordMovementCommand represents the command to record a stock movement.
// ExpectedPreviousStock optionally pins the balance the caller last saw.
type RecordMovementCommand struct {
	ItemID                string
	MovementType          string
	QuantityChange        int
	ReservedStockChange   int
	ExpectedPreviousStock *int
	Reason                string
	PerformedBy           *string
	ReferenceOrderID      *string
	BatchID               *string
	IdempotencyKey        *string
}

// RecordMovementHandler handles record movement command
type RecordMovementHandler struct {
	gate      domain.PermissionGate
	atomic    domain.Atomic
	movements domain.MovementRepository
	telemetry domain.TelemetrySink
	events    domain.EventPublisher
	now       func() time.Time
}

// NewRecordMovementHandler creates a new record movement handler
func NewRecordMovementHandler(
	gate domain.PermissionGate,
	atomic domain.Atomic,
	movements domain.MovementRepository,
	telemetry domain.TelemetrySink,
	events domain.EventPublisher,
) *RecordMovementHandler {
	return &RecordMovementHandler{
		gate:      gate,
		atomic:    atomic,
		movements: movements,
		telemetry: telemetry,
		events:    events,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Handle executes the record movement command. The balance update and the
// audit record commit in one transaction; on success the movement is
// announced and stock thresholds are checked.
func (h *RecordMovementHandler) Handle(ctx context.Context, cmd RecordMovementCommand) (*domain.StockMovement, error) {
	return h.handle(ctx, cmd, true)
}

const opRecordMovement = "record_movement"

// handle lets the batch processor reuse the commit path after it has already
// cleared the actor once for the whole batch.
func (h *RecordMovementHandler) handle(ctx context.Context, cmd RecordMovementCommand, checkGate bool) (*domain.StockMovement, error) {
	start := h.now()
	defer func() {
		h.telemetry.ObserveDuration(opRecordMovement, time.Since(start).Seconds())
	}()

	movement, item, err := h.record(ctx, cmd, checkGate)
	if err != nil {
		h.telemetry.RecordFailure(opRecordMovement, domain.ClassifyFailure(err))
		return nil, err
	}

	h.telemetry.RecordSuccess(opRecordMovement)
	h.events.MovementRecorded(ctx, movement)
	if item.IsLowStock() {
		h.events.StockLevelLow(ctx, item)
	}
	return movement, nil
}

func (h *RecordMovementHandler) record(ctx context.Context, cmd RecordMovementCommand, checkGate bool) (*domain.StockMovement, *domain.InventoryItem, error) {
	if cmd.ItemID == "" {
		return nil, nil, fmt.Errorf("item_id is required")
	}
	movementType, err := domain.ParseMovementType(cmd.MovementType)
	if err != nil {
		return nil, nil, err
	}

	if checkGate && cmd.PerformedBy != nil {
		if err := h.gate.Check(ctx, *cmd.PerformedBy, domain.ActionRecordMovements); err != nil {
			return nil, nil, err
		}
	}

	if cmd.IdempotencyKey != nil {
		if existing, err := h.movements.FindByIdempotencyKey(ctx, *cmd.IdempotencyKey); err == nil {
			return nil, nil, &domain.DuplicateMovementError{
				IdempotencyKey: *cmd.IdempotencyKey,
				ExistingID:     existing.ID,
			}
		}
	}

	proposal := domain.MovementProposal{
		MovementType:          movementType,
		QuantityChange:        cmd.QuantityChange,
		ReservedStockChange:   cmd.ReservedStockChange,
		ExpectedPreviousStock: cmd.ExpectedPreviousStock,
		Reason:                cmd.Reason,
		PerformedBy:           cmd.PerformedBy,
		ReferenceOrderID:      cmd.ReferenceOrderID,
		BatchID:               cmd.BatchID,
		IdempotencyKey:        cmd.IdempotencyKey,
	}

	var (
		movement *domain.StockMovement
		updated  *domain.InventoryItem
	)
	err = h.atomic.RunInTx(ctx, func(items domain.ItemRepository, movements domain.MovementRepository) error {
		item, err := items.FindByID(ctx, cmd.ItemID)
		if err != nil {
			return err
		}

		draft, err := domain.BuildDraft(item.Snapshot(), proposal)
		if err != nil {
			return err
		}

		committedAt := h.now()
		if err := items.ApplyBalanceChange(ctx, draft.ToBalanceChange(committedAt)); err != nil {
			return err
		}

		movement = draft.ToMovement(uuid.New().String(), committedAt)
		if err := movements.Create(ctx, movement); err != nil {
			return err
		}

		item.CurrentStock = draft.NewStock
		item.ReservedStock = draft.NewReserved
		item.AvailableStock = draft.NewAvailable
		item.LastStockUpdate = committedAt
		updated = item
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to record movement: %w", err)
	}

	return movement, updated, nil
}

package command

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/andrewkhoh/farmstand-inventory/internal/ledger/domain"
)

// UpdateStockCommand represents the command to set an item's stock to an
// absolute target. The ledger converts the target into a movement so the
// audit trail never has silent balance changes.
type UpdateStockCommand struct {
	ItemID           string
	NewCurrentStock  int
	NewReservedStock *int
	MovementType     string
	Reason           string
	PerformedBy      *string
	ReferenceOrderID *string
}

// UpdateStockHandler handles update stock command
type UpdateStockHandler struct {
	gate      domain.PermissionGate
	atomic    domain.Atomic
	telemetry domain.TelemetrySink
	events    domain.EventPublisher
	now       func() time.Time
}

// NewUpdateStockHandler creates a new update stock handler
func NewUpdateStockHandler(
	gate domain.PermissionGate,
	atomic domain.Atomic,
	telemetry domain.TelemetrySink,
	events domain.EventPublisher,
) *UpdateStockHandler {
	return &UpdateStockHandler{
		gate:      gate,
		atomic:    atomic,
		telemetry: telemetry,
		events:    events,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

const opUpdateStock = "update_stock"

// Handle executes the update stock command and returns the updated item.
func (h *UpdateStockHandler) Handle(ctx context.Context, cmd UpdateStockCommand) (*domain.InventoryItem, error) {
	start := h.now()
	defer func() {
		h.telemetry.ObserveDuration(opUpdateStock, time.Since(start).Seconds())
	}()

	item, movement, err := h.update(ctx, cmd)
	if err != nil {
		h.telemetry.RecordFailure(opUpdateStock, domain.ClassifyFailure(err))
		return nil, err
	}

	h.telemetry.RecordSuccess(opUpdateStock)
	h.events.MovementRecorded(ctx, movement)
	if item.IsLowStock() {
		h.events.StockLevelLow(ctx, item)
	}
	return item, nil
}

func (h *UpdateStockHandler) update(ctx context.Context, cmd UpdateStockCommand) (*domain.InventoryItem, *domain.StockMovement, error) {
	if cmd.ItemID == "" {
		return nil, nil, fmt.Errorf("item_id is required")
	}
	if cmd.NewCurrentStock < 0 {
		return nil, nil, &domain.InvariantViolationError{
			ItemID: cmd.ItemID,
			Reason: domain.ReasonNegativeResultingStock,
			Detail: fmt.Sprintf("target stock %d", cmd.NewCurrentStock),
		}
	}
	if cmd.MovementType == "" {
		cmd.MovementType = string(domain.MovementAdjustment)
	}
	movementType, err := domain.ParseMovementType(cmd.MovementType)
	if err != nil {
		return nil, nil, err
	}

	if cmd.PerformedBy != nil {
		if err := h.gate.Check(ctx, *cmd.PerformedBy, domain.ActionRecordMovements); err != nil {
			return nil, nil, err
		}
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

		proposal := domain.MovementProposal{
			MovementType:     movementType,
			QuantityChange:   cmd.NewCurrentStock - item.CurrentStock,
			Reason:           cmd.Reason,
			PerformedBy:      cmd.PerformedBy,
			ReferenceOrderID: cmd.ReferenceOrderID,
		}
		if cmd.NewReservedStock != nil {
			proposal.ReservedStockChange = *cmd.NewReservedStock - item.ReservedStock
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
		return nil, nil, fmt.Errorf("failed to update stock: %w", err)
	}

	return updated, movement, nil
}

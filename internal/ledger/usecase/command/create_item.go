package command

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/andrewkhoh/farmstand-inventory/internal/ledger/domain"
)

// CreateItemCommand represents the command to create an inventory item
type CreateItemCommand struct {
	ProductID            string
	InitialStock         int
	MinimumThreshold     int
	MaximumThreshold     *int
	IsActive             bool
	IsVisibleToCustomers bool
	PerformedBy          *string
}

// CreateItemHandler handles create item command
type CreateItemHandler struct {
	gate      domain.PermissionGate
	atomic    domain.Atomic
	telemetry domain.TelemetrySink
	now       func() time.Time
}

// NewCreateItemHandler creates a new create item handler
func NewCreateItemHandler(
	gate domain.PermissionGate,
	atomic domain.Atomic,
	telemetry domain.TelemetrySink,
) *CreateItemHandler {
	return &CreateItemHandler{
		gate:      gate,
		atomic:    atomic,
		telemetry: telemetry,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

const opCreateItem = "create_item"

// Handle executes the create item command. A non-zero initial stock is
// entered through a restock movement so the audit trail starts at zero and
// accounts for every unit.
func (h *CreateItemHandler) Handle(ctx context.Context, cmd CreateItemCommand) (*domain.InventoryItem, error) {
	if cmd.ProductID == "" {
		return nil, fmt.Errorf("product_id is required")
	}
	if cmd.InitialStock < 0 {
		return nil, fmt.Errorf("initial_stock cannot be negative")
	}
	if cmd.MinimumThreshold < 0 {
		return nil, fmt.Errorf("minimum_threshold cannot be negative")
	}
	if cmd.MaximumThreshold != nil && *cmd.MaximumThreshold < cmd.MinimumThreshold {
		return nil, fmt.Errorf("maximum_threshold cannot be below minimum_threshold")
	}

	if cmd.PerformedBy != nil {
		if err := h.gate.Check(ctx, *cmd.PerformedBy, domain.ActionRecordMovements); err != nil {
			h.telemetry.RecordFailure(opCreateItem, domain.ClassifyFailure(err))
			return nil, err
		}
	}

	item := &domain.InventoryItem{
		ID:                   uuid.New().String(),
		ProductID:            cmd.ProductID,
		MinimumThreshold:     cmd.MinimumThreshold,
		MaximumThreshold:     cmd.MaximumThreshold,
		IsActive:             cmd.IsActive,
		IsVisibleToCustomers: cmd.IsVisibleToCustomers,
		LastStockUpdate:      h.now(),
	}

	err := h.atomic.RunInTx(ctx, func(items domain.ItemRepository, movements domain.MovementRepository) error {
		if err := items.Create(ctx, item); err != nil {
			return err
		}
		if cmd.InitialStock == 0 {
			return nil
		}

		draft, err := domain.BuildDraft(item.Snapshot(), domain.MovementProposal{
			MovementType:   domain.MovementRestock,
			QuantityChange: cmd.InitialStock,
			Reason:         "initial stock",
			PerformedBy:    cmd.PerformedBy,
		})
		if err != nil {
			return err
		}

		committedAt := h.now()
		if err := items.ApplyBalanceChange(ctx, draft.ToBalanceChange(committedAt)); err != nil {
			return err
		}
		if err := movements.Create(ctx, draft.ToMovement(uuid.New().String(), committedAt)); err != nil {
			return err
		}

		item.CurrentStock = draft.NewStock
		item.AvailableStock = draft.NewAvailable
		item.LastStockUpdate = committedAt
		return nil
	})
	if err != nil {
		h.telemetry.RecordFailure(opCreateItem, domain.ClassifyFailure(err))
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	h.telemetry.RecordSuccess(opCreateItem)
	return item, nil
}

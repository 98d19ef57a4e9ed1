package events

import (
	"context"
	"errors"
	"fmt"

	"github.com/andrewkhoh/farmstand-inventory/internal/ledger/domain"
	"github.com/andrewkhoh/farmstand-inventory/internal/ledger/usecase/command"
	"github.com/andrewkhoh/farmstand-inventory/kafka"
	"github.com/andrewkhoh/farmstand-inventory/pkg/logger"
)

// OrderHandler turns completed orders into sale movements. Order lines carry
// deterministic idempotency keys, so a redelivered message cannot deduct
// stock twice.
type OrderHandler struct {
	items domain.ItemRepository
	batch *command.ProcessBatchHandler
}

// NewOrderHandler creates a new order event handler
func NewOrderHandler(items domain.ItemRepository, batch *command.ProcessBatchHandler) *OrderHandler {
	return &OrderHandler{items: items, batch: batch}
}

// HandleOrderCompleted records one sale movement per resolvable order line.
// Lines for products the ledger does not track are skipped with a warning.
func (h *OrderHandler) HandleOrderCompleted(ctx context.Context, event kafka.OrderCompletedEvent) error {
	requests := make([]command.BatchMovementRequest, 0, len(event.Lines))
	for _, line := range event.Lines {
		if line.Quantity <= 0 {
			logger.WithContext(ctx).Warn().
				Str("order_id", event.OrderID).
				Str("product_id", line.ProductID).
				Int("quantity", line.Quantity).
				Msg("Skipping order line with non-positive quantity")
			continue
		}

		item, err := h.items.FindByProductID(ctx, line.ProductID)
		if errors.Is(err, domain.ErrItemNotFound) {
			logger.WithContext(ctx).Warn().
				Str("order_id", event.OrderID).
				Str("product_id", line.ProductID).
				Msg("Order line references untracked product")
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to resolve order line: %w", err)
		}

		orderID := event.OrderID
		key := fmt.Sprintf("order-%s-item-%s", event.OrderID, item.ID)
		requests = append(requests, command.BatchMovementRequest{
			ItemID:           item.ID,
			MovementType:     string(domain.MovementSale),
			QuantityChange:   -line.Quantity,
			Reason:           fmt.Sprintf("order %s completed", event.OrderID),
			ReferenceOrderID: &orderID,
			IdempotencyKey:   &key,
		})
	}
	if len(requests) == 0 {
		return nil
	}

	batchID := fmt.Sprintf("BATCH-ORDER-%s", event.OrderID)
	result, err := h.batch.Handle(ctx, command.ProcessBatchCommand{
		BatchID:   &batchID,
		Movements: requests,
	})
	if err != nil {
		return fmt.Errorf("failed to process order movements: %w", err)
	}

	for _, failed := range result.Failed {
		if errors.Is(failed.Err, domain.ErrDuplicateMovement) {
			continue
		}
		logger.WithContext(ctx).Error().
			Err(failed.Err).
			Str("order_id", event.OrderID).
			Str("item_id", failed.ItemID).
			Msg("Order movement rejected")
	}
	return nil
}

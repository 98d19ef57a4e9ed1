package query

import (
	"context"
	"fmt"

	"github.com/andrewkhoh/farmstand-inventory/internal/ledger/domain"
)

// BatchMovementsQuery represents the query for all movements sharing a batch
type BatchMovementsQuery struct {
	BatchID     string
	RequestedBy *string
}

// BatchMovementsHandler handles batch movements query
type BatchMovementsHandler struct {
	gate      domain.PermissionGate
	movements domain.MovementRepository
	telemetry domain.TelemetrySink
}

// NewBatchMovementsHandler creates a new batch movements handler
func NewBatchMovementsHandler(
	gate domain.PermissionGate,
	movements domain.MovementRepository,
	telemetry domain.TelemetrySink,
) *BatchMovementsHandler {
	return &BatchMovementsHandler{gate: gate, movements: movements, telemetry: telemetry}
}

const opBatchMovements = "batch_movements"

// Handle executes the batch movements query, oldest movements first so the
// batch reads in commit order.
func (h *BatchMovementsHandler) Handle(ctx context.Context, query BatchMovementsQuery) (*domain.MovementPage, error) {
	if query.BatchID == "" {
		return nil, fmt.Errorf("batch_id is required")
	}

	if query.RequestedBy != nil {
		if err := h.gate.Check(ctx, *query.RequestedBy, domain.ActionReadMovements); err != nil {
			h.telemetry.RecordFailure(opBatchMovements, domain.ClassifyFailure(err))
			return nil, err
		}
	}

	page, err := h.movements.FindByBatch(ctx, query.BatchID)
	if err != nil {
		h.telemetry.RecordFailure(opBatchMovements, domain.ClassifyFailure(err))
		return nil, fmt.Errorf("failed to get batch movements: %w", err)
	}

	h.telemetry.RecordSuccess(opBatchMovements)
	return page, nil
}

package query

import (
	"context"
	"fmt"

	"github.com/andrewkhoh/farmstand-inventory/internal/ledger/domain"
)

// MovementHistoryQuery represents the query for one item's movement history
type MovementHistoryQuery struct {
	ItemID                 string
	Limit                  int
	Offset                 int
	IncludeSystemMovements bool
	RequestedBy            *string
}

// MovementHistoryHandler handles movement history query
type MovementHistoryHandler struct {
	gate      domain.PermissionGate
	movements domain.MovementRepository
	telemetry domain.TelemetrySink
}

// NewMovementHistoryHandler creates a new movement history handler
func NewMovementHistoryHandler(
	gate domain.PermissionGate,
	movements domain.MovementRepository,
	telemetry domain.TelemetrySink,
) *MovementHistoryHandler {
	return &MovementHistoryHandler{gate: gate, movements: movements, telemetry: telemetry}
}

const opMovementHistory = "movement_history"

// Handle executes the movement history query, newest movements first.
// Undecodable audit rows are skipped, not fatal; the page reports how many
// rows were scanned so callers can detect gaps.
func (h *MovementHistoryHandler) Handle(ctx context.Context, query MovementHistoryQuery) (*domain.MovementPage, error) {
	if query.ItemID == "" {
		return nil, fmt.Errorf("item_id is required")
	}

	if query.Limit == 0 {
		query.Limit = 50
	}
	if query.Limit > 100 {
		query.Limit = 100
	}

	if query.RequestedBy != nil {
		if err := h.gate.Check(ctx, *query.RequestedBy, domain.ActionReadMovements); err != nil {
			h.telemetry.RecordFailure(opMovementHistory, domain.ClassifyFailure(err))
			return nil, err
		}
	}

	page, err := h.movements.FindByItem(ctx, query.ItemID, domain.HistoryPage{
		Limit:                  query.Limit,
		Offset:                 query.Offset,
		IncludeSystemMovements: query.IncludeSystemMovements,
	})
	if err != nil {
		h.telemetry.RecordFailure(opMovementHistory, domain.ClassifyFailure(err))
		return nil, fmt.Errorf("failed to get movement history: %w", err)
	}

	h.telemetry.RecordSuccess(opMovementHistory)
	return page, nil
}

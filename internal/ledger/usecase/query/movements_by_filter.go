package query

import (
	"context"
	"fmt"
	"time"

	"github.com/andrewkhoh/farmstand-inventory/internal/ledger/domain"
)

// MovementsByFilterQuery represents the filtered movement search. Unset
// fields are ignored; set fields must all match.
type MovementsByFilterQuery struct {
	MovementType *string
	PerformedBy  *string
	StartDate    *time.Time
	EndDate      *time.Time
	Limit        int
	Offset       int
	RequestedBy  *string
}

// MovementsByFilterHandler handles movements by filter query
type MovementsByFilterHandler struct {
	gate      domain.PermissionGate
	movements domain.MovementRepository
	telemetry domain.TelemetrySink
}

// NewMovementsByFilterHandler creates a new movements by filter handler
func NewMovementsByFilterHandler(
	gate domain.PermissionGate,
	movements domain.MovementRepository,
	telemetry domain.TelemetrySink,
) *MovementsByFilterHandler {
	return &MovementsByFilterHandler{gate: gate, movements: movements, telemetry: telemetry}
}

const opMovementsByFilter = "movements_by_filter"

// Handle executes the movements by filter query
func (h *MovementsByFilterHandler) Handle(ctx context.Context, query MovementsByFilterQuery) (*domain.MovementPage, error) {
	filter := domain.MovementFilter{
		PerformedBy: query.PerformedBy,
		StartDate:   query.StartDate,
		EndDate:     query.EndDate,
		Limit:       query.Limit,
		Offset:      query.Offset,
	}

	if query.MovementType != nil {
		movementType, err := domain.ParseMovementType(*query.MovementType)
		if err != nil {
			return nil, err
		}
		filter.MovementType = &movementType
	}
	if query.StartDate != nil && query.EndDate != nil && query.EndDate.Before(*query.StartDate) {
		return nil, fmt.Errorf("end_date cannot be before start_date")
	}

	if filter.Limit == 0 {
		filter.Limit = 50
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}

	if query.RequestedBy != nil {
		if err := h.gate.Check(ctx, *query.RequestedBy, domain.ActionReadMovements); err != nil {
			h.telemetry.RecordFailure(opMovementsByFilter, domain.ClassifyFailure(err))
			return nil, err
		}
	}

	page, err := h.movements.FindByFilter(ctx, filter)
	if err != nil {
		h.telemetry.RecordFailure(opMovementsByFilter, domain.ClassifyFailure(err))
		return nil, fmt.Errorf("failed to search movements: %w", err)
	}

	h.telemetry.RecordSuccess(opMovementsByFilter)
	return page, nil
}

package command

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/andrewkhoh/farmstand-inventory/internal/ledger/domain"
)

// ProcessBatchCommand represents the command to record several movements
// under one batch id. Items commit independently; one rejected movement
// never rolls back its siblings.
type ProcessBatchCommand struct {
	BatchID     *string
	PerformedBy *string
	Movements   []BatchMovementRequest
}

// BatchMovementRequest is one movement inside a batch.
type BatchMovementRequest struct {
	ItemID                string
	MovementType          string
	QuantityChange        int
	ReservedStockChange   int
	ExpectedPreviousStock *int
	Reason                string
	ReferenceOrderID      *string
	IdempotencyKey        *string
}

// BatchItemError pairs a failed batch entry with its typed error.
type BatchItemError struct {
	Index  int
	ItemID string
	Err    error
}

// BatchResult accounts for every entry in a processed batch:
// len(Succeeded) + len(Failed) == TotalProcessed == number of requests.
type BatchResult struct {
	BatchID        string
	Succeeded      []domain.StockMovement
	Failed         []BatchItemError
	TotalProcessed int
}

// ProcessBatchHandler handles process batch command
type ProcessBatchHandler struct {
	gate      domain.PermissionGate
	record    *RecordMovementHandler
	telemetry domain.TelemetrySink
	now       func() time.Time
}

// NewProcessBatchHandler creates a new process batch handler
func NewProcessBatchHandler(
	gate domain.PermissionGate,
	record *RecordMovementHandler,
	telemetry domain.TelemetrySink,
) *ProcessBatchHandler {
	return &ProcessBatchHandler{
		gate:      gate,
		record:    record,
		telemetry: telemetry,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

const opProcessBatch = "process_batch"

// Handle executes the process batch command. The actor is cleared once for
// the whole batch; afterwards each movement runs the normal commit path in
// its own transaction.
func (h *ProcessBatchHandler) Handle(ctx context.Context, cmd ProcessBatchCommand) (*BatchResult, error) {
	start := h.now()
	defer func() {
		h.telemetry.ObserveDuration(opProcessBatch, time.Since(start).Seconds())
	}()

	if len(cmd.Movements) == 0 {
		return nil, fmt.Errorf("batch contains no movements")
	}

	if cmd.PerformedBy != nil {
		if err := h.gate.Check(ctx, *cmd.PerformedBy, domain.ActionRecordMovements); err != nil {
			h.telemetry.RecordFailure(opProcessBatch, domain.ClassifyFailure(err))
			return nil, err
		}
	}

	batchID := fmt.Sprintf("BATCH-%s", uuid.New().String())
	if cmd.BatchID != nil && *cmd.BatchID != "" {
		batchID = *cmd.BatchID
	}

	result := &BatchResult{
		BatchID:   batchID,
		Succeeded: []domain.StockMovement{},
		Failed:    []BatchItemError{},
	}
	for i, req := range cmd.Movements {
		result.TotalProcessed++
		movement, err := h.record.handle(ctx, RecordMovementCommand{
			ItemID:                req.ItemID,
			MovementType:          req.MovementType,
			QuantityChange:        req.QuantityChange,
			ReservedStockChange:   req.ReservedStockChange,
			ExpectedPreviousStock: req.ExpectedPreviousStock,
			Reason:                req.Reason,
			PerformedBy:           cmd.PerformedBy,
			ReferenceOrderID:      req.ReferenceOrderID,
			BatchID:               &batchID,
			IdempotencyKey:        req.IdempotencyKey,
		}, false)
		if err != nil {
			result.Failed = append(result.Failed, BatchItemError{
				Index:  i,
				ItemID: req.ItemID,
				Err:    err,
			})
			continue
		}
		result.Succeeded = append(result.Succeeded, *movement)
	}

	h.telemetry.RecordSuccess(opProcessBatch)
	return result, nil
}

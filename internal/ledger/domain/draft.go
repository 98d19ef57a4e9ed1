package domain

import (
	"fmt"
	"time"
)

// MovementProposal is a requested movement before validation. QuantityChange
// applies to CurrentStock; ReservedStockChange optionally shifts the reserved
// counter in the same commit. The ledger enforces the arithmetic invariants
// and leaves the business meaning of each combination to the caller.
//
// ExpectedPreviousStock, when set, is the balance the caller read before
// proposing the movement. A snapshot that no longer carries it is rejected as
// stale, so a client can refuse to commit against numbers its user never saw.
type MovementProposal struct {
	MovementType          MovementType
	QuantityChange        int
	ReservedStockChange   int
	ExpectedPreviousStock *int
	Reason                string
	PerformedBy           *string
	ReferenceOrderID      *string
	BatchID               *string
	IdempotencyKey        *string
}

// MovementDraft is a proposal that passed invariant validation against a
// balance snapshot. It fixes the exact counter transition so commit can apply
// it without recomputation.
type MovementDraft struct {
	Snapshot     BalanceSnapshot
	Proposal     MovementProposal
	NewStock     int
	NewReserved  int
	NewAvailable int
}

// BuildDraft validates a proposed movement against a balance snapshot. It
// performs no I/O and rejects with a typed *InvariantViolationError carrying
// the first violated rule.
func BuildDraft(snapshot BalanceSnapshot, proposal MovementProposal) (*MovementDraft, error) {
	if !proposal.MovementType.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMovementType, proposal.MovementType)
	}
	if expected := proposal.ExpectedPreviousStock; expected != nil && *expected != snapshot.CurrentStock {
		return nil, &InvariantViolationError{
			ItemID: snapshot.ItemID,
			Reason: ReasonStaleSnapshot,
			Detail: fmt.Sprintf("caller expected stock %d, balance holds %d", *expected, snapshot.CurrentStock),
		}
	}
	if proposal.QuantityChange == 0 {
		return nil, &InvariantViolationError{
			ItemID: snapshot.ItemID,
			Reason: ReasonZeroQuantity,
		}
	}
	if d := proposal.MovementType.Direction(); (d > 0 && proposal.QuantityChange < 0) ||
		(d < 0 && proposal.QuantityChange > 0) {
		return nil, &InvariantViolationError{
			ItemID: snapshot.ItemID,
			Reason: ReasonDirectionMismatch,
			Detail: fmt.Sprintf("%s movements cannot carry quantity %+d", proposal.MovementType, proposal.QuantityChange),
		}
	}

	newStock := snapshot.CurrentStock + proposal.QuantityChange
	if newStock < 0 {
		return nil, &InvariantViolationError{
			ItemID: snapshot.ItemID,
			Reason: ReasonNegativeResultingStock,
			Detail: fmt.Sprintf("stock %d with change %+d", snapshot.CurrentStock, proposal.QuantityChange),
		}
	}

	newReserved := snapshot.ReservedStock + proposal.ReservedStockChange
	if newReserved < 0 {
		return nil, &InvariantViolationError{
			ItemID: snapshot.ItemID,
			Reason: ReasonNegativeReservedStock,
			Detail: fmt.Sprintf("reserved %d with change %+d", snapshot.ReservedStock, proposal.ReservedStockChange),
		}
	}

	newAvailable := newStock - newReserved
	if newAvailable < 0 {
		return nil, &InvariantViolationError{
			ItemID: snapshot.ItemID,
			Reason: ReasonNegativeAvailableStock,
			Detail: fmt.Sprintf("stock %d, reserved %d after movement", newStock, newReserved),
		}
	}

	return &MovementDraft{
		Snapshot:     snapshot,
		Proposal:     proposal,
		NewStock:     newStock,
		NewReserved:  newReserved,
		NewAvailable: newAvailable,
	}, nil
}

// ToMovement materializes the audit record for the draft.
func (d *MovementDraft) ToMovement(id string, performedAt time.Time) *StockMovement {
	return &StockMovement{
		ID:               id,
		InventoryItemID:  d.Snapshot.ItemID,
		MovementType:     d.Proposal.MovementType,
		QuantityChange:   d.Proposal.QuantityChange,
		PreviousStock:    d.Snapshot.CurrentStock,
		NewStock:         d.NewStock,
		Reason:           d.Proposal.Reason,
		PerformedBy:      d.Proposal.PerformedBy,
		ReferenceOrderID: d.Proposal.ReferenceOrderID,
		BatchID:          d.Proposal.BatchID,
		IdempotencyKey:   d.Proposal.IdempotencyKey,
		PerformedAt:      performedAt,
	}
}

// ToBalanceChange materializes the guarded counter update for the draft.
func (d *MovementDraft) ToBalanceChange(updatedAt time.Time) BalanceChange {
	return BalanceChange{
		ItemID:        d.Snapshot.ItemID,
		PreviousStock: d.Snapshot.CurrentStock,
		NewStock:      d.NewStock,
		ReservedStock: d.NewReserved,
		UpdatedAt:     updatedAt,
	}
}

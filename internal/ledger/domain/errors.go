package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the ledger. Callers branch with errors.Is; the
// structured types below carry detail while unwrapping to these.
var (
	ErrItemNotFound           = errors.New("inventory item not found")
	ErrItemExists             = errors.New("inventory item already exists for product")
	ErrMovementNotFound       = errors.New("stock movement not found")
	ErrUnknownMovementType    = errors.New("unknown movement type")
	ErrInvariantViolation     = errors.New("movement violates stock invariants")
	ErrConcurrentModification = errors.New("stock level changed concurrently")
	ErrStoreUnavailable       = errors.New("ledger store unavailable")
	ErrPermissionDenied       = errors.New("permission denied")
	ErrPermissionUnavailable  = errors.New("permission service unavailable")
	ErrDuplicateMovement      = errors.New("movement already recorded for idempotency key")
)

// ViolationReason identifies which stock invariant a proposed movement broke.
type ViolationReason string

const (
	ReasonZeroQuantity           ViolationReason = "zero_quantity"
	ReasonNegativeResultingStock ViolationReason = "negative_resulting_stock"
	ReasonNegativeAvailableStock ViolationReason = "negative_available_stock"
	ReasonNegativeReservedStock  ViolationReason = "negative_reserved_stock"
	ReasonDirectionMismatch      ViolationReason = "direction_mismatch"
	ReasonStaleSnapshot          ViolationReason = "stale_snapshot"
)

// InvariantViolationError rejects a movement that would corrupt a balance.
// It is produced by pure validation before anything is written.
type InvariantViolationError struct {
	ItemID string
	Reason ViolationReason
	Detail string
}

func (e *InvariantViolationError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("movement rejected for item %s: %s", e.ItemID, e.Reason)
	}
	return fmt.Sprintf("movement rejected for item %s: %s (%s)", e.ItemID, e.Reason, e.Detail)
}

func (e *InvariantViolationError) Is(target error) bool {
	return target == ErrInvariantViolation
}

// PermissionDeniedError carries who was refused and what they attempted.
type PermissionDeniedError struct {
	ActorID string
	Action  string
}

func (e *PermissionDeniedError) Error() string {
	return fmt.Sprintf("actor %s is not allowed to %s", e.ActorID, e.Action)
}

func (e *PermissionDeniedError) Is(target error) bool {
	return target == ErrPermissionDenied
}

// DuplicateMovementError reports an idempotency-key replay. ExistingID points
// at the movement committed by the first attempt.
type DuplicateMovementError struct {
	IdempotencyKey string
	ExistingID     string
}

func (e *DuplicateMovementError) Error() string {
	return fmt.Sprintf("idempotency key %s already committed movement %s", e.IdempotencyKey, e.ExistingID)
}

func (e *DuplicateMovementError) Is(target error) bool {
	return target == ErrDuplicateMovement
}

// StoreError wraps a storage failure while classifying it as unavailability.
// Unwrap exposes the driver error for logging; errors.Is still matches
// ErrStoreUnavailable.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) Is(target error) bool {
	return target == ErrStoreUnavailable
}

// IsRetryable reports whether the caller may safely retry the operation,
// ideally with an idempotency key so a replay cannot double-apply.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentModification) ||
		errors.Is(err, ErrStoreUnavailable) ||
		errors.Is(err, ErrPermissionUnavailable)
}

// IsClientError reports whether the failure was caused by the request itself
// rather than ledger state or infrastructure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvariantViolation) ||
		errors.Is(err, ErrUnknownMovementType) ||
		errors.Is(err, ErrPermissionDenied) ||
		errors.Is(err, ErrItemNotFound) ||
		errors.Is(err, ErrItemExists) ||
		errors.Is(err, ErrDuplicateMovement)
}

// IsNotFound reports whether the error is any not-found variant.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrItemNotFound) || errors.Is(err, ErrMovementNotFound)
}

// ClassifyFailure maps an error to a stable, low-cardinality label suitable
// for metrics. Raw error text never becomes a label value.
func ClassifyFailure(err error) string {
	switch {
	case errors.Is(err, ErrPermissionDenied):
		return "permission_denied"
	case errors.Is(err, ErrPermissionUnavailable):
		return "permission_unavailable"
	case errors.Is(err, ErrInvariantViolation):
		return "invariant_violation"
	case errors.Is(err, ErrConcurrentModification):
		return "concurrent_modification"
	case errors.Is(err, ErrStoreUnavailable):
		return "store_unavailable"
	case errors.Is(err, ErrDuplicateMovement):
		return "duplicate_movement"
	case errors.Is(err, ErrItemExists):
		return "item_exists"
	case errors.Is(err, ErrUnknownMovementType):
		return "unknown_movement_type"
	case IsNotFound(err):
		return "not_found"
	default:
		return "internal"
	}
}

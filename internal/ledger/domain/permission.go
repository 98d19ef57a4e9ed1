package domain

import "context"

// Permission actions checked before ledger operations.
const (
	ActionReadMovements   = "read_movements"
	ActionRecordMovements = "record_movements"
)

// PermissionGate answers whether an actor may perform a ledger action.
// Implementations must fail closed: if the answer cannot be obtained the
// returned error is ErrPermissionUnavailable, never a silent allow.
type PermissionGate interface {
	Check(ctx context.Context, actorID, action string) error
	// Invalidate drops any cached roles for the actor so the next check
	// observes fresh permissions.
	Invalidate(ctx context.Context, actorID string) error
}
